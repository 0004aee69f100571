// Package idalloc issues dense, reusable integer identifiers.
//
// It backs the rule table's id space: ids freed by rule destruction are
// handed back out before any new id is minted, keeping the id space as
// dense as the reference implementation's.
package idalloc

// ID is an opaque, reusable identifier.
type ID uint32

// Allocator issues and reclaims IDs starting at 0.
type Allocator struct {
	next ID
	free []ID
}

// New returns an Allocator ready to issue IDs starting at 0.
func New() *Allocator {
	return &Allocator{}
}

// Allocate returns a previously-freed ID if one is available, otherwise it
// mints a new one. No ordering is guaranteed between Allocate and Free calls
// beyond "a freed ID may be reissued by a later Allocate".
func (a *Allocator) Allocate() ID {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

// Free returns id to the pool for reuse. It is the caller's responsibility to
// ensure id is not freed twice or freed while still in use.
func (a *Allocator) Free(id ID) {
	a.free = append(a.free, id)
}
