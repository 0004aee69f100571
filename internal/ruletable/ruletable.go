// Package ruletable tracks the set of live rules in a grammar: their guard
// symbols, their use counts, and the list of non-terminals that reference
// each one.
//
// Use-count bookkeeping is the piece the symbol package deliberately stays
// out of. Locating "the sole symbol referencing rule R" in O(1) — needed
// to inline a rule the instant its use count drops to one — requires a
// second linked list threaded through the referencing non-terminal nodes.
// Table owns that list; symbol.Graph only exposes the RefPrev/RefNext
// slots it is built from.
package ruletable

import (
	"github.com/dekarrin/sequitur/internal/idalloc"
	"github.com/dekarrin/sequitur/internal/symbol"
)

// ID identifies a rule.
type ID = idalloc.ID

type rule struct {
	guard    symbol.Ref
	useCount int
	refHead  symbol.Ref // head of the doubly-linked list of referencing non-terminals
}

// Table owns rule metadata for a single grammar backed by g. It does not
// own g itself; callers construct Graph and Table together and pass the
// same Graph to both.
type Table[T comparable] struct {
	g     *symbol.Graph[T]
	ids   *idalloc.Allocator
	rules map[ID]*rule
	top   ID
	hasTop bool
}

// New returns an empty Table backed by g.
func New[T comparable](g *symbol.Graph[T]) *Table[T] {
	return &Table[T]{
		g:     g,
		ids:   idalloc.New(),
		rules: make(map[ID]*rule),
	}
}

// CreateRule allocates a fresh rule id, creates its guard node, and
// registers it with zero uses.
func (t *Table[T]) CreateRule() ID {
	id := t.ids.Allocate()
	guard := t.g.NewGuard(id)
	t.rules[id] = &rule{guard: guard}
	return id
}

// DestroyRule frees id's guard node and its bookkeeping. id must have no
// remaining body symbols and no remaining references.
func (t *Table[T]) DestroyRule(id ID) {
	r := t.mustRule(id)
	t.g.Free(r.guard)
	delete(t.rules, id)
	t.ids.Free(id)
}

// SetTop designates id as the grammar's start rule. There is at most one
// top rule at a time.
func (t *Table[T]) SetTop(id ID) {
	t.mustRule(id)
	t.top = id
	t.hasTop = true
}

// TopID returns the start rule's id and true, or zero and false if none has
// been designated yet.
func (t *Table[T]) TopID() (ID, bool) {
	return t.top, t.hasTop
}

// IsTop reports whether id is the designated start rule.
func (t *Table[T]) IsTop(id ID) bool {
	return t.hasTop && t.top == id
}

// Guard returns id's guard node.
func (t *Table[T]) Guard(id ID) symbol.Ref {
	return t.mustRule(id).guard
}

// BodyHead returns the first symbol in id's body, or the guard itself if
// the body is empty.
func (t *Table[T]) BodyHead(id ID) symbol.Ref {
	r := t.mustRule(id)
	return t.g.Next(r.guard)
}

// BodyTail returns the last symbol in id's body, or the guard itself if
// the body is empty.
func (t *Table[T]) BodyTail(id ID) symbol.Ref {
	r := t.mustRule(id)
	return t.g.Prev(r.guard)
}

// IsEmpty reports whether id's body has no symbols.
func (t *Table[T]) IsEmpty(id ID) bool {
	r := t.mustRule(id)
	return t.g.Next(r.guard) == r.guard
}

// UseCount returns the number of non-terminals currently referencing id.
func (t *Table[T]) UseCount(id ID) int {
	return t.mustRule(id).useCount
}

// Reference records that nt (a non-terminal node with NonTerminalRule(nt)
// == id) now refers to id, threading it onto id's reference list.
func (t *Table[T]) Reference(id ID, nt symbol.Ref) {
	r := t.mustRule(id)
	r.useCount++

	old := r.refHead
	t.g.SetRefPrev(nt, symbol.Ref{})
	t.g.SetRefNext(nt, old)
	if !old.IsNil() {
		t.g.SetRefPrev(old, nt)
	}
	r.refHead = nt
}

// Unreference removes nt from id's reference list and decrements its use
// count. nt must currently be on id's reference list.
func (t *Table[T]) Unreference(id ID, nt symbol.Ref) {
	r := t.mustRule(id)
	r.useCount--

	prev := t.g.RefPrev(nt)
	next := t.g.RefNext(nt)
	if prev.IsNil() {
		r.refHead = next
	} else {
		t.g.SetRefNext(prev, next)
	}
	if !next.IsNil() {
		t.g.SetRefPrev(next, prev)
	}
}

// SoleReference returns id's one referencing non-terminal and true when
// UseCount(id) == 1, or the zero Ref and false otherwise.
func (t *Table[T]) SoleReference(id ID) (symbol.Ref, bool) {
	r := t.mustRule(id)
	if r.useCount != 1 {
		return symbol.Ref{}, false
	}
	return r.refHead, true
}

// IDs returns the ids of every currently live rule in unspecified order.
func (t *Table[T]) IDs() []ID {
	ids := make([]ID, 0, len(t.rules))
	for id := range t.rules {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of currently live rules.
func (t *Table[T]) Len() int {
	return len(t.rules)
}

func (t *Table[T]) mustRule(id ID) *rule {
	r, ok := t.rules[id]
	if !ok {
		panic("ruletable: unknown rule id")
	}
	return r
}
