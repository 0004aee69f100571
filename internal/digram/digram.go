// Package digram indexes digrams (ordered pairs of adjacent symbols) by
// identity, so the constraint engine can find an existing occurrence of a
// digram in O(1) instead of scanning every rule body.
//
// A digram's identity is the content of its two symbols, not their
// position: two terminals holding the same value are the same digram
// wherever they occur, and two non-terminals referencing the same rule
// are likewise the same digram. The index stores at most one occurrence
// per identity, matching the invariant that no digram may occur twice
// across the whole grammar.
package digram

import "github.com/dekarrin/sequitur/internal/symbol"

// elem is one half of a Key: either a terminal value or a referenced rule
// id, tagged by kind so the zero value of T can't be confused with "no
// terminal here".
type elem[T comparable] struct {
	kind  symbol.Kind
	value T
	rule  symbol.RuleID
}

// Key is the identity of a digram: the content of its left and right
// symbols. Two digrams with equal Keys are the same digram for purposes
// of the uniqueness invariant, regardless of where they occur.
type Key[T comparable] struct {
	left, right elem[T]
}

// KeyOf computes the identity of the digram starting at s, i.e. the pair
// (s, g.Next(s)). Both s and g.Next(s) must be non-guard symbols.
func KeyOf[T comparable](g *symbol.Graph[T], s symbol.Ref) Key[T] {
	return Key[T]{
		left:  elemOf(g, s),
		right: elemOf(g, g.Next(s)),
	}
}

func elemOf[T comparable](g *symbol.Graph[T], s symbol.Ref) elem[T] {
	e := elem[T]{kind: g.Kind(s)}
	switch e.kind {
	case symbol.KindTerminal:
		e.value = g.Value(s)
	case symbol.KindNonTerminal:
		e.rule = g.NonTerminalRule(s)
	}
	return e
}

// Index maps a digram's Key to the left symbol of its sole recorded
// occurrence.
type Index[T comparable] struct {
	m map[Key[T]]symbol.Ref
}

// New returns an empty Index.
func New[T comparable]() *Index[T] {
	return &Index[T]{m: make(map[Key[T]]symbol.Ref)}
}

// Lookup returns the left symbol of the recorded occurrence of key, and
// whether one is recorded.
func (idx *Index[T]) Lookup(key Key[T]) (symbol.Ref, bool) {
	s, ok := idx.m[key]
	return s, ok
}

// Insert records s as the (sole) occurrence of key, overwriting whatever
// was previously recorded for it.
func (idx *Index[T]) Insert(key Key[T], s symbol.Ref) {
	idx.m[key] = s
}

// Remove clears any recorded occurrence of key. It is a no-op if none is
// recorded, or if the recorded occurrence is not cur (a caller racing a
// stale key against a newer occurrence should not clobber it).
func (idx *Index[T]) Remove(key Key[T], cur symbol.Ref) {
	if s, ok := idx.m[key]; ok && s == cur {
		delete(idx.m, key)
	}
}

// Len returns the number of distinct digrams currently indexed.
func (idx *Index[T]) Len() int {
	return len(idx.m)
}
