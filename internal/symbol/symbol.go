// Package symbol implements the symbol graph: the cyclic doubly-linked
// lists that form rule bodies in an incrementally-built Sequitur grammar.
//
// Nodes live in an arena (Graph) and are addressed by Ref, a generational
// index rather than a raw pointer, per the "safe equivalent" of the
// classical pointer-and-hash-table design: a Ref that outlives its node's
// generation is caught rather than silently reused.
//
// Graph itself never touches the digram index or any rule bookkeeping;
// it only ever does list surgery. Keeping that repair logic out of this
// package is deliberate -- see the ruletable and constraint packages for
// the pieces that build on top of it.
package symbol

import "github.com/dekarrin/sequitur/internal/idalloc"

// RuleID identifies a rule. NonTerminal nodes carry one as the rule they
// reference; every node carries one as the rule whose body it belongs to.
type RuleID = idalloc.ID

// Kind distinguishes the three symbol variants.
type Kind uint8

const (
	// KindTerminal holds one value of the input alphabet.
	KindTerminal Kind = iota
	// KindNonTerminal refers to another rule's body.
	KindNonTerminal
	// KindGuard is the sentinel marking both ends of a rule body. It never
	// participates in a digram.
	KindGuard
)

// Ref is a generational index identifying a node within a Graph. The zero
// Ref never refers to a live node and is used as a "no reference" sentinel
// by packages built on top of Graph.
type Ref struct {
	idx uint32
	gen uint32
}

// IsNil reports whether r is the zero Ref, i.e. refers to no node.
func (r Ref) IsNil() bool {
	return r.gen == 0
}

type node[T comparable] struct {
	gen   uint32
	alive bool

	kind  Kind
	value T      // meaningful when kind == KindTerminal
	ref   RuleID // meaningful when kind == KindNonTerminal: the referenced rule
	owner RuleID // the rule whose body this node belongs to

	prev, next Ref // body-list links, cyclic through the owning rule's guard

	// refPrev/refNext thread this node into its target rule's list of
	// referring non-terminals. Meaningful only when kind == KindNonTerminal.
	refPrev, refNext Ref
}

// Graph is an arena of symbol nodes plus the O(1) list-splicing operations
// needed to maintain rule bodies. It is parametric over T, the terminal
// element type, which must be hashable and comparable by the caller's
// definition of equality (Go's built-in comparable serves that role).
type Graph[T comparable] struct {
	nodes    []node[T]
	freeList []uint32
}

// NewGraph returns an empty arena.
func NewGraph[T comparable]() *Graph[T] {
	return &Graph[T]{}
}

func (g *Graph[T]) alloc() uint32 {
	if n := len(g.freeList); n > 0 {
		idx := g.freeList[n-1]
		g.freeList = g.freeList[:n-1]
		return idx
	}
	g.nodes = append(g.nodes, node[T]{})
	return uint32(len(g.nodes) - 1)
}

func (g *Graph[T]) at(r Ref) *node[T] {
	n := &g.nodes[r.idx]
	if !n.alive || n.gen != r.gen {
		panic("symbol: use of stale or freed Ref")
	}
	return n
}

// NewGuard allocates a guard node whose body list is initially empty (it
// points to itself in both directions).
func (g *Graph[T]) NewGuard(owner RuleID) Ref {
	idx := g.alloc()
	n := &g.nodes[idx]
	n.gen++
	n.alive = true
	n.kind = KindGuard
	n.owner = owner
	ref := Ref{idx: idx, gen: n.gen}
	n.prev, n.next = ref, ref
	return ref
}

// NewTerminal allocates a detached terminal node holding value.
func (g *Graph[T]) NewTerminal(value T, owner RuleID) Ref {
	idx := g.alloc()
	n := &g.nodes[idx]
	n.gen++
	n.alive = true
	n.kind = KindTerminal
	n.value = value
	n.owner = owner
	ref := Ref{idx: idx, gen: n.gen}
	n.prev, n.next = Ref{}, Ref{}
	return ref
}

// NewNonTerminal allocates a detached non-terminal node referencing ruleRef.
// The node is not added to ruleRef's reference list; callers track that
// separately (see the ruletable package).
func (g *Graph[T]) NewNonTerminal(ruleRef RuleID, owner RuleID) Ref {
	idx := g.alloc()
	n := &g.nodes[idx]
	n.gen++
	n.alive = true
	n.kind = KindNonTerminal
	n.ref = ruleRef
	n.owner = owner
	ref := Ref{idx: idx, gen: n.gen}
	n.prev, n.next = Ref{}, Ref{}
	n.refPrev, n.refNext = Ref{}, Ref{}
	return ref
}

// Free releases s back to the arena. s must already be detached from any
// body list and any reference list it participated in.
func (g *Graph[T]) Free(s Ref) {
	n := g.at(s)
	n.alive = false
	var zero T
	n.value = zero
	g.freeList = append(g.freeList, s.idx)
}

// Kind returns s's variant.
func (g *Graph[T]) Kind(s Ref) Kind { return g.at(s).kind }

// IsGuard reports whether s is a guard sentinel.
func (g *Graph[T]) IsGuard(s Ref) bool { return g.at(s).kind == KindGuard }

// Owner returns the id of the rule whose body s belongs to.
func (g *Graph[T]) Owner(s Ref) RuleID { return g.at(s).owner }

// SetOwner reassigns the rule that s belongs to. Used when a rule's body is
// spliced into another rule's body during inlining.
func (g *Graph[T]) SetOwner(s Ref, owner RuleID) { g.at(s).owner = owner }

// Value returns the terminal value held by s. Only valid when
// Kind(s) == KindTerminal.
func (g *Graph[T]) Value(s Ref) T { return g.at(s).value }

// NonTerminalRule returns the rule referenced by s. Only valid when
// Kind(s) == KindNonTerminal.
func (g *Graph[T]) NonTerminalRule(s Ref) RuleID { return g.at(s).ref }

// Next returns s's successor in its body list.
func (g *Graph[T]) Next(s Ref) Ref { return g.at(s).next }

// Prev returns s's predecessor in its body list.
func (g *Graph[T]) Prev(s Ref) Ref { return g.at(s).prev }

// Neighbors returns (Prev(s), Next(s)).
func (g *Graph[T]) Neighbors(s Ref) (Ref, Ref) {
	n := g.at(s)
	return n.prev, n.next
}

func (g *Graph[T]) link(a, b Ref) {
	g.at(a).next = b
	g.at(b).prev = a
}

// InsertAfter splices t in between s and s.Next(), making it s's new
// successor.
func (g *Graph[T]) InsertAfter(s, t Ref) {
	next := g.at(s).next
	g.link(s, t)
	g.link(t, next)
}

// Unlink removes s from its body list, relinking its neighbors, and returns
// s in its now-detached state (its own prev/next are left stale and must
// not be read).
func (g *Graph[T]) Unlink(s Ref) Ref {
	n := g.at(s)
	g.link(n.prev, n.next)
	return s
}

// ReplaceDigram implements the core substitution step: given s with a
// non-guard successor, it unlinks (s, s.Next()) as a pair, frees both, and
// splices nt into the gap they left behind. nt must already carry the
// owner rule of the gap (ordinarily Owner(s)).
func (g *Graph[T]) ReplaceDigram(s, nt Ref) {
	right := g.at(s).next
	prev := g.at(s).prev
	next := g.at(right).next

	g.link(prev, nt)
	g.link(nt, next)

	g.Free(s)
	g.Free(right)
}

// SpliceBetween threads the chain [head..tail] (already linked to each
// other) in between prev and next, replacing whatever directly joined them
// before. Used when inlining a rule's body in place of its sole reference.
func (g *Graph[T]) SpliceBetween(prev, head, tail, next Ref) {
	g.link(prev, head)
	g.link(tail, next)
}

// RefPrev returns s's predecessor in its target rule's reference list.
// Only meaningful when Kind(s) == KindNonTerminal.
func (g *Graph[T]) RefPrev(s Ref) Ref { return g.at(s).refPrev }

// RefNext returns s's successor in its target rule's reference list.
func (g *Graph[T]) RefNext(s Ref) Ref { return g.at(s).refNext }

// SetRefPrev sets s's predecessor in its target rule's reference list.
func (g *Graph[T]) SetRefPrev(s, v Ref) { g.at(s).refPrev = v }

// SetRefNext sets s's successor in its target rule's reference list.
func (g *Graph[T]) SetRefNext(s, v Ref) { g.at(s).refNext = v }
