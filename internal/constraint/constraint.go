// Package constraint drives the two invariant-restoration procedures that
// give Sequitur its name: digram uniqueness (no pair of adjacent symbols
// occurs more than once across the whole grammar) and rule utility (no
// rule, other than the start rule, is used fewer than twice). Engine.Push
// appends one terminal and runs both to a fixed point before returning,
// so every exported accessor always sees a grammar that already satisfies
// them.
package constraint

import (
	"github.com/dekarrin/sequitur/internal/digram"
	"github.com/dekarrin/sequitur/internal/ruletable"
	"github.com/dekarrin/sequitur/internal/sqerrors"
	"github.com/dekarrin/sequitur/internal/symbol"
)

// Engine owns a grammar under construction: the symbol graph, the rule
// table, and the digram index, kept mutually consistent by Push.
type Engine[T comparable] struct {
	g     *symbol.Graph[T]
	rules *ruletable.Table[T]
	idx   *digram.Index[T]
	top   ruletable.ID
	n     int
}

// New returns an Engine with a single, empty start rule.
func New[T comparable]() *Engine[T] {
	g := symbol.NewGraph[T]()
	rules := ruletable.New[T](g)
	top := rules.CreateRule()
	rules.SetTop(top)
	return &Engine[T]{
		g:     g,
		rules: rules,
		idx:   digram.New[T](),
		top:   top,
	}
}

// Graph returns the underlying symbol graph, for read-only traversal by
// the facade package.
func (e *Engine[T]) Graph() *symbol.Graph[T] { return e.g }

// Rules returns the underlying rule table, for read-only traversal by the
// facade package.
func (e *Engine[T]) Rules() *ruletable.Table[T] { return e.rules }

// TopID returns the id of the start rule.
func (e *Engine[T]) TopID() ruletable.ID { return e.top }

// Len returns the number of terminals pushed so far, i.e. the length of
// the original input stream.
func (e *Engine[T]) Len() int { return e.n }

// Push appends value as a new terminal at the end of the start rule's
// body and restores both grammar invariants before returning.
func (e *Engine[T]) Push(value T) {
	tail := e.rules.BodyTail(e.top)
	t := e.g.NewTerminal(value, e.top)
	e.g.InsertAfter(tail, t)
	e.n++

	if !e.g.IsGuard(tail) {
		e.check(tail)
	}
}

// check examines the digram (s, Next(s)) and restores uniqueness if it
// duplicates an existing occurrence elsewhere in the grammar.
func (e *Engine[T]) check(s symbol.Ref) {
	if e.g.IsGuard(s) || e.g.IsGuard(e.g.Next(s)) {
		return
	}

	key := digram.KeyOf(e.g, s)
	match, found := e.idx.Lookup(key)
	if !found {
		e.idx.Insert(key, s)
		return
	}
	if match == s {
		return
	}
	if overlaps(e.g, match, s) {
		// Two occurrences of the same digram that share a symbol are not
		// yet a real repeat; leave the index pointing at the earlier one
		// and wait for a genuine third occurrence.
		return
	}

	e.substitute(match, s)
}

// overlaps reports whether a and b, as left symbols of two occurrences of
// the same digram, share a node (b immediately follows a, or vice versa).
func overlaps[T comparable](g *symbol.Graph[T], a, b symbol.Ref) bool {
	return g.Next(a) == b || g.Next(b) == a
}

// substitute resolves a digram found at both match and s (match being the
// earlier, previously-indexed occurrence) by replacing both with a
// reference to a single rule, reusing an existing rule if match's
// occurrence is already that rule's entire body.
func (e *Engine[T]) substitute(match, s symbol.Ref) {
	key := digram.KeyOf(e.g, match)
	e.idx.Remove(key, match)

	owner := e.g.Owner(match)
	reuse := e.rules.BodyHead(owner) == match &&
		e.rules.BodyTail(owner) == e.g.Next(match) &&
		!e.rules.IsTop(owner)

	var ruleID ruletable.ID
	if reuse {
		ruleID = owner
		e.idx.Insert(key, match)
	} else {
		ruleID = e.rules.CreateRule()
		e.cloneDigramInto(ruleID, match)
		e.idx.Insert(key, e.rules.BodyHead(ruleID))

		nt := e.g.NewNonTerminal(ruleID, e.g.Owner(match))
		e.replaceOccurrence(match, nt, ruleID)
	}

	nt := e.g.NewNonTerminal(ruleID, e.g.Owner(s))
	e.replaceOccurrence(s, nt, ruleID)
}

// cloneDigramInto copies the two symbols of the digram starting at match
// into a fresh body for ruleID (a newly-created, empty rule).
func (e *Engine[T]) cloneDigramInto(ruleID ruletable.ID, match symbol.Ref) {
	left := match
	right := e.g.Next(match)

	newLeft := e.cloneSymbol(left, ruleID)
	newRight := e.cloneSymbol(right, ruleID)

	guard := e.rules.Guard(ruleID)
	e.g.InsertAfter(guard, newLeft)
	e.g.InsertAfter(newLeft, newRight)
}

// cloneSymbol creates a fresh symbol with the same content as s, owned by
// owner, registering it as an additional reference if s is a non-terminal.
func (e *Engine[T]) cloneSymbol(s symbol.Ref, owner ruletable.ID) symbol.Ref {
	switch e.g.Kind(s) {
	case symbol.KindNonTerminal:
		target := e.g.NonTerminalRule(s)
		nt := e.g.NewNonTerminal(target, owner)
		e.rules.Reference(target, nt)
		return nt
	default:
		return e.g.NewTerminal(e.g.Value(s), owner)
	}
}

// replaceOccurrence replaces the digram (oldLeft, Next(oldLeft)) with a
// single non-terminal nt referencing ruleID, releasing any non-terminals
// displaced in the process and re-running check on the new boundary
// digrams it creates.
func (e *Engine[T]) replaceOccurrence(oldLeft, nt symbol.Ref, ruleID ruletable.ID) {
	oldRight := e.g.Next(oldLeft)
	prev := e.g.Prev(oldLeft)
	next := e.g.Next(oldRight)

	// Invalidate index entries keyed on content that is about to change or
	// disappear: this digram's own entry, and the entries for the
	// boundary digrams it currently forms with its neighbors.
	e.idx.Remove(digram.KeyOf(e.g, oldLeft), oldLeft)
	if !e.g.IsGuard(prev) {
		e.idx.Remove(digram.KeyOf(e.g, prev), prev)
	}
	if !e.g.IsGuard(oldRight) && !e.g.IsGuard(next) {
		e.idx.Remove(digram.KeyOf(e.g, oldRight), oldRight)
	}

	var released []ruletable.ID
	for _, old := range [2]symbol.Ref{oldLeft, oldRight} {
		if e.g.Kind(old) == symbol.KindNonTerminal {
			target := e.g.NonTerminalRule(old)
			e.rules.Unreference(target, old)
			released = append(released, target)
		}
	}

	e.g.ReplaceDigram(oldLeft, nt)
	e.rules.Reference(ruleID, nt)

	for _, target := range released {
		e.maybeRetireRule(target)
	}

	if !e.g.IsGuard(prev) {
		e.check(prev)
	}
	if !e.g.IsGuard(nt) && !e.g.IsGuard(next) {
		e.check(nt)
	}
}

// maybeRetireRule implements the rule-utility invariant: a rule with no
// remaining references is destroyed outright, and a rule with exactly one
// remaining reference is inlined in place of it. The start rule is never
// retired.
func (e *Engine[T]) maybeRetireRule(id ruletable.ID) {
	if e.rules.IsTop(id) {
		return
	}

	if e.rules.UseCount(id) == 0 {
		e.destroyDeadRule(id)
		return
	}

	if sole, ok := e.rules.SoleReference(id); ok {
		e.inlineRule(id, sole)
	}
}

// inlineRule splices ruleID's body into ref's owner in place of ref, then
// destroys ruleID. It is the "rule used only once" restoration.
func (e *Engine[T]) inlineRule(ruleID ruletable.ID, ref symbol.Ref) {
	owner := e.g.Owner(ref)
	prev, next := e.g.Neighbors(ref)

	// Invalidate index entries keyed on the boundary digrams ref currently
	// forms with its neighbors: both are about to change or disappear once
	// ref is spliced out, the same invalidation replaceOccurrence does
	// before mutating the graph.
	if !e.g.IsGuard(prev) {
		e.idx.Remove(digram.KeyOf(e.g, prev), prev)
	}
	if !e.g.IsGuard(next) {
		e.idx.Remove(digram.KeyOf(e.g, ref), ref)
	}

	if e.rules.IsEmpty(ruleID) {
		e.g.Unlink(ref)
		e.g.Free(ref)
		e.rules.DestroyRule(ruleID)
		if !e.g.IsGuard(prev) && !e.g.IsGuard(next) {
			e.check(prev)
		}
		return
	}

	head := e.rules.BodyHead(ruleID)
	tail := e.rules.BodyTail(ruleID)

	for cur := head; ; {
		e.g.SetOwner(cur, owner)
		if cur == tail {
			break
		}
		cur = e.g.Next(cur)
	}

	e.g.Unlink(ref)
	e.g.Free(ref)
	e.g.SpliceBetween(prev, head, tail, next)
	e.rules.DestroyRule(ruleID)

	if !e.g.IsGuard(prev) {
		e.check(prev)
	}
	if !e.g.IsGuard(tail) && !e.g.IsGuard(next) {
		e.check(tail)
	}
}

// destroyDeadRule frees every symbol in id's body, recursively releasing
// any rules those symbols referenced, then destroys id itself. It is only
// ever called on a rule with zero remaining references.
func (e *Engine[T]) destroyDeadRule(id ruletable.ID) {
	sqerrors.Assert(e.rules.UseCount(id) == 0, "destroyDeadRule called on rule %d with use count %d", id, e.rules.UseCount(id))

	if e.rules.IsEmpty(id) {
		e.rules.DestroyRule(id)
		return
	}

	cur := e.rules.BodyHead(id)
	tail := e.rules.BodyTail(id)
	for {
		next := e.g.Next(cur)

		if cur != tail {
			e.idx.Remove(digram.KeyOf(e.g, cur), cur)
		}
		if e.g.Kind(cur) == symbol.KindNonTerminal {
			target := e.g.NonTerminalRule(cur)
			e.rules.Unreference(target, cur)
			e.maybeRetireRule(target)
		}
		e.g.Free(cur)

		if cur == tail {
			break
		}
		cur = next
	}

	e.rules.DestroyRule(id)
}
