// Package sequitur incrementally induces a context-free grammar from a
// stream of tokens, one token at a time, maintaining the digram-uniqueness
// and rule-utility invariants after every append. It is a generalization
// of the teacher's grammar/automaton machinery to the opposite direction:
// building a grammar up from a token stream instead of compiling one down
// to parse tables.
package sequitur

import (
	"fmt"
	"sort"

	"github.com/dekarrin/sequitur/internal/constraint"
	"github.com/dekarrin/sequitur/internal/ruletable"
	"github.com/dekarrin/sequitur/internal/sqerrors"
	"github.com/dekarrin/sequitur/internal/symbol"
)

// RuleID identifies a rule within an Engine's grammar.
type RuleID = ruletable.ID

// Engine owns a grammar under incremental construction over a stream of
// tokens of type T. The zero Engine is not usable; construct one with New,
// NewBytes, NewRunes, or NewStrings.
type Engine[T comparable] struct {
	core *constraint.Engine[T]
}

// New returns an empty Engine for terminals of type T.
func New[T comparable]() *Engine[T] {
	return &Engine[T]{core: constraint.New[T]()}
}

// NewBytes returns an empty Engine[byte], for inducing a grammar over raw
// bytes.
func NewBytes() *Engine[byte] {
	return New[byte]()
}

// NewRunes returns an empty Engine[rune], for inducing a grammar over
// Unicode text.
func NewRunes() *Engine[rune] {
	return New[rune]()
}

// NewStrings returns an empty Engine[string], for inducing a grammar over
// whole words or other pre-tokenized units.
func NewStrings() *Engine[string] {
	return New[string]()
}

// Push appends value to the end of the input stream and restores the
// grammar invariants before returning.
func (e *Engine[T]) Push(value T) {
	e.core.Push(value)
}

// Extend pushes each of values in order, equivalent to calling Push once
// per value.
func (e *Engine[T]) Extend(values ...T) {
	for _, v := range values {
		e.core.Push(v)
	}
}

// Len returns the number of tokens pushed so far.
func (e *Engine[T]) Len() int {
	return e.core.Len()
}

// TopID returns the id of the start rule.
func (e *Engine[T]) TopID() RuleID {
	return e.core.TopID()
}

// SymbolKind distinguishes a terminal from a non-terminal in a SymbolView.
type SymbolKind uint8

const (
	// KindTerminal holds one token of the input alphabet.
	KindTerminal SymbolKind = iota
	// KindNonTerminal refers to another rule's body.
	KindNonTerminal
)

// SymbolView is one read-only element of a RuleView's body.
type SymbolView[T comparable] struct {
	Kind  SymbolKind
	Value T      // meaningful when Kind == KindTerminal
	Rule  RuleID // meaningful when Kind == KindNonTerminal
}

// RuleView is a read-only snapshot of one rule's current body.
type RuleView[T comparable] struct {
	ID       RuleID
	Top      bool
	UseCount int
	Body     []SymbolView[T]
}

// Rule returns a snapshot of the rule identified by id, or an error
// satisfying errors.Is(err, sqerrors.ErrUnknownRule) if no such rule
// currently exists.
func (e *Engine[T]) Rule(id RuleID) (RuleView[T], error) {
	for _, rid := range e.core.Rules().IDs() {
		if rid == id {
			return e.ruleView(id), nil
		}
	}
	return RuleView[T]{}, sqerrors.New(sqerrors.ErrUnknownRule, fmt.Sprintf("no rule with id %d", id))
}

// Rules returns a snapshot of every currently live rule, sorted by ID.
func (e *Engine[T]) Rules() []RuleView[T] {
	ids := e.core.Rules().IDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]RuleView[T], len(ids))
	for i, id := range ids {
		out[i] = e.ruleView(id)
	}
	return out
}

func (e *Engine[T]) ruleView(id RuleID) RuleView[T] {
	g := e.core.Graph()
	rules := e.core.Rules()

	view := RuleView[T]{
		ID:       id,
		Top:      rules.IsTop(id),
		UseCount: rules.UseCount(id),
	}

	guard := rules.Guard(id)
	for cur := g.Next(guard); cur != guard; cur = g.Next(cur) {
		switch g.Kind(cur) {
		case symbol.KindTerminal:
			view.Body = append(view.Body, SymbolView[T]{Kind: KindTerminal, Value: g.Value(cur)})
		case symbol.KindNonTerminal:
			view.Body = append(view.Body, SymbolView[T]{Kind: KindNonTerminal, Rule: g.NonTerminalRule(cur)})
		}
	}

	return view
}

// Stats summarizes the current state of an Engine's grammar.
type Stats struct {
	InputLength      int
	RuleCount        int
	SymbolCount      int
	CompressionRatio float64
}

// Stats computes a fresh Stats snapshot. It is a pure read of the current
// grammar and may be called at any time without affecting it.
func (e *Engine[T]) Stats() Stats {
	rules := e.Rules()

	symbolCount := 0
	for _, r := range rules {
		symbolCount += len(r.Body)
	}

	s := Stats{
		InputLength: e.Len(),
		RuleCount:   len(rules),
		SymbolCount: symbolCount,
	}
	if s.InputLength > 0 {
		s.CompressionRatio = float64(symbolCount) / float64(s.InputLength)
	}
	return s
}

// iterFrame is one level of an Iterator's expansion stack: cur is the next
// symbol to visit in the rule whose guard is guard.
type iterFrame struct {
	cur, guard symbol.Ref
}

// Iterator lazily re-expands a grammar back into its original token
// stream, without ever materializing the whole expansion at once.
type Iterator[T comparable] struct {
	g     *symbol.Graph[T]
	rules *ruletable.Table[T]
	stack []iterFrame
}

// Iter returns an Iterator positioned at the start of e's token stream.
func (e *Engine[T]) Iter() *Iterator[T] {
	g := e.core.Graph()
	rules := e.core.Rules()
	guard := rules.Guard(e.core.TopID())
	return &Iterator[T]{
		g:     g,
		rules: rules,
		stack: []iterFrame{{cur: g.Next(guard), guard: guard}},
	}
}

// Next returns the next terminal in the expanded token stream, descending
// into non-terminals as needed, and false once the stream is exhausted.
func (it *Iterator[T]) Next() (T, bool) {
	for len(it.stack) > 0 {
		top := len(it.stack) - 1
		frame := it.stack[top]

		if frame.cur == frame.guard {
			it.stack = it.stack[:top]
			continue
		}

		switch it.g.Kind(frame.cur) {
		case symbol.KindTerminal:
			value := it.g.Value(frame.cur)
			it.stack[top].cur = it.g.Next(frame.cur)
			return value, true
		case symbol.KindNonTerminal:
			target := it.g.NonTerminalRule(frame.cur)
			it.stack[top].cur = it.g.Next(frame.cur)
			childGuard := it.rules.Guard(target)
			it.stack = append(it.stack, iterFrame{cur: it.g.Next(childGuard), guard: childGuard})
		}
	}

	var zero T
	return zero, false
}

// Collect drains it, returning every remaining terminal in order.
func (it *Iterator[T]) Collect() []T {
	var out []T
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}
