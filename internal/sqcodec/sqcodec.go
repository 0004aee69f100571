// Package sqcodec encodes a finished grammar snapshot (a sequitur.RuleView
// slice) in two forms: a compact binary form for storage, via
// github.com/dekarrin/rezi, and a human-readable listing for display, via
// github.com/dekarrin/rosed for column alignment. It only ever reads a
// RuleView snapshot already produced by Engine.Rules; it has no access to
// and never touches the live symbol graph.
package sqcodec

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/rosed"
	"github.com/dekarrin/sequitur"
)

// symbolKindTag is the byte tag written before each encoded symbol so
// Decode can tell a terminal from a non-terminal apart.
type symbolKindTag int

const (
	tagTerminal symbolKindTag = iota
	tagNonTerminal
)

// wireSymbol is the binary-encodable shape of a sequitur.SymbolView[T].
type wireSymbol struct {
	Kind  int
	Value string
	Rule  uint32
}

// wireRule is the binary-encodable shape of a sequitur.RuleView[T].
type wireRule struct {
	ID       uint32
	Top      bool
	UseCount int
	Body     []wireSymbol
}

// Binary encodes rules to a compact binary blob using rezi, formatting
// each terminal's value with format (ordinarily fmt.Sprint) since rezi's
// encoder needs a concrete, self-describing shape rather than a generic
// T.
func Binary[T comparable](rules []sequitur.RuleView[T], format func(T) string) ([]byte, error) {
	if format == nil {
		format = func(v T) string { return fmt.Sprint(v) }
	}

	wire := make([]wireRule, len(rules))
	for i, r := range rules {
		wr := wireRule{ID: uint32(r.ID), Top: r.Top, UseCount: r.UseCount}
		wr.Body = make([]wireSymbol, len(r.Body))
		for j, sym := range r.Body {
			switch sym.Kind {
			case sequitur.KindTerminal:
				wr.Body[j] = wireSymbol{Kind: int(tagTerminal), Value: format(sym.Value)}
			case sequitur.KindNonTerminal:
				wr.Body[j] = wireSymbol{Kind: int(tagNonTerminal), Rule: uint32(sym.Rule)}
			}
		}
		wire[i] = wr
	}

	data := rezi.EncBinary(wire)
	return data, nil
}

// DecodeBinary reverses Binary, returning the wire-level rule snapshot
// (not a re-hydrated sequitur.Engine: the Non-goal on decoding a grammar
// produced elsewhere applies to the live engine, not to display).
func DecodeBinary(data []byte) ([]RuleSnapshot, error) {
	var wire []wireRule
	if _, err := rezi.DecBinary(data, &wire); err != nil {
		return nil, fmt.Errorf("decode grammar snapshot: %w", err)
	}

	out := make([]RuleSnapshot, len(wire))
	for i, wr := range wire {
		rs := RuleSnapshot{ID: wr.ID, Top: wr.Top, UseCount: wr.UseCount}
		rs.Body = make([]SymbolSnapshot, len(wr.Body))
		for j, ws := range wr.Body {
			rs.Body[j] = SymbolSnapshot{
				IsTerminal: symbolKindTag(ws.Kind) == tagTerminal,
				Value:      ws.Value,
				Rule:       ws.Rule,
			}
		}
		out[i] = rs
	}
	return out, nil
}

// SymbolSnapshot is one decoded body element: either a terminal's printed
// value or a referenced rule id.
type SymbolSnapshot struct {
	IsTerminal bool
	Value      string
	Rule       uint32
}

// RuleSnapshot is one decoded rule, with terminal values already rendered
// as their printed string form.
type RuleSnapshot struct {
	ID       uint32
	Top      bool
	UseCount int
	Body     []SymbolSnapshot
}

// Text renders rules as a human-readable grammar listing, one line per
// rule ("R0 -> R1 R1", "R1 -> a b"), wrapped to width using rosed so long
// rule bodies break cleanly instead of running off the terminal.
func Text[T comparable](rules []sequitur.RuleView[T], format func(T) string, width int) string {
	if format == nil {
		format = func(v T) string { return fmt.Sprint(v) }
	}
	if width <= 0 {
		width = 80
	}

	var lines []string
	for _, r := range rules {
		var parts []string
		for _, sym := range r.Body {
			switch sym.Kind {
			case sequitur.KindTerminal:
				parts = append(parts, format(sym.Value))
			case sequitur.KindNonTerminal:
				parts = append(parts, fmt.Sprintf("R%d", sym.Rule))
			}
		}

		prefix := fmt.Sprintf("R%d -> ", r.ID)
		if r.Top {
			prefix = fmt.Sprintf("R%d (top) -> ", r.ID)
		}

		lines = append(lines, rosed.Edit(prefix+strings.Join(parts, " ")).
			WithOptions(rosed.Options{ParagraphSeparator: "\n"}).
			Wrap(width).
			String())
	}

	return strings.Join(lines, "\n")
}
