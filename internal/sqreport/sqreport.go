// Package sqreport formats a sequitur.Stats snapshot into a display-ready
// report, following the same rosed table-building pattern used for the
// flag and NPC listings this is modeled on. It is pure presentation: it
// never mutates an Engine and holds no state of its own.
package sqreport

import (
	"fmt"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/sequitur"
)

// Table renders stats as an aligned two-column table of metric names and
// values.
func Table(stats sequitur.Stats) string {
	data := [][]string{
		{"Metric", "Value"},
		{"Input length", fmt.Sprintf("%d", stats.InputLength)},
		{"Rule count", fmt.Sprintf("%d", stats.RuleCount)},
		{"Symbol count", fmt.Sprintf("%d", stats.SymbolCount)},
		{"Compression ratio", fmt.Sprintf("%.3f", stats.CompressionRatio)},
	}

	opts := rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, 60, opts).
		String()
}

// OneLine renders stats as a single compact summary line, for status bars
// and log lines where a full table would be too wide.
func OneLine(stats sequitur.Stats) string {
	return fmt.Sprintf(
		"%d tokens -> %d rules / %d symbols (%.2fx)",
		stats.InputLength, stats.RuleCount, stats.SymbolCount, stats.CompressionRatio,
	)
}
