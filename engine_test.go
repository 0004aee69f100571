package sequitur_test

import (
	"errors"
	"testing"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/sqerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushString(e *sequitur.Engine[rune], s string) {
	for _, r := range s {
		e.Push(r)
	}
}

// Test_Push_scenarios exercises the boundary-case table directly: an empty
// stream, a single token, exact-repeat grammars, and the "aaaa" overlap
// edge case, each checked by roundtripping through Iter.
func Test_Push_scenarios(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single", "a"},
		{"abab", "abab"},
		{"abcabc", "abcabc"},
		{"abcabcabc", "abcabcabc"},
		{"aaa_noRule", "aaa"},
		{"aaaa_oneRule", "aaaa"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := sequitur.NewRunes()
			pushString(e, c.input)

			assert.Equal(t, len(c.input), e.Len())
			assert.Equal(t, c.input, string(e.Iter().Collect()))
		})
	}
}

func Test_aaa_staysSingleRule(t *testing.T) {
	e := sequitur.NewRunes()
	pushString(e, "aaa")

	assert.Len(t, e.Rules(), 1)
}

func Test_aaaa_createsExactlyOneRule(t *testing.T) {
	e := sequitur.NewRunes()
	pushString(e, "aaaa")

	rules := e.Rules()
	require.Len(t, rules, 2)

	var top sequitur.RuleView[rune]
	for _, r := range rules {
		if r.Top {
			top = r
		}
	}
	require.Len(t, top.Body, 2)
	assert.Equal(t, sequitur.KindNonTerminal, top.Body[0].Kind)
	assert.Equal(t, top.Body[0].Rule, top.Body[1].Rule)
}

func Test_Rules_roundtripsThroughRuleView(t *testing.T) {
	e := sequitur.NewRunes()
	pushString(e, "abcabcabcdabcd")

	assert.Equal(t, "abcabcabcdabcd", string(e.Iter().Collect()))

	total := 0
	for _, r := range e.Rules() {
		total += len(r.Body)
	}
	assert.Equal(t, e.Stats().SymbolCount, total)
}

func Test_Stats_isIdempotent(t *testing.T) {
	e := sequitur.NewRunes()
	pushString(e, "abcabcabc")

	first := e.Stats()
	second := e.Stats()

	assert.Equal(t, first, second)
}

func Test_Stats_compressionRatioReflectsSymbolCountOverInput(t *testing.T) {
	e := sequitur.NewRunes()
	pushString(e, "abcabcabc")

	stats := e.Stats()
	assert.Equal(t, 9, stats.InputLength)
	assert.Greater(t, stats.SymbolCount, 0)
	assert.InDelta(t, float64(stats.SymbolCount)/float64(stats.InputLength), stats.CompressionRatio, 0.0001)
}

func Test_Rule_unknownID_returnsErrUnknownRule(t *testing.T) {
	e := sequitur.NewRunes()
	pushString(e, "abab")

	_, err := e.Rule(9999)

	require.Error(t, err)
	assert.True(t, errors.Is(err, sqerrors.ErrUnknownRule))
}

func Test_Extend_equivalentToRepeatedPush(t *testing.T) {
	viaExtend := sequitur.NewRunes()
	viaExtend.Extend([]rune("abcabcabc")...)

	viaPush := sequitur.NewRunes()
	pushString(viaPush, "abcabcabc")

	assert.Equal(t, viaPush.Stats(), viaExtend.Stats())
	assert.Equal(t, string(viaPush.Iter().Collect()), string(viaExtend.Iter().Collect()))
}

// Test_incrementalMatchesBatch checks that building the grammar one token
// at a time gives the same final compression as pushing the whole string
// at once, the "incremental == batch" testable property.
func Test_incrementalMatchesBatch(t *testing.T) {
	input := "the quick brown fox the quick brown fox jumps over the lazy dog"

	incremental := sequitur.NewRunes()
	for _, r := range input {
		incremental.Push(r)
	}

	batch := sequitur.NewRunes()
	batch.Extend([]rune(input)...)

	assert.Equal(t, incremental.Stats(), batch.Stats())
}

// Test_multipleEnginesAreIndependent exercises the "global state" Non-goal:
// two Engines built from different inputs never observe each other.
func Test_multipleEnginesAreIndependent(t *testing.T) {
	a := sequitur.NewRunes()
	b := sequitur.NewRunes()

	pushString(a, "abcabc")
	pushString(b, "xyzxyz")

	assert.Equal(t, "abcabc", string(a.Iter().Collect()))
	assert.Equal(t, "xyzxyz", string(b.Iter().Collect()))
	assert.NotEqual(t, a.Stats(), b.Stats())
}

func Test_NewBytes_NewStrings_constructDistinctTerminalTypes(t *testing.T) {
	bytesEngine := sequitur.NewBytes()
	bytesEngine.Extend([]byte("aaaa")...)
	assert.Equal(t, []byte("aaaa"), bytesEngine.Iter().Collect())

	wordsEngine := sequitur.NewStrings()
	wordsEngine.Extend("the", "cat", "sat", "the", "cat", "sat")
	assert.Equal(t, []string{"the", "cat", "sat", "the", "cat", "sat"}, wordsEngine.Iter().Collect())
	assert.Len(t, wordsEngine.Rules(), 2)
}
