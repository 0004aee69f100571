package sqcodec_test

import (
	"strconv"
	"testing"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/sqcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runeFormat(r rune) string { return string(r) }

func Test_Binary_DecodeBinary_roundtrip(t *testing.T) {
	e := sequitur.NewRunes()
	for _, r := range "abcabcabc" {
		e.Push(r)
	}
	rules := e.Rules()

	data, err := sqcodec.Binary(rules, runeFormat)
	require.NoError(t, err)

	decoded, err := sqcodec.DecodeBinary(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(rules))

	for i, r := range rules {
		assert.Equal(t, uint32(r.ID), decoded[i].ID)
		assert.Equal(t, r.Top, decoded[i].Top)
		assert.Equal(t, r.UseCount, decoded[i].UseCount)
		require.Len(t, decoded[i].Body, len(r.Body))
		for j, sym := range r.Body {
			ds := decoded[i].Body[j]
			if sym.Kind == sequitur.KindTerminal {
				assert.True(t, ds.IsTerminal)
				assert.Equal(t, string(sym.Value), ds.Value)
			} else {
				assert.False(t, ds.IsTerminal)
				assert.Equal(t, uint32(sym.Rule), ds.Rule)
			}
		}
	}
}

func Test_Text_rendersRuleReferencesAndTerminals(t *testing.T) {
	e := sequitur.NewRunes()
	for _, r := range "abab" {
		e.Push(r)
	}

	out := sqcodec.Text(e.Rules(), runeFormat, 80)

	assert.Contains(t, out, "-> R")
	assert.Contains(t, out, "a b")
}

func Test_Binary_handlesEmptyGrammar(t *testing.T) {
	e := sequitur.NewRunes()

	data, err := sqcodec.Binary(e.Rules(), runeFormat)
	require.NoError(t, err)

	decoded, err := sqcodec.DecodeBinary(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.True(t, decoded[0].Top)
	assert.Empty(t, decoded[0].Body)
}

func Test_Binary_intTerminals(t *testing.T) {
	e := sequitur.New[int]()
	for _, v := range []int{1, 2, 1, 2} {
		e.Push(v)
	}

	data, err := sqcodec.Binary(e.Rules(), func(v int) string { return strconv.Itoa(v) })
	require.NoError(t, err)

	decoded, err := sqcodec.DecodeBinary(data)
	require.NoError(t, err)
	assert.NotEmpty(t, decoded)
}
