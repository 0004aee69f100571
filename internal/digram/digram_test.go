package digram_test

import (
	"testing"

	"github.com/dekarrin/sequitur/internal/digram"
	"github.com/dekarrin/sequitur/internal/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(g *symbol.Graph[rune], vals ...rune) (guard symbol.Ref, nodes []symbol.Ref) {
	guard = g.NewGuard(0)
	prev := guard
	for _, v := range vals {
		n := g.NewTerminal(v, 0)
		g.InsertAfter(prev, n)
		nodes = append(nodes, n)
		prev = n
	}
	return guard, nodes
}

func Test_KeyOf_equalForIdenticalTerminalPairs(t *testing.T) {
	g := symbol.NewGraph[rune]()
	_, ab := build(g, 'a', 'b')
	_, cd := build(g, 'a', 'b')

	k1 := digram.KeyOf(g, ab[0])
	k2 := digram.KeyOf(g, cd[0])

	assert.Equal(t, k1, k2)
}

func Test_KeyOf_differsForDifferentTerminalPairs(t *testing.T) {
	g := symbol.NewGraph[rune]()
	_, ab := build(g, 'a', 'b')
	_, ba := build(g, 'b', 'a')

	assert.NotEqual(t, digram.KeyOf(g, ab[0]), digram.KeyOf(g, ba[0]))
}

func Test_Index_InsertAndLookup(t *testing.T) {
	g := symbol.NewGraph[rune]()
	_, nodes := build(g, 'a', 'b')
	key := digram.KeyOf(g, nodes[0])

	idx := digram.New[rune]()
	idx.Insert(key, nodes[0])

	got, ok := idx.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, nodes[0], got)
}

func Test_Index_Remove_onlyIfStillCurrent(t *testing.T) {
	g := symbol.NewGraph[rune]()
	_, first := build(g, 'a', 'b')
	_, second := build(g, 'a', 'b')
	key := digram.KeyOf(g, first[0])

	idx := digram.New[rune]()
	idx.Insert(key, first[0])
	idx.Insert(key, second[0])

	idx.Remove(key, first[0])
	got, ok := idx.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, second[0], got)

	idx.Remove(key, second[0])
	_, ok = idx.Lookup(key)
	assert.False(t, ok)
}

func Test_Index_Len(t *testing.T) {
	g := symbol.NewGraph[rune]()
	_, ab := build(g, 'a', 'b')
	_, bc := build(g, 'b', 'c')

	idx := digram.New[rune]()
	idx.Insert(digram.KeyOf(g, ab[0]), ab[0])
	idx.Insert(digram.KeyOf(g, bc[0]), bc[0])

	assert.Equal(t, 2, idx.Len())
}
