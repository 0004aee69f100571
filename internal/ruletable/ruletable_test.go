package ruletable_test

import (
	"testing"

	"github.com/dekarrin/sequitur/internal/ruletable"
	"github.com/dekarrin/sequitur/internal/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Table_CreateRule_startsEmptyAndUnused(t *testing.T) {
	g := symbol.NewGraph[rune]()
	tbl := ruletable.New[rune](g)

	id := tbl.CreateRule()

	assert.True(t, tbl.IsEmpty(id))
	assert.Equal(t, 0, tbl.UseCount(id))
	assert.Equal(t, tbl.Guard(id), tbl.BodyHead(id))
	assert.Equal(t, tbl.Guard(id), tbl.BodyTail(id))
}

func Test_Table_Reference_incrementsUseCountAndTracksSoleReference(t *testing.T) {
	g := symbol.NewGraph[rune]()
	tbl := ruletable.New[rune](g)
	id := tbl.CreateRule()
	nt := g.NewNonTerminal(id, 0)

	tbl.Reference(id, nt)

	assert.Equal(t, 1, tbl.UseCount(id))
	sole, ok := tbl.SoleReference(id)
	require.True(t, ok)
	assert.Equal(t, nt, sole)
}

func Test_Table_SoleReference_falseWhenMultiplyReferenced(t *testing.T) {
	g := symbol.NewGraph[rune]()
	tbl := ruletable.New[rune](g)
	id := tbl.CreateRule()
	nt1 := g.NewNonTerminal(id, 0)
	nt2 := g.NewNonTerminal(id, 0)

	tbl.Reference(id, nt1)
	tbl.Reference(id, nt2)

	_, ok := tbl.SoleReference(id)
	assert.False(t, ok)
	assert.Equal(t, 2, tbl.UseCount(id))
}

func Test_Table_Unreference_removesFromListAndDecrements(t *testing.T) {
	g := symbol.NewGraph[rune]()
	tbl := ruletable.New[rune](g)
	id := tbl.CreateRule()
	nt1 := g.NewNonTerminal(id, 0)
	nt2 := g.NewNonTerminal(id, 0)
	tbl.Reference(id, nt1)
	tbl.Reference(id, nt2)

	tbl.Unreference(id, nt2)

	assert.Equal(t, 1, tbl.UseCount(id))
	sole, ok := tbl.SoleReference(id)
	require.True(t, ok)
	assert.Equal(t, nt1, sole)
}

func Test_Table_SetTop_andIsTop(t *testing.T) {
	g := symbol.NewGraph[rune]()
	tbl := ruletable.New[rune](g)
	id := tbl.CreateRule()
	other := tbl.CreateRule()

	tbl.SetTop(id)

	assert.True(t, tbl.IsTop(id))
	assert.False(t, tbl.IsTop(other))
	got, ok := tbl.TopID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func Test_Table_DestroyRule_freesIDForReuse(t *testing.T) {
	g := symbol.NewGraph[rune]()
	tbl := ruletable.New[rune](g)
	id := tbl.CreateRule()

	tbl.DestroyRule(id)
	next := tbl.CreateRule()

	assert.Equal(t, id, next)
	assert.Equal(t, 1, tbl.Len())
}
