package colmap

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plancore/internal/ir"
)

func TestVisitChildren_DeclarationOrder(t *testing.T) {
	x := newFixture()
	c := collect(x.discriminatedCollection())

	names := make([]string, len(c.maps))
	for i, m := range c.maps {
		names[i] = m.ColumnName()
	}
	assert.Equal(t, []string{"tagged", "row", "n", "name", "sentinel", "n", "id", "branch"}, names)
}

func TestVisitChildren_ReachesIdentityKeys(t *testing.T) {
	x := newFixture()
	c := collect(x.ref())

	require.Len(t, c.ids, 1)
	require.Len(t, c.maps, 3)
	assert.Equal(t, "set", c.maps[1].ColumnName())
	assert.Equal(t, "id", c.maps[2].ColumnName())
}

var errStop = errors.New("stop")

func TestWalk_ErrorStopsTraversal(t *testing.T) {
	x := newFixture()
	c := &collector{stop: errStop}
	err := Walk(c, x.record())

	require.ErrorIs(t, err, errStop)
	assert.Len(t, c.maps, 2, "walk stops before the VarRef's siblings")
}

func TestInspect_SkipsChildren(t *testing.T) {
	x := newFixture()
	var seen []string
	Inspect(x.entity(), func(m ColumnMap) bool {
		seen = append(seen, m.ColumnName())
		_, isComplex := m.(*ComplexTypeColumnMap)
		return !isComplex
	})

	assert.Equal(t, []string{"customer", "id", "name", "address", "id"}, seen)
}

func TestReferencedVars(t *testing.T) {
	x := newFixture()
	assert.Equal(t, ir.VarList{x.id, x.name, x.city}, ReferencedVars(x.simplePolymorphic()))
	assert.Empty(t, ReferencedVars(scalar("n", 0)))
}
