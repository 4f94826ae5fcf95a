package colmap

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plancore/internal/ir"
)

// varIdentity compares vars by identity; they have no exported fields.
var varIdentity = cmp.Comparer(func(a, b *ir.Var) bool { return a == b })

// collector records every map and identity, relying on the default
// recursion of VisitChildren.
type collector struct {
	maps []ColumnMap
	ids  []EntityIdentity
	stop error // returned from VisitVarRef when set
}

func collect(m ColumnMap) *collector {
	c := &collector{}
	_ = Walk(c, m)
	return c
}

func (c *collector) add(m ColumnMap) error {
	c.maps = append(c.maps, m)
	return VisitChildren(c, m)
}

func (c *collector) VisitScalar(m *ScalarColumnMap) error { return c.add(m) }
func (c *collector) VisitVarRef(m *VarRefColumnMap) error {
	if c.stop != nil {
		return c.stop
	}
	return c.add(m)
}
func (c *collector) VisitRecord(m *RecordColumnMap) error { return c.add(m) }
func (c *collector) VisitComplexType(m *ComplexTypeColumnMap) error { return c.add(m) }
func (c *collector) VisitEntity(m *EntityColumnMap) error { return c.add(m) }
func (c *collector) VisitRef(m *RefColumnMap) error { return c.add(m) }
func (c *collector) VisitSimpleCollection(m *SimpleCollectionColumnMap) error {
	return c.add(m)
}
func (c *collector) VisitDiscriminatedCollection(m *DiscriminatedCollectionColumnMap) error {
	return c.add(m)
}
func (c *collector) VisitSimplePolymorphic(m *SimplePolymorphicColumnMap) error {
	return c.add(m)
}
func (c *collector) VisitMultipleDiscriminatorPolymorphic(m *MultipleDiscriminatorPolymorphicColumnMap) error {
	return c.add(m)
}
func (c *collector) VisitSimpleIdentity(id *SimpleEntityIdentity) error {
	c.ids = append(c.ids, id)
	return VisitIdentityChildren(c, id)
}
func (c *collector) VisitDiscriminatedIdentity(id *DiscriminatedEntityIdentity) error {
	c.ids = append(c.ids, id)
	return VisitIdentityChildren(c, id)
}

// =============================================================================
// Copier totality
// =============================================================================

func TestCopy_SupportedKindsAreDeepAndDistinct(t *testing.T) {
	for name, src := range newFixture().supported() {
		t.Run(name, func(t *testing.T) {
			cp := Copy(src, nil)

			if diff := cmp.Diff(src, cp, varIdentity); diff != "" {
				t.Fatalf("copy differs from source (-src +copy):\n%s", diff)
			}

			from, to := collect(src), collect(cp)
			require.Len(t, to.maps, len(from.maps))
			require.Len(t, to.ids, len(from.ids))
			for i := range from.maps {
				assert.NotSame(t, from.maps[i], to.maps[i], "map %d shared with source", i)
				assert.Equal(t, from.maps[i].ColumnName(), to.maps[i].ColumnName())
				assert.Same(t, from.maps[i].ColumnType(), to.maps[i].ColumnType())
			}
			for i := range from.ids {
				assert.NotSame(t, from.ids[i], to.ids[i], "identity %d shared with source", i)
			}
		})
	}
}

func TestCopy_SlicesAreFresh(t *testing.T) {
	x := newFixture()
	src := x.record()
	cp := Copy(src, nil).(*RecordColumnMap)

	cp.Properties[0] = scalar("replaced", 99)
	assert.Equal(t, "n", src.Properties[0].ColumnName())
}

func TestCopy_SharedSourceMapsBecomeDistinct(t *testing.T) {
	x := newFixture()
	key := varRef("id", x.id)
	src := &EntityColumnMap{
		Header:     Header{Type: customerType, Name: "customer"},
		Properties: []ColumnMap{key},
		Identity:   &SimpleEntityIdentity{EntitySet: customers, Keys: []SimpleColumnMap{key}},
	}

	cp := Copy(src, nil).(*EntityColumnMap)
	prop := cp.Properties[0]
	idKey := cp.Identity.KeyColumns()[0]

	assert.NotSame(t, prop, idKey)
	assert.Same(t, x.id, prop.(*VarRefColumnMap).Var)
	assert.Same(t, x.id, idKey.(*VarRefColumnMap).Var)
}

func TestCopy_NilOptionalsStayNil(t *testing.T) {
	x := newFixture()
	src := &RecordColumnMap{Header: Header{Type: rowType, Name: "r"}, Properties: []ColumnMap{varRef("name", x.name)}}

	cp := Copy(src, nil).(*RecordColumnMap)
	assert.Nil(t, cp.NullSentinel)
	assert.Nil(t, Copy(nil, nil))
}

// =============================================================================
// Var replacement
// =============================================================================

func TestCopy_FollowsReplacementChain(t *testing.T) {
	x := newFixture()
	v1, v2, v3 := x.id, x.name, x.city

	vm := ir.NewVarMap()
	vm.Add(v1, v2)
	vm.Add(v2, v3)

	src := &RecordColumnMap{Header: Header{Type: rowType, Name: "r"}, Properties: []ColumnMap{varRef("a", v1)}}
	cp := Copy(src, vm).(*RecordColumnMap)

	assert.Same(t, v3, cp.Properties[0].(*VarRefColumnMap).Var)
	assert.Same(t, v1, src.Properties[0].(*VarRefColumnMap).Var, "source is untouched")
}

func TestCopy_SelfMappingTerminates(t *testing.T) {
	x := newFixture()
	vm := ir.NewVarMap()
	vm.Add(x.id, x.id)

	cp := Copy(varRef("id", x.id), vm).(*VarRefColumnMap)
	assert.Same(t, x.id, cp.Var)
}

func TestCopy_ReplacesInsideIdentitiesAndChoices(t *testing.T) {
	x := newFixture()
	fresh := x.f.NewVar(ir.VarColumn, "c2.id", x.id.Type())
	vm := ir.NewVarMap()
	vm.Add(x.id, fresh)

	cp := Copy(x.simplePolymorphic(), vm)

	assert.NotContains(t, ReferencedVars(cp), x.id)
	assert.Contains(t, ReferencedVars(cp), fresh)

	entity := cp.(*SimplePolymorphicColumnMap).TypeChoices[0].Map.(*EntityColumnMap)
	assert.Same(t, fresh, entity.Identity.KeyColumns()[0].(*VarRefColumnMap).Var)
}

// =============================================================================
// Unsupported kind
// =============================================================================

func requireAssertionPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.HasAssertionFailure(err), "expected assertion failure, got %v", err)
	}()
	fn()
}

func TestCopy_MultipleDiscriminatorPanics(t *testing.T) {
	x := newFixture()
	requireAssertionPanic(t, func() { Copy(x.multipleDiscriminator(), nil) })
}

func TestCopy_NestedMultipleDiscriminatorPanics(t *testing.T) {
	x := newFixture()
	src := &RecordColumnMap{
		Header:     Header{Type: rowType, Name: "r"},
		Properties: []ColumnMap{varRef("id", x.id), x.multipleDiscriminator()},
	}
	requireAssertionPanic(t, func() { Copy(src, ir.NewVarMap()) })
}
