package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plancore/internal/md"
)

func testTable() *md.Table {
	return md.NewTable("orders", []md.Column{
		{Name: "id", Type: md.Int32},
		{Name: "total", Type: md.Int32, Nullable: true},
	}, "id")
}

// =============================================================================
// Construction and arity
// =============================================================================

func TestNewNode_EnforcesArity(t *testing.T) {
	f := NewFactory()
	scan := f.ScanTable(testTable())

	requireAssertionPanic(t, func() { NewNode(NewRelOp(OpFilter), scan) })
	requireAssertionPanic(t, func() { NewNode(nil) })

	n := NewNode(NewRelOp(OpFilter), scan, f.ConstantPredicate(true))
	assert.Equal(t, 2, n.NumChildren())
}

func TestNewNode_VariableArity(t *testing.T) {
	f := NewFactory()
	var inputs []*Node
	for i := 0; i < 4; i++ {
		inputs = append(inputs, f.ScanTable(testTable()))
	}
	n := NewNode(NewRelOp(OpCrossJoin), inputs...)
	assert.Equal(t, 4, n.NumChildren())
}

func TestNode_IDsAreUnique(t *testing.T) {
	a := NewNode(NewRelOp(OpSingleRowTable))
	b := NewNode(NewRelOp(OpSingleRowTable))
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNode_SetOpChecksArity(t *testing.T) {
	f := NewFactory()
	n := f.Filter(f.ScanTable(testTable()), f.ConstantPredicate(true))

	n.SetOp(NewRelOp(OpCrossApply))
	assert.Equal(t, OpCrossApply, n.Op().OpType())

	requireAssertionPanic(t, func() { n.SetOp(NewRelOp(OpInnerJoin)) })
}

func TestNode_SetChild(t *testing.T) {
	f := NewFactory()
	n := f.Filter(f.ScanTable(testTable()), f.ConstantPredicate(true))
	pred := f.ConstantPredicate(false)

	n.SetChild(1, pred)
	assert.Same(t, pred, n.Child(1))

	requireAssertionPanic(t, func() { n.SetChild(0, nil) })
}

func TestCheckArity_ReportsFirstViolation(t *testing.T) {
	f := NewFactory()
	n := f.Filter(f.ScanTable(testTable()), f.ConstantPredicate(true))
	require.NoError(t, CheckArity(n))

	// Corrupt the tree behind the constructor's back.
	n.children = n.children[:1]
	assert.Error(t, CheckArity(n))
}

// =============================================================================
// Equivalence
// =============================================================================

func TestNode_IsEquivalentScalarTrees(t *testing.T) {
	f := NewFactory()
	x := f.NewComputedVar("x", md.Int32)

	build := func() *Node {
		return f.Scalar(OpGT, md.Boolean,
			f.VarRef(x),
			f.Constant(md.Int32, Int(3)))
	}
	a, b := build(), build()

	assert.True(t, a.IsEquivalent(b))
	assert.True(t, b.IsEquivalent(a))

	c := f.Scalar(OpGT, md.Boolean, f.VarRef(x), f.Constant(md.Int32, Int(4)))
	assert.False(t, a.IsEquivalent(c))
}

func TestNode_IsEquivalentChildCountFirst(t *testing.T) {
	a := NewNode(NewFunctionOp(OpFunction, md.String, "concat"), NewNode(NewConstantOp(OpConstant, md.String, String("a"))))
	b := NewNode(NewFunctionOp(OpFunction, md.String, "concat"))
	assert.False(t, a.IsEquivalent(b))
}

func TestNode_IsEquivalentRelationalIsIdentity(t *testing.T) {
	f := NewFactory()
	a := f.Filter(f.ScanTable(testTable()), f.ConstantPredicate(true))
	b := f.Filter(f.ScanTable(testTable()), f.ConstantPredicate(true))

	assert.True(t, a.IsEquivalent(a))
	assert.False(t, a.IsEquivalent(b))
}

func TestNode_Walk(t *testing.T) {
	f := NewFactory()
	n := f.Filter(f.ScanTable(testTable()), f.ConstantPredicate(true))

	var seen []OpType
	n.Walk(func(c *Node) bool {
		seen = append(seen, c.Op().OpType())
		return true
	})
	assert.Equal(t, []OpType{OpFilter, OpScanTable, OpConstantPredicate}, seen)

	seen = nil
	n.Walk(func(c *Node) bool {
		seen = append(seen, c.Op().OpType())
		return false
	})
	assert.Equal(t, []OpType{OpFilter}, seen)
}

func TestFormat(t *testing.T) {
	f := NewFactory()
	n := f.Filter(f.ScanTable(testTable()), f.ConstantPredicate(true))

	want := "Filter\n" +
		"  ScanTable(orders)[v1,v2]\n" +
		"  ConstantPredicate(true)\n"
	assert.Equal(t, want, Format(n))
	assert.Equal(t, want, n.String())
}
