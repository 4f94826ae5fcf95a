package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plancore/internal/md"
)

// countingComputer counts derivations so caching can be observed.
type countingComputer struct {
	DefaultInfoComputer
	basic    int
	extended int
}

func (c *countingComputer) ComputeNodeInfo(n *Node) *NodeInfo {
	c.basic++
	refs := make(VarSet)
	for _, child := range n.Children() {
		for v := range child.NodeInfo(c).ExternalReferences {
			refs.Add(v)
		}
	}
	if r, ok := n.Op().(*VarRefOp); ok {
		refs.Add(r.Var)
	}
	return &NodeInfo{ExternalReferences: refs}
}

func (c *countingComputer) ComputeExtendedNodeInfo(n *Node) *ExtendedNodeInfo {
	c.extended++
	return c.DefaultInfoComputer.ComputeExtendedNodeInfo(n)
}

func TestNodeInfo_Cached(t *testing.T) {
	f := NewFactory()
	x := f.NewComputedVar("x", md.Int32)
	n := f.Scalar(OpNot, md.Boolean, f.Scalar(OpIsNull, md.Boolean, f.VarRef(x)))
	c := &countingComputer{}

	first := n.NodeInfo(c)
	second := n.NodeInfo(c)

	assert.Same(t, first, second)
	assert.Equal(t, 3, c.basic, "one derivation per node")
	assert.True(t, first.ExternalReferences.Contains(x))
}

func TestNodeInfo_InvalidatedOnChange(t *testing.T) {
	f := NewFactory()
	x := f.NewComputedVar("x", md.Int32)
	y := f.NewComputedVar("y", md.Int32)
	n := f.Scalar(OpUnaryMinus, md.Int32, f.VarRef(x))
	c := &countingComputer{}

	require.True(t, n.NodeInfo(c).ExternalReferences.Contains(x))

	n.SetChild(0, f.VarRef(y))
	info := n.NodeInfo(c)
	assert.True(t, info.ExternalReferences.Contains(y))
	assert.False(t, info.ExternalReferences.Contains(x))
}

func TestNodeInfo_RelationalReturnsEmbeddedInfo(t *testing.T) {
	f := NewFactory()
	n := f.ScanTable(testTable())
	c := &countingComputer{}

	info := n.NodeInfo(c)
	ext := n.ExtendedNodeInfo(c)

	assert.Same(t, &ext.NodeInfo, info)
	assert.Equal(t, 1, c.extended)
	assert.Equal(t, 0, c.basic)
}

func TestExtendedNodeInfo_PanicsOnScalar(t *testing.T) {
	f := NewFactory()
	n := f.ConstantPredicate(true)
	requireAssertionPanic(t, func() { n.ExtendedNodeInfo(DefaultInfoComputer{}) })
}

func TestDefaultInfoComputer_Scan(t *testing.T) {
	f := NewFactory()
	n := f.ScanTable(testTable())
	id, _ := f.VarByName("orders.id")
	total, _ := f.VarByName("orders.total")

	ext := n.ExtendedNodeInfo(DefaultInfoComputer{})
	assert.Equal(t, VarList{id, total}, ext.Definitions.Sorted())
	assert.Equal(t, VarList{id}, ext.Keys.Sorted())
	assert.Equal(t, VarList{id}, ext.NonNullable.Sorted())
	assert.Empty(t, ext.ExternalReferences)
}

func TestDefaultInfoComputer_FilterResolvesInputVars(t *testing.T) {
	f := NewFactory()
	scan := f.ScanTable(testTable())
	outer := f.NewVar(VarParameter, "p", md.Int32)
	total, _ := f.VarByName("orders.total")

	n := f.Filter(scan, f.Scalar(OpGT, md.Boolean, f.VarRef(total), f.VarRef(outer)))
	ext := n.ExtendedNodeInfo(DefaultInfoComputer{})

	assert.Equal(t, VarList{outer}, ext.ExternalReferences.Sorted(), "only the parameter is external")
	assert.Equal(t, RowsZero, ext.MinRows)
	assert.Equal(t, scan.ExtendedNodeInfo(DefaultInfoComputer{}).Definitions, ext.Definitions)
}

func TestDefaultInfoComputer_Project(t *testing.T) {
	f := NewFactory()
	scan := f.ScanTable(testTable())
	id, _ := f.VarByName("orders.id")
	total, _ := f.VarByName("orders.total")
	def, doubled := f.VarDef("doubled", f.Scalar(OpPlus, md.Int32, f.VarRef(total), f.VarRef(total)))

	n := f.Project(scan, VarList{id, doubled}, def)
	ext := n.ExtendedNodeInfo(DefaultInfoComputer{})

	assert.Equal(t, VarList{id, doubled}, ext.Definitions.Sorted())
	assert.Equal(t, VarList{id}, ext.Keys.Sorted())
	assert.Equal(t, VarList{id}, ext.NonNullable.Sorted())
	assert.Empty(t, ext.ExternalReferences)
}

func TestDefaultInfoComputer_GroupByWithoutKeysIsOneRow(t *testing.T) {
	f := NewFactory()
	scan := f.ScanTable(testTable())
	agg := f.NewComputedVar("count", md.Int64)
	n := NewNode(NewGroupByOp(OpGroupBy, nil, VarList{agg}), scan, NewNode(NewVarDefListOp()), NewNode(NewVarDefListOp()))

	ext := n.ExtendedNodeInfo(DefaultInfoComputer{})
	assert.Equal(t, RowsOne, ext.MinRows)
	assert.Equal(t, RowsOne, ext.MaxRows)
}

func TestDefaultInfoComputer_InnerJoinKeys(t *testing.T) {
	f := NewFactory()
	left := f.ScanTable(testTable())
	right := f.ScanTable(testTable())
	n := f.Join(OpInnerJoin, left, right, f.ConstantPredicate(true))

	ext := n.ExtendedNodeInfo(DefaultInfoComputer{})
	assert.Len(t, ext.Definitions, 4)
	assert.Len(t, ext.Keys, 2)
	assert.Len(t, ext.NonNullable, 2)
}
