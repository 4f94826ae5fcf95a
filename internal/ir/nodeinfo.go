package ir

import "github.com/cockroachdb/errors"

// RowCount is a coarse bound on the number of rows a relational node
// produces.
type RowCount int8

const (
	RowsZero RowCount = iota
	RowsOne
	RowsMany
)

func (r RowCount) String() string {
	switch r {
	case RowsZero:
		return "0"
	case RowsOne:
		return "1"
	default:
		return "N"
	}
}

// NodeInfo is derived information about a subtree.
type NodeInfo struct {
	// ExternalReferences are vars used in the subtree but not defined in it.
	ExternalReferences VarSet
}

// ExtendedNodeInfo is the NodeInfo of relational and physical nodes.
type ExtendedNodeInfo struct {
	NodeInfo

	// Definitions are the vars the node makes available to its consumers.
	Definitions VarSet
	// Keys is a set of definitions that uniquely identifies a row, or nil
	// when no key is known.
	Keys VarSet
	// NonNullable are definitions known never to be null.
	NonNullable VarSet

	MinRows RowCount
	MaxRows RowCount
}

// InfoComputer derives NodeInfo for a node. The derivation may read the
// (cached) info of the node's children.
type InfoComputer interface {
	ComputeNodeInfo(n *Node) *NodeInfo
	ComputeExtendedNodeInfo(n *Node) *ExtendedNodeInfo
}

func hasExtendedInfo(op Op) bool {
	return op.IsRelOp() || op.IsPhysicalOp()
}

// NodeInfo returns the node's derived info, computing it through c on first
// use. The result is cached until the node's op or children change. For
// relational and physical nodes the NodeInfo part of the ExtendedNodeInfo is
// returned.
func (n *Node) NodeInfo(c InfoComputer) *NodeInfo {
	if hasExtendedInfo(n.op) {
		return &n.ExtendedNodeInfo(c).NodeInfo
	}
	if n.info == nil {
		n.info = c.ComputeNodeInfo(n)
	}
	return n.info
}

// ExtendedNodeInfo returns the node's extended info, computing it through c
// on first use. It panics with an assertion failure unless the node is
// relational or physical.
func (n *Node) ExtendedNodeInfo(c InfoComputer) *ExtendedNodeInfo {
	if !hasExtendedInfo(n.op) {
		panic(errors.AssertionFailedf("extended node info requested for %s op %s",
			n.op.OpType().Category(), n.op.OpType()))
	}
	if n.ext == nil {
		n.ext = c.ComputeExtendedNodeInfo(n)
	}
	return n.ext
}

// DefaultInfoComputer derives NodeInfo from the op payloads alone.
type DefaultInfoComputer struct{}

var _ InfoComputer = DefaultInfoComputer{}

// ComputeNodeInfo derives the info of scalar and ancillary nodes.
func (c DefaultInfoComputer) ComputeNodeInfo(n *Node) *NodeInfo {
	refs := make(VarSet)
	for _, child := range n.children {
		for v := range child.NodeInfo(c).ExternalReferences {
			refs.Add(v)
		}
	}
	if r, ok := n.op.(*VarRefOp); ok {
		refs.Add(r.Var)
	}
	return &NodeInfo{ExternalReferences: refs}
}

// ComputeExtendedNodeInfo derives the info of relational and physical nodes.
func (c DefaultInfoComputer) ComputeExtendedNodeInfo(n *Node) *ExtendedNodeInfo {
	info := &ExtendedNodeInfo{
		Definitions: make(VarSet),
		NonNullable: make(VarSet),
		MinRows:     RowsZero,
		MaxRows:     RowsMany,
	}

	// Vars used anywhere below the node. Vars defined by relational children
	// are subtracted at the end.
	used := make(VarSet)
	for _, child := range n.children {
		for v := range child.NodeInfo(c).ExternalReferences {
			used.Add(v)
		}
	}

	rel := func(i int) *ExtendedNodeInfo { return n.children[i].ExtendedNodeInfo(c) }

	switch op := n.op.(type) {
	case *ScanTableOp:
		for i, v := range op.Columns {
			info.Definitions.Add(v)
			if !op.Table.Columns[i].Nullable {
				info.NonNullable.Add(v)
			}
		}
		if len(op.Table.Keys) > 0 {
			info.Keys = make(VarSet)
			for _, ord := range op.Table.Keys {
				info.Keys.Add(op.Columns[ord])
			}
		}

	case *ProjectOp:
		in := rel(0)
		info.Definitions = NewVarSet(op.Outputs...)
		info.NonNullable = in.NonNullable.Intersect(info.Definitions)
		if in.Keys != nil && in.Keys.SubsetOf(info.Definitions) {
			info.Keys = in.Keys
		}
		info.MinRows, info.MaxRows = in.MinRows, in.MaxRows
		used = used.Minus(in.Definitions)

	case *SortOp:
		in := rel(0)
		copyRel(info, in)
		for _, k := range op.Keys {
			used.Add(k.Var)
		}
		used = used.Minus(in.Definitions)

	case *GroupByOp:
		in := rel(0)
		info.Definitions = NewVarSet(op.Keys...).Union(NewVarSet(op.Outputs...))
		info.Keys = NewVarSet(op.Keys...)
		info.MaxRows = in.MaxRows
		if len(op.Keys) == 0 {
			info.MinRows, info.MaxRows = RowsOne, RowsOne
		}
		used = used.Minus(in.Definitions)

	case *DistinctOp:
		in := rel(0)
		info.Definitions = NewVarSet(op.Keys...)
		info.Keys = info.Definitions
		info.MinRows, info.MaxRows = in.MinRows, in.MaxRows
		for _, k := range op.Keys {
			used.Add(k)
		}
		used = used.Minus(in.Definitions)

	case *SetOp:
		info.Definitions = NewVarSet(op.Outputs...)
		for _, vm := range op.VarMaps {
			for _, k := range vm.Keys() {
				to, _ := vm.Lookup(k)
				used.Add(to)
			}
		}
		used = used.Minus(rel(0).Definitions).Minus(rel(1).Definitions)

	case *UnnestOp:
		info.Definitions = NewVarSet(op.Output)
		used.Add(op.Input)

	case *PhysicalOp:
		info.Definitions = NewVarSet(op.Outputs...)
		for i := range n.children {
			if hasExtendedInfo(n.children[i].op) {
				used = used.Minus(rel(i).Definitions)
			}
		}

	default:
		switch n.op.OpType() {
		case OpSingleRowTable:
			info.MinRows, info.MaxRows = RowsOne, RowsOne

		case OpSingleRow:
			in := rel(0)
			copyRel(info, in)
			info.MaxRows = RowsOne
			used = used.Minus(in.Definitions)

		case OpFilter:
			in := rel(0)
			copyRel(info, in)
			info.MinRows = RowsZero
			used = used.Minus(in.Definitions)

		case OpScanView:
			copyRel(info, rel(0))

		default:
			// Joins and applies: definitions and keys are unions over the
			// relational inputs; a trailing scalar child is the predicate.
			keyed := true
			for i, child := range n.children {
				if !hasExtendedInfo(child.op) {
					continue
				}
				in := rel(i)
				info.Definitions = info.Definitions.Union(in.Definitions)
				if in.Keys == nil {
					keyed = false
				} else {
					info.Keys = in.Keys.Union(info.Keys)
				}
				if n.op.OpType() == OpInnerJoin || n.op.OpType() == OpCrossJoin || n.op.OpType() == OpCrossApply || i == 0 {
					info.NonNullable = info.NonNullable.Union(in.NonNullable)
				}
			}
			if !keyed {
				info.Keys = nil
			}
			used = used.Minus(info.Definitions)
		}
	}

	info.ExternalReferences = used
	return info
}

func copyRel(dst, src *ExtendedNodeInfo) {
	dst.Definitions = src.Definitions
	dst.Keys = src.Keys
	dst.NonNullable = src.NonNullable
	dst.MinRows, dst.MaxRows = src.MinRows, src.MaxRows
}
