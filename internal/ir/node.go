package ir

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// nodeIDs hands out process-unique node ids. The id is the node's identity
// hash, so it must not repeat across trees that may be mixed by a rewrite.
var nodeIDs atomic.Uint64

// Node pairs an Op with an ordered list of owned children.
//
// INVARIANTS:
//   - len(children) satisfies op.Arity() unless the arity is ArityVariable
//   - a Node is never shared between two parents or two trees
//   - the NodeInfo cache is cleared whenever the op or child list changes
type Node struct {
	id       uint64
	op       Op
	children []*Node

	info *NodeInfo
	ext  *ExtendedNodeInfo
}

// NewNode builds a node. It panics with an assertion failure if the number
// of children does not satisfy the op's arity.
func NewNode(op Op, children ...*Node) *Node {
	checkArity(op, len(children))
	n := &Node{id: nodeIDs.Add(1), op: op}
	if len(children) > 0 {
		n.children = append(make([]*Node, 0, len(children)), children...)
	}
	return n
}

// NewPatternNode builds a rule pattern node for t with the given children.
func NewPatternNode(t OpType, children ...*Node) *Node {
	return NewNode(Pattern(t), children...)
}

// NewLeafPattern builds a wildcard pattern node.
func NewLeafPattern() *Node {
	return NewNode(Leaf)
}

func checkArity(op Op, n int) {
	if op == nil {
		panic(errors.AssertionFailedf("node requires an op"))
	}
	if !op.OpType().ArityAccepts(n) {
		panic(errors.AssertionFailedf("%s requires %d children, got %d", op.OpType(), op.Arity(), n))
	}
}

// ID returns the node's identity. Ids are unique within the process.
func (n *Node) ID() uint64 { return n.id }

// Op returns the node's operator.
func (n *Node) Op() Op { return n.op }

// SetOp replaces the node's operator. The current children must satisfy the
// new op's arity.
func (n *Node) SetOp(op Op) {
	checkArity(op, len(n.children))
	n.op = op
	n.Invalidate()
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i'th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns the child list. Callers must not modify it; use SetChild
// or SetChildren.
func (n *Node) Children() []*Node { return n.children }

// SetChild replaces the i'th child.
func (n *Node) SetChild(i int, c *Node) {
	if c == nil {
		panic(errors.AssertionFailedf("%s: nil child at %d", n.op.OpType(), i))
	}
	if n.children[i] == c {
		return
	}
	n.children[i] = c
	n.Invalidate()
}

// SetChildren replaces the whole child list.
func (n *Node) SetChildren(children ...*Node) {
	checkArity(n.op, len(children))
	n.children = append(n.children[:0:0], children...)
	n.Invalidate()
}

// Invalidate drops the cached NodeInfo.
func (n *Node) Invalidate() {
	n.info = nil
	n.ext = nil
}

// IsEquivalent reports whether n and o are structurally equivalent: equal
// child counts, equivalent ops, and pairwise equivalent children.
func (n *Node) IsEquivalent(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	if len(n.children) != len(o.children) {
		return false
	}
	if n.op.OpType() != o.op.OpType() || !n.op.IsEquivalent(o.op) {
		return false
	}
	for i := range n.children {
		if !n.children[i].IsEquivalent(o.children[i]) {
			return false
		}
	}
	return true
}

// Walk calls fn for n and each descendant in pre-order. Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// CheckArity walks the subtree and returns an assertion error for the first
// node whose child count does not satisfy its op.
func CheckArity(n *Node) error {
	var err error
	n.Walk(func(c *Node) bool {
		if err != nil {
			return false
		}
		if !c.op.OpType().ArityAccepts(len(c.children)) {
			err = errors.AssertionFailedf("%s requires %d children, got %d",
				c.op.OpType(), c.op.Arity(), len(c.children))
		}
		return true
	})
	return err
}
