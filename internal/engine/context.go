package engine

import "github.com/roach88/plancore/internal/ir"

// Context is the caller-supplied state threaded through one rewrite run.
//
// HashCode decides which subtrees count as "the same" for cycle detection.
// The hooks let a rewrite pass keep external bookkeeping (var usage counts,
// statistics) in step with tree mutation. The processor never mutates the
// context itself.
type Context interface {
	// HashCode returns the hash of the subtree rooted at n.
	HashCode(n *ir.Node) uint64

	// PreProcess is called on a node before its rules are tried.
	PreProcess(n *ir.Node)

	// PreProcessSubTree is called at the start of every pass over a subtree,
	// whether or not anything changed since the last pass.
	PreProcessSubTree(n *ir.Node)

	// PostProcess is called with the new root after rule r changed a node.
	PostProcess(n *ir.Node, r *Rule)

	// PostProcessSubTree is called with the old root after a pass that
	// changed it, and once more with the final root when processing of the
	// subtree ends.
	PostProcessSubTree(n *ir.Node)
}

// BaseContext is a no-op Context that hashes nodes by identity. Embed it to
// override only the hooks a pass needs.
type BaseContext struct{}

var _ Context = BaseContext{}

// HashCode returns the node's identity.
func (BaseContext) HashCode(n *ir.Node) uint64 { return n.ID() }

func (BaseContext) PreProcess(*ir.Node) {}

func (BaseContext) PreProcessSubTree(*ir.Node) {}

func (BaseContext) PostProcess(*ir.Node, *Rule) {}

func (BaseContext) PostProcessSubTree(*ir.Node) {}

// FingerprintContext hashes subtrees structurally, so two distinct nodes
// with the same shape, ops and vars are "the same subtree". Rules that build
// fresh nodes on every firing need it for their oscillations to be caught.
type FingerprintContext struct {
	BaseContext
}

// HashCode returns the structural fingerprint of the subtree.
func (FingerprintContext) HashCode(n *ir.Node) uint64 { return ir.FingerprintHash(n) }
