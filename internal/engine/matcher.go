package engine

import "github.com/roach88/plancore/internal/ir"

// matchPattern reports whether pattern matches the subtree rooted at n.
//
// The match is determined by:
//  1. A Leaf pattern node matches any subtree and stops descent
//  2. Otherwise the OpTypes must be equal
//  3. The child counts must be equal
//  4. Every pattern child must match the corresponding child
//
// Payloads are not compared: a pattern built from real ops matches any op of
// the same type. Matching never mutates the pattern or the candidate.
func matchPattern(pattern, n *ir.Node) bool {
	if pattern.Op().OpType() == ir.OpLeaf {
		return true
	}
	if pattern.Op().OpType() != n.Op().OpType() {
		return false
	}
	if pattern.NumChildren() != n.NumChildren() {
		return false
	}
	for i := 0; i < pattern.NumChildren(); i++ {
		if !matchPattern(pattern.Child(i), n.Child(i)) {
			return false
		}
	}
	return true
}
