package ir

import (
	"strings"
)

// Format renders the subtree rooted at n, one node per line, children
// indented two spaces below their parent.
func Format(n *Node) string {
	var b strings.Builder
	formatNode(&b, n, 0)
	return b.String()
}

func formatNode(b *strings.Builder, n *Node, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
	b.WriteString(n.op.String())
	b.WriteByte('\n')
	for _, c := range n.children {
		formatNode(b, c, depth+1)
	}
}

func (n *Node) String() string {
	return Format(n)
}
