package engine

import "github.com/roach88/plancore/internal/ir"

// SubTreeID identifies one state of a subtree at one position in the tree.
//
// Two ids are equal when their hashes are equal and either they have the
// same root node, or they sit in the same slot (same parent, same child
// index). The slot rule covers a rewrite that replaced the node in place;
// the root rule covers the same node turning up in a different slot.
type SubTreeID struct {
	hash       uint64
	root       *ir.Node
	parent     *ir.Node
	childIndex int
}

// NewSubTreeID builds the id of root as the childIndex'th child of parent.
// The top of a run has a nil parent and index 0.
func NewSubTreeID(ctx Context, root, parent *ir.Node, childIndex int) SubTreeID {
	return SubTreeID{
		hash:       ctx.HashCode(root),
		root:       root,
		parent:     parent,
		childIndex: childIndex,
	}
}

// Hash returns the context hash of the root.
func (id SubTreeID) Hash() uint64 { return id.hash }

// Equal reports whether id and o denote the same subtree state.
func (id SubTreeID) Equal(o SubTreeID) bool {
	if id.hash != o.hash {
		return false
	}
	return id.root == o.root || (id.parent == o.parent && id.childIndex == o.childIndex)
}

// ProcessedSet is a set of SubTreeIDs. Ids are bucketed by hash; Equal
// decides membership within a bucket.
type ProcessedSet struct {
	buckets map[uint64][]SubTreeID
	n       int
}

// NewProcessedSet creates an empty set.
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{buckets: make(map[uint64][]SubTreeID)}
}

// Contains reports whether an id equal to id was recorded.
func (s *ProcessedSet) Contains(id SubTreeID) bool {
	for _, o := range s.buckets[id.hash] {
		if o.Equal(id) {
			return true
		}
	}
	return false
}

// Record adds id. Recording an id that is already present is a no-op.
func (s *ProcessedSet) Record(id SubTreeID) {
	if s.Contains(id) {
		return
	}
	s.buckets[id.hash] = append(s.buckets[id.hash], id)
	s.n++
}

// Len returns the number of recorded ids.
func (s *ProcessedSet) Len() int { return s.n }

// Clear removes every id.
func (s *ProcessedSet) Clear() {
	clear(s.buckets)
	s.n = 0
}
