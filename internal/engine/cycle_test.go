package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/plancore/internal/ir"
)

// =============================================================================
// SubTreeID equality
// =============================================================================

func TestSubTreeID_SameRootSameHash(t *testing.T) {
	f := ir.NewFactory()
	n := boolOp(f, ir.OpAnd)
	p1 := f.Scalar(ir.OpNot, nil, f.ConstantPredicate(true))
	p2 := f.Scalar(ir.OpNot, nil, f.ConstantPredicate(true))

	a := NewSubTreeID(BaseContext{}, n, p1, 0)
	b := NewSubTreeID(BaseContext{}, n, p2, 3)

	assert.True(t, a.Equal(b), "same root node in a different slot is the same subtree")
}

func TestSubTreeID_SameSlotSameHash(t *testing.T) {
	f := ir.NewFactory()
	parent := f.Scalar(ir.OpNot, nil, f.ConstantPredicate(true))
	a := NewSubTreeID(FingerprintContext{}, boolOp(f, ir.OpAnd), parent, 0)
	b := NewSubTreeID(FingerprintContext{}, boolOp(f, ir.OpAnd), parent, 0)

	assert.Equal(t, a.Hash(), b.Hash())
	assert.True(t, a.Equal(b), "different node with equal hash in the same slot")
}

func TestSubTreeID_DifferentSlotDifferentRoot(t *testing.T) {
	f := ir.NewFactory()
	parent := f.Scalar(ir.OpNot, nil, f.ConstantPredicate(true))
	a := NewSubTreeID(FingerprintContext{}, boolOp(f, ir.OpAnd), parent, 0)
	b := NewSubTreeID(FingerprintContext{}, boolOp(f, ir.OpAnd), parent, 1)

	assert.False(t, a.Equal(b))
}

func TestSubTreeID_HashMustMatch(t *testing.T) {
	f := ir.NewFactory()
	n := boolOp(f, ir.OpAnd)
	a := NewSubTreeID(FingerprintContext{}, n, nil, 0)
	n.SetOp(ir.NewScalarOp(ir.OpOr, nil))
	b := NewSubTreeID(FingerprintContext{}, n, nil, 0)

	assert.False(t, a.Equal(b), "same node and slot but a different hash")
}

// =============================================================================
// ProcessedSet
// =============================================================================

func TestProcessedSet_RecordAndContains(t *testing.T) {
	f := ir.NewFactory()
	s := NewProcessedSet()
	id := NewSubTreeID(BaseContext{}, boolOp(f, ir.OpAnd), nil, 0)
	other := NewSubTreeID(BaseContext{}, boolOp(f, ir.OpAnd), nil, 0)

	assert.False(t, s.Contains(id))
	s.Record(id)
	s.Record(id)
	assert.True(t, s.Contains(id))
	assert.False(t, s.Contains(other))
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(id))
}

func TestProcessedSet_BucketCollisions(t *testing.T) {
	f := ir.NewFactory()
	p := f.Scalar(ir.OpNot, nil, f.ConstantPredicate(true))
	s := NewProcessedSet()

	// Equal fingerprints, different slots: same bucket, distinct members.
	a := NewSubTreeID(FingerprintContext{}, boolOp(f, ir.OpAnd), p, 0)
	b := NewSubTreeID(FingerprintContext{}, boolOp(f, ir.OpAnd), p, 1)
	s.Record(a)
	s.Record(b)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(a))
	assert.True(t, s.Contains(b))
}
