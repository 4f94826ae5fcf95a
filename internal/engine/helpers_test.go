package engine

import (
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

var ordersTable = md.NewTable("orders", []md.Column{
	{Name: "id", Type: md.Int32},
	{Name: "status", Type: md.String, Nullable: true},
}, "id")

func quietProcessor(opts ...Option) *Processor {
	return NewProcessor(append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)...)
}

// boolOp builds a two-input boolean scalar node of type t.
func boolOp(f *ir.Factory, t ir.OpType) *ir.Node {
	return f.Scalar(t, md.Boolean, f.ConstantPredicate(true), f.ConstantPredicate(false))
}

// retagRule rewrites every from-node into a to-node in place.
func retagRule(name string, from, to ir.OpType) *Rule {
	return NewSimpleRule(name, from, func(_ Context, n *ir.Node) (*ir.Node, bool) {
		n.SetOp(ir.NewScalarOp(to, md.Boolean))
		return n, true
	})
}

// rebuildRule rewrites every from-node into a fresh to-node that takes over
// the children.
func rebuildRule(name string, from, to ir.OpType) *Rule {
	return NewSimpleRule(name, from, func(_ Context, n *ir.Node) (*ir.Node, bool) {
		return ir.NewNode(ir.NewScalarOp(to, md.Boolean), n.Children()...), true
	})
}

// recordingContext logs every hook call as "hook:OpType".
type recordingContext struct {
	FingerprintContext
	events []string
}

func (c *recordingContext) PreProcess(n *ir.Node) {
	c.events = append(c.events, "pre:"+n.Op().OpType().String())
}

func (c *recordingContext) PreProcessSubTree(n *ir.Node) {
	c.events = append(c.events, "preSubTree:"+n.Op().OpType().String())
}

func (c *recordingContext) PostProcess(n *ir.Node, r *Rule) {
	c.events = append(c.events, "post:"+n.Op().OpType().String()+":"+r.Name())
}

func (c *recordingContext) PostProcessSubTree(n *ir.Node) {
	c.events = append(c.events, "postSubTree:"+n.Op().OpType().String())
}

// requireContractPanic runs fn and requires a ContractError panic with code.
func requireContractPanic(t *testing.T, code ContractErrorCode, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.HasAssertionFailure(err), "expected assertion failure, got %v", err)
		assert.True(t, IsContractError(err, code), "expected %s, got %v", code, err)
	}()
	fn()
}
