package store

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var ordersTable = md.NewTable("orders", []md.Column{
	{Name: "id", Type: md.Int32},
	{Name: "status", Type: md.String, Nullable: true},
}, "id")

func retagRule(name string, from, to ir.OpType) *engine.Rule {
	return engine.NewSimpleRule(name, from, func(_ engine.Context, n *ir.Node) (*ir.Node, bool) {
		return ir.NewNode(ir.NewScalarOp(to, md.Boolean), n.Children()...), true
	})
}

// rewriteTestTree runs And -> Or -> EQ over the predicate of a filter and
// returns the stored form of the run with its trace.
func rewriteTestTree(t *testing.T, runID string) (Run, *engine.Trace) {
	t.Helper()
	f := ir.NewFactory()
	pred := f.Scalar(ir.OpAnd, md.Boolean, f.ConstantPredicate(true), f.ConstantPredicate(false))
	root := f.Filter(f.ScanTable(ordersTable), pred)
	before := ir.Fingerprint(root)

	rules := engine.NewRuleTable([]*engine.Rule{
		retagRule("and-to-or", ir.OpAnd, ir.OpOr),
		retagRule("or-to-eq", ir.OpOr, ir.OpEQ),
	})
	trace := engine.NewTrace(runID)
	p := engine.NewProcessor(
		engine.WithLogger(slog.New(slog.DiscardHandler)),
		engine.WithTrace(trace),
	)
	after := p.ApplyRulesToSubtree(engine.FingerprintContext{}, rules, root)
	return NewRun(runID, "q1", "test-hash", before, after, p), trace
}

// createTestRun builds a run summary with no firings.
func createTestRun(id, tree string) Run {
	return Run{
		ID:                id,
		Tree:              tree,
		SpecHash:          "test-hash",
		FingerprintBefore: "before",
		FingerprintAfter:  "after",
		EngineVersion:     ir.EngineVersion,
		IRVersion:         ir.IRVersion,
	}
}
