package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/store"
)

func testResult() *Result {
	r := NewResult("run-1")
	r.After = "Filter\n  ScanTable(orders)[v1]\n"
	r.Firings = []engine.Firing{
		{Seq: 1, Rule: "a", OpBefore: ir.OpAnd, OpAfter: ir.OpOr, Pass: 1},
		{Seq: 2, Rule: "b", OpBefore: ir.OpOr, OpAfter: ir.OpAnd, Pass: 2},
		{Seq: 3, Rule: "a", OpBefore: ir.OpAnd, OpAfter: ir.OpOr, Pass: 3},
	}
	r.Stats = engine.Stats{Passes: 9, Firings: 3, Memoized: 2}
	return r
}

func TestAssertFired(t *testing.T) {
	r := testResult()
	assert.NoError(t, assertFired(r, Assertion{Rule: "a"}))

	err := assertFired(r, Assertion{Rule: "c"})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertFired, ae.Type)
	assert.Equal(t, "not found in trace", ae.Actual)
}

func TestAssertNotFired(t *testing.T) {
	r := testResult()
	assert.NoError(t, assertNotFired(r, Assertion{Rule: "c"}))
	assert.ErrorContains(t, assertNotFired(r, Assertion{Rule: "a"}), "fired 2 time(s)")
}

func TestAssertFireOrder(t *testing.T) {
	r := testResult()
	assert.NoError(t, assertFireOrder(r, Assertion{Rules: []string{"a", "b"}}))
	assert.NoError(t, assertFireOrder(r, Assertion{Rules: []string{"b"}}))

	err := assertFireOrder(r, Assertion{Rules: []string{"b", "a"}})
	assert.ErrorContains(t, err, "b (seq 2) should fire before a (seq 1)")

	err = assertFireOrder(r, Assertion{Rules: []string{"a", "c"}})
	assert.ErrorContains(t, err, "rule c never fired")
}

func TestAssertFireCount(t *testing.T) {
	r := testResult()
	assert.NoError(t, assertFireCount(r, Assertion{Rule: "a", Count: 2}))
	assert.NoError(t, assertFireCount(r, Assertion{Rule: "c", Count: 0}))
	assert.ErrorContains(t, assertFireCount(r, Assertion{Rule: "b", Count: 2}), "Actual: 1 firings")
}

func TestAssertResult(t *testing.T) {
	r := testResult()
	assert.NoError(t, assertResult(r, Assertion{Expect: "Filter\n  ScanTable(orders)[v1]"}))
	assert.NoError(t, assertResult(r, Assertion{Expect: "Filter\n  ScanTable(orders)[v1]\n\n"}))

	err := assertResult(r, Assertion{Expect: "ScanTable(orders)[v1]"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: \n    ScanTable(orders)[v1]\n")
}

func TestAssertStats(t *testing.T) {
	r := testResult()
	assert.NoError(t, assertStats(r, Assertion{Stats: map[string]int{"passes": 9, "memoized": 2, "anomalies": 0}}))

	err := assertStats(r, Assertion{Stats: map[string]int{"firings": 1, "passes": 1}})
	assert.ErrorContains(t, err, "Expected: firings = 1", "names are checked in sorted order")

	assert.ErrorContains(t, assertStats(r, Assertion{Stats: map[string]int{"rewrites": 1}}), `unknown stat "rewrites"`)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertFired,
		Expected: "rule c to fire",
		Actual:   "not found in trace",
		Firings:  testResult().Firings[:1],
	}
	assert.Equal(t, "Assertion failed: fired\n"+
		"  Expected: rule c to fire\n"+
		"  Actual: not found in trace\n"+
		"\nFull trace:\n"+
		"  [1] a And->Or pass 1\n", err.Error())
}

// =============================================================================
// Deterministic
// =============================================================================

func deterministicContext(t *testing.T, stored, replayed []engine.Firing) *AssertionContext {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	trace := engine.NewTrace("run-1")
	trace.Firings = stored
	require.NoError(t, st.WriteRun(ctx, store.Run{ID: "run-1", Tree: "q1"}, trace))

	return &AssertionContext{
		Ctx:   ctx,
		Store: st,
		RunID: "run-1",
		Replay: func() (*engine.Trace, error) {
			fresh := engine.NewTrace("run-1")
			fresh.Firings = replayed
			return fresh, nil
		},
	}
}

func TestAssertDeterministic(t *testing.T) {
	firings := testResult().Firings
	assert.NoError(t, assertDeterministic(deterministicContext(t, firings, firings)))

	err := assertDeterministic(deterministicContext(t, firings, firings[:2]))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 divergence(s)")
	assert.Contains(t, err.Error(), "seq 3: stored a(And->Or) pass 3, replayed <none>")
}

func TestEvaluateAssertions(t *testing.T) {
	r := testResult()
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertFired, Rule: "a"},
		{Type: AssertFired, Rule: "c"},
		{Type: AssertDeterministic},
		{Type: "bogus"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "Assertion failed: fired")
	assert.Contains(t, errs[1], "assertion[2]: deterministic requires a store and a replay")
	assert.Contains(t, errs[2], `assertion[3]: unknown assertion type "bogus"`)
}
