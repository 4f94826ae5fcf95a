package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRun_Exists(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, trace := rewriteTestTree(t, "run-1")
	require.NoError(t, s.WriteRun(ctx, run, trace))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows), "expected sql.ErrNoRows, got %v", err)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListRuns_DeterministicOrdering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"run-c", "run-a", "run-b"} {
		require.NoError(t, s.WriteRun(ctx, createTestRun(id, "q1"), nil))
	}

	runs, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"run-a", "run-b", "run-c"}, ids)
}

func TestListRuns_ByTree(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, createTestRun("run-1", "q1"), nil))
	require.NoError(t, s.WriteRun(ctx, createTestRun("run-2", "q2"), nil))
	require.NoError(t, s.WriteRun(ctx, createTestRun("run-3", "q1"), nil))

	runs, err := s.ListRuns(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)
}

func TestReadFirings_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, trace := rewriteTestTree(t, "run-1")
	require.NoError(t, s.WriteRun(ctx, run, trace))

	firings, err := s.ReadFirings(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, trace.Firings, firings)
}

func TestReadFirings_Empty(t *testing.T) {
	s := createTestStore(t)
	firings, err := s.ReadFirings(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, firings)
	assert.Empty(t, firings)
}

func TestReadFirings_UnknownOp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, createTestRun("run-1", "q1"), nil))
	_, err := s.db.Exec(`
		INSERT INTO rule_firings (run_id, seq, rule, node_id, op_before, op_after, pass)
		VALUES ('run-1', 1, 'r', 1, 'Bogus', 'Or', 1)
	`)
	require.NoError(t, err)

	_, err = s.ReadFirings(ctx, "run-1")
	assert.ErrorContains(t, err, `unknown op type "Bogus"`)
}

func TestRuleStats(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"run-1", "run-2"} {
		run, trace := rewriteTestTree(t, id)
		require.NoError(t, s.WriteRun(ctx, run, trace))
	}
	require.NoError(t, s.WriteRun(ctx, createTestRun("run-3", "q2"), nil))
	_, err := s.db.Exec(`
		INSERT INTO rule_firings (run_id, seq, rule, node_id, op_before, op_after, pass)
		VALUES ('run-3', 1, 'or-to-eq', 1, 'Or', 'EQ', 1)
	`)
	require.NoError(t, err)

	stats, err := s.RuleStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RuleCount{
		{Rule: "or-to-eq", Count: 3},
		{Rule: "and-to-or", Count: 2},
	}, stats)
}

func TestRuleStats_Empty(t *testing.T) {
	s := createTestStore(t)
	stats, err := s.RuleStats(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Empty(t, stats)
}

func TestReadRun_Configuration(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, trace := rewriteTestTree(t, "run-1")
	run.Rules = []string{"and-to-or", "or-to-eq"}
	run.PassLimit = 4
	run.Context = "identity"
	require.NoError(t, s.WriteRun(ctx, run, trace))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"and-to-or", "or-to-eq"}, got.Rules)
	assert.Equal(t, 4, got.PassLimit)
	assert.Equal(t, "identity", got.Context)
}
