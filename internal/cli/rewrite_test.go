package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/store"
)

func rewriteCommand(format string, ids ...string) *RewriteOptions {
	return &RewriteOptions{
		RootOptions: &RootOptions{Format: format},
		RunIDs:      engine.NewFixedGenerator(ids...),
	}
}

// executeRewrite runs the rewrite command with a fixed run id generator.
func executeRewrite(t *testing.T, opts *RewriteOptions, args ...string) (string, string, error) {
	t.Helper()
	return execute(newRewriteCommand(opts), args...)
}

// =============================================================================
// Text output
// =============================================================================

func TestRewriteSingleRule(t *testing.T) {
	out, _, err := executeRewrite(t, rewriteCommand("text", "run-1"), specsDir, "--tree", "q1", "--rules", "andToOr")
	require.NoError(t, err)

	assert.Contains(t, out, "Run: run-1")
	assert.Contains(t, out, "Tree: q1")
	assert.Contains(t, out, "Before:\n  Filter\n")
	assert.Contains(t, out, "After:\n  Filter\n    ScanTable(orders)[v2,v3]\n    Or\n")
	assert.Contains(t, out, "  [1] andToOr And->Or pass 1")
	assert.Contains(t, out, "Stats: passes=8 firings=1 cycles_broken=0 memoized=2 anomalies=0")
	assert.NotContains(t, out, "Stored run")
}

func TestRewriteOscillationStops(t *testing.T) {
	out, _, err := executeRewrite(t, rewriteCommand("text", "run-1"), specsDir, "--tree", "q1")
	require.NoError(t, err)

	assert.Contains(t, out, "  [1] andToOr And->Or pass 1")
	assert.Contains(t, out, "  [2] orToAnd Or->And pass 2")
	assert.Contains(t, out, "Stats: passes=9 firings=2 cycles_broken=1 memoized=2 anomalies=0")
}

func TestRewriteHoist(t *testing.T) {
	out, _, err := executeRewrite(t, rewriteCommand("text", "run-1"), specsDir, "--tree", "q2", "--rules", "dropConstantFilter")
	require.NoError(t, err)

	assert.Contains(t, out, "After:\n  ScanTable(orders)[v2,v3]\n")
	assert.Contains(t, out, "  [1] dropConstantFilter Filter->ScanTable pass 1")
}

func TestRewriteNoFirings(t *testing.T) {
	out, _, err := executeRewrite(t, rewriteCommand("text", "run-1"), specsDir, "--tree", "q1", "--rules", "dropConstantFilter")
	require.NoError(t, err)
	assert.Contains(t, out, "Firings:\n  (none)\n")
}

// =============================================================================
// JSON output
// =============================================================================

func TestRewriteJSON(t *testing.T) {
	out, _, err := executeRewrite(t, rewriteCommand("json", "run-1"), specsDir, "--tree", "q1", "--rules", "andToOr")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   RewriteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Len(t, resp.Data.SpecHash, 64)
	assert.Equal(t, engine.Stats{Passes: 8, Firings: 1, Memoized: 2}, resp.Data.Stats)
	require.Len(t, resp.Data.Firings, 1)
	assert.Equal(t, "And", resp.Data.Firings[0].OpBefore)
	assert.Equal(t, "Or", resp.Data.Firings[0].OpAfter)
	assert.False(t, resp.Data.Stored)
}

// =============================================================================
// Storage
// =============================================================================

func TestRewriteStoresRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "plancore.db")

	out, _, err := executeRewrite(t, rewriteCommand("text", "run-1"), specsDir,
		"--tree", "q1", "--rules", "andToOr,orToAnd", "--pass-limit", "20", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored run run-1 in "+dbPath)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "q1", run.Tree)
	assert.Equal(t, []string{"andToOr", "orToAnd"}, run.Rules)
	assert.Equal(t, 20, run.PassLimit)
	assert.Equal(t, "fingerprint", run.Context)
	assert.Equal(t, 2, run.Stats.Firings)
	// The oscillation ends where it started.
	assert.Equal(t, run.FingerprintBefore, run.FingerprintAfter)

	firings, err := st.ReadFirings(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, firings, 2)
}

// =============================================================================
// Errors
// =============================================================================

func TestRewriteErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		code    string
		message string
	}{
		{"unknown tree", []string{"--tree", "q9"}, ErrCodeNotFound, `tree "q9" is not declared`},
		{"unknown rule", []string{"--tree", "q1", "--rules", "nope"}, ErrCodeNotFound, `rule "nope" is not declared`},
		{"repeated rule", []string{"--tree", "q1", "--rules", "andToOr,andToOr"}, ErrCodeInvalidArg, `rule "andToOr" is listed twice`},
		{"negative pass limit", []string{"--tree", "q1", "--pass-limit", "-1"}, ErrCodeInvalidArg, "pass limit must be non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeRewrite(t, rewriteCommand("text", "run-1"), append([]string{specsDir}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.code)
			assert.Contains(t, out, tt.message)
		})
	}
}

func TestRewriteRequiresTree(t *testing.T) {
	_, _, err := execute(NewRewriteCommand(&RootOptions{Format: "text"}), specsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "tree" not set`)
}
