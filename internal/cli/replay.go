package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string             `json:"run_id"`
	Tree          string             `json:"tree"`
	Firings       int                `json:"firings"`
	SpecChanged   bool               `json:"spec_changed"`
	AfterMatches  bool               `json:"after_matches"`
	Divergences   []store.Divergence `json:"divergences"`
	Deterministic bool               `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <specs-dir>",
		Short: "Rewrite stored runs again and verify determinism",
		Long: `Rewrite the tree of each stored run again, with the rules, pass limit
and context the run was made with, and compare the fresh firings with the
stored ones position by position. The tree the replay ends with must also
have the stored fingerprint.

A run whose specs changed since it was stored is still replayed, with a
warning.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, specs do not compile, etc.)

Examples:
  plancore replay ./specs --db ./plancore.db
  plancore replay ./specs --db ./plancore.db --run 0192f0c4-...
  plancore replay ./specs --db ./plancore.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

// openExistingStore opens a database that must already exist; store.Open
// would silently create an empty one.
func openExistingStore(f *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runReplay(opts *ReplayOptions, specsDir string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		runs = []store.Run{run}
	} else if runs, err = st.ListRuns(ctx, ""); err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, run := range runs {
		runResult, err := replayRun(ctx, opts, formatter, st, specsDir, run)
		if err != nil {
			return err
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.IsJSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayRun rewrites the run's tree from a freshly compiled program and
// compares the outcome with what was stored.
func replayRun(ctx context.Context, opts *ReplayOptions, formatter *OutputFormatter, st *store.Store, specsDir string, run store.Run) (ReplayRunResult, error) {
	loaded, err := loadProgram(formatter, specsDir)
	if err != nil {
		return ReplayRunResult{}, err
	}
	prog := loaded.Program

	res := ReplayRunResult{
		RunID:       run.ID,
		Tree:        run.Tree,
		Firings:     run.Stats.Firings,
		SpecChanged: prog.SpecHash != run.SpecHash,
	}
	if res.SpecChanged {
		formatter.Warn("run %s: specs changed since the run was stored", run.ID)
	}

	cfg := runConfig{Tree: run.Tree, Rules: run.Rules, PassLimit: run.PassLimit, Context: run.Context}
	out, err := rewriteTree(prog, cfg, run.ID, opts.logger(formatter.GetErrWriter()))
	if err != nil {
		return ReplayRunResult{}, formatter.Fail(ExitCommandError, rewriteErrCode(err), fmt.Sprintf("run %s: %v", run.ID, err))
	}

	res.Divergences, err = st.VerifyReplay(ctx, run.ID, out.trace)
	if err != nil {
		return ReplayRunResult{}, WrapExitError(ExitCommandError, fmt.Sprintf("failed to verify run %s", run.ID), err)
	}
	res.AfterMatches = ir.Fingerprint(out.after) == run.FingerprintAfter
	res.Deterministic = len(res.Divergences) == 0 && res.AfterMatches
	formatter.VerboseLog("Replayed run %s: %d firing(s), %d divergence(s)", run.ID, len(out.trace.Firings), len(res.Divergences))
	return res, nil
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{Code: "E_DETERMINISM", Message: "determinism verification failed"}
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer
	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s (tree %s, %d firing(s))\n", status, run.RunID, run.Tree, run.Firings)
		for _, d := range run.Divergences {
			fmt.Fprintf(w, "  %s\n", d)
		}
		if !run.AfterMatches {
			fmt.Fprintln(w, "  Result tree differs from the stored fingerprint")
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}
	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
