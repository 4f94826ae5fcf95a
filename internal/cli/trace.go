package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/plancore/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - show one run and its firings
	Tree     string // optional - only runs of this tree
	Rule     string // optional - only firings of this rule
	Stats    bool   // firing counts per rule instead of runs
}

// TraceResult is one run and its firings.
type TraceResult struct {
	Run     store.Run    `json:"run"`
	Firings []FiringView `json:"firings"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect stored rewrite runs",
		Long: `Inspect the rewrite runs stored by rewrite --db.

Without --run, lists the stored runs, oldest first. With --run, shows the
run's statistics and its firings in the order they happened. With --stats,
counts the stored firings of every rule across all runs.

Examples:
  plancore trace --db ./plancore.db
  plancore trace --db ./plancore.db --tree q1
  plancore trace --db ./plancore.db --run 0192f0c4-... --rule andToOr
  plancore trace --db ./plancore.db --stats --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show this run and its firings")
	cmd.Flags().StringVar(&opts.Tree, "tree", "", "list only runs of this tree")
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "show only firings of this rule")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "count firings per rule across all runs")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	switch {
	case opts.Stats:
		return traceStats(ctx, formatter, st)
	case opts.RunID != "":
		return traceRun(ctx, opts, formatter, st)
	default:
		return traceRuns(ctx, opts, formatter, st)
	}
}

func traceRuns(ctx context.Context, opts *TraceOptions, formatter *OutputFormatter, st *store.Store) error {
	runs, err := st.ListRuns(ctx, opts.Tree)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if formatter.IsJSON() {
		return outputTraceJSON(formatter, runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	fmt.Fprintf(w, "Runs: %d\n\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  tree=%s firings=%d passes=%d cycles_broken=%d anomalies=%d\n",
			r.ID, r.Tree, r.Stats.Firings, r.Stats.Passes, r.Stats.CyclesBroken, r.Stats.Anomalies)
	}
	return nil
}

func traceRun(ctx context.Context, opts *TraceOptions, formatter *OutputFormatter, st *store.Store) error {
	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	firings, err := st.ReadFirings(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read firings", err)
	}

	views := []FiringView{}
	for _, f := range firingViews(firings) {
		if opts.Rule == "" || f.Rule == opts.Rule {
			views = append(views, f)
		}
	}
	result := TraceResult{Run: run, Firings: views}
	if formatter.IsJSON() {
		return outputTraceJSON(formatter, result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Trace for Run: %s\n", run.ID)
	fmt.Fprintf(w, "Tree: %s\n", run.Tree)
	fmt.Fprintf(w, "Spec hash: %s\n", truncateID(run.SpecHash))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Firings:")
	if len(views) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, f := range views {
		fmt.Fprintf(w, "  [%d] %s %s->%s pass %d node %d\n", f.Seq, f.Rule, f.OpBefore, f.OpAfter, f.Pass, f.NodeID)
	}
	fmt.Fprintln(w)

	s := run.Stats
	fmt.Fprintln(w, "Stats:")
	fmt.Fprintf(w, "  Passes:        %d\n", s.Passes)
	fmt.Fprintf(w, "  Firings:       %d\n", s.Firings)
	fmt.Fprintf(w, "  Cycles broken: %d\n", s.CyclesBroken)
	fmt.Fprintf(w, "  Memoized:      %d\n", s.Memoized)
	fmt.Fprintf(w, "  Anomalies:     %d\n", s.Anomalies)
	return nil
}

func traceStats(ctx context.Context, formatter *OutputFormatter, st *store.Store) error {
	stats, err := st.RuleStats(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read rule stats", err)
	}
	if formatter.IsJSON() {
		return outputTraceJSON(formatter, stats)
	}

	w := formatter.Writer
	if len(stats) == 0 {
		fmt.Fprintln(w, "No firings found.")
		return nil
	}
	fmt.Fprintln(w, "Firings per rule:")
	for _, rc := range stats {
		fmt.Fprintf(w, "  %-24s %d\n", rc.Rule, rc.Count)
	}
	return nil
}

func outputTraceJSON(formatter *OutputFormatter, data any) error {
	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: data})
}

// truncateID shortens a long identifier for display.
func truncateID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}
