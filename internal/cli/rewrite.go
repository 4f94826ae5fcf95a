package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/plancore/internal/compiler"
	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/harness"
	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/store"
)

// RewriteOptions holds flags for the rewrite command.
type RewriteOptions struct {
	*RootOptions
	Tree      string
	Rules     []string
	PassLimit int
	Identity  bool
	Database  string

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RewriteResult is the outcome of one rewrite run.
type RewriteResult struct {
	RunID    string       `json:"run_id"`
	Tree     string       `json:"tree"`
	SpecHash string       `json:"spec_hash"`
	Before   string       `json:"before"`
	After    string       `json:"after"`
	Firings  []FiringView `json:"firings"`
	Stats    engine.Stats `json:"stats"`
	Stored   bool         `json:"stored"`
}

// FiringView is a firing with its op types spelled out.
type FiringView struct {
	Seq      int64  `json:"seq"`
	Rule     string `json:"rule"`
	NodeID   uint64 `json:"node_id"`
	OpBefore string `json:"op_before"`
	OpAfter  string `json:"op_after"`
	Pass     int    `json:"pass"`
}

func firingViews(firings []engine.Firing) []FiringView {
	views := make([]FiringView, len(firings))
	for i, f := range firings {
		views[i] = FiringView{
			Seq:      f.Seq,
			Rule:     f.Rule,
			NodeID:   f.NodeID,
			OpBefore: f.OpBefore.String(),
			OpAfter:  f.OpAfter.String(),
			Pass:     f.Pass,
		}
	}
	return views
}

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(rootOpts *RootOptions) *cobra.Command {
	return newRewriteCommand(&RewriteOptions{RootOptions: rootOpts})
}

func newRewriteCommand(opts *RewriteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite <specs-dir>",
		Short: "Rewrite a tree to a fixpoint",
		Long: `Compile a specs directory and rewrite one of its trees with its rules
until no rule changes the tree, a subtree repeats, or the pass limit is
reached.

With --db the run and every rule firing are stored, so the run can be
inspected with trace and checked with replay.

Examples:
  plancore rewrite ./specs --tree q1
  plancore rewrite ./specs --tree q1 --rules andToOr,orToAnd --pass-limit 4
  plancore rewrite ./specs --tree q1 --db ./plancore.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Tree, "tree", "", "name of the tree to rewrite (required)")
	_ = cmd.MarkFlagRequired("tree")
	cmd.Flags().StringSliceVar(&opts.Rules, "rules", nil, "rules to apply, in order (default: all)")
	cmd.Flags().IntVar(&opts.PassLimit, "pass-limit", 0, "passes allowed per subtree (default: engine limit)")
	cmd.Flags().BoolVar(&opts.Identity, "identity", false, "identify subtrees by node rather than by fingerprint")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the run in this SQLite database")

	return cmd
}

// runConfig is everything besides the specs that decides a rewrite.
type runConfig struct {
	Tree      string
	Rules     []string
	PassLimit int
	Context   string
}

// rewriteOutcome is one finished rewrite.
type rewriteOutcome struct {
	fingerprint string // of the tree before rewriting
	before      string
	after       *ir.Node
	proc        *engine.Processor
	trace       *engine.Trace
}

// errInvalidRunConfig marks rewriteTree errors caused by a run configuration
// that can never be valid, as opposed to names missing from the specs.
var errInvalidRunConfig = errors.New("invalid run configuration")

// rewriteErrCode returns the error code reported for a rewriteTree error.
func rewriteErrCode(err error) string {
	if errors.Is(err, errInvalidRunConfig) || errors.Is(err, compiler.ErrRuleListedTwice) {
		return ErrCodeInvalidArg
	}
	return ErrCodeNotFound
}

// rewriteTree rewrites the configured tree of prog. The tree is rewritten
// in place; callers load a fresh program for every rewrite.
func rewriteTree(prog *compiler.Program, cfg runConfig, runID string, logger *slog.Logger) (*rewriteOutcome, error) {
	root, ok := prog.Trees[cfg.Tree]
	if !ok {
		return nil, errors.Newf("tree %q is not declared in the specs", cfg.Tree)
	}
	rules, err := prog.SelectRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	if cfg.PassLimit < 0 {
		return nil, errors.Mark(errors.Newf("pass limit must be non-negative, got %d", cfg.PassLimit), errInvalidRunConfig)
	}

	trace := engine.NewTrace(runID)
	opts := []engine.Option{engine.WithLogger(logger), engine.WithTrace(trace)}
	if cfg.PassLimit > 0 {
		opts = append(opts, engine.WithPassLimit(cfg.PassLimit))
	}
	proc := engine.NewProcessor(opts...)

	out := &rewriteOutcome{
		fingerprint: ir.Fingerprint(root),
		before:      ir.Format(root),
		proc:        proc,
		trace:       trace,
	}
	out.after = proc.ApplyRulesToSubtree(harness.ProcessingContext(cfg.Context), rules, root)
	return out, nil
}

func runRewrite(opts *RewriteOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := loadProgram(formatter, specsDir)
	if err != nil {
		return err
	}

	cfg := runConfig{Tree: opts.Tree, Rules: opts.Rules, PassLimit: opts.PassLimit, Context: harness.ContextFingerprint}
	if opts.Identity {
		cfg.Context = harness.ContextIdentity
	}
	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	runID := runIDs.Generate()

	prog := loaded.Program
	out, err := rewriteTree(prog, cfg, runID, opts.logger(formatter.GetErrWriter()))
	if err != nil {
		return formatter.Fail(ExitCommandError, rewriteErrCode(err), err.Error())
	}

	result := RewriteResult{
		RunID:    runID,
		Tree:     cfg.Tree,
		SpecHash: prog.SpecHash,
		Before:   out.before,
		After:    ir.Format(out.after),
		Firings:  firingViews(out.trace.Firings),
		Stats:    out.proc.Stats(),
	}

	if opts.Database != "" {
		run := store.NewRun(runID, cfg.Tree, prog.SpecHash, out.fingerprint, out.after, out.proc)
		run.Rules = cfg.Rules
		run.PassLimit = cfg.PassLimit
		run.Context = cfg.Context
		if err := storeRun(opts.Database, run, out.trace); err != nil {
			return WrapExitError(ExitCommandError, "failed to store run", err)
		}
		result.Stored = true
		formatter.VerboseLog("Stored run %s in %s", runID, opts.Database)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	outputRewriteText(formatter, result, opts.Database)
	return nil
}

func storeRun(path string, run store.Run, trace *engine.Trace) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteRun(context.Background(), run, trace)
}

func outputRewriteText(formatter *OutputFormatter, result RewriteResult, database string) {
	w := formatter.Writer
	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Tree: %s\n\n", result.Tree)

	fmt.Fprintln(w, "Before:")
	fmt.Fprint(w, indentLines(result.Before, "  "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "After:")
	fmt.Fprint(w, indentLines(result.After, "  "))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Firings:")
	if len(result.Firings) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, f := range result.Firings {
		fmt.Fprintf(w, "  [%d] %s %s->%s pass %d\n", f.Seq, f.Rule, f.OpBefore, f.OpAfter, f.Pass)
	}
	fmt.Fprintln(w)

	s := result.Stats
	fmt.Fprintf(w, "Stats: passes=%d firings=%d cycles_broken=%d memoized=%d anomalies=%d\n",
		s.Passes, s.Firings, s.CyclesBroken, s.Memoized, s.Anomalies)
	if result.Stored {
		fmt.Fprintf(w, "Stored run %s in %s\n", result.RunID, database)
	}
}

// indentLines prefixes every line of s. s ends with a newline, as
// ir.Format output does.
func indentLines(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}
