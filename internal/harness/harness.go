package harness

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/compiler"
	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/store"
)

// Harness runs one scenario against an in-memory store.
type Harness struct {
	scenario *Scenario
	store    *store.Store
	runIDs   engine.RunIDGenerator
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger for the run and its processors. The default
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// rewrite is one rewrite of the scenario's tree.
type rewrite struct {
	specHash    string
	fingerprint string // of the tree before rewriting
	before      string
	after       *ir.Node
	proc        *engine.Processor
	trace       *engine.Trace
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh in-memory store
//  2. Compile the specs and look up the tree and rules
//  3. Rewrite the tree with a traced processor
//  4. Store the run and its firings
//  5. Evaluate the assertions
//
// A returned error means the scenario could not run at all; failed
// assertions are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create in-memory store")
	}
	defer st.Close()

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}
	h := &Harness{
		scenario: scenario,
		store:    st,
		runIDs:   engine.NewFixedGenerator(runID),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx := context.Background()
	rw, err := h.rewrite(h.runIDs.Generate())
	if err != nil {
		return nil, err
	}

	run := store.NewRun(rw.trace.RunID, scenario.Tree, rw.specHash, rw.fingerprint, rw.after, rw.proc)
	run.Rules = scenario.Rules
	run.PassLimit = scenario.PassLimit
	run.Context = scenario.Context
	if err := st.WriteRun(ctx, run, rw.trace); err != nil {
		return nil, errors.Wrap(err, "failed to store run")
	}
	h.logger.Info("scenario rewritten",
		"scenario", scenario.Name,
		"run", run.ID,
		"firings", run.Stats.Firings,
	)

	result := NewResult(run.ID)
	result.Before = rw.before
	result.After = ir.Format(rw.after)
	result.Firings = append(result.Firings, rw.trace.Firings...)
	result.Stats = run.Stats

	actx := &AssertionContext{
		Ctx:   ctx,
		Store: st,
		RunID: run.ID,
		Replay: func() (*engine.Trace, error) {
			rw, err := h.rewrite(run.ID)
			if err != nil {
				return nil, err
			}
			return rw.trace, nil
		},
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// rewrite compiles the scenario's specs from scratch and rewrites its tree.
// Every call starts from freshly compiled nodes, so a rewrite never sees
// the result of an earlier one.
func (h *Harness) rewrite(runID string) (*rewrite, error) {
	srcs, err := compiler.ReadSources(h.scenario.Specs...)
	if err != nil {
		return nil, err
	}
	prog, errs := compiler.CompileSources(srcs)
	if len(errs) > 0 {
		return nil, errors.Wrapf(errs[0], "failed to compile specs (%d errors)", len(errs))
	}

	root, ok := prog.Trees[h.scenario.Tree]
	if !ok {
		return nil, errors.Newf("tree %q is not declared in the specs", h.scenario.Tree)
	}
	rules, err := prog.SelectRules(h.scenario.Rules)
	if err != nil {
		return nil, err
	}

	trace := engine.NewTrace(runID)
	opts := []engine.Option{
		engine.WithLogger(h.logger),
		engine.WithTrace(trace),
	}
	if h.scenario.PassLimit > 0 {
		opts = append(opts, engine.WithPassLimit(h.scenario.PassLimit))
	}
	proc := engine.NewProcessor(opts...)

	fingerprint := ir.Fingerprint(root)
	before := ir.Format(root)
	after := proc.ApplyRulesToSubtree(ProcessingContext(h.scenario.Context), rules, root)
	return &rewrite{
		specHash:    prog.SpecHash,
		fingerprint: fingerprint,
		before:      before,
		after:       after,
		proc:        proc,
		trace:       trace,
	}, nil
}

// ProcessingContext returns the engine context a context name selects.
// Identity compares subtrees by node; anything else by fingerprint.
func ProcessingContext(name string) engine.Context {
	if name == ContextIdentity {
		return engine.BaseContext{}
	}
	return engine.FingerprintContext{}
}
