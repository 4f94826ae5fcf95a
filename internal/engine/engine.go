package engine

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/ir"
)

// Processor applies a RuleTable to a tree bottom-up until no rule fires.
//
// A Processor is one rewrite run: its global processed set memoizes every
// subtree finished so far, across all calls to ApplyRulesToSubtree. Use a new
// Processor (or Reset) for an unrelated tree.
//
// INVARIANTS:
//   - every node returned by a rewrite satisfies its op's arity
//   - a SubTreeID recorded in the global set is never processed again
//   - the Context is only read and notified, never mutated
type Processor struct {
	passLimit      int
	strict         bool
	contractChecks bool
	trace          *Trace
	logger         *slog.Logger

	global *ProcessedSet
	stats  Stats
}

// Stats counts what a run did.
type Stats struct {
	Passes       int `json:"passes"`        // Loop iterations over all subtree calls
	Firings      int `json:"firings"`       // Rule applications that changed the tree
	CyclesBroken int `json:"cycles_broken"` // Subtrees stopped because they returned to an earlier state
	Memoized     int `json:"memoized"`      // Subtrees skipped because they were already finished
	Anomalies    int `json:"anomalies"`     // Subtrees stopped by the pass limit
}

// Option configures a Processor.
type Option func(*Processor)

// WithPassLimit sets the number of passes one subtree call may take before
// the processor reports an anomaly. Zero disables the limit.
//
// Default: 12 passes (DefaultPassLimit)
func WithPassLimit(n int) Option {
	return func(p *Processor) {
		p.passLimit = n
	}
}

// WithStrictPassLimit makes hitting the pass limit panic with an assertion
// failure instead of logging and stopping.
func WithStrictPassLimit() Option {
	return func(p *Processor) {
		p.strict = true
	}
}

// WithContractChecks fingerprints nodes around every rule application to
// catch rules that mutate while reporting no change, or report a change that
// did not happen.
func WithContractChecks() Option {
	return func(p *Processor) {
		p.contractChecks = true
	}
}

// WithTrace records every firing into t.
func WithTrace(t *Trace) Option {
	return func(p *Processor) {
		p.trace = t
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

// NewProcessor creates a Processor for one rewrite run.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		passLimit: DefaultPassLimit,
		global:    NewProcessedSet(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Stats returns the counters accumulated so far.
func (p *Processor) Stats() Stats { return p.stats }

// Trace returns the trace configured with WithTrace, or nil.
func (p *Processor) Trace() *Trace { return p.trace }

// Reset forgets every processed subtree and zeroes the stats.
func (p *Processor) Reset() {
	p.global.Clear()
	p.stats = Stats{}
}

// ApplyRulesToSubtree rewrites the tree rooted at root with rules and
// returns the new root. Children are rewritten in place; the returned root
// may be a different node than root.
func (p *Processor) ApplyRulesToSubtree(ctx Context, rules *RuleTable, root *ir.Node) *ir.Node {
	out, _ := p.applyRulesToSubtree(ctx, rules, root, nil, 0)
	return out
}

// applyRulesToSubtree also reports whether any rule fired in the subtree, so
// callers can drop NodeInfo cached on ancestors of an in-place rewrite.
func (p *Processor) applyRulesToSubtree(ctx Context, rules *RuleTable, subtree, parent *ir.Node, childIndex int) (*ir.Node, bool) {
	budget := newPassBudget(p.passLimit)
	local := NewProcessedSet()
	fired := false

	for {
		if err := budget.Check(subtree); err != nil {
			p.passLimitExceeded(err)
			p.global.Record(NewSubTreeID(ctx, subtree, parent, childIndex))
			break
		}
		p.stats.Passes++

		// State may depend on rewrites elsewhere in the tree, so the hook runs
		// on every pass even if this subtree has not changed.
		ctx.PreProcessSubTree(subtree)
		id := NewSubTreeID(ctx, subtree, parent, childIndex)

		if p.global.Contains(id) {
			p.stats.Memoized++
			break
		}

		// Back at a state already seen at this position: a cycle of two or
		// more rewrites.
		if local.Contains(id) {
			p.global.Record(id)
			p.stats.CyclesBroken++
			p.logger.Debug("rewrite cycle broken",
				"op", subtree.Op().OpType(),
				"node", subtree.ID(),
				"pass", budget.Current(),
			)
			break
		}
		local.Record(id)

		below := false
		for i := 0; i < subtree.NumChildren(); i++ {
			child, changed := p.applyRulesToSubtree(ctx, rules, subtree.Child(i), subtree, i)
			subtree.SetChild(i, child)
			below = below || changed
		}
		if below {
			// SetChild keeps the cache when a child was rewritten in place.
			subtree.Invalidate()
			fired = true
		}

		next, changed := p.applyRulesToNode(ctx, rules, subtree, budget.Current())
		if !changed {
			p.global.Record(id)
			break
		}
		fired = true
		ctx.PostProcessSubTree(subtree)
		subtree = next
	}

	ctx.PostProcessSubTree(subtree)
	return subtree, fired
}

// applyRulesToNode tries the rules registered for n's OpType in order and
// applies the first one that changes n.
func (p *Processor) applyRulesToNode(ctx Context, rules *RuleTable, n *ir.Node, pass int) (*ir.Node, bool) {
	ctx.PreProcess(n)

	opBefore := n.Op().OpType()
	for _, r := range rules.RulesFor(opBefore) {
		if !r.Match(n) {
			continue
		}

		var before string
		if p.contractChecks {
			before = ir.Fingerprint(n)
		}

		result, changed := r.Apply(ctx, n)
		if !changed {
			if result != n {
				contractViolation(ErrCodeUnchangedButReplaced, r, opBefore,
					"rule returned a different node without reporting a change")
			}
			if p.contractChecks && ir.Fingerprint(n) != before {
				contractViolation(ErrCodeUnchangedButMutated, r, opBefore,
					"rule mutated the node without reporting a change")
			}
			continue
		}

		p.checkResult(r, opBefore, result, before)

		p.stats.Firings++
		if p.trace != nil {
			p.trace.record(r, n, opBefore, result, pass)
		}
		p.logger.Debug("rule fired",
			"rule", r.Name(),
			"op_before", opBefore,
			"op_after", result.Op().OpType(),
			"node", n.ID(),
			"pass", pass,
		)

		ctx.PostProcess(result, r)
		return result, true
	}
	return n, false
}

func (p *Processor) checkResult(r *Rule, opBefore ir.OpType, result *ir.Node, before string) {
	if result == nil {
		contractViolation(ErrCodeNilRewrite, r, opBefore, "rule reported a change but returned nil")
	}
	if !result.Op().OpType().ArityAccepts(result.NumChildren()) {
		contractViolation(ErrCodeArity, r, opBefore, "%s requires %d children, got %d",
			result.Op().OpType(), result.Op().Arity(), result.NumChildren())
	}
	if p.contractChecks && ir.Fingerprint(result) == before {
		contractViolation(ErrCodeChangedButIdentical, r, opBefore,
			"rule reported a change but the subtree is identical")
	}
}

func (p *Processor) passLimitExceeded(err error) {
	p.stats.Anomalies++
	if p.strict {
		panic(errors.WithAssertionFailure(err))
	}
	var pe *PassLimitError
	if errors.As(err, &pe) {
		p.logger.Warn("rewrite did not converge within pass limit",
			"op", pe.Op,
			"node", pe.NodeID,
			"passes", pe.Passes,
			"limit", pe.Limit,
		)
	}
}
