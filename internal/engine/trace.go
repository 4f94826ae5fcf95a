package engine

import "github.com/roach88/plancore/internal/ir"

// Firing records one rule application that changed the tree.
type Firing struct {
	Seq      int64     `json:"seq"`
	Rule     string    `json:"rule"`
	NodeID   uint64    `json:"node_id"`
	OpBefore ir.OpType `json:"-"`
	OpAfter  ir.OpType `json:"-"`
	Pass     int       `json:"pass"`
}

// Trace collects the firings of a rewrite run, stamped by a logical clock.
type Trace struct {
	RunID   string
	Firings []Firing

	clock *Clock
}

// NewTrace creates an empty trace for runID.
func NewTrace(runID string) *Trace {
	return &Trace{RunID: runID, clock: NewClock()}
}

func (t *Trace) record(r *Rule, before *ir.Node, opBefore ir.OpType, after *ir.Node, pass int) {
	t.Firings = append(t.Firings, Firing{
		Seq:      t.clock.Next(),
		Rule:     r.Name(),
		NodeID:   before.ID(),
		OpBefore: opBefore,
		OpAfter:  after.Op().OpType(),
		Pass:     pass,
	})
}

// RuleCounts returns how many times each rule fired.
func (t *Trace) RuleCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range t.Firings {
		counts[f.Rule]++
	}
	return counts
}
