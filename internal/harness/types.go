package harness

import (
	"github.com/roach88/plancore/internal/engine"
)

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Before and After are the tree rendered with ir.Format before and after
	// the rewrite.
	Before string `json:"before"`
	After  string `json:"after"`

	Firings []engine.Firing `json:"firings"`
	Stats   engine.Stats    `json:"stats"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for runID.
func NewResult(runID string) *Result {
	return &Result{
		Pass:    true,
		RunID:   runID,
		Firings: []engine.Firing{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// RuleCounts returns how many times each rule fired.
func (r *Result) RuleCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Firings {
		counts[f.Rule]++
	}
	return counts
}
