package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/ir"
)

// DefaultPassLimit is the default number of passes a single subtree may take
// before the processor reports an anomaly. Rule sets are expected to converge
// well within it; the identity cycle check, not this limit, is what makes
// oscillating rules terminate.
const DefaultPassLimit = 12

// passBudget counts the passes of one subtree call and enforces the limit.
//
// CRITICAL DISTINCTION from cycle detection:
//   - Cycle detection: catches rewrites that return to an earlier state (X -> Y -> X)
//   - Pass limit: catches chains that never repeat (X -> Y -> Z -> ...)
type passBudget struct {
	limit   int // 0 disables the limit
	current int
}

func newPassBudget(limit int) *passBudget {
	return &passBudget{limit: limit}
}

// Check increments the pass counter and validates it against the limit.
func (b *passBudget) Check(root *ir.Node) error {
	b.current++
	if b.limit > 0 && b.current > b.limit {
		return &PassLimitError{Op: root.Op().OpType(), NodeID: root.ID(), Passes: b.current, Limit: b.limit}
	}
	return nil
}

// Current returns the number of passes so far.
func (b *passBudget) Current() int {
	return b.current
}

// PassLimitError reports a subtree that did not converge within the pass
// limit.
type PassLimitError struct {
	Op     ir.OpType // OpType of the subtree root when the limit was hit
	NodeID uint64    // Identity of the subtree root
	Passes int       // Passes attempted
	Limit  int       // Configured limit
}

// Error implements the error interface.
func (e *PassLimitError) Error() string {
	return fmt.Sprintf("subtree %s (node %d) did not converge: %d passes > %d limit",
		e.Op, e.NodeID, e.Passes, e.Limit)
}

// IsPassLimitError returns true if the error is a PassLimitError.
func IsPassLimitError(err error) bool {
	var pe *PassLimitError
	return errors.As(err, &pe)
}
