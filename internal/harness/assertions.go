package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Firings  []engine.Firing // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Firings) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, f := range e.Firings {
			fmt.Fprintf(&buf, "  [%d] %s %s->%s pass %d\n", f.Seq, f.Rule, f.OpBefore, f.OpAfter, f.Pass)
		}
	}
	return buf.String()
}

// assertFired checks that the rule fired at least once.
func assertFired(result *Result, assertion Assertion) error {
	if result.RuleCounts()[assertion.Rule] > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFired,
		Expected: fmt.Sprintf("rule %s to fire", assertion.Rule),
		Actual:   "not found in trace",
		Firings:  result.Firings,
	}
}

// assertNotFired checks that the rule never fired.
func assertNotFired(result *Result, assertion Assertion) error {
	n := result.RuleCounts()[assertion.Rule]
	if n == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNotFired,
		Expected: fmt.Sprintf("rule %s not to fire", assertion.Rule),
		Actual:   fmt.Sprintf("fired %d time(s)", n),
		Firings:  result.Firings,
	}
}

// assertFireOrder checks that the rules first fired in the given order.
// Firings of other rules may come in between.
func assertFireOrder(result *Result, assertion Assertion) error {
	first := make(map[string]int64)
	for _, f := range result.Firings {
		if _, ok := first[f.Rule]; !ok {
			first[f.Rule] = f.Seq
		}
	}

	for _, rule := range assertion.Rules {
		if _, ok := first[rule]; !ok {
			return &AssertionError{
				Type:     AssertFireOrder,
				Expected: fmt.Sprintf("all rules fired: %v", assertion.Rules),
				Actual:   fmt.Sprintf("rule %s never fired", rule),
				Firings:  result.Firings,
			}
		}
	}

	for i := 1; i < len(assertion.Rules); i++ {
		prev, curr := assertion.Rules[i-1], assertion.Rules[i]
		if first[prev] >= first[curr] {
			return &AssertionError{
				Type:     AssertFireOrder,
				Expected: fmt.Sprintf("rules in order: %v", assertion.Rules),
				Actual: fmt.Sprintf("%s (seq %d) should fire before %s (seq %d)",
					prev, first[prev], curr, first[curr]),
				Firings: result.Firings,
			}
		}
	}
	return nil
}

// assertFireCount checks that the rule fired exactly count times.
func assertFireCount(result *Result, assertion Assertion) error {
	n := result.RuleCounts()[assertion.Rule]
	if n == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFireCount,
		Expected: fmt.Sprintf("%d firings of %s", assertion.Count, assertion.Rule),
		Actual:   fmt.Sprintf("%d firings", n),
		Firings:  result.Firings,
	}
}

// assertResult compares the formatted result tree. Trailing newlines are
// ignored so YAML block scalars compare either way.
func assertResult(result *Result, assertion Assertion) error {
	want := strings.TrimRight(assertion.Expect, "\n")
	got := strings.TrimRight(result.After, "\n")
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     AssertResult,
		Expected: "\n" + indent(want),
		Actual:   "\n" + indent(got),
		Firings:  result.Firings,
	}
}

// assertStats compares the named processor counters. Names are checked in
// sorted order so the first mismatch reported is stable.
func assertStats(result *Result, assertion Assertion) error {
	actual := map[string]int{
		"passes":        result.Stats.Passes,
		"firings":       result.Stats.Firings,
		"cycles_broken": result.Stats.CyclesBroken,
		"memoized":      result.Stats.Memoized,
		"anomalies":     result.Stats.Anomalies,
	}
	names := make([]string, 0, len(assertion.Stats))
	for name := range assertion.Stats {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		got, ok := actual[name]
		if !ok {
			return errors.Newf("stats assertion: unknown stat %q", name)
		}
		if want := assertion.Stats[name]; got != want {
			return &AssertionError{
				Type:     AssertStats,
				Expected: fmt.Sprintf("%s = %d", name, want),
				Actual:   fmt.Sprintf("%s = %d", name, got),
				Firings:  result.Firings,
			}
		}
	}
	return nil
}

// assertDeterministic reruns the scenario and compares the fresh trace with
// the stored run.
func assertDeterministic(actx *AssertionContext) error {
	fresh, err := actx.Replay()
	if err != nil {
		return errors.Wrap(err, "deterministic assertion: replay failed")
	}
	divs, err := actx.Store.VerifyReplay(actx.Ctx, actx.RunID, fresh)
	if err != nil {
		return errors.Wrap(err, "deterministic assertion")
	}
	if len(divs) == 0 {
		return nil
	}
	lines := make([]string, len(divs))
	for i, d := range divs {
		lines[i] = d.String()
	}
	return &AssertionError{
		Type:     AssertDeterministic,
		Expected: "replay to reproduce the stored firings",
		Actual:   fmt.Sprintf("%d divergence(s):\n%s", len(divs), indent(strings.Join(lines, "\n"))),
	}
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

// AssertionContext provides what the deterministic assertion needs.
type AssertionContext struct {
	Ctx    context.Context
	Store  *store.Store
	RunID  string
	Replay func() (*engine.Trace, error)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFired:
			err = assertFired(result, assertion)
		case AssertNotFired:
			err = assertNotFired(result, assertion)
		case AssertFireOrder:
			err = assertFireOrder(result, assertion)
		case AssertFireCount:
			err = assertFireCount(result, assertion)
		case AssertResult:
			err = assertResult(result, assertion)
		case AssertStats:
			err = assertStats(result, assertion)
		case AssertDeterministic:
			if actx == nil || actx.Store == nil || actx.Replay == nil {
				err = errors.Newf("assertion[%d]: deterministic requires a store and a replay", i)
			} else {
				err = assertDeterministic(actx)
			}
		default:
			err = errors.Newf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
