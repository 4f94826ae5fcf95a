package harness

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as the text stored in golden files. Node ids are
// left out so the snapshot of a deterministic scenario never changes.
func Snapshot(scenarioName string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)
	fmt.Fprintf(&buf, "run: %s\n", result.RunID)

	buf.WriteString("\nbefore:\n")
	writeIndented(&buf, result.Before)
	buf.WriteString("\nafter:\n")
	writeIndented(&buf, result.After)

	buf.WriteString("\nfirings:\n")
	if len(result.Firings) == 0 {
		buf.WriteString("  (none)\n")
	}
	for _, f := range result.Firings {
		fmt.Fprintf(&buf, "  %d %s %s->%s pass %d\n", f.Seq, f.Rule, f.OpBefore, f.OpAfter, f.Pass)
	}

	s := result.Stats
	buf.WriteString("\nstats:\n")
	fmt.Fprintf(&buf, "  passes: %d\n", s.Passes)
	fmt.Fprintf(&buf, "  firings: %d\n", s.Firings)
	fmt.Fprintf(&buf, "  cycles_broken: %d\n", s.CyclesBroken)
	fmt.Fprintf(&buf, "  memoized: %d\n", s.Memoized)
	fmt.Fprintf(&buf, "  anomalies: %d\n", s.Anomalies)
	return buf.Bytes()
}

func writeIndented(buf *bytes.Buffer, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		buf.WriteString("  ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not run. A snapshot mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
