package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/ir"
)

func TestSnapshot(t *testing.T) {
	r := NewResult("run-1")
	r.Before = "Filter\n  ScanTable(orders)[v1]\n  ConstantPredicate(true)\n"
	r.After = "ScanTable(orders)[v1]\n"
	r.Firings = []engine.Firing{
		{Seq: 1, Rule: "drop", NodeID: 42, OpBefore: ir.OpFilter, OpAfter: ir.OpScanTable, Pass: 1},
	}
	r.Stats = engine.Stats{Passes: 4, Firings: 1, Memoized: 1}

	want := `scenario: drop
run: run-1

before:
  Filter
    ScanTable(orders)[v1]
    ConstantPredicate(true)

after:
  ScanTable(orders)[v1]

firings:
  1 drop Filter->ScanTable pass 1

stats:
  passes: 4
  firings: 1
  cycles_broken: 0
  memoized: 1
  anomalies: 0
`
	assert.Equal(t, want, string(Snapshot("drop", r)))
}

func TestSnapshot_NoFirings(t *testing.T) {
	r := NewResult("run-1")
	r.Before = "ScanTable(orders)[v1]\n"
	r.After = r.Before

	assert.Contains(t, string(Snapshot("noop", r)), "firings:\n  (none)\n")
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/and_to_or.yaml")
	if err != nil {
		t.Fatal(err)
	}
	result, err := Run(scenario)
	if err != nil {
		t.Fatal(err)
	}
	AssertGolden(t, scenario.Name, result)
}
