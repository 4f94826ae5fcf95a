package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plancore/internal/ir"
)

func retagSpec(name string, from, to ir.OpType) RuleSpec {
	return RuleSpec{Name: name, Match: from, Kind: RewriteRetag, Target: to}
}

// TestAnalyzeCycles_Empty tests that no rules produce no warnings.
func TestAnalyzeCycles_Empty(t *testing.T) {
	warnings := AnalyzeCycles(nil)
	assert.Empty(t, warnings)
	assert.NotNil(t, warnings)
}

// TestAnalyzeCycles_DAG tests that a chain of retags produces no warnings.
func TestAnalyzeCycles_DAG(t *testing.T) {
	rules := []RuleSpec{
		retagSpec("gtToGe", ir.OpGT, ir.OpGE),
		retagSpec("geToEq", ir.OpGE, ir.OpEQ),
		retagSpec("ltToEq", ir.OpLT, ir.OpEQ),
	}
	assert.Empty(t, AnalyzeCycles(rules))
}

// TestAnalyzeCycles_HoistsIgnored tests that hoist rules add no edges.
func TestAnalyzeCycles_HoistsIgnored(t *testing.T) {
	rules := []RuleSpec{
		{Name: "dropFilter", Match: ir.OpFilter, Kind: RewriteHoist, Child: 0},
		{Name: "dropFilterAgain", Match: ir.OpFilter, Kind: RewriteHoist, Child: 0},
	}
	assert.Empty(t, AnalyzeCycles(rules))
}

// TestAnalyzeCycles_TwoNodeCycle tests And -> Or -> And.
func TestAnalyzeCycles_TwoNodeCycle(t *testing.T) {
	rules := []RuleSpec{
		retagSpec("andToOr", ir.OpAnd, ir.OpOr),
		retagSpec("orToAnd", ir.OpOr, ir.OpAnd),
	}
	warnings := AnalyzeCycles(rules)
	require.Len(t, warnings, 1)

	w := warnings[0]
	assert.Equal(t, []string{"And", "Or", "And"}, w.Path)
	assert.Equal(t, []string{"andToOr", "orToAnd"}, w.Rules)
	assert.Equal(t, "warning", w.Level)
	assert.Equal(t, "Potential rewrite cycle: And -> Or -> And (rules: andToOr, orToAnd)", w.Message)
}

// TestAnalyzeCycles_ThreeNodeCycle tests a longer cycle with a tail.
func TestAnalyzeCycles_ThreeNodeCycle(t *testing.T) {
	rules := []RuleSpec{
		retagSpec("ltToGt", ir.OpLT, ir.OpGT),
		retagSpec("gtToGe", ir.OpGT, ir.OpGE),
		retagSpec("geToLe", ir.OpGE, ir.OpLE),
		retagSpec("leToGt", ir.OpLE, ir.OpGT),
	}
	warnings := AnalyzeCycles(rules)
	require.Len(t, warnings, 1)
	// GT < GE < LE in OpType order; LT is outside the cycle.
	assert.Equal(t, []string{"GT", "GE", "LE", "GT"}, warnings[0].Path)
	assert.Equal(t, []string{"gtToGe", "geToLe", "leToGt"}, warnings[0].Rules)
}

// TestAnalyzeCycles_SelfLoop tests a rule whose target is its match.
func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	warnings := AnalyzeCycles([]RuleSpec{retagSpec("spin", ir.OpAnd, ir.OpAnd)})
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"And", "And"}, warnings[0].Path)
	assert.Equal(t, "Self-retagging rule: And -> And (rules: spin)", warnings[0].Message)
}

// TestAnalyzeCycles_Independent tests two separate cycles, reported in
// OpType order.
func TestAnalyzeCycles_Independent(t *testing.T) {
	rules := []RuleSpec{
		retagSpec("innerToLeft", ir.OpInnerJoin, ir.OpLeftOuterJoin),
		retagSpec("leftToInner", ir.OpLeftOuterJoin, ir.OpInnerJoin),
		retagSpec("andToOr", ir.OpAnd, ir.OpOr),
		retagSpec("orToAnd", ir.OpOr, ir.OpAnd),
	}
	warnings := AnalyzeCycles(rules)
	require.Len(t, warnings, 2)
	assert.Equal(t, "And", warnings[0].Path[0])
	assert.Equal(t, "InnerJoin", warnings[1].Path[0])
}

// TestAnalyzeCycles_FromCompiledRules tests analysis of rules compiled from CUE.
func TestAnalyzeCycles_FromCompiledRules(t *testing.T) {
	p := mustCompile(t, `
rule: andToOr: {match: {op: "And"}, rewrite: {op: "Or"}}
rule: orToAnd: {match: {op: "Or"}, rewrite: {op: "And"}}
`)
	warnings := AnalyzeCycles(p.RuleSpecs)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"andToOr", "orToAnd"}, warnings[0].Rules)
}
