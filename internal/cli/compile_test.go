package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unknownOpSpec = `
package test

table: orders: {columns: [{name: "id", type: "Int32"}], key: ["id"]}
tree: q: {op: "Frobnicate"}
tree: r: {op: "Filter", children: [{op: "ScanTable", table: "missing"}, {op: "ConstantPredicate", value: true}]}
`

const floatSpec = `
package test

table: orders: {columns: [{name: "total", type: "Int64"}], key: ["total"]}
tree: q: {
	op: "Filter"
	children: [
		{op: "ScanTable", table: "orders"},
		{op: "GT", children: [
			{op: "VarRef", var: "orders.total"},
			{op: "Constant", type: "Int64", value: 1.5},
		]},
	]
}
`

func TestCompileValidSpecs(t *testing.T) {
	out, errOut, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), specsDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 3 tree(s), 3 rule(s), 1 column map(s) from 2 file(s)")
	assert.Contains(t, out, "  q1: 5 node(s)")
	assert.Contains(t, out, "  andToOr: And → Or (retag)")
	assert.Contains(t, out, "  dropConstantFilter: Filter → child 0 (hoist)")
	assert.Contains(t, out, "  order: Entity")

	// andToOr and orToAnd form a cycle, reported as a warning.
	assert.Contains(t, errOut, "⚠ Potential rewrite cycle: And -> Or -> And")
}

func TestCompileValidSpecsJSON(t *testing.T) {
	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), specsDir)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data
	assert.Equal(t, []string{"rules.cue", "shop.cue"}, data.Files)
	assert.Equal(t, []string{"orders"}, data.Tables)
	assert.Equal(t, []string{"Orders"}, data.EntitySets)
	assert.Equal(t, []string{"rename"}, data.VarMaps)
	assert.Len(t, data.SpecHash, 64)

	require.Len(t, data.Trees, 3)
	assert.Equal(t, "q1", data.Trees[0].Name)
	assert.Contains(t, data.Trees[0].Plan, "ScanTable(orders)[v2,v3]")
	assert.NotEmpty(t, data.Trees[0].Fingerprint)

	require.Len(t, data.Rules, 3)
	assert.Equal(t, RuleSummary{Name: "andToOr", Match: "And", Kind: "retag", Rewrite: "Or"}, data.Rules[0])
	assert.Equal(t, RuleSummary{Name: "dropConstantFilter", Match: "Filter", Pattern: true, Kind: "hoist", Rewrite: "child 0"}, data.Rules[2])

	require.Len(t, data.ColumnMaps, 1)
	assert.Equal(t, ColumnMapSummary{Name: "order", Kind: "Entity", Copyable: true}, data.ColumnMaps[0])

	require.Len(t, data.Cycles, 1)
	assert.Equal(t, []string{"andToOr", "orToAnd"}, data.Cycles[0].Rules)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "summary.json")

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), specsDir, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote summary to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Trees, 3)
}

func TestCompileSpecHashIgnoresLocation(t *testing.T) {
	src, err := os.ReadFile(filepath.Join(specsDir, "rules.cue"))
	require.NoError(t, err)
	shop, err := os.ReadFile(filepath.Join(specsDir, "shop.cue"))
	require.NoError(t, err)
	copyDir := writeSpecs(t, map[string]string{"rules.cue": string(src), "shop.cue": string(shop)})

	a, errs := LoadSpecs(specsDir, LoadModeFailFast)
	require.Empty(t, errs)
	b, errs := LoadSpecs(copyDir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, a.Program.SpecHash, b.Program.SpecHash)
}

func TestCompileNonExistentDirectory(t *testing.T) {
	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "specs directory not found")
}

func TestCompileEmptyDirectory(t *testing.T) {
	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
	assert.Contains(t, out, "no CUE files found")
}

func TestCompileNothingDeclared(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"empty.cue": "package test\n\ntable: orders: {columns: [{name: \"id\", type: \"Int32\"}]}\n"})
	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "no trees, rules or column maps found")
}

func TestCompileInvalidSpec(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"bad.cue": unknownOpSpec})

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "compilation failed with 2 error(s)")
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, `E104: tree.q.op: unknown op "Frobnicate"`)
	assert.Contains(t, out, "E105")
	assert.Contains(t, out, "bad.cue:")
}

func TestCompileInvalidSpecJSON(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"bad.cue": unknownOpSpec})

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Error  *CLIError  `json:"error"`
		Data   []CLIError `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E104", resp.Error.Code)
	assert.Len(t, resp.Data, 2)
}

func TestCompileFloatRejection(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"float.cue": floatSpec})

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "E110")
	assert.Contains(t, out, "float constants are forbidden")
}

func TestCompileVerboseOutput(t *testing.T) {
	_, errOut, err := execute(NewCompileCommand(&RootOptions{Format: "json", Verbose: true}), specsDir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Found 2 CUE file(s)")
	assert.Contains(t, errOut, "Compiled tree: q1")
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cue"), []byte("package test"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte("package test"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notcue.txt"), []byte("not a cue file"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "nested.cue"), []byte("package test"), 0o644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue"), filepath.Join(dir, "b.cue")}, files)
}
