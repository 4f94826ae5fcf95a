package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "C.YAML"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.yaml"), 0o755))

	paths, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "C.YAML"),
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
	}, paths)
}

func TestFindScenarios_MissingDir(t *testing.T) {
	_, err := FindScenarios(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "read scenario directory")
}

func TestRunSuite_Testdata(t *testing.T) {
	result, err := RunSuite("testdata/scenarios")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 4, result.Passed)
	assert.Zero(t, result.Failed)
	assert.Empty(t, result.Failures)
}

func TestRunSuite_Failures(t *testing.T) {
	dir := t.TempDir()
	specs, err := filepath.Abs("testdata/scenarios/specs")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_broken.yaml"), []byte("name: [\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_failing.yaml"), []byte(`
name: failing
description: "andToOr never fires on q2"
specs:
  - `+filepath.Join(specs, "shop.cue")+`
  - `+filepath.Join(specs, "rules.cue")+`
tree: q2
assertions:
  - type: fired
    rule: andToOr
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c_unknown_tree.yaml"), []byte(`
name: unknown_tree
description: "q9 does not exist"
specs:
  - `+filepath.Join(specs, "shop.cue")+`
tree: q9
assertions:
  - type: deterministic
`), 0o644))

	result, err := RunSuite(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Zero(t, result.Passed)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Failures, 3)
	assert.Contains(t, result.Failures[0].Error, "failed to load scenario")
	assert.Empty(t, result.Failures[0].Scenario)
	assert.Equal(t, "failing", result.Failures[1].Scenario)
	assert.Contains(t, result.Failures[1].Error, "scenario assertions failed")
	assert.Contains(t, result.Failures[2].Error, "scenario execution failed")
}
