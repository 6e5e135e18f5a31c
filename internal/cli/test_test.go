package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: greedy_thrashing
description: greedy goes bankrupt every epoch
seed: 3
policy: greedy
config:
  horizon: 100
  max_successive_renewals: 0
assertions:
  - type: regime
    regime: STRUCTURAL_THRASHING
  - type: successions
    min: 10
    max: 10
`

const failingScenario = `name: greedy_stable
description: wrongly expects greedy to stay solvent
seed: 3
policy: greedy
config:
  horizon: 100
  max_successive_renewals: 0
assertions:
  - type: no_bankruptcy
`

// scenarioDir writes the given name→content files into a temp directory.
func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommandPasses(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"greedy.yaml": passingScenario})

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ greedy_thrashing")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandFailure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": failingScenario,
	})

	cmd := NewTestCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "greedy_stable", result.Scenarios[1].Name)
	assert.NotEmpty(t, result.Scenarios[1].Errors)
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": failingScenario,
	})

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, dir, "--filter", "*thrash*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "greedy_stable")
}

func TestTestCommandGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"greedy.yaml": passingScenario})
	goldenDir := filepath.Join(t.TempDir(), "golden")

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, dir, "--golden", goldenDir)
	require.Error(t, err, "missing golden file fails")

	cmd = NewTestCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, dir, "--golden", goldenDir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")
	assert.FileExists(t, filepath.Join(goldenDir, "greedy_thrashing.golden"))

	cmd = NewTestCommand(&RootOptions{Format: "text"})
	_, err = execute(t, cmd, dir, "--golden", goldenDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "greedy_thrashing.golden"), []byte("{}"), 0o644))
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	out, err = execute(t, cmd, dir, "--golden", goldenDir)
	require.Error(t, err)
	assert.Contains(t, out, "golden mismatch")
}

func TestTestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{"missing directory", func(t *testing.T) []string {
			return []string{filepath.Join(t.TempDir(), "absent")}
		}},
		{"update without golden", func(t *testing.T) []string {
			return []string{t.TempDir(), "--update"}
		}},
		{"bad filter", func(t *testing.T) []string {
			return []string{t.TempDir(), "--filter", "["}
		}},
		{"invalid scenario", func(t *testing.T) []string {
			return []string{scenarioDir(t, map[string]string{"x.yaml": "name: x\n"})}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewTestCommand(&RootOptions{Format: "text"})
			_, err := execute(t, cmd, tt.args(t)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestTestCommandEmptyDirectory(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
