package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/watchfilter/internal/harness"
	"github.com/roach88/watchfilter/internal/testutil"
)

const passingScenario = `name: sizes
description: file_size of a scenario file
files:
  a.txt: "abc"
steps:
  - expr: '$dir + "/a.txt" | file_size'
    expect: [3]
`

const failingScenario = `name: wrong
description: expects the wrong size
files:
  a.txt: "abc"
steps:
  - expr: '$dir + "/a.txt" | file_size'
    expect: [4]
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(t, "", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	stdout, _, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	stdout, _, err := execute(t, "", "--format", "json", "test", t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassAndFail(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteString(t, dir, "sizes.yaml", passingScenario)
	testutil.WriteString(t, dir, "wrong.yaml", failingScenario)

	stdout, _, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✓ sizes")
	assert.Contains(t, stdout, "✗ wrong")
	assert.Contains(t, stdout, "output 1: expected 4, got 3")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteString(t, dir, "sizes.yaml", passingScenario)
	testutil.WriteString(t, dir, "wrong.yaml", failingScenario)

	stdout, _, err := execute(t, "", "test", dir, "--filter", "size*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommandJSONFailure(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteString(t, dir, "wrong.yaml", failingScenario)

	stdout, _, err := execute(t, "", "--format", "json", "test", dir)
	require.Error(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &response))
	assert.Equal(t, "error", response.Status)
	assert.Equal(t, "E_TEST_FAILED", response.Error.Code)
	assert.Equal(t, 1, response.Data.Failed)
	require.Len(t, response.Data.Scenarios, 1)
	assert.False(t, response.Data.Scenarios[0].Pass)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteString(t, dir, "broken.yaml", "name: broken\nsteps: [{expr: '.', bogus: 1}]\n")

	stdout, _, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	scenarioFile := testutil.WriteString(t, dir, "sizes.yaml", passingScenario)

	stdout, _, err := execute(t, "", "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ sizes (golden updated)")
	require.FileExists(t, harness.GoldenPath(scenarioFile))

	stdout, _, err = execute(t, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ sizes\n")

	require.NoError(t, os.WriteFile(harness.GoldenPath(scenarioFile), []byte("{}\n"), 0o644))
	stdout, _, err = execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "trace does not match golden file")
}

func TestTestCommandRepositoryScenarios(t *testing.T) {
	dir := filepath.Join("..", "harness", "testdata", "scenarios")

	stdout, _, err := execute(t, "", "test", dir)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ All scenarios passed")
}
