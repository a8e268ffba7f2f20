package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is the directory, relative to the scenarios, holding golden files.
const GoldenDir = "golden"

// Snapshot is the golden form of a scenario trace.
type Snapshot struct {
	Scenario string      `json:"scenario"`
	Steps    []StepTrace `json:"steps"`
}

// StepTrace is the golden form of one TraceEvent.
type StepTrace struct {
	Seq     int               `json:"seq"`
	Expr    string            `json:"expr"`
	Outputs []json.RawMessage `json:"outputs"`
	Error   string            `json:"error,omitempty"`
	Stdout  []string          `json:"stdout,omitempty"`
	Stderr  []string          `json:"stderr,omitempty"`
}

// MarshalSnapshot renders the trace of result as indented JSON.
// HTML characters are not escaped, so expressions read as written.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snap := Snapshot{Scenario: name, Steps: make([]StepTrace, len(result.Trace))}
	for i, ev := range result.Trace {
		outputs := make([]json.RawMessage, len(ev.Rendered))
		for j, r := range ev.Rendered {
			outputs[j] = json.RawMessage(r)
		}
		snap.Steps[i] = StepTrace{
			Seq:     ev.Seq,
			Expr:    ev.Expr,
			Outputs: outputs,
			Error:   ev.Error,
			Stdout:  ev.Stdout,
			Stderr:  ev.Stderr,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GoldenPath returns the golden file of a scenario file.
func GoldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), GoldenDir, name+".golden")
}

// CompareGolden reports whether the golden file of scenarioFile holds
// exactly the snapshot of result.
func CompareGolden(scenarioFile string, scenario *Scenario, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(scenarioFile))
	if err != nil {
		return false, err
	}
	got, err := MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// UpdateGolden writes the snapshot of result as the golden file of
// scenarioFile.
func UpdateGolden(scenarioFile string, scenario *Scenario, result *Result) error {
	data, err := MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return err
	}
	path := GoldenPath(scenarioFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// RunWithGolden executes the scenario in scenarioFile and compares its
// trace with the golden file next to it.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenarioFile string) *Result {
	t.Helper()

	scenario, err := LoadScenario(scenarioFile)
	if err != nil {
		t.Fatalf("load %s: %v", scenarioFile, err)
	}
	result, err := Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run %s: %v", scenario.Name, err)
	}

	AssertGolden(t, filepath.Join(filepath.Dir(scenarioFile), GoldenDir),
		strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile)), scenario.Name, result)
	return result
}

// AssertGolden compares the snapshot of result with dir/fixture.golden.
func AssertGolden(t *testing.T, dir, fixture, scenarioName string, result *Result) {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, fixture, data)
}
