package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/watchfilter/internal/testutil"
)

func expect(vs ...any) *[]any {
	return &vs
}

func TestScenariosMatchGolden(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			result := RunWithGolden(t, file)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunFailedExpectations(t *testing.T) {
	scenario := &Scenario{
		Name: "failing",
		Steps: []Step{
			{Expr: "1, 2", Expect: expect(1)},
			{Expr: `"a"`, Expect: expect("b")},
			{Expr: `error("boom")`},
			{Expr: "1", Error: "never"},
			{Expr: `error("real")`, Error: "other"},
		},
	}

	result, err := Run(context.Background(), scenario)

	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"step 1 (1, 2): expected 1 outputs, got 2: [1, 2]",
		`step 2 ("a"): output 1: expected "b", got "a"`,
		`step 3 (error("boom")): unexpected error: error: boom`,
		`step 4 (1): expected error containing "never", got none`,
		`step 5 (error("real")): expected error containing "other", got "error: real"`,
	}, result.Errors)
	assert.Len(t, result.Trace, 5)
}

func TestRunCompileErrorIsTraced(t *testing.T) {
	scenario := &Scenario{
		Name:  "bad_syntax",
		Steps: []Step{{Expr: ".a |", Error: "parse"}},
	}

	result, err := Run(context.Background(), scenario)

	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Trace[0].Error, "parse")
}

func TestRunDirVariableAndPlaceholder(t *testing.T) {
	scenario := &Scenario{
		Name:  "dir",
		Files: map[string]string{"x/y.txt": "data"},
		Steps: []Step{
			{Expr: `$dir + "/x/y.txt"`, Expect: expect("$DIR/x/y.txt")},
			{Expr: `file_read(10)`, Input: "$DIR/x/y.txt", Expect: expect("data")},
		},
	}

	result, err := Run(context.Background(), scenario)

	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{`"$DIR/x/y.txt"`}, result.Trace[0].Rendered)
	assert.True(t, strings.HasPrefix(result.Trace[0].Outputs[0].(string), "/"))
}

func TestRunStoreIsPerScenario(t *testing.T) {
	first := &Scenario{Name: "a", Steps: []Step{{Expr: `kv_store("k")`, Input: 1}}}
	second := &Scenario{Name: "b", Steps: []Step{{Expr: `kv_fetch("k")`, Expect: expect(nil)}}}

	_, err := Run(context.Background(), first)
	require.NoError(t, err)
	result, err := Run(context.Background(), second)

	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithLogger(t *testing.T) {
	logger, logs := testutil.NewLogger()
	scenario := &Scenario{Name: "logs", Steps: []Step{{Expr: `log("warn")`, Input: "hi"}}}

	_, err := RunWithLogger(context.Background(), scenario, logger)

	require.NoError(t, err)
	assert.Contains(t, logs.String(), `level=WARN msg=filter value="\"hi\""`)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &Scenario{Name: "c", Steps: []Step{{Expr: "."}}})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestGoldenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := testutil.WriteString(t, dir, "s.yaml", "name: s\nsteps:\n  - expr: '1'\n")
	scenario, err := LoadScenario(file)
	require.NoError(t, err)
	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	_, err = CompareGolden(file, scenario, result)
	require.Error(t, err, "no golden file yet")

	require.NoError(t, UpdateGolden(file, scenario, result))
	assert.Equal(t, filepath.Join(dir, "golden", "s.golden"), GoldenPath(file))

	match, err := CompareGolden(file, scenario, result)
	require.NoError(t, err)
	assert.True(t, match)

	result.Trace[0].Rendered = []string{"2"}
	match, err = CompareGolden(file, scenario, result)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestMarshalSnapshot(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{
		Seq:      1,
		Expr:     `.a < "<b>"`,
		Rendered: []string{`{"k":[1]}`},
		Stdout:   []string{"x"},
	})

	data, err := MarshalSnapshot("snap", result)

	require.NoError(t, err)
	assert.Equal(t, `{
  "scenario": "snap",
  "steps": [
    {
      "seq": 1,
      "expr": ".a < \"<b>\"",
      "outputs": [
        {
          "k": [
            1
          ]
        }
      ],
      "stdout": [
        "x"
      ]
    }
  ]
}
`, string(data))
}
