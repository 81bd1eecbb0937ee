package reporting

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-describe/runner"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

// createSampleResult builds a run with a nested group, a failure, a pending
// example and a failed teardown hook.
func createSampleResult() *runner.RunnerResult {
	auth := &runner.GroupResult{
		Description:     "auth",
		FullDescription: "api auth",
		Status:          types.StatusPassed,
		Duration:        20 * time.Millisecond,
		Stats:           types.ResultStats{Total: 2, Passed: 1, Pending: 1},
		Examples: []*runner.ExampleResult{
			{Description: "logs in", FullDescription: "api auth logs in", Status: types.StatusPassed, Duration: 10 * time.Millisecond},
			{Description: "logs out", FullDescription: "api auth logs out", Status: types.StatusPending, PendingMessage: "not implemented"},
		},
	}
	api := &runner.GroupResult{
		Description:     "api",
		FullDescription: "api",
		Location:        "suites/api.yaml:1",
		Status:          types.StatusFailed,
		Duration:        1500 * time.Millisecond,
		Stats:           types.ResultStats{Total: 4, Passed: 2, Failed: 1, Pending: 1},
		Examples: []*runner.ExampleResult{
			{Description: "responds", FullDescription: "api responds", Status: types.StatusPassed, Duration: 5 * time.Millisecond},
			{
				Description:     "rejects",
				FullDescription: "api rejects",
				Location:        "suites/api.yaml:7",
				Status:          types.StatusFailed,
				Error:           errors.New("\x1b[31mbad status\x1b[0m\nexpected 400"),
				Duration:        7 * time.Millisecond,
			},
		},
		Groups: []*runner.GroupResult{auth},
	}
	cli := &runner.GroupResult{
		Description:     "cli",
		FullDescription: "cli",
		Status:          types.StatusFailed,
		HookError:       errors.New("after all hook failed: cleanup"),
		Stats:           types.ResultStats{Total: 1, Passed: 1},
		Examples: []*runner.ExampleResult{
			{Description: "prints help", FullDescription: "cli prints help", Status: types.StatusPassed},
		},
	}
	return &runner.RunnerResult{
		RunID:    "run-123",
		Status:   types.StatusFailed,
		Duration: 2 * time.Second,
		Stats:    types.ResultStats{Total: 5, Passed: 3, Failed: 1, Pending: 1},
		Groups:   []*runner.GroupResult{api, cli},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name         string
		showExamples bool
		contains     []string
		excludes     []string
	}{
		{
			name:         "with examples",
			showExamples: true,
			contains: []string{
				"api",
				"└─ auth",
				"├─ responds",
				"└─ rejects",
				"bad status expected 400",
				"* pending",
				"after all hook failed: cleanup",
				"TOTAL",
				"✗ fail",
			},
		},
		{
			name:         "groups only",
			showExamples: false,
			contains:     []string{"api", "auth", "cli", "TOTAL"},
			excludes:     []string{"responds", "logs in"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewTableFormatter("Describe Results", tt.showExamples).Format(createSampleResult())
			require.NoError(t, err)
			plain := stripansi.Strip(out)
			assert.Contains(t, strings.ToLower(plain), "describe results (2s)")
			for _, s := range tt.contains {
				assert.Contains(t, plain, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, plain, s)
			}
		})
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	f := NewTableFormatter("Describe Results", true)

	_, err := f.Format(nil)
	require.Error(t, err)

	var buf bytes.Buffer
	err = f.Print(&buf, &runner.RunnerResult{RunID: "empty", Status: types.StatusNotRun})
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(stripansi.Strip(buf.String())), "- not run")
}

func TestTextSummarySink(t *testing.T) {
	dir := t.TempDir()
	sink := NewTextSummarySink(dir, true)

	path, err := sink.Complete(createSampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "testrun-run-123", SummaryFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "RUN run-123\n"))
	assert.Contains(t, content, "Examples: 5 total, 3 passed, 1 failed, 1 pending (75.0% pass rate)")
	assert.Contains(t, content, "✗ api (1.5s)\n")
	assert.Contains(t, content, "  ✓ responds (5ms)\n")
	assert.Contains(t, content, "  ✓ auth (20ms)\n")
	assert.Contains(t, content, "    * logs out (0ms)\n")
	assert.Contains(t, content, "pending: not implemented")
	assert.Contains(t, content, "error: bad status expected 400")
	assert.Contains(t, content, "hook error: after all hook failed: cleanup")
	assert.Contains(t, content, "1) api rejects\n     bad status\n     expected 400\n     # suites/api.yaml:7\n")
	assert.Contains(t, content, "hook) cli\n")
	assert.NotContains(t, content, "\x1b[")
}

func TestTextSummarySink_NoDetails(t *testing.T) {
	sink := NewTextSummarySink(t.TempDir(), false)
	content := sink.Format(createSampleResult())
	assert.NotContains(t, content, "pending: not implemented")
	assert.NotContains(t, content, "error: bad status")
	assert.Contains(t, content, "Failures:")
}

func TestTextSummarySink_AllPassed(t *testing.T) {
	sink := NewTextSummarySink(t.TempDir(), true)
	content := sink.Format(&runner.RunnerResult{
		RunID:  "ok",
		Status: types.StatusPassed,
		Stats:  types.ResultStats{Total: 1, Passed: 1},
		Groups: []*runner.GroupResult{{
			Description: "g",
			Status:      types.StatusPassed,
			Examples:    []*runner.ExampleResult{{Description: "x", Status: types.StatusPassed}},
		}},
	})
	assert.NotContains(t, content, "Failures:")
	assert.Contains(t, content, "(100.0% pass rate)")
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		limit int
		want  string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "collapses whitespace", err: errors.New("a\n  b\tc"), want: "a b c"},
		{name: "strips ansi", err: errors.New("\x1b[1mbold\x1b[0m"), want: "bold"},
		{name: "truncates", err: errors.New("abcdefghij"), limit: 8, want: "abcde..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorText(tt.err, tt.limit))
		})
	}
}
