package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-describe/runner"
)

// SummaryFileName is the name of the text summary written for every run
const SummaryFileName = "summary.log"

// TextSummarySink writes a plain-text tree of a run's results to
// <baseDir>/testrun-<runID>/summary.log
type TextSummarySink struct {
	baseDir        string
	includeDetails bool
}

// NewTextSummarySink creates a new text summary sink
func NewTextSummarySink(baseDir string, includeDetails bool) *TextSummarySink {
	return &TextSummarySink{
		baseDir:        baseDir,
		includeDetails: includeDetails,
	}
}

// OutputDir returns the directory a run's files are written to
func (s *TextSummarySink) OutputDir(runID string) string {
	return filepath.Join(s.baseDir, "testrun-"+runID)
}

// Complete writes the summary for result and returns the file path
func (s *TextSummarySink) Complete(result *runner.RunnerResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no result to summarize")
	}

	outputDir := s.OutputDir(result.RunID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	summaryFile := filepath.Join(outputDir, SummaryFileName)
	if err := os.WriteFile(summaryFile, []byte(s.Format(result)), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return summaryFile, nil
}

// Format renders the text summary
func (s *TextSummarySink) Format(result *runner.RunnerResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "RUN %s\n", result.RunID)
	fmt.Fprintf(&b, "Status:   %s\n", result.Status)
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(result.Duration))
	fmt.Fprintf(&b, "Examples: %d total, %d passed, %d failed, %d pending (%.1f%% pass rate)\n\n",
		result.Stats.Total, result.Stats.Passed, result.Stats.Failed, result.Stats.Pending, result.Stats.PassRate())

	for _, g := range result.Groups {
		s.writeGroup(&b, g, 0)
	}

	failures := result.Failures()
	hookErrors := result.HookErrors()
	if len(failures) == 0 && len(hookErrors) == 0 {
		return b.String()
	}

	b.WriteString("\nFailures:\n")
	for i, ex := range failures {
		fmt.Fprintf(&b, "\n  %d) %s\n", i+1, ex.FullDescription)
		writeIndented(&b, "     ", errorMessage(ex.Error))
		if ex.Location != "" {
			fmt.Fprintf(&b, "     # %s\n", ex.Location)
		}
	}
	for _, g := range hookErrors {
		fmt.Fprintf(&b, "\n  hook) %s\n", g.FullDescription)
		writeIndented(&b, "     ", errorMessage(g.HookError))
		if g.Location != "" {
			fmt.Fprintf(&b, "     # %s\n", g.Location)
		}
	}
	return b.String()
}

func (s *TextSummarySink) writeGroup(b *strings.Builder, g *runner.GroupResult, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s %s (%s)\n", indent, statusGlyph(g.Status), g.Description, formatDuration(g.Duration))
	if g.HookError != nil {
		fmt.Fprintf(b, "%s    hook error: %s\n", indent, errorText(g.HookError, 0))
	}

	for _, ex := range g.Examples {
		fmt.Fprintf(b, "%s  %s %s (%s)\n", indent, statusGlyph(ex.Status), ex.Description, formatDuration(ex.Duration))
		if !s.includeDetails {
			continue
		}
		if ex.Error != nil {
			fmt.Fprintf(b, "%s      error: %s\n", indent, errorText(ex.Error, 0))
		}
		if ex.PendingMessage != "" {
			fmt.Fprintf(b, "%s      pending: %s\n", indent, ex.PendingMessage)
		}
	}

	for _, child := range g.Groups {
		s.writeGroup(b, child, depth+1)
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimRight(stripansi.Strip(err.Error()), "\n")
}

func writeIndented(b *strings.Builder, indent, text string) {
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteString("\n")
	}
}
