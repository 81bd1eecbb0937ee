package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

// maxErrorLength bounds error text in the table, full errors go to the summary file
const maxErrorLength = 120

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// getResultString returns a status glyph and name
func getResultString(status types.ExampleStatus) string {
	switch status {
	case types.StatusPassed:
		return "✓ pass"
	case types.StatusPending:
		return "* pending"
	case types.StatusNotRun:
		return "- not run"
	default:
		return "✗ fail"
	}
}

// statusGlyph returns the single-character marker used in text summaries
func statusGlyph(status types.ExampleStatus) string {
	switch status {
	case types.StatusPassed:
		return "✓"
	case types.StatusPending:
		return "*"
	case types.StatusNotRun:
		return "-"
	default:
		return "✗"
	}
}

// errorText renders an error on one line without terminal escapes
func errorText(err error, limit int) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(stripansi.Strip(err.Error())), " ")
	if limit > 0 && len(msg) > limit {
		msg = msg[:limit-3] + "..."
	}
	return msg
}

// treePrefix returns the branch marker for the idx-th of n siblings
func treePrefix(depth, idx, n int) string {
	indent := strings.Repeat("   ", depth)
	if idx == n-1 {
		return indent + "└─"
	}
	return indent + "├─"
}
