package reporting

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-describe/runner"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

// TableFormatter renders a run as a go-pretty table with one row per group
// and, optionally, one nested row per example.
type TableFormatter struct {
	title        string
	showExamples bool
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(title string, showExamples bool) *TableFormatter {
	return &TableFormatter{
		title:        title,
		showExamples: showExamples,
	}
}

// Format renders the result table and returns it as a string
func (f *TableFormatter) Format(result *runner.RunnerResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no result to format")
	}

	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(fmt.Sprintf("%s (%s)", f.title, formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "Description", "Duration", "Examples", "Passed", "Failed", "Pending", "Status", "Error",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Description", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Examples", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Pending", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, g := range result.Groups {
		f.appendGroup(t, g, 0)
		t.AppendSeparator()
	}

	switch result.Status {
	case types.StatusPassed:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.StatusPending, types.StatusNotRun:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(result.Duration),
		result.Stats.Total,
		result.Stats.Passed,
		result.Stats.Failed,
		result.Stats.Pending,
		getResultString(result.Status),
		"",
	})

	t.Render()
	return buf.String(), nil
}

// Print writes the rendered table to w
func (f *TableFormatter) Print(w io.Writer, result *runner.RunnerResult) error {
	content, err := f.Format(result)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

func (f *TableFormatter) appendGroup(t table.Writer, g *runner.GroupResult, depth int) {
	name := g.Description
	if depth > 0 {
		name = treePrefix(depth-1, 0, 1) + " " + name
	}
	t.AppendRow(table.Row{
		"Group",
		name,
		formatDuration(g.Duration),
		"-", // a group is not an example
		g.Stats.Passed,
		g.Stats.Failed,
		g.Stats.Pending,
		getResultString(g.Status),
		errorText(g.HookError, maxErrorLength),
	})

	if f.showExamples {
		for i, ex := range g.Examples {
			t.AppendRow(table.Row{
				"",
				fmt.Sprintf("%s %s", treePrefix(depth, i, len(g.Examples)), ex.Description),
				formatDuration(ex.Duration),
				"1",
				boolToInt(ex.Status == types.StatusPassed),
				boolToInt(ex.Status == types.StatusFailed),
				boolToInt(ex.Status == types.StatusPending),
				getResultString(ex.Status),
				errorText(ex.Error, maxErrorLength),
			})
		}
	}

	for _, child := range g.Groups {
		f.appendGroup(t, child, depth+1)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
