package runner

import (
	"fmt"
	"time"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

// ExampleResult captures the outcome of one example
type ExampleResult struct {
	Description     string
	FullDescription string
	Location        string
	Metadata        types.Metadata
	Status          types.ExampleStatus
	Error           error
	PendingMessage  string
	Duration        time.Duration
}

// GroupResult captures aggregated results for a group and its nested groups
type GroupResult struct {
	Description     string
	FullDescription string
	Location        string
	Examples        []*ExampleResult
	Groups          []*GroupResult
	Status          types.ExampleStatus
	HookError       error
	Duration        time.Duration
	Stats           types.ResultStats
	StartTime       time.Time
	EndTime         time.Time
}

// RunnerResult captures the complete run results
type RunnerResult struct {
	Groups    []*GroupResult
	Status    types.ExampleStatus
	Duration  time.Duration
	Stats     types.ResultStats
	RunID     string
	StartTime time.Time
	EndTime   time.Time
}

// String returns a one-line summary of the run
func (r *RunnerResult) String() string {
	return fmt.Sprintf("run %s %s: %d examples, %d passed, %d failed, %d pending (%s)",
		r.RunID, r.Status, r.Stats.Total, r.Stats.Passed, r.Stats.Failed, r.Stats.Pending,
		r.Duration.Truncate(time.Millisecond))
}

// Walk calls fn for every group in the tree, depth first, with its nesting depth.
func (r *RunnerResult) Walk(fn func(g *GroupResult, depth int)) {
	for _, g := range r.Groups {
		g.walk(fn, 0)
	}
}

func (g *GroupResult) walk(fn func(g *GroupResult, depth int), depth int) {
	fn(g, depth)
	for _, child := range g.Groups {
		child.walk(fn, depth+1)
	}
}

// Failures returns every failed example of the run in execution order.
func (r *RunnerResult) Failures() []*ExampleResult {
	var out []*ExampleResult
	r.Walk(func(g *GroupResult, _ int) {
		for _, ex := range g.Examples {
			if ex.Status == types.StatusFailed {
				out = append(out, ex)
			}
		}
	})
	return out
}

// HookErrors returns the groups whose before-all or after-all hooks failed.
func (r *RunnerResult) HookErrors() []*GroupResult {
	var out []*GroupResult
	r.Walk(func(g *GroupResult, _ int) {
		if g.HookError != nil {
			out = append(out, g)
		}
	})
	return out
}

// determineGroupStatus derives a group's status from its examples, nested groups and hooks
func determineGroupStatus(g *GroupResult) types.ExampleStatus {
	if g.HookError != nil {
		return types.StatusFailed
	}
	statuses := make([]types.ExampleStatus, 0, len(g.Examples)+len(g.Groups))
	for _, ex := range g.Examples {
		statuses = append(statuses, ex.Status)
	}
	for _, child := range g.Groups {
		statuses = append(statuses, child.Status)
	}
	return determineStatus(statuses)
}

// determineRunnerStatus derives the run status from its top-level groups
func determineRunnerStatus(r *RunnerResult) types.ExampleStatus {
	statuses := make([]types.ExampleStatus, 0, len(r.Groups))
	for _, g := range r.Groups {
		statuses = append(statuses, g.Status)
	}
	return determineStatus(statuses)
}

// determineStatus is failed if anything failed, pending if everything is
// pending, not-run if there is nothing, and passed otherwise.
func determineStatus(statuses []types.ExampleStatus) types.ExampleStatus {
	if len(statuses) == 0 {
		return types.StatusNotRun
	}
	allPending := true
	for _, s := range statuses {
		if s == types.StatusFailed {
			return types.StatusFailed
		}
		if s != types.StatusPending {
			allPending = false
		}
	}
	if allPending {
		return types.StatusPending
	}
	return types.StatusPassed
}
