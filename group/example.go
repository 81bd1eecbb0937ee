package group

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-describe/filter"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

// ExampleFunc is the body of an example. A returned error fails the example.
type ExampleFunc func(c *Context) error

// Example is a single runnable unit owned by a group.
type Example struct {
	description   string
	group         *ExampleGroup
	own           types.Metadata
	metadata      types.Metadata
	location      types.Location
	body          ExampleFunc
	pendingReason string

	result types.ExecutionResult
	state  *State
}

// Description returns the example's own description.
func (e *Example) Description() string {
	return e.description
}

// FullDescription joins the descriptions of every enclosing group and the example.
func (e *Example) FullDescription() string {
	parts := []string{e.group.FullDescription(), e.description}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Group returns the owning group.
func (e *Example) Group() *ExampleGroup {
	return e.group
}

// Metadata returns the merged metadata: every ancestor group's tags plus the example's own.
func (e *Example) Metadata() types.Metadata {
	return e.metadata.Clone()
}

// Options returns the tags declared on the example itself.
func (e *Example) Options() types.Metadata {
	return e.own.Clone()
}

// Location returns where the example was declared.
func (e *Example) Location() types.Location {
	return e.location
}

// IsPending reports whether the example was declared without a body or marked pending.
func (e *Example) IsPending() bool {
	return e.body == nil || e.pendingReason != ""
}

// Result returns the outcome recorded by the last run.
func (e *Example) Result() types.ExecutionResult {
	return e.result
}

// State returns the instance state the example ended with. Nil before the first run.
func (e *Example) State() *State {
	return e.state
}

func (e *Example) candidate() filter.Candidate {
	local := []types.Metadata{e.own}
	for g := e.group; g != nil; g = g.parent {
		local = append(local, g.own)
	}
	return filter.Candidate{Merged: e.metadata, Local: local}
}

// run executes before-each hooks, the body and after-each hooks against a fresh
// clone of the group snapshot and records the result.
func (e *Example) run(ctx context.Context, reporter Reporter, snapshot *State) bool {
	state := snapshot.Clone()
	c := newContext(ctx, e.group, e, state)

	e.start()
	reporter.ExampleStarted(e)

	var err error
	if e.IsPending() {
		err = &PendingError{Reason: e.pendingReason}
	} else {
		err = e.group.runEachHooks(c, types.BeforeEach)
		if err == nil {
			err = call(func() error { return e.body(c) })
		}
		if afterErr := e.group.runEachHooks(c, types.AfterEach); afterErr != nil && err == nil {
			err = afterErr
		}
	}

	e.finish(err, state)
	reporter.ExampleFinished(e)
	return e.result.Status.Succeeded()
}

// skip records a failure caused outside the example, such as a before-all hook error.
func (e *Example) skip(reporter Reporter, cause error) {
	e.start()
	reporter.ExampleStarted(e)
	e.finish(cause, nil)
	reporter.ExampleFinished(e)
}

func (e *Example) start() {
	e.state = nil
	e.result = types.ExecutionResult{Status: types.StatusNotRun, StartedAt: time.Now()}
}

func (e *Example) finish(err error, state *State) {
	e.state = state
	e.result.FinishedAt = time.Now()
	e.result.Duration = e.result.FinishedAt.Sub(e.result.StartedAt)

	var pending *PendingError
	switch {
	case err == nil:
		e.result.Status = types.StatusPassed
	case errors.As(err, &pending):
		e.result.Status = types.StatusPending
		e.result.PendingMessage = pending.Reason
	default:
		e.result.Status = types.StatusFailed
		e.result.Error = err
	}
}
