package group

import (
	"context"
	"errors"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

// Run executes the group's filtered examples and nested groups and returns true
// iff every example that ran passed (or is pending) and no group hook failed.
//
// Before-all hooks run once, then each example runs against a clone of the
// state they produced, then nested groups, then after-all hooks in reverse
// order. A failing example never stops its siblings. If a before-all hook
// fails, every selected example in the subtree is recorded as failed with the
// hook's error and the after-all hooks still run.
func (g *ExampleGroup) Run(ctx context.Context, reporter Reporter) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if reporter == nil {
		reporter = NullReporter{}
	}
	var inherited *State
	if g.parent != nil {
		inherited = g.parent.beforeAllState
	}
	return g.run(ctx, reporter, inherited)
}

// RunAll runs the group with no reporter.
func (g *ExampleGroup) RunAll(ctx context.Context) bool {
	return g.Run(ctx, nil)
}

func (g *ExampleGroup) run(ctx context.Context, reporter Reporter, inherited *State) (ok bool) {
	g.hookErr = nil
	if len(g.DescendantFilteredExamples()) == 0 {
		return true
	}

	reporter.GroupStarted(g)
	defer reporter.GroupFinished(g)

	state := inherited.Clone()
	beforeErr := g.runGroupHooks(newContext(ctx, g, nil, state), types.BeforeAll)
	g.beforeAllState = state.Clone()

	ok = true
	if beforeErr != nil {
		g.hookErr = beforeErr
		g.failSubtree(reporter, beforeErr, true)
		ok = false
	} else {
		for _, ex := range g.FilteredExamples() {
			if ctx.Err() != nil {
				ok = false
				break
			}
			if !ex.run(ctx, reporter, g.beforeAllState) {
				ok = false
			}
		}
		for _, child := range g.children {
			if ctx.Err() != nil {
				ok = false
				break
			}
			if !child.run(ctx, reporter, g.beforeAllState) {
				ok = false
			}
		}
	}

	afterErr := g.runGroupHooks(newContext(ctx, g, nil, g.beforeAllState.Clone()), types.AfterAll)
	if afterErr != nil {
		g.hookErr = errors.Join(g.hookErr, afterErr)
		ok = false
	}
	return ok
}

// failSubtree records cause as the result of every selected example below g
// without running any hook or body.
func (g *ExampleGroup) failSubtree(reporter Reporter, cause error, started bool) {
	if len(g.DescendantFilteredExamples()) == 0 {
		return
	}
	if !started {
		g.hookErr = nil
		reporter.GroupStarted(g)
		defer reporter.GroupFinished(g)
	}
	for _, ex := range g.FilteredExamples() {
		ex.skip(reporter, cause)
	}
	for _, child := range g.children {
		child.failSubtree(reporter, cause, false)
	}
}
