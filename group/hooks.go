package group

import (
	"errors"
	"slices"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

// HookFunc is a setup or teardown action. A returned error is a failure.
type HookFunc func(c *Context) error

// Hook is a registered action with its scope and declaration position.
type Hook struct {
	Scope    types.HookScope
	Fn       HookFunc
	Index    int
	Location types.Location
}

// AddHook registers fn for scope, after any hooks already registered for it.
func (g *ExampleGroup) AddHook(scope types.HookScope, fn HookFunc) {
	g.addHook(scope, fn)
}

// BeforeAll registers a hook run once before the group's examples and nested groups.
func (g *ExampleGroup) BeforeAll(fn HookFunc) { g.addHook(types.BeforeAll, fn) }

// BeforeEach registers a hook run before every example in the group and its nested groups.
func (g *ExampleGroup) BeforeEach(fn HookFunc) { g.addHook(types.BeforeEach, fn) }

// AfterEach registers a hook run after every example in the group and its nested groups.
func (g *ExampleGroup) AfterEach(fn HookFunc) { g.addHook(types.AfterEach, fn) }

// AfterAll registers a hook run once after the group's examples and nested groups.
func (g *ExampleGroup) AfterAll(fn HookFunc) { g.addHook(types.AfterAll, fn) }

func (g *ExampleGroup) addHook(scope types.HookScope, fn HookFunc) {
	g.hooks[scope] = append(g.hooks[scope], Hook{
		Scope:    scope,
		Fn:       fn,
		Index:    len(g.hooks[scope]),
		Location: types.CaptureLocation(2),
	})
}

// Hooks returns the hooks of scope in execution order: declaration order for
// before hooks, reverse declaration order for after hooks.
func (g *ExampleGroup) Hooks(scope types.HookScope) []Hook {
	hooks := slices.Clone(g.hooks[scope])
	if !scope.IsBefore() {
		slices.Reverse(hooks)
	}
	return hooks
}

// runHooks runs the group's own hooks of scope. Before hooks stop at the first
// error; after hooks all run and their errors are joined.
func (g *ExampleGroup) runHooks(c *Context, scope types.HookScope) error {
	var errs error
	for _, h := range g.Hooks(scope) {
		err := call(func() error { return h.Fn(c) })
		if err == nil {
			continue
		}
		if scope.IsBefore() {
			return err
		}
		errs = errors.Join(errs, err)
	}
	return errs
}

// runEachHooks runs per-example hooks across the ancestor chain: before-each
// from the root down to g, after-each from g up to the root.
func (g *ExampleGroup) runEachHooks(c *Context, scope types.HookScope) error {
	chain := g.Ancestors()
	if scope.IsBefore() {
		slices.Reverse(chain)
	}
	var errs error
	for _, cur := range chain {
		err := cur.runHooks(c, scope)
		if err == nil {
			continue
		}
		if scope.IsBefore() {
			return err
		}
		errs = errors.Join(errs, err)
	}
	return errs
}

// runGroupHooks runs before-all or after-all hooks with no current example,
// wrapping a failure in a HookError.
func (g *ExampleGroup) runGroupHooks(c *Context, scope types.HookScope) error {
	if err := g.runHooks(c, scope); err != nil {
		return &HookError{Scope: scope, Group: g.FullDescription(), Err: err}
	}
	return nil
}
