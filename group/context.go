package group

import (
	"context"
	"reflect"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

// Context is handed to every hook and example body. It carries the instance
// state for the current scope and, inside per-example hooks and bodies, the
// running example.
type Context struct {
	ctx     context.Context
	group   *ExampleGroup
	example *Example
	state   *State

	subject    any
	subjectSet bool
}

func newContext(ctx context.Context, g *ExampleGroup, ex *Example, state *State) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{ctx: ctx, group: g, example: ex, state: state}
}

// Context returns the context of the run.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Group returns the group whose hook or example is running.
func (c *Context) Group() *ExampleGroup {
	return c.group
}

// Example returns the running example. It is nil inside before-all and after-all hooks.
func (c *Context) Example() *Example {
	return c.example
}

// State returns the instance state of the current scope.
func (c *Context) State() *State {
	return c.state
}

// Get is shorthand for State().Lookup.
func (c *Context) Get(key string) any {
	return c.state.Lookup(key)
}

// Set is shorthand for State().Set.
func (c *Context) Set(key string, value any) {
	c.state.Set(key, value)
}

// Metadata returns the running example's metadata, or the group's outside an example.
func (c *Context) Metadata() types.Metadata {
	if c.example != nil {
		return c.example.Metadata()
	}
	return c.group.Metadata()
}

// Described returns the type described by the nearest group that names one.
func (c *Context) Described() reflect.Type {
	return c.group.Describes()
}

// Subject returns the subject of the current example, building it on first use.
// The value is memoized for the lifetime of the example.
func (c *Context) Subject() any {
	if !c.subjectSet {
		c.subject = c.group.buildSubject(c)
		c.subjectSet = true
	}
	return c.subject
}

// Pending returns an error that marks the running example as pending.
func (c *Context) Pending(reason string) error {
	return &PendingError{Reason: reason}
}
