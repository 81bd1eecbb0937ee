// Package group implements nested example groups: declaration, tag inheritance,
// hook registration, filtering and execution.
package group

import (
	"reflect"
	"strings"

	"github.com/ethereum-optimism/infra/op-describe/filter"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

// FilterSource supplies the filter in force when examples are selected.
// The registry implements it; the value is read on every selection.
type FilterSource interface {
	Filter() filter.Filter
}

// Option customizes a group or example declaration.
type Option func(*declaration)

type declaration struct {
	description string
	tags        types.Metadata
	filters     FilterSource
	callerSkip  int
	pending     string
}

// WithDescription appends text to the description derived from the subject.
func WithDescription(description string) Option {
	return func(d *declaration) { d.description = description }
}

// WithTags attaches tags to the declared group or example.
func WithTags(tags types.Metadata) Option {
	return func(d *declaration) { d.tags = d.tags.Merge(tags) }
}

// WithTag attaches a single tag.
func WithTag(key string, value any) Option {
	return WithTags(types.Metadata{key: value})
}

// WithFilterSource sets where a root group reads its filters from.
func WithFilterSource(src FilterSource) Option {
	return func(d *declaration) { d.filters = src }
}

// WithCallerSkip moves the recorded declaration site up by n frames, for wrappers.
func WithCallerSkip(n int) Option {
	return func(d *declaration) { d.callerSkip += n }
}

// WithPending marks an example pending with the given reason.
func WithPending(reason string) Option {
	return func(d *declaration) { d.pending = reason }
}

func applyOptions(opts []Option) declaration {
	var d declaration
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// ExampleGroup is a node in the tree of groups.
type ExampleGroup struct {
	description string
	describes   reflect.Type
	location    types.Location
	own         types.Metadata
	metadata    types.Metadata
	parent      *ExampleGroup
	children    []*ExampleGroup
	examples    []*Example
	hooks       map[types.HookScope][]Hook
	subject     func(c *Context) any
	filters     FilterSource

	beforeAllState *State
	hookErr        error
}

// New declares a standalone root group. subject is either a string label or a
// value naming the type under description (a reflect.Type or any value of it).
// body, when non-nil, is called immediately to declare children, examples and hooks.
func New(subject any, body func(g *ExampleGroup), opts ...Option) *ExampleGroup {
	return newGroup(nil, subject, body, applyOptions(opts))
}

// Describe declares a nested group.
func (g *ExampleGroup) Describe(subject any, body func(g *ExampleGroup), opts ...Option) *ExampleGroup {
	return newGroup(g, subject, body, applyOptions(opts))
}

// Context is an alias of Describe.
func (g *ExampleGroup) Context(subject any, body func(g *ExampleGroup), opts ...Option) *ExampleGroup {
	return newGroup(g, subject, body, applyOptions(opts))
}

func newGroup(parent *ExampleGroup, subject any, body func(g *ExampleGroup), d declaration) *ExampleGroup {
	g := &ExampleGroup{
		location: types.CaptureLocation(2 + d.callerSkip),
		own:      d.tags.Clone(),
		parent:   parent,
		hooks:    make(map[types.HookScope][]Hook),
		filters:  d.filters,
	}
	g.describes, g.description = describeSubject(subject, d.description)

	if parent != nil {
		g.metadata = parent.metadata.Merge(g.own)
		parent.children = append(parent.children, g)
	} else {
		g.metadata = g.own.Clone()
	}

	if body != nil {
		body(g)
	}
	return g
}

// describeSubject splits a declaration subject into the described type and the description.
func describeSubject(subject any, extra string) (reflect.Type, string) {
	var (
		described reflect.Type
		parts     []string
	)
	switch s := subject.(type) {
	case nil:
	case string:
		parts = append(parts, s)
	case reflect.Type:
		described = s
	default:
		described = reflect.TypeOf(s)
	}
	if described != nil {
		parts = append(parts, typeName(described))
	}
	if extra != "" {
		parts = append(parts, extra)
	}
	return described, strings.Join(parts, " ")
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// It declares an example. A nil body declares a pending example.
func (g *ExampleGroup) It(description string, body ExampleFunc, opts ...Option) *Example {
	return g.addExample(description, body, applyOptions(opts))
}

// Example is an alias of It.
func (g *ExampleGroup) Example(description string, body ExampleFunc, opts ...Option) *Example {
	return g.addExample(description, body, applyOptions(opts))
}

// Pending declares an example that is reported as pending without running.
func (g *ExampleGroup) Pending(description, reason string, opts ...Option) *Example {
	d := applyOptions(opts)
	d.pending = reason
	return g.addExample(description, nil, d)
}

// Its declares an example about one attribute of the subject: extract derives
// the attribute from the subject and body receives it.
func (g *ExampleGroup) Its(attribute string, extract func(subject any) any, body func(c *Context, value any) error, opts ...Option) *Example {
	return g.addExample(attribute, func(c *Context) error {
		return body(c, extract(c.Subject()))
	}, applyOptions(opts))
}

func (g *ExampleGroup) addExample(description string, body ExampleFunc, d declaration) *Example {
	ex := &Example{
		description:   description,
		group:         g,
		own:           d.tags.Clone(),
		metadata:      g.metadata.Merge(d.tags),
		location:      types.CaptureLocation(2 + d.callerSkip),
		body:          body,
		pendingReason: d.pending,
		result:        types.ExecutionResult{Status: types.StatusNotRun},
	}
	g.examples = append(g.examples, ex)
	return ex
}

// Subject declares how to build the subject of examples in this group and its descendants.
func (g *ExampleGroup) Subject(fn func(c *Context) any) {
	g.subject = fn
}

func (g *ExampleGroup) buildSubject(c *Context) any {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.subject != nil {
			return cur.subject(c)
		}
	}
	if t := g.Describes(); t != nil {
		return reflect.New(t).Interface()
	}
	return nil
}

// Description returns the group's description.
func (g *ExampleGroup) Description() string {
	return g.description
}

// FullDescription joins the descriptions of the group and all of its ancestors.
func (g *ExampleGroup) FullDescription() string {
	var parts []string
	for _, a := range g.Ancestors() {
		if a.description != "" {
			parts = append([]string{a.description}, parts...)
		}
	}
	return strings.Join(parts, " ")
}

// TopLevelDescription returns the description of the outermost group.
func (g *ExampleGroup) TopLevelDescription() string {
	return g.Root().description
}

// Describes returns the type named by this group or the nearest ancestor that names one.
func (g *ExampleGroup) Describes() reflect.Type {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.describes != nil {
			return cur.describes
		}
	}
	return nil
}

// Metadata returns the merged metadata of the group and its ancestors.
func (g *ExampleGroup) Metadata() types.Metadata {
	return g.metadata.Clone()
}

// Location returns where the group was declared.
func (g *ExampleGroup) Location() types.Location {
	return g.location
}

// Parent returns the enclosing group, nil for a root.
func (g *ExampleGroup) Parent() *ExampleGroup {
	return g.parent
}

// Root returns the outermost group.
func (g *ExampleGroup) Root() *ExampleGroup {
	cur := g
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Ancestors returns the group followed by its ancestors, innermost first.
func (g *ExampleGroup) Ancestors() []*ExampleGroup {
	var out []*ExampleGroup
	for cur := g; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	return out
}

// Children returns the nested groups in declaration order.
func (g *ExampleGroup) Children() []*ExampleGroup {
	return append([]*ExampleGroup(nil), g.children...)
}

// Examples returns the owned examples in declaration order.
func (g *ExampleGroup) Examples() []*Example {
	return append([]*Example(nil), g.examples...)
}

// Descendants returns the group itself followed by every nested group, depth first.
func (g *ExampleGroup) Descendants() []*ExampleGroup {
	out := []*ExampleGroup{g}
	for _, child := range g.children {
		out = append(out, child.Descendants()...)
	}
	return out
}

// Filter returns the filter in force for this group.
func (g *ExampleGroup) Filter() filter.Filter {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.filters != nil {
			return cur.filters.Filter()
		}
	}
	return filter.Filter{}
}

// SetFilterSource sets where the group reads its filters from. Nested groups
// without a source of their own use the nearest ancestor's.
func (g *ExampleGroup) SetFilterSource(src FilterSource) {
	g.filters = src
}

// FilteredExamples returns the owned examples selected by the current filter, in declaration order.
func (g *ExampleGroup) FilteredExamples() []*Example {
	f := g.Filter()
	var out []*Example
	for _, ex := range g.examples {
		if f.Selects(ex.candidate()) {
			out = append(out, ex)
		}
	}
	return out
}

// DescendantFilteredExamples returns the selected examples of the whole subtree.
func (g *ExampleGroup) DescendantFilteredExamples() []*Example {
	var out []*Example
	for _, d := range g.Descendants() {
		out = append(out, d.FilteredExamples()...)
	}
	return out
}

// BeforeAllState returns the state captured after this group's before-all hooks ran.
func (g *ExampleGroup) BeforeAllState() *State {
	return g.beforeAllState.Clone()
}

// HookError returns the error raised by this group's before-all or after-all hooks in the last run.
func (g *ExampleGroup) HookError() error {
	return g.hookErr
}
