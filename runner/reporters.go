package runner

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-describe/group"
	"github.com/ethereum-optimism/infra/op-describe/metrics"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

// multiReporter fans notifications out to several reporters in order
type multiReporter []group.Reporter

var _ group.Reporter = multiReporter(nil)

func (m multiReporter) GroupStarted(g *group.ExampleGroup) {
	for _, r := range m {
		r.GroupStarted(g)
	}
}

func (m multiReporter) ExampleStarted(e *group.Example) {
	for _, r := range m {
		r.ExampleStarted(e)
	}
}

func (m multiReporter) ExampleFinished(e *group.Example) {
	for _, r := range m {
		r.ExampleFinished(e)
	}
}

func (m multiReporter) GroupFinished(g *group.ExampleGroup) {
	for _, r := range m {
		r.GroupFinished(g)
	}
}

// metricsReporter records prometheus metrics for finished examples and failed hooks
type metricsReporter struct {
	runID string
}

var _ group.Reporter = (*metricsReporter)(nil)

func (m *metricsReporter) GroupStarted(*group.ExampleGroup) {}
func (m *metricsReporter) ExampleStarted(*group.Example)    {}

func (m *metricsReporter) ExampleFinished(e *group.Example) {
	res := e.Result()
	metrics.RecordExample(m.runID, e.Group().TopLevelDescription(), res.Status, res.Duration)
}

func (m *metricsReporter) GroupFinished(g *group.ExampleGroup) {
	err := g.HookError()
	if err == nil {
		return
	}
	var hookErr *group.HookError
	if errors.As(err, &hookErr) {
		metrics.RecordHookError(hookErr.Scope)
	}
	metrics.RecordErrorDetails("hook", err)
}

// tracingReporter opens a span per group and per example
type tracingReporter struct {
	tracer   trace.Tracer
	base     context.Context
	groups   []context.Context
	spans    []trace.Span
	examples map[*group.Example]trace.Span
}

var _ group.Reporter = (*tracingReporter)(nil)

func newTracingReporter(ctx context.Context, tracer trace.Tracer) *tracingReporter {
	return &tracingReporter{
		tracer:   tracer,
		base:     ctx,
		examples: make(map[*group.Example]trace.Span),
	}
}

func (t *tracingReporter) parent() context.Context {
	if len(t.groups) == 0 {
		return t.base
	}
	return t.groups[len(t.groups)-1]
}

func (t *tracingReporter) GroupStarted(g *group.ExampleGroup) {
	ctx, span := t.tracer.Start(t.parent(), fmt.Sprintf("group %s", g.Description()),
		trace.WithAttributes(
			attribute.String("describe.group", g.FullDescription()),
			attribute.String("describe.location", g.Location().String()),
		))
	t.groups = append(t.groups, ctx)
	t.spans = append(t.spans, span)
}

func (t *tracingReporter) ExampleStarted(e *group.Example) {
	_, span := t.tracer.Start(t.parent(), fmt.Sprintf("example %s", e.Description()),
		trace.WithAttributes(
			attribute.String("describe.example", e.FullDescription()),
			attribute.String("describe.location", e.Location().String()),
		))
	t.examples[e] = span
}

func (t *tracingReporter) ExampleFinished(e *group.Example) {
	span, ok := t.examples[e]
	if !ok {
		return
	}
	delete(t.examples, e)

	res := e.Result()
	span.SetAttributes(attribute.String("describe.status", res.Status.String()))
	if res.Status == types.StatusFailed && res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, res.Error.Error())
	}
	span.End()
}

func (t *tracingReporter) GroupFinished(g *group.ExampleGroup) {
	if len(t.spans) == 0 {
		return
	}
	span := t.spans[len(t.spans)-1]
	t.spans = t.spans[:len(t.spans)-1]
	t.groups = t.groups[:len(t.groups)-1]

	if err := g.HookError(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
