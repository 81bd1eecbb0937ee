package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ethereum-optimism/infra/op-describe/group"
)

func TestTracingReporter(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	ctx := context.Background()
	reporter := newTracingReporter(ctx, provider.Tracer("test"))

	g := group.New("outer", func(g *group.ExampleGroup) {
		g.AfterAll(func(*group.Context) error { return errors.New("teardown failed") })
		g.It("passes", pass)
		g.Describe("inner", func(g *group.ExampleGroup) {
			g.It("fails", fail("boom"))
		})
	})
	assert.False(t, g.Run(ctx, reporter))

	spans := recorder.Ended()
	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range spans {
		byName[s.Name()] = s
	}
	require.Len(t, byName, 4)

	outer := byName["group outer"]
	inner := byName["group inner"]
	passed := byName["example passes"]
	failed := byName["example fails"]
	require.NotNil(t, outer)
	require.NotNil(t, inner)
	require.NotNil(t, passed)
	require.NotNil(t, failed)

	assert.Equal(t, outer.SpanContext().SpanID(), inner.Parent().SpanID())
	assert.Equal(t, outer.SpanContext().SpanID(), passed.Parent().SpanID())
	assert.Equal(t, inner.SpanContext().SpanID(), failed.Parent().SpanID())

	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Equal(t, "boom", failed.Status().Description)
	assert.Equal(t, codes.Unset, passed.Status().Code)
	assert.Equal(t, codes.Error, outer.Status().Code, "hook errors mark the group span")

	assert.Empty(t, reporter.examples)
	assert.Empty(t, reporter.spans)
}

func TestMultiReporter(t *testing.T) {
	first, second := newResultCollector("a"), newResultCollector("b")
	g := group.New("g", func(g *group.ExampleGroup) {
		g.It("x", pass)
	})
	require.True(t, g.Run(context.Background(), multiReporter{first, second, &metricsReporter{runID: "multi"}}))

	for _, c := range []*resultCollector{first, second} {
		result := c.finalize()
		require.Len(t, result.Groups, 1)
		assert.Equal(t, 1, result.Stats.Passed)
	}
}
