package runner

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-describe/registry"
)

// TestRunner defines the interface for running registered example groups
type TestRunner interface {
	RunAll(ctx context.Context) (*RunnerResult, error)
}

// runner struct implements TestRunner interface
type runner struct {
	registry *registry.Registry
	log      log.Logger
	progress ProgressIndicator
	failFast bool
	tracer   trace.Tracer
}

// Config holds configuration for creating a new runner
type Config struct {
	Registry *registry.Registry
	Log      log.Logger
	Progress ProgressIndicator // defaults to a no-op indicator
	FailFast bool              // stop after the first failing top-level group
}

// NewTestRunner creates a new test runner instance
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Progress == nil {
		cfg.Progress = NewNoOpProgressIndicator()
	}

	cfg.Log.Debug("NewTestRunner()", "groups", len(cfg.Registry.ExampleGroups()), "failFast", cfg.FailFast)

	return &runner{
		registry: cfg.Registry,
		log:      cfg.Log,
		progress: cfg.Progress,
		failFast: cfg.FailFast,
		tracer:   otel.Tracer("example runner"),
	}, nil
}

// RunAll runs every registered top-level group in declaration order and
// collects the results. A failing group never stops the others unless
// fail-fast is set.
func (r *runner) RunAll(ctx context.Context) (*RunnerResult, error) {
	groups := r.registry.ExampleGroups()
	if len(groups) == 0 {
		return nil, fmt.Errorf("no example groups registered")
	}

	runID := uuid.New().String()
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("run %s", runID))
	defer span.End()

	r.log.Debug("Running all groups", "run_id", runID, "groups", len(groups), "filter", r.registry.Filter())

	collector := newResultCollector(runID)
	reporter := multiReporter{
		collector,
		&progressAdapter{progress: r.progress},
		&metricsReporter{runID: runID},
		newTracingReporter(ctx, r.tracer),
	}

	for _, g := range groups {
		if ctx.Err() != nil {
			break
		}
		if !g.Run(ctx, reporter) && r.failFast {
			r.log.Warn("Stopping after failing group", "group", g.Description())
			break
		}
	}

	result := collector.finalize()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s interrupted: %w", runID, err)
	}
	r.log.Debug("Run complete", "run_id", runID, "status", result.Status, "duration", result.Duration)
	return result, nil
}

// Make sure the runner type implements the interface
var _ TestRunner = &runner{}
