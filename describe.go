package describe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-describe/exitcodes"
	"github.com/ethereum-optimism/infra/op-describe/metrics"
	"github.com/ethereum-optimism/infra/op-describe/registry"
	"github.com/ethereum-optimism/infra/op-describe/reporting"
	"github.com/ethereum-optimism/infra/op-describe/runner"
	"github.com/ethereum-optimism/infra/op-describe/service"
	"github.com/ethereum-optimism/infra/op-describe/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

const resultsTitle = "Describe Results"

// describer implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &describer{}

// describer loads suite files and runs their example groups once or on an interval.
type describer struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	runner   runner.TestRunner
	progress runner.ProgressIndicator
	result   *runner.RunnerResult
	svc      *service.Service // nil when no endpoint is configured

	table   *reporting.TableFormatter
	summary *reporting.TextSummarySink
	out     io.Writer

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*describer, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating describer with config",
		"suites", config.SuiteFiles,
		"filter", config.Filter,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"failFast", config.FailFast)

	reg, err := registry.NewRegistry(registry.Config{
		Log:            config.Log,
		SuiteFiles:     config.SuiteFiles,
		DefaultTimeout: config.DefaultTimeout,
		Inclusion:      config.Filter.Inclusion,
		Exclusion:      config.Filter.Exclusion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	progress := runner.NewNoOpProgressIndicator()
	if config.ShowProgress {
		progress = runner.NewConsoleProgressIndicator(config.Log, config.ProgressInterval)
	}

	exampleRunner, err := runner.NewTestRunner(runner.Config{
		Registry: reg,
		Log:      config.Log,
		Progress: progress,
		FailFast: config.FailFast,
	})
	if err != nil {
		progress.Stop()
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	config.Log.Info("describe.New: created registry and runner", "groups", len(reg.ExampleGroups()))

	var svc *service.Service
	if config.HealthzAddr != "" || config.MetricsAddr != "" {
		svc = service.New(service.Config{
			Log:         config.Log,
			HealthzAddr: config.HealthzAddr,
			MetricsAddr: config.MetricsAddr,
		})
	}

	return &describer{
		ctx:              ctx,
		svc:              svc,
		config:           config,
		version:          version,
		registry:         reg,
		runner:           exampleRunner,
		progress:         progress,
		table:            reporting.NewTableFormatter(resultsTitle, config.ShowExamples),
		summary:          reporting.NewTextSummarySink(config.LogDir, true),
		out:              os.Stdout,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the registered groups immediately, then periodically at the
// configured interval unless in run-once mode.
// Start implements the cliapp.Lifecycle interface.
func (d *describer) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			d.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	d.ctx = ctx
	d.done = make(chan struct{})
	d.running.Store(true)

	if d.svc != nil {
		d.svc.Start(ctx)
	}

	if d.config.RunOnce {
		d.config.Log.Info("Starting op-describe in run-once mode")
	} else {
		d.config.Log.Info("Starting op-describe in continuous mode", "interval", d.config.RunInterval)
	}

	err := d.runExamples(ctx)
	if err != nil {
		d.config.Log.Error("Runtime error running examples", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	if d.config.RunOnce {
		d.config.Log.Info("Run completed, exiting (run-once mode)")

		if d.result != nil && d.result.Status == types.StatusFailed {
			d.config.Log.Warn("Run-once run completed with failures, returning exit code 1")
			return NewTestFailureError(d.result.String())
		}

		go func() {
			d.shutdownCallback(nil)
		}()
		return nil
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.config.Log.Debug("Starting periodic runner goroutine", "interval", d.config.RunInterval)

		for {
			select {
			case <-time.After(d.config.RunInterval):
				if !d.running.Load() {
					d.config.Log.Debug("Service stopped, exiting periodic runner")
					return
				}

				d.config.Log.Info("Running periodic examples")
				if err := d.runExamples(ctx); err != nil {
					d.config.Log.Error("Error running periodic examples", "error", err)
				}

			case <-d.done:
				d.config.Log.Debug("Done signal received, stopping periodic runner")
				return

			case <-ctx.Done():
				d.config.Log.Debug("Context canceled, stopping periodic runner")
				d.running.Store(false)
				return
			}
		}
	}()
	d.config.Log.Debug("op-describe started successfully")
	return nil
}

// runExamples runs every registered group and reports the results
func (d *describer) runExamples(ctx context.Context) error {
	d.config.Log.Info("Running all example groups...")
	result, err := d.runner.RunAll(ctx)
	if err != nil {
		metrics.RecordErrorDetails("run", err)
		return NewRuntimeError(err)
	}
	d.result = result

	d.config.Log.Info("Printing results...")
	if err := d.table.Print(d.out, result); err != nil {
		d.config.Log.Error("Failed to print results table", "error", err)
	}
	_, _ = fmt.Fprintln(d.out, result.String())

	summaryFile, err := d.summary.Complete(result)
	if err != nil {
		d.config.Log.Error("Failed to write run summary", "error", err)
		metrics.RecordErrorDetails("summary", err)
	} else {
		d.config.Log.Info("Wrote run summary", "path", summaryFile)
	}

	metrics.RecordRun(result.RunID, string(result.Status), result.Stats, result.Duration)
	d.config.Log.Info("Run completed", "run_id", result.RunID, "status", result.Status)
	return nil
}

// Stop stops the op-describe service.
// Stop implements the cliapp.Lifecycle interface.
func (d *describer) Stop(ctx context.Context) error {
	d.config.Log.Info("Stopping op-describe")

	if d.progress != nil {
		d.progress.Stop()
	}
	if d.svc != nil {
		d.svc.Shutdown()
	}

	if !d.running.CompareAndSwap(true, false) {
		d.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	d.config.Log.Debug("Sending done signal to goroutines")
	close(d.done)

	d.config.Log.Info("op-describe stopped successfully")
	return nil
}

// Stopped returns true if the op-describe service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (d *describer) Stopped() bool {
	return !d.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
func (d *describer) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for shutdown: %w", ctx.Err())
	}
}
