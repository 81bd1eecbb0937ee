package describe

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-describe/filter"
	"github.com/ethereum-optimism/infra/op-describe/flags"
)

// Config holds the application configuration
type Config struct {
	SuiteFiles       []string      // Absolute paths of the YAML suite files to load
	Filter           filter.Filter // Tag filters from the command line
	RunInterval      time.Duration // Interval between runs
	RunOnce          bool          // Indicates if the service should exit after one run
	FailFast         bool          // Stop a run after the first failing top-level group
	DefaultTimeout   time.Duration // Default timeout of hook and example commands
	LogDir           string        // Directory to store run summaries
	ShowProgress     bool          // Whether to log periodic progress updates during a run
	ProgressInterval time.Duration // Interval between progress updates when ShowProgress is 'true'
	ShowExamples     bool          // Whether the results table lists every example
	HealthzAddr      string        // Listen address of the health endpoint, empty disables it
	MetricsAddr      string        // Listen address of the metrics endpoint, empty disables it
	Log              log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	suites := ctx.StringSlice(flags.Suites.Name)
	if len(suites) == 0 {
		return nil, errors.New("at least one suite file is required")
	}
	absSuites := make([]string, 0, len(suites))
	for _, s := range suites {
		abs, err := filepath.Abs(s)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for suite file '%s': %w", s, err)
		}
		absSuites = append(absSuites, abs)
	}

	f, err := filter.ParseTags(ctx.StringSlice(flags.Tags.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid tag filter: %w", err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	if runInterval < 0 {
		return nil, fmt.Errorf("run interval must not be negative: %v", runInterval)
	}

	// Get log directory, default to "logs" if not specified
	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	var metricsAddr string
	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if metricsCfg.Enabled {
		if err := metricsCfg.Check(); err != nil {
			return nil, fmt.Errorf("invalid metrics config: %w", err)
		}
		metricsAddr = net.JoinHostPort(metricsCfg.ListenAddr, strconv.Itoa(metricsCfg.ListenPort))
	}

	return &Config{
		SuiteFiles:       absSuites,
		Filter:           f,
		RunInterval:      runInterval,
		RunOnce:          runInterval == 0,
		FailFast:         ctx.Bool(flags.FailFast.Name),
		DefaultTimeout:   ctx.Duration(flags.DefaultTimeout.Name),
		LogDir:           logDir,
		ShowProgress:     ctx.Bool(flags.ShowProgress.Name),
		ProgressInterval: ctx.Duration(flags.ProgressInterval.Name),
		ShowExamples:     ctx.Bool(flags.ShowExamples.Name),
		HealthzAddr:      ctx.String(flags.HealthzAddr.Name),
		MetricsAddr:      metricsAddr,
		Log:              log,
	}, nil
}
