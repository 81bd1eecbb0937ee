package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

const (
	MetricsNamespace = "describe"
)

var (
	Debug                bool = true
	validResults              = []types.ExampleStatus{types.StatusPassed, types.StatusFailed, types.StatusPending}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	examplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "examples_total",
		Help:      "Count of examples run",
	}, []string{
		"run_id",
		"group",
		"result",
	})

	exampleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "example_duration_seconds",
		Help:      "Duration of individual examples",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		"group",
	})

	hookErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "hook_errors_total",
		Help:      "Count of failed group hooks",
	}, []string{
		"scope",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of runs",
	}, []string{
		"run_id",
		"result",
	})

	runExamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_examples_total",
		Help:      "Total number of examples in a run",
	}, []string{
		"run_id",
	})

	runExamplesPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_examples_passed",
		Help:      "Number of passed examples in a run",
	}, []string{
		"run_id",
	})

	runExamplesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_examples_failed",
		Help:      "Number of failed examples in a run",
	}, []string{
		"run_id",
	})

	runExamplesPending = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_examples_pending",
		Help:      "Number of pending examples in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordExample counts one finished example under its top-level group
func RecordExample(runID string, group string, result types.ExampleStatus, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordExample - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "examples_total",
			"run_id", runID,
			"group", group,
			"result", result)
	}
	examplesTotal.WithLabelValues(runID, group, string(result)).Inc()
	exampleDuration.WithLabelValues(group).Observe(duration.Seconds())
}

func RecordHookError(scope types.HookScope) {
	hookErrorsTotal.WithLabelValues(scope.String()).Inc()
}

func RecordRun(runID string, result string, stats types.ResultStats, duration time.Duration) {
	runResults.WithLabelValues(runID, result).Set(1)
	runExamplesTotal.WithLabelValues(runID).Add(float64(stats.Total))
	runExamplesPassed.WithLabelValues(runID).Add(float64(stats.Passed))
	runExamplesFailed.WithLabelValues(runID).Add(float64(stats.Failed))
	runExamplesPending.WithLabelValues(runID).Add(float64(stats.Pending))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.ExampleStatus) bool {
	return slices.Contains(validResults, result)
}
