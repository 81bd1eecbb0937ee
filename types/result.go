package types

import (
	"time"
)

// ExampleStatus represents the possible states of an example execution
type ExampleStatus string

const (
	StatusNotRun  ExampleStatus = "not-run"
	StatusPassed  ExampleStatus = "passed"
	StatusFailed  ExampleStatus = "failed"
	StatusPending ExampleStatus = "pending"
)

// String returns the status name.
func (s ExampleStatus) String() string {
	if s == "" {
		return string(StatusNotRun)
	}
	return string(s)
}

// Succeeded reports whether the status does not fail its group.
// Pending examples are not failures.
func (s ExampleStatus) Succeeded() bool {
	return s == StatusPassed || s == StatusPending
}

// ExecutionResult captures the outcome of a single example run
type ExecutionResult struct {
	Status         ExampleStatus
	Error          error  // Exception encountered by a hook or the body
	PendingMessage string // Reason given when the example is pending
	StartedAt      time.Time
	FinishedAt     time.Time
	Duration       time.Duration
}

// Recorded reports whether a run pass has stored a result.
func (r ExecutionResult) Recorded() bool {
	return r.Status != "" && r.Status != StatusNotRun
}

// ResultStats tracks example statistics at each level
type ResultStats struct {
	Total   int
	Passed  int
	Failed  int
	Pending int
}

// Add counts one example result.
func (s *ResultStats) Add(status ExampleStatus) {
	s.Total++
	switch status {
	case StatusPassed:
		s.Passed++
	case StatusFailed:
		s.Failed++
	case StatusPending:
		s.Pending++
	}
}

// Merge folds the counts of other into s.
func (s *ResultStats) Merge(other ResultStats) {
	s.Total += other.Total
	s.Passed += other.Passed
	s.Failed += other.Failed
	s.Pending += other.Pending
}

// PassRate returns the percentage of passing examples, ignoring pending ones.
func (s ResultStats) PassRate() float64 {
	ran := s.Total - s.Pending
	if ran <= 0 {
		return 0
	}
	return float64(s.Passed) * 100.0 / float64(ran)
}
