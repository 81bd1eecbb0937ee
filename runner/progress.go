package runner

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-describe/group"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

// ProgressIndicator interface for UI updates
type ProgressIndicator interface {
	StartGroup(groupName string, depth int, totalExamples int)
	StartExample(exampleName string)
	UpdateExample(exampleName string, status types.ExampleStatus)
	CompleteGroup(groupName string, depth int)
	Stop()
}

// noOpProgressIndicator provides a no-op implementation of ProgressIndicator
type noOpProgressIndicator struct{}

// NewNoOpProgressIndicator creates a progress indicator that does nothing
func NewNoOpProgressIndicator() ProgressIndicator {
	return &noOpProgressIndicator{}
}

func (n *noOpProgressIndicator) StartGroup(groupName string, depth int, totalExamples int)    {}
func (n *noOpProgressIndicator) StartExample(exampleName string)                              {}
func (n *noOpProgressIndicator) UpdateExample(exampleName string, status types.ExampleStatus) {}
func (n *noOpProgressIndicator) CompleteGroup(groupName string, depth int)                    {}
func (n *noOpProgressIndicator) Stop()                                                        {}

// consoleProgressIndicator provides a console-based progress indicator
type consoleProgressIndicator struct {
	logger   log.Logger
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex

	currentGroup      string
	completedExamples int
	totalExamples     int
	groupStartTimes   map[string]time.Time

	// Track currently running examples
	runningExamples map[string]time.Time // example name -> start time
}

// NewConsoleProgressIndicator creates a progress indicator that shows updates in the console
func NewConsoleProgressIndicator(logger log.Logger, updateInterval time.Duration) ProgressIndicator {
	if updateInterval == 0 {
		updateInterval = 30 * time.Second // Default to 30 seconds
	}

	indicator := &consoleProgressIndicator{
		logger:          logger,
		ticker:          time.NewTicker(updateInterval),
		stopCh:          make(chan struct{}),
		groupStartTimes: make(map[string]time.Time),
		runningExamples: make(map[string]time.Time),
	}

	// Start the progress reporting goroutine
	go indicator.progressReporter()

	return indicator
}

func (c *consoleProgressIndicator) StartGroup(groupName string, depth int, totalExamples int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.groupStartTimes[groupName] = time.Now()
	if depth == 0 {
		c.currentGroup = groupName
		c.totalExamples = totalExamples
		c.completedExamples = 0
		c.runningExamples = make(map[string]time.Time)
	}

	c.logger.Info("Starting group", "group", groupName, "depth", depth, "examples", totalExamples)
}

// StartExample tracks when an example starts running
func (c *consoleProgressIndicator) StartExample(exampleName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runningExamples[exampleName] = time.Now()
	c.logger.Debug("Example started", "example", exampleName)
}

func (c *consoleProgressIndicator) UpdateExample(exampleName string, status types.ExampleStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.runningExamples, exampleName)
	c.completedExamples++

	// Log individual example completion at debug level to avoid spam
	c.logger.Debug("Example completed", "example", exampleName, "status", status, "completed", c.completedExamples, "total", c.totalExamples)
}

func (c *consoleProgressIndicator) CompleteGroup(groupName string, depth int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	duration := time.Since(c.groupStartTimes[groupName]).Truncate(time.Millisecond)
	delete(c.groupStartTimes, groupName)
	c.logger.Info("Completed group", "group", groupName, "depth", depth, "duration", duration)
	if depth == 0 {
		c.currentGroup = ""
		c.runningExamples = make(map[string]time.Time)
	}
}

// progressReporter runs in a goroutine and periodically reports progress
func (c *consoleProgressIndicator) progressReporter() {
	for {
		select {
		case <-c.ticker.C:
			c.reportProgress()
		case <-c.stopCh:
			return
		}
	}
}

func (c *consoleProgressIndicator) reportProgress() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.currentGroup == "" {
		return
	}

	var percentComplete float64
	if c.totalExamples > 0 {
		percentComplete = float64(c.completedExamples) * 100.0 / float64(c.totalExamples)
	}

	c.logger.Info("Progress update",
		"group", c.currentGroup,
		"completed", c.completedExamples,
		"total", c.totalExamples,
		"percent", fmt.Sprintf("%.1f%%", percentComplete),
		"running", formatRunningExamples(c.runningExamples, 3),
	)
}

// Stop stops the progress indicator
func (c *consoleProgressIndicator) Stop() {
	c.stopOnce.Do(func() {
		c.ticker.Stop()
		close(c.stopCh)
	})
}

// formatRunningExamples lists the longest running examples first
func formatRunningExamples(running map[string]time.Time, maxShow int) string {
	if len(running) == 0 {
		return ""
	}

	type runningExample struct {
		name     string
		duration time.Duration
	}

	var examples []runningExample
	now := time.Now()
	for name, startTime := range running {
		examples = append(examples, runningExample{name: name, duration: now.Sub(startTime)})
	}
	sort.Slice(examples, func(i, j int) bool {
		return examples[i].duration > examples[j].duration
	})

	var parts []string
	for i, ex := range examples {
		if i >= maxShow {
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%v)", ex.name, ex.duration.Truncate(time.Second)))
	}
	if len(examples) > maxShow {
		parts = append(parts, fmt.Sprintf("+%d more", len(examples)-maxShow))
	}
	return strings.Join(parts, ", ")
}

var _ group.Reporter = (*progressAdapter)(nil)

// progressAdapter feeds group notifications to a ProgressIndicator
type progressAdapter struct {
	progress ProgressIndicator
	depth    int
}

func (p *progressAdapter) GroupStarted(g *group.ExampleGroup) {
	p.progress.StartGroup(g.FullDescription(), p.depth, len(g.DescendantFilteredExamples()))
	p.depth++
}

func (p *progressAdapter) ExampleStarted(e *group.Example) {
	p.progress.StartExample(e.FullDescription())
}

func (p *progressAdapter) ExampleFinished(e *group.Example) {
	p.progress.UpdateExample(e.FullDescription(), e.Result().Status)
}

func (p *progressAdapter) GroupFinished(g *group.ExampleGroup) {
	p.depth--
	p.progress.CompleteGroup(g.FullDescription(), p.depth)
}
