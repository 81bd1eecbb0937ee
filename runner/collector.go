package runner

import (
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-describe/group"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

var _ group.Reporter = (*resultCollector)(nil)

// resultCollector builds the result tree from reporter notifications
type resultCollector struct {
	mu     sync.Mutex
	result *RunnerResult
	stack  []*GroupResult
}

func newResultCollector(runID string) *resultCollector {
	return &resultCollector{
		result: &RunnerResult{
			RunID:     runID,
			Status:    types.StatusNotRun,
			StartTime: time.Now(),
		},
	}
}

func (c *resultCollector) GroupStarted(g *group.ExampleGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gr := &GroupResult{
		Description:     g.Description(),
		FullDescription: g.FullDescription(),
		Location:        g.Location().String(),
		Status:          types.StatusNotRun,
		StartTime:       time.Now(),
	}
	if parent := c.current(); parent != nil {
		parent.Groups = append(parent.Groups, gr)
	} else {
		c.result.Groups = append(c.result.Groups, gr)
	}
	c.stack = append(c.stack, gr)
}

func (c *resultCollector) ExampleStarted(*group.Example) {}

func (c *resultCollector) ExampleFinished(e *group.Example) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gr := c.current()
	if gr == nil {
		return
	}
	res := e.Result()
	gr.Examples = append(gr.Examples, &ExampleResult{
		Description:     e.Description(),
		FullDescription: e.FullDescription(),
		Location:        e.Location().String(),
		Metadata:        e.Metadata(),
		Status:          res.Status,
		Error:           res.Error,
		PendingMessage:  res.PendingMessage,
		Duration:        res.Duration,
	})
	gr.Stats.Add(res.Status)
}

func (c *resultCollector) GroupFinished(g *group.ExampleGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.stack) == 0 {
		return
	}
	gr := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]

	gr.EndTime = time.Now()
	gr.Duration = gr.EndTime.Sub(gr.StartTime)
	gr.HookError = g.HookError()
	gr.Status = determineGroupStatus(gr)

	if parent := c.current(); parent != nil {
		parent.Stats.Merge(gr.Stats)
	} else {
		c.result.Stats.Merge(gr.Stats)
	}
}

func (c *resultCollector) current() *GroupResult {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// finalize calculates the run status and wall clock time
func (c *resultCollector) finalize() *RunnerResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.result.EndTime = time.Now()
	c.result.Duration = c.result.EndTime.Sub(c.result.StartTime)
	c.result.Status = determineRunnerStatus(c.result)
	return c.result
}
