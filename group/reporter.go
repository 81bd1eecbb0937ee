package group

// Reporter receives progress notifications while a group tree runs.
type Reporter interface {
	GroupStarted(g *ExampleGroup)
	ExampleStarted(e *Example)
	ExampleFinished(e *Example)
	GroupFinished(g *ExampleGroup)
}

var _ Reporter = NullReporter{}

// NullReporter ignores every notification.
type NullReporter struct{}

func (NullReporter) GroupStarted(*ExampleGroup)  {}
func (NullReporter) ExampleStarted(*Example)     {}
func (NullReporter) ExampleFinished(*Example)    {}
func (NullReporter) GroupFinished(*ExampleGroup) {}
