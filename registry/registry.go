package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-describe/filter"
	"github.com/ethereum-optimism/infra/op-describe/group"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

// Registry holds the top-level example groups of a process and the filters
// applied when they run.
type Registry struct {
	config    Config
	groups    []*group.ExampleGroup
	inclusion types.Metadata
	exclusion types.Metadata
	mu        sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log            log.Logger
	SuiteFiles     []string
	DefaultTimeout time.Duration
	Inclusion      types.Metadata
	Exclusion      types.Metadata
}

var _ group.FilterSource = (*Registry)(nil)

// NewRegistry creates a new registry instance and loads the configured suite files
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config:    cfg,
		inclusion: cfg.Inclusion.Clone(),
		exclusion: cfg.Exclusion.Clone(),
	}

	for _, path := range cfg.SuiteFiles {
		if _, err := r.LoadSuiteFile(path); err != nil {
			return nil, fmt.Errorf("failed to load suite file %s: %w", path, err)
		}
	}

	cfg.Log.Debug("Registry loaded", "len(groups)", len(r.groups))

	return r, nil
}

// Describe declares a top-level group that reads its filters from the registry and registers it.
func (r *Registry) Describe(subject any, body func(g *group.ExampleGroup), opts ...group.Option) *group.ExampleGroup {
	opts = append(opts, group.WithFilterSource(r), group.WithCallerSkip(1))
	g := group.New(subject, body, opts...)

	r.mu.Lock()
	r.groups = append(r.groups, g)
	r.mu.Unlock()
	return g
}

// Register adds an existing root group. Nested groups are reached through
// their parent and cannot be registered on their own.
func (r *Registry) Register(g *group.ExampleGroup) error {
	if g == nil {
		return fmt.Errorf("cannot register a nil group")
	}
	if g.Parent() != nil {
		return fmt.Errorf("group %q is nested in %q and cannot be registered", g.Description(), g.Parent().FullDescription())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.groups {
		if existing == g {
			return fmt.Errorf("group %q is already registered", g.Description())
		}
	}
	g.SetFilterSource(r)
	r.groups = append(r.groups, g)
	return nil
}

// ExampleGroups returns the registered top-level groups in declaration order
func (r *Registry) ExampleGroups() []*group.ExampleGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*group.ExampleGroup(nil), r.groups...)
}

// SelectedExamples returns every example selected by the current filters across all groups
func (r *Registry) SelectedExamples() []*group.Example {
	var out []*group.Example
	for _, g := range r.ExampleGroups() {
		out = append(out, g.DescendantFilteredExamples()...)
	}
	return out
}

// SetInclusionFilter replaces the inclusion filter
func (r *Registry) SetInclusionFilter(m types.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inclusion = m.Clone()
}

// SetExclusionFilter replaces the exclusion filter
func (r *Registry) SetExclusionFilter(m types.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exclusion = m.Clone()
}

// Filter returns a snapshot of the filters currently in force
func (r *Registry) Filter() filter.Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return filter.Filter{
		Inclusion: r.inclusion.Clone(),
		Exclusion: r.exclusion.Clone(),
	}
}

// Reset removes every group and clears the filters
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = nil
	r.inclusion = types.Metadata{}
	r.exclusion = types.Metadata{}
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}
