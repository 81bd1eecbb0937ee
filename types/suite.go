package types

import (
	"fmt"
	"time"
)

// SuiteConfig is the top level of a suite file
type SuiteConfig struct {
	Include Metadata      `yaml:"include,omitempty"`
	Exclude Metadata      `yaml:"exclude,omitempty"`
	Shared  []GroupConfig `yaml:"shared,omitempty"`
	Groups  []GroupConfig `yaml:"groups"`
}

// GroupConfig represents a group of examples and nested groups
type GroupConfig struct {
	ID          string          `yaml:"id,omitempty"`
	Describe    string          `yaml:"describe"`
	Tags        Metadata        `yaml:"tags,omitempty"`
	BehavesLike []string        `yaml:"behaves_like,omitempty"`
	BeforeAll   []string        `yaml:"before_all,omitempty"`
	BeforeEach  []string        `yaml:"before_each,omitempty"`
	AfterEach   []string        `yaml:"after_each,omitempty"`
	AfterAll    []string        `yaml:"after_all,omitempty"`
	Examples    []ExampleConfig `yaml:"examples,omitempty"`
	Groups      []GroupConfig   `yaml:"groups,omitempty"`
}

// ExampleConfig represents a single command-backed example
type ExampleConfig struct {
	It      string         `yaml:"it"`
	Run     string         `yaml:"run,omitempty"`
	Pending string         `yaml:"pending,omitempty"`
	Tags    Metadata       `yaml:"tags,omitempty"`
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// IsPending reports whether the example has nothing to run or was marked pending.
func (e ExampleConfig) IsPending() bool {
	return e.Run == "" || e.Pending != ""
}

// Hooks returns the hook commands declared for scope.
func (g *GroupConfig) Hooks(scope HookScope) []string {
	switch scope {
	case BeforeAll:
		return g.BeforeAll
	case BeforeEach:
		return g.BeforeEach
	case AfterEach:
		return g.AfterEach
	case AfterAll:
		return g.AfterAll
	}
	return nil
}

// ResolveShared merges the shared groups named in BehavesLike into this group,
// and does the same for every nested group.
//
// The rules are:
// - Examples: shared examples are appended after the group's own, deduplicated by description
// - Nested groups: shared groups are appended unless one with the same description exists
// - Hooks: shared hooks run after the group's own hooks of the same scope
// - Shared groups may themselves behave like other shared groups; cycles are rejected
func (g *GroupConfig) ResolveShared(shared map[string]GroupConfig) error {
	processed := make(map[string]bool)
	return g.resolveSharedRecursive(shared, processed)
}

func (g *GroupConfig) resolveSharedRecursive(shared map[string]GroupConfig, processed map[string]bool) error {
	for i := range g.Groups {
		if err := g.Groups[i].resolveSharedRecursive(shared, processed); err != nil {
			return err
		}
	}
	if len(g.BehavesLike) == 0 {
		return nil
	}

	seenExamples := make(map[string]bool)
	for _, ex := range g.Examples {
		seenExamples[ex.It] = true
	}
	seenGroups := make(map[string]bool)
	for _, child := range g.Groups {
		seenGroups[child.Describe] = true
	}

	for _, name := range g.BehavesLike {
		if processed[name] {
			return fmt.Errorf("circular shared group reference detected for %q", name)
		}
		parent, ok := shared[name]
		if !ok {
			return fmt.Errorf("group %q behaves like non-existent shared group %q", g.Describe, name)
		}

		processed[name] = true
		if err := parent.resolveSharedRecursive(shared, processed); err != nil {
			return fmt.Errorf("resolving shared group %q: %w", name, err)
		}
		processed[name] = false

		g.BeforeAll = append(g.BeforeAll, parent.BeforeAll...)
		g.BeforeEach = append(g.BeforeEach, parent.BeforeEach...)
		g.AfterEach = append(g.AfterEach, parent.AfterEach...)
		g.AfterAll = append(g.AfterAll, parent.AfterAll...)

		for _, ex := range parent.Examples {
			if !seenExamples[ex.It] {
				g.Examples = append(g.Examples, ex)
				seenExamples[ex.It] = true
			}
		}
		for _, child := range parent.Groups {
			if !seenGroups[child.Describe] {
				g.Groups = append(g.Groups, child)
				seenGroups[child.Describe] = true
			}
		}
	}
	g.BehavesLike = nil
	return nil
}
