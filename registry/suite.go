package registry

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-describe/commands"
	"github.com/ethereum-optimism/infra/op-describe/group"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

// Suite file tags added to every group loaded from a file.
const (
	SuiteFileTag = "suite_file"
	GroupIDTag   = "id"
)

// LoadSuiteFile loads a YAML suite file and registers its groups. Hooks and
// examples run as shell commands from the file's directory. Include and
// exclude entries of the file are added to the registry filters without
// overriding keys that are already set.
func (r *Registry) LoadSuiteFile(path string) ([]*group.ExampleGroup, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := resolveShared(cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve shared groups: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving suite path: %w", err)
	}
	exec := commands.NewExecutor(commands.Config{
		Log:            r.config.Log.New("suite", filepath.Base(path)),
		Dir:            filepath.Dir(absPath),
		DefaultTimeout: r.config.DefaultTimeout,
	})

	r.mergeFilters(cfg.Include, cfg.Exclude)

	var loaded []*group.ExampleGroup
	for i := range cfg.Groups {
		gc := cfg.Groups[i]
		opts := []group.Option{group.WithTags(suiteTags(gc, absPath))}
		g := r.Describe(gc.Describe, func(g *group.ExampleGroup) {
			buildGroup(g, gc, exec)
		}, opts...)
		loaded = append(loaded, g)
	}

	r.config.Log.Info("Loaded suite file", "path", path, "groups", len(loaded))
	return loaded, nil
}

// buildGroup declares the hooks, examples and nested groups of gc on g.
func buildGroup(g *group.ExampleGroup, gc types.GroupConfig, exec *commands.Executor) {
	for _, scope := range types.HookScopes {
		for _, command := range gc.Hooks(scope) {
			g.AddHook(scope, exec.Hook(command))
		}
	}

	for _, ex := range gc.Examples {
		opts := []group.Option{group.WithTags(ex.Tags)}
		switch {
		case ex.Pending != "":
			g.Pending(ex.It, ex.Pending, opts...)
		case ex.Run == "":
			g.It(ex.It, nil, opts...)
		default:
			g.It(ex.It, exec.Example(ex.Run, exampleTimeout(ex)), opts...)
		}
	}

	for i := range gc.Groups {
		child := gc.Groups[i]
		g.Describe(child.Describe, func(g *group.ExampleGroup) {
			buildGroup(g, child, exec)
		}, group.WithTags(suiteTags(child, "")))
	}
}

func exampleTimeout(ex types.ExampleConfig) (timeout time.Duration) {
	if ex.Timeout != nil {
		timeout = *ex.Timeout
	}
	return timeout
}

func suiteTags(gc types.GroupConfig, suitePath string) types.Metadata {
	tags := maps.Clone(gc.Tags)
	if tags == nil {
		tags = types.Metadata{}
	}
	if suitePath != "" {
		tags[SuiteFileTag] = suitePath
	}
	if gc.ID != "" {
		tags[GroupIDTag] = gc.ID
	}
	return tags
}

// mergeFilters adds suite-file filters under the ones already configured.
func (r *Registry) mergeFilters(include, exclude types.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inclusion = include.Merge(r.inclusion)
	r.exclusion = exclude.Merge(r.exclusion)
}

// resolveShared expands behaves_like references in every group of the file
func resolveShared(cfg *types.SuiteConfig) error {
	shared := make(map[string]types.GroupConfig)
	for _, sg := range cfg.Shared {
		name := sg.ID
		if name == "" {
			name = sg.Describe
		}
		if name == "" {
			return fmt.Errorf("shared group needs an id or a describe")
		}
		if _, dup := shared[name]; dup {
			return fmt.Errorf("duplicate shared group %q", name)
		}
		shared[name] = sg
	}

	for i := range cfg.Groups {
		if err := cfg.Groups[i].ResolveShared(shared); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig loads a suite config from a file
func loadConfig(path string) (*types.SuiteConfig, error) {
	log.Debug("Reading suite file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg types.SuiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}
