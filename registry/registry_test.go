package registry

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-describe/group"
	"github.com/ethereum-optimism/infra/op-describe/types"
)

func newTestRegistry(t *testing.T, cfg Config) *Registry {
	t.Helper()
	if cfg.Log == nil {
		cfg.Log = log.NewLogger(log.DiscardHandler())
	}
	r, err := NewRegistry(cfg)
	require.NoError(t, err)
	return r
}

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRegistry_Describe(t *testing.T) {
	r := newTestRegistry(t, Config{})

	var child *group.ExampleGroup
	g := r.Describe("top", func(g *group.ExampleGroup) {
		child = g.Describe("nested", nil)
	})

	assert.Equal(t, []*group.ExampleGroup{g}, r.ExampleGroups(), "nested groups are not registered")
	assert.Same(t, g, child.Parent())
	assert.Equal(t, "registry_test.go", filepath.Base(g.Location().FilePath))
}

func TestRegistry_Register(t *testing.T) {
	r := newTestRegistry(t, Config{})

	root := group.New("root", nil)
	child := root.Describe("child", nil)

	require.NoError(t, r.Register(root))
	assert.Error(t, r.Register(root), "duplicate registration")
	assert.Error(t, r.Register(child), "nested groups cannot be registered")
	assert.Error(t, r.Register(nil))
	assert.Len(t, r.ExampleGroups(), 1)

	r.SetInclusionFilter(types.Metadata{"focus": true})
	assert.Equal(t, r.Filter(), root.Filter(), "registered groups read the registry filters")
	assert.Equal(t, r.Filter(), child.Filter())
}

func TestRegistry_Filters(t *testing.T) {
	r := newTestRegistry(t, Config{
		Inclusion: types.Metadata{"focus": true},
	})

	var focused, plain *group.Example
	r.Describe("group", func(g *group.ExampleGroup) {
		focused = g.It("focused", nil, group.WithTag("focus", true))
		plain = g.It("plain", nil)
	})
	assert.Equal(t, []*group.Example{focused}, r.SelectedExamples())

	t.Run("filters are read at evaluation time", func(t *testing.T) {
		r.SetInclusionFilter(nil)
		assert.Equal(t, []*group.Example{focused, plain}, r.SelectedExamples())

		r.SetExclusionFilter(types.Metadata{"focus": true})
		assert.Equal(t, []*group.Example{plain}, r.SelectedExamples())
	})

	t.Run("the returned filter is a copy", func(t *testing.T) {
		f := r.Filter()
		f.Exclusion["other"] = true
		assert.NotContains(t, r.Filter().Exclusion, "other")
	})

	t.Run("reset clears groups and filters", func(t *testing.T) {
		r.Reset()
		assert.Empty(t, r.ExampleGroups())
		assert.True(t, r.Filter().IsEmpty())
	})
}

func TestRegistry_ConcurrentFilterAccess(t *testing.T) {
	r := newTestRegistry(t, Config{})
	r.Describe("group", func(g *group.ExampleGroup) {
		g.It("a", nil, group.WithTag("n", 1))
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.SetInclusionFilter(types.Metadata{"n": i})
		}(i)
		go func() {
			defer wg.Done()
			_ = r.SelectedExamples()
		}()
	}
	wg.Wait()
}

func TestLoadSuiteFile(t *testing.T) {
	path := writeSuite(t, `
exclude:
  slow: true
shared:
  - id: a service
    before_each:
      - echo "SHARED=yes" >> "$DESCRIBE_STATE"
    examples:
      - it: has shared setup
        run: test "$SHARED" = yes
groups:
  - id: api
    describe: api
    tags: {component: api}
    before_all:
      - echo "TOKEN=abc" >> "$DESCRIBE_STATE"
    behaves_like: [a service]
    examples:
      - it: sees the token
        run: test "$TOKEN" = abc
      - it: is slow
        run: "false"
        tags: {slow: true}
      - it: is not written yet
    groups:
      - describe: auth
        examples:
          - it: runs in the suite directory
            run: test -f suite.yaml
          - it: waits on upstream
            run: "false"
            pending: upstream bug
`)
	r := newTestRegistry(t, Config{SuiteFiles: []string{path}})

	groups := r.ExampleGroups()
	require.Len(t, groups, 1)
	api := groups[0]
	assert.Equal(t, "api", api.Description())

	md := api.Metadata()
	assert.Equal(t, "api", md["component"])
	assert.Equal(t, "api", md[GroupIDTag])
	absPath, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, absPath, md[SuiteFileTag])

	assert.Equal(t, types.Metadata{"slow": true}, r.Filter().Exclusion)

	var descriptions []string
	for _, ex := range r.SelectedExamples() {
		descriptions = append(descriptions, ex.FullDescription())
	}
	assert.Equal(t, []string{
		"api sees the token",
		"api is not written yet",
		"api has shared setup",
		"api auth runs in the suite directory",
		"api auth waits on upstream",
	}, descriptions)

	require.True(t, api.RunAll(context.Background()))
	for _, ex := range r.SelectedExamples() {
		assert.True(t, ex.Result().Status.Succeeded(), "%s: %v", ex.FullDescription(), ex.Result().Error)
	}
	auth := api.Children()[0]
	assert.Equal(t, types.StatusPending, auth.Examples()[1].Result().Status)
	assert.Equal(t, "upstream bug", auth.Examples()[1].Result().PendingMessage)
}

func TestLoadSuiteFile_CLIFiltersWin(t *testing.T) {
	path := writeSuite(t, `
include:
  smoke: true
groups:
  - describe: g
    examples:
      - it: x
        run: "true"
`)
	r := newTestRegistry(t, Config{
		SuiteFiles: []string{path},
		Inclusion:  types.Metadata{"smoke": false},
	})
	assert.Equal(t, types.Metadata{"smoke": false}, r.Filter().Inclusion)
}

func TestLoadSuiteFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			content: "groups: [",
			wantErr: "parsing config file",
		},
		{
			name: "unknown shared group",
			content: `
groups:
  - describe: g
    behaves_like: [missing]
`,
			wantErr: "non-existent shared group",
		},
		{
			name: "circular shared groups",
			content: `
shared:
  - id: a
    behaves_like: [b]
  - id: b
    behaves_like: [a]
groups:
  - describe: g
    behaves_like: [a]
`,
			wantErr: "circular shared group reference",
		},
		{
			name: "duplicate shared group",
			content: `
shared:
  - id: a
  - id: a
groups: []
`,
			wantErr: "duplicate shared group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(Config{
				Log:        log.NewLogger(log.DiscardHandler()),
				SuiteFiles: []string{writeSuite(t, tt.content)},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := NewRegistry(Config{
			Log:        log.NewLogger(log.DiscardHandler()),
			SuiteFiles: []string{"nonexistent.yaml"},
		})
		require.Error(t, err)
	})
}
