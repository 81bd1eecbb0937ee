package filter

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

func candidate(example types.Metadata, groups ...types.Metadata) Candidate {
	merged := types.Metadata{}
	for i := len(groups) - 1; i >= 0; i-- {
		merged = merged.Merge(groups[i])
	}
	merged = merged.Merge(example)
	return Candidate{Merged: merged, Local: append([]types.Metadata{example}, groups...)}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		predicate any
		want      bool
	}{
		{name: "equal strings", value: "fast", predicate: "fast", want: true},
		{name: "different strings", value: "fast", predicate: "slow", want: false},
		{name: "bools", value: true, predicate: true, want: true},
		{name: "bool against string", value: true, predicate: "true", want: false},
		{name: "regexp", value: "production", predicate: regexp.MustCompile(`^prod`), want: true},
		{name: "regexp on non-string", value: 42, predicate: regexp.MustCompile(`^4`), want: true},
		{name: "regexp miss", value: "staging", predicate: regexp.MustCompile(`^prod`), want: false},
		{name: "func", value: 3, predicate: func(v any) bool { return v.(int) > 2 }, want: true},
		{name: "func false", value: 1, predicate: func(v any) bool { return v.(int) > 2 }, want: false},
		{name: "list", value: "b", predicate: []any{"a", "b"}, want: true},
		{name: "list miss", value: "c", predicate: []any{"a", "b"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.value, tt.predicate))
		})
	}
}

func TestSatisfies(t *testing.T) {
	metadata := types.Metadata{"speed": "fast", "flaky": false}
	assert.True(t, Satisfies(metadata, types.Metadata{"speed": "fast"}))
	assert.True(t, Satisfies(metadata, types.Metadata{"speed": "slow", "flaky": false}), "any key may match")
	assert.False(t, Satisfies(metadata, types.Metadata{"speed": "slow"}))
	assert.False(t, Satisfies(metadata, types.Metadata{"missing": false}), "absent keys never match")
	assert.False(t, Satisfies(metadata, nil))
}

func TestSelects(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		cand   Candidate
		want   bool
	}{
		{
			name: "no filters selects everything",
			cand: candidate(types.Metadata{"any": "thing"}),
			want: true,
		},
		{
			name:   "inclusion match on the example",
			filter: Filter{Inclusion: types.Metadata{"focus": true}},
			cand:   candidate(types.Metadata{"focus": true}, types.Metadata{}),
			want:   true,
		},
		{
			name:   "inclusion match on an ancestor group",
			filter: Filter{Inclusion: types.Metadata{"focus": true}},
			cand:   candidate(types.Metadata{}, types.Metadata{}, types.Metadata{"focus": true}),
			want:   true,
		},
		{
			name:   "closer group overriding an included tag opts out",
			filter: Filter{Inclusion: types.Metadata{"focus": true}},
			cand:   candidate(types.Metadata{}, types.Metadata{"focus": false}, types.Metadata{"focus": true}),
			want:   false,
		},
		{
			name: "overridden ancestor tag does not shield from exclusion",
			filter: Filter{
				Inclusion: types.Metadata{"focus": true},
				Exclusion: types.Metadata{"slow": true},
			},
			cand: candidate(types.Metadata{"slow": true}, types.Metadata{"focus": false}, types.Metadata{"focus": true}),
			want: false,
		},
		{
			name:   "inclusion without any match",
			filter: Filter{Inclusion: types.Metadata{"focus": true}},
			cand:   candidate(types.Metadata{"other": true}, types.Metadata{}),
			want:   false,
		},
		{
			name:   "inclusion against false does not match an absent key",
			filter: Filter{Inclusion: types.Metadata{"awesome": false}},
			cand:   candidate(types.Metadata{}, types.Metadata{}),
			want:   false,
		},
		{
			name:   "exclusion removes matching examples",
			filter: Filter{Exclusion: types.Metadata{"slow": true}},
			cand:   candidate(types.Metadata{"slow": true}, types.Metadata{}),
			want:   false,
		},
		{
			name:   "exclusion through a group tag",
			filter: Filter{Exclusion: types.Metadata{"slow": true}},
			cand:   candidate(types.Metadata{}, types.Metadata{"slow": true}),
			want:   false,
		},
		{
			name:   "exclusion keeps non matching examples",
			filter: Filter{Exclusion: types.Metadata{"slow": true}},
			cand:   candidate(types.Metadata{"slow": false}, types.Metadata{}),
			want:   true,
		},
		{
			name: "force included examples survive exclusion",
			filter: Filter{
				Inclusion: types.Metadata{"focus": true},
				Exclusion: types.Metadata{"slow": true},
			},
			cand: candidate(types.Metadata{"focus": true}, types.Metadata{"slow": true}),
			want: true,
		},
		{
			name: "exclusion applies when inclusion is not met",
			filter: Filter{
				Inclusion: types.Metadata{"focus": true},
				Exclusion: types.Metadata{"slow": true},
			},
			cand: candidate(types.Metadata{"slow": true}, types.Metadata{}),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Selects(tt.cand))
		})
	}
}

func TestFilterIsEmpty(t *testing.T) {
	assert.True(t, Filter{}.IsEmpty())
	assert.True(t, Filter{Inclusion: types.Metadata{}}.IsEmpty())
	assert.False(t, Filter{Exclusion: types.Metadata{"x": true}}.IsEmpty())
}

func TestParseTags(t *testing.T) {
	f, err := ParseTags([]string{"focus", "speed=fast", "~slow", "~env=/^prod/", "retries=3", "flaky=false"})
	require.NoError(t, err)

	assert.Equal(t, true, f.Inclusion["focus"])
	assert.Equal(t, "fast", f.Inclusion["speed"])
	assert.Equal(t, 3, f.Inclusion["retries"])
	assert.Equal(t, false, f.Inclusion["flaky"])
	assert.Equal(t, true, f.Exclusion["slow"])

	re, ok := f.Exclusion["env"].(*regexp.Regexp)
	require.True(t, ok)
	assert.True(t, re.MatchString("production"))

	empty, err := ParseTags(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestParseTag_Errors(t *testing.T) {
	tests := []string{"", "~", "=value", "env=/[/"}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, _, _, err := ParseTag(expr)
			require.Error(t, err)
		})
	}
}
