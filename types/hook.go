package types

import "fmt"

// HookScope identifies when a hook runs relative to a group or an example.
type HookScope int

const (
	BeforeAll HookScope = iota
	BeforeEach
	AfterEach
	AfterAll
)

var hookScopeNames = map[HookScope]string{
	BeforeAll:  "before_all",
	BeforeEach: "before_each",
	AfterEach:  "after_each",
	AfterAll:   "after_all",
}

// HookScopes lists every scope in execution order.
var HookScopes = []HookScope{BeforeAll, BeforeEach, AfterEach, AfterAll}

func (s HookScope) String() string {
	if name, ok := hookScopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("HookScope(%d)", int(s))
}

// IsBefore reports whether hooks of this scope run in declaration order.
func (s HookScope) IsBefore() bool {
	return s == BeforeAll || s == BeforeEach
}
