package types

import (
	"fmt"
	"maps"
	"reflect"
	"runtime"
	"slices"
	"strings"
)

// Metadata is the tag map attached to a group or an example.
type Metadata map[string]any

// Clone returns a shallow copy of the metadata. A nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	maps.Copy(out, m)
	return out
}

// Merge returns a new map holding m with overrides applied on top of it.
// Keys present in overrides win.
func (m Metadata) Merge(overrides Metadata) Metadata {
	out := m.Clone()
	maps.Copy(out, overrides)
	return out
}

// Get returns the value stored under key and whether it was present.
func (m Metadata) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the tag names in sorted order.
func (m Metadata) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// String renders the metadata as a stable "k=v" list.
func (m Metadata) String() string {
	parts := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// EqualValues compares two tag values. Uncomparable values (maps, slices) are compared deeply.
func EqualValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Location records where a group or example was declared.
type Location struct {
	FilePath   string
	LineNumber int
	Caller     []string // "file:line" frames, innermost first
}

// String returns "file:line".
func (l Location) String() string {
	if l.FilePath == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", l.FilePath, l.LineNumber)
}

// CaptureLocation records the declaration site skip frames above its caller.
// CaptureLocation(0) describes the function that called CaptureLocation.
func CaptureLocation(skip int) Location {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return Location{}
	}
	frames := runtime.CallersFrames(pcs[:n])
	var loc Location
	for {
		frame, more := frames.Next()
		if loc.FilePath == "" {
			loc.FilePath = frame.File
			loc.LineNumber = frame.Line
		}
		loc.Caller = append(loc.Caller, fmt.Sprintf("%s:%d", frame.File, frame.Line))
		if !more {
			break
		}
	}
	return loc
}
