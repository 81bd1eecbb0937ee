package group

import (
	"maps"
	"reflect"
	"slices"
)

// State is the instance-scoped variable store shared by hooks and example bodies.
//
// Each example runs against its own clone of the group snapshot taken after the
// before-all hooks, so writes made by one example are never seen by another.
// Clone copies maps and slices stored as values; pointers and other reference
// types are shared.
type State struct {
	vars map[string]any
}

// NewState returns an empty state.
func NewState() *State {
	return &State{vars: make(map[string]any)}
}

// Get returns the variable stored under key.
func (s *State) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.vars[key]
	return v, ok
}

// Lookup returns the variable stored under key or nil when it is unset.
func (s *State) Lookup(key string) any {
	v, _ := s.Get(key)
	return v
}

// Has reports whether key is set.
func (s *State) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores value under key.
func (s *State) Set(key string, value any) {
	if s.vars == nil {
		s.vars = make(map[string]any)
	}
	s.vars[key] = value
}

// Delete removes key.
func (s *State) Delete(key string) {
	if s == nil {
		return
	}
	delete(s.vars, key)
}

// Keys returns the variable names in sorted order.
func (s *State) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.vars))
}

// Len returns the number of variables.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.vars)
}

// Map returns a copy of the variables.
func (s *State) Map() map[string]any {
	out := make(map[string]any, s.Len())
	if s != nil {
		maps.Copy(out, s.vars)
	}
	return out
}

// Clone returns an independent copy. Cloning a nil state yields an empty one.
func (s *State) Clone() *State {
	vars := make(map[string]any, s.Len())
	if s != nil {
		for k, v := range s.vars {
			vars[k] = cloneValue(v)
		}
	}
	return &State{vars: vars}
}

func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

func cloneReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), v.Type().Elem()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i), v.Type().Elem()))
		}
		return out
	}
	return v
}

// cloneElem clones a container element, unwrapping interface values so that
// nested maps and slices held as any are copied too.
func cloneElem(v reflect.Value, typ reflect.Type) reflect.Value {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(typ)
		}
		v = v.Elem()
	}
	out := cloneReflect(v)
	if typ.Kind() == reflect.Interface {
		converted := reflect.New(typ).Elem()
		converted.Set(out)
		return converted
	}
	return out
}
