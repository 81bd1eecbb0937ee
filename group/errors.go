package group

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

// HookError reports a failure raised by a before-all or after-all hook.
// Examples that could not run because of it carry it as their error.
type HookError struct {
	Scope types.HookScope
	Group string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("error in %s hook of %q: %v", e.Scope, e.Group, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *HookError) Unwrap() error {
	return e.Err
}

// IsHookError checks if the error is or wraps a HookError
func IsHookError(err error) bool {
	var hookErr *HookError
	return err != nil && errors.As(err, &hookErr)
}

// PendingError marks an example as pending from inside its body.
type PendingError struct {
	Reason string
}

func (e *PendingError) Error() string {
	if e.Reason == "" {
		return "pending"
	}
	return "pending: " + e.Reason
}

// PanicError wraps a value recovered from a panicking hook or body.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// call runs fn, converting a panic into a *PanicError.
func call(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec}
		}
	}()
	return fn()
}
