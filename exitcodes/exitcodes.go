// Package exitcodes defines the standard exit codes used by op-describe.
package exitcodes

// Exit code constants used by op-describe:
//
// * Success (0): every selected example passed or is pending
// * ExampleFailure (1): one or more examples or group hooks failed
// * RuntimeErr (2): configuration errors, unreadable suite files, interrupted runs or panics
const (
	Success        = 0
	ExampleFailure = 1
	RuntimeErr     = 2
)
