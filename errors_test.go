package describe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-describe/exitcodes"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		runtime       bool
		testFailure   bool
		expectedCode  int
		expectedError string
	}{
		{
			name:         "nil",
			err:          nil,
			expectedCode: exitcodes.Success,
		},
		{
			name:          "runtime error",
			err:           NewRuntimeError(errors.New("bad config")),
			runtime:       true,
			expectedCode:  exitcodes.RuntimeErr,
			expectedError: "runtime error: bad config",
		},
		{
			name:          "wrapped runtime error",
			err:           fmt.Errorf("starting: %w", NewRuntimeError(errors.New("bad config"))),
			runtime:       true,
			expectedCode:  exitcodes.RuntimeErr,
			expectedError: "starting: runtime error: bad config",
		},
		{
			name:          "test failure",
			err:           NewTestFailureError("2 examples failed"),
			testFailure:   true,
			expectedCode:  exitcodes.ExampleFailure,
			expectedError: "test failure: 2 examples failed",
		},
		{
			name:          "unclassified error",
			err:           errors.New("boom"),
			expectedCode:  exitcodes.ExampleFailure,
			expectedError: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.runtime, IsRuntimeError(tt.err))
			assert.Equal(t, tt.testFailure, IsTestFailureError(tt.err))
			assert.Equal(t, tt.expectedCode, ExitCode(tt.err))
			if tt.err != nil {
				assert.EqualError(t, tt.err, tt.expectedError)
			}
		})
	}

	inner := errors.New("inner")
	assert.ErrorIs(t, NewRuntimeError(inner), inner)
}
