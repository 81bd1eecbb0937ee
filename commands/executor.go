// Package commands backs hooks and examples with shell commands, so that
// groups loaded from suite files can run.
package commands

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-describe/group"
)

// StateFileVar names the environment variable holding the path of the state
// file. KEY=VALUE lines a command appends to it are merged into the instance state.
const StateFileVar = "DESCRIBE_STATE"

// MaxOutputTail bounds how much captured output is attached to a failure.
const MaxOutputTail = 4096

// waitDelay bounds how long Run waits for orphaned children holding the output pipes.
const waitDelay = time.Second

var envName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config configures an Executor
type Config struct {
	Log            log.Logger
	Dir            string        // working directory, usually the suite file's directory
	Shell          string        // defaults to "sh"
	DefaultTimeout time.Duration // applies when a command has no timeout of its own
	Env            []string      // extra KEY=VALUE pairs for every command
}

// Executor runs shell commands on behalf of hooks and examples.
type Executor struct {
	log            log.Logger
	dir            string
	shell          string
	defaultTimeout time.Duration
	env            []string
}

// NewExecutor creates an executor
func NewExecutor(cfg Config) *Executor {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Shell == "" {
		cfg.Shell = "sh"
	}
	return &Executor{
		log:            cfg.Log,
		dir:            cfg.Dir,
		shell:          cfg.Shell,
		defaultTimeout: cfg.DefaultTimeout,
		env:            cfg.Env,
	}
}

// CommandError is returned when a command exits non-zero or times out.
type CommandError struct {
	Command  string
	ExitCode int    // -1 when the process did not exit normally
	Output   string // ANSI-stripped tail of the combined output
	Err      error
}

func (e *CommandError) Error() string {
	var msg string
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	} else {
		msg = fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Hook returns a hook that runs command against the hook's state.
func (e *Executor) Hook(command string) group.HookFunc {
	return func(c *group.Context) error {
		return e.Run(c.Context(), command, c.State(), 0)
	}
}

// Example returns an example body that runs command. A zero timeout uses the default.
func (e *Executor) Example(command string, timeout time.Duration) group.ExampleFunc {
	return func(c *group.Context) error {
		return e.Run(c.Context(), command, c.State(), timeout)
	}
}

// Run executes command with sh -c. The state is exported to the command's
// environment and anything it writes to the state file is merged back.
func (e *Executor) Run(ctx context.Context, command string, state *group.State, timeout time.Duration) error {
	if state == nil {
		state = group.NewState()
	}
	if timeout == 0 {
		timeout = e.defaultTimeout
	}
	if timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stateFile, err := os.CreateTemp("", "describe-state-*")
	if err != nil {
		return fmt.Errorf("creating state file: %w", err)
	}
	stateFile.Close()
	defer func() {
		_ = os.Remove(stateFile.Name())
	}()

	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), e.env...)
	cmd.Env = append(cmd.Env, Environ(state)...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", StateFileVar, stateFile.Name()))

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = waitDelay

	e.log.Debug("Running command", "dir", cmd.Dir, "command", command, "timeout", timeout)
	start := time.Now()
	runErr := cmd.Run()

	if err := mergeStateFile(stateFile.Name(), state); err != nil {
		return fmt.Errorf("reading state file of %q: %w", command, err)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &CommandError{
			Command:  command,
			ExitCode: -1,
			Output:   Tail(stripansi.Strip(output.String()), MaxOutputTail),
			Err:      fmt.Errorf("timed out after %v", timeout),
		}
	}
	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &CommandError{
			Command:  command,
			ExitCode: exitCode,
			Output:   Tail(stripansi.Strip(output.String()), MaxOutputTail),
			Err:      runErr,
		}
	}

	e.log.Debug("Command finished", "command", command, "duration", time.Since(start))
	return nil
}

// Environ renders the state as KEY=VALUE pairs. Keys that are not valid
// environment variable names are left out.
func Environ(state *group.State) []string {
	var env []string
	for _, key := range state.Keys() {
		if !envName.MatchString(key) {
			continue
		}
		env = append(env, fmt.Sprintf("%s=%v", key, state.Lookup(key)))
	}
	return env
}

// mergeStateFile reads KEY=VALUE lines from path into state. Blank lines and
// lines starting with # are ignored.
func mergeStateFile(path string, state *group.State) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || !envName.MatchString(key) {
			return fmt.Errorf("line %d: expected KEY=VALUE, got %q", lineNo, line)
		}
		state.Set(key, value)
	}
	return scanner.Err()
}

// Tail returns at most the last n bytes of s, starting on a line boundary when possible.
func Tail(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	if i := strings.IndexByte(s, '\n'); i >= 0 && i < len(s)-1 {
		s = s[i+1:]
	}
	return "...\n" + s
}
