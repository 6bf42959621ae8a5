// Package execx runs external tools and captures their output.
//
// Everything bootspace does to the boot store goes through a Runner so the
// callers can be exercised against a FakeRunner. Failures (spawn errors and
// non-zero exits) surface as *ToolError carrying the captured output; the
// runner never retries.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotElevated is returned when an elevated command is requested from a
// process that lacks administrative rights.
var ErrNotElevated = errors.New("administrator privileges required")

// Command describes one invocation of an external tool.
type Command struct {
	// Name is the executable, resolved through PATH when not absolute.
	Name string

	// Args are passed verbatim; no shell is involved.
	Args []string

	// Stdin is fed to the process when non-nil.
	Stdin []byte

	// Elevated requires the invocation to run with administrative rights.
	Elevated bool
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Output is the captured result of a finished process.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ToolError reports a failed invocation. Output is nil when the process
// could not be started.
type ToolError struct {
	Command Command
	Output  *Output
	Err     error
}

func (e *ToolError) Error() string {
	if e.Output == nil {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	detail := strings.TrimSpace(e.Output.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(e.Output.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("%s failed with exit code %d", e.Command, e.Output.ExitCode)
	}
	return fmt.Sprintf("%s failed with exit code %d: %s", e.Command, e.Output.ExitCode, detail)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Runner executes external tools.
type Runner interface {
	// Run executes cmd and waits for it. A non-zero exit is reported as a
	// *ToolError whose Output is populated.
	Run(ctx context.Context, cmd Command) (*Output, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	// elevated reports whether the current process has administrative rights.
	elevated func() (bool, error)
}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{elevated: IsElevated}
}

// Run executes cmd. Cancelling ctx kills the process.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Output, error) {
	if cmd.Elevated {
		ok, err := r.elevated()
		if err != nil {
			return nil, &ToolError{Command: cmd, Err: fmt.Errorf("failed to check elevation: %w", err)}
		}
		if !ok {
			return nil, &ToolError{Command: cmd, Err: ErrNotElevated}
		}
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Stdin != nil {
		c.Stdin = bytes.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	out := &Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, &ToolError{Command: cmd, Output: out, Err: err}
		}
		return nil, &ToolError{Command: cmd, Err: err}
	}

	return out, nil
}
