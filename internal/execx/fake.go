package execx

import (
	"context"
	"fmt"
	"sync"
)

// FakeRunner implements Runner with scripted responses for testing.
// Responses are keyed by tool name plus the first argument
// (for example "bcdedit /enum"). Unscripted commands succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	calls     []Command
	responses map[string]fakeResponse
}

type fakeResponse struct {
	out Output
	err error
}

// NewFakeRunner creates a new FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]fakeResponse)}
}

// Respond scripts the output for commands matching name and firstArg.
// A non-zero ExitCode is reported as a *ToolError, like ExecRunner.
func (f *FakeRunner) Respond(name, firstArg string, out Output) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[fakeKey(name, firstArg)] = fakeResponse{out: out}
}

// Fail scripts a spawn failure for commands matching name and firstArg.
func (f *FakeRunner) Fail(name, firstArg string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[fakeKey(name, firstArg)] = fakeResponse{err: err}
}

// Calls returns the commands run so far, in order.
func (f *FakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Run records cmd and returns the scripted response.
func (f *FakeRunner) Run(ctx context.Context, cmd Command) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ToolError{Command: cmd, Err: err}
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	first := ""
	if len(cmd.Args) > 0 {
		first = cmd.Args[0]
	}
	resp, ok := f.responses[fakeKey(cmd.Name, first)]
	f.mu.Unlock()

	if !ok {
		return &Output{}, nil
	}
	if resp.err != nil {
		return nil, &ToolError{Command: cmd, Err: resp.err}
	}

	out := resp.out
	if out.ExitCode != 0 {
		return &out, &ToolError{Command: cmd, Output: &out, Err: fmt.Errorf("exit status %d", out.ExitCode)}
	}
	return &out, nil
}

func fakeKey(name, firstArg string) string {
	return name + " " + firstArg
}
