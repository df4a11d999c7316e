// Package toolstest provides a scripted tools.Runner for phase tests.
package toolstest

import (
	"context"
	"os"
	"sync"

	"github.com/hakim/nativerecon/internal/tools"
)

// Handler produces the result of one invocation
type Handler func(cmd tools.Command) *tools.ToolResult

// FakeRunner dispatches commands to handlers keyed by binary name and
// records every invocation in order.
type FakeRunner struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []tools.Command
}

// NewFakeRunner returns a runner with no handlers; unhandled binaries fail
// as if they were not installed.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{handlers: make(map[string]Handler)}
}

// Handle registers h for binary
func (f *FakeRunner) Handle(binary string, h Handler) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[binary] = h
	return f
}

// Run implements tools.Runner
func (f *FakeRunner) Run(ctx context.Context, cmd tools.Command) *tools.ToolResult {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	h := f.handlers[cmd.Binary]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &tools.ToolResult{ExitCode: -1, Err: err}
	}
	if h == nil {
		return &tools.ToolResult{ExitCode: -1, Err: os.ErrNotExist}
	}

	res := h(cmd)
	if res.Err == nil && cmd.CapturePath != "" {
		_ = tools.WriteCapture(cmd.CapturePath, res.Stdout, res.Stderr)
	}
	return res
}

// Calls returns a copy of the recorded invocations
func (f *FakeRunner) Calls() []tools.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tools.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded invocations of binary
func (f *FakeRunner) CallsTo(binary string) []tools.Command {
	var out []tools.Command
	for _, c := range f.Calls() {
		if c.Binary == binary {
			out = append(out, c)
		}
	}
	return out
}

// Output is a handler result for a clean run printing stdout
func Output(stdout string) *tools.ToolResult {
	return &tools.ToolResult{Stdout: stdout}
}

// Exit is a handler result for a completed run with a non-zero exit code
func Exit(code int, stdout string) *tools.ToolResult {
	return &tools.ToolResult{Stdout: stdout, ExitCode: code}
}

// Timeout is a handler result for a run killed at its deadline
func Timeout() *tools.ToolResult {
	return &tools.ToolResult{Stderr: "Timeout", ExitCode: -1, Err: tools.ErrTimeout}
}
