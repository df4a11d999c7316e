package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hakim/nativerecon/internal/models"
)

// DefaultTimeout bounds any command that does not set its own deadline
const DefaultTimeout = 20 * time.Minute

// waitDelay is how long Run keeps reading output after the child is gone
const waitDelay = 2 * time.Second

// ErrTimeout marks an invocation killed because its deadline passed
var ErrTimeout = errors.New("Timeout")

// Command describes one external tool invocation
type Command struct {
	Binary  string
	Args    []string
	Timeout time.Duration
	// CapturePath, when set, receives stdout followed by a stderr section.
	CapturePath string
}

// String renders the command line for logs
func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// ToolResult contains the result of a tool execution.
// Err is nil when the process ran to completion, whatever its exit code.
type ToolResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Err      error
}

// Succeeded reports a completed run with exit code zero
func (r *ToolResult) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

// TimedOut reports whether the command hit its deadline
func (r *ToolResult) TimedOut() bool {
	return errors.Is(r.Err, ErrTimeout)
}

// Outcome classifies the invocation for best-effort callers
func (r *ToolResult) Outcome() models.ProbeOutcome {
	switch {
	case r.TimedOut():
		return models.OutcomeTimeout
	case r.Err != nil:
		return models.OutcomeError
	case strings.TrimSpace(r.Stdout) == "":
		return models.OutcomeEmpty
	default:
		return models.OutcomeOK
	}
}

// Reason returns a short description of why the run did not succeed
func (r *ToolResult) Reason() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.ExitCode != 0:
		return fmt.Sprintf("exit code %d", r.ExitCode)
	default:
		return ""
	}
}

// Record summarizes the invocation for a phase's probe log. A completed run
// with a non-zero exit code is recorded as an error.
func (r *ToolResult) Record(tool, target string, found int) models.ProbeRecord {
	rec := models.ProbeRecord{
		Tool:    tool,
		Target:  target,
		Outcome: r.Outcome(),
		Reason:  r.Reason(),
		Found:   found,
	}
	if r.Err == nil && r.ExitCode != 0 {
		rec.Outcome = models.OutcomeError
	}
	return rec
}

// Runner executes external commands. Phases depend on this interface so
// tests can substitute canned tool output.
type Runner interface {
	Run(ctx context.Context, cmd Command) *ToolResult
}

// ExecRunner runs commands as child processes
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and kills it, together with any children it
// spawned, when the timeout or the parent context expires. Output is
// collected by exec itself so WaitDelay bounds how long a leftover holder of
// the pipes can delay the return.
func (e *ExecRunner) Run(ctx context.Context, c Command) *ToolResult {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result := &ToolResult{ExitCode: -1}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd := exec.CommandContext(runCtx, c.Binary, c.Args...)
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	log.Debug().Str("tool", c.Binary).Str("cmd", c.String()).Dur("timeout", timeout).Msg("running")

	if err := cmd.Start(); err != nil {
		result.Err = fmt.Errorf("failed to start %s: %w", c.Binary, err)
		return result
	}

	waitErr := cmd.Wait()

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()
	result.Duration = time.Since(start)
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case ctx.Err() != nil:
		// Parent cancelled: the whole run is being torn down
		result.Err = fmt.Errorf("command cancelled: %w", ctx.Err())
		return result
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		log.Warn().Str("tool", c.Binary).Str("cmd", c.String()).Dur("timeout", timeout).Msg("command timed out")
		result.Stderr = "Timeout"
		result.Err = ErrTimeout
		return result
	case waitErr != nil:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			result.Err = fmt.Errorf("waiting for %s: %w", c.Binary, waitErr)
			return result
		}
	}

	if c.CapturePath != "" {
		if err := WriteCapture(c.CapturePath, result.Stdout, result.Stderr); err != nil {
			log.Warn().Err(err).Str("path", c.CapturePath).Msg("failed to write capture file")
		}
	}

	return result
}

// WriteCapture writes stdout and, if present, a stderr section to path
func WriteCapture(path, stdout, stderr string) error {
	var b strings.Builder
	b.WriteString(stdout)
	if stderr != "" {
		b.WriteString("\n=== STDERR ===\n")
		b.WriteString(stderr)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing capture to %s: %w", path, err)
	}
	return nil
}

// splitLines splits tool output into lines without trailing carriage returns
func splitLines(out string) []string {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}
