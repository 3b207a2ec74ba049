// Package runner executes external processes for the deployment lifecycle.
//
// Every step that touches the remote platform is a process invocation whose
// exit code gates the next step. Runner is the seam that lets the lifecycle be
// exercised without the real binaries.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/jsmdeploy/internal/logging"
)

// stderrTail bounds how much stderr is kept for error messages.
const stderrTail = 4 * 1024

// Command describes one external process invocation.
type Command struct {
	Path string   // binary name or path, resolved via PATH
	Args []string // arguments, not including Path
	Dir  string   // working directory; empty means the current one
	Env  []string // extra KEY=VALUE pairs appended to the inherited environment

	// Interactive attaches the operator's stdin, for long-running local
	// servers such as `adk web`.
	Interactive bool
}

// String renders the command line for logs and history.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Result describes a finished process.
type Result struct {
	Command  Command
	ExitCode int
	Stdout   []byte
	Duration time.Duration
}

// ExitError is returned when a process exits non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited %d", e.Command, e.Code)
	}
	return fmt.Sprintf("%s exited %d: %s", e.Command, e.Code, e.Stderr)
}

// ExitCode extracts the process exit code from err, or -1 when err did not
// come from a finished process.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// Runner runs external commands.
type Runner interface {
	// Run blocks until the process exits. A non-zero exit yields *ExitError.
	Run(ctx context.Context, cmd Command) (*Result, error)

	// LookPath reports where a binary resolves on PATH.
	LookPath(file string) (string, error)
}

// ExecRunner runs commands as real child processes, streaming their output
// to the operator while keeping a copy for the caller.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	log *logging.Logger
}

// NewExecRunner creates a runner attached to the process's standard streams.
func NewExecRunner(log *logging.Logger) *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		log:    log.Sub("runner"),
	}
}

// Run starts cmd and waits for it.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	r.log.Debug().
		Str("cmd", cmd.Path).
		Strs("args", cmd.Args).
		Str("dir", cmd.Dir).
		Msg("running")

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Interactive {
		c.Stdin = r.Stdin
	}

	var stdout bytes.Buffer
	stderr := &tailBuffer{max: stderrTail}
	c.Stdout = io.MultiWriter(r.Stdout, &stdout)
	c.Stderr = io.MultiWriter(r.Stderr, stderr)

	start := time.Now()
	err := c.Run()
	res := &Result{Command: cmd, Stdout: stdout.Bytes(), Duration: time.Since(start)}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			r.log.Debug().
				Str("cmd", cmd.String()).
				Int("exit", res.ExitCode).
				Dur("duration", res.Duration).
				Msg("command failed")
			return res, &ExitError{
				Command: cmd.String(),
				Code:    res.ExitCode,
				Stderr:  strings.TrimSpace(stderr.String()),
			}
		}
		return res, fmt.Errorf("%s: %w", cmd.Path, err)
	}

	r.log.Debug().
		Str("cmd", cmd.String()).
		Dur("duration", res.Duration).
		Msg("command done")
	return res, nil
}

// LookPath resolves file on PATH.
func (r *ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// tailBuffer keeps only the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
