// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool is the boundary around external tools. Every subprocess or
// library call made on behalf of a request goes through a Runner or Invoke,
// and every failure comes back as an *Error.
package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// maxOutput is how much trailing tool output an Error keeps.
const maxOutput = 4096

// waitDelay bounds how long Run waits for output pipes to close after the
// process has been killed.
const waitDelay = 5 * time.Second

// Runner executes commands. Production code uses OSRunner or a container
// runner; tests substitute fakes.
type Runner interface {
	// LookPath resolves an executable name.
	LookPath(file string) (string, error)

	// Run executes name with args, streaming output to stdout and stderr.
	// It blocks until the process exits or ctx is done.
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// OSRunner runs commands on the host with os/exec.
type OSRunner struct{}

// LookPath implements Runner.
func (OSRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run implements Runner. When ctx ends first the whole process group is
// killed, so helpers the tool spawned (soffice.bin, ffmpeg) cannot keep the
// call alive, and the returned error wraps ctx.Err().
func (OSRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	killGroupOnCancel(cmd)
	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

// Error is a failed tool invocation.
type Error struct {
	// Tool names the failing tool (e.g. "yt-dlp", "soffice", "pdf-to-doc").
	Tool string

	// Err is the underlying cause.
	Err error

	// Output is the tail of the tool's diagnostic output, if any.
	Output string
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Output)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the invocation ran out of time.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Failure wraps err as an *Error for tool, keeping an existing *Error as is.
func Failure(tool string, err error, output string) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Tool: tool, Err: err, Output: strings.TrimSpace(output)}
}

// Invoke calls fn and guarantees the result is either a non-empty path
// with a nil error or an *Error. A panic inside fn is recovered and
// reported as a failure.
func Invoke(tool string, fn func() (string, error)) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			path = ""
			err = &Error{Tool: tool, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	path, err = fn()
	if err != nil {
		return "", Failure(tool, err, "")
	}
	if path == "" {
		return "", &Error{Tool: tool, Err: errors.New("no output path reported")}
	}
	return path, nil
}

// TailBuffer is an io.Writer that keeps only the last Max bytes written.
// It is safe for concurrent writes, as stdout and stderr may share one.
type TailBuffer struct {
	Max int

	mu  sync.Mutex
	buf []byte
}

func (b *TailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	limit := b.Max
	if limit <= 0 {
		limit = maxOutput
	}
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *TailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
