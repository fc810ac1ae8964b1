package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// stderrTailLines bounds how much ffmpeg stderr an ExecError carries.
const stderrTailLines = 20

// ExecResult holds the outcome of a successful ffmpeg invocation.
type ExecResult struct {
	Stderr   string
	Duration time.Duration
}

// ExecError is returned when ffmpeg cannot be started or exits non-zero.
// ExitCode is -1 when the process never ran.
type ExecError struct {
	ExitCode   int
	StderrTail string
	Err        error
}

func (e *ExecError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("ffmpeg failed to start: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg exited with status %d", e.ExitCode)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Run executes binary with argv and waits for it. Stderr is always captured;
// when tee is non-nil it is also streamed there in real time (debug mode).
// Stdin is left unconnected so ffmpeg can never block on a prompt.
func Run(ctx context.Context, binary string, argv []string, tee io.Writer) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, binary, argv...)

	var stderrBuf bytes.Buffer
	if tee != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, tee)
	} else {
		cmd.Stderr = &stderrBuf
	}

	start := time.Now()
	err := cmd.Run()
	res := ExecResult{Stderr: stderrBuf.String(), Duration: time.Since(start)}
	if err == nil {
		return res, nil
	}

	execErr := &ExecError{ExitCode: -1, StderrTail: tail(res.Stderr, stderrTailLines), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}
	return res, execErr
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
