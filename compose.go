package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ComposeResult captures one batch-tool invocation. A non-zero exit or
// a timeout is not an error at this layer; it is data for the caller's
// UpdateOutcome.
type ComposeResult struct {
	// Stdout is the captured standard output
	Stdout string
	// Stderr is the captured standard error
	Stderr string
	// ExitOK reports whether the tool exited with status zero
	ExitOK bool
	// TimedOut reports whether the invocation hit its bounded timeout
	TimedOut bool
}

// ComposeRunner invokes the compose-style batch tool with the given
// verb and arguments against a fixed descriptor file. Implementations
// return an error only when the tool could not be invoked at all;
// exit status and transcripts travel in the ComposeResult.
type ComposeRunner interface {
	Run(ctx context.Context, args ...string) (ComposeResult, error)
}

// composeExec runs `docker compose -f <file> <args...>` in the
// directory containing the descriptor, with every invocation bounded
// by a timeout so a hanging tool cannot block an update indefinitely.
type composeExec struct {
	file    string
	dir     string
	timeout time.Duration
	log     *slog.Logger
}

func newComposeExec(file, dir string, timeout time.Duration, log *slog.Logger) *composeExec {
	return &composeExec{file: file, dir: dir, timeout: timeout, log: log}
}

func (c *composeExec) Run(ctx context.Context, args ...string) (ComposeResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	full := append([]string{"compose", "-f", c.file}, args...)
	cmd := exec.CommandContext(runCtx, "docker", full...)
	cmd.Dir = c.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debug("running compose step", "args", args)
	err := cmd.Run()

	res := ComposeResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		ExitOK: err == nil,
	}

	if err == nil {
		return res, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		note := fmt.Sprintf("docker compose %s timed out after %s", strings.Join(args, " "), c.timeout)
		if res.Stderr == "" {
			res.Stderr = note
		} else {
			res.Stderr += "\n" + note
		}
		c.log.Error("compose step timed out", "args", args, "timeout", c.timeout)
		return res, nil
	}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Non-zero exit is expected, recoverable input for the caller.
		return res, nil
	}

	// The tool itself could not be executed.
	return res, fmt.Errorf("executing docker compose %s: %w", strings.Join(args, " "), err)
}
