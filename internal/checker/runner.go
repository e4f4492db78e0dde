// Package checker runs the external static-analysis tool exactly once and
// reports how it exited.
//
// The checker inherits the wrapper's standard streams; its diagnostics are
// never captured, parsed, or rewritten. There is no timeout: the runner
// waits for as long as the checker takes.
package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/magefile/mage/sh"

	"github.com/shinji-kodama/lint-gate/internal/environment"
	"github.com/shinji-kodama/lint-gate/internal/model"
)

// Runner starts the checker inside an activated environment.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a Runner wired to the process's standard streams.
func NewRunner() *Runner {
	return &Runner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run resolves name on the environment's PATH and runs it with args in the
// project root, blocking until it exits.
//
// The returned result is never nil. The error is nil only when the checker
// exited 0; otherwise it wraps model.ErrCheckerUnavailable when the process
// could not be started, or model.ErrCheckFailed when it ran and failed.
func (r *Runner) Run(ctx context.Context, env *environment.Environment, name string, args ...string) (*model.CheckResult, error) {
	result := &model.CheckResult{Checker: name, ExitCode: -1}

	path, err := env.LookPath(name)
	if err != nil {
		return result, fmt.Errorf("%w: %w", model.ErrCheckerUnavailable, err)
	}
	result.Checker = path

	// #nosec G204 -- the checker path comes from the gate's own configuration
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = env.ProjectRoot
	cmd.Env = env.Vars
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	start := time.Now()
	err = cmd.Run()
	result.Duration = time.Since(start)

	return result, classify(result, err)
}

// classify fills in Ran and ExitCode from the error returned by cmd.Run.
func classify(result *model.CheckResult, err error) error {
	if err == nil {
		result.Ran = true
		result.ExitCode = 0
		return nil
	}

	if sh.CmdRan(err) {
		result.Ran = true
		result.ExitCode = sh.ExitStatus(err)
		return fmt.Errorf("%w: %s exited with status %d", model.ErrCheckFailed, result.Checker, result.ExitCode)
	}

	// Started but did not exit normally, e.g. killed by a signal.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.Ran = true
		result.ExitCode = -1
		return fmt.Errorf("%w: %s terminated: %w", model.ErrCheckFailed, result.Checker, err)
	}

	return fmt.Errorf("%w: start %s: %w", model.ErrCheckerUnavailable, result.Checker, err)
}
