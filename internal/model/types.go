// Package model defines the domain types for the lint-gate CLI.
//
// The gate has no persistent state. Every value here lives for the
// duration of one process run and is discarded when the process exits.
package model

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds returned by the gate's pipeline stages. Callers classify
// failures with errors.Is; the concrete errors wrap one of these sentinels
// together with the path or command that caused them.
var (
	// ErrProjectRoot indicates the project root does not exist, is not a
	// directory, or cannot be accessed.
	ErrProjectRoot = errors.New("project root unavailable")

	// ErrEnvironment indicates the project-local environment is missing or
	// its descriptor is malformed.
	ErrEnvironment = errors.New("environment unavailable")

	// ErrCheckerUnavailable indicates the checker could not be started at
	// all: it was not found on the activated PATH or is not executable.
	ErrCheckerUnavailable = errors.New("checker unavailable")

	// ErrCheckFailed indicates the checker ran and exited with a non-zero
	// status, or was terminated before it could report one.
	ErrCheckFailed = errors.New("check failed")
)

// IsSetupFailure reports whether err belongs to the setup class of
// failures (project root or environment). Setup failures abort the run
// before the checker is started.
func IsSetupFailure(err error) bool {
	return errors.Is(err, ErrProjectRoot) || errors.Is(err, ErrEnvironment)
}

// IsCheckFailure reports whether err belongs to the check class of
// failures. Whether the checker reported issues or could not be started
// at all, the outcome for the caller is the same.
func IsCheckFailure(err error) bool {
	return errors.Is(err, ErrCheckFailed) || errors.Is(err, ErrCheckerUnavailable)
}

// CheckResult describes the single checker invocation performed by a run.
type CheckResult struct {
	// Checker is the absolute path of the executable that was started,
	// or the configured name if it could not be resolved.
	Checker string `json:"checker"`

	// Ran is true when the checker process was started and waited for.
	// False means the executable could not be found or executed.
	Ran bool `json:"ran"`

	// ExitCode is the checker's exit status. It is -1 when the process
	// never started or was terminated by a signal.
	ExitCode int `json:"exitCode"`

	// Duration is the wall-clock time spent waiting for the checker.
	Duration time.Duration `json:"duration"`
}

// Passed reports whether the checker ran and reported a clean result.
func (r *CheckResult) Passed() bool {
	return r != nil && r.Ran && r.ExitCode == 0
}

// ExitCode defines the process exit statuses of the lint-gate binary.
// Automation treats any non-zero status as "gate failed"; the distinct
// values exist only to help a human reading CI logs.
type ExitCode int

const (
	// ExitSuccess indicates the checker ran and found no issues.
	ExitSuccess ExitCode = 0

	// ExitCheckFailed indicates the checker reported issues or could not
	// be started. The two cases are deliberately not distinguished here.
	ExitCheckFailed ExitCode = 1

	// ExitSetupFailed indicates the project root, the environment, or the
	// gate's own configuration was unusable. The checker was never started.
	ExitSetupFailed ExitCode = 2
)

// String returns a short label for the exit code, used in log output.
func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitCheckFailed:
		return "check-failed"
	case ExitSetupFailed:
		return "setup-failed"
	default:
		return fmt.Sprintf("exit-%d", int(c))
	}
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeOf maps an error returned by the gate to a process exit code.
//
// A nil error is success. A CLIError anywhere in the chain supplies its own
// code. Bare setup errors map to ExitSetupFailed and everything else to
// ExitCheckFailed, so an unexpected error can never be reported as success.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	if IsSetupFailure(err) {
		return ExitSetupFailed
	}
	return ExitCheckFailed
}
