// Package model defines the domain types and value objects for the
// lint-gate CLI.
//
// This package contains pure data structures with no external dependencies:
// the outcome of a single checker invocation (CheckResult), the error kinds
// the gate distinguishes between, and the exit codes (ExitCode) together
// with a custom error type (CLIError) that carries an exit code to the
// process boundary.
package model
