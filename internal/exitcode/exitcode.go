// Package exitcode maps angr-setup failures onto process exit codes.
package exitcode

import (
	"fmt"

	"github.com/cockroachdb/errors"

	angrnative "github.com/angr/angr-native-go"
)

// Exit codes for the CLI.
const (
	// Success indicates the command completed successfully.
	Success = 0

	// User indicates invalid input, configuration or missing prerequisites.
	User = 1

	// Build indicates the native build or a delegated packaging command failed.
	Build = 2
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// New wraps err with code.
func New(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// For returns the exit code for err.
func For(err error) int {
	if err == nil {
		return Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var missing *angrnative.MissingPrerequisiteError
	if errors.As(err, &missing) {
		return User
	}
	if errors.Is(err, angrnative.ErrUnknownCommand) {
		return User
	}

	return Build
}

// Hints returns the user facing hints attached anywhere in err's chain.
func Hints(err error) []string {
	return errors.GetAllHints(err)
}
