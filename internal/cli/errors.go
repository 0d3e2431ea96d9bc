package cli

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/jacksmith/finalizer/internal/model"
	"github.com/jacksmith/finalizer/internal/msi"
)

// Process exit codes. Non-zero codes follow Windows Installer conventions so
// a calling bundle can interpret them.
const (
	ExitSuccess               = 0
	ExitInvalidData           = int(msi.ErrorInvalidData)
	ExitInstallFailure        = int(msi.ErrorInstallFailure)
	ExitInvalidCommandLine    = int(msi.ErrorInvalidCmdLine)
	ExitSuccessRebootRequired = int(msi.SuccessRebootRequired)
)

// InvalidCommandLineError indicates missing positional arguments.
type InvalidCommandLineError struct {
	Got  int // number of arguments given
	Want int // number of arguments required
}

func (e *InvalidCommandLineError) Error() string {
	return fmt.Sprintf("invalid command line: expected %d arguments, got %d", e.Want, e.Got)
}

// ExitCode returns ExitInvalidCommandLine.
func (e *InvalidCommandLineError) ExitCode() int {
	return ExitInvalidCommandLine
}

// ValidationError indicates a validation failure.
type ValidationError struct {
	Field   string // the field that failed validation
	Message string // what went wrong
	Err     error  // underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExitCode returns ExitInvalidData for an invalid version and
// ExitInvalidCommandLine for any other bad argument.
func (e *ValidationError) ExitCode() int {
	if errors.Is(e.Err, model.ErrInvalidVersionFormat) {
		return ExitInvalidData
	}
	return ExitInvalidCommandLine
}

// exitCoder is implemented by errors that carry their own exit code.
type exitCoder interface {
	ExitCode() int
}

// ExitCode maps the outcome of a run onto the process exit code.
//
// A nil error yields ExitSuccess, or ExitSuccessRebootRequired when a
// restart is needed. Errors carrying a code (command line errors, installer
// results, OS error numbers) keep it; an invalid version yields
// ExitInvalidData; anything else is ExitInstallFailure.
func ExitCode(rebootRequired bool, err error) int {
	if err == nil {
		if rebootRequired {
			return ExitSuccessRebootRequired
		}
		return ExitSuccess
	}

	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if errors.Is(err, model.ErrInvalidVersionFormat) {
		return ExitInvalidData
	}
	var result msi.Result
	if errors.As(err, &result) && result != msi.Success {
		return result.Code()
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return int(errno)
	}
	return ExitInstallFailure
}

// FormatError returns a user-friendly error message.
// It prefixes the error with "error: " for consistent CLI output.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return "error: " + err.Error()
}
