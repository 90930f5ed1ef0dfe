package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/petergi/segysak-cli/internal/netcdf"
	"github.com/petergi/segysak-cli/internal/operations"
	"github.com/petergi/segysak-cli/internal/segy"
)

// ExitCode is the process exit status.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	// ExitFailure covers IO and other runtime failures.
	ExitFailure ExitCode = 1
	// ExitUsage reports bad arguments, flags or paths.
	ExitUsage ExitCode = 2
	// ExitDataError reports input files that cannot be decoded.
	ExitDataError ExitCode = 3
)

// CLIError is an error that carries an exit code.
type CLIError struct {
	Code    ExitCode
	Message string
	Err     error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError that wraps err.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

var dataErrors = []error{
	segy.ErrInvalidFile,
	segy.ErrTraceIndex,
	segy.ErrFieldRange,
	netcdf.ErrNotNetCDF,
	netcdf.ErrUnsupported,
	operations.ErrGeometry,
	operations.ErrDataset,
	operations.ErrUnknownDirection,
}

// exitCodeFor maps an error returned by a command to an exit code.
func exitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	for _, target := range dataErrors {
		if errors.Is(err, target) {
			return ExitDataError
		}
	}
	return ExitFailure
}

// printError writes "Error: <message>" to w, or a JSON object when asJSON is
// set.
func printError(w io.Writer, asJSON bool, err error) {
	if !asJSON {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	errObj := map[string]any{
		"message": err.Error(),
		"code":    int(exitCodeFor(err)),
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		errObj["message"] = cliErr.Message
		if cliErr.Err != nil {
			errObj["detail"] = cliErr.Err.Error()
		}
	}
	data, _ := json.MarshalIndent(map[string]any{"error": errObj}, "", "  ")
	fmt.Fprintln(w, string(data))
}
