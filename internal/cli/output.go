package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/litemap/internal/dberr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Statement failure (constraint, bad SQL, no rows)
	ExitCommandError = 2 // Command error (bad arguments, unreadable files, database cannot be opened)
)

// CLI-level error codes. Database errors use their dberr code instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E003" // Config file unreadable or invalid
	ErrCodeDeclaration = "E004" // CUE table declarations do not compile
	ErrCodeNotFound    = "E005" // Path not found
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`           // "ok" or "error"
	Data   any       `json:"data,omitempty"`   // success payload
	Error  *CLIError `json:"error,omitempty"`  // error details
	JobID  string    `json:"job_id,omitempty"` // pool job that produced the result
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "CONSTRAINT", "E003", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	return f.JobSuccess("", data)
}

// JobSuccess is Success with the ID of the job that produced data.
// The ID only appears in JSON output.
func (f *OutputFormatter) JobSuccess(jobID string, data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
			JobID:  jobID,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err through the formatter and returns the ExitError the
// command should return. Database errors keep their dberr code; anything
// else is reported under fallback.
func (f *OutputFormatter) Fail(fallback string, err error) error {
	var dbErr *dberr.Error
	if !errors.As(err, &dbErr) {
		_ = f.Error(fallback, err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %v", fallback, err))
	}

	code := string(dbErr.Code)
	msg := dbErr.Message
	if dbErr.Err != nil {
		msg += ": " + dbErr.Err.Error()
	}
	var details any
	if d := errorDetails(dbErr); d != nil {
		details = d
	}
	_ = f.Error(code, msg, details)
	return NewExitError(exitCodeFor(dbErr.Code), fmt.Sprintf("%s: %s", code, msg))
}

// exitCodeFor splits database errors into statement failures and errors
// that prevented the command from running at all.
func exitCodeFor(code dberr.Code) int {
	switch code {
	case dberr.CodeConnection, dberr.CodeSchemaDefinition, dberr.CodeCanceled:
		return ExitCommandError
	default:
		return ExitFailure
	}
}

func errorDetails(e *dberr.Error) map[string]any {
	details := make(map[string]any)
	if e.Table != "" {
		details["table"] = e.Table
	}
	if e.Member != "" {
		details["member"] = e.Member
	}
	if e.SQL != "" {
		details["sql"] = e.SQL
		details["param_count"] = e.ParamCount
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
