package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/actinia-org/actinia-gdi/internal/describe"
	"github.com/actinia-org/actinia-gdi/internal/engine"
	"github.com/actinia-org/actinia-gdi/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation or request failure (missing parameter, invalid template, failed scenario)
	ExitCommandError = 2 // Command error (bad config, unreadable input, store or engine failure)
)

// CLI error codes.
const (
	ErrCodeGeneric               = "E001" // Generic/unknown error
	ErrCodeConfig                = "E002" // Configuration could not be loaded
	ErrCodeInput                 = "E003" // Unreadable or malformed input file/argument
	ErrCodeStore                 = "E004" // Template store failure
	ErrCodeNotFound              = "E005" // Template or module not found
	ErrCodeExists                = "E006" // Template already exists
	ErrCodeValidation            = "E007" // Template validation failed
	ErrCodeRender                = "E010" // Template could not be rendered
	ErrCodeMissingParameter      = "E011" // Required template parameter not bound
	ErrCodeInvalidRequest        = "E012" // Malformed fill request
	ErrCodeInterfaceResolution   = "E013" // Module interface description failed
	ErrCodeUnresolvedPlaceholder = "E014" // Placeholder not traceable to a module parameter
	ErrCodeCyclicTemplate        = "E015" // Template references itself
	ErrCodeDepthExceeded         = "E016" // Template nesting too deep
	ErrCodeTestFailed            = "E020" // Scenario failures
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

// ClassifyError maps an engine, store or describe error to a CLI error code
// and exit code.
func ClassifyError(err error) (code string, exit int) {
	if c, ok := engine.CodeOf(err); ok {
		switch c {
		case engine.ErrCodeTemplateNotFound:
			return ErrCodeNotFound, ExitCommandError
		case engine.ErrCodeTemplateRender:
			return ErrCodeRender, ExitFailure
		case engine.ErrCodeMissingParameter:
			return ErrCodeMissingParameter, ExitFailure
		case engine.ErrCodeInvalidRequest:
			return ErrCodeInvalidRequest, ExitFailure
		case engine.ErrCodeInterfaceResolution:
			if describe.IsModuleNotFound(err) {
				return ErrCodeNotFound, ExitCommandError
			}
			return ErrCodeInterfaceResolution, ExitCommandError
		case engine.ErrCodeUnresolvedPlaceholder:
			return ErrCodeUnresolvedPlaceholder, ExitFailure
		case engine.ErrCodeCyclicTemplate:
			return ErrCodeCyclicTemplate, ExitFailure
		case engine.ErrCodeDepthExceeded:
			return ErrCodeDepthExceeded, ExitFailure
		}
	}
	switch {
	case store.IsNotFound(err), describe.IsModuleNotFound(err):
		return ErrCodeNotFound, ExitCommandError
	case store.IsExists(err):
		return ErrCodeExists, ExitCommandError
	case errors.Is(err, store.ErrInvalidName), errors.Is(err, store.ErrInvalidSource):
		return ErrCodeInput, ExitCommandError
	}
	return ErrCodeGeneric, ExitCommandError
}

// OutputFormatter handles text, JSON and YAML output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// NewOutputFormatter builds a formatter writing results to out and
// diagnostics to errOut.
func NewOutputFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard structured response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E011", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Structured reports whether the format is machine readable.
func (f *OutputFormatter) Structured() bool {
	return f.Format == "json" || f.Format == "yaml"
}

// Success outputs a successful result. Text output falls back to Println
// when the command has no text renderer.
func (f *OutputFormatter) Success(data any) error {
	if f.Structured() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Structured() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "%s [%s]: %s\n", color.RedString("Error"), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
func (f *OutputFormatter) Fail(err error) error {
	code, exit := ClassifyError(err)
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exit, code, err)
}

// encode writes v as indented JSON, or as YAML with the JSON field names
// and order.
func (f *OutputFormatter) encode(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if f.Format != "yaml" {
		_, err := f.Writer.Write(buf.Bytes())
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &node); err != nil {
		return fmt.Errorf("convert to yaml: %w", err)
	}
	clearStyle(&node)
	ye := yaml.NewEncoder(f.Writer)
	ye.SetIndent(2)
	if err := ye.Encode(&node); err != nil {
		return err
	}
	return ye.Close()
}

// clearStyle drops the flow and quoting styles JSON input leaves on nodes
// so the YAML comes out in block style.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
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

// Text output markers.
var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

func markOK() string   { return green("✓") }
func markFail() string { return red("✗") }
