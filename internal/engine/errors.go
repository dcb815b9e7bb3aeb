package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/actinia-org/actinia-gdi/internal/store"
)

// ErrorCode categorizes resolution and fill failures.
//
// Every typed error in this package reports its code through Code(), so
// callers (the CLI in particular) can map failures without a type switch.
type ErrorCode string

const (
	// ErrCodeTemplateNotFound indicates the named template is not stored.
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"

	// ErrCodeTemplateRender indicates malformed template syntax or invalid
	// JSON after substitution.
	ErrCodeTemplateRender ErrorCode = "TEMPLATE_RENDER"

	// ErrCodeMissingParameter indicates a required variable had no binding.
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// ErrCodeInvalidRequest indicates a malformed fill request.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrCodeInterfaceResolution indicates an underlying module could not be described.
	ErrCodeInterfaceResolution ErrorCode = "INTERFACE_RESOLUTION"

	// ErrCodeUnresolvedPlaceholder indicates a placeholder whose descriptor
	// could not be derived from the described module.
	ErrCodeUnresolvedPlaceholder ErrorCode = "UNRESOLVED_PLACEHOLDER"

	// ErrCodeCyclicTemplate indicates a template that (transitively) references itself.
	ErrCodeCyclicTemplate ErrorCode = "CYCLIC_TEMPLATE"

	// ErrCodeDepthExceeded indicates nesting deeper than the configured limit.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
)

// ErrTemplateNotFound is returned (wrapped) when a template name is not stored.
// It is the store's sentinel, so errors.Is matches either spelling.
var ErrTemplateNotFound = store.ErrNotFound

// TemplateRenderError wraps a templating failure for a named template.
type TemplateRenderError struct {
	Template string
	Err      error
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("%s: render template %q: %v", ErrCodeTemplateRender, e.Template, e.Err)
}

func (e *TemplateRenderError) Unwrap() error { return e.Err }

// Code implements Coded.
func (e *TemplateRenderError) Code() ErrorCode { return ErrCodeTemplateRender }

// MissingParameterError reports declared, non-defaulted variables that a fill
// request left unbound. Name is the first missing variable in declaration
// order; All lists every missing variable.
type MissingParameterError struct {
	Template string
	Name     string
	All      []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("required parameter '%s' missing in module '%s'", e.Name, e.Template)
}

// Code implements Coded.
func (e *MissingParameterError) Code() ErrorCode { return ErrCodeMissingParameter }

// InvalidRequestError reports a fill request that cannot be turned into bindings.
type InvalidRequestError struct {
	Template string
	Reason   string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%s: invalid request for module '%s': %s", ErrCodeInvalidRequest, e.Template, e.Reason)
}

// Code implements Coded.
func (e *InvalidRequestError) Code() ErrorCode { return ErrCodeInvalidRequest }

// InterfaceResolutionError reports that an underlying module could not be
// described while synthesizing a template.
type InterfaceResolutionError struct {
	Template string
	StepID   string
	Module   string
	Err      error
}

func (e *InterfaceResolutionError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("%s: describe module %q: %v", ErrCodeInterfaceResolution, e.Module, e.Err)
	}
	return fmt.Sprintf("%s: describe module %q (template=%s, step=%s): %v",
		ErrCodeInterfaceResolution, e.Module, e.Template, e.StepID, e.Err)
}

func (e *InterfaceResolutionError) Unwrap() error { return e.Err }

// Code implements Coded.
func (e *InterfaceResolutionError) Code() ErrorCode { return ErrCodeInterfaceResolution }

// UnresolvedPlaceholderError reports a placeholder whose descriptor could not
// be derived, typically because the module does not declare the parameter
// the placeholder sits in.
type UnresolvedPlaceholderError struct {
	Template    string
	Placeholder string
	Module      string
	Param       string
	Reason      string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("%s: placeholder %q in template %q (%s.%s): %s",
		ErrCodeUnresolvedPlaceholder, e.Placeholder, e.Template, e.Module, e.Param, e.Reason)
}

// Code implements Coded.
func (e *UnresolvedPlaceholderError) Code() ErrorCode { return ErrCodeUnresolvedPlaceholder }

// CyclicTemplateError reports a template chain that returns to a template
// already being resolved. Chain ends with the repeated name.
type CyclicTemplateError struct {
	Chain []string
}

func (e *CyclicTemplateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeCyclicTemplate, strings.Join(e.Chain, " -> "))
}

// Code implements Coded.
func (e *CyclicTemplateError) Code() ErrorCode { return ErrCodeCyclicTemplate }

// DepthExceededError reports template nesting beyond the configured limit.
type DepthExceededError struct {
	Chain []string
	Limit int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("%s: nesting depth %d exceeds limit %d (%s)",
		ErrCodeDepthExceeded, len(e.Chain), e.Limit, strings.Join(e.Chain, " -> "))
}

// Code implements Coded.
func (e *DepthExceededError) Code() ErrorCode { return ErrCodeDepthExceeded }

// Coded is implemented by every typed error in this package.
type Coded interface {
	error
	Code() ErrorCode
}

// CodeOf returns the ErrorCode carried by err or anything it wraps.
// Template-not-found is reported for the store sentinel as well.
func CodeOf(err error) (ErrorCode, bool) {
	var c Coded
	if errors.As(err, &c) {
		return c.Code(), true
	}
	if errors.Is(err, ErrTemplateNotFound) {
		return ErrCodeTemplateNotFound, true
	}
	return "", false
}

// IsMissingParameter returns true if err is a MissingParameterError.
func IsMissingParameter(err error) bool {
	var e *MissingParameterError
	return errors.As(err, &e)
}

// IsCycleError returns true if err is a CyclicTemplateError.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var e *CyclicTemplateError
	return errors.As(err, &e)
}

// IsDepthError returns true if err is a DepthExceededError.
func IsDepthError(err error) bool {
	var e *DepthExceededError
	return errors.As(err, &e)
}

// IsInterfaceResolution returns true if err is an InterfaceResolutionError.
func IsInterfaceResolution(err error) bool {
	var e *InterfaceResolutionError
	return errors.As(err, &e)
}
