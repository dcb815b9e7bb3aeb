package templating

import (
	"errors"
	"fmt"
)

// ExpressionError reports a {{ }} segment that failed to parse or evaluate.
type ExpressionError struct {
	Template   string
	Expression string
	Err        error
}

func (e *ExpressionError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("expression {{ %s }}: %v", e.Expression, e.Err)
	}
	return fmt.Sprintf("template %s: expression {{ %s }}: %v", e.Template, e.Expression, e.Err)
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}

// DecodeError reports rendered output that is not a valid template document.
type DecodeError struct {
	Template string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("template %s: rendered output is not a valid template: %v", e.Template, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsExpressionError returns true if err is an ExpressionError.
func IsExpressionError(err error) bool {
	var e *ExpressionError
	return errors.As(err, &e)
}

// IsDecodeError returns true if err is a DecodeError.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}
