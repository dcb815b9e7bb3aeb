package compiler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/actinia-org/actinia-gdi/internal/ir"
	"github.com/actinia-org/actinia-gdi/internal/templating"
)

// Validation error codes (E200-E299)
const (
	ErrInvalidJSON       = "E200" // discovery rendering is not valid JSON
	ErrInvalidExpression = "E201" // placeholder expression does not parse or evaluate
	ErrSchemaViolation   = "E202" // structure does not match #Template
	ErrStepKind          = "E203" // step must set exactly one of module and exe
	ErrDuplicateStepID   = "E204" // step ids must be unique
	ErrEmptyTemplate     = "E205" // template list has no steps
	ErrCyclicReference   = "E206" // template chain references itself
)

// ValidationError represents a template validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
)

// templateSchema compiles the embedded schema once. cue.Context is not safe
// for concurrent use, so callers hold schemaMu while validating.
func templateSchema() (*cue.Context, cue.Value) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		schemaDef = schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue")).
			LookupPath(cue.ParsePath("#Template"))
	})
	return schemaCtx, schemaDef
}

var schemaMu sync.Mutex

// ValidateTemplate checks a template source without rendering real values.
// The discovery rendering (every variable bound to its own placeholder) is
// unified with the #Template schema and then checked for step-level rules.
// Returns all errors found (does not fail-fast); nil means valid.
func ValidateTemplate(source []byte) []ValidationError {
	rendered, _, err := templating.DiscoverSource(source)
	if err != nil {
		return []ValidationError{{
			Field:   "template",
			Message: err.Error(),
			Code:    ErrInvalidExpression,
		}}
	}
	if !json.Valid(rendered) {
		return []ValidationError{{
			Field:   "template",
			Message: "template is not valid JSON",
			Code:    ErrInvalidJSON,
		}}
	}

	if errs := validateSchema(rendered); len(errs) > 0 {
		return errs
	}

	var tpl ir.Template
	if err := json.Unmarshal(rendered, &tpl); err != nil {
		return []ValidationError{{Field: "template", Message: err.Error(), Code: ErrInvalidJSON}}
	}
	return validateSteps(&tpl)
}

func validateSchema(rendered []byte) []ValidationError {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, def := templateSchema()
	expr, err := cuejson.Extract("template.json", rendered)
	if err != nil {
		return []ValidationError{{Field: "template", Message: err.Error(), Code: ErrInvalidJSON}}
	}
	v := def.Unify(ctx.BuildExpr(expr))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cueValidationErrors(err)
	}
	return nil
}

// cueValidationErrors flattens a CUE error list, one entry per path.
func cueValidationErrors(err error) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "template"
		}
		if seen[field] {
			continue
		}
		seen[field] = true

		format, args := e.Msg()
		ve := ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    ErrSchemaViolation,
		}
		if pos := e.Position(); pos.IsValid() {
			ve.Line = pos.Line()
		}
		errs = append(errs, ve)
	}
	return errs
}

func validateSteps(tpl *ir.Template) []ValidationError {
	var errs []ValidationError

	// E205: at least one step
	if len(tpl.Template.List) == 0 {
		errs = append(errs, ValidationError{
			Field:   "template.list",
			Message: "template must contain at least one step",
			Code:    ErrEmptyTemplate,
		})
	}

	ids := make(map[string]bool)
	for i, step := range tpl.Template.List {
		field := fmt.Sprintf("template.list[%d]", i)

		// E203: exactly one of module and exe
		if (step.Module == "") == (step.Exe == "") {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "step must set exactly one of module and exe",
				Code:    ErrStepKind,
			})
		}

		// E204: duplicate step id
		if step.ID == "" {
			continue
		}
		if ids[step.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate step id: %q", step.ID),
				Code:    ErrDuplicateStepID,
			})
		}
		ids[step.ID] = true
	}
	return errs
}
