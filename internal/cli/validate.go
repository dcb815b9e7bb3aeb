package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/actinia-org/actinia-gdi/internal/compiler"
)

// TemplateValidation holds the problems found in one template.
type TemplateValidation struct {
	Name   string                     `json:"name"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                 `json:"valid"`
	Templates []TemplateValidation `json:"templates"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [template...]",
		Short: "Validate stored templates",
		Long: `Validate stored templates without resolving any module.

Checks that every placeholder expression parses, that the discovery
rendering is valid JSON matching the template schema, that each step sets
exactly one of module and exe, and that step ids are unique. Chains of
templates referencing each other are reported for every template on the
cycle. Without arguments every stored template is validated.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(rootOpts, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
				return runValidate(ctx, rt, f, args)
			})
		},
	}

	return cmd
}

func runValidate(ctx context.Context, rt *Runtime, f *OutputFormatter, names []string) error {
	if len(names) == 0 {
		all, err := rt.Store.Names(ctx)
		if err != nil {
			return f.Fail(err)
		}
		names = all
	}

	results := make([]TemplateValidation, 0, len(names))
	index := make(map[string]int, len(names))
	for _, name := range names {
		rec, err := rt.Store.Get(ctx, name)
		if err != nil {
			return f.Fail(err)
		}
		f.VerboseLog("Validating template: %s", name)
		index[name] = len(results)
		results = append(results, TemplateValidation{Name: name, Errors: compiler.ValidateTemplate(rec.Source)})
	}

	graph, err := compiler.BuildTemplateGraph(ctx, rt.Store)
	if err != nil {
		return f.Fail(err)
	}
	for _, cycle := range compiler.AnalyzeCycles(graph) {
		for _, node := range slices.Compact(slices.Sorted(slices.Values(cycle.Path))) {
			if i, ok := index[node]; ok {
				results[i].Errors = append(results[i].Errors, cycle.AsValidationError())
			}
		}
	}

	if slices.ContainsFunc(results, func(r TemplateValidation) bool { return len(r.Errors) > 0 }) {
		return outputValidationErrors(f, results)
	}
	return outputValidateSuccess(f, results)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(f *OutputFormatter, results []TemplateValidation) error {
	if f.Structured() {
		return f.Success(ValidationResult{Valid: true, Templates: results})
	}
	if len(results) == 0 {
		fmt.Fprintln(f.Writer, "No templates found.")
		return nil
	}
	fmt.Fprintf(f.Writer, "%s All %d template(s) valid\n", markOK(), len(results))
	return nil
}

// outputValidationErrors outputs every template with problems.
func outputValidationErrors(f *OutputFormatter, results []TemplateValidation) error {
	var failed []TemplateValidation
	count := 0
	for _, r := range results {
		if len(r.Errors) > 0 {
			failed = append(failed, r)
			count += len(r.Errors)
		}
	}

	if f.Structured() {
		first := failed[0].Errors[0]
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Templates: results},
			Error:  &CLIError{Code: ErrCodeValidation, Message: fmt.Sprintf("%s: %s", failed[0].Name, first.Message)},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
	}

	fmt.Fprintf(f.Writer, "%s Validation failed\n", markFail())
	for _, r := range failed {
		fmt.Fprintf(f.Writer, "\n%s\n", r.Name)
		for _, e := range r.Errors {
			if e.Line > 0 {
				fmt.Fprintf(f.Writer, "  line %d\n", e.Line)
			}
			fmt.Fprintf(f.Writer, "  %s: %s %s\n", e.Code, e.Message, faint("("+e.Field+")"))
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
}
