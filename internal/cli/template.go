package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/actinia-org/actinia-gdi/internal/compiler"
	"github.com/actinia-org/actinia-gdi/internal/store"
)

// TemplateRecord is the structured output of template get.
type TemplateRecord struct {
	Name     string          `json:"name"`
	Hash     string          `json:"hash"`
	Revision int64           `json:"revision,omitempty"`
	Template json.RawMessage `json:"template"`
}

// TemplateChange is the structured output of create, update and delete.
type TemplateChange struct {
	Name       string   `json:"name"`
	Action     string   `json:"action"`
	Duplicates []string `json:"duplicates,omitempty"` // templates with identical content
}

// NewTemplateCommand creates the template command group.
func NewTemplateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage stored templates",
		Long: `Create, read, update and delete process-chain templates in the
configured store. Sources are validated before they are written unless
--no-validate is given. Writing a template whose content is identical to
another stored template succeeds and names the other template.`,
	}

	cmd.AddCommand(newTemplateWriteCommand(rootOpts, "create"))
	cmd.AddCommand(newTemplateWriteCommand(rootOpts, "update"))
	cmd.AddCommand(newTemplateGetCommand(rootOpts))
	cmd.AddCommand(newTemplateDeleteCommand(rootOpts))
	cmd.AddCommand(newTemplateNamesCommand(rootOpts))
	return cmd
}

func newTemplateWriteCommand(rootOpts *RootOptions, action string) *cobra.Command {
	var noValidate bool

	cmd := &cobra.Command{
		Use:   action + " <name> <template.json>",
		Short: fmt.Sprintf("%s a template from a JSON file ('-' for stdin)", titleCase(action)),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			f := NewOutputFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			source, err := readInput(args[1], cmd.InOrStdin())
			if err != nil {
				_ = f.Error(ErrCodeInput, err.Error(), nil)
				return WrapExitError(ExitCommandError, ErrCodeInput, err)
			}
			if !noValidate {
				if errs := compiler.ValidateTemplate(source); len(errs) > 0 {
					return outputValidationErrors(f, []TemplateValidation{{Name: name, Errors: errs}})
				}
			}

			return withRuntime(rootOpts, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
				write := rt.Store.Create
				if action == "update" {
					write = rt.Store.Update
				}
				if err := write(ctx, name, source); err != nil {
					return f.Fail(err)
				}
				change := TemplateChange{Name: name, Action: action + "d"}
				dups, err := store.Duplicates(ctx, rt.Store, name, source)
				if err != nil {
					f.VerboseLog("duplicate lookup for %s: %v", name, err)
				}
				change.Duplicates = dups
				return outputChange(f, change)
			})
		},
	}

	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "store the source without validating it")
	return cmd
}

func newTemplateGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(rootOpts, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
				rec, err := rt.Store.Get(ctx, args[0])
				if err != nil {
					return f.Fail(err)
				}
				if f.Structured() {
					return f.Success(TemplateRecord{
						Name:     rec.Name,
						Hash:     rec.Hash,
						Revision: rec.Revision,
						Template: json.RawMessage(rec.Source),
					})
				}
				_, err = f.Writer.Write(rec.Source)
				return err
			})
		},
	}
}

func newTemplateDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(rootOpts, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
				if err := rt.Store.Delete(ctx, args[0]); err != nil {
					return f.Fail(err)
				}
				return outputChange(f, TemplateChange{Name: args[0], Action: "deleted"})
			})
		},
	}
}

func newTemplateNamesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the names of all stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(rootOpts, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
				names, err := rt.Store.Names(ctx)
				if err != nil {
					return f.Fail(err)
				}
				if f.Structured() {
					return f.Success(names)
				}
				for _, name := range names {
					fmt.Fprintln(f.Writer, name)
				}
				return nil
			})
		},
	}
}

func outputChange(f *OutputFormatter, change TemplateChange) error {
	if f.Structured() {
		return f.Success(change)
	}
	fmt.Fprintf(f.Writer, "%s Template %s %s\n", markOK(), change.Name, change.Action)
	if len(change.Duplicates) > 0 {
		fmt.Fprintf(f.Writer, "  %s\n", faint("same content as: "+strings.Join(change.Duplicates, ", ")))
	}
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
