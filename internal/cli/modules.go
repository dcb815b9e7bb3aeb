package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Engine bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates, optionally with engine modules",
		Long: `List stored templates as virtual modules (category actinia-module).

Templates whose name contains "example" are skipped. With --engine, the
modules known to the interface description source are listed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts.RootOptions, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
				modules, err := rt.Engine.List(ctx, opts.Engine)
				if err != nil {
					return f.Fail(err)
				}
				if f.Structured() {
					return f.Success(modules)
				}
				printModuleList(f.Writer, modules)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Engine, "engine", false, "include engine modules")
	return cmd
}

// DescribedModule is the structured output of describe.
type DescribedModule struct {
	*ir.Module
	Digest string `json:"digest"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "describe <module>",
		Short: "Describe an engine module or a template",
		Long: `Print the interface of a module.

A stored template is synthesized into a virtual module: its placeholders
become parameters and returns typed after the engine modules they feed.
Any other name is described by the interface description source.
Structured output carries a digest of the description, stable across runs
for the same template and interfaces.

With --refresh, a cached description of the module is dropped first.

Examples:
  gmod describe r.slope.aspect
  gmod describe r.slope.aspect --refresh
  gmod describe slope_aspect --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(rootOpts, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
				if refresh {
					if err := rt.Describer.Refresh(ctx, args[0]); err != nil {
						f.VerboseLog("refresh %s: %v", args[0], err)
					}
				}
				m, err := rt.Engine.Describe(ctx, args[0])
				if err != nil {
					return f.Fail(err)
				}
				if f.Structured() {
					digest, err := ir.ModuleDigest(m)
					if err != nil {
						return f.Fail(err)
					}
					return f.Success(DescribedModule{Module: m, Digest: digest})
				}
				printModule(f.Writer, m)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop the cached description before describing")
	return cmd
}

func printModuleList(w io.Writer, modules []ir.Module) {
	if len(modules) == 0 {
		fmt.Fprintln(w, "No modules found.")
		return
	}
	width := 0
	for _, m := range modules {
		width = max(width, len(m.ID))
	}
	for _, m := range modules {
		fmt.Fprintf(w, "%-*s  %s  %s\n", width, m.ID, faint("["+strings.Join(m.Categories, ", ")+"]"), firstLine(m.Description))
	}
}

func printModule(w io.Writer, m *ir.Module) {
	fmt.Fprintf(w, "%s %s\n", m.ID, faint("["+strings.Join(m.Categories, ", ")+"]"))
	if m.Description != "" {
		fmt.Fprintf(w, "  %s\n", m.Description)
	}
	printParameters(w, "Parameters", m.Parameters)
	printParameters(w, "Returns", m.Returns)
	printParameters(w, "Import options", m.ImportDescr)
	printParameters(w, "Export options", m.Export)
}

func printParameters(w io.Writer, title string, params []ir.Parameter) {
	if len(params) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	width := 0
	for _, p := range params {
		width = max(width, len(p.Name))
	}
	for _, p := range params {
		marker := " "
		if !p.Optional {
			marker = "*"
		}
		typ := p.Schema.Type
		if p.Schema.Subtype != "" {
			typ += "/" + p.Schema.Subtype
		}
		fmt.Fprintf(w, "  %s%-*s  %-14s %s", marker, width, p.Name, typ, p.Description)
		if p.Default != nil {
			fmt.Fprintf(w, " %s", faint("(default: "+*p.Default+")"))
		}
		if len(p.Schema.Enum) > 0 {
			fmt.Fprintf(w, " %s", faint("{"+strings.Join(p.Schema.Enum, ", ")+"}"))
		}
		fmt.Fprintln(w)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
