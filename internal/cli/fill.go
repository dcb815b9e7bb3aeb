package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// FillOptions holds flags for the fill command.
type FillOptions struct {
	*RootOptions
	Params    []string // name=value pairs
	ItemsFile string
	Chain     bool
}

// NewFillCommand creates the fill command.
func NewFillCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FillOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fill <template>",
		Short: "Fill a template with values",
		Long: `Bind values to the placeholders of a template and print the
resulting process-chain steps. Nested templates are expanded.

Values come from --items, a JSON array of {"param", "value"} items as
sent by actinia clients, and from -p name=value pairs added after them.

Exit codes:
  0 - Steps printed
  1 - Missing or conflicting parameter
  2 - Command error

Examples:
  gmod fill slope_aspect -p elevation=srtm -p slope=slope_out
  gmod fill slope_aspect --items request.json --chain --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter binding name=value (repeatable)")
	cmd.Flags().StringVar(&opts.ItemsFile, "items", "", "JSON file with request items ('-' for stdin)")
	cmd.Flags().BoolVar(&opts.Chain, "chain", false, "wrap the steps in a versioned process chain")

	return cmd
}

func runFill(opts *FillOptions, name string, cmd *cobra.Command) error {
	f := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	items, err := fillItems(opts, cmd.InOrStdin())
	if err != nil {
		_ = f.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeInput, err)
	}
	f.VerboseLog("Filling %s with %d item(s)", name, len(items))

	return withRuntime(opts.RootOptions, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
		steps, err := rt.Engine.Fill(ctx, name, items)
		if err != nil {
			return f.Fail(err)
		}
		var out any = steps
		if opts.Chain {
			out = ir.ProcessChain{Version: ir.ProcessChainVersion, List: steps}
		}
		return outputDocument(f, out)
	})
}

// fillItems reads --items and appends the -p pairs.
func fillItems(opts *FillOptions, stdin io.Reader) ([]ir.Item, error) {
	var items []ir.Item
	if opts.ItemsFile != "" {
		data, err := readInput(opts.ItemsFile, stdin)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("invalid items JSON in %s: %w", opts.ItemsFile, err)
		}
	}
	for _, pair := range opts.Params {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", pair)
		}
		items = append(items, ir.Item{Param: name, Value: value})
	}
	return items, nil
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expand <process-chain.json>",
		Short: "Expand template steps of a process chain",
		Long: `Read a process chain and replace every step whose module names a
stored template with the filled steps of that template. Other steps,
including importer and exporter steps, pass through unchanged.

Use '-' to read the process chain from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewOutputFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				_ = f.Error(ErrCodeInput, err.Error(), nil)
				return WrapExitError(ExitCommandError, ErrCodeInput, err)
			}
			var pc ir.ProcessChain
			if err := json.Unmarshal(data, &pc); err != nil {
				err = fmt.Errorf("invalid process chain %s: %w", args[0], err)
				_ = f.Error(ErrCodeInput, err.Error(), nil)
				return WrapExitError(ExitCommandError, ErrCodeInput, err)
			}

			return withRuntime(rootOpts, cmd, func(ctx context.Context, rt *Runtime, f *OutputFormatter) error {
				out, err := rt.Engine.Expand(ctx, pc)
				if err != nil {
					return f.Fail(err)
				}
				return outputDocument(f, out)
			})
		},
	}
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// outputDocument prints a JSON document. Text output is the bare indented
// document so it can be piped back into expand or an actinia request.
func outputDocument(f *OutputFormatter, v any) error {
	if f.Structured() {
		return f.Success(v)
	}
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
