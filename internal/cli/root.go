package cli

import (
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/actinia-org/actinia-gdi/internal/config"
	"github.com/actinia-org/actinia-gdi/internal/logging"
)

// RootOptions holds global flags for all commands and the configuration
// loaded from them.
type RootOptions struct {
	Verbose    bool
	Debug      bool
	NoColor    bool
	Format     string // "text" | "json" | "yaml"
	ConfigPath string

	Config config.Config
	Logger zerolog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the gmod CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "gmod",
		Short: "gmod - virtual GRASS modules from process-chain templates",
		Long: `Manage process-chain templates and use them as virtual modules.

A template is a stored process chain whose values contain {{ placeholders }}.
gmod describes a template as if it were a single module, fills it with
concrete values and expands process chains that reference templates.

Configuration is read from --config (YAML), GMOD_* environment variables
and the flags below, in increasing priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.NoColor {
				color.NoColor = true
			}

			cfg, err := config.Load(opts.ConfigPath, cmd.Flags(), opts.Debug)
			if err != nil {
				f := NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
				_ = f.Error(ErrCodeConfig, err.Error(), nil)
				return WrapExitError(ExitCommandError, ErrCodeConfig, err)
			}
			opts.Config = cfg

			level := logging.ConfigureGlobalLogging(cfg.Log.Level)
			opts.Logger = logging.NewLogger("gmod", level)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&opts.Debug, "debug", false, "debug logging (same as --log-level debug)")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored text output")
	pf.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	bindConfigFlags(cmd)

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewFillCommand(opts))
	cmd.AddCommand(NewExpandCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTemplateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// bindConfigFlags declares one persistent flag per entry of config.FlagKeys.
// Defaults live in the config package; a flag only counts when set.
func bindConfigFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("log-level", "", "log level (trace|debug|info|warn|error|disabled)")
	pf.String("store", "", "template store backend (file|sqlite|redis)")
	pf.String("store-dir", "", "template directory for the file backend")
	pf.String("sqlite-path", "", "database path for the sqlite backend")
	pf.String("redis-addr", "", "redis host:port for the redis backend and describe cache")
	pf.String("source", "", "interface description source (exec|dir)")
	pf.String("grass-bin", "", "GRASS executable for the exec source")
	pf.String("xml-dir", "", "directory of <module>.xml dumps for the dir source")
	pf.String("override-dir", "", "directory of curated <module>.json overrides")
	pf.Int("max-depth", 0, "maximum template nesting depth")
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
