package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/watchfilter/internal/config"
	"github.com/roach88/watchfilter/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Config    string // config file path
	LogLevel  string
	LogFormat string

	// Settings is the resolved configuration; set before any subcommand runs.
	Settings config.Config

	// Logger is built from Settings.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the watchfilter CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "watchfilter",
		Short: "watchfilter - jq filters with host functions",
		Long: `Evaluate jq filters extended with host functions for file
inspection, hashing, logging and a process-wide key-value store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (.yaml, .toml or .cue)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"log level ("+strings.Join(logging.LevelNames(), "|")+")")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json)")

	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewFuncsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve layers flags over the config file and environment, then installs
// the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("log-level"):
		cfg.LogLevel = strings.ToLower(o.LogLevel)
	case o.Verbose:
		cfg.LogLevel = "debug"
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = strings.ToLower(o.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	logger, err := logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	o.Settings = cfg
	o.Logger = logger
	return nil
}

// settings returns the resolved configuration, or the defaults when the
// command runs without its root.
func (o *RootOptions) settings() config.Config {
	if o.Settings == (config.Config{}) {
		return config.Default()
	}
	return o.Settings
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
