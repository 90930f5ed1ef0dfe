package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/petergi/segysak-cli/internal/config"
	"github.com/petergi/segysak-cli/internal/logger"
)

// Name is the program name printed by --version.
const Name = "segysak"

// Version, Commit and Date are set at build time via ldflags in main.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootFlags contains global flags shared across all commands
type RootFlags struct {
	Format     string
	Report     string
	Color      bool
	Verbose    bool
	ConfigPath string
	LogLevel   string

	cfg config.Config
}

// NewRootCmd creates the root command for the CLI
func NewRootCmd() *cobra.Command {
	flags := &RootFlags{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   Name + " <command> <file>",
		Short: "Inspect and convert SEG-Y seismic files",
		Long: `segysak - SEG-Y Swiss Army Knife

Inspect SEG-Y seismic files and convert them to and from NetCDF.

  - 'scan' summarises the trace headers of a file.
  - 'ebcidc' prints the textual file header.
  - 'convert' turns SEG-Y into NetCDF and back.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Trace header statistics
  segysak scan survey.sgy
  segysak scan survey.sgy --max-traces 0 --format json

  # Textual header
  segysak ebcidc survey.sgy

  # Conversion
  segysak convert survey.sgy
  segysak convert survey.sgy --iline 9 --xline 21 -o cube.seisnc
  segysak convert cube.seisnc --output-type SEGY -o survey_copy.sgy`,
	}
	cmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&flags.Format, "format", "f", "text", "Output format: text, json, markdown, yaml")
	cmd.PersistentFlags().StringVar(&flags.Report, "report", "", "Write report to file instead of stdout")
	cmd.PersistentFlags().BoolVar(&flags.Color, "color", true, "Enable colorized output")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "Config file (default $"+config.EnvPath+")")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		return flags.setup(c)
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapCLIError(ExitUsage, "invalid flag", err)
	})

	// The root command only reports what is missing: a file or a known
	// subcommand.
	cmd.Args = cobra.ArbitraryArgs
	cmd.RunE = func(c *cobra.Command, args []string) error {
		if len(args) == 0 {
			c.SetOut(c.ErrOrStderr())
			_ = c.Usage()
			return NewCLIError(ExitUsage, "no input file: a command and a file are required")
		}

		msg := fmt.Sprintf("unknown command %q for %q", args[0], Name)
		if suggestions := c.SuggestionsFor(args[0]); len(suggestions) > 0 {
			msg += "\n\nDid you mean this?\n\t" + strings.Join(suggestions, "\n\t")
		}
		return NewCLIError(ExitUsage, msg+"\n\nRun '"+Name+" --help' for usage")
	}

	cmd.AddCommand(newScanCmd(flags))
	cmd.AddCommand(newEbcidcCmd(flags))
	cmd.AddCommand(newConvertCmd(flags))
	cmd.AddCommand(newBrowseCmd())
	cmd.AddCommand(NewCompletionCmd(cmd))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	return cmd
}

// setup loads the config file, applies it under the flags the user did not
// set and installs the logger.
func (f *RootFlags) setup(c *cobra.Command) error {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return WrapCLIError(ExitUsage, "invalid config", err)
	}
	f.cfg = cfg

	flagSet := c.Flags()
	if !flagSet.Changed("format") {
		f.Format = cfg.Output.Format
	}
	if !flagSet.Changed("color") {
		f.Color = cfg.Output.Color
	}

	level := cfg.LogLevel
	if f.LogLevel != "" {
		level = f.LogLevel
	}
	if f.Verbose {
		level = "debug"
	}
	slog.SetDefault(logger.New(logger.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Output: c.ErrOrStderr(),
	}))
	slog.Debug("starting", "command", c.CommandPath(), "version", Version, "commit", Commit, "date", Date)
	return nil
}

// Run executes the CLI with args and returns the process exit code. Reports go
// to stdout, errors and logs to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return int(ExitSuccess)
	}

	// Help wins over every other problem on the command line, including
	// unknown flags that stop cobra before it sees -h.
	if wantsHelp(args) {
		target, _, findErr := cmd.Find(args)
		if findErr != nil || target == nil {
			target = cmd
		}
		target.SetOut(stdout)
		_ = target.Help()
		return int(ExitSuccess)
	}

	asJSON := false
	if f := cmd.PersistentFlags().Lookup("format"); f != nil {
		asJSON = strings.EqualFold(f.Value.String(), "json")
	}
	printError(stderr, asJSON, err)
	return int(exitCodeFor(err))
}

// Execute runs the CLI against the process arguments.
func Execute(ctx context.Context) int {
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func wantsHelp(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-h" || a == "--help" {
			return true
		}
	}
	return false
}

// existingFiles accepts between min and max (0 = unbounded) paths that exist.
// Nothing runs for a path that does not.
func existingFiles(min, max int) cobra.PositionalArgs {
	return func(c *cobra.Command, args []string) error {
		switch {
		case len(args) < min && min == 1:
			return NewCLIError(ExitUsage, "no input file: "+c.Name()+" needs a file path")
		case len(args) < min:
			return NewCLIError(ExitUsage, fmt.Sprintf("%s needs at least %d paths, got %d", c.Name(), min, len(args)))
		case max > 0 && len(args) > max:
			return NewCLIError(ExitUsage, fmt.Sprintf("%s accepts %d path(s), got %d", c.Name(), max, len(args)))
		}
		for _, path := range args {
			if _, err := os.Stat(path); err != nil {
				return WrapCLIError(ExitUsage, "cannot read "+path, err)
			}
		}
		return nil
	}
}

// applyConfigInt sets *dst from the config value when the flag was not given.
func applyConfigInt(flagSet *pflag.FlagSet, name string, dst *int, value int) {
	if !flagSet.Changed(name) {
		*dst = value
	}
}

// applyConfigString sets *dst from the config value when the flag was not given.
func applyConfigString(flagSet *pflag.FlagSet, name string, dst *string, value string) {
	if !flagSet.Changed(name) && value != "" {
		*dst = value
	}
}
