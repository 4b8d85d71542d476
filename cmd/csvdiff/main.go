// Package main provides the entry point for the csvdiff comparison tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TFMV/csvdiff/config"
	"github.com/TFMV/csvdiff/logger"
	"github.com/TFMV/csvdiff/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("exit status %d", e.code)
}

// cli holds the state shared by the commands of one invocation.
type cli struct {
	v          *viper.Viper
	cfg        *config.Config
	configPath string
	strict     bool
	progress   bool
}

// flagBindings maps configuration keys to the flags that override them.
var flagBindings = map[string]string{
	"reader.delimiter":            "delimiter",
	"diff.ignore_columns":         "ignore",
	"diff.tolerance":              "tolerance",
	"report.format":               "format",
	"report.max_data_differences": "max-data-diffs",
	"report.max_position_matches": "max-position-matches",
	"output.path":                 "output",
	"output.encoding":             "encoding",
	"output.metrics_file":         "metrics-file",
	"log.level":                   "log-level",
	"log.file":                    "log-file",
	"server.port":                 "port",
	"server.prefork":              "prefork",
}

// newRootCommand builds the command tree with a fresh configuration.
func newRootCommand() *cobra.Command {
	c := &cli{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "csvdiff [flags] FILE1 FILE2",
		Short: "Compare two CSV files and show differences",
		Long: `csvdiff compares two delimited files and reports structural differences
(columns and row counts), cell-level data differences between rows at the
same position, and rows of the first file that appear elsewhere in the second.`,
		Args:              cobra.ExactArgs(2),
		PersistentPreRunE: c.setup,
		RunE:              c.runCompare,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "Write JSON logs to this file")

	flags := rootCmd.Flags()
	flags.StringP("output", "o", "", "Output file path (optional)")
	flags.String("encoding", "utf-8", "Output file encoding (default: utf-8)")
	flags.StringP("format", "f", "text", "Report format (text, json)")
	flags.Int("max-data-diffs", 50, "Maximum data differences to display (0 shows all)")
	flags.Int("max-position-matches", 20, "Maximum position matches to display (0 shows all)")
	flags.StringP("delimiter", "d", "", "Input delimiter (default: detected from extension)")
	flags.StringSlice("ignore", nil, "Columns to ignore in the comparison")
	flags.Float64("tolerance", 0, "Tolerance for numeric comparisons")
	flags.String("metrics-file", "", "Write run metrics as JSON to this file")
	flags.BoolVar(&c.progress, "progress", false, "Show a spinner on stderr while comparing")
	flags.BoolVar(&c.strict, "strict", false, "Exit with code 2 when the files cannot be loaded")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(c.newServeCommand())

	return rootCmd
}

// setup loads the configuration, binding every flag defined on cmd.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	for key, name := range flagBindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := c.v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg, err := config.LoadConfig(c.v, c.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	if cfg.Log.File != "" {
		logger.SetLogPath(cfg.Log.File)
		logger.ResetLogger()
	}

	c.cfg = cfg
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of csvdiff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	defer logger.Sync()

	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.message != "" {
			fmt.Fprintln(stdout, exitErr.message)
		}
		return exitErr.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// Main entry point for csvdiff
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
