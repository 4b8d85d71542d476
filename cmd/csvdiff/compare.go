package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TFMV/csvdiff/config"
	"github.com/TFMV/csvdiff/logger"
	"github.com/TFMV/csvdiff/metrics"
	"github.com/TFMV/csvdiff/pkg/core"
	"github.com/TFMV/csvdiff/pkg/diff"
	"github.com/TFMV/csvdiff/pkg/writers"
	"github.com/TFMV/csvdiff/report"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCompare compares FILE1 against FILE2 and writes the report.
func (c *cli) runCompare(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	log := logger.GetLogger()

	// Validate input files
	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return &exitError{code: 1, message: fmt.Sprintf("Error: File '%s' does not exist", path)}
		}
	}

	// Set up context with signal handling
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	comparator := diff.NewComparator(diff.Options{
		Reader:  readerConfig(c.cfg.Reader),
		Diff:    diffOptions(c.cfg.Diff),
		Logger:  log,
		Metrics: collector,
	})

	var sp *spinner.Spinner
	if c.progress {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		sp.Suffix = " Comparing " + args[0] + " with " + args[1]
		sp.Start()
	}

	result, compareErr := comparator.Compare(ctx, args[0], args[1])
	if sp != nil {
		sp.Stop()
	}

	run := collector.Snapshot()
	metrics.Log(log, run)
	if c.cfg.Output.MetricsFile != "" {
		store := &metrics.JSONMetricsStore{FilePath: c.cfg.Output.MetricsFile}
		if err := store.SaveWithContext(ctx, run); err != nil {
			log.Warn("Failed to save metrics", zap.String("path", c.cfg.Output.MetricsFile), zap.Error(err))
		}
	}

	generator, err := report.NewGenerator(c.cfg.Report.Format, report.Options{
		MaxDataDifferences: c.cfg.Report.MaxDataDifferences,
		MaxPositionMatches: c.cfg.Report.MaxPositionMatches,
		Metrics:            &run,
	})
	if err != nil {
		return err
	}

	var body []byte
	if compareErr != nil {
		var loadErr *core.LoadError
		if !errors.As(compareErr, &loadErr) {
			return compareErr
		}
		body, err = generator.GenerateFailureReport(compareErr)
	} else {
		body, err = generator.GenerateComparisonReport(result)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	emitReport(ctx, out, c.cfg.Output, body)

	if compareErr != nil && c.strict {
		return &exitError{code: 2}
	}
	return nil
}

// emitReport prints the report, or saves it to the output file and falls
// back to printing it when the file cannot be written.
func emitReport(ctx context.Context, out io.Writer, output config.OutputConfig, body []byte) {
	if output.Path == "" {
		stdout := core.WriterConfig{Type: "stdout", Out: out}
		if err := writers.WriteReport(ctx, writers.DefaultFactory, stdout, body); err != nil {
			logger.GetLogger().Error("Failed to write report", zap.Error(err))
		}
		return
	}

	file := core.WriterConfig{Type: "file", Path: output.Path, Encoding: output.Encoding}
	if err := writers.WriteReport(ctx, writers.DefaultFactory, file, body); err != nil {
		fmt.Fprintf(out, "Error writing to output file: %v\n", err)
		fmt.Fprintln(out, "\nResults:")
		fmt.Fprintln(out, string(body))
		return
	}
	fmt.Fprintf(out, "Comparison results saved to: %s\n", output.Path)
}

func readerConfig(rc config.ReaderConfig) core.ReaderConfig {
	return core.ReaderConfig{
		Type:       rc.Type,
		Delimiter:  rc.DelimiterRune(),
		NullValues: rc.NullValues,
		ChunkSize:  rc.ChunkSize,
	}
}

func diffOptions(dc config.DiffConfig) core.DiffOptions {
	return core.DiffOptions{
		IgnoreColumns: dc.IgnoreColumns,
		Tolerance:     dc.Tolerance,
	}
}
