package diff

import (
	"context"
	"time"

	"github.com/TFMV/csvdiff/metrics"
	"github.com/TFMV/csvdiff/pkg/core"
	"github.com/TFMV/csvdiff/pkg/readers"
	"go.uber.org/zap"
)

// Options configures a Comparator.
type Options struct {
	// Reader is the loader configuration. An empty Type is detected per file.
	Reader core.ReaderConfig

	// Diff holds the comparison options.
	Diff core.DiffOptions

	// Factory creates loaders. Defaults to readers.DefaultFactory.
	Factory *readers.Factory

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics defaults to a fresh in-memory collector.
	Metrics metrics.Collector
}

// Comparator loads two tables and runs the structure, data and position
// comparisons in sequence.
type Comparator struct {
	reader  core.ReaderConfig
	options core.DiffOptions
	factory *readers.Factory
	logger  *zap.Logger
	metrics metrics.Collector
}

// NewComparator creates a comparator.
func NewComparator(opts Options) *Comparator {
	if opts.Factory == nil {
		opts.Factory = readers.DefaultFactory
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	return &Comparator{
		reader:  opts.Reader,
		options: opts.Diff,
		factory: opts.Factory,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Metrics returns the collector used by the comparator.
func (c *Comparator) Metrics() metrics.Collector {
	return c.metrics
}

// Compare loads both files and compares them. Any load failure aborts the
// comparison and is returned as a *core.LoadError.
func (c *Comparator) Compare(ctx context.Context, sourcePath, targetPath string) (*core.ComparisonResult, error) {
	start := time.Now()
	c.metrics.RecordStart(start)
	defer func() { c.metrics.RecordEnd(time.Now()) }()

	source, err := c.load(ctx, sourcePath)
	if err != nil {
		c.logger.Error("Failed to load source", zap.String("path", sourcePath), zap.Error(err))
		return nil, err
	}

	target, err := c.load(ctx, targetPath)
	if err != nil {
		c.logger.Error("Failed to load target", zap.String("path", targetPath), zap.Error(err))
		return nil, err
	}
	c.metrics.RecordPhase("load", time.Since(start))

	return c.CompareTables(source, target), nil
}

// CompareTables compares two loaded tables.
func (c *Comparator) CompareTables(source, target *core.Table) *core.ComparisonResult {
	result := &core.ComparisonResult{
		Source: tableInfo(source),
		Target: tableInfo(target),
	}

	phase := time.Now()
	result.Structure = CompareStructure(source, target, c.options)
	c.metrics.RecordPhase("structure", time.Since(phase))

	phase = time.Now()
	result.Data = CompareData(source, target, c.options)
	c.metrics.RecordPhase("data", time.Since(phase))

	phase = time.Now()
	result.Positions = AnalyzePositions(source, target, c.options)
	c.metrics.RecordPhase("positions", time.Since(phase))

	c.metrics.RecordResult(result)
	c.logger.Info("Comparison finished",
		zap.String("source", source.Name),
		zap.String("target", target.Name),
		zap.Int("total_differences", result.TotalDifferences()),
		zap.Int("position_matches", len(result.Positions)),
	)
	return result
}

func (c *Comparator) load(ctx context.Context, path string) (*core.Table, error) {
	config := c.reader
	if config.Type == "" {
		config.Type = readers.DetectType(path)
	}

	loader, err := c.factory.Create(config)
	if err != nil {
		return nil, &core.LoadError{Path: path, Err: err}
	}
	return loader.Load(ctx, path)
}

func tableInfo(table *core.Table) core.TableInfo {
	return core.TableInfo{
		Path:    table.Name,
		Rows:    table.NumRows(),
		Columns: table.NumColumns(),
	}
}
