// Package metrics records timings and counters for comparison runs.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/TFMV/csvdiff/pkg/core"
	"go.uber.org/zap"
)

// PhaseTiming is the wall time spent in one step of a run.
type PhaseTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// RunMetrics captures high-level figures for one comparison run.
type RunMetrics struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Phases    []PhaseTiming `json:"phases"`

	SourceRows    int `json:"source_rows"`
	TargetRows    int `json:"target_rows"`
	CommonColumns int `json:"common_columns"`

	StructuralDifferences int `json:"structural_differences"`
	DataDifferences       int `json:"data_differences"`
	AddedRows             int `json:"added_rows"`
	RemovedRows           int `json:"removed_rows"`
	ModifiedRows          int `json:"modified_rows"`
	PositionMatches       int `json:"position_matches"`

	// ModifiedCells is the number of modified cells per column.
	ModifiedCells map[string]int `json:"modified_cells"`
}

// Collector records metrics during a run.
type Collector interface {
	RecordStart(t time.Time)
	RecordPhase(name string, d time.Duration)
	RecordResult(result *core.ComparisonResult)
	RecordEnd(t time.Time)
	Snapshot() RunMetrics
}

// InMemoryCollector keeps the metrics of the latest run in memory.
type InMemoryCollector struct {
	mu  sync.Mutex
	run RunMetrics
}

// NewCollector creates an empty in-memory collector.
func NewCollector() *InMemoryCollector {
	return &InMemoryCollector{}
}

func (c *InMemoryCollector) RecordStart(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run = RunMetrics{StartTime: t}
}

func (c *InMemoryCollector) RecordPhase(name string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run.Phases = append(c.run.Phases, PhaseTiming{Name: name, Duration: d})
}

func (c *InMemoryCollector) RecordResult(result *core.ComparisonResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run.SourceRows = result.Source.Rows
	c.run.TargetRows = result.Target.Rows
	c.run.CommonColumns = len(result.Data.CommonColumns)
	c.run.StructuralDifferences = len(result.Structure.Findings())
	c.run.DataDifferences = len(result.Data.Findings())
	c.run.AddedRows = result.Data.Count(core.RowAdded)
	c.run.RemovedRows = result.Data.Count(core.RowRemoved)
	c.run.ModifiedRows = result.Data.Count(core.RowModified)
	c.run.PositionMatches = len(result.Positions)
	c.run.ModifiedCells = result.Data.ColumnChanges()
}

func (c *InMemoryCollector) RecordEnd(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run.EndTime = t
	c.run.Duration = t.Sub(c.run.StartTime)
}

// Snapshot returns a copy of the recorded metrics.
func (c *InMemoryCollector) Snapshot() RunMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	run := c.run
	run.Phases = append([]PhaseTiming(nil), c.run.Phases...)
	if c.run.ModifiedCells != nil {
		run.ModifiedCells = make(map[string]int, len(c.run.ModifiedCells))
		for k, v := range c.run.ModifiedCells {
			run.ModifiedCells[k] = v
		}
	}
	return run
}

// Log writes the run metrics as a single structured log entry.
func Log(logger *zap.Logger, run RunMetrics) {
	fields := []zap.Field{
		zap.Duration("duration", run.Duration),
		zap.Int("source_rows", run.SourceRows),
		zap.Int("target_rows", run.TargetRows),
		zap.Int("structural_differences", run.StructuralDifferences),
		zap.Int("data_differences", run.DataDifferences),
		zap.Int("position_matches", run.PositionMatches),
	}
	for _, phase := range run.Phases {
		fields = append(fields, zap.Duration("phase_"+phase.Name, phase.Duration))
	}
	logger.Info("Comparison metrics", fields...)
}

// -----------------------------
// Metrics Storage
// -----------------------------

// MetricsStore abstracts run metrics storage.
type MetricsStore interface {
	Save(run RunMetrics) error
	SaveWithContext(ctx context.Context, run RunMetrics) error
}

// JSONMetricsStore stores run metrics as JSON.
type JSONMetricsStore struct {
	FilePath string
}

func (j *JSONMetricsStore) Save(run RunMetrics) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	if j.FilePath != "" {
		return os.WriteFile(j.FilePath, data, 0644)
	}
	fmt.Fprintln(os.Stderr, string(data))
	return nil
}

func (j *JSONMetricsStore) SaveWithContext(ctx context.Context, run RunMetrics) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return j.Save(run)
	}
}
