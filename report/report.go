// Package report renders comparison results as text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TFMV/csvdiff/metrics"
	"github.com/TFMV/csvdiff/pkg/core"
)

// Default display limits for the text report.
const (
	DefaultMaxDataDifferences = 50
	DefaultMaxPositionMatches = 20
)

// LoadFailureMessage prefixes the report body when the inputs cannot be loaded.
const LoadFailureMessage = "Failed to load files for comparison"

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for generating reports.
type ReportGenerator interface {
	// GenerateComparisonReport renders a comparison result.
	GenerateComparisonReport(result *core.ComparisonResult) ([]byte, error)

	// GenerateFailureReport renders the report body for a failed comparison.
	GenerateFailureReport(err error) ([]byte, error)
}

// Options configures report generation.
type Options struct {
	// MaxDataDifferences limits the data findings shown in text reports. Zero shows all.
	MaxDataDifferences int

	// MaxPositionMatches limits the position findings shown in text reports. Zero shows all.
	MaxPositionMatches int

	// Metrics, when set, is embedded in JSON reports.
	Metrics *metrics.RunMetrics
}

// NewGenerator returns the generator for a format ("text" or "json").
func NewGenerator(format string, opts Options) (ReportGenerator, error) {
	switch strings.ToLower(format) {
	case "", "text", "txt":
		return &TextReportGenerator{
			MaxDataDifferences: opts.MaxDataDifferences,
			MaxPositionMatches: opts.MaxPositionMatches,
		}, nil
	case "json":
		return &JSONReportGenerator{Metrics: opts.Metrics}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// -----------------------------
// Text Report Generator
// -----------------------------

// TextReportGenerator generates the plain-text report.
type TextReportGenerator struct {
	MaxDataDifferences int
	MaxPositionMatches int
}

const (
	ruleWide   = 60
	ruleNarrow = 30
)

// GenerateComparisonReport builds the text report: summary header,
// structural block, data block, position block and the final verdict.
func (g *TextReportGenerator) GenerateComparisonReport(result *core.ComparisonResult) ([]byte, error) {
	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }

	add(
		strings.Repeat("=", ruleWide),
		"CSV COMPARISON SUMMARY",
		strings.Repeat("=", ruleWide),
		fmt.Sprintf("File 1: %s (%d rows, %d columns)", result.Source.Path, result.Source.Rows, result.Source.Columns),
		fmt.Sprintf("File 2: %s (%d rows, %d columns)", result.Target.Path, result.Target.Rows, result.Target.Columns),
		"",
	)

	structural := result.Structure.Findings()
	if len(structural) > 0 {
		add("STRUCTURAL DIFFERENCES:", strings.Repeat("-", ruleNarrow))
		add(bullets(structural, 0)...)
		add("")
	} else {
		add("✓ No structural differences found", "")
	}

	data := result.Data.Findings()
	if len(data) > 0 {
		add("DATA DIFFERENCES:", strings.Repeat("-", ruleNarrow))
		add(bullets(data, g.MaxDataDifferences)...)
		if g.MaxDataDifferences > 0 && len(data) > g.MaxDataDifferences {
			add(fmt.Sprintf("... and %d more differences", len(data)-g.MaxDataDifferences))
		}
		add("")
	} else {
		add("✓ No data differences found", "")
	}

	if positions := result.PositionFindings(); len(positions) > 0 {
		add("ROW POSITION ANALYSIS:", strings.Repeat("-", ruleNarrow))
		add(bullets(positions, g.MaxPositionMatches)...)
		add("")
	}

	if result.Identical() {
		add("FILES ARE IDENTICAL!")
	} else {
		add(fmt.Sprintf("TOTAL DIFFERENCES FOUND: %d", result.TotalDifferences()))
	}

	return []byte(strings.Join(lines, "\n")), nil
}

// GenerateFailureReport returns the load failure message.
func (g *TextReportGenerator) GenerateFailureReport(err error) ([]byte, error) {
	return []byte(fmt.Sprintf("%s: %v", LoadFailureMessage, err)), nil
}

// bullets prefixes up to limit findings with a bullet. A limit of zero keeps all.
func bullets(findings []string, limit int) []string {
	if limit > 0 && len(findings) > limit {
		findings = findings[:limit]
	}
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = "• " + f
	}
	return out
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator generates JSON reports. JSON reports are never truncated.
type JSONReportGenerator struct {
	Metrics *metrics.RunMetrics
}

// ComparisonReport is the JSON document produced for a comparison.
type ComparisonReport struct {
	Source           core.TableInfo `json:"source"`
	Target           core.TableInfo `json:"target"`
	Identical        bool           `json:"identical"`
	TotalDifferences int            `json:"total_differences"`

	StructuralDifferences []string `json:"structural_differences"`
	DataDifferences       []string `json:"data_differences"`
	PositionAnalysis      []string `json:"position_analysis"`

	Structure core.StructureDiff   `json:"structure"`
	Data      core.DataDiff        `json:"data"`
	Positions []core.PositionMatch `json:"positions"`

	Metrics *metrics.RunMetrics `json:"metrics,omitempty"`
}

// FailureReport is the JSON document produced when loading fails.
type FailureReport struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GenerateComparisonReport serializes the comparison result to JSON.
func (j *JSONReportGenerator) GenerateComparisonReport(result *core.ComparisonResult) ([]byte, error) {
	doc := ComparisonReport{
		Source:                result.Source,
		Target:                result.Target,
		Identical:             result.Identical(),
		TotalDifferences:      result.TotalDifferences(),
		StructuralDifferences: nonNil(result.Structure.Findings()),
		DataDifferences:       nonNil(result.Data.Findings()),
		PositionAnalysis:      nonNil(result.PositionFindings()),
		Structure:             result.Structure,
		Data:                  result.Data,
		Positions:             result.Positions,
		Metrics:               j.Metrics,
	}
	if doc.Structure.AddedColumns == nil {
		doc.Structure.AddedColumns = []string{}
	}
	if doc.Structure.RemovedColumns == nil {
		doc.Structure.RemovedColumns = []string{}
	}
	if doc.Data.CommonColumns == nil {
		doc.Data.CommonColumns = []string{}
	}
	if doc.Data.Rows == nil {
		doc.Data.Rows = []core.RowDifference{}
	}
	if doc.Positions == nil {
		doc.Positions = []core.PositionMatch{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// GenerateFailureReport generates the failure document in JSON format.
func (j *JSONReportGenerator) GenerateFailureReport(err error) ([]byte, error) {
	return json.MarshalIndent(FailureReport{
		Error:   err.Error(),
		Message: LoadFailureMessage,
	}, "", "  ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
