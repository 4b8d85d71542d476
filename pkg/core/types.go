// Package core provides the core types and interfaces for the csvdiff table comparison tool.
package core

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TableLoader defines an interface for loading a dataset fully into memory.
type TableLoader interface {
	// Load parses the dataset at path into a Table.
	Load(ctx context.Context, path string) (*Table, error)
}

// ReportWriter defines an interface for writing a rendered report to a destination.
type ReportWriter interface {
	// Write writes the rendered report.
	Write(ctx context.Context, report []byte) error

	// Close flushes pending data and releases the destination.
	Close() error
}

// ReaderConfig provides configuration for creating a loader.
type ReaderConfig struct {
	// Type is the type of the reader ("csv", "tsv").
	Type string

	// Delimiter overrides the type's default field delimiter when non-zero.
	Delimiter rune

	// NullValues lists the cell strings read as missing values.
	NullValues []string

	// ChunkSize is the number of rows parsed per Arrow record.
	ChunkSize int
}

// DiffOptions provides options for the comparison.
type DiffOptions struct {
	// IgnoreColumns specifies columns left out of every comparison step.
	IgnoreColumns []string

	// Tolerance is the relative tolerance for numeric comparisons.
	// Zero means exact equality.
	Tolerance float64
}

// WriterConfig provides configuration for creating a report writer.
type WriterConfig struct {
	// Type is the type of the writer ("file", "stdout").
	Type string

	// Path is the path of the output file.
	Path string

	// Encoding is the text encoding of the output, e.g. "utf-8".
	Encoding string

	// Out overrides the stream of a stdout writer.
	Out io.Writer
}

// Table is an in-memory tabular dataset with ordered rows and named columns.
// Every row holds exactly one Value per column, in column order.
type Table struct {
	// Name identifies the table, usually the path it was loaded from.
	Name string

	// Columns holds the column names in file order.
	Columns []string

	// Rows holds the cell values, aligned to Columns.
	Rows [][]Value

	index map[string]int
}

// NewTable creates an empty table with the given columns.
// Column names must be unique.
func NewTable(name string, columns []string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := index[col]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col)
		}
		index[col] = i
	}

	cols := make([]string, len(columns))
	copy(cols, columns)

	return &Table{
		Name:    name,
		Columns: cols,
		index:   index,
	}, nil
}

// AppendRow appends a row to the table.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of a column, or -1 if the table lacks it.
func (t *Table) ColumnIndex(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at the given row and column.
// A column the table lacks yields Null.
func (t *Table) Value(row int, column string) Value {
	idx, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.Rows[row][idx]
}

// CellDifference records a single cell that differs between the two tables.
type CellDifference struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Source Value  `json:"source"`
	Target Value  `json:"target"`
}

// String renders the difference as "col: 'a' -> 'b'".
func (c CellDifference) String() string {
	return fmt.Sprintf("%s: '%s' -> '%s'", c.Column, c.Source, c.Target)
}

// RowChange classifies a row-level difference.
type RowChange string

const (
	RowAdded    RowChange = "added"
	RowRemoved  RowChange = "removed"
	RowModified RowChange = "modified"
)

// RowDifference describes one row that differs at a given index.
type RowDifference struct {
	// Row is the zero-based row index.
	Row int `json:"row"`

	// Change is the kind of difference.
	Change RowChange `json:"change"`

	// Cells holds the per-column differences of a modified row.
	Cells []CellDifference `json:"cells,omitempty"`

	// Values holds the common-column values of an added or removed row.
	Values []NamedValue `json:"values,omitempty"`
}

// NamedValue pairs a column name with a value.
type NamedValue struct {
	Column string `json:"column"`
	Value  Value  `json:"value"`
}

// String renders the row difference as a single report finding.
func (r RowDifference) String() string {
	switch r.Change {
	case RowAdded:
		return fmt.Sprintf("Row %d: Added in file2 - %s", r.Row+1, formatRow(r.Values))
	case RowRemoved:
		return fmt.Sprintf("Row %d: Removed in file2 - %s", r.Row+1, formatRow(r.Values))
	default:
		parts := make([]string, len(r.Cells))
		for i, cell := range r.Cells {
			parts[i] = cell.String()
		}
		return fmt.Sprintf("Row %d: Modified - %s", r.Row+1, strings.Join(parts, ", "))
	}
}

func formatRow(values []NamedValue) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, nv := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(nv.Column)
		sb.WriteString(": ")
		sb.WriteString(nv.Value.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// PositionMatch records a row of the source table whose content appears in
// the target table at other positions.
type PositionMatch struct {
	// Row is the zero-based index in the source table.
	Row int `json:"row"`

	// Positions are the zero-based indices of matching target rows, ascending.
	Positions []int `json:"positions"`
}

// String renders the match with one-based positions.
func (p PositionMatch) String() string {
	positions := make([]string, len(p.Positions))
	for i, pos := range p.Positions {
		positions[i] = fmt.Sprintf("%d", pos+1)
	}
	return fmt.Sprintf("Row %d from file1 found at position(s) [%s] in file2",
		p.Row+1, strings.Join(positions, ", "))
}

// StructureDiff summarises the column-set and row-count differences.
type StructureDiff struct {
	// AddedColumns are columns only present in the target, sorted.
	AddedColumns []string `json:"added_columns"`

	// RemovedColumns are columns only present in the source, sorted.
	RemovedColumns []string `json:"removed_columns"`

	SourceRows int `json:"source_rows"`
	TargetRows int `json:"target_rows"`
}

// Findings returns the human-readable structural findings.
func (s StructureDiff) Findings() []string {
	var findings []string
	if len(s.AddedColumns) > 0 {
		findings = append(findings, "Added columns in file2: "+strings.Join(s.AddedColumns, ", "))
	}
	if len(s.RemovedColumns) > 0 {
		findings = append(findings, "Removed columns in file2: "+strings.Join(s.RemovedColumns, ", "))
	}
	if s.SourceRows != s.TargetRows {
		findings = append(findings, fmt.Sprintf(
			"Row count difference: file1 has %d rows, file2 has %d rows",
			s.SourceRows, s.TargetRows))
	}
	return findings
}

// NoCommonColumnsFinding is reported when the tables share no columns.
const NoCommonColumnsFinding = "No common columns found for data comparison"

// DataDiff holds the position-wise cell comparison over the common columns.
type DataDiff struct {
	// CommonColumns are the compared columns, sorted.
	CommonColumns []string `json:"common_columns"`

	// Rows holds one entry per differing row index, ascending.
	Rows []RowDifference `json:"rows"`
}

// Findings returns the human-readable data findings.
func (d DataDiff) Findings() []string {
	if len(d.CommonColumns) == 0 {
		return []string{NoCommonColumnsFinding}
	}
	findings := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		findings[i] = row.String()
	}
	return findings
}

// Count returns the number of row changes of the given kind.
func (d DataDiff) Count(change RowChange) int {
	n := 0
	for _, row := range d.Rows {
		if row.Change == change {
			n++
		}
	}
	return n
}

// ColumnChanges returns the number of modified cells per column.
func (d DataDiff) ColumnChanges() map[string]int {
	counts := make(map[string]int)
	for _, row := range d.Rows {
		for _, cell := range row.Cells {
			counts[cell.Column]++
		}
	}
	return counts
}

// TableInfo describes the shape of a loaded table.
type TableInfo struct {
	Path    string `json:"path"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// ComparisonResult is the outcome of comparing two tables.
type ComparisonResult struct {
	Source TableInfo `json:"source"`
	Target TableInfo `json:"target"`

	Structure StructureDiff   `json:"structure"`
	Data      DataDiff        `json:"data"`
	Positions []PositionMatch `json:"positions"`
}

// TotalDifferences returns the structural plus data finding count.
// Position matches are not included.
func (r *ComparisonResult) TotalDifferences() int {
	return len(r.Structure.Findings()) + len(r.Data.Findings())
}

// Identical reports whether no structural or data differences were found.
func (r *ComparisonResult) Identical() bool {
	return r.TotalDifferences() == 0
}

// PositionFindings returns the human-readable position findings.
func (r *ComparisonResult) PositionFindings() []string {
	findings := make([]string, len(r.Positions))
	for i, match := range r.Positions {
		findings[i] = match.String()
	}
	return findings
}
