package diff

import (
	"math"

	"github.com/TFMV/csvdiff/pkg/core"
)

// CompareData compares two tables cell by cell at matching row indices,
// restricted to their common columns. Rows past the end of the shorter
// table are reported as added or removed.
func CompareData(source, target *core.Table, options core.DiffOptions) core.DataDiff {
	common := CommonColumns(source, target, options)
	result := core.DataDiff{CommonColumns: common}
	if len(common) == 0 {
		return result
	}

	sourceIdx := columnIndices(source, common)
	targetIdx := columnIndices(target, common)

	maxRows := source.NumRows()
	if target.NumRows() > maxRows {
		maxRows = target.NumRows()
	}

	for i := 0; i < maxRows; i++ {
		switch {
		case i >= source.NumRows():
			result.Rows = append(result.Rows, core.RowDifference{
				Row:    i,
				Change: core.RowAdded,
				Values: namedValues(target.Rows[i], common, targetIdx),
			})
		case i >= target.NumRows():
			result.Rows = append(result.Rows, core.RowDifference{
				Row:    i,
				Change: core.RowRemoved,
				Values: namedValues(source.Rows[i], common, sourceIdx),
			})
		default:
			cells := compareRows(i, source.Rows[i], target.Rows[i], common, sourceIdx, targetIdx, options.Tolerance)
			if len(cells) > 0 {
				result.Rows = append(result.Rows, core.RowDifference{
					Row:    i,
					Change: core.RowModified,
					Cells:  cells,
				})
			}
		}
	}

	return result
}

// compareRows compares one pair of rows column by column.
func compareRows(
	row int,
	sourceRow, targetRow []core.Value,
	columns []string,
	sourceIdx, targetIdx []int,
	tolerance float64,
) []core.CellDifference {
	var cells []core.CellDifference
	for j, col := range columns {
		sourceVal := sourceRow[sourceIdx[j]]
		targetVal := targetRow[targetIdx[j]]

		if valuesEqual(sourceVal, targetVal, tolerance) {
			continue
		}
		cells = append(cells, core.CellDifference{
			Row:    row,
			Column: col,
			Source: sourceVal,
			Target: targetVal,
		})
	}
	return cells
}

// valuesEqual treats two nulls as equal and a null against anything else as
// different. Numbers are compared with tolerance when one is set.
func valuesEqual(a, b core.Value, tolerance float64) bool {
	if a.IsNull() && b.IsNull() {
		return true
	}
	if a.IsNull() || b.IsNull() {
		return false
	}
	if tolerance > 0 {
		fa, aok := a.Float()
		fb, bok := b.Float()
		if aok && bok {
			return floatEqual(fa, fb, tolerance)
		}
	}
	return a.Equal(b)
}

// floatEqual compares two float values with tolerance
func floatEqual(a, b, tolerance float64) bool {
	if a == b {
		return true
	}

	// Handle special cases like NaN, +/-Inf
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}

	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}

	// Compare with tolerance
	diff := math.Abs(a - b)
	if a == 0 || b == 0 {
		return diff < tolerance
	}

	// Use relative tolerance based on the larger value
	return diff/math.Max(math.Abs(a), math.Abs(b)) < tolerance
}

// columnIndices maps each named column to its position in the table.
func columnIndices(table *core.Table, columns []string) []int {
	idx := make([]int, len(columns))
	for i, col := range columns {
		idx[i] = table.ColumnIndex(col)
	}
	return idx
}

func namedValues(row []core.Value, columns []string, idx []int) []core.NamedValue {
	values := make([]core.NamedValue, len(columns))
	for i, col := range columns {
		values[i] = core.NamedValue{Column: col, Value: row[idx[i]]}
	}
	return values
}
