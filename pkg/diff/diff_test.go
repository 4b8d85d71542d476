package diff

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/TFMV/csvdiff/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTable creates a table with the given columns and rows.
// Cells may be nil, int, float64 or string.
func createTestTable(t *testing.T, name string, columns []string, rows [][]interface{}) *core.Table {
	t.Helper()
	table, err := core.NewTable(name, columns)
	require.NoError(t, err)

	for _, row := range rows {
		values := make([]core.Value, len(row))
		for i, cell := range row {
			switch v := cell.(type) {
			case nil:
				values[i] = core.Null()
			case int:
				values[i] = core.Integer(int64(v))
			case float64:
				values[i] = core.Number(v)
			case string:
				values[i] = core.Text(v)
			default:
				t.Fatalf("unsupported cell type %T", cell)
			}
		}
		require.NoError(t, table.AppendRow(values))
	}
	return table
}

func TestCompareSelfIsIdentical(t *testing.T) {
	table := createTestTable(t, "a.csv", []string{"id", "name", "score"}, [][]interface{}{
		{1, "alice", 9.5},
		{2, nil, nil},
		{3, "carol", 7},
	})

	result := NewComparator(Options{}).CompareTables(table, table)

	assert.Empty(t, result.Structure.Findings())
	assert.Empty(t, result.Data.Findings())
	assert.Empty(t, result.Positions)
	assert.True(t, result.Identical())
	assert.Equal(t, 0, result.TotalDifferences())
}

func TestCompareStructure(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"id", "name"}, nil)
	b := createTestTable(t, "b.csv", []string{"id", "name", "age"}, nil)

	diff := CompareStructure(a, b, core.DiffOptions{})
	assert.Equal(t, []string{"Added columns in file2: age"}, diff.Findings())

	// Swapping the files flips added and removed, labels still say file2.
	swapped := CompareStructure(b, a, core.DiffOptions{})
	assert.Equal(t, []string{"Removed columns in file2: age"}, swapped.Findings())
}

func TestCompareStructureOrderAndRowCount(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"z", "b", "keep"}, [][]interface{}{{1, 2, 3}})
	b := createTestTable(t, "b.csv", []string{"keep", "y", "a"}, [][]interface{}{{1, 2, 3}, {4, 5, 6}})

	diff := CompareStructure(a, b, core.DiffOptions{})
	assert.Equal(t, []string{
		"Added columns in file2: a, y",
		"Removed columns in file2: b, z",
		"Row count difference: file1 has 1 rows, file2 has 2 rows",
	}, diff.Findings())
}

func TestCompareStructureIgnoresColumnOrder(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"x", "y"}, nil)
	b := createTestTable(t, "b.csv", []string{"y", "x"}, nil)

	assert.Empty(t, CompareStructure(a, b, core.DiffOptions{}).Findings())
}

func TestCompareDataAddedRow(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"x"}, [][]interface{}{{1}})
	b := createTestTable(t, "b.csv", []string{"x"}, [][]interface{}{{1}, {2}})

	diff := CompareData(a, b, core.DiffOptions{})
	assert.Equal(t, []string{"Row 2: Added in file2 - {x: 2}"}, diff.Findings())
	assert.Equal(t, 1, diff.Count(core.RowAdded))
	assert.Equal(t, 0, diff.Count(core.RowModified))
	assert.Equal(t, 0, diff.Count(core.RowRemoved))
}

func TestCompareDataRemovedRow(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"x", "y"}, [][]interface{}{{1, "a"}, {2, "b"}})
	b := createTestTable(t, "b.csv", []string{"y", "x"}, [][]interface{}{{"a", 1}})

	diff := CompareData(a, b, core.DiffOptions{})
	assert.Equal(t, []string{"Row 2: Removed in file2 - {x: 2, y: b}"}, diff.Findings())
}

func TestCompareSwappedRows(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"x"}, [][]interface{}{{1}, {2}})
	b := createTestTable(t, "b.csv", []string{"x"}, [][]interface{}{{2}, {1}})

	result := NewComparator(Options{}).CompareTables(a, b)

	assert.Equal(t, []string{
		"Row 1: Modified - x: '1' -> '2'",
		"Row 2: Modified - x: '2' -> '1'",
	}, result.Data.Findings())
	assert.Equal(t, []string{
		"Row 1 from file1 found at position(s) [2] in file2",
		"Row 2 from file1 found at position(s) [1] in file2",
	}, result.PositionFindings())

	// Position matches do not count toward the total.
	assert.Equal(t, 2, result.TotalDifferences())
}

func TestCompareDataNulls(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"x", "y"}, [][]interface{}{{nil, nil}, {nil, "v"}})
	b := createTestTable(t, "b.csv", []string{"x", "y"}, [][]interface{}{{nil, 1}, {0, nil}})

	diff := CompareData(a, b, core.DiffOptions{})
	require.Len(t, diff.Rows, 2)

	// Null vs null never differs; null vs value always does.
	assert.Equal(t, "Row 1: Modified - y: 'null' -> '1'", diff.Rows[0].String())
	assert.Equal(t, "Row 2: Modified - x: 'null' -> '0', y: 'v' -> 'null'", diff.Rows[1].String())
}

func TestCompareDataNoCoercion(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"code"}, [][]interface{}{{1}, {"x"}})
	b := createTestTable(t, "b.csv", []string{"code"}, [][]interface{}{{"1"}, {"x"}})

	diff := CompareData(a, b, core.DiffOptions{})
	assert.Equal(t, []string{"Row 1: Modified - code: '1' -> '1'"}, diff.Findings())
}

func TestCompareDataRestrictedToCommonColumns(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"id", "name"}, [][]interface{}{{1, "ann"}})
	b := createTestTable(t, "b.csv", []string{"id", "name", "age"}, [][]interface{}{{1, "ann", 40}})

	result := NewComparator(Options{}).CompareTables(a, b)
	assert.Equal(t, []string{"Added columns in file2: age"}, result.Structure.Findings())
	assert.Equal(t, []string{"id", "name"}, result.Data.CommonColumns)
	assert.Empty(t, result.Data.Findings())
	assert.Equal(t, 1, result.TotalDifferences())
}

func TestCompareDataNoCommonColumns(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"a"}, [][]interface{}{{1}})
	b := createTestTable(t, "b.csv", []string{"b"}, [][]interface{}{{1}, {2}})

	result := NewComparator(Options{}).CompareTables(a, b)
	assert.Equal(t, []string{core.NoCommonColumnsFinding}, result.Data.Findings())
	assert.Empty(t, result.Data.Rows)
	assert.Empty(t, result.Positions)
	// added column, removed column, row count, no common columns
	assert.Equal(t, 4, result.TotalDifferences())
}

func TestCompareDataIgnoreColumns(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"id", "updated"}, [][]interface{}{{1, "mon"}})
	b := createTestTable(t, "b.csv", []string{"id", "updated", "extra"}, [][]interface{}{{1, "tue", 5}})

	options := core.DiffOptions{IgnoreColumns: []string{"updated", "extra"}}
	result := NewComparator(Options{Diff: options}).CompareTables(a, b)
	assert.True(t, result.Identical())
}

func TestCompareDataTolerance(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"v"}, [][]interface{}{{1.0}, {100.0}})
	b := createTestTable(t, "b.csv", []string{"v"}, [][]interface{}{{1.0000001}, {101.0}})

	exact := CompareData(a, b, core.DiffOptions{})
	assert.Len(t, exact.Rows, 2)

	loose := CompareData(a, b, core.DiffOptions{Tolerance: 0.0001})
	require.Len(t, loose.Rows, 1)
	assert.Equal(t, 1, loose.Rows[0].Row)
}

func TestCompareDataCountIsUntruncated(t *testing.T) {
	rowsA := make([][]interface{}, 75)
	rowsB := make([][]interface{}, 75)
	for i := range rowsA {
		rowsA[i] = []interface{}{i}
		rowsB[i] = []interface{}{i + 1000}
	}
	a := createTestTable(t, "a.csv", []string{"n"}, rowsA)
	b := createTestTable(t, "b.csv", []string{"n"}, rowsB)

	result := NewComparator(Options{}).CompareTables(a, b)
	assert.Len(t, result.Data.Findings(), 75)
	assert.Equal(t, 75, result.TotalDifferences())
}

func TestAnalyzePositionsMultipleMatches(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"k", "v"}, [][]interface{}{{"a", 1}, {"b", 2}, {"c", 3}})
	b := createTestTable(t, "b.csv", []string{"v", "k"}, [][]interface{}{{9, "z"}, {1, "a"}, {3, "c"}, {1, "a"}})

	matches := AnalyzePositions(a, b, core.DiffOptions{})
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Row)
	assert.Equal(t, []int{1, 3}, matches[0].Positions)
	assert.Equal(t, "Row 1 from file1 found at position(s) [2, 4] in file2", matches[0].String())
}

func TestAnalyzePositionsOnlyOverlappingIndices(t *testing.T) {
	// Row 3 of a exists in b but a's extra rows have no counterpart index.
	a := createTestTable(t, "a.csv", []string{"x"}, [][]interface{}{{1}, {2}, {3}})
	b := createTestTable(t, "b.csv", []string{"x"}, [][]interface{}{{3}})

	matches := AnalyzePositions(a, b, core.DiffOptions{})
	assert.Empty(t, matches)
}

func TestAnalyzePositionsNullKeys(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"x", "y"}, [][]interface{}{{nil, 1}, {2, 2}})
	b := createTestTable(t, "b.csv", []string{"x", "y"}, [][]interface{}{{2, 2}, {nil, 1}})

	matches := AnalyzePositions(a, b, core.DiffOptions{})
	require.Len(t, matches, 2)
	assert.Equal(t, []int{1}, matches[0].Positions)
	assert.Equal(t, []int{0}, matches[1].Positions)
}

func TestRowKeysDoNotCollideAcrossCells(t *testing.T) {
	a := createTestTable(t, "a.csv", []string{"x", "y"}, [][]interface{}{{"a|b", "c"}})
	b := createTestTable(t, "b.csv", []string{"x", "y"}, [][]interface{}{{"a", "b|c"}})

	assert.NotEqual(t, rowKeys(a, []string{"x", "y"})[0], rowKeys(b, []string{"x", "y"})[0])
}

func TestFloatEqual(t *testing.T) {
	assert.True(t, floatEqual(1.0, 1.0, 0.0001))
	assert.True(t, floatEqual(1.0, 1.0000001, 0.0001))
	assert.False(t, floatEqual(1.0, 1.001, 0.0001))
	assert.True(t, floatEqual(0.0, 0.00005, 0.0001))
	assert.False(t, floatEqual(0.0, 0.0002, 0.0001))
	assert.True(t, floatEqual(math.NaN(), math.NaN(), 0.0001))
	assert.True(t, floatEqual(math.Inf(1), math.Inf(1), 0.0001))
	assert.False(t, floatEqual(math.Inf(1), math.Inf(-1), 0.0001))
}

func TestContainsString(t *testing.T) {
	assert.True(t, containsString([]string{"a", "b", "c"}, "b"))
	assert.False(t, containsString([]string{"a", "b", "c"}, "d"))
	assert.False(t, containsString([]string{}, "a"))
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestComparatorCompareFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "id,name\n1,ann\n2,bob\n")
	b := writeCSV(t, dir, "b.csv", "id,name,age\n1,ann,30\n2,rob,40\n3,cat,50\n")

	comparator := NewComparator(Options{})
	result, err := comparator.Compare(context.Background(), a, b)
	require.NoError(t, err)

	assert.Equal(t, core.TableInfo{Path: a, Rows: 2, Columns: 2}, result.Source)
	assert.Equal(t, core.TableInfo{Path: b, Rows: 3, Columns: 3}, result.Target)
	assert.Equal(t, []string{
		"Row 2: Modified - name: 'bob' -> 'rob'",
		"Row 3: Added in file2 - {id: 3, name: cat}",
	}, result.Data.Findings())
	assert.Equal(t, 4, result.TotalDifferences())

	run := comparator.Metrics().Snapshot()
	assert.Equal(t, 2, run.SourceRows)
	assert.Equal(t, 1, run.AddedRows)
	assert.Equal(t, 1, run.ModifiedRows)
	assert.Equal(t, map[string]int{"name": 1}, run.ModifiedCells)
	assert.Len(t, run.Phases, 4)
	assert.False(t, run.EndTime.Before(run.StartTime))
}

func TestComparatorMixedFileTypes(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "id,name\n1,ann\n")
	b := writeCSV(t, dir, "b.tsv", "id\tname\n1\tann\n")

	result, err := NewComparator(Options{}).Compare(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, result.Identical())
}

func TestComparatorLoadFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", "id\n1\n")
	empty := writeCSV(t, dir, "empty.csv", "")
	ragged := writeCSV(t, dir, "ragged.csv", "a,b\n1,2,3\n4,5\n")

	tests := []struct {
		source, target string
		want           error
	}{
		{filepath.Join(dir, "missing.csv"), good, core.ErrNotFound},
		{good, empty, core.ErrEmptyInput},
		{ragged, good, core.ErrParse},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s vs %s", filepath.Base(tt.source), filepath.Base(tt.target)), func(t *testing.T) {
			result, err := NewComparator(Options{}).Compare(context.Background(), tt.source, tt.target)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var loadErr *core.LoadError
			assert.True(t, errors.As(err, &loadErr))
		})
	}
}

func TestComparatorUnknownReaderType(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "id\n1\n")

	comparator := NewComparator(Options{Reader: core.ReaderConfig{Type: "xlsx"}})
	_, err := comparator.Compare(context.Background(), a, a)

	var loadErr *core.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "unsupported reader type")
}

func TestCompareLargeIntegersStayDistinct(t *testing.T) {
	source := createTestTable(t, "a.csv", []string{"id"}, [][]interface{}{{9007199254740992}})
	target := createTestTable(t, "b.csv", []string{"id"}, [][]interface{}{{9007199254740993}})

	result := NewComparator(Options{}).CompareTables(source, target)

	require.Len(t, result.Data.Rows, 1)
	assert.Equal(t, "Row 1: Modified - id: '9007199254740992' -> '9007199254740993'", result.Data.Rows[0].String())
}
