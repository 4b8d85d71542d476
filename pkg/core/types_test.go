package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null null", Null(), Null(), true},
		{"null number", Null(), Number(1), false},
		{"text null", Text("x"), Null(), false},
		{"numbers equal", Number(1), Number(1.0), true},
		{"numbers differ", Number(1), Number(2), false},
		{"text equal", Text("a"), Text("a"), true},
		{"text differ", Text("a"), Text("A"), false},
		{"number vs text", Number(1), Text("1"), false},
		{"integer vs number", Integer(3), Number(3), true},
		{"integers past 2^53", Integer(9007199254740993), Integer(9007199254740992), false},
		{"integer vs rounded float", Integer(9007199254740993), Number(9007199254740992), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "null", Null().String())
	assert.Equal(t, "1", Number(1).String())
	assert.Equal(t, "2.5", Number(2.5).String())
	assert.Equal(t, "1234567", Number(1234567).String())
	assert.Equal(t, "-0.001", Number(-0.001).String())
	assert.Equal(t, "9007199254740993", Integer(9007199254740993).String())
	assert.Equal(t, "hello", Text("hello").String())
	assert.Equal(t, "", Text("").String())
}

func TestValueMarshalJSON(t *testing.T) {
	data, err := json.Marshal([]Value{Null(), Number(3), Text("x"), Integer(9007199254740993)})
	require.NoError(t, err)
	assert.Equal(t, `[null,3,"x",9007199254740993]`, string(data))
}

func TestTable(t *testing.T) {
	table, err := NewTable("a.csv", []string{"id", "name"})
	require.NoError(t, err)

	require.NoError(t, table.AppendRow([]Value{Number(1), Text("alice")}))
	assert.Error(t, table.AppendRow([]Value{Number(2)}))

	assert.Equal(t, 1, table.NumRows())
	assert.Equal(t, 2, table.NumColumns())
	assert.Equal(t, 1, table.ColumnIndex("name"))
	assert.Equal(t, -1, table.ColumnIndex("age"))
	assert.True(t, table.HasColumn("id"))
	assert.False(t, table.HasColumn("age"))
	assert.Equal(t, Text("alice"), table.Value(0, "name"))
	assert.True(t, table.Value(0, "age").IsNull())

	_, err = NewTable("dup.csv", []string{"a", "a"})
	assert.Error(t, err)
}

func TestRowDifferenceString(t *testing.T) {
	added := RowDifference{
		Row:    1,
		Change: RowAdded,
		Values: []NamedValue{{"x", Number(2)}, {"y", Text("b")}},
	}
	assert.Equal(t, "Row 2: Added in file2 - {x: 2, y: b}", added.String())

	removed := RowDifference{Row: 4, Change: RowRemoved, Values: []NamedValue{{"x", Null()}}}
	assert.Equal(t, "Row 5: Removed in file2 - {x: null}", removed.String())

	modified := RowDifference{
		Row:    0,
		Change: RowModified,
		Cells: []CellDifference{
			{Row: 0, Column: "a", Source: Number(1), Target: Number(2)},
			{Row: 0, Column: "b", Source: Null(), Target: Text("z")},
		},
	}
	assert.Equal(t, "Row 1: Modified - a: '1' -> '2', b: 'null' -> 'z'", modified.String())
}

func TestPositionMatchString(t *testing.T) {
	match := PositionMatch{Row: 0, Positions: []int{1, 4}}
	assert.Equal(t, "Row 1 from file1 found at position(s) [2, 5] in file2", match.String())
}

func TestStructureDiffFindings(t *testing.T) {
	diff := StructureDiff{
		AddedColumns:   []string{"age", "email"},
		RemovedColumns: []string{"phone"},
		SourceRows:     3,
		TargetRows:     4,
	}
	assert.Equal(t, []string{
		"Added columns in file2: age, email",
		"Removed columns in file2: phone",
		"Row count difference: file1 has 3 rows, file2 has 4 rows",
	}, diff.Findings())

	assert.Empty(t, StructureDiff{SourceRows: 2, TargetRows: 2}.Findings())
}

func TestComparisonResultTotals(t *testing.T) {
	result := &ComparisonResult{
		Structure: StructureDiff{SourceRows: 1, TargetRows: 2},
		Data: DataDiff{
			CommonColumns: []string{"x"},
			Rows:          []RowDifference{{Row: 1, Change: RowAdded}},
		},
		Positions: []PositionMatch{{Row: 0, Positions: []int{1}}},
	}
	assert.Equal(t, 2, result.TotalDifferences())
	assert.False(t, result.Identical())
	assert.Equal(t, 1, result.Data.Count(RowAdded))
	assert.Len(t, result.PositionFindings(), 1)

	noCommon := &ComparisonResult{}
	assert.Equal(t, []string{NoCommonColumnsFinding}, noCommon.Data.Findings())
	assert.Equal(t, 1, noCommon.TotalDifferences())
}

func TestLoadError(t *testing.T) {
	err := fmt.Errorf("load source: %w", &LoadError{Path: "a.csv", Err: ErrEmptyInput})
	assert.True(t, errors.Is(err, ErrEmptyInput))

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "a.csv", loadErr.Path)
	assert.Contains(t, err.Error(), "failed to load a.csv: empty input")
}
