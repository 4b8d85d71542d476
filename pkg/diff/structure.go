// Package diff computes structural, cell-level and positional differences between two tables.
package diff

import (
	"sort"

	"github.com/TFMV/csvdiff/pkg/core"
)

// CompareStructure compares the column sets and row counts of two tables.
// Column order does not matter; only set membership does.
func CompareStructure(source, target *core.Table, options core.DiffOptions) core.StructureDiff {
	sourceCols := columnSet(source, options.IgnoreColumns)
	targetCols := columnSet(target, options.IgnoreColumns)

	return core.StructureDiff{
		AddedColumns:   difference(targetCols, sourceCols),
		RemovedColumns: difference(sourceCols, targetCols),
		SourceRows:     source.NumRows(),
		TargetRows:     target.NumRows(),
	}
}

// CommonColumns returns the sorted intersection of the two tables' columns.
func CommonColumns(source, target *core.Table, options core.DiffOptions) []string {
	targetCols := columnSet(target, options.IgnoreColumns)

	var common []string
	for col := range columnSet(source, options.IgnoreColumns) {
		if targetCols[col] {
			common = append(common, col)
		}
	}
	sort.Strings(common)
	return common
}

func columnSet(table *core.Table, ignore []string) map[string]bool {
	set := make(map[string]bool, table.NumColumns())
	for _, col := range table.Columns {
		if !containsString(ignore, col) {
			set[col] = true
		}
	}
	return set
}

// difference returns the sorted members of a that are not in b.
func difference(a, b map[string]bool) []string {
	var out []string
	for col := range a {
		if !b[col] {
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

// containsString checks if a slice contains a string
func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
