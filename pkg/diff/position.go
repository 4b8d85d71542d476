package diff

import (
	"strings"

	"github.com/TFMV/csvdiff/pkg/core"
)

// keySeparator joins cell values into a row key. It is not expected to occur in data.
const keySeparator = "\x1f"

// AnalyzePositions finds source rows that differ from the target row at the
// same index but whose content appears at other target indices.
//
// Findings are independent of CompareData: a row that merely moved is
// reported here and also as modified there.
func AnalyzePositions(source, target *core.Table, options core.DiffOptions) []core.PositionMatch {
	common := CommonColumns(source, target, options)
	if len(common) == 0 {
		return nil
	}

	sourceKeys := rowKeys(source, common)
	targetKeys := rowKeys(target, common)

	// key -> ascending target indices
	targetIndex := make(map[string][]int, len(targetKeys))
	for i, key := range targetKeys {
		targetIndex[key] = append(targetIndex[key], i)
	}

	var matches []core.PositionMatch
	for i, key := range sourceKeys {
		if i >= len(targetKeys) {
			break
		}
		if key == targetKeys[i] {
			continue
		}
		if positions, ok := targetIndex[key]; ok {
			matches = append(matches, core.PositionMatch{
				Row:       i,
				Positions: append([]int(nil), positions...),
			})
		}
	}
	return matches
}

// rowKeys builds a content key per row from the display form of the given columns.
func rowKeys(table *core.Table, columns []string) []string {
	idx := columnIndices(table, columns)
	keys := make([]string, table.NumRows())

	var sb strings.Builder
	for i, row := range table.Rows {
		sb.Reset()
		for j := range columns {
			if j > 0 {
				sb.WriteString(keySeparator)
			}
			sb.WriteString(row[idx[j]].String())
		}
		keys[i] = sb.String()
	}
	return keys
}
