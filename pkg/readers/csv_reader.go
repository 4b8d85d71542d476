package readers

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/TFMV/csvdiff/logger"
	"github.com/TFMV/csvdiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
)

// DefaultNullValues are the cell strings read as missing values.
var DefaultNullValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "#N/A", "None"}

const defaultChunkSize = 10000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVReader loads delimited files into tables, parsing them with the Arrow CSV reader.
type CSVReader struct {
	delimiter  rune
	nullValues []string
	chunkSize  int
	alloc      memory.Allocator
	logger     *zap.Logger
}

// NewCSVReader creates a new comma-delimited reader.
func NewCSVReader(config core.ReaderConfig) (core.TableLoader, error) {
	return newDelimitedReader(config, ',')
}

// NewTSVReader creates a new tab-delimited reader.
func NewTSVReader(config core.ReaderConfig) (core.TableLoader, error) {
	return newDelimitedReader(config, '\t')
}

func newDelimitedReader(config core.ReaderConfig, delimiter rune) (*CSVReader, error) {
	if config.Delimiter != 0 {
		delimiter = config.Delimiter
	}
	if !validDelimiter(delimiter) {
		return nil, fmt.Errorf("invalid delimiter %q", delimiter)
	}

	nullValues := config.NullValues
	if nullValues == nil {
		nullValues = DefaultNullValues
	}

	// Set default chunk size if not specified
	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	return &CSVReader{
		delimiter:  delimiter,
		nullValues: nullValues,
		chunkSize:  chunkSize,
		alloc:      memory.NewGoAllocator(),
		logger:     logger.GetLogger(),
	}, nil
}

func validDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// Load parses the file at path into a table. The whole file is held in memory.
func (r *CSVReader) Load(ctx context.Context, path string) (*core.Table, error) {
	start := time.Now()
	r.logger.Info("Loading file", zap.String("path", path))

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &core.LoadError{Path: path, Err: core.ErrNotFound}
		}
		return nil, &core.LoadError{Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.LoadError{Path: path, Err: err}
	}

	table, err := r.parse(ctx, path, data)
	if err != nil {
		return nil, &core.LoadError{Path: path, Err: err}
	}

	r.logger.Info("Loaded file",
		zap.String("path", path),
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumColumns()),
		zap.Duration("duration", time.Since(start)),
	)
	return table, nil
}

// parse splits off the header line, then hands the body to the Arrow reader
// with an all-string schema built from the header.
func (r *CSVReader) parse(ctx context.Context, name string, data []byte) (*core.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	header, offset, err := r.readHeader(data)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(header))
	for i, col := range header {
		fields[i] = arrow.Field{Name: col, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	reader := csv.NewReader(
		bytes.NewReader(data[offset:]),
		schema,
		csv.WithComma(r.delimiter),
		csv.WithHeader(false),
		csv.WithChunk(r.chunkSize),
		csv.WithNullReader(true, r.nullValues...),
		csv.WithAllocator(r.alloc),
	)
	defer reader.Release()

	columns := make([]rawColumn, len(header))
	for reader.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record := reader.Record()
		for i := range columns {
			col, ok := record.Column(i).(*array.String)
			if !ok {
				return nil, fmt.Errorf("%w: column %s is not a string column", core.ErrParse, header[i])
			}
			columns[i].append(col)
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}

	return buildTable(name, header, columns)
}

// readHeader returns the de-duplicated column names and the byte offset
// where the body starts.
func (r *CSVReader) readHeader(data []byte) ([]string, int64, error) {
	hr := stdcsv.NewReader(bytes.NewReader(data))
	hr.Comma = r.delimiter
	hr.FieldsPerRecord = -1

	names, err := hr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, core.ErrEmptyInput
		}
		return nil, 0, fmt.Errorf("%w: header: %v", core.ErrParse, err)
	}
	if len(names) == 0 {
		return nil, 0, core.ErrEmptyInput
	}

	return dedupeColumns(names), hr.InputOffset(), nil
}

// dedupeColumns names blank headers "Unnamed: N" and suffixes repeated
// names with ".1", ".2", ...
func dedupeColumns(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	counts := make(map[string]int, len(names))

	for i, name := range names {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for used[candidate] {
			counts[name]++
			candidate = name + "." + strconv.Itoa(counts[name])
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

// rawColumn accumulates the string cells of one column across Arrow chunks.
type rawColumn struct {
	values []string
	valid  []bool
}

func (c *rawColumn) append(arr *array.String) {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			c.values = append(c.values, "")
			c.valid = append(c.valid, false)
			continue
		}
		// Value aliases the record's buffer, which is released on the next chunk.
		c.values = append(c.values, strings.Clone(arr.Value(i)))
		c.valid = append(c.valid, true)
	}
}

// numeric reports whether every non-null cell parses as a number.
func (c *rawColumn) numeric() bool {
	for i, s := range c.values {
		if !c.valid[i] {
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return false
		}
	}
	return true
}

func (c *rawColumn) value(i int, numeric bool) core.Value {
	if !c.valid[i] {
		return core.Null()
	}
	if numeric {
		if n, err := strconv.ParseInt(c.values[i], 10, 64); err == nil {
			return core.Integer(n)
		}
		f, _ := strconv.ParseFloat(c.values[i], 64)
		if math.IsNaN(f) {
			// NaN never equals itself, so it is treated as a missing cell.
			return core.Null()
		}
		return core.Number(f)
	}
	return core.Text(c.values[i])
}

func buildTable(name string, header []string, columns []rawColumn) (*core.Table, error) {
	table, err := core.NewTable(name, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}

	numRows := 0
	if len(columns) > 0 {
		numRows = len(columns[0].values)
	}

	numeric := make([]bool, len(columns))
	for i := range columns {
		if len(columns[i].values) != numRows {
			return nil, fmt.Errorf("%w: column %s has %d cells, expected %d",
				core.ErrParse, header[i], len(columns[i].values), numRows)
		}
		numeric[i] = columns[i].numeric()
	}

	table.Rows = make([][]core.Value, 0, numRows)
	for row := 0; row < numRows; row++ {
		values := make([]core.Value, len(columns))
		for i := range columns {
			values[i] = columns[i].value(row, numeric[i])
		}
		if err := table.AppendRow(values); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
		}
	}
	return table, nil
}
