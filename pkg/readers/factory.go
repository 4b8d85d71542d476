// Package readers provides loaders that parse delimited files into in-memory tables.
package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TFMV/csvdiff/pkg/core"
)

// Factory creates a loader based on the given configuration.
type Factory struct {
	// registered loaders by type
	readers map[string]Creator
}

// Creator is a function that creates a loader from a configuration.
type Creator func(config core.ReaderConfig) (core.TableLoader, error)

// NewFactory creates a new reader factory.
func NewFactory() *Factory {
	return &Factory{
		readers: make(map[string]Creator),
	}
}

// Register registers a creator for a reader type.
func (f *Factory) Register(typ string, creator Creator) {
	f.readers[typ] = creator
}

// Create creates a loader based on the given configuration.
func (f *Factory) Create(config core.ReaderConfig) (core.TableLoader, error) {
	creator, ok := f.readers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported reader type: %s", config.Type)
	}
	return creator(config)
}

// DefaultFactory is the default reader factory with built-in reader types.
var DefaultFactory = NewFactory()

// init registers built-in reader types.
func init() {
	DefaultFactory.Register("csv", NewCSVReader)
	DefaultFactory.Register("tsv", NewTSVReader)
}

// DetectType detects the reader type of a file based on its extension.
func DetectType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return "tsv"
	default:
		return "csv"
	}
}
