package writers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TFMV/csvdiff/pkg/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when no output encoding is configured.
const DefaultEncoding = "utf-8"

// OutputWriteError reports a failure to write the report to its destination.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}

// asciiAliases are common names for US-ASCII that are not registered IANA aliases.
var asciiAliases = map[string]bool{"ascii": true, "us_ascii": true, "646": true}

// LookupEncoding resolves an encoding name such as "utf-8", "latin1" or
// "shift_jis". IANA names are tried first so that "ascii" and "iso-8859-1"
// mean exactly that; the WHATWG table, which folds both into windows-1252,
// is only a fallback for labels IANA does not know.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEncoding
	}
	if asciiAliases[strings.ToLower(name)] {
		name = "US-ASCII"
	}

	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// FileWriter writes a report to a file, transcoding it from UTF-8.
type FileWriter struct {
	path string
	file *os.File
	w    *transform.Writer
}

// NewFileWriter creates the output file. The encoding is resolved before the
// file is touched so an unknown name leaves the filesystem unchanged.
func NewFileWriter(config core.WriterConfig) (core.ReportWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for file writer")
	}

	enc, err := LookupEncoding(config.Encoding)
	if err != nil {
		return nil, &OutputWriteError{Path: config.Path, Err: err}
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, &OutputWriteError{Path: config.Path, Err: err}
	}

	return &FileWriter{
		path: config.Path,
		file: file,
		w:    transform.NewWriter(file, enc.NewEncoder()),
	}, nil
}

// Write writes the report.
func (w *FileWriter) Write(ctx context.Context, report []byte) error {
	// Check if context is canceled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if _, err := w.w.Write(report); err != nil {
		return &OutputWriteError{Path: w.path, Err: err}
	}
	return nil
}

// Close flushes the encoder and closes the file.
func (w *FileWriter) Close() error {
	var err error

	if w.w != nil {
		if closeErr := w.w.Close(); closeErr != nil {
			err = &OutputWriteError{Path: w.path, Err: closeErr}
		}
		w.w = nil
	}

	// Close the file
	if w.file != nil {
		if closeErr := w.file.Close(); closeErr != nil && err == nil {
			err = &OutputWriteError{Path: w.path, Err: closeErr}
		}
		w.file = nil
	}

	return err
}

// StdoutWriter writes a report to standard output, followed by a newline.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a writer for standard output. Output encoding only
// applies to files.
func NewStdoutWriter(config core.WriterConfig) (core.ReportWriter, error) {
	if config.Out != nil {
		return &StdoutWriter{out: config.Out}, nil
	}
	return &StdoutWriter{out: os.Stdout}, nil
}

// Write writes the report.
func (w *StdoutWriter) Write(ctx context.Context, report []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if _, err := w.out.Write(report); err != nil {
		return &OutputWriteError{Path: "stdout", Err: err}
	}
	if _, err := io.WriteString(w.out, "\n"); err != nil {
		return &OutputWriteError{Path: "stdout", Err: err}
	}
	return nil
}

// Close is a no-op; standard output stays open.
func (w *StdoutWriter) Close() error {
	return nil
}

// WriteReport writes report through a writer created from config and always
// closes it, returning the first error.
func WriteReport(ctx context.Context, factory *Factory, config core.WriterConfig, report []byte) (err error) {
	writer, err := factory.Create(config)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return writer.Write(ctx, report)
}
