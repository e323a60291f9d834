// Package source reads tabular files (TSV, CSV, Parquet) row by row.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/domain/record"
)

// Reader yields rows lazily in file order. Next returns io.EOF after the last row.
type Reader interface {
	Next() (record.Row, error)
	Close() error
}

// Format identifies a tabular file encoding.
type Format string

const (
	// FormatTSV is tab-separated text with a header line.
	FormatTSV Format = "tsv"
	// FormatCSV is comma-separated text with a header line.
	FormatCSV Format = "csv"
	// FormatParquet is an Apache Parquet file.
	FormatParquet Format = "parquet"
)

// DetectFormat picks the format from the file extension; unknown extensions read as TSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".parquet", ".pq":
		return FormatParquet
	default:
		return FormatTSV
	}
}

// Exists reports whether path names an existing regular file.
// Any other state is reported as domain.ErrSourceNotFound.
func Exists(path string) error {
	if path == "" {
		return fmt.Errorf("no source path bound: %w", domain.ErrSourceNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("source file not found: %s: %w", path, domain.ErrSourceNotFound)
		}
		return fmt.Errorf("stat source %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("source %s is a directory: %w", path, domain.ErrSourceNotFound)
	}
	return nil
}

// Open checks the file exists and returns a Reader for its format.
func Open(path string) (Reader, error) {
	if err := Exists(path); err != nil {
		return nil, err
	}
	switch DetectFormat(path) {
	case FormatParquet:
		return openParquet(path)
	case FormatCSV:
		return openDelimited(path, ',')
	default:
		return openDelimited(path, '\t')
	}
}

// Count returns the number of data rows in the file (header excluded).
func Count(path string) (int, error) {
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	if c, ok := r.(interface{ NumRows() int }); ok {
		return c.NumRows(), nil
	}

	n := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("count rows in %s: %w", filepath.Base(path), err)
		}
		n++
	}
}
