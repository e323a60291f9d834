package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/veccoll/internal/domain/record"
)

// delimitedReader reads header-keyed rows from a TSV or CSV file.
// Short rows leave trailing columns absent, extra cells are dropped.
type delimitedReader struct {
	file   *os.File
	r      *csv.Reader
	header []string
	line   int
}

func openDelimited(path string, comma rune) (*delimitedReader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.ReuseRecord = false
	if comma == '\t' {
		// TSV exports carry bare quotes inside free text.
		r.LazyQuotes = true
	}

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			// no header at all: an empty source
			return &delimitedReader{file: nil, r: nil}, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return &delimitedReader{file: f, r: r, header: header, line: 1}, nil
}

// Next returns the next data row or io.EOF.
func (d *delimitedReader) Next() (record.Row, error) {
	if d.r == nil {
		return nil, io.EOF
	}
	cells, err := d.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("line %d: %w", d.line+1, err)
	}
	d.line++

	row := make(record.Row, len(d.header))
	for i, col := range d.header {
		if i >= len(cells) {
			break
		}
		row[col] = cells[i]
	}
	return row, nil
}

// Close releases the underlying file.
func (d *delimitedReader) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}
