package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/veccoll/internal/domain/record"
)

// parquetReader streams rows of a Parquet file row group by row group.
// Null values leave the column absent; repeated columns are joined with ",".
type parquetReader struct {
	file    *os.File
	pf      *parquet.File
	columns []string // leaf column index -> dotted column name
	groups  []parquet.RowGroup
	group   int
	rows    parquet.Rows
	buf     []parquet.Row
	pending []parquet.Row
}

func openParquet(path string) (*parquetReader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet %s: %w", filepath.Base(path), err)
	}

	leaves := pf.Schema().Columns()
	columns := make([]string, len(leaves))
	for i, p := range leaves {
		columns[i] = columnName(p)
	}

	return &parquetReader{
		file:    f,
		pf:      pf,
		columns: columns,
		groups:  pf.RowGroups(),
		buf:     make([]parquet.Row, 256),
	}, nil
}

// columnName drops the list/element wrappers parquet writers add around repeated values.
func columnName(path []string) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, 0, len(path))
	for i, p := range path {
		if i > 0 && (p == "list" || p == "element" || p == "item" || p == "array") {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ".")
}

// NumRows reports the row count from the file footer without decoding pages.
func (r *parquetReader) NumRows() int {
	return int(r.pf.NumRows())
}

// Next returns the next row or io.EOF.
func (r *parquetReader) Next() (record.Row, error) {
	for len(r.pending) == 0 {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	row := r.pending[0]
	r.pending = r.pending[1:]
	return r.convert(row), nil
}

func (r *parquetReader) fill() error {
	for {
		if r.rows == nil {
			if r.group >= len(r.groups) {
				return io.EOF
			}
			r.rows = r.groups[r.group].Rows()
			r.group++
		}

		n, err := r.rows.ReadRows(r.buf)
		if n > 0 {
			r.pending = r.buf[:n]
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("read rows: %w", err)
			}
			_ = r.rows.Close()
			r.rows = nil
		}
		if n > 0 {
			return nil
		}
	}
}

func (r *parquetReader) convert(row parquet.Row) record.Row {
	out := make(record.Row, len(r.columns))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(r.columns) || v.IsNull() {
			continue
		}
		name := r.columns[col]
		var s string
		switch v.Kind() {
		case parquet.ByteArray, parquet.FixedLenByteArray:
			// copy out of the page buffer, which the next ReadRows reuses
			s = string(v.ByteArray())
		default:
			s = v.String()
		}
		if prev, ok := out[name]; ok {
			s = prev + "," + s
		}
		out[name] = s
	}
	return out
}

// Close releases the row reader and the file.
func (r *parquetReader) Close() error {
	if r.rows != nil {
		_ = r.rows.Close()
		r.rows = nil
	}
	return r.file.Close()
}
