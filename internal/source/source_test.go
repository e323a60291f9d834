package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/domain/record"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readAll(t *testing.T, path string) []record.Row {
	t.Helper()
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	defer r.Close()

	var rows []record.Row
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows
		}
		if err != nil {
			t.Fatalf("Next(): %v", err)
		}
		rows = append(rows, row)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"cards.tsv":     FormatTSV,
		"cards.TXT":     FormatTSV,
		"cards.csv":     FormatCSV,
		"cards.parquet": FormatParquet,
		"cards.pq":      FormatParquet,
		"cards":         FormatTSV,
	}
	for path, want := range tests {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestOpen_TSV(t *testing.T) {
	path := writeFile(t, "cards.tsv",
		"url\tname\tnumber\n"+
			"https://x/1\tWorm \"big\"\t1\n"+
			"\tSnail\t2\n"+
			"https://x/3\tShort\n")

	rows := readAll(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0]["name"] != `Worm "big"` {
		t.Errorf("row 0 name = %q", rows[0]["name"])
	}
	if v, ok := rows[1]["url"]; !ok || v != "" {
		t.Errorf("row 1 url = %q, %v; want present and empty", v, ok)
	}
	if _, ok := rows[2]["number"]; ok {
		t.Error("short row must leave trailing column absent")
	}
}

func TestOpen_CSV(t *testing.T) {
	path := writeFile(t, "cards.csv", "url,name\n\"https://x/1\",\"A, B\"\n")

	rows := readAll(t, path)
	if len(rows) != 1 || rows[0]["name"] != "A, B" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestOpen_BOMHeader(t *testing.T) {
	path := writeFile(t, "bom.tsv", "\ufeffurl\tname\nu\tn\n")

	rows := readAll(t, path)
	if rows[0]["url"] != "u" {
		t.Errorf("BOM must be stripped from first header, row = %v", rows[0])
	}
}

func TestOpen_HeaderOnly(t *testing.T) {
	path := writeFile(t, "empty.tsv", "url\tname\n")
	if rows := readAll(t, path); len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestOpen_EmptyFile(t *testing.T) {
	path := writeFile(t, "nothing.tsv", "")
	if rows := readAll(t, path); len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.tsv"))
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestExists(t *testing.T) {
	if err := Exists(""); !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("empty path: expected ErrSourceNotFound, got %v", err)
	}
	if err := Exists(t.TempDir()); !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("directory: expected ErrSourceNotFound, got %v", err)
	}
	if err := Exists(writeFile(t, "a.tsv", "x\n")); err != nil {
		t.Errorf("existing file: unexpected error %v", err)
	}
}

func TestCount(t *testing.T) {
	path := writeFile(t, "cards.tsv", "url\tname\na\t1\nb\t2\n\nc\t3\n")

	n, err := Count(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

type parquetCard struct {
	URL    string   `parquet:"url"`
	Name   string   `parquet:"name"`
	Number int64    `parquet:"number"`
	Album  *string  `parquet:"album,optional"`
	Tags   []string `parquet:"tags,list"`
}

func TestOpen_Parquet(t *testing.T) {
	album := "Base"
	path := filepath.Join(t.TempDir(), "cards.parquet")
	cards := []parquetCard{
		{URL: "https://x/1", Name: "Worm", Number: 1, Album: &album, Tags: []string{"dirt", "slow"}},
		{URL: "https://x/2", Name: "Snail", Number: 2},
	}
	if err := parquet.WriteFile(path, cards); err != nil {
		t.Fatalf("write parquet: %v", err)
	}

	rows := readAll(t, path)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["name"] != "Worm" || rows[0]["number"] != "1" || rows[0]["album"] != "Base" {
		t.Errorf("unexpected row 0: %v", rows[0])
	}
	if rows[0]["tags"] != "dirt,slow" {
		t.Errorf("list column = %q, want joined values", rows[0]["tags"])
	}
	if _, ok := rows[1]["album"]; ok {
		t.Error("null album must be absent")
	}

	n, err := Count(path)
	if err != nil {
		t.Fatalf("Count(): %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}
