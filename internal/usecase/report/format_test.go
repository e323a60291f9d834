package report

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormat_Empty(t *testing.T) {
	if got := Format(nil, "/"); got != "No collections found." {
		t.Errorf("got %q", got)
	}
}

func TestFormat_Table(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("x", 100)
	rows := []Row{
		{Name: "cards__openai__m", Provider: "openai", Model: "m", Source: filepath.Join(root, "data", "cards.tsv"), Live: 42, Expected: intPtr(42), Dimension: intPtr(1536)},
		{Name: long, Err: errors.New("boom")},
	}

	out := Format(rows, root)
	lines := strings.Split(out, "\n")
	if lines[0] != "Collections overview:" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "name") {
		t.Errorf("column header = %q", lines[1])
	}
	if !strings.Contains(lines[2], filepath.Join("data", "cards.tsv")) || strings.Contains(lines[2], root) {
		t.Errorf("source not relative: %q", lines[2])
	}
	if !strings.Contains(lines[2], " ok ") || !strings.Contains(lines[2], "1536") {
		t.Errorf("row = %q", lines[2])
	}
	if !strings.Contains(lines[3], strings.Repeat("x", 79)+".") || strings.Contains(lines[3], strings.Repeat("x", 80)) {
		t.Errorf("name not truncated: %q", lines[3])
	}
	if !strings.Contains(lines[3], "error: boom") {
		t.Errorf("error not rendered: %q", lines[3])
	}
}

func TestFormat_SourceOutsideRoot(t *testing.T) {
	rows := []Row{{Name: "c", Source: "/elsewhere/cards.tsv"}}
	if out := Format(rows, t.TempDir()); !strings.Contains(out, "/elsewhere/cards.tsv") {
		t.Errorf("expected absolute source, got %q", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{strings.Repeat("a", 80), 80},
		{strings.Repeat("a", 81), 80},
		{"short", 5},
	}
	for _, tc := range tests {
		if got := truncate(tc.in); len(got) != tc.want {
			t.Errorf("truncate(len %d) has len %d, want %d", len(tc.in), len(got), tc.want)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	rows := []Row{
		{Name: "a", Live: 3, Expected: intPtr(3)},
		{Name: "b", Err: errors.New("boom")},
	}
	data, err := FormatJSON(rows)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got[0]["status"] != StatusOK || got[0]["dimension"] != nil {
		t.Errorf("row a = %v", got[0])
	}
	if got[1]["status"] != StatusError || got[1]["error"] != "boom" {
		t.Errorf("row b = %v", got[1])
	}
}
