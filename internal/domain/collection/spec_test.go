package collection

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/veccoll/internal/domain"
)

func validEntry() map[string]any {
	return map[string]any{
		"source_path":     "data/cards.tsv",
		"provider":        "openai",
		"embedding_model": "text-embedding-3-small",
	}
}

func TestParseSpec_Defaults(t *testing.T) {
	base := t.TempDir()

	spec, err := ParseSpec(validEntry(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSource := filepath.Join(base, "data", "cards.tsv")
	if spec.SourcePath() != wantSource {
		t.Errorf("SourcePath() = %q, want %q", spec.SourcePath(), wantSource)
	}
	if spec.BatchSize() != DefaultBatchSize {
		t.Errorf("BatchSize() = %d, want %d", spec.BatchSize(), DefaultBatchSize)
	}
	name, err := spec.Name()
	if err != nil {
		t.Fatalf("Name(): %v", err)
	}
	if name != "cards__openai__text-embedding-3-small" {
		t.Errorf("Name() = %q", name)
	}

	meta := spec.Metadata()
	if meta[domain.MetaSource] != wantSource {
		t.Errorf("metadata source = %q", meta[domain.MetaSource])
	}
	if meta[domain.MetaProvider] != "openai" || meta[domain.MetaEmbeddingModel] != "text-embedding-3-small" {
		t.Errorf("unexpected metadata: %v", meta)
	}
	if _, ok := meta[domain.MetaVariant]; ok {
		t.Error("variant must be omitted when not configured")
	}
}

func TestParseSpec_AbsoluteSourceKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "cards.tsv")
	entry := validEntry()
	entry["source_path"] = abs

	spec, err := ParseSpec(entry, "/elsewhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.SourcePath() != abs {
		t.Errorf("SourcePath() = %q, want %q", spec.SourcePath(), abs)
	}
}

func TestParseSpec_FullEntry(t *testing.T) {
	entry := validEntry()
	entry["variant"] = "rev-2"
	entry["batch_size"] = float64(50)
	entry["name"] = "custom-name"
	entry["metadata"] = map[string]any{"owner": "data-team", "version": float64(3), "public": true}

	spec, err := ParseSpec(entry, "/base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.BatchSize() != 50 {
		t.Errorf("BatchSize() = %d, want 50", spec.BatchSize())
	}
	id, err := spec.Identity()
	if err != nil {
		t.Fatalf("Identity(): %v", err)
	}
	if id.Name != "custom-name" {
		t.Errorf("Name = %q, want explicit override", id.Name)
	}
	want := map[string]string{
		"source":          "/base/data/cards.tsv",
		"provider":        "openai",
		"embedding_model": "text-embedding-3-small",
		"variant":         "rev-2",
		"owner":           "data-team",
		"version":         "3",
		"public":          "true",
	}
	for k, v := range want {
		if id.Metadata[k] != v {
			t.Errorf("metadata[%q] = %q, want %q", k, id.Metadata[k], v)
		}
	}
}

func TestParseSpec_ExtraMetadataOverrides(t *testing.T) {
	entry := validEntry()
	entry["metadata"] = map[string]any{"provider": "shadowed"}

	spec, err := ParseSpec(entry, "/base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := spec.Metadata()["provider"]; got != "shadowed" {
		t.Errorf("provider metadata = %q, want extra metadata to win", got)
	}
	if spec.Provider() != "openai" {
		t.Errorf("Provider() = %q, spec field must stay untouched", spec.Provider())
	}
}

func TestParseSpec_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing source_path", func(m map[string]any) { delete(m, "source_path") }},
		{"blank source_path", func(m map[string]any) { m["source_path"] = "  " }},
		{"source_path not string", func(m map[string]any) { m["source_path"] = float64(1) }},
		{"missing provider", func(m map[string]any) { delete(m, "provider") }},
		{"blank provider", func(m map[string]any) { m["provider"] = " " }},
		{"missing embedding_model", func(m map[string]any) { delete(m, "embedding_model") }},
		{"blank embedding_model", func(m map[string]any) { m["embedding_model"] = "" }},
		{"zero batch_size", func(m map[string]any) { m["batch_size"] = float64(0) }},
		{"negative batch_size", func(m map[string]any) { m["batch_size"] = float64(-5) }},
		{"fractional batch_size", func(m map[string]any) { m["batch_size"] = 2.5 }},
		{"batch_size not a number", func(m map[string]any) { m["batch_size"] = "many" }},
		{"metadata not an object", func(m map[string]any) { m["metadata"] = []any{"a"} }},
		{"nested metadata", func(m map[string]any) { m["metadata"] = map[string]any{"a": map[string]any{"b": "c"}} }},
		{"metadata with list", func(m map[string]any) { m["metadata"] = map[string]any{"tags": []any{"x"}} }},
		{"variant not string", func(m map[string]any) { m["variant"] = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry := validEntry()
			tc.mutate(entry)
			_, err := ParseSpec(entry, "/base")
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestParseSpec_StringBatchSize(t *testing.T) {
	entry := validEntry()
	entry["batch_size"] = "25"

	spec, err := ParseSpec(entry, "/base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.BatchSize() != 25 {
		t.Errorf("BatchSize() = %d, want 25", spec.BatchSize())
	}
}

func TestSpec_ExtraMetadataIsCopied(t *testing.T) {
	extra := map[string]string{"k": "v"}
	spec, err := NewSpec("/data/cards.tsv", "openai", "m", "", 10, "", extra)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	extra["k"] = "mutated"
	got := spec.ExtraMetadata()
	got["k"] = "mutated again"

	if spec.ExtraMetadata()["k"] != "v" {
		t.Error("spec must not share its metadata map")
	}
}
