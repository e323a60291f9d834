package record

import (
	"testing"
)

func fullRow() Row {
	return Row{
		"url":                 "https://example.com/cards/42",
		"name":                "Worm",
		"type":                "Creature",
		"rarity":              "Rare",
		"album":               "Base",
		"collection":          "Alpha",
		"number":              "42",
		"release_date":        "2024-01-01",
		"energy":              "3",
		"power":               "5",
		"ppe":                 "1.5",
		"ability_name":        "Burrow",
		"ability_description": "Hides underground",
		"tags":                "dirt,slow",
	}
}

func TestID(t *testing.T) {
	tests := []struct {
		name  string
		row   Row
		index int
		want  string
	}{
		{"url wins", Row{"url": "u1", "number": "7"}, 3, "u1"},
		{"number fallback", Row{"number": "7"}, 3, "7"},
		{"empty url falls back to number", Row{"url": "", "number": "7"}, 3, "7"},
		{"ordinal fallback", Row{"name": "x"}, 3, "row-3"},
		{"empty keys fall back to ordinal", Row{"url": "", "number": ""}, 11, "row-11"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ID(tc.row, tc.index); got != tc.want {
				t.Errorf("ID() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTransform_Stable(t *testing.T) {
	row := Row{"name": "No key"}
	a := Transform(row, 9, nil, "m")
	b := Transform(row, 9, nil, "m")
	if a.ID != b.ID || a.Text != b.Text {
		t.Fatalf("transform is not stable: %+v vs %+v", a, b)
	}
}

func TestText_FullRow(t *testing.T) {
	want := "Worm (Creature, Rare) - Base / Alpha #42\n" +
		"Release: 2024-01-01 | Energy 3 | Power 5 | PPE 1.5\n" +
		"Ability: Burrow - Hides underground\n" +
		"Tags: dirt,slow"
	if got := Text(fullRow()); got != want {
		t.Errorf("Text() =\n%s\nwant\n%s", got, want)
	}
}

func TestText_Fallbacks(t *testing.T) {
	want := "Unknown (n/a, n/a) - n/a / n/a #n/a\n" +
		"Release: n/a | Energy n/a | Power n/a | PPE n/a\n" +
		"Ability:  - \n" +
		"Tags: "
	if got := Text(Row{}); got != want {
		t.Errorf("Text() =\n%q\nwant\n%q", got, want)
	}
}

func TestText_PresentButEmpty(t *testing.T) {
	got := Text(Row{"name": "", "type": ""})
	want := " (, n/a) - n/a / n/a #n/a\n"
	if len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("Text() = %q, want prefix %q", got, want)
	}
}

func TestTransform_Metadata(t *testing.T) {
	rec := Transform(fullRow(), 0, map[string]string{"embedding_model": "text-embedding-3-small"}, "fallback")

	want := map[string]string{
		"source":          "https://example.com/cards/42",
		"name":            "Worm",
		"album":           "Base",
		"collection":      "Alpha",
		"number":          "42",
		"type":            "Creature",
		"rarity":          "Rare",
		"release_date":    "2024-01-01",
		"tags":            "dirt,slow",
		"embedding_model": "text-embedding-3-small",
	}
	if len(rec.Metadata) != len(want) {
		t.Errorf("metadata has %d keys, want %d: %v", len(rec.Metadata), len(want), rec.Metadata)
	}
	for k, v := range want {
		if rec.Metadata[k] != v {
			t.Errorf("metadata[%q] = %q, want %q", k, rec.Metadata[k], v)
		}
	}
	if _, ok := rec.Metadata["energy"]; ok {
		t.Error("energy is not a metadata column")
	}
}

func TestTransform_AbsentFieldsOmitted(t *testing.T) {
	rec := Transform(Row{"name": "Worm"}, 4, map[string]string{}, "default-model")

	if rec.ID != "row-4" {
		t.Errorf("ID = %q, want row-4", rec.ID)
	}
	if _, ok := rec.Metadata["source"]; ok {
		t.Error("absent url must not produce a source key")
	}
	if _, ok := rec.Metadata["album"]; ok {
		t.Error("absent album must not be stringified")
	}
	if rec.Metadata["embedding_model"] != "default-model" {
		t.Errorf("embedding_model = %q, want process default", rec.Metadata["embedding_model"])
	}
}

func TestBatch_Aligned(t *testing.T) {
	b := NewBatch(2)
	b.Append(Transform(Row{"url": "a"}, 0, nil, "m"))
	b.Append(Transform(Row{"number": "2"}, 1, nil, "m"))

	if b.Len() != 2 || len(b.Texts) != 2 || len(b.Metadatas) != 2 {
		t.Fatalf("batch slices not aligned: %+v", b)
	}
	if b.IDs[0] != "a" || b.IDs[1] != "2" {
		t.Errorf("unexpected ids: %v", b.IDs)
	}
}
