// Package record turns raw tabular rows into the documents stored in a collection.
package record

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/veccoll/internal/domain"
)

// Row is one raw tabular row keyed by column name. A missing key means the
// column is absent for this row.
type Row map[string]string

// Record is one ingested unit: stable id, searchable text and flat metadata.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Natural key columns, in order of preference.
const (
	KeyURL    = "url"
	KeyNumber = "number"
)

// metadataColumns are copied verbatim from the row; "url" is exposed as "source".
var metadataColumns = []struct{ column, key string }{
	{KeyURL, "source"},
	{"name", "name"},
	{"album", "album"},
	{"collection", "collection"},
	{KeyNumber, "number"},
	{"type", "type"},
	{"rarity", "rarity"},
	{"release_date", "release_date"},
	{"tags", "tags"},
}

// Transform maps a row to its Record. index is the row's position in the
// whole ingestion pass and only matters when the row has no natural key.
// defaultModel is used when collectionMeta carries no embedding model.
func Transform(row Row, index int, collectionMeta map[string]string, defaultModel string) Record {
	meta := make(map[string]string, len(metadataColumns)+1)
	for _, c := range metadataColumns {
		if v, ok := row[c.column]; ok {
			meta[c.key] = v
		}
	}

	model := collectionMeta[domain.MetaEmbeddingModel]
	if model == "" {
		model = defaultModel
	}
	if model != "" {
		meta[domain.MetaEmbeddingModel] = model
	}

	return Record{
		ID:       ID(row, index),
		Text:     Text(row),
		Metadata: meta,
	}
}

// ID returns the url, else the number, else "row-{index}".
func ID(row Row, index int) string {
	if v := row[KeyURL]; v != "" {
		return v
	}
	if v := row[KeyNumber]; v != "" {
		return v
	}
	return "row-" + strconv.Itoa(index)
}

// Text renders the fixed document template. A missing column renders its
// fallback literal; a present but empty column renders empty.
func Text(row Row) string {
	get := func(key, fallback string) string {
		if v, ok := row[key]; ok {
			return v
		}
		return fallback
	}

	var b strings.Builder
	b.WriteString(get("name", "Unknown"))
	b.WriteString(" (")
	b.WriteString(get("type", "n/a"))
	b.WriteString(", ")
	b.WriteString(get("rarity", "n/a"))
	b.WriteString(") - ")
	b.WriteString(get("album", "n/a"))
	b.WriteString(" / ")
	b.WriteString(get("collection", "n/a"))
	b.WriteString(" #")
	b.WriteString(get("number", "n/a"))
	b.WriteString("\nRelease: ")
	b.WriteString(get("release_date", "n/a"))
	b.WriteString(" | Energy ")
	b.WriteString(get("energy", "n/a"))
	b.WriteString(" | Power ")
	b.WriteString(get("power", "n/a"))
	b.WriteString(" | PPE ")
	b.WriteString(get("ppe", "n/a"))
	b.WriteString("\nAbility: ")
	b.WriteString(get("ability_name", ""))
	b.WriteString(" - ")
	b.WriteString(get("ability_description", ""))
	b.WriteString("\nTags: ")
	b.WriteString(get("tags", ""))
	return b.String()
}

// Batch holds index-aligned ids, texts and metadata for one add operation.
type Batch struct {
	IDs       []string
	Texts     []string
	Metadatas []map[string]string
}

// NewBatch preallocates a batch for n records.
func NewBatch(n int) *Batch {
	return &Batch{
		IDs:       make([]string, 0, n),
		Texts:     make([]string, 0, n),
		Metadatas: make([]map[string]string, 0, n),
	}
}

// Append adds r to the batch.
func (b *Batch) Append(r Record) {
	b.IDs = append(b.IDs, r.ID)
	b.Texts = append(b.Texts, r.Text)
	b.Metadatas = append(b.Metadatas, r.Metadata)
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int { return len(b.IDs) }
