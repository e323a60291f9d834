package collection

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/veccoll/internal/domain"
)

// Metadata hash fields. User metadata lives under metaFieldPrefix.
const (
	fieldName       = "name"
	fieldProvider   = "embedding_provider"
	fieldModel      = "embedding_model"
	fieldVectorDim  = "vector_dim"
	fieldCreatedAt  = "created_at"
	metaFieldPrefix = "meta:"
)

// Document hash fields. Everything else on a document hash is user metadata.
const (
	docFieldID      = "__id"
	docFieldContent = "__content"
	docFieldVector  = "__vector"
	reservedPrefix  = "__"
)

// collectionRow is the decoded metadata hash of one collection.
type collectionRow struct {
	name      string
	metadata  map[string]string
	binding   domain.Binding
	vectorDim int
	createdAt int64
}

// collectionToHash converts a new collection to a map for HSET.
func collectionToHash(name string, meta map[string]string, binding domain.Binding, createdAt int64) map[string]string {
	m := make(map[string]string, len(meta)+4)
	for k, v := range meta {
		m[metaFieldPrefix+k] = v
	}
	m[fieldName] = name
	m[fieldProvider] = binding.Provider
	m[fieldModel] = binding.Model
	m[fieldCreatedAt] = strconv.FormatInt(createdAt, 10)
	return m
}

// collectionFromHash hydrates a collection row from an HGETALL result map.
// Unparseable numbers are treated as unset.
func collectionFromHash(m map[string]string) collectionRow {
	row := collectionRow{
		name:     m[fieldName],
		metadata: make(map[string]string),
		binding:  domain.Binding{Provider: m[fieldProvider], Model: m[fieldModel]},
	}
	for k, v := range m {
		if strings.HasPrefix(k, metaFieldPrefix) {
			row.metadata[strings.TrimPrefix(k, metaFieldPrefix)] = v
		}
	}
	if d, err := strconv.Atoi(m[fieldVectorDim]); err == nil {
		row.vectorDim = d
	}
	if ts, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64); err == nil {
		row.createdAt = ts
	}
	return row
}

// documentToHash builds the document hash: user metadata plus reserved fields.
func documentToHash(id, content, vector string, meta map[string]string) map[string]string {
	m := make(map[string]string, len(meta)+3)
	for k, v := range meta {
		if strings.HasPrefix(k, reservedPrefix) {
			continue
		}
		m[k] = v
	}
	m[docFieldID] = id
	m[docFieldContent] = content
	m[docFieldVector] = vector
	return m
}

// documentMetadata strips reserved fields from a document hash.
func documentMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if !strings.HasPrefix(k, reservedPrefix) {
			out[k] = v
		}
	}
	return out
}
