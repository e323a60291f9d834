package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/veccoll/internal/domain"
)

// DocumentKey is the top-level key of the collections configuration document.
const DocumentKey = "chroma"

// Document is a parsed collections configuration: an ordered list of specs.
type Document struct {
	path  string
	specs []Spec
}

// LoadDocument reads and validates a collections configuration file.
// Any malformed entry fails the whole load.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Document{}, fmt.Errorf("read collections config %s: %w: %w", path, domain.ErrInvalidConfiguration, err)
	}

	baseDir := filepath.Dir(path)
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}

	specs, err := ParseDocument(data, baseDir)
	if err != nil {
		return Document{}, fmt.Errorf("collections config %s: %w", path, err)
	}
	return Document{path: path, specs: specs}, nil
}

// ParseDocument decodes the JSON document and parses each collection entry
// against baseDir.
func ParseDocument(data []byte, baseDir string) ([]Spec, error) {
	var top any
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&top); err != nil {
		return nil, invalid("decode json: %v", err)
	}

	root, ok := top.(map[string]any)
	if !ok {
		return nil, invalid("config must be a JSON object")
	}
	section, ok := root[DocumentKey].(map[string]any)
	if !ok {
		return nil, invalid("top-level %q object is required", DocumentKey)
	}

	rawList, present := section["collections"]
	if !present || rawList == nil {
		return []Spec{}, nil
	}
	entries, ok := rawList.([]any)
	if !ok {
		return nil, invalid("'collections' must be a list inside %q", DocumentKey)
	}

	specs := make([]Spec, 0, len(entries))
	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			return nil, invalid("collections[%d] must be an object", i)
		}
		spec, err := ParseSpec(entry, baseDir)
		if err != nil {
			return nil, fmt.Errorf("collections[%d]: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// NewDocument builds a Document from already validated specs.
func NewDocument(path string, specs []Spec) Document {
	return Document{path: path, specs: append([]Spec(nil), specs...)}
}

// Path returns the file the document was loaded from.
func (d Document) Path() string { return d.path }

// Specs returns the collection specs in configuration order.
func (d Document) Specs() []Spec { return append([]Spec(nil), d.specs...) }

// Len returns the number of configured collections.
func (d Document) Len() int { return len(d.specs) }

// First returns the first configured collection, used as the default target.
func (d Document) First() (Spec, bool) {
	if len(d.specs) == 0 {
		return Spec{}, false
	}
	return d.specs[0], true
}
