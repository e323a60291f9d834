package collection

import (
	"fmt"
	"maps"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/veccoll/internal/domain"
)

// DefaultBatchSize is used when a configuration entry omits batch_size.
const DefaultBatchSize = 200

// Spec is a validated, immutable description of one target collection.
type Spec struct {
	sourcePath     string
	provider       string
	embeddingModel string
	variant        string
	batchSize      int
	explicitName   string
	extraMetadata  map[string]string
}

// Identity is a collection name plus its canonical metadata.
type Identity struct {
	Name     string
	Metadata map[string]string
}

// NewSpec validates the fields and builds a Spec.
// sourcePath must already be absolute; ParseSpec handles resolution.
func NewSpec(
	sourcePath, provider, model, variant string,
	batchSize int, explicitName string, extra map[string]string,
) (Spec, error) {
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)

	if strings.TrimSpace(sourcePath) == "" {
		return Spec{}, invalid("source_path is required")
	}
	if provider == "" {
		return Spec{}, invalid("provider is required")
	}
	if model == "" {
		return Spec{}, invalid("embedding_model is required")
	}
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize < 0 {
		return Spec{}, invalid("batch_size must be positive, got %d", batchSize)
	}

	s := Spec{
		sourcePath:     sourcePath,
		provider:       provider,
		embeddingModel: model,
		variant:        strings.TrimSpace(variant),
		batchSize:      batchSize,
		explicitName:   strings.TrimSpace(explicitName),
		extraMetadata:  maps.Clone(extra),
	}
	if s.extraMetadata == nil {
		s.extraMetadata = map[string]string{}
	}

	// Surface naming errors now rather than at ingestion time.
	if _, err := s.Name(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// ParseSpec builds a Spec from one decoded JSON configuration entry.
// A relative source_path is resolved against baseDir.
func ParseSpec(raw map[string]any, baseDir string) (Spec, error) {
	if raw == nil {
		return Spec{}, invalid("collection entry must be an object")
	}

	source, ok, err := stringField(raw, "source_path")
	if err != nil {
		return Spec{}, err
	}
	if !ok || strings.TrimSpace(source) == "" {
		return Spec{}, invalid("collection config requires a 'source_path'")
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(baseDir, source)
	}
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}

	provider, _, err := stringField(raw, "provider")
	if err != nil {
		return Spec{}, err
	}
	if strings.TrimSpace(provider) == "" {
		return Spec{}, invalid("collection config requires a 'provider'")
	}

	model, _, err := stringField(raw, "embedding_model")
	if err != nil {
		return Spec{}, err
	}
	if strings.TrimSpace(model) == "" {
		return Spec{}, invalid("collection config requires an 'embedding_model'")
	}

	variant, _, err := stringField(raw, "variant")
	if err != nil {
		return Spec{}, err
	}
	name, _, err := stringField(raw, "name")
	if err != nil {
		return Spec{}, err
	}

	batchSize := DefaultBatchSize
	if v, present := raw["batch_size"]; present && v != nil {
		batchSize, err = positiveInt(v)
		if err != nil {
			return Spec{}, err
		}
	}

	extra, err := flatMetadata(raw["metadata"])
	if err != nil {
		return Spec{}, err
	}

	return NewSpec(source, provider, model, variant, batchSize, name, extra)
}

// SourcePath returns the absolute path of the tabular source.
func (s Spec) SourcePath() string { return s.sourcePath }

// Provider returns the embedding provider identifier.
func (s Spec) Provider() string { return s.provider }

// EmbeddingModel returns the embedding model identifier.
func (s Spec) EmbeddingModel() string { return s.embeddingModel }

// Variant returns the optional variant label.
func (s Spec) Variant() string { return s.variant }

// BatchSize returns the ingestion chunk size.
func (s Spec) BatchSize() int { return s.batchSize }

// ExplicitName returns the configured name override, if any.
func (s Spec) ExplicitName() string { return s.explicitName }

// ExtraMetadata returns a copy of the additional metadata.
func (s Spec) ExtraMetadata() map[string]string { return maps.Clone(s.extraMetadata) }

// Binding returns the embedding configuration of the spec.
func (s Spec) Binding() domain.Binding {
	return domain.Binding{Provider: s.provider, Model: s.embeddingModel}
}

// Name returns the explicit name when configured, otherwise the derived one.
func (s Spec) Name() (string, error) {
	if s.explicitName != "" {
		return s.explicitName, nil
	}
	return DeriveName(s.sourcePath, s.provider, s.embeddingModel, s.variant)
}

// Metadata builds the metadata attached to the collection.
// Extra metadata is merged last and may override the canonical keys.
func (s Spec) Metadata() map[string]string {
	m := map[string]string{
		domain.MetaSource:         s.sourcePath,
		domain.MetaProvider:       s.provider,
		domain.MetaEmbeddingModel: s.embeddingModel,
	}
	if s.variant != "" {
		m[domain.MetaVariant] = s.variant
	}
	maps.Copy(m, s.extraMetadata)
	return m
}

// Identity returns the collection name and metadata together.
func (s Spec) Identity() (Identity, error) {
	name, err := s.Name()
	if err != nil {
		return Identity{}, err
	}
	return Identity{Name: name, Metadata: s.Metadata()}, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, domain.ErrInvalidConfiguration)...)
}

// stringField reads an optional string; a non-string value is an error, null is absent.
func stringField(raw map[string]any, key string) (string, bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return "", false, invalid("%q must be a string, got %T", key, v)
	}
	return s, true, nil
}

func positiveInt(v any) (int, error) {
	var n int
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || t > math.MaxInt32 || t < math.MinInt32 {
			return 0, invalid("batch_size must be an integer, got %v", t)
		}
		n = int(t)
	case int:
		n = t
	case int64:
		n = int(t)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, invalid("batch_size must be an integer, got %q", t)
		}
		n = parsed
	default:
		return 0, invalid("batch_size must be an integer, got %T", v)
	}
	if n <= 0 {
		return 0, invalid("batch_size must be positive, got %d", n)
	}
	return n, nil
}

// flatMetadata accepts an object of scalar values; nested structures are rejected
// instead of being silently stringified.
func flatMetadata(v any) (map[string]string, error) {
	if v == nil {
		return map[string]string{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalid("collection metadata must be a JSON object, got %T", v)
	}

	out := make(map[string]string, len(obj))
	for k, val := range obj {
		switch t := val.(type) {
		case string:
			out[k] = t
		case bool:
			out[k] = strconv.FormatBool(t)
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			// null means absent
		default:
			return nil, invalid("metadata %q must be a string, number or boolean, got %T", k, val)
		}
	}
	return out, nil
}
