package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veccoll/internal/domain"
	"github.com/kailas-cloud/veccoll/internal/repository/memstore"
)

// newTestResolver registers an "openai" provider that records which models were built.
func newTestResolver(built *[]string) *Resolver {
	r := NewResolver(Settings{}, zap.NewNop())
	r.Register("openai", func(model string) (domain.Embedder, error) {
		*built = append(*built, model)
		return &mockEmbedder{vec: []float32{1, 0}}, nil
	})
	return r
}

func TestResolve_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		existing map[string]string
		want     domain.Binding
	}{
		{"defaults", "", "", nil, domain.Binding{Provider: "openai", Model: "text-embedding-3-small"}},
		{"existing metadata", "", "", map[string]string{"provider": "OpenAI", "embedding_model": "text-embedding-3-large"},
			domain.Binding{Provider: "openai", Model: "text-embedding-3-large"}},
		{"explicit wins", " OPENAI ", "text-embedding-ada-002", map[string]string{"embedding_model": "text-embedding-3-large"},
			domain.Binding{Provider: "openai", Model: "text-embedding-ada-002"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var built []string
			emb, err := newTestResolver(&built).Resolve(tc.provider, tc.model, tc.existing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := domain.BindingOf(emb); got != tc.want {
				t.Errorf("binding = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestResolve_UnsupportedProvider(t *testing.T) {
	var built []string
	_, err := newTestResolver(&built).Resolve("cohere", "embed-english-v3.0", nil)
	if !errors.Is(err, domain.ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestResolve_Memoised(t *testing.T) {
	var built []string
	r := newTestResolver(&built)

	a, _ := r.Resolve("openai", "m1", nil)
	b, _ := r.Resolve("OpenAI", "m1", nil)
	_, _ = r.Resolve("openai", "m2", nil)

	if a != b {
		t.Error("same binding should return the same embedder")
	}
	if len(built) != 2 {
		t.Errorf("expected 2 provider builds, got %v", built)
	}
}

func TestResolve_EmptyInputNeverReachesProvider(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	r := NewResolver(Settings{}, nil).Register("openai", func(string) (domain.Embedder, error) { return inner, nil })

	emb, err := r.Resolve("", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vecs, err := emb.Embed(context.Background(), []string{})
	if err != nil || len(vecs) != 0 {
		t.Fatalf("unexpected result: %v, %v", vecs, err)
	}
	if inner.calls != 0 {
		t.Errorf("provider called %d times for empty input", inner.calls)
	}
}

func TestResolve_AppliesDecorators(t *testing.T) {
	var wrapped int
	var built []string
	r := newTestResolver(&built).Wrap(func(e domain.Embedder) domain.Embedder {
		wrapped++
		return e
	})

	_, _ = r.Resolve("", "", nil)
	_, _ = r.Resolve("", "", nil)
	if wrapped != 1 {
		t.Errorf("decorator applied %d times, want 1", wrapped)
	}
}

func TestAttach_UsesExistingBindingOnConflict(t *testing.T) {
	ctx := context.Background()
	var built []string
	r := newTestResolver(&built)
	st := memstore.New(r.Factory())

	large, _ := r.Resolve("openai", "text-embedding-3-large", nil)
	meta := map[string]string{"provider": "openai", "embedding_model": "text-embedding-3-large"}
	if _, err := st.GetOrCreateCollection(ctx, "cards", meta, large); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Explicit small model conflicts with the stored large binding.
	col, err := r.Attach(ctx, st, "cards", "openai", "text-embedding-3-small")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "cards" {
		t.Errorf("unexpected collection %s", col.Name())
	}
}

func TestAttach_ResolvesFromMetadata(t *testing.T) {
	ctx := context.Background()
	var built []string
	r := newTestResolver(&built)
	st := memstore.New(r.Factory())

	large, _ := r.Resolve("openai", "text-embedding-3-large", nil)
	meta := map[string]string{"provider": "openai", "embedding_model": "text-embedding-3-large"}
	_, _ = st.GetOrCreateCollection(ctx, "cards", meta, large)

	if _, err := r.Attach(ctx, st, "cards", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range built {
		if m == "text-embedding-3-small" {
			t.Errorf("default model should not be built when metadata names one: %v", built)
		}
	}
}

func TestAttach_Missing(t *testing.T) {
	var built []string
	r := newTestResolver(&built)
	st := memstore.New(r.Factory())

	_, err := r.Attach(context.Background(), st, "missing", "", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolverHealthCheck(t *testing.T) {
	var built []string
	r := newTestResolver(&built)
	if err := r.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 1 || built[0] != DefaultModel {
		t.Errorf("built = %v, want [%s]", built, DefaultModel)
	}

	bare := NewResolver(Settings{Provider: "cohere"}, zap.NewNop())
	if err := bare.HealthCheck(context.Background()); !errors.Is(err, domain.ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
}
