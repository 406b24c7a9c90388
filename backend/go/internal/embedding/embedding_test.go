package embedding

import (
	"Recall_1.0/backend/go/internal/config"
	"context"
	"math"
	"testing"
)

type countingModel struct {
	inner *HashModel
	calls int
	texts int
}

func (m *countingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	m.texts++
	return m.inner.Embed(ctx, text)
}

func (m *countingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	m.texts += len(texts)
	return m.inner.EmbedBatch(ctx, texts)
}

func TestHashModel_DeterministicUnitVectors(t *testing.T) {
	m := NewHashModel(0)
	ctx := context.Background()

	a, _ := m.Embed(ctx, "wife ssn")
	b, _ := m.Embed(ctx, "wife ssn")
	c, _ := m.Embed(ctx, "city")

	if len(a) != 384 {
		t.Fatalf("Expected 384 dimensions, got %d", len(a))
	}
	if dot(a, b) < 0.9999 {
		t.Errorf("Equal texts should have cosine 1, got %v", dot(a, b))
	}
	if dot(a, c) > 0.5 {
		t.Errorf("Different texts should not be similar, got %v", dot(a, c))
	}
	if n := math.Sqrt(float64(dot(a, a))); math.Abs(n-1) > 1e-4 {
		t.Errorf("Expected unit norm, got %v", n)
	}
}

func TestCached_HitsSkipTheModel(t *testing.T) {
	inner := &countingModel{inner: NewHashModel(16)}
	c, err := NewCached(inner, 8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	c.Embed(ctx, "city")
	c.Embed(ctx, "city")
	if inner.calls != 1 {
		t.Errorf("Expected 1 model call, got %d", inner.calls)
	}

	vecs, err := c.EmbedBatch(ctx, []string{"city", "age", "name"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 || inner.texts != 3 {
		t.Errorf("Expected only the 2 missing texts to be embedded, model saw %d texts", inner.texts)
	}
	want, _ := NewHashModel(16).Embed(ctx, "age")
	if dot(vecs[1], want) < 0.9999 {
		t.Error("Batch result is out of order")
	}
}

func TestNewEmdModel(t *testing.T) {
	m, err := NewEmdModel(config.EmbeddingConfig{Provider: "hash", Dimension: 8, CacheSize: 4})
	if err != nil {
		t.Fatalf("NewEmdModel() error = %v", err)
	}
	if _, ok := m.(*Cached); !ok {
		t.Errorf("Expected a cached model, got %T", m)
	}
	if _, err := NewEmdModel(config.EmbeddingConfig{Provider: "word2vec"}); err == nil {
		t.Error("Expected an error for an unknown provider")
	}
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
