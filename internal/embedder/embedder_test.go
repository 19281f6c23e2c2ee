package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("hello")
	h2 := ComputeHash("hello")
	h3 := ComputeHash("world")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(10)

	emb := &Embedding{
		Vector:    []float32{1, 2, 3},
		Dimension: 3,
		Provider:  ProviderLocal,
		Model:     DefaultLocalModel,
		Hash:      "abc",
	}
	cache.Set("abc", emb)

	got, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, emb.Vector, got.Vector)

	// Mutating the returned copy must not pollute the cache.
	got.Vector[0] = 99
	again, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(2)
	cache.Set("a", &Embedding{Hash: "a"})
	cache.Set("b", &Embedding{Hash: "b"})
	cache.Set("c", &Embedding{Hash: "c"})

	assert.Equal(t, 2, cache.Size())
	_, ok := cache.Get("a")
	assert.False(t, ok)
}

func TestValidateRequest(t *testing.T) {
	assert.ErrorIs(t, ValidateRequest(EmbeddingRequest{}), ErrEmptyText)
	assert.NoError(t, ValidateRequest(EmbeddingRequest{Text: "x"}))

	assert.ErrorIs(t, ValidateBatchRequest(BatchEmbeddingRequest{}), ErrEmptyText)
	assert.ErrorIs(t, ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"a", ""}}), ErrEmptyText)
	assert.NoError(t, ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"a", "b"}}))
}

func TestLocalProviderDeterministic(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)
	ctx := context.Background()

	e1, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "some text"})
	require.NoError(t, err)
	e2, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "some text"})
	require.NoError(t, err)
	e3, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "other text"})
	require.NoError(t, err)

	assert.Equal(t, e1.Vector, e2.Vector)
	assert.NotEqual(t, e1.Vector, e3.Vector)
	assert.Len(t, e1.Vector, LocalDimension)
	assert.Equal(t, LocalDimension, e1.Dimension)
}

func TestLocalProviderUnitLength(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	emb, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "normalize me"})
	require.NoError(t, err)

	var sum float64
	for _, v := range emb.Vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestLocalProviderBatch(t *testing.T) {
	p, err := NewLocalProvider(NewCache(10))
	require.NoError(t, err)

	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"one", "two", "three"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)
	assert.Equal(t, ProviderLocal, resp.Provider)

	// Batch order matches input order.
	single, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "two"})
	require.NoError(t, err)
	assert.Equal(t, single.Vector, resp.Embeddings[1].Vector)
}

func TestLocalProviderUsesCache(t *testing.T) {
	cache := NewCache(10)
	p, err := NewLocalProvider(cache)
	require.NoError(t, err)

	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "cached"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())

	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "cached"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())
}

func TestNormalizeVectorZero(t *testing.T) {
	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}

func TestFactorySelectsLocal(t *testing.T) {
	emb, err := New(Config{Provider: ProviderLocal})
	require.NoError(t, err)
	defer emb.Close()

	assert.Equal(t, ProviderLocal, emb.Provider())
	assert.Equal(t, LocalDimension, emb.Dimension())
}

func TestFactoryRejectsUnknown(t *testing.T) {
	_, err := New(Config{Provider: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestFactoryOpenAIRequiresKey(t *testing.T) {
	_, err := New(Config{Provider: ProviderOpenAI})
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}
