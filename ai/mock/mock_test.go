package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	embedder := NewMockEmbedder()

	a, err := embedder.EmbedText(ctx, "python programming language")
	require.NoError(t, err)
	b, err := embedder.EmbedText(ctx, "python programming language")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDimensions)
	assert.InDelta(t, 1.0, ai.DotProduct(a, a), 1e-5)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestMockEmbedder_SharedWordsAreCloser(t *testing.T) {
	ctx := context.Background()
	embedder := NewMockEmbedder()

	vectors, err := embedder.EmbedTexts(ctx, []string{"python snakes", "python snakes long", "zzz"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Greater(t, ai.DotProduct(vectors[0], vectors[1]), ai.DotProduct(vectors[0], vectors[2]))
}

func TestMockEmbedder_InjectedError(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("down")
	}

	_, err := embedder.EmbedText(context.Background(), "x")
	assert.Error(t, err)

	embedder.Reset()
	assert.Equal(t, 0, embedder.CallCount())
	_, err = embedder.EmbedText(context.Background(), "x")
	assert.NoError(t, err)
}

func TestMockVectorStore(t *testing.T) {
	ctx := context.Background()
	store := NewMockVectorStore()

	require.NoError(t, store.AddChunks(ctx, "u1", []*core.Chunk{{Text: "a"}, {Text: "b"}}))
	assert.Len(t, store.Chunks("u1"), 2)
	assert.Equal(t, 1, store.URLs())

	points, err := store.FindSimilar(ctx, "q", 9)
	require.NoError(t, err)
	assert.Empty(t, points)
	assert.Equal(t, 9, store.LastLimit())
	assert.Equal(t, 1, store.FindCalls())

	require.NoError(t, store.Close())
	assert.True(t, store.Closed())
}
