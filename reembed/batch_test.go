package reembed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/crawlsearch/ai/mock"
	"github.com/poiesic/crawlsearch/chunker"
	"github.com/poiesic/crawlsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunker(t *testing.T) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New()
	require.NoError(t, err)
	return c
}

func testDocs() []*core.Document {
	return []*core.Document{
		{Id: 1, URL: "https://x/a", Title: "A", VisibleText: "alpha text"},
		{Id: 2, URL: "https://x/b", Title: "B", VisibleText: "beta text"},
		{Id: 3, URL: "https://x/c", Title: "C", VisibleText: "gamma text"},
	}
}

func TestBatchProcessor_Process(t *testing.T) {
	vectors := mock.NewMockVectorStore()
	processor := NewBatchProcessor(vectors, newTestChunker(t), 2, 3, time.Millisecond)

	var done atomic.Int32
	err := processor.Process(context.Background(), testDocs(), func() { done.Add(1) })
	require.NoError(t, err)

	assert.Equal(t, int32(3), done.Load())
	assert.Equal(t, 3, vectors.URLs())
	chunks := vectors.Chunks("https://x/b")
	require.NotEmpty(t, chunks)
	assert.Equal(t, "https://x/b", chunks[0].URL)
	assert.Contains(t, chunks[0].Text, "beta")
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	vectors := mock.NewMockVectorStore()
	processor := NewBatchProcessor(vectors, newTestChunker(t), 2, 3, time.Millisecond)

	require.NoError(t, processor.Process(context.Background(), nil, nil))
	assert.Equal(t, 0, vectors.AddCalls())
}

func TestBatchProcessor_Retry(t *testing.T) {
	vectors := mock.NewMockVectorStore()
	var attempts atomic.Int32
	vectors.AddChunksFunc = func(ctx context.Context, url string, chunks []*core.Chunk) error {
		if attempts.Add(1) < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	processor := NewBatchProcessor(vectors, newTestChunker(t), 1, 5, time.Millisecond)
	err := processor.Process(context.Background(), testDocs()[:1], nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestBatchProcessor_PersistentError(t *testing.T) {
	vectors := mock.NewMockVectorStore()
	boom := errors.New("vector store down")
	vectors.AddChunksFunc = func(ctx context.Context, url string, chunks []*core.Chunk) error {
		return boom
	}

	processor := NewBatchProcessor(vectors, newTestChunker(t), 1, 2, time.Millisecond)
	err := processor.Process(context.Background(), testDocs()[:1], nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "https://x/a")
	assert.Equal(t, 2, vectors.AddCalls())
}

func TestBatchProcessor_ContextCancellation(t *testing.T) {
	vectors := mock.NewMockVectorStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(vectors, newTestChunker(t), 2, 3, time.Millisecond)
	err := processor.Process(ctx, testDocs(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, vectors.AddCalls())
}
