package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/crawlsearch/ai/mock"
	"github.com/poiesic/crawlsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		Workers:        2,
		ReportInterval: 2,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedder_RequiresCollaborators(t *testing.T) {
	_, err := NewReembedder(nil, mock.NewMockVectorStore(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewReembedder(setupTestDB(t, 0), nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)
}

func TestReembedder_Run(t *testing.T) {
	repo := setupTestDB(t, 7)
	vectors := mock.NewMockVectorStore()
	var progress bytes.Buffer

	r, err := NewReembedder(repo, vectors, nil, testConfig(), &progress)
	require.NoError(t, err)

	submitted, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, submitted)
	assert.Equal(t, 7, vectors.URLs())

	output := progress.String()
	assert.Contains(t, output, "Starting reembedding of 7 documents")
	assert.Contains(t, output, "7/7")
	assert.Contains(t, output, "Reembedding complete")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	var progress bytes.Buffer
	r, err := NewReembedder(setupTestDB(t, 0), mock.NewMockVectorStore(), nil, testConfig(), &progress)
	require.NoError(t, err)

	submitted, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, submitted)
	assert.Contains(t, progress.String(), "No documents found")
}

func TestReembedder_SubmissionError(t *testing.T) {
	vectors := mock.NewMockVectorStore()
	vectors.AddChunksFunc = func(ctx context.Context, url string, chunks []*core.Chunk) error {
		return errors.New("vector store down")
	}

	r, err := NewReembedder(setupTestDB(t, 4), vectors, nil, testConfig(), nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch")
}

func TestReembedder_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	vectors := mock.NewMockVectorStore()
	vectors.AddChunksFunc = func(ctx context.Context, url string, chunks []*core.Chunk) error {
		cancel()
		return nil
	}

	r, err := NewReembedder(setupTestDB(t, 9), vectors, nil, testConfig(), nil)
	require.NoError(t, err)

	submitted, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, submitted, 9)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, DefaultBatchSize, config.BatchSize)
	assert.Equal(t, 4, config.Workers)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, time.Second, config.RetryDelay)
}
