package search

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/crawlsearch/ai/mock"
	"github.com/poiesic/crawlsearch/core"
	"github.com/poiesic/crawlsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingIndex counts candidate lookups and can be made to fail.
type countingIndex struct {
	*badger.IndexRepository
	calls atomic.Int32
	err   error
}

func (c *countingIndex) Candidates(ctx context.Context, tokens ...string) ([]core.ID, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.IndexRepository.Candidates(ctx, tokens...)
}

// recordingMonitor keeps what the interesting hooks saw.
type recordingMonitor struct {
	noopMonitor
	candidates []core.ID
	dangling   int
	duplicates []string
	cacheHits  int
	finished   bool
}

func (m *recordingMonitor) AfterCandidateGeneration(ids []core.ID) { m.candidates = ids }
func (m *recordingMonitor) AfterDocumentRetrieval(_ []*core.Document, dangling int) {
	m.dangling = dangling
}
func (m *recordingMonitor) DuplicateURL(url string)        { m.duplicates = append(m.duplicates, url) }
func (m *recordingMonitor) CacheHit(_ []core.SearchResult) { m.cacheHits++ }
func (m *recordingMonitor) Finish(_ []core.SearchResult)   { m.finished = true }

type testEnv struct {
	searcher *Searcher
	docs     *badger.DocumentRepository
	index    *countingIndex
	backend  *badger.Backend
	vectors  *mock.MockVectorStore
}

func setupSearcher(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	docs, index, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunks.Close()
		index.Close()
		docs.Close()
		backend.Close()
	})

	counting := &countingIndex{IndexRepository: index}
	vectors := mock.NewMockVectorStore()
	searcher, err := NewSearcher(docs, counting, vectors, opts...)
	require.NoError(t, err)
	return &testEnv{searcher: searcher, docs: docs, index: counting, backend: backend, vectors: vectors}
}

// addDocument stores a document and posts it under its distinct tokens.
func (e *testEnv) addDocument(t *testing.T, url string, tokens ...string) *core.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := e.docs.Upsert(ctx, &core.Document{
		URL:         url,
		Title:       "Title of " + url,
		Description: "about " + url,
		VisibleText: "text of " + url,
		Tokens:      tokens,
	})
	require.NoError(t, err)
	require.NoError(t, e.index.AddPostings(ctx, doc.Id, tokens...))
	return doc
}

func points(urls ...string) []core.Point {
	result := make([]core.Point, len(urls))
	for i, url := range urls {
		result[i] = core.Point{URL: url, Text: "chunk " + url, Score: 1 - float64(i)*0.1}
	}
	return result
}

func TestNewSearcher(t *testing.T) {
	docs, index, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunks.Close()
		index.Close()
		docs.Close()
		backend.Close()
	}()
	vectors := mock.NewMockVectorStore()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(docs, index, vectors)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(docs, index, vectors, WithLogger(nil), WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewSearcher(nil, index, vectors)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("nil index repository", func(t *testing.T) {
		_, err := NewSearcher(docs, nil, vectors)
		assert.Equal(t, ErrIndexRepositoryRequired, err)
	})

	t.Run("nil vector store", func(t *testing.T) {
		_, err := NewSearcher(docs, index, nil)
		assert.Equal(t, ErrVectorStoreRequired, err)
	})

	t.Run("invalid cache size", func(t *testing.T) {
		_, err := NewSearcher(docs, index, vectors, WithCache(0, backend.Generation))
		assert.ErrorIs(t, err, ErrInvalidCacheSize)
	})
}

func TestSearch_InvalidArguments(t *testing.T) {
	env := setupSearcher(t)
	ctx := context.Background()

	_, err := env.searcher.Search(ctx, "cat", 0, core.MethodLexical)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	assert.ErrorIs(t, err, core.ErrInvalidTopK)

	_, err = env.searcher.Search(ctx, "cat", 3, core.Method("fuzzy"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	assert.ErrorIs(t, err, core.ErrInvalidMethod)
}

func TestSearch_EmptyQueryTouchesNothing(t *testing.T) {
	env := setupSearcher(t)

	for _, method := range []core.Method{core.MethodLexical, core.MethodSemantic} {
		for _, query := range []string{"", "   \t\n"} {
			results, err := env.searcher.Search(context.Background(), query, 5, method)
			require.NoError(t, err)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		}
	}
	assert.Equal(t, int32(0), env.index.calls.Load())
	assert.Equal(t, 0, env.vectors.FindCalls())
}

func TestSearch_LexicalRanking(t *testing.T) {
	env := setupSearcher(t)
	doc1 := env.addDocument(t, "https://x/1", "cat", "dog", "cat")
	doc2 := env.addDocument(t, "https://x/2", "dog", "mous")

	monitor := &recordingMonitor{}
	results, err := env.searcher.SearchWithMonitor(context.Background(), "cat dog", 2, core.MethodLexical, monitor)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.ElementsMatch(t, []core.ID{doc1.Id, doc2.Id}, monitor.candidates)
	assert.True(t, monitor.finished)

	assert.Equal(t, doc1.Id, results[0].DocID)
	assert.Equal(t, doc2.Id, results[1].DocID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.InDelta(t, -0.12305, results[0].Score, 1e-4)
	assert.InDelta(t, -0.14738, results[1].Score, 1e-4)

	assert.Equal(t, "https://x/1", results[0].URL)
	assert.Equal(t, "Title of https://x/1", results[0].Title)
	assert.Equal(t, "about https://x/1", results[0].Description)
	assert.Equal(t, "text of https://x/1", results[0].VisibleText)
}

func TestSearch_LexicalTruncatesAndIsDeterministic(t *testing.T) {
	env := setupSearcher(t)
	env.addDocument(t, "https://x/1", "cat")
	env.addDocument(t, "https://x/2", "cat")
	env.addDocument(t, "https://x/3", "cat")
	env.addDocument(t, "https://x/4", "fish")

	first, err := env.searcher.Search(context.Background(), "cats", 2, core.MethodLexical)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Equal scores fall back to ascending ID
	assert.Less(t, first[0].DocID, first[1].DocID)

	for i := 0; i < 5; i++ {
		again, err := env.searcher.Search(context.Background(), "cats", 2, core.MethodLexical)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSearch_LexicalNoMatches(t *testing.T) {
	env := setupSearcher(t)
	env.addDocument(t, "https://x/1", "cat")

	results, err := env.searcher.Search(context.Background(), "zebra", 3, core.MethodLexical)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_LexicalStopwordsOnly(t *testing.T) {
	env := setupSearcher(t)
	env.addDocument(t, "https://x/1", "cat")

	results, err := env.searcher.Search(context.Background(), "the and of it", 3, core.MethodLexical)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, int32(0), env.index.calls.Load())
}

func TestSearch_LexicalSkipsDanglingPostings(t *testing.T) {
	env := setupSearcher(t)
	doc := env.addDocument(t, "https://x/1", "cat")
	require.NoError(t, env.index.AddPostings(context.Background(), core.ID(9999), "cat"))

	monitor := &recordingMonitor{}
	results, err := env.searcher.SearchWithMonitor(context.Background(), "cat", 5, core.MethodLexical, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc.Id, results[0].DocID)
	assert.Equal(t, 1, monitor.dangling)
}

func TestSearch_LexicalIndexFailure(t *testing.T) {
	env := setupSearcher(t)
	env.index.err = errors.New("disk on fire")

	results, err := env.searcher.Search(context.Background(), "cat", 5, core.MethodLexical)
	assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)
	assert.Nil(t, results)
}

func TestSearch_LexicalCache(t *testing.T) {
	var env *testEnv
	env = setupSearcher(t, WithCache(16, func() uint64 { return env.backend.Generation() }))
	env.addDocument(t, "https://x/1", "cat")

	ctx := context.Background()
	monitor := &recordingMonitor{}

	first, err := env.searcher.SearchWithMonitor(ctx, "cat", 5, core.MethodLexical, monitor)
	require.NoError(t, err)
	second, err := env.searcher.SearchWithMonitor(ctx, "cat", 5, core.MethodLexical, monitor)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, monitor.cacheHits)
	assert.Equal(t, int32(1), env.index.calls.Load())

	// A committed write invalidates the cached answer
	env.addDocument(t, "https://x/2", "cat")
	third, err := env.searcher.SearchWithMonitor(ctx, "cat", 5, core.MethodLexical, monitor)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 1, monitor.cacheHits)
}

func TestSearch_SemanticDeduplicatesByURL(t *testing.T) {
	env := setupSearcher(t)
	env.vectors.FindSimilarFunc = func(ctx context.Context, query string, limit int) ([]core.Point, error) {
		return points("https://x/u1", "https://x/u2", "https://x/u1", "https://x/u3", "https://x/u2"), nil
	}

	monitor := &recordingMonitor{}
	results, err := env.searcher.SearchWithMonitor(context.Background(), "anything", 3, core.MethodSemantic, monitor)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "https://x/u1", results[0].URL)
	assert.Equal(t, "https://x/u2", results[1].URL)
	assert.Equal(t, "https://x/u3", results[2].URL)
	assert.Equal(t, 9, env.vectors.LastLimit())
	assert.Equal(t, []string{"https://x/u1"}, monitor.duplicates)

	assert.Equal(t, "u1", results[0].Title)
	assert.Equal(t, "chunk https://x/u1", results[0].Description)
	assert.Equal(t, results[0].Description, results[0].VisibleText)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Zero(t, results[0].DocID)
}

func TestSearch_SemanticFewerThanTopK(t *testing.T) {
	env := setupSearcher(t)
	env.vectors.FindSimilarFunc = func(ctx context.Context, query string, limit int) ([]core.Point, error) {
		return points("https://x/a", "https://x/a", " ", "https://x/b "), nil
	}

	results, err := env.searcher.Search(context.Background(), "anything", 5, core.MethodSemantic)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://x/a", results[0].URL)
	assert.Equal(t, "https://x/b", results[1].URL)
}

func TestSearch_SemanticHugeTopK(t *testing.T) {
	env := setupSearcher(t)
	env.vectors.FindSimilarFunc = func(ctx context.Context, query string, limit int) ([]core.Point, error) {
		return points("https://x/a", "https://x/b", "https://x/a"), nil
	}

	for _, topK := range []int{1 << 30, math.MaxInt / 2, math.MaxInt} {
		results, err := env.searcher.Search(context.Background(), "anything", topK, core.MethodSemantic)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "https://x/a", results[0].URL)
		assert.Equal(t, "https://x/b", results[1].URL)
		assert.Positive(t, env.vectors.LastLimit())
		assert.GreaterOrEqual(t, env.vectors.LastLimit(), topK)
	}
}

func TestSemanticFetch(t *testing.T) {
	assert.Equal(t, 3, semanticFetch(1))
	assert.Equal(t, 30, semanticFetch(10))
	assert.Equal(t, math.MaxInt/2, semanticFetch(math.MaxInt/2))
	assert.Equal(t, math.MaxInt, semanticFetch(math.MaxInt))
	edge := math.MaxInt / SemanticFetchFactor
	assert.Equal(t, edge*SemanticFetchFactor, semanticFetch(edge))
}

func TestSearch_LexicalHugeTopK(t *testing.T) {
	env := setupSearcher(t)
	env.addDocument(t, "https://x/1", "cat")
	env.addDocument(t, "https://x/2", "cat", "dog")

	results, err := env.searcher.Search(context.Background(), "cat", math.MaxInt, core.MethodLexical)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_SemanticNoPoints(t *testing.T) {
	env := setupSearcher(t)

	results, err := env.searcher.Search(context.Background(), "anything", 5, core.MethodSemantic)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_SemanticUpstreamFailure(t *testing.T) {
	env := setupSearcher(t)
	env.vectors.FindSimilarFunc = func(ctx context.Context, query string, limit int) ([]core.Point, error) {
		return nil, errors.New("connection refused")
	}

	results, err := env.searcher.Search(context.Background(), "anything", 5, core.MethodSemantic)
	assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)
	assert.Nil(t, results)
}

func TestSearch_Timeout(t *testing.T) {
	env := setupSearcher(t, WithTimeout(20*time.Millisecond))

	t.Run("collaborator honours the deadline", func(t *testing.T) {
		env.vectors.FindSimilarFunc = func(ctx context.Context, query string, limit int) ([]core.Point, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		_, err := env.searcher.Search(context.Background(), "anything", 5, core.MethodSemantic)
		assert.ErrorIs(t, err, core.ErrTimeout)
	})

	t.Run("late answer is discarded", func(t *testing.T) {
		env.vectors.FindSimilarFunc = func(ctx context.Context, query string, limit int) ([]core.Point, error) {
			time.Sleep(50 * time.Millisecond)
			return points("https://x/a"), nil
		}
		results, err := env.searcher.Search(context.Background(), "anything", 5, core.MethodSemantic)
		assert.ErrorIs(t, err, core.ErrTimeout)
		assert.Nil(t, results)
	})
}

func TestSearch_CallerCancellation(t *testing.T) {
	env := setupSearcher(t)
	env.addDocument(t, "https://x/1", "cat")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.searcher.Search(ctx, "cat", 5, core.MethodLexical)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, core.ErrUpstreamUnavailable)
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/wiki/Python", "Python"},
		{"https://example.com/a/b.html", "b.html"},
		{"https://example.com/", "Untitled"},
		{"https://example.com", "Untitled"},
		{"https://x/a/", "a"},
		{"https://example.com/docs/guide//", "guide"},
		{"https://example.com/a/b?page=2", "b"},
		{"no-slashes", "no-slashes"},
		{"", "Untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, titleFromURL(tt.url))
		})
	}
}
