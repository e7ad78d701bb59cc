package badger

import (
	"context"
	"testing"

	"github.com/poiesic/crawlsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) (*IndexRepository, *Backend) {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	index, err := NewIndexRepository(backend)
	require.NoError(t, err)
	return index, backend
}

func TestAddPostings(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.AddPostings(ctx, 2, "cat", "dog", "cat"))
	require.NoError(t, index.AddPostings(ctx, 1, "cat"))

	cat, err := index.Postings(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, []core.ID{1, 2}, cat)

	dog, err := index.Postings(ctx, "dog")
	require.NoError(t, err)
	assert.Equal(t, []core.ID{2}, dog)
}

func TestAddPostings_Idempotent(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.AddPostings(ctx, 5, "cat"))
	require.NoError(t, index.AddPostings(ctx, 5, "cat"))

	ids, err := index.Postings(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, []core.ID{5}, ids)
}

func TestRemovePostings(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.AddPostings(ctx, 1, "a", "b", "c"))
	require.NoError(t, index.AddPostings(ctx, 2, "c"))
	require.NoError(t, index.RemovePostings(ctx, 1, "c", "missing"))

	c, err := index.Postings(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []core.ID{2}, c)

	a, err := index.Postings(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []core.ID{1}, a)
}

func TestPostings_Unknown(t *testing.T) {
	index, _ := newTestIndex(t)

	ids, err := index.Postings(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCandidates_Union(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.AddPostings(ctx, 1, "cat", "dog"))
	require.NoError(t, index.AddPostings(ctx, 2, "dog", "mouse"))
	require.NoError(t, index.AddPostings(ctx, 3, "bird"))

	tests := []struct {
		name   string
		tokens []string
		want   []core.ID
	}{
		{name: "single token", tokens: []string{"cat"}, want: []core.ID{1}},
		{name: "or semantics", tokens: []string{"cat", "dog"}, want: []core.ID{1, 2}},
		{name: "duplicate tokens", tokens: []string{"dog", "dog"}, want: []core.ID{1, 2}},
		{name: "unknown token ignored", tokens: []string{"bird", "zebra"}, want: []core.ID{3}},
		{name: "no tokens", tokens: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := index.Candidates(ctx, tt.tokens...)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidates_Monotonic(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.AddPostings(ctx, 1, "cat"))
	require.NoError(t, index.AddPostings(ctx, 2, "dog"))
	require.NoError(t, index.AddPostings(ctx, 3, "cat", "dog"))

	full, err := index.Candidates(ctx, "cat", "dog")
	require.NoError(t, err)
	fewer, err := index.Candidates(ctx, "cat")
	require.NoError(t, err)

	assert.Subset(t, full, fewer)
	assert.LessOrEqual(t, len(fewer), len(full))
}

func TestCountTokens(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	count, err := index.CountTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, index.AddPostings(ctx, 1, "cat", "dog"))
	require.NoError(t, index.AddPostings(ctx, 2, "dog", "mouse"))

	count, err = index.CountTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
