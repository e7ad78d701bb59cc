package ingestion

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestReader(t *testing.T) {
	env := setupPipeline(t, WithBatchSize(2))
	ctx := context.Background()

	input := strings.Join([]string{
		`{"url": "https://x/a", "title": "A", "visible_text": "alpha beta", "content_hash": "h1"}`,
		``,
		`{"url": "https://x/b", "visible_text": "beta gamma", "content_hash": "h1", "keywords": ["k1"], "depth": 2}`,
		`not json`,
		`{"title": "no url"}`,
		`{"url": "https://x/c", "visible_text": "delta"}`,
		`   `,
	}, "\n")

	report, err := env.pipeline.IngestReader(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.NoError(t, env.pipeline.Wait())

	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 2, report.Skipped)
	assert.Len(t, report.Errors, 2)
	assert.Equal(t, 5, report.Total())

	var malformed int
	for _, err := range report.Errors {
		if assert.Error(t, err) && strings.Contains(err.Error(), "line 4") {
			assert.ErrorIs(t, err, ErrMalformedRecord)
			malformed++
		}
	}
	assert.Equal(t, 1, malformed)

	doc, err := env.docs.FindByURL(ctx, "https://x/b")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1"}, doc.Keywords)
	assert.Equal(t, 2, doc.Depth)
	assert.Equal(t, 3, env.vectors.URLs())
}

func TestIngestReader_ReingestIsUnchanged(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()
	input := `{"url": "https://x/a", "visible_text": "alpha", "content_hash": "h1"}` + "\n"

	_, err := env.pipeline.IngestReader(ctx, strings.NewReader(input))
	require.NoError(t, err)

	report, err := env.pipeline.IngestReader(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unchanged)
	require.NoError(t, env.pipeline.Wait())
}

func TestIngestReader_RepeatedURLsKeepInputOrder(t *testing.T) {
	env := setupPipeline(t, WithBatchSize(1), WithPoolSize(4))
	ctx := context.Background()

	urls := []string{"https://x/a", "https://x/b", "https://x/c", "https://x/d", "https://x/e"}
	const rounds = 20
	var lines []string
	for round := 0; round < rounds; round++ {
		for _, url := range urls {
			lines = append(lines, fmt.Sprintf(`{"url": %q, "visible_text": "word%d", "content_hash": "v%d"}`, url, round, round))
		}
	}

	report, err := env.pipeline.IngestReader(ctx, strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.NoError(t, env.pipeline.Wait())
	assert.Equal(t, len(urls), report.Inserted)
	assert.Equal(t, len(urls)*(rounds-1), report.Updated)

	last := fmt.Sprintf("v%d", rounds-1)
	for _, url := range urls {
		doc, err := env.docs.FindByURL(ctx, url)
		require.NoError(t, err)
		assert.Equal(t, last, doc.ContentHash, url)
		assert.Equal(t, []string{fmt.Sprintf("word%d", rounds-1)}, doc.Tokens, url)

		chunks := env.vectors.Chunks(url)
		require.NotEmpty(t, chunks, url)
		assert.Contains(t, chunks[len(chunks)-1].Text, fmt.Sprintf("word%d", rounds-1), url)
	}
}

func TestIngestReader_CancelledContext(t *testing.T) {
	env := setupPipeline(t, WithBatchSize(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := `{"url": "https://x/a", "visible_text": "alpha"}` + "\n" +
		`{"url": "https://x/b", "visible_text": "beta"}` + "\n"
	_, err := env.pipeline.IngestReader(ctx, strings.NewReader(input))
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, env.pipeline.Wait())
}

func TestLaneFor(t *testing.T) {
	assert.Equal(t, laneFor("https://x/a", 4), laneFor("  https://x/a ", 4))
	for _, url := range []string{"", "https://x/a", "https://x/b"} {
		lane := laneFor(url, 3)
		assert.GreaterOrEqual(t, lane, 0)
		assert.Less(t, lane, 3)
	}
}
