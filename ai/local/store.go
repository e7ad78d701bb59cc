// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package local

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/core"
	"github.com/poiesic/crawlsearch/storage"
)

// ErrVectorCountMismatch is returned when the embedder returns the wrong number of vectors.
var ErrVectorCountMismatch = errors.New("embedder returned wrong number of vectors")

// Store implements ai.VectorStore over a ChunkRepository.
// Vectors are normalized on write so similarity is a dot product.
type Store struct {
	embedder ai.Embedder
	chunks   storage.ChunkRepository
	logger   *slog.Logger
}

var _ ai.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "local-vector-store")
		return nil
	}
}

// New creates a Store that embeds with embedder and persists to chunks.
func New(embedder ai.Embedder, chunks storage.ChunkRepository, opts ...Option) (*Store, error) {
	if embedder == nil || chunks == nil {
		return nil, errors.New("local vector store requires an embedder and a chunk repository")
	}
	s := &Store{
		embedder: embedder,
		chunks:   chunks,
		logger:   slog.Default().With("component", "local-vector-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddChunks embeds chunks and replaces whatever was stored for url.
func (s *Store) AddChunks(ctx context.Context, url string, chunks []*core.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: got %d, want %d", ErrVectorCountMismatch, len(vectors), len(texts))
		}
	}

	stored := make([]*core.Chunk, len(chunks))
	for i, chunk := range chunks {
		c := *chunk
		c.URL = url
		c.Vector = ai.NormalizeVector(vectors[i])
		stored[i] = &c
	}

	if err := s.chunks.ReplaceChunks(ctx, url, stored...); err != nil {
		return err
	}
	s.logger.Debug("stored chunks", "url", url, "count", len(stored))
	return nil
}

// FindSimilar scans every stored chunk and returns the limit best matches.
func (s *Store) FindSimilar(ctx context.Context, query string, limit int) ([]core.Point, error) {
	if limit < 1 {
		return nil, nil
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	vector = ai.NormalizeVector(vector)

	var hits []hit
	err = s.chunks.ForEachChunk(ctx, func(chunk *core.Chunk) error {
		if chunk.URL == "" {
			return nil
		}
		hits = append(hits, hit{
			point: core.Point{
				URL:   chunk.URL,
				Text:  chunk.Text,
				Score: float64(ai.DotProduct(vector, chunk.Vector)),
			},
			index: chunk.Index,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(hits, compareHits)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	points := make([]core.Point, len(hits))
	for i, h := range hits {
		points[i] = h.point
	}
	return points, nil
}

// Close is a no-op; the chunk repository is owned by the caller.
func (s *Store) Close() error {
	return nil
}

type hit struct {
	point core.Point
	index int
}

// compareHits orders by descending score, then URL and chunk index.
func compareHits(a, b hit) int {
	if c := cmp.Compare(b.point.Score, a.point.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.point.URL, b.point.URL); c != 0 {
		return c
	}
	return cmp.Compare(a.index, b.index)
}
