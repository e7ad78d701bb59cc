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


package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/core"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	lcqdrant "github.com/tmc/langchaingo/vectorstores/qdrant"
)

// URLKey is the payload key holding a point's source URL.
const URLKey = "url"

// Store implements ai.VectorStore over a Qdrant collection.
type Store struct {
	store      lcqdrant.Store
	collection string
	logger     *slog.Logger
	httpClient *http.Client
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
		s.logger = logger.With("component", "qdrant-store")
		return nil
	}
}

// WithHTTPClient sets the client used for collection setup.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) error {
		if client != nil {
			s.httpClient = client
		}
		return nil
	}
}

// New connects to the collection named in config, creating it if needed.
func New(ctx context.Context, config *ai.Config, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		collection: config.Collection,
		logger:     slog.Default().With("component", "qdrant-store"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	base, err := url.Parse(config.QdrantURL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url %q: %w", config.QdrantURL, err)
	}

	created, err := ensureCollection(ctx, s.httpClient, base, config.QdrantAPIKey, config.Collection, config.EmbeddingDimensions)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("created collection", "collection", config.Collection, "dimensions", config.EmbeddingDimensions)
	}

	lcOpts := []lcqdrant.Option{
		lcqdrant.WithURL(*base),
		lcqdrant.WithCollectionName(config.Collection),
		lcqdrant.WithEmbedder(&embedderAdapter{embedder: embedder}),
	}
	if config.QdrantAPIKey != "" {
		lcOpts = append(lcOpts, lcqdrant.WithAPIKey(config.QdrantAPIKey))
	}
	store, err := lcqdrant.New(lcOpts...)
	if err != nil {
		return nil, err
	}
	s.store = store
	return s, nil
}

// AddChunks writes chunks as points tagged with url.
func (s *Store) AddChunks(ctx context.Context, url string, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]schema.Document, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, schema.Document{
			PageContent: chunk.Text,
			Metadata: map[string]any{
				URLKey:  url,
				"index": chunk.Index,
			},
		})
	}

	if _, err := s.store.AddDocuments(ctx, docs); err != nil {
		s.logger.Error("failed to add points", "url", url, "count", len(docs), "err", err)
		return err
	}
	s.logger.Debug("added points", "url", url, "count", len(docs))
	return nil
}

// FindSimilar returns up to limit points nearest to query.
// Points without a URL are skipped.
func (s *Store) FindSimilar(ctx context.Context, query string, limit int) ([]core.Point, error) {
	docs, err := s.store.SimilaritySearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	points := make([]core.Point, 0, len(docs))
	for _, doc := range docs {
		u := pointURL(doc.Metadata)
		if u == "" {
			s.logger.Debug("skipping point without url")
			continue
		}
		points = append(points, core.Point{
			URL:   u,
			Text:  doc.PageContent,
			Score: float64(doc.Score),
		})
	}
	return points, nil
}

// Close is a no-op; the REST client holds no connections of its own.
func (s *Store) Close() error {
	return nil
}

// pointURL extracts the URL from a payload. Points written by other tools
// nest their metadata one level down.
func pointURL(payload map[string]any) string {
	if u, ok := payload[URLKey].(string); ok {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	if nested, ok := payload["metadata"].(map[string]any); ok {
		if u, ok := nested[URLKey].(string); ok {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

// embedderAdapter exposes an ai.Embedder as a langchaingo embedder.
type embedderAdapter struct {
	embedder ai.Embedder
}

var _ embeddings.Embedder = (*embedderAdapter)(nil)

func (a *embedderAdapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return a.embedder.EmbedTexts(ctx, texts)
}

func (a *embedderAdapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return a.embedder.EmbedText(ctx, text)
}
