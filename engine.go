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


package crawlsearch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/ai/local"
	"github.com/poiesic/crawlsearch/ai/openai"
	"github.com/poiesic/crawlsearch/ai/qdrant"
	"github.com/poiesic/crawlsearch/chunker"
	"github.com/poiesic/crawlsearch/ingestion"
	"github.com/poiesic/crawlsearch/normalize"
	"github.com/poiesic/crawlsearch/rank"
	"github.com/poiesic/crawlsearch/reembed"
	"github.com/poiesic/crawlsearch/search"
	"github.com/poiesic/crawlsearch/storage"
	"github.com/poiesic/crawlsearch/storage/badger"
)

// Engine owns the storage backend and the collaborators built on it, and hands
// out pipelines and searchers wired to them.
type Engine struct {
	config     *Config
	backend    *badger.Backend
	documents  *badger.DocumentRepository
	index      *badger.IndexRepository
	chunks     *badger.ChunkRepository
	embedder   ai.Embedder
	vectors    ai.VectorStore
	chunker    *chunker.Chunker
	normalizer normalize.Normalizer
	root       *slog.Logger
	logger     *slog.Logger
}

// Stats summarizes the corpus.
type Stats struct {
	Documents int
	Tokens    int
	Chunks    int
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	embedder ai.Embedder
	vectors  ai.VectorStore
	logger   *slog.Logger
}

// WithEmbedder uses embedder instead of the one described by the AI config.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithVectorStore uses vectors instead of the one described by the AI config.
// The engine closes it on Close.
func WithVectorStore(vectors ai.VectorStore) EngineOption {
	return func(o *engineOptions) {
		o.vectors = vectors
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open opens the database described by cfg and builds every collaborator.
func Open(ctx context.Context, cfg *Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{
		config: cfg,
		root:   options.logger,
		logger: options.logger.With("component", "engine"),
	}

	var err error
	if e.backend, err = badger.OpenBackend(cfg.Path, cfg.InMemory, badger.WithLogger(options.logger)); err != nil {
		return nil, err
	}
	if e.documents, err = badger.NewDocumentRepository(e.backend); err != nil {
		e.Close()
		return nil, err
	}
	if e.index, err = badger.NewIndexRepository(e.backend); err != nil {
		e.Close()
		return nil, err
	}
	if e.chunks, err = badger.NewChunkRepository(e.backend); err != nil {
		e.Close()
		return nil, err
	}

	if e.chunker, err = chunker.New(
		chunker.WithChunkSize(cfg.Ingestion.ChunkSize),
		chunker.WithChunkOverlap(cfg.Ingestion.ChunkOverlap),
	); err != nil {
		e.Close()
		return nil, err
	}
	if e.normalizer, err = normalize.New(); err != nil {
		e.Close()
		return nil, err
	}

	e.embedder = options.embedder
	if e.embedder == nil {
		if e.embedder, err = openai.NewEmbedder(cfg.AI); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.vectors = options.vectors
	if e.vectors == nil {
		if e.vectors, err = e.openVectorStore(ctx, options.logger); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.logger.Info("engine opened", "path", cfg.Path, "inMemory", cfg.InMemory, "vectorBackend", cfg.AI.VectorBackend)
	return e, nil
}

func (e *Engine) openVectorStore(ctx context.Context, logger *slog.Logger) (ai.VectorStore, error) {
	switch e.config.AI.VectorBackend {
	case ai.VectorBackendQdrant:
		return qdrant.New(ctx, e.config.AI, e.embedder, qdrant.WithLogger(logger))
	default:
		return local.New(e.embedder, e.chunks, local.WithLogger(logger))
	}
}

// Close shuts everything down in reverse order of construction.
func (e *Engine) Close() error {
	var errs []error
	if e.vectors != nil {
		errs = append(errs, e.vectors.Close())
	}
	var repos []storage.Repository
	if e.chunks != nil {
		repos = append(repos, e.chunks)
	}
	if e.index != nil {
		repos = append(repos, e.index)
	}
	if e.documents != nil {
		repos = append(repos, e.documents)
	}
	for _, repo := range repos {
		if err := repo.Close(); err != nil {
			e.logger.Error("error closing repository", "err", err)
			errs = append(errs, err)
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Documents returns the document repository.
func (e *Engine) Documents() storage.DocumentRepository {
	return e.documents
}

// Index returns the inverted index.
func (e *Engine) Index() storage.IndexRepository {
	return e.index
}

// VectorStore returns the vector store.
func (e *Engine) VectorStore() ai.VectorStore {
	return e.vectors
}

// Generation returns the backend's committed-write counter.
func (e *Engine) Generation() uint64 {
	return e.backend.Generation()
}

// NewIngestionPipeline creates a pipeline configured from the ingestion config.
// opts are applied after the configured defaults.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	cfg := e.config.Ingestion
	defaults := []ingestion.Option{
		ingestion.WithLogger(e.root),
		ingestion.WithNormalizer(e.normalizer),
		ingestion.WithChunker(e.chunker),
		ingestion.WithBatchSize(cfg.BatchSize),
		ingestion.WithRetry(cfg.MaxRetries, time.Duration(cfg.RetryDelay)),
	}
	if cfg.PoolSize > 0 {
		defaults = append(defaults, ingestion.WithPoolSize(cfg.PoolSize))
	}
	return ingestion.NewPipeline(e.documents, e.index, e.vectors, append(defaults, opts...)...)
}

// NewSearcher creates a searcher configured from the search config.
// opts are applied after the configured defaults.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	cfg := e.config.Search
	ranker, err := rank.New(rank.WithK1(cfg.K1), rank.WithB(cfg.B), rank.WithEpsilon(cfg.Epsilon))
	if err != nil {
		return nil, err
	}

	defaults := []search.Option{
		search.WithLogger(e.root),
		search.WithNormalizer(e.normalizer),
		search.WithRanker(ranker),
		search.WithTimeout(time.Duration(cfg.Timeout)),
	}
	if cfg.CacheSize > 0 {
		defaults = append(defaults, search.WithCache(cfg.CacheSize, e.backend.Generation))
	}
	return search.NewSearcher(e.documents, e.index, e.vectors, append(defaults, opts...)...)
}

// NewReembedder creates a reembedder that reports progress to progress.
func (e *Engine) NewReembedder(progress io.Writer) (*reembed.Reembedder, error) {
	cfg := e.config.Ingestion
	config := reembed.DefaultConfig()
	config.BatchSize = cfg.BatchSize
	config.MaxRetries = cfg.MaxRetries
	config.RetryDelay = time.Duration(cfg.RetryDelay)
	if cfg.PoolSize > 0 {
		config.Workers = cfg.PoolSize
	}
	return reembed.NewReembedder(e.documents, e.vectors, e.chunker, config, progress)
}

// Stats counts documents, indexed tokens and locally stored chunks.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error
	if stats.Documents, err = e.documents.CountDocuments(ctx); err != nil {
		return stats, err
	}
	if stats.Tokens, err = e.index.CountTokens(ctx); err != nil {
		return stats, err
	}
	if stats.Chunks, err = e.chunks.CountChunks(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}
