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


package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/core"
	"github.com/poiesic/crawlsearch/normalize"
	"github.com/poiesic/crawlsearch/rank"
	"github.com/poiesic/crawlsearch/storage"
)

// SemanticFetchFactor is how many nearest neighbours are requested per wanted
// result, leaving room for several chunks of one URL.
const SemanticFetchFactor = 3

// Searcher answers queries over the document store through either the lexical
// (inverted index + BM25) or the semantic (vector store) path.
type Searcher struct {
	documents  storage.DocumentRepository
	index      storage.IndexRepository
	vectors    ai.VectorStore
	normalizer normalize.Normalizer
	ranker     *rank.BM25
	timeout    time.Duration
	cache      *resultCache
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithNormalizer replaces the default query normalizer. It must match the
// normalizer used at ingestion.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(s *Searcher) error {
		if n != nil {
			s.normalizer = n
		}
		return nil
	}
}

// WithRanker replaces the default BM25 ranker.
func WithRanker(r *rank.BM25) Option {
	return func(s *Searcher) error {
		if r != nil {
			s.ranker = r
		}
		return nil
	}
}

// WithTimeout bounds every search. Zero means only the caller's deadline applies.
func WithTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		s.timeout = d
		return nil
	}
}

// WithCache memoizes up to size lexical results. generation must return a
// counter that changes whenever the document store or index commits a write.
func WithCache(size int, generation func() uint64) Option {
	return func(s *Searcher) error {
		if size < 1 {
			return ErrInvalidCacheSize
		}
		cache, err := newResultCache(size, generation)
		if err != nil {
			return err
		}
		s.cache = cache
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	documents storage.DocumentRepository,
	index storage.IndexRepository,
	vectors ai.VectorStore,
	opts ...Option,
) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}

	s := &Searcher{
		documents: documents,
		index:     index,
		vectors:   vectors,
		logger:    slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	var err error
	if s.normalizer == nil {
		if s.normalizer, err = normalize.New(); err != nil {
			return nil, err
		}
	}
	if s.ranker == nil {
		if s.ranker, err = rank.New(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to topK results for query using method.
func (s *Searcher) Search(ctx context.Context, query string, topK int, method core.Method) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, topK, method, nil)
}

// SearchWithMonitor searches like Search, reporting each stage to monitor.
//
// Invalid parameters fail with core.ErrInvalidArgument. A blank query yields no
// results and touches no collaborator. Collaborator failures are wrapped in
// core.ErrUpstreamUnavailable and an expired deadline in core.ErrTimeout; no
// partial result is returned with either.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, topK int, method core.Method, monitor SearchMonitor) ([]core.SearchResult, error) {
	if err := core.ValidateSearch(topK, method); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return []core.SearchResult{}, nil
	}

	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	monitor.Start(query, method)

	var results []core.SearchResult
	var err error
	switch method {
	case core.MethodLexical:
		results, err = s.lexical(ctx, query, topK, monitor)
	case core.MethodSemantic:
		results, err = s.semantic(ctx, query, topK, monitor)
	}
	if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ctx.Err()
	}
	if err != nil {
		err = s.classify(err)
		s.logger.Error("search failed", "method", method, "err", err)
		return nil, err
	}

	if results == nil {
		results = []core.SearchResult{}
	}
	monitor.Finish(results)
	return results, nil
}

func (s *Searcher) lexical(ctx context.Context, query string, topK int, monitor SearchMonitor) ([]core.SearchResult, error) {
	tokens := s.normalizer.Normalize(query)
	monitor.AfterNormalization(tokens)
	if len(tokens) == 0 {
		return nil, nil
	}

	var key cacheKey
	if s.cache != nil {
		key = s.cache.key(tokens, topK)
		if results, ok := s.cache.get(key); ok {
			monitor.CacheHit(results)
			return results, nil
		}
	}

	ids, err := s.index.Candidates(ctx, tokens...)
	if err != nil {
		return nil, err
	}
	monitor.AfterCandidateGeneration(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	docs, err := s.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	dangling := len(ids) - len(docs)
	if dangling > 0 {
		s.logger.Warn("postings reference missing documents", "candidates", len(ids), "missing", dangling)
	}
	monitor.AfterDocumentRetrieval(docs, dangling)

	ranked := s.ranker.Rank(tokens, docs, topK)
	results := make([]core.SearchResult, len(ranked))
	for i, hit := range ranked {
		results[i] = core.SearchResult{
			DocID:       hit.Doc.Id,
			URL:         hit.Doc.URL,
			Title:       hit.Doc.Title,
			Description: hit.Doc.Description,
			VisibleText: hit.Doc.VisibleText,
			Score:       hit.Score,
		}
	}

	if s.cache != nil {
		s.cache.add(key, results)
	}
	return results, nil
}

func (s *Searcher) semantic(ctx context.Context, query string, topK int, monitor SearchMonitor) ([]core.SearchResult, error) {
	points, err := s.vectors.FindSimilar(ctx, query, semanticFetch(topK))
	if err != nil {
		return nil, err
	}
	monitor.AfterNearestNeighbours(points)

	// Points arrive in descending similarity, so the first point seen for a
	// URL is its best.
	size := min(topK, len(points))
	seen := make(map[string]struct{}, size)
	results := make([]core.SearchResult, 0, size)
	for _, point := range points {
		url := strings.TrimSpace(point.URL)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			monitor.DuplicateURL(url)
			continue
		}
		seen[url] = struct{}{}

		results = append(results, core.SearchResult{
			URL:         url,
			Title:       titleFromURL(url),
			Description: point.Text,
			VisibleText: point.Text,
			Score:       point.Score,
		})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// semanticFetch is the neighbour count requested for topK results, saturating
// at topK when the multiplied count would overflow.
func semanticFetch(topK int) int {
	if topK > math.MaxInt/SemanticFetchFactor {
		return topK
	}
	return topK * SemanticFetchFactor
}

// classify maps a path failure onto the error taxonomy.
func (s *Searcher) classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", core.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
}
