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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/chunker"
	"github.com/poiesic/crawlsearch/core"
	"github.com/poiesic/crawlsearch/normalize"
	"github.com/poiesic/crawlsearch/storage"
)

const (
	// DefaultBatchSize is the number of input lines grouped into one batch by IngestReader.
	DefaultBatchSize = 500

	// DefaultMaxRetries is the number of attempts made for each embedding hand-off.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the delay before the first hand-off retry.
	DefaultRetryDelay = time.Second

	lockStripes = 256
)

// Pipeline orchestrates ingestion of crawl records.
// Document and index writes happen synchronously under a per-URL lock; chunking
// and the vector store hand-off run on a bounded worker pool.
type Pipeline struct {
	documents  storage.DocumentRepository
	index      storage.IndexRepository
	vectors    ai.VectorStore
	normalizer normalize.Normalizer
	chunker    *chunker.Chunker
	pool       *ants.Pool
	poolSize   int
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger

	locks        [lockStripes]sync.Mutex
	handoffLocks [lockStripes]sync.Mutex

	pending     sync.WaitGroup
	errMu       sync.Mutex
	handoffErrs []error
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for the embedding hand-off.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		p.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// WithNormalizer replaces the default stemming normalizer.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(p *Pipeline) error {
		if n != nil {
			p.normalizer = n
		}
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// WithBatchSize sets how many input lines IngestReader groups into a batch.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the attempt count and initial delay for the embedding hand-off.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		p.maxRetries = maxAttempts
		p.retryDelay = delay
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	index storage.IndexRepository,
	vectors ai.VectorStore,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:  documents,
		index:      index,
		vectors:    vectors,
		pool:       pool,
		poolSize:   poolSize,
		batchSize:  DefaultBatchSize,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.normalizer == nil {
		if p.normalizer, err = normalize.New(); err != nil {
			p.Release()
			return nil, err
		}
	}
	if p.chunker == nil {
		if p.chunker, err = chunker.New(); err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// Ingest applies records in order and returns a tally of what happened.
// A failing record is recorded in the report and the rest still run; the
// returned error is non-nil only if ctx ends first.
func (p *Pipeline) Ingest(ctx context.Context, records ...*core.IngestRecord) (*Report, error) {
	report := newReport()
	err := p.ingestInto(ctx, report, records)
	p.logger.Info("ingested records",
		"run", report.RunID,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, err
}

func (p *Pipeline) ingestInto(ctx context.Context, report *Report, records []*core.IngestRecord) error {
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		o, err := p.ingestOne(ctx, record)
		if err != nil {
			p.logger.Warn("record not ingested", "run", report.RunID, "outcome", o, "err", err)
		}
		report.record(o, err)
	}
	return nil
}

// ingestOne applies a single record. The stripe lock for its URL is held from
// the existing-document lookup until the last index write.
func (p *Pipeline) ingestOne(ctx context.Context, record *core.IngestRecord) (outcome, error) {
	if err := core.ValidateRecord(record); err != nil {
		return outcomeSkipped, err
	}
	url := strings.TrimSpace(record.URL)
	hash := record.Fingerprint()

	lock := p.lockFor(url)
	lock.Lock()
	defer lock.Unlock()

	existing, err := p.documents.FindByURL(ctx, url)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		existing = nil
	case err != nil:
		return outcomeFailed, upstream(url, err)
	}

	if existing != nil && existing.ContentHash == hash {
		return outcomeUnchanged, nil
	}

	doc := &core.Document{
		URL:           url,
		Title:         record.Title,
		Description:   record.Description,
		VisibleText:   record.VisibleText,
		Keywords:      record.Keywords,
		ImageURLs:     record.ImageURLs,
		InternalLinks: record.InternalLinks,
		CrawledAt:     record.CrawledAt,
		Depth:         record.Depth,
		ContentHash:   hash,
		Tokens:        p.normalizer.Normalize(record.FullText()),
	}

	var oldTokens []string
	if existing != nil {
		doc.Id = existing.Id
		oldTokens = existing.Tokens
	} else if doc.Id, err = p.documents.ReserveID(ctx); err != nil {
		return outcomeFailed, upstream(url, err)
	}

	// Postings for the new token set go in before the document is replaced and
	// stale postings come out after, so an interrupted update leaves extra
	// postings rather than missing ones.
	added, removed := diffTokens(oldTokens, doc.Tokens)
	if err := p.index.AddPostings(ctx, doc.Id, added...); err != nil {
		return outcomeFailed, upstream(url, err)
	}
	if _, err := p.documents.Upsert(ctx, doc); err != nil {
		return outcomeFailed, upstream(url, err)
	}
	if err := p.index.RemovePostings(ctx, doc.Id, removed...); err != nil {
		return outcomeFailed, upstream(url, err)
	}

	p.handoff(doc)

	if existing != nil {
		return outcomeUpdated, nil
	}
	return outcomeInserted, nil
}

// handoff chunks doc and submits the chunks to the vector store on the pool.
// Failures are retried, then kept for Wait.
func (p *Pipeline) handoff(doc *core.Document) {
	p.pending.Add(1)
	err := p.pool.Submit(func() {
		defer p.pending.Done()
		if err := p.submitChunks(context.Background(), doc); err != nil {
			p.logger.Error("error handing off chunks", "url", doc.URL, "err", err)
			p.recordHandoffError(fmt.Errorf("%w: %s: %w", core.ErrUpstreamUnavailable, doc.URL, err))
		}
	})
	if err != nil {
		p.pending.Done()
		p.recordHandoffError(fmt.Errorf("submit %s: %w", doc.URL, err))
	}
}

// submitChunks holds the hand-off stripe for doc.URL from the superseded check
// through the last write attempt, so hand-offs for one URL land one at a time
// and a stale version cannot be written after a newer one.
func (p *Pipeline) submitChunks(ctx context.Context, doc *core.Document) error {
	lock := &p.handoffLocks[stripe(doc.URL)]
	lock.Lock()
	defer lock.Unlock()

	// A newer version of the document may have been ingested while this task
	// waited; its own hand-off supersedes this one.
	current, err := p.documents.FindByURL(ctx, doc.URL)
	if err == nil && current.ContentHash != doc.ContentHash {
		p.logger.Debug("skipping superseded hand-off", "url", doc.URL)
		return nil
	}

	chunks, err := p.chunker.ChunkDocument(doc)
	if err != nil {
		return err
	}
	return ai.RetryWithBackoff(ctx, func() error {
		return p.vectors.AddChunks(ctx, doc.URL, chunks)
	}, p.maxRetries, p.retryDelay)
}

func (p *Pipeline) recordHandoffError(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	p.handoffErrs = append(p.handoffErrs, err)
}

// Wait blocks until every submitted hand-off has finished and returns the
// hand-off failures collected since the previous Wait.
func (p *Pipeline) Wait() error {
	p.pending.Wait()

	p.errMu.Lock()
	defer p.errMu.Unlock()
	err := errors.Join(p.handoffErrs...)
	p.handoffErrs = nil
	return err
}

// Release waits for pending hand-offs and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pending.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) lockFor(url string) *sync.Mutex {
	return &p.locks[stripe(url)]
}

func stripe(url string) uint64 {
	return xxhash.Sum64String(url) % lockStripes
}

func upstream(url string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrUpstreamUnavailable, url, err)
}

// diffTokens returns the distinct tokens only in newTokens and only in oldTokens.
func diffTokens(oldTokens, newTokens []string) (added, removed []string) {
	oldSet := make(map[string]struct{}, len(oldTokens))
	for _, t := range oldTokens {
		oldSet[t] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newTokens))
	for _, t := range newTokens {
		if _, seen := newSet[t]; seen {
			continue
		}
		newSet[t] = struct{}{}
		if _, ok := oldSet[t]; !ok {
			added = append(added, t)
		}
	}
	for _, t := range oldTokens {
		if _, ok := newSet[t]; ok {
			continue
		}
		newSet[t] = struct{}{} // mark so duplicates in oldTokens are removed once
		removed = append(removed, t)
	}
	return added, removed
}
