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


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/chunker"
	"github.com/poiesic/crawlsearch/core"
	"github.com/poiesic/crawlsearch/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of documents fetched per page
	BatchSize int

	// Workers is the number of documents submitted concurrently
	Workers int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per document
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		Workers:        4,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder resubmits every stored document to the vector store, for example
// after switching embedding models or rebuilding a collection.
type Reembedder struct {
	repo      storage.DocumentRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *DocumentIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.DocumentRepository, vectors ai.VectorStore, splitter *chunker.Chunker, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	if splitter == nil {
		var err error
		if splitter, err = chunker.New(); err != nil {
			return nil, err
		}
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(vectors, splitter, config.Workers, config.MaxRetries, config.RetryDelay),
		iterator:  NewDocumentIterator(repo, config.BatchSize),
		logger:    slog.Default().With("component", "reembedder"),
	}, nil
}

// Run executes the reembedding operation and returns the number of documents submitted.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.repo.CountDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No documents found in database (0 documents)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d documents (batch size: %d, workers: %d)\n",
		total, r.config.BatchSize, r.config.Workers)

	tracker := NewProgressTracker(r.progress, "documents", total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(docs []*core.Document) error {
		if err := r.processor.Process(ctx, docs, func() { tracker.Increment(1) }); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("reembedding stopped", "submitted", tracker.Current(), "total", total, "err", err)
		return tracker.Current(), err
	}

	submitted := tracker.Current()
	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d documents in %v (%.1f documents/sec)\n",
		submitted, elapsed.Round(time.Second), float64(submitted)/elapsed.Seconds())
	r.logger.Info("reembedding complete", "documents", submitted, "elapsed", elapsed)

	return submitted, nil
}
