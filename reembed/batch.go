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
	"time"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/chunker"
	"github.com/poiesic/crawlsearch/core"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor chunks documents and submits the chunks to a vector store.
type BatchProcessor struct {
	vectors        ai.VectorStore
	chunker        *chunker.Chunker
	workers        int
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// workers: documents submitted concurrently within a batch
// maxRetries: attempts per document before the batch fails
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(vectors ai.VectorStore, splitter *chunker.Chunker, workers, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	if workers < 1 {
		workers = 1
	}
	return &BatchProcessor{
		vectors:        vectors,
		chunker:        splitter,
		workers:        workers,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process submits every document of the batch, calling done after each one.
// The first document that still fails after its retries cancels the rest.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.Document, done func()) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.workers)

	for _, doc := range docs {
		g.Go(func() error {
			chunks, err := bp.chunker.ChunkDocument(doc)
			if err != nil {
				return fmt.Errorf("failed to chunk %s: %w", doc.URL, err)
			}

			err = ai.RetryWithBackoff(gctx, func() error {
				return bp.vectors.AddChunks(gctx, doc.URL, chunks)
			}, bp.maxRetries, bp.retryBaseDelay)
			if err != nil {
				return fmt.Errorf("failed to submit %s after %d attempts: %w", doc.URL, bp.maxRetries, err)
			}

			if done != nil {
				done()
			}
			return nil
		})
	}
	return g.Wait()
}
