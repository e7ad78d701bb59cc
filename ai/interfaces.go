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


package ai

import (
	"context"

	"github.com/poiesic/crawlsearch/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is the nearest-neighbour collaborator. It owns chunk embeddings
// once they are handed off and answers text queries with scored points.
// Implementations must be thread-safe for concurrent use.
type VectorStore interface {
	// AddChunks embeds chunks and stores them under url.
	AddChunks(ctx context.Context, url string, chunks []*core.Chunk) error

	// FindSimilar embeds query and returns up to limit points ordered by
	// descending similarity. Several points may share a URL.
	FindSimilar(ctx context.Context, query string, limit int) ([]core.Point, error)

	// Close releases resources held by the store.
	Close() error
}
