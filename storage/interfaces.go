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


package storage

import (
	"context"

	"github.com/poiesic/crawlsearch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	// It does not close the underlying backend.
	Close() error
}

// DocumentRepository is the document store.
// Documents are keyed by a sequence-assigned ID and uniquely indexed by URL.
type DocumentRepository interface {
	Repository

	// FindByURL returns the document stored for url.
	// Returns ErrNotFound if no document has that URL.
	FindByURL(ctx context.Context, url string) (*core.Document, error)

	// ReserveID draws a fresh document ID without storing anything.
	// IDs are never handed out twice, even if the reservation goes unused.
	ReserveID(ctx context.Context) (core.ID, error)

	// Upsert inserts doc when its URL is new, using doc.Id if it was reserved
	// beforehand or a freshly assigned ID otherwise. For an existing URL it replaces
	// every mutable field; the stored ID and InsertedAt are preserved.
	// Returns the document with ID and timestamps populated.
	Upsert(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents),
	// in the order the IDs were given.
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments returns up to limit documents with ID greater than after,
	// in ascending ID order. Pass 0 to start from the beginning.
	ListDocuments(ctx context.Context, after core.ID, limit int) ([]*core.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// IndexRepository is the inverted index.
// Postings are sets: adding an existing posting or removing a missing one is a no-op.
// Each posting mutation is atomic on its own; a call spanning several tokens is not.
type IndexRepository interface {
	Repository

	// AddPostings adds id to the postings of every token.
	AddPostings(ctx context.Context, id core.ID, tokens ...string) error

	// RemovePostings removes id from the postings of every token.
	RemovePostings(ctx context.Context, id core.ID, tokens ...string) error

	// Postings returns the document IDs posted under token in ascending order.
	Postings(ctx context.Context, token string) ([]core.ID, error)

	// Candidates returns the union of the postings of tokens in ascending order.
	Candidates(ctx context.Context, tokens ...string) ([]core.ID, error)

	// CountTokens returns the number of distinct tokens with at least one posting.
	CountTokens(ctx context.Context) (int, error)
}

// ChunkRepository holds embedded chunks for the embedded vector store.
type ChunkRepository interface {
	Repository

	// ReplaceChunks removes every chunk stored for url and stores chunks in its place.
	ReplaceChunks(ctx context.Context, url string, chunks ...*core.Chunk) error

	// ForEachChunk calls fn for every stored chunk. Iteration stops at the first error.
	ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}
