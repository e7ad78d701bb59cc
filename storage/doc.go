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


// Package storage provides the storage abstraction layer for crawlsearch.
//
// This package defines repository interfaces that decouple the document store,
// the inverted index and the chunk store from the retrieval logic built on top
// of them. The only implementation lives in storage/badger.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: crawled documents keyed by ID, unique by URL
//   - IndexRepository: token postings (the inverted index)
//   - ChunkRepository: embedded text chunks for the embedded vector store
//
// Rows are encoded with the mus binary format (see serialization.go).
//
// # Usage
//
//	docs, index, chunks, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. Serializing writes to the
// same document is the caller's job; see the ingestion package.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
