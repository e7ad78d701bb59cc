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


// Package ai provides abstractions for the embedding and nearest-neighbour
// services used by crawlsearch.
//
// Two interfaces decouple retrieval from concrete services:
//
//   - Embedder: Generates vector embeddings from text
//   - VectorStore: Stores chunk embeddings and answers similarity queries
//
// # Implementation Packages
//
//   - ai/openai: Embedder backed by an OpenAI-compatible API via langchaingo
//   - ai/qdrant: VectorStore backed by a Qdrant collection via langchaingo
//   - ai/local: VectorStore backed by the local Badger database
//   - ai/mock: Test doubles for unit testing without external services
//
// Production constructors return interface types. Mock constructors return
// concrete types so tests can inspect call counts and inject behaviour:
//
//	embedder := mock.NewMockEmbedder()
//	store := mock.NewMockVectorStore()
//	store.FindSimilarFunc = func(ctx context.Context, q string, limit int) ([]core.Point, error) { ... }
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithQdrant("http://localhost:6333", ""))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := qdrant.New(ctx, cfg, embedder)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	points, err := store.FindSimilar(ctx, "python programming", 15)
package ai
