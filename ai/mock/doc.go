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


// Package mock provides test double implementations of ai.Embedder and
// ai.VectorStore.
//
// The mocks let tests run without an embedding service or a Qdrant instance
// and give controlled, deterministic behavior.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("service down")
//	}
//
//	store := mock.NewMockVectorStore()
//	store.FindSimilarFunc = func(ctx context.Context, q string, limit int) ([]core.Point, error) {
//	    return []core.Point{{URL: "https://example.com/a", Text: "chunk"}}, nil
//	}
//
// # Default Behavior
//
//   - MockEmbedder: bag-of-words unit vectors, so shared words mean similarity
//   - MockVectorStore: records added chunks and returns no points
package mock
