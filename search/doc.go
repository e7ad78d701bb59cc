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


// Package search provides the query side of the engine.
//
// A Searcher dispatches each query to one of two paths:
//
//   - Lexical: the query is normalized, the candidate set is the union of the
//     postings of its tokens, and candidates are ranked with BM25 over the
//     candidate set. Ties are broken by ascending document ID.
//   - Semantic: the vector store is asked for three neighbours per wanted
//     result, and the neighbours are deduplicated by URL keeping the first
//     (best) point for each, stopping at top_k.
//
// Postings that point at a missing document are logged and skipped. Failures
// of the index, document store or vector store surface as
// core.ErrUpstreamUnavailable; deadline expiry as core.ErrTimeout.
//
// # Monitoring
//
// SearchWithMonitor reports each stage to a SearchMonitor, which is useful for
// tracing and for tests that need to see candidate sets or duplicate URLs.
package search
