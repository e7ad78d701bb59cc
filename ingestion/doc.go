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


// Package ingestion turns crawl records into stored documents, index postings
// and vector store chunks.
//
// For each record the Pipeline:
//   - skips it when the URL is missing
//   - leaves everything untouched when the content hash matches the stored one
//   - otherwise upserts the document and applies the token diff to the index
//   - hands the document's chunks to the vector store on a worker pool
//
// Records for the same URL are serialized by a striped lock so the token diff is
// always computed against the tokens currently stored. Hand-off failures are
// retried with backoff and reported by Wait.
package ingestion
