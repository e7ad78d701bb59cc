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


// Package local provides an ai.VectorStore that keeps chunk embeddings in the
// engine's own Badger database and answers queries by exhaustive scan.
//
// It suits corpora of a few hundred thousand chunks and needs no external
// service beyond the embedder. Use ai/qdrant for anything larger.
package local
