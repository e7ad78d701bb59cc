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


// Package qdrant provides an ai.VectorStore backed by a Qdrant collection.
//
// Points are written and queried through the langchaingo Qdrant store. The
// collection is created on first use with cosine distance and the configured
// vector size. Each point carries the chunk text as its content and the source
// URL in its payload under the "url" key.
package qdrant
