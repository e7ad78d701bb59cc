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


// Package rank implements BM25 (Okapi) scoring over a candidate set.
//
// Unlike a corpus-wide BM25, every statistic is computed from the documents
// handed to Rank. The lexical search path passes the union of the postings
// of the query tokens, so idf reflects how common a term is among documents
// that matched at least one query token.
package rank
