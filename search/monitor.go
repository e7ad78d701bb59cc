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


package search

import (
	"github.com/poiesic/crawlsearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Lexical searches call the normalization, candidate and retrieval hooks;
// semantic searches call the neighbour and duplicate hooks.
type SearchMonitor interface {
	Start(query string, method core.Method)
	AfterNormalization(tokens []string)
	CacheHit(results []core.SearchResult)
	AfterCandidateGeneration(ids []core.ID)
	AfterDocumentRetrieval(docs []*core.Document, dangling int)
	AfterNearestNeighbours(points []core.Point)
	DuplicateURL(url string)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ core.Method)                    {}
func (n *noopMonitor) AfterNormalization(_ []string)                    {}
func (n *noopMonitor) CacheHit(_ []core.SearchResult)                   {}
func (n *noopMonitor) AfterCandidateGeneration(_ []core.ID)             {}
func (n *noopMonitor) AfterDocumentRetrieval(_ []*core.Document, _ int) {}
func (n *noopMonitor) AfterNearestNeighbours(_ []core.Point)            {}
func (n *noopMonitor) DuplicateURL(_ string)                            {}
func (n *noopMonitor) Finish(_ []core.SearchResult)                     {}
