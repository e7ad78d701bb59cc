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
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/crawlsearch/core"
)

// cacheKey identifies a lexical query against one committed state of the store.
type cacheKey struct {
	generation uint64
	tokens     string
	topK       int
}

// resultCache memoizes lexical results. Entries are keyed by the store
// generation, so any committed write makes older entries unreachable.
type resultCache struct {
	entries    *lru.Cache[cacheKey, []core.SearchResult]
	generation func() uint64
}

func newResultCache(size int, generation func() uint64) (*resultCache, error) {
	entries, err := lru.New[cacheKey, []core.SearchResult](size)
	if err != nil {
		return nil, err
	}
	return &resultCache{entries: entries, generation: generation}, nil
}

func (c *resultCache) key(tokens []string, topK int) cacheKey {
	return cacheKey{
		generation: c.generation(),
		tokens:     strings.Join(tokens, "\x00"),
		topK:       topK,
	}
}

func (c *resultCache) get(key cacheKey) ([]core.SearchResult, bool) {
	results, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(results), true
}

func (c *resultCache) add(key cacheKey, results []core.SearchResult) {
	c.entries.Add(key, slices.Clone(results))
}
