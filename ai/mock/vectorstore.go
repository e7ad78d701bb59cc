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


package mock

import (
	"context"
	"sync"

	"github.com/poiesic/crawlsearch/ai"
	"github.com/poiesic/crawlsearch/core"
)

// MockVectorStore is a test double for ai.VectorStore.
// Without injected behavior it records added chunks and finds nothing.
type MockVectorStore struct {
	// AddChunksFunc is called by AddChunks if set.
	AddChunksFunc func(ctx context.Context, url string, chunks []*core.Chunk) error

	// FindSimilarFunc is called by FindSimilar if set.
	FindSimilarFunc func(ctx context.Context, query string, limit int) ([]core.Point, error)

	mu          sync.Mutex
	added     map[string][]*core.Chunk
	addCalls  int
	findCalls int
	lastLimit int
	closed    bool
}

var _ ai.VectorStore = (*MockVectorStore)(nil)

// NewMockVectorStore creates an empty mock vector store.
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{added: make(map[string][]*core.Chunk)}
}

// AddChunks records chunks under url.
func (m *MockVectorStore) AddChunks(ctx context.Context, url string, chunks []*core.Chunk) error {
	m.mu.Lock()
	m.addCalls++
	fn := m.AddChunksFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, url, chunks); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.added[url] = append(m.added[url], chunks...)
	return nil
}

// FindSimilar returns the injected result, or nothing.
func (m *MockVectorStore) FindSimilar(ctx context.Context, query string, limit int) ([]core.Point, error) {
	m.mu.Lock()
	m.findCalls++
	m.lastLimit = limit
	fn := m.FindSimilarFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query, limit)
	}
	return nil, nil
}

// Close marks the store closed.
func (m *MockVectorStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Chunks returns the chunks recorded for url.
func (m *MockVectorStore) Chunks(url string) []*core.Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*core.Chunk(nil), m.added[url]...)
}

// URLs returns the number of distinct URLs with recorded chunks.
func (m *MockVectorStore) URLs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.added)
}

// AddCalls returns the number of AddChunks calls.
func (m *MockVectorStore) AddCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addCalls
}

// FindCalls returns the number of FindSimilar calls.
func (m *MockVectorStore) FindCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

// LastLimit returns the limit passed to the most recent FindSimilar call.
func (m *MockVectorStore) LastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLimit
}

// Closed reports whether Close was called.
func (m *MockVectorStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
