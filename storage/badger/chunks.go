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


package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/crawlsearch/core"
	"github.com/poiesic/crawlsearch/storage"
)

// ChunkRepository implements storage.ChunkRepository using BadgerDB.
// Chunks of one URL share a key prefix so they can be replaced as a group.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a chunk repository over backend.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{backend: backend}, nil
}

// Close is a no-op.
func (r *ChunkRepository) Close() error {
	return nil
}

// ReplaceChunks drops the chunks stored for url and writes chunks in their place.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, url string, chunks ...*core.Chunk) error {
	var stale [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(url)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			stale = append(stale, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	values := make(map[string][]byte, len(chunks))
	keys := append(make([][]byte, 0, len(stale)+len(chunks)), stale...)
	for _, chunk := range chunks {
		chunk.URL = url
		key := makeChunkKey(url, chunk.Index)
		if _, ok := values[string(key)]; !ok {
			keys = append(keys, key)
		}
		values[string(key)] = storage.MarshalChunk(chunk)
	}

	return r.backend.writeBatch(keys, func(tx *badger.Txn, key []byte) error {
		if value, ok := values[string(key)]; ok {
			return tx.Set(key, value)
		}
		return tx.Delete(key)
	})
}

// ForEachChunk calls fn for every stored chunk in key order.
func (r *ChunkRepository) ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// CountChunks returns the number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
