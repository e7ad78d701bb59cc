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
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/crawlsearch/core"
	"github.com/poiesic/crawlsearch/storage"
)

// IndexRepository implements storage.IndexRepository using BadgerDB.
// Every posting is its own key, so adding or removing one document under one
// token is a single atomic key write that never conflicts with other documents.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates an inverted index over backend.
func NewIndexRepository(backend *Backend) (*IndexRepository, error) {
	return &IndexRepository{backend: backend}, nil
}

// Close is a no-op; the index holds no resources beyond the backend.
func (r *IndexRepository) Close() error {
	return nil
}

// AddPostings posts id under every token.
func (r *IndexRepository) AddPostings(ctx context.Context, id core.ID, tokens ...string) error {
	return r.backend.writeBatch(postingKeys(id, tokens), func(tx *badger.Txn, key []byte) error {
		return tx.Set(key, nil)
	})
}

// RemovePostings removes id from the postings of every token.
func (r *IndexRepository) RemovePostings(ctx context.Context, id core.ID, tokens ...string) error {
	return r.backend.writeBatch(postingKeys(id, tokens), func(tx *badger.Txn, key []byte) error {
		return tx.Delete(key)
	})
}

// Postings returns the IDs posted under token.
func (r *IndexRepository) Postings(ctx context.Context, token string) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		ids, err = scanPostings(ctx, tx, token, ids)
		return err
	}, false)
	return ids, err
}

// Candidates returns the sorted union of the postings of tokens.
// Every token is read from the same snapshot.
func (r *IndexRepository) Candidates(ctx context.Context, tokens ...string) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]struct{}, len(tokens))
		for _, token := range tokens {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}

			var err error
			ids, err = scanPostings(ctx, tx, token, ids)
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// CountTokens returns the number of distinct tokens with at least one posting.
func (r *IndexRepository) CountTokens(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(postingPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		last := ""
		for iter.Rewind(); iter.Valid(); iter.Next() {
			token, _, ok := parsePostingKey(iter.Item().Key())
			if !ok {
				continue
			}
			// Postings of one token are contiguous, so a change of token marks a new one.
			if count == 0 || token != last {
				count++
				last = token
			}
		}
		return nil
	}, false)
	return count, err
}

// scanPostings appends the IDs posted under token to ids.
// Posting keys carry no value, so the scan is key-only.
func scanPostings(ctx context.Context, tx *badger.Txn, token string, ids []core.ID) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialPostingKey(token)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, id, ok := parsePostingKey(iter.Item().Key())
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// postingKeys builds one key per distinct token.
func postingKeys(id core.ID, tokens []string) [][]byte {
	seen := make(map[string]struct{}, len(tokens))
	keys := make([][]byte, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		keys = append(keys, makePostingKey(token, id))
	}
	return keys
}
