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
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/crawlsearch/core"
	"github.com/poiesic/crawlsearch/storage"
)

// DocumentRepository implements storage.DocumentRepository using BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a document repository over backend.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence lease.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// FindByURL returns the document stored for url.
func (r *DocumentRepository) FindByURL(ctx context.Context, url string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readURLIndex(tx, url)
		if err != nil {
			return err
		}
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ReserveID draws the next document ID from the sequence.
func (r *DocumentRepository) ReserveID(ctx context.Context) (core.ID, error) {
	return r.nextID()
}

// Upsert inserts or replaces doc keyed by its URL.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Stored times have microsecond resolution
		now := time.Now().UTC().Truncate(time.Microsecond)

		id, err := readURLIndex(tx, doc.URL)
		switch {
		case err == nil:
			old, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			doc.Id = id
			if old != nil {
				doc.InsertedAt = old.InsertedAt
			} else {
				doc.InsertedAt = now
			}
		case errors.Is(err, storage.ErrNotFound):
			if doc.Id == 0 {
				nextID, err := r.nextID()
				if err != nil {
					return err
				}
				doc.Id = nextID
			}
			doc.InsertedAt = now
			if err := tx.Set(makeDocumentURLKey(doc.URL), storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		default:
			return err
		}
		doc.UpdatedAt = now

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return r.backend.commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves the documents that exist among ids, in the given order.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments returns a page of documents in ascending ID order.
func (r *DocumentRepository) ListDocuments(ctx context.Context, after core.ID, limit int) ([]*core.Document, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeDocumentKey(after + 1)); iter.Valid() && len(results) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, doc)
		}
		return nil
	}, false)
	return results, err
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
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

// nextID draws the next document ID from the sequence.
func (r *DocumentRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// readURLIndex resolves url to a document ID.
func readURLIndex(tx *badger.Txn, url string) (core.ID, error) {
	item, err := tx.Get(makeDocumentURLKey(url))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		id, err = storage.UnmarshalID(val)
		return err
	})
	return id, err
}

// readDocument reads a document from the transaction.
// A missing key yields (nil, nil).
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
