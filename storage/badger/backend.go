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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const (
	defaultSequenceBandwidth = 100
)

// Backend wraps a BadgerDB instance and provides low-level operations.
// All repositories in this package share one Backend.
type Backend struct {
	db         *badger.DB
	logger     *slog.Logger
	generation atomic.Uint64
}

// BackendOption configures a Backend.
type BackendOption func(*Backend) error

// WithLogger sets the logger used by the backend and by Badger itself.
func WithLogger(logger *slog.Logger) BackendOption {
	return func(b *Backend) error {
		if logger != nil {
			b.logger = logger
		}
		return nil
	}
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a Badger database at filePath, creating the directory if needed.
// With inMemory set, filePath is ignored and nothing touches disk.
func OpenBackend(filePath string, inMemory bool, opts ...BackendOption) (*Backend, error) {
	backend := &Backend{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(backend); err != nil {
			return nil, err
		}
	}
	backend.logger = backend.logger.With("component", "badger")

	var dbOpts badger.Options
	if inMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		dbOpts = badger.DefaultOptions(filePath)
	}

	dbOpts.Logger = &badgerLoggerAdapter{logger: backend.logger}
	dbOpts.Compression = options.None

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	backend.db = db
	return backend, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// Generation returns the number of write transactions committed through this
// backend since it was opened. Callers use it to detect whether any mutation
// happened between two points in time.
func (b *Backend) Generation() uint64 {
	return b.generation.Load()
}

// WithTx runs fn inside a transaction that is always discarded afterwards.
// Write callers commit through b.commit.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// commit commits tx and advances the generation counter on success.
func (b *Backend) commit(tx *badger.Txn) error {
	if err := tx.Commit(); err != nil {
		return err
	}
	b.generation.Add(1)
	return nil
}

// GetSequence returns a Badger sequence leasing IDs for name.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// writeBatch applies op to every key in keys, splitting the work across as many
// transactions as Badger's size limits require. Each key's mutation lands in
// exactly one committed transaction.
func (b *Backend) writeBatch(keys [][]byte, op func(tx *badger.Txn, key []byte) error) error {
	if len(keys) == 0 {
		return nil
	}
	tx := b.db.NewTransaction(true)
	defer func() { tx.Discard() }()

	for _, key := range keys {
		err := op(tx, key)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := b.commit(tx); err != nil {
				return err
			}
			tx.Discard()
			tx = b.db.NewTransaction(true)
			err = op(tx, key)
		}
		if err != nil {
			return err
		}
	}
	return b.commit(tx)
}
