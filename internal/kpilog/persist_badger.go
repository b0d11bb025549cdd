package kpilog

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPersister keeps blobs in an embedded Badger database.
type BadgerPersister struct {
	db *badger.DB
}

// OpenBadger opens the Badger database in dir. An empty dir opens an in-memory database.
func OpenBadger(dir string) (*BadgerPersister, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerPersister{db: db}, nil
}

func (b *BadgerPersister) Read(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read badger blob: %w", err)
	}
	return out, nil
}

func (b *BadgerPersister) Write(key string, blob []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), blob)
	})
	if err != nil {
		return fmt.Errorf("write badger blob: %w", err)
	}
	return nil
}

func (b *BadgerPersister) Close() error {
	return b.db.Close()
}
