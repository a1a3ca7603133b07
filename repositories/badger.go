package repositories

import (
	"log/slog"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

// maxConflictRetries bounds how often a transaction is replayed after badger rejects
// its commit because a concurrent transaction wrote a key it read.
const maxConflictRetries = 16

// update runs fn in a read-write transaction, replaying it on commit conflicts.
// fn must derive everything it writes from what it reads inside txn.
func update(db *badger.DB, log *slog.Logger, fn func(txn *badger.Txn) error) error {
	for attempt := 1; ; attempt++ {
		err := db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return storageError(err)
		}
		if attempt == maxConflictRetries {
			return errors.StorageUnavailable(err)
		}
		log.Debug("Transaction conflict, replaying", "attempt", attempt)
	}
}

func view(db *badger.DB, fn func(txn *badger.Txn) error) error {
	return storageError(db.View(fn))
}

// storageError keeps taxonomy errors as they are and classifies anything else
// coming out of badger as the store being unavailable.
func storageError(err error) error {
	if err == nil || errors.Kind(err) != nil {
		return err
	}
	return errors.StorageUnavailable(err)
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
