package ds

import (
	"github.com/dgraph-io/badger"
)

// Ds is a thin wrapper over the badger datastore used for pipeline
// job-status records.
type Ds struct {
	Db *badger.DB
}

// Open opens (and creates if needed) the badger database at dir.
func Open(dir string) (*Ds, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Ds{Db: db}, nil
}

func (ds *Ds) Close() error {
	return ds.Db.Close()
}

func (ds *Ds) SetAndCommit(key, val []byte) error {
	txn := ds.Db.NewTransaction(true)
	defer txn.Discard()

	if err := txn.Set(key, val); err != nil {
		return err
	}

	return txn.Commit()
}

// Get returns the stored value, or badger.ErrKeyNotFound.
func (ds *Ds) Get(key []byte) ([]byte, error) {
	txn := ds.Db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}

	var valCopy []byte
	err = item.Value(func(val []byte) error {
		valCopy = append([]byte{}, val...)
		return nil
	})

	return valCopy, err
}

func (ds *Ds) Delete(key []byte) error {
	txn := ds.Db.NewTransaction(true)
	defer txn.Discard()

	if err := txn.Delete(key); err != nil {
		return err
	}

	return txn.Commit()
}
