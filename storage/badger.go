package storage

import (
	"fmt"
	"os"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"

	"github.com/janelia-flyem/skeletonize/skel"
)

const (
	// DefaultVersionsToKeep is the number of versions kept per key.
	// Fragment writes are idempotent so one version suffices.
	DefaultVersionsToKeep = 1

	// DefaultSyncWrites is true if all writes are synced to disk, making
	// the db resilient at cost of speed.
	DefaultSyncWrites = false
)

func init() {
	ver, err := semver.Make("0.1.0")
	if err != nil {
		skel.Errorf("Unable to make semver in badger: %v\n", err)
	}
	RegisterEngine(badgerEngine{"badger", "BadgerDB", ver})
}

type badgerEngine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e badgerEngine) GetName() string           { return e.name }
func (e badgerEngine) GetDescription() string    { return e.desc }
func (e badgerEngine) GetSemVer() semver.Version { return e.semver }

// NewStore returns a Badger-backed store, creating a database at path if
// one doesn't exist.
func (e badgerEngine) NewStore(path string) (KeyValueStore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger engine requires a database path")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		skel.Infof("Database not already at path (%s). Creating directory...\n", path)
		if err := os.MkdirAll(path, 0744); err != nil {
			return nil, fmt.Errorf("can't make directory at %s: %v", path, err)
		}
	}

	opts := badger.DefaultOptions(path)
	opts.NumVersionsToKeep = DefaultVersionsToKeep
	opts.SyncWrites = DefaultSyncWrites
	opts.Logger = nil

	skel.Infof("Opening badger @ path %s\n", path)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerDB{directory: path, bdp: db}, nil
}

// BadgerDB wraps an open Badger database with the KeyValueStore contract.
type BadgerDB struct {
	directory string
	bdp       *badger.DB
}

func (db *BadgerDB) Get(key string) (value []byte, err error) {
	err = db.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrKeyNotFound
	}
	return value, err
}

func (db *BadgerDB) Put(key string, value []byte) error {
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (db *BadgerDB) Delete(keys ...string) error {
	wb := db.bdp.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete([]byte(key)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (db *BadgerDB) ListPrefix(prefix string) (keys []string, err error) {
	err = db.bdp.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return
}

func (db *BadgerDB) Close() error {
	skel.Infof("Closing badger @ path %s\n", db.directory)
	return db.bdp.Close()
}
