package iavl

import (
	"github.com/crawltoll/vault/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// number of tree nodes kept in memory before flushing to disk
const cacheSize = 10000

// CommitStore manages an iavl committed state.
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with disk backing under the given
// directory. The name is used for the leveldb directory name.
func NewCommitStore(dir, name string) CommitStore {
	db := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
	tree := iavl.NewMutableTree(db, cacheSize)
	return CommitStore{tree: tree}
}

// MockCommitStore returns a store with in-memory backing,
// useful for tests. There is no persistence here....
func MockCommitStore() CommitStore {
	db := dbm.NewMemDB()
	tree := iavl.NewMutableTree(db, cacheSize)
	return CommitStore{tree: tree}
}

// Get returns the value at last committed state.
// Returns nil iff key doesn't exist. Panics on nil key.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	version := s.tree.Version()
	_, val := s.tree.GetVersioned(key, version)
	return val, nil
}

// Commit the next version to disk, and returns info.
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, err
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	_, err := s.tree.Load()
	return err
}

// LatestVersion returns info on the latest version saved to disk.
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// CacheWrap gives us a savepoint to perform actions.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return Cache{
		parent: s,
		tree:   s.tree,
	}
}

// Cache is a working cache on top of this tree.
type Cache struct {
	parent CommitStore
	tree   *iavl.MutableTree
}

var _ store.KVCacheWrap = Cache{}

// Get returns nil iff key doesn't exist. Panics on nil key.
func (c Cache) Get(key []byte) ([]byte, error) {
	_, val := c.tree.Get(key)
	return val, nil
}

// Has checks if a key exists. Panics on nil key.
func (c Cache) Has(key []byte) (bool, error) {
	return c.tree.Has(key), nil
}

// Set adds a new value.
func (c Cache) Set(key, value []byte) error {
	c.tree.Set(key, value)
	return nil
}

// Delete removes from the tree.
func (c Cache) Delete(key []byte) error {
	c.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that can write multiple ops atomically.
func (c Cache) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(c)
}

// CacheWrap wraps us once again, with btree.
func (c Cache) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(c, c.NewBatch(), nil)
}

// Write syncs with the underlying store.
func (c Cache) Write() error {
	_, err := c.parent.Commit()
	return err
}

// Discard is a no-op... just garbage collect.
func (c Cache) Discard() {}

// Iterator over a domain of keys in ascending order. End is exclusive.
// Start must be less than end, or the Iterator is invalid.
// CONTRACT: No writes may happen within a domain while an iterator exists
// over it.
func (c Cache) Iterator(start, end []byte) (store.Iterator, error) {
	var res []store.Model
	add := func(key []byte, value []byte) bool {
		m := store.Model{Key: key, Value: value}
		res = append(res, m)
		return false
	}
	c.tree.IterateRange(start, end, true, add)
	return store.NewSliceIterator(res), nil
}

// ReverseIterator over a domain of keys in descending order. End is
// exclusive. Start must be greater than end, or the Iterator is invalid.
// CONTRACT: No writes may happen within a domain while an iterator exists
// over it.
func (c Cache) ReverseIterator(start, end []byte) (store.Iterator, error) {
	var res []store.Model
	add := func(key []byte, value []byte) bool {
		m := store.Model{Key: key, Value: value}
		res = append(res, m)
		return false
	}
	c.tree.IterateRange(start, end, false, add)
	return store.NewSliceIterator(res), nil
}
