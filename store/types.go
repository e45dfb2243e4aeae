package store

import "github.com/crawltoll/vault"

// Move references for all storage types into this package
// for shorter names everywhere.

type ReadOnlyKVStore = vault.ReadOnlyKVStore
type KVStore = vault.KVStore
type Batch = vault.Batch
type Iterator = vault.Iterator
type CacheableKVStore = vault.CacheableKVStore
type KVCacheWrap = vault.KVCacheWrap
type CommitKVStore = vault.CommitKVStore
type CommitID = vault.CommitID

// Model groups together key and value to return.
type Model = vault.Model

// SetDeleter is a minimal interface for writing,
// the subset of KVStore used by a Batch.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}
