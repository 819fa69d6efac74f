package store

import "github.com/tillage-one/mctl"

// Mirror references for all storage types into this package for shorter
// names everywhere.

type ReadOnlyKVStore = mctl.ReadOnlyKVStore
type KVStore = mctl.KVStore
type Iterator = mctl.Iterator
type CacheableKVStore = mctl.CacheableKVStore
type KVCacheWrap = mctl.KVCacheWrap
type CommitKVStore = mctl.CommitKVStore
type CommitID = mctl.CommitID

// Model groups a key-value pair.
type Model struct {
	Key   []byte
	Value []byte
}

// Batch can write multiple operations to an underlying store at once.
type Batch interface {
	Set(key, value []byte) error
	Delete(key []byte) error

	// Write flushes all collected operations to the backing store.
	Write() error
}
