// Package iavl provides a durable CommitKVStore backed by a versioned merkle
// tree. Hosts that persist multicontroller state between atomic operations
// mount the engine on top of this adapter; each Commit writes one new tree
// version to disk.
package iavl

import (
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/tillage-one/mctl/errors"
	"github.com/tillage-one/mctl/store"
)

// treeCacheSize is the number of inner nodes kept in memory by the tree.
const treeCacheSize = 10000

// CommitStore manages an iavl committed state.
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with disk backing under the given
// directory. All tree versions share one leveldb database named name.
func NewCommitStore(dir, name string) (CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return CommitStore{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return CommitStore{tree: iavl.NewMutableTree(db, treeCacheSize)}, nil
}

// MockCommitStore returns a commit store without disk backing, useful for
// tests.
func MockCommitStore() CommitStore {
	return CommitStore{tree: iavl.NewMutableTree(dbm.NewMemDB(), treeCacheSize)}
}

// Get returns nil iff key doesn't exist.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	_, value := s.tree.Get(key)
	return value, nil
}

// Has checks if a key exists.
func (s CommitStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key), nil
}

// Set writes to the working tree. The change becomes durable on Commit.
func (s CommitStore) Set(key, value []byte) error {
	s.tree.Set(key, value)
	return nil
}

// Delete removes the key from the working tree.
func (s CommitStore) Delete(key []byte) error {
	s.tree.Remove(key)
	return nil
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (s CommitStore) Iterator(start, end []byte) (store.Iterator, error) {
	var models []store.Model
	s.tree.IterateRange(start, end, true, func(key, value []byte) bool {
		models = append(models, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(models), nil
}

// ReverseIterator over a domain of keys in descending order. End is
// exclusive.
func (s CommitStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	var models []store.Model
	s.tree.IterateRange(start, end, false, func(key, value []byte) bool {
		models = append(models, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(models), nil
}

// CacheWrap gives us a savepoint to perform one atomic operation on top of
// the working tree.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, store.NewNonAtomicBatch(s), nil)
}

// Commit the next version to disk, and returns info.
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.CommitID{Version: version, Hash: hash}, nil
}

// LoadLatestVersion loads the latest persisted version. If there was a crash
// during the last commit, it is guaranteed to return a stable state, even if
// older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk.
func (s CommitStore) LatestVersion() store.CommitID {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}
}
