package multicontrol

import (
	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
	"github.com/tillage-one/mctl/orm"
)

// bucketPrefix namespaces all multicontroller records in the store.
const bucketPrefix = "multictl:"

// MulticontrollerBucket is a type-safe wrapper around the raw store for
// multicontroller records, with an auto-increment sequence for fresh
// resource ids.
type MulticontrollerBucket struct {
	idSeq orm.Sequence
}

// NewMulticontrollerBucket initializes a bucket with the default namespace.
func NewMulticontrollerBucket() MulticontrollerBucket {
	return MulticontrollerBucket{
		idSeq: orm.NewSequence("multictl", "id"),
	}
}

func dbKey(id mctl.Address) []byte {
	return append([]byte(bucketPrefix), id...)
}

// Create mints a fresh resource id, builds the multicontroller with one
// capability per member and persists it.
func (b MulticontrollerBucket) Create(db mctl.KVStore, value []byte, members []Member, threshold uint64) (*Multicontroller, []*Capability, error) {
	seq, err := b.idSeq.NextVal(db)
	if err != nil {
		return nil, nil, errors.Wrap(err, "id sequence")
	}
	id := mctl.NewAddress(append([]byte(bucketPrefix), seq...))
	multi, caps, err := NewMulticontroller(id, value, members, threshold)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Save(db, multi); err != nil {
		return nil, nil, err
	}
	return multi, caps, nil
}

// Get loads the multicontroller with the given resource id.
func (b MulticontrollerBucket) Get(db mctl.KVStore, id mctl.Address) (*Multicontroller, error) {
	raw, err := db.Get(dbKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "bucket lookup")
	}
	if raw == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "multicontroller %s", id)
	}
	var multi Multicontroller
	if err := multi.Unmarshal(raw); err != nil {
		return nil, errors.Wrap(errors.ErrState, err.Error())
	}
	return &multi, nil
}

// Save validates and persists the multicontroller.
func (b MulticontrollerBucket) Save(db mctl.KVStore, multi *Multicontroller) error {
	if err := multi.Validate(); err != nil {
		return err
	}
	raw, err := multi.Marshal()
	if err != nil {
		return errors.Wrap(errors.ErrState, err.Error())
	}
	return db.Set(dbKey(multi.ID), raw)
}

// Delete removes the multicontroller record. Only call after an executed
// Delete action approved the destruction.
func (b MulticontrollerBucket) Delete(db mctl.KVStore, id mctl.Address) error {
	ok, err := db.Has(dbKey(id))
	if err != nil {
		return errors.Wrap(err, "bucket lookup")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "multicontroller %s", id)
	}
	return db.Delete(dbKey(id))
}
