// Package orm provides tiny persistence helpers shared by the engine
// buckets: a monotonic sequence counter and big-endian id encoding.
package orm

import (
	"encoding/binary"

	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

// Sequence hands out identifiers that never repeat for a given store. The
// counter state lives in the store itself under a name-derived key, so every
// consumer of the same bucket/name pair continues the same series.
type Sequence struct {
	key []byte
}

// NewSequence returns a counter persisted under the given bucket and name.
func NewSequence(bucket, name string) Sequence {
	return Sequence{key: []byte("_s." + bucket + ":" + name)}
}

// NextVal increments the counter and returns the new state as an 8 byte big
// endian value. Returned values are strictly increasing under bytes.Compare,
// which makes them usable as ordered store keys directly.
func (s Sequence) NextVal(db mctl.KVStore) ([]byte, error) {
	raw, err := db.Get(s.key)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read sequence state")
	}
	next := EncodeSequence(DecodeSequence(raw) + 1)
	if err := db.Set(s.key, next); err != nil {
		return nil, errors.Wrap(err, "cannot write sequence state")
	}
	return next, nil
}

// DecodeSequence interprets raw bytes as a counter state. Anything that is
// not exactly 8 bytes, including nil, decodes to zero.
func DecodeSequence(raw []byte) uint64 {
	if len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

// EncodeSequence returns the 8 byte big endian form of a counter state.
func EncodeSequence(val uint64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, val)
	return raw
}
