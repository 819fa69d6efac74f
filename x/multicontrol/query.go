package multicontrol

import (
	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

// RegisterQuery exposes the multicontroller records to read-only queries.
func RegisterQuery(qr mctl.QueryRouter) {
	qr.Register("/multicontrollers", NewMulticontrollerBucket())
}

var _ mctl.QueryHandler = MulticontrollerBucket{}

// Query answers a lookup by resource id, or with the prefix modifier a scan
// over all records whose id starts with the given bytes.
func (b MulticontrollerBucket) Query(db mctl.ReadOnlyKVStore, mod string, data []byte) ([]mctl.Model, error) {
	switch mod {
	case mctl.KeyQueryMod:
		key := dbKey(data)
		value, err := db.Get(key)
		if err != nil {
			return nil, errors.Wrap(err, "bucket lookup")
		}
		if value == nil {
			return nil, nil
		}
		return []mctl.Model{mctl.Pair(key, value)}, nil
	case mctl.PrefixQueryMod:
		prefix := dbKey(data)
		it, err := db.Iterator(prefix, prefixEnd(prefix))
		if err != nil {
			return nil, errors.Wrap(err, "prefix scan")
		}
		defer it.Close()
		var models []mctl.Model
		for ; it.Valid(); it.Next() {
			key := append([]byte(nil), it.Key()...)
			value := append([]byte(nil), it.Value()...)
			models = append(models, mctl.Pair(key, value))
		}
		return models, nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown query modifier %q", mod)
	}
}

// prefixEnd returns the smallest key that is bigger than every key starting
// with the prefix, or nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
