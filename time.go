package mctl

import (
	"encoding/json"
	"time"

	"github.com/tillage-one/mctl/errors"
)

// UnixTime is a point in time in POSIX seconds. The engine never needs
// sub-second precision and an int64 keeps the wire and store encodings
// trivial.
type UnixTime int64

// AsUnixTime converts a time.Time into its POSIX seconds representation.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// Time converts back to the standard library representation.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// IsZero returns true for the zero value, which the engine reads as "not
// set".
func (t UnixTime) IsZero() bool {
	return t == 0
}

// Add shifts this time by the given duration, truncated to seconds.
func (t UnixTime) Add(d time.Duration) UnixTime {
	return t + UnixTime(d/time.Second)
}

// Elapsed reports whether this time is at or before the given moment. The
// boundary is inclusive, an event scheduled for exactly now has elapsed.
// All deadline checks in the engine must go through this method so that the
// boundary rule lives in one place.
func (t UnixTime) Elapsed(now UnixTime) bool {
	return t <= now
}

// Validate returns an error if this time cannot be used by the engine.
// Times before the epoch are rejected.
func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrState, "negative value")
	}
	return nil
}

// UnmarshalJSON accepts either a plain POSIX seconds number or a string in
// the time.Time format. The string form is what genesis files tend to use.
func (t *UnixTime) UnmarshalJSON(raw []byte) error {
	var unix int64
	if err := json.Unmarshal(raw, &unix); err == nil {
		if err := UnixTime(unix).Validate(); err != nil {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = UnixTime(unix)
		return nil
	}

	var stdtime time.Time
	if err := json.Unmarshal(raw, &stdtime); err != nil {
		return errors.Wrap(errors.ErrInput, "invalid time format")
	}
	parsed := AsUnixTime(stdtime)
	if err := parsed.Validate(); err != nil {
		return errors.Wrap(errors.ErrInput, "time before epoch")
	}
	*t = parsed
	return nil
}

func (t UnixTime) String() string {
	return t.Time().UTC().String()
}
