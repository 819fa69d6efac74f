package mctl

import (
	"reflect"

	"github.com/tillage-one/mctl/errors"
)

// Marshaller is anything that can be represented in binary.
//
// Marshal may validate the data before serializing it and unless you
// previously validated the struct, errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal.
//
// This is separated from Marshaller, as this almost always requires a
// pointer, and functions that only need to marshal bytes can use the
// Marshaller interface to access non-pointers.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Msg is a request to make a single state transition. It is just the request
// and must be validated by the handlers. All credential information is part
// of the message itself: a capability or a delegation token proves the
// caller's authority over a specific multicontroller.
type Msg interface {
	Persistent

	// Validate returns an error if the message content is invalid. This
	// is a stateless check that does not require access to the store.
	Validate() error

	// Path returns the message path. It is used by the registry to locate
	// the proper handler. Must be alphanumeric [0-9A-Za-z_\-/]+.
	Path() string
}

// Tx represents the data sent from the user to the engine. It includes the
// actual message along with anything else needed to pass through middleware.
//
// Each host must define its own tx type, which embeds all the middlewares
// that it wishes to use.
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate.
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message.
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder can parse bytes into a Tx.
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message from given transaction, ensures it is of the
// expected type, validates it and loads into the destination.
func LoadMsg(tx Tx, destination Msg) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "get msg")
	}
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "validate msg")
	}

	dval := reflect.ValueOf(destination)
	if dval.Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrType, "destination must be a pointer")
	}
	mval := reflect.ValueOf(msg)
	if dval.Type() != mval.Type() {
		return errors.Wrapf(errors.ErrType, "want %T, got %T", destination, msg)
	}
	dval.Elem().Set(mval.Elem())
	return nil
}
