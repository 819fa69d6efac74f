package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrPermissionDenied is returned when a credential is valid but does
	// not carry the permission bit an operation requires.
	ErrPermissionDenied = Register(2, "permission denied")

	// ErrInvalidCapability is returned when a capability or delegation
	// token is presented against the wrong resource, or when it names a
	// controller slot that no longer records it.
	ErrInvalidCapability = Register(3, "invalid capability")

	// ErrAlreadyVoted is returned when a controller approves a proposal it
	// already approved.
	ErrAlreadyVoted = Register(4, "already voted")

	// ErrNotVoted is returned when a controller retracts an approval it
	// never cast.
	ErrNotVoted = Register(5, "not voted")

	// ErrExpired is returned when a proposal is executed past its
	// expiration time.
	ErrExpired = Register(6, "expired")

	// ErrInvalidConfiguration is returned when a controller set change
	// would leave the threshold above the total weight.
	ErrInvalidConfiguration = Register(7, "invalid configuration")

	// ErrUnsentAssets is returned when a send scope concludes with
	// promised transfers still unconsumed.
	ErrUnsentAssets = Register(8, "unsent assets")

	// ErrUnreturnedObjects is returned when a borrow scope concludes with
	// objects still outstanding.
	ErrUnreturnedObjects = Register(9, "unreturned objects")

	// ErrInvalidObject is returned when an execution scope touches an
	// object id the action never promised.
	ErrInvalidObject = Register(10, "invalid object")

	// ErrNotFound is used when a requested entity cannot be loaded.
	ErrNotFound = Register(11, "not found")

	// ErrInput stands for general input problems indication.
	ErrInput = Register(12, "invalid input")

	// ErrState is returned when an operation is valid in general but not
	// in the current state of the entity.
	ErrState = Register(13, "invalid state")

	// ErrEmpty is returned when a value fails a not empty assertion.
	ErrEmpty = Register(14, "value is empty")

	// ErrDuplicate is returned when a record with the same unique key
	// already exists.
	ErrDuplicate = Register(15, "duplicate")

	// ErrOverflow is returned when a computation result exceeds the type.
	ErrOverflow = Register(16, "value overflow")

	// ErrType is returned whenever the type is not what was expected.
	ErrType = Register(17, "invalid type")

	// ErrDatabase is returned when the storage layer misbehaves.
	ErrDatabase = Register(18, "database")

	// ErrHuman is returned when the code reaches a path that must not be
	// reachable if everything was wired as the framework expects.
	ErrHuman = Register(19, "coding error")

	// ErrPanic is only set when we recover from a panic, so we know to
	// redact potentially sensitive system info.
	ErrPanic = Register(111222, "panic")
)

// Register returns an error instance that should be used as the base for
// creating error instances during runtime.
//
// Popular root errors are declared in this package, but extensions may want
// to declare custom codes. This function ensures that no error code is used
// twice. Attempt to reuse an error code results in panic.
//
// Use this function only during a program startup phase.
func Register(code uint32, description string) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{
		code: code,
		desc: description,
	}
	usedCodes[err.code] = err
	return err
}

// usedCodes is keeping track of used codes to ensure their uniqueness. No two
// error instances should share the same error code.
var usedCodes = map[uint32]*Error{
	1: nil, // Error code 1 is restricted for unclassified errors and must not be used.
}

// Error represents a root error.
//
// The engine is using root errors to categorize issues. Each instance created
// during the runtime should wrap one of the declared root errors. This allows
// error tests and returning all errors to the client in a safe manner.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

// Code returns the unique classification code of this root error.
func (e Error) Code() uint32 {
	return e.code
}

// New returns a new error. Returned instance is having the root cause set to
// this error. Below two lines are equal
//   e.New("my description")
//   Wrap(e, "my description")
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is basically New with formatting capabilities.
func (e *Error) Newf(description string, args ...interface{}) error {
	return e.New(fmt.Sprintf(description, args...))
}

// Is checks if given error instance is of a given kind/type. This involves
// unwrapping given error using the Cause method if available.
func (kind *Error) Is(err error) bool {
	// Reflect usage is necessary to correctly compare with
	// a nil implementation of an error.
	if kind == nil {
		if err == nil {
			return true
		}
		return reflect.ValueOf(err).IsNil()
	}

	for {
		if err == kind {
			return true
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return false
		}
	}
}

// Wrap extends given error with an additional information.
//
// If err is nil, this returns nil, avoiding the need for an if statement when
// wrapping an error returned at the end of a function.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}

	// If this error does not carry the stacktrace information yet, attach
	// one. This should be done only once per error at the lowest frame
	// possible (most inner wrap).
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	return &wrappedError{
		parent: err,
		msg:    description,
	}
}

// Wrapf extends given error with an additional information.
//
// This function works like Wrap function with additional functionality of
// formatting the input as specified.
func Wrapf(err error, format string, args ...interface{}) error {
	desc := fmt.Sprintf(format, args...)
	return Wrap(err, desc)
}

type wrappedError struct {
	// This error layer description.
	msg string
	// The underlying error that triggered this one.
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Recover captures a panic and stop its propagation. If panic happens it is
// transformed into a ErrPanic instance and assigned to given error. Call this
// function using defer in order to work as expected.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

// stackTracer is implemented by errors that carry a pkg/errors stack trace.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// stackTrace returns the stack trace attached to the deepest frame of given
// error chain, or nil if no frame carries one.
func stackTrace(err error) errors.StackTrace {
	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return nil
		}
	}
}

// causer is an interface implemented by an error that supports wrapping. Use
// it to test if an error wraps another error instance.
type causer interface {
	Cause() error
}
