package multicontrol

import (
	"github.com/tillage-one/mctl/errors"
)

// ReturnLedger is the scoped must-return tracker behind every action that
// hands out linear resources. It lives for exactly one action-execution
// scope: created empty of obligations when the action is applied, populated
// as resources are handed to the caller, and asserted clean when the scope
// concludes.
//
// Two counts are enforced. Every id the action promised must be received
// exactly once, and every received id must be handed back if the scope
// demands returns. A scope that cannot prove both has to abort the whole
// enclosing operation.
type ReturnLedger struct {
	pending     map[string]struct{}
	outstanding map[string]struct{}
}

func newReturnLedger(ids [][]byte) *ReturnLedger {
	pending := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		pending[string(id)] = struct{}{}
	}
	return &ReturnLedger{
		pending:     pending,
		outstanding: make(map[string]struct{}),
	}
}

// Receive marks one promised id as handed out. An id outside the promise, or
// one handed out before, fails with ErrInvalidObject.
func (l *ReturnLedger) Receive(id []byte) error {
	if _, ok := l.pending[string(id)]; !ok {
		return errors.Wrapf(errors.ErrInvalidObject, "object %X", id)
	}
	delete(l.pending, string(id))
	l.outstanding[string(id)] = struct{}{}
	return nil
}

// PutBack clears the return obligation for one handed-out id. An id that is
// not outstanding fails with ErrInvalidObject.
func (l *ReturnLedger) PutBack(id []byte) error {
	if _, ok := l.outstanding[string(id)]; !ok {
		return errors.Wrapf(errors.ErrInvalidObject, "object %X", id)
	}
	delete(l.outstanding, string(id))
	return nil
}

// Pending returns how many promised ids were not received yet.
func (l *ReturnLedger) Pending() int {
	return len(l.pending)
}

// Outstanding returns how many handed-out ids still must come back.
func (l *ReturnLedger) Outstanding() int {
	return len(l.outstanding)
}
