package multicontrol

import (
	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

// maxActionObjects bounds the object lists an action may promise.
const maxActionObjects = 1000

// Action is the change a resolved proposal will apply. The union is closed:
// exactly the concrete types registered in the package codec exist, and every
// dispatch over actions must handle all of them.
type Action interface {
	// Validate returns an error if the action can never be applied.
	Validate() error

	// Kind returns a short stable tag identifying the variant, used in
	// result tags.
	Kind() string
}

// ConfigChange applies controller additions, removals, weight updates, a
// threshold change and optionally a replacement of the governed value in one
// step.
type ConfigChange struct {
	Add    []Member
	Remove []mctl.Address
	Update []Member

	// NewThreshold replaces the threshold when non-zero.
	NewThreshold uint64

	// NewValue replaces the governed value when non-nil.
	NewValue []byte
}

var _ Action = (*ConfigChange)(nil)

func (a *ConfigChange) Kind() string { return "config-change" }

func (a *ConfigChange) Validate() error {
	if len(a.Add) == 0 && len(a.Remove) == 0 && len(a.Update) == 0 &&
		a.NewThreshold == 0 && a.NewValue == nil {
		return errors.Wrap(errors.ErrEmpty, "no changes")
	}
	for _, m := range a.Add {
		if err := m.Validate(); err != nil {
			return errors.Wrapf(err, "add %s", m.Address)
		}
	}
	for _, addr := range a.Remove {
		if err := addr.Validate(); err != nil {
			return errors.Wrap(err, "remove")
		}
	}
	for _, m := range a.Update {
		if err := m.Validate(); err != nil {
			return errors.Wrapf(err, "update %s", m.Address)
		}
	}
	return nil
}

// Transfer names one owned object and the address that must receive it.
type Transfer struct {
	ObjectID  []byte
	Recipient mctl.Address
}

// Validate returns an error if the transfer pair is unusable.
func (t Transfer) Validate() error {
	if len(t.ObjectID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "object id")
	}
	if err := t.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	return nil
}

// Send transfers each listed owned object to its paired recipient exactly
// once. The send scope cannot conclude while any pair remains unconsumed.
type Send struct {
	Transfers []Transfer
}

var _ Action = (*Send)(nil)

func (a *Send) Kind() string { return "send" }

func (a *Send) Validate() error {
	switch n := len(a.Transfers); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "transfers")
	case n > maxActionObjects:
		return errors.Wrapf(errors.ErrInput, "transfers must not exceed %d", maxActionObjects)
	}
	seen := make(map[string]struct{}, len(a.Transfers))
	for _, t := range a.Transfers {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, ok := seen[string(t.ObjectID)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "object %X", t.ObjectID)
		}
		seen[string(t.ObjectID)] = struct{}{}
	}
	return nil
}

// Borrow grants temporary custody of the named owned objects for the rest of
// the execution scope. Every object received must be put back before the
// scope concludes.
type Borrow struct {
	Objects [][]byte
}

var _ Action = (*Borrow)(nil)

func (a *Borrow) Kind() string { return "borrow" }

func (a *Borrow) Validate() error {
	switch n := len(a.Objects); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "objects")
	case n > maxActionObjects:
		return errors.Wrapf(errors.ErrInput, "objects must not exceed %d", maxActionObjects)
	}
	seen := make(map[string]struct{}, len(a.Objects))
	for _, id := range a.Objects {
		if len(id) == 0 {
			return errors.Wrap(errors.ErrEmpty, "object id")
		}
		if _, ok := seen[string(id)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "object %X", id)
		}
		seen[string(id)] = struct{}{}
	}
	return nil
}

// ControllerExecution lets the executing resource borrow the capability it
// holds as a controller of another governed resource, for the duration of
// one execution scope and under the same borrow/return discipline as Borrow.
type ControllerExecution struct {
	// ControllerOf is the id of the other multicontroller.
	ControllerOf mctl.Address

	// CapabilityID is the id of the capability to borrow, as recorded in
	// the other resource's controller table.
	CapabilityID []byte
}

var _ Action = (*ControllerExecution)(nil)

func (a *ControllerExecution) Kind() string { return "controller-execution" }

func (a *ControllerExecution) Validate() error {
	if err := a.ControllerOf.Validate(); err != nil {
		return errors.Wrap(err, "controller of")
	}
	if len(a.CapabilityID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "capability id")
	}
	return nil
}

// Upgrade bumps the governed value's version, marking a migration to a new
// payload revision.
type Upgrade struct{}

var _ Action = (*Upgrade)(nil)

func (a *Upgrade) Kind() string { return "upgrade" }

func (a *Upgrade) Validate() error { return nil }

// Deactivate marks the governed value out of service without destroying the
// resource.
type Deactivate struct{}

var _ Action = (*Deactivate)(nil)

func (a *Deactivate) Kind() string { return "deactivate" }

func (a *Deactivate) Validate() error { return nil }

// Delete schedules destruction of the whole resource. It can only be applied
// once the proposal table is otherwise drained.
type Delete struct{}

var _ Action = (*Delete)(nil)

func (a *Delete) Kind() string { return "delete" }

func (a *Delete) Validate() error { return nil }
