package multicontrol

import (
	"bytes"

	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

// ApplyConfigChange applies a controller set change in one step: removals,
// weight updates, additions, threshold change and optionally a replacement
// of the governed value. The threshold invariant is re-validated against the
// post-change weights at apply time, because weights may have changed since
// the proposal was created; a violation fails ErrInvalidConfiguration with
// the multicontroller untouched. Freshly minted capabilities for added
// controllers are returned for the host to distribute.
//
// Pending proposals keep their voter sets. Their tallies are computed
// against the controller table at resolution time, so removals and weight
// updates take effect on them without any sweeping here.
func (m *Multicontroller) ApplyConfigChange(change *ConfigChange) ([]*Capability, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}

	// Stage the new controller table; m is only mutated once the whole
	// change validated.
	staged := make([]Controller, len(m.Controllers))
	for i, c := range m.Controllers {
		staged[i] = c
	}

	for _, addr := range change.Remove {
		idx := -1
		for i := range staged {
			if staged[i].Address.Equals(addr) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.Wrapf(errors.ErrNotFound, "controller %s", addr)
		}
		staged = append(staged[:idx], staged[idx+1:]...)
	}

	for _, update := range change.Update {
		found := false
		for i := range staged {
			if staged[i].Address.Equals(update.Address) {
				staged[i].Weight = update.Weight
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Wrapf(errors.ErrNotFound, "controller %s", update.Address)
		}
	}

	for _, member := range change.Add {
		for i := range staged {
			if staged[i].Address.Equals(member.Address) {
				return nil, errors.Wrapf(errors.ErrDuplicate, "controller %s", member.Address)
			}
		}
		// The capability id is minted at commit below; stage with an
		// empty one for the weight arithmetic.
		staged = append(staged, Controller{
			Address: member.Address.Clone(),
			Weight:  member.Weight,
		})
	}

	threshold := m.Threshold
	if change.NewThreshold != 0 {
		threshold = change.NewThreshold
	}
	if len(staged) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidConfiguration, "no controllers left")
	}
	var total uint64
	for _, c := range staged {
		total += uint64(c.Weight)
	}
	if threshold > total {
		return nil, errors.Wrapf(errors.ErrInvalidConfiguration,
			"threshold %d exceeds total weight %d", threshold, total)
	}

	// Commit. Mint capabilities for the added controllers now so that the
	// nonce only advances on success.
	minted := make([]*Capability, 0, len(change.Add))
	for i := range staged {
		if staged[i].CapabilityID != nil {
			continue
		}
		ability := &Capability{
			ID:         m.nextCapabilityID(staged[i].Address),
			MultiID:    m.ID.Clone(),
			Controller: staged[i].Address.Clone(),
		}
		staged[i].CapabilityID = ability.ID
		minted = append(minted, ability)
	}
	m.Controllers = staged
	m.Threshold = threshold
	if change.NewValue != nil {
		m.Value = change.NewValue
	}
	return minted, nil
}

// SendLedger is the execution scope of a Send action. Each promised
// object/recipient pair must be withdrawn exactly once before the scope can
// complete.
type SendLedger struct {
	ledger     *ReturnLedger
	recipients map[string]mctl.Address
}

// ApplySend opens the send scope for the given action.
func (m *Multicontroller) ApplySend(action *Send) *SendLedger {
	ids := make([][]byte, len(action.Transfers))
	recipients := make(map[string]mctl.Address, len(action.Transfers))
	for i, t := range action.Transfers {
		ids[i] = t.ObjectID
		recipients[string(t.ObjectID)] = t.Recipient
	}
	return &SendLedger{
		ledger:     newReturnLedger(ids),
		recipients: recipients,
	}
}

// Withdraw consumes one promised pair. The object must be promised by the
// action and the recipient must match the promised one, otherwise the pair
// fails ErrInvalidObject.
func (s *SendLedger) Withdraw(objectID []byte, recipient mctl.Address) error {
	promised, ok := s.recipients[string(objectID)]
	if !ok {
		return errors.Wrapf(errors.ErrInvalidObject, "object %X", objectID)
	}
	if !promised.Equals(recipient) {
		return errors.Wrapf(errors.ErrInvalidObject,
			"object %X promised to %s", objectID, promised)
	}
	if err := s.ledger.Receive(objectID); err != nil {
		return err
	}
	// A withdrawn object leaves the resource for good; there is no return
	// obligation to track.
	return s.ledger.PutBack(objectID)
}

// CompleteSend concludes the scope. It fails ErrUnsentAssets while any
// promised pair remains unconsumed, so the action can never be left
// half-applied and then discarded.
func (s *SendLedger) CompleteSend() error {
	if n := s.ledger.Pending(); n > 0 {
		return errors.Wrapf(errors.ErrUnsentAssets, "%d transfers pending", n)
	}
	return nil
}

// BorrowLedger is the execution scope of a Borrow action.
type BorrowLedger struct {
	ledger *ReturnLedger
}

// ApplyBorrow opens the borrow scope for the given action.
func (m *Multicontroller) ApplyBorrow(action *Borrow) *BorrowLedger {
	return &BorrowLedger{ledger: newReturnLedger(action.Objects)}
}

// Receive takes temporary custody of one promised object.
func (b *BorrowLedger) Receive(objectID []byte) error {
	return b.ledger.Receive(objectID)
}

// PutBack returns one borrowed object.
func (b *BorrowLedger) PutBack(objectID []byte) error {
	return b.ledger.PutBack(objectID)
}

// ConcludeBorrow concludes the scope. It fails ErrUnreturnedObjects unless
// every promised object was received and every received object was put back.
func (b *BorrowLedger) ConcludeBorrow() error {
	if n := b.ledger.Pending() + b.ledger.Outstanding(); n > 0 {
		return errors.Wrapf(errors.ErrUnreturnedObjects, "%d objects unaccounted", n)
	}
	return nil
}

// CapabilityLoan is the execution scope of a ControllerExecution action: the
// executing resource borrows the capability it holds as a controller of
// another governed resource, under the same ledger discipline as Borrow.
type CapabilityLoan struct {
	ledger  *ReturnLedger
	ability *Capability
}

// ApplyControllerExecution opens the loan scope. The lender is the other
// multicontroller named by the action, borrower the id of the executing
// resource. The named capability must be the live one recorded in the
// lender's controller table for the borrower's slot.
func ApplyControllerExecution(lender *Multicontroller, borrower mctl.Address, action *ControllerExecution) (*CapabilityLoan, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	if !lender.ID.Equals(action.ControllerOf) {
		return nil, errors.Wrapf(errors.ErrInvalidCapability,
			"action names %s, not %s", action.ControllerOf, lender.ID)
	}
	ctrl, ok := lender.Controller(borrower)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidCapability,
			"%s is not a controller of %s", borrower, lender.ID)
	}
	if !bytes.Equal(ctrl.CapabilityID, action.CapabilityID) {
		return nil, errors.Wrap(errors.ErrInvalidCapability, "capability superseded")
	}
	return &CapabilityLoan{
		ledger: newReturnLedger([][]byte{action.CapabilityID}),
		ability: &Capability{
			ID:         append([]byte(nil), ctrl.CapabilityID...),
			MultiID:    lender.ID.Clone(),
			Controller: borrower.Clone(),
		},
	}, nil
}

// Borrow hands out the lent capability, at most once per scope.
func (l *CapabilityLoan) Borrow() (*Capability, error) {
	if err := l.ledger.Receive(l.ability.ID); err != nil {
		return nil, err
	}
	return l.ability, nil
}

// Return takes the lent capability back.
func (l *CapabilityLoan) Return(ability *Capability) error {
	if ability == nil {
		return errors.Wrap(errors.ErrEmpty, "capability")
	}
	return l.ledger.PutBack(ability.ID)
}

// Conclude concludes the scope. It fails ErrUnreturnedObjects unless the
// capability went out and came back.
func (l *CapabilityLoan) Conclude() error {
	if l.ledger.Pending()+l.ledger.Outstanding() > 0 {
		return errors.Wrap(errors.ErrUnreturnedObjects, "capability not returned")
	}
	return nil
}

// ApplyUpgrade bumps the governed value's revision counter.
func (m *Multicontroller) ApplyUpgrade(*Upgrade) {
	m.Version++
}

// ApplyDeactivate marks the governed value out of service.
func (m *Multicontroller) ApplyDeactivate(*Deactivate) {
	m.Deactivated = true
}

// ApplyDelete verifies the resource may be destroyed. The proposal table
// must be drained first; the actual removal from the store is the bucket's
// job.
func (m *Multicontroller) ApplyDelete(*Delete) error {
	if n := len(m.Proposals); n > 0 {
		return errors.Wrapf(errors.ErrState, "%d pending proposals", n)
	}
	return nil
}
