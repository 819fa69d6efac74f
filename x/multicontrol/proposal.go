package multicontrol

import (
	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

// Proposal is a pending, votable request to apply an action. Only the voter
// set is persisted. The weight behind the votes is tallied against the
// current controller table every time resolution is checked, so a
// configuration change reweighting or removing a voter takes effect on all
// pending proposals immediately. A proposal leaves the table in exactly two
// ways: executed (action applied) or deleted (discarded with no effect on
// the governed value).
type Proposal struct {
	ID     uint64
	Action Action
	Voters []mctl.Address

	// Expiration is the moment after which the proposal can no longer be
	// executed. Zero means no expiration. Checked lazily at execute time,
	// never swept.
	Expiration mctl.UnixTime
}

// Validate returns an error if the proposal is structurally broken.
func (p *Proposal) Validate() error {
	if p.Action == nil {
		return errors.Wrap(errors.ErrEmpty, "action")
	}
	if err := p.Action.Validate(); err != nil {
		return errors.Wrap(err, "action")
	}
	if err := p.Expiration.Validate(); err != nil {
		return errors.Wrap(err, "expiration")
	}
	return nil
}

// HasVoted returns true if the given controller already approved.
func (p *Proposal) HasVoted(addr mctl.Address) bool {
	for _, v := range p.Voters {
		if v.Equals(addr) {
			return true
		}
	}
	return false
}

// Copy returns a copy of this proposal with its own voter slice. The action
// is shared with the original. Actions are never mutated after creation so
// sharing is safe.
func (p *Proposal) Copy() *Proposal {
	voters := make([]mctl.Address, len(p.Voters))
	for i, v := range p.Voters {
		voters[i] = v.Clone()
	}
	return &Proposal{
		ID:         p.ID,
		Action:     p.Action,
		Voters:     voters,
		Expiration: p.Expiration,
	}
}

// Tally sums the current weights of all controllers that approved the given
// proposal. A voter that was removed from the controller table contributes
// nothing and a reweighted voter counts with the new weight.
func (m *Multicontroller) Tally(p *Proposal) uint64 {
	var votes uint64
	for _, v := range p.Voters {
		if ctrl, ok := m.Controller(v); ok {
			votes += uint64(ctrl.Weight)
		}
	}
	return votes
}

// Resolved reports whether the tallied weight reaches the threshold.
// Resolution is recomputed on demand and never latched: retracting an
// approval or shrinking a voter's weight can make a resolved proposal
// pending again.
func (m *Multicontroller) Resolved(p *Proposal) bool {
	return m.Tally(p) >= m.Threshold
}

// CreateProposal opens a proposal for the given action with the creator
// registered as the first voter. Requires the create-proposal bit.
func (m *Multicontroller) CreateProposal(cred Credential, action Action, expiration mctl.UnixTime) (*Proposal, error) {
	ctrl, err := m.Authorize(cred, PermCreateProposal)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "action")
	}
	if err := action.Validate(); err != nil {
		return nil, errors.Wrap(err, "action")
	}
	if err := expiration.Validate(); err != nil {
		return nil, errors.Wrap(err, "expiration")
	}

	m.ProposalSeq++
	proposal := &Proposal{
		ID:         m.ProposalSeq,
		Action:     action,
		Voters:     []mctl.Address{ctrl.Address.Clone()},
		Expiration: expiration,
	}
	m.Proposals = append(m.Proposals, proposal)
	return proposal, nil
}

// Approve registers the caller as a voter. Approvals from distinct
// controllers are commutative; approving twice is rejected with
// ErrAlreadyVoted. Requires the approve-proposal bit.
func (m *Multicontroller) Approve(cred Credential, proposalID uint64) error {
	ctrl, err := m.Authorize(cred, PermApproveProposal)
	if err != nil {
		return err
	}
	proposal, err := m.Proposal(proposalID)
	if err != nil {
		return err
	}
	if proposal.HasVoted(ctrl.Address) {
		return errors.Wrapf(errors.ErrAlreadyVoted, "controller %s", ctrl.Address)
	}
	proposal.Voters = append(proposal.Voters, ctrl.Address.Clone())
	return nil
}

// RemoveApproval retracts the caller's vote. Requires the remove-approval
// bit.
func (m *Multicontroller) RemoveApproval(cred Credential, proposalID uint64) error {
	ctrl, err := m.Authorize(cred, PermRemoveApproval)
	if err != nil {
		return err
	}
	proposal, err := m.Proposal(proposalID)
	if err != nil {
		return err
	}
	for i, v := range proposal.Voters {
		if v.Equals(ctrl.Address) {
			proposal.Voters = append(proposal.Voters[:i], proposal.Voters[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(errors.ErrNotVoted, "controller %s", ctrl.Address)
}

// Execute removes a resolved, unexpired proposal from the table and hands
// its action back to the caller. The action-specific application must
// complete within the same atomic operation. Requires the execute-proposal
// bit.
func (m *Multicontroller) Execute(cred Credential, proposalID uint64, now mctl.UnixTime) (Action, error) {
	if _, err := m.Authorize(cred, PermExecuteProposal); err != nil {
		return nil, err
	}
	proposal, err := m.Proposal(proposalID)
	if err != nil {
		return nil, err
	}
	if !m.Resolved(proposal) {
		return nil, errors.Wrapf(errors.ErrState,
			"not resolved: %d of %d", m.Tally(proposal), m.Threshold)
	}
	if !proposal.Expiration.IsZero() && proposal.Expiration.Elapsed(now) {
		return nil, errors.Wrapf(errors.ErrExpired, "proposal %d", proposalID)
	}
	m.dropProposal(proposalID)
	return proposal.Action, nil
}

// DeleteProposal discards a proposal in any state with no effect on the
// governed value. Requires the delete-proposal bit.
func (m *Multicontroller) DeleteProposal(cred Credential, proposalID uint64) error {
	if _, err := m.Authorize(cred, PermDeleteProposal); err != nil {
		return err
	}
	if _, err := m.Proposal(proposalID); err != nil {
		return err
	}
	m.dropProposal(proposalID)
	return nil
}
