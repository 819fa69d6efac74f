package multicontrol

import (
	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

const (
	pathCreateMsg         = "multicontrol/create"
	pathCreateProposalMsg = "multicontrol/create_proposal"
	pathApproveMsg        = "multicontrol/approve"
	pathRemoveApprovalMsg = "multicontrol/remove_approval"
	pathExecuteMsg        = "multicontrol/execute"
	pathDeleteProposalMsg = "multicontrol/delete_proposal"
	pathMintDelegationMsg = "multicontrol/mint_delegation"
)

// CreateMsg sets up a new governed resource with the given controller set.
type CreateMsg struct {
	Value     []byte
	Members   []Member
	Threshold uint64
}

var _ mctl.Msg = (*CreateMsg)(nil)

func (CreateMsg) Path() string { return pathCreateMsg }

func (m *CreateMsg) Validate() error {
	if len(m.Members) == 0 {
		return errors.Wrap(errors.ErrEmpty, "members")
	}
	var total uint64
	for _, member := range m.Members {
		if err := member.Validate(); err != nil {
			return errors.Wrapf(err, "member %s", member.Address)
		}
		total += uint64(member.Weight)
	}
	if m.Threshold == 0 {
		return errors.Wrap(errors.ErrInvalidConfiguration, "threshold must not be empty")
	}
	if m.Threshold > total {
		return errors.Wrapf(errors.ErrInvalidConfiguration,
			"threshold %d exceeds total weight %d", m.Threshold, total)
	}
	return nil
}

func (m *CreateMsg) Marshal() ([]byte, error) { return cdc.MarshalBinaryBare(m) }
func (m *CreateMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// CreateProposalMsg opens a proposal carrying an action. With Execute set
// and the proposal resolved by the creator's own weight, the action is
// applied in the same operation; that is a convenience composition, not a
// distinct contract.
type CreateProposalMsg struct {
	MultiID    mctl.Address
	Credential Credential
	Action     Action
	Expiration mctl.UnixTime
	Execute    bool
}

var _ mctl.Msg = (*CreateProposalMsg)(nil)

func (CreateProposalMsg) Path() string { return pathCreateProposalMsg }

func (m *CreateProposalMsg) Validate() error {
	if err := m.MultiID.Validate(); err != nil {
		return errors.Wrap(err, "multicontroller id")
	}
	if err := validateCredential(m.Credential); err != nil {
		return err
	}
	if m.Action == nil {
		return errors.Wrap(errors.ErrEmpty, "action")
	}
	if err := m.Action.Validate(); err != nil {
		return errors.Wrap(err, "action")
	}
	if err := m.Expiration.Validate(); err != nil {
		return errors.Wrap(err, "expiration")
	}
	return nil
}

func (m *CreateProposalMsg) Marshal() ([]byte, error) { return cdc.MarshalBinaryBare(m) }
func (m *CreateProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ApproveMsg adds the caller's weight to a pending proposal.
type ApproveMsg struct {
	MultiID    mctl.Address
	ProposalID uint64
	Credential Credential
}

var _ mctl.Msg = (*ApproveMsg)(nil)

func (ApproveMsg) Path() string { return pathApproveMsg }

func (m *ApproveMsg) Validate() error {
	return validateProposalRef(m.MultiID, m.ProposalID, m.Credential)
}

func (m *ApproveMsg) Marshal() ([]byte, error) { return cdc.MarshalBinaryBare(m) }
func (m *ApproveMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// RemoveApprovalMsg retracts the caller's vote from a pending proposal.
type RemoveApprovalMsg struct {
	MultiID    mctl.Address
	ProposalID uint64
	Credential Credential
}

var _ mctl.Msg = (*RemoveApprovalMsg)(nil)

func (RemoveApprovalMsg) Path() string { return pathRemoveApprovalMsg }

func (m *RemoveApprovalMsg) Validate() error {
	return validateProposalRef(m.MultiID, m.ProposalID, m.Credential)
}

func (m *RemoveApprovalMsg) Marshal() ([]byte, error) { return cdc.MarshalBinaryBare(m) }
func (m *RemoveApprovalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ExecuteMsg applies a resolved proposal's action within this operation.
// Actions that lend out resources (Borrow, ControllerExecution) need a
// multi-call execution scope and are rejected on this one-shot surface; use
// the direct API inside a host transaction for those.
type ExecuteMsg struct {
	MultiID    mctl.Address
	ProposalID uint64
	Credential Credential
}

var _ mctl.Msg = (*ExecuteMsg)(nil)

func (ExecuteMsg) Path() string { return pathExecuteMsg }

func (m *ExecuteMsg) Validate() error {
	return validateProposalRef(m.MultiID, m.ProposalID, m.Credential)
}

func (m *ExecuteMsg) Marshal() ([]byte, error) { return cdc.MarshalBinaryBare(m) }
func (m *ExecuteMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// DeleteProposalMsg discards a proposal in any state.
type DeleteProposalMsg struct {
	MultiID    mctl.Address
	ProposalID uint64
	Credential Credential
}

var _ mctl.Msg = (*DeleteProposalMsg)(nil)

func (DeleteProposalMsg) Path() string { return pathDeleteProposalMsg }

func (m *DeleteProposalMsg) Validate() error {
	return validateProposalRef(m.MultiID, m.ProposalID, m.Credential)
}

func (m *DeleteProposalMsg) Marshal() ([]byte, error) { return cdc.MarshalBinaryBare(m) }
func (m *DeleteProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// MintDelegationMsg derives a restricted delegation token from a capability.
type MintDelegationMsg struct {
	MultiID     mctl.Address
	Capability  *Capability
	Permissions Permission
}

var _ mctl.Msg = (*MintDelegationMsg)(nil)

func (MintDelegationMsg) Path() string { return pathMintDelegationMsg }

func (m *MintDelegationMsg) Validate() error {
	if err := m.MultiID.Validate(); err != nil {
		return errors.Wrap(err, "multicontroller id")
	}
	if m.Capability == nil {
		return errors.Wrap(errors.ErrEmpty, "capability")
	}
	if err := m.Capability.Validate(); err != nil {
		return errors.Wrap(err, "capability")
	}
	return nil
}

func (m *MintDelegationMsg) Marshal() ([]byte, error) { return cdc.MarshalBinaryBare(m) }
func (m *MintDelegationMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func validateCredential(cred Credential) error {
	if cred == nil {
		return errors.Wrap(errors.ErrEmpty, "credential")
	}
	switch c := cred.(type) {
	case *Capability:
		return errors.Wrap(c.Validate(), "credential")
	case *DelegationToken:
		return errors.Wrap(c.Validate(), "credential")
	default:
		return errors.Wrapf(errors.ErrType, "credential %T", cred)
	}
}

func validateProposalRef(multiID mctl.Address, proposalID uint64, cred Credential) error {
	if err := multiID.Validate(); err != nil {
		return errors.Wrap(err, "multicontroller id")
	}
	if proposalID == 0 {
		return errors.Wrap(errors.ErrEmpty, "proposal id")
	}
	return validateCredential(cred)
}
