package multicontrol

import (
	"github.com/tendermint/tendermint/libs/common"

	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

const (
	// Gas allocations per message kind, charged at check time.
	creationCost  int64 = 300
	proposalCost  int64 = 150
	voteCost      int64 = 50
	executeCost   int64 = 200
	delegatedCost int64 = 100
)

// Tag keys emitted with delivered results. Tags are observability only and
// carry no authority.
const (
	tagMultiID    = "multictl:id"
	tagProposalID = "multictl:proposal"
	tagAction     = "multictl:action"
	tagEvent      = "multictl:event"
)

const (
	eventProposalCreated  = "proposal-created"
	eventProposalResolved = "proposal-resolved"
	eventProposalExecuted = "proposal-executed"
	eventProposalDeleted  = "proposal-deleted"
	eventConfigChanged    = "config-changed"
	eventTransfer         = "transfer"
	eventDelegationMinted = "delegation-minted"
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r mctl.Registry) {
	bucket := NewMulticontrollerBucket()
	r.Handle(pathCreateMsg, CreateHandler{bucket: bucket})
	r.Handle(pathCreateProposalMsg, CreateProposalHandler{bucket: bucket})
	r.Handle(pathApproveMsg, ApproveHandler{bucket: bucket})
	r.Handle(pathRemoveApprovalMsg, RemoveApprovalHandler{bucket: bucket})
	r.Handle(pathExecuteMsg, ExecuteHandler{bucket: bucket})
	r.Handle(pathDeleteProposalMsg, DeleteProposalHandler{bucket: bucket})
	r.Handle(pathMintDelegationMsg, MintDelegationHandler{bucket: bucket})
}

func kvPair(key, value string) common.KVPair {
	return common.KVPair{Key: []byte(key), Value: []byte(value)}
}

func proposalIDTag(id uint64) common.KVPair {
	return common.KVPair{Key: []byte(tagProposalID), Value: appendUint64(nil, id)}
}

// CreateHandler sets up new multicontrollers.
type CreateHandler struct {
	bucket MulticontrollerBucket
}

var _ mctl.Handler = CreateHandler{}

func (h CreateHandler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	var msg CreateMsg
	if err := mctl.LoadMsg(tx, &msg); err != nil {
		return mctl.CheckResult{}, err
	}
	return mctl.CheckResult{GasAllocated: creationCost}, nil
}

func (h CreateHandler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	var msg CreateMsg
	if err := mctl.LoadMsg(tx, &msg); err != nil {
		return mctl.DeliverResult{}, err
	}
	multi, caps, err := h.bucket.Create(db, msg.Value, msg.Members, msg.Threshold)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	// The minted capabilities are returned as result data. The host must
	// hand each one to its controller over a channel of its choosing; the
	// engine never stores them.
	data, err := cdc.MarshalBinaryBare(caps)
	if err != nil {
		return mctl.DeliverResult{}, errors.Wrap(errors.ErrState, err.Error())
	}
	return mctl.DeliverResult{
		Data: data,
		Tags: []common.KVPair{
			kvPair(tagMultiID, multi.ID.String()),
		},
	}, nil
}

// CreateProposalHandler opens proposals and optionally executes them in the
// same operation when the creator's own weight already resolves them.
type CreateProposalHandler struct {
	bucket MulticontrollerBucket
}

var _ mctl.Handler = CreateProposalHandler{}

func (h CreateProposalHandler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	msg, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return mctl.CheckResult{}, err
	}
	cost := proposalCost
	if msg.Execute {
		cost += executeCost
	}
	return mctl.CheckResult{GasAllocated: cost}, nil
}

func (h CreateProposalHandler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	msg, multi, err := h.validate(ctx, db, tx)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	proposal, err := multi.CreateProposal(msg.Credential, msg.Action, msg.Expiration)
	if err != nil {
		return mctl.DeliverResult{}, err
	}

	tags := []common.KVPair{
		kvPair(tagMultiID, multi.ID.String()),
		proposalIDTag(proposal.ID),
		kvPair(tagEvent, eventProposalCreated),
	}

	resData := appendUint64(nil, proposal.ID)
	if msg.Execute && multi.Resolved(proposal) {
		action, err := multi.Execute(msg.Credential, proposal.ID, blockNow(ctx))
		if err != nil {
			return mctl.DeliverResult{}, err
		}
		executeTags, executeData, deleted, err := applyAction(multi, action)
		if err != nil {
			// The proposal was consumed the moment it was executed. Persist
			// that together with the creation before surfacing the failure.
			if saveErr := h.bucket.Save(db, multi); saveErr != nil {
				return mctl.DeliverResult{}, saveErr
			}
			return mctl.DeliverResult{}, err
		}
		tags = append(tags, kvPair(tagEvent, eventProposalExecuted))
		tags = append(tags, executeTags...)
		if len(executeData) > 0 {
			resData = executeData
		}
		if deleted {
			if err := h.bucket.Delete(db, multi.ID); err != nil {
				return mctl.DeliverResult{}, err
			}
			return mctl.DeliverResult{Data: resData, Tags: tags}, nil
		}
	}

	if err := h.bucket.Save(db, multi); err != nil {
		return mctl.DeliverResult{}, err
	}
	return mctl.DeliverResult{Data: resData, Tags: tags}, nil
}

func (h CreateProposalHandler) validate(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (*CreateProposalMsg, *Multicontroller, error) {
	var msg CreateProposalMsg
	if err := mctl.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	multi, err := h.bucket.Get(db, msg.MultiID)
	if err != nil {
		return nil, nil, err
	}
	if msg.Execute {
		if _, ok := mctl.BlockTime(ctx); !ok {
			return nil, nil, errors.Wrap(errors.ErrHuman, "block time required")
		}
		if !deliverableAction(msg.Action) {
			return nil, nil, errors.Wrapf(errors.ErrState,
				"%s requires a host execution scope", msg.Action.Kind())
		}
	}
	return &msg, multi, nil
}

// ApproveHandler adds votes to pending proposals.
type ApproveHandler struct {
	bucket MulticontrollerBucket
}

var _ mctl.Handler = ApproveHandler{}

func (h ApproveHandler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return mctl.CheckResult{}, err
	}
	return mctl.CheckResult{GasAllocated: voteCost}, nil
}

func (h ApproveHandler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	msg, multi, err := h.validate(ctx, db, tx)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	proposal, err := multi.Proposal(msg.ProposalID)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	wasResolved := multi.Resolved(proposal)
	if err := multi.Approve(msg.Credential, msg.ProposalID); err != nil {
		return mctl.DeliverResult{}, err
	}
	if err := h.bucket.Save(db, multi); err != nil {
		return mctl.DeliverResult{}, err
	}
	tags := []common.KVPair{
		kvPair(tagMultiID, multi.ID.String()),
		proposalIDTag(msg.ProposalID),
	}
	if !wasResolved && multi.Resolved(proposal) {
		tags = append(tags, kvPair(tagEvent, eventProposalResolved))
	}
	return mctl.DeliverResult{Tags: tags}, nil
}

func (h ApproveHandler) validate(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (*ApproveMsg, *Multicontroller, error) {
	var msg ApproveMsg
	if err := mctl.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	multi, err := h.bucket.Get(db, msg.MultiID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, multi, nil
}

// RemoveApprovalHandler retracts votes. A resolved proposal can become
// pending again this way.
type RemoveApprovalHandler struct {
	bucket MulticontrollerBucket
}

var _ mctl.Handler = RemoveApprovalHandler{}

func (h RemoveApprovalHandler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return mctl.CheckResult{}, err
	}
	return mctl.CheckResult{GasAllocated: voteCost}, nil
}

func (h RemoveApprovalHandler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	msg, multi, err := h.validate(ctx, db, tx)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	if err := multi.RemoveApproval(msg.Credential, msg.ProposalID); err != nil {
		return mctl.DeliverResult{}, err
	}
	if err := h.bucket.Save(db, multi); err != nil {
		return mctl.DeliverResult{}, err
	}
	return mctl.DeliverResult{
		Tags: []common.KVPair{
			kvPair(tagMultiID, multi.ID.String()),
			proposalIDTag(msg.ProposalID),
		},
	}, nil
}

func (h RemoveApprovalHandler) validate(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (*RemoveApprovalMsg, *Multicontroller, error) {
	var msg RemoveApprovalMsg
	if err := mctl.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	multi, err := h.bucket.Get(db, msg.MultiID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, multi, nil
}

// ExecuteHandler applies resolved proposals. Only actions that complete
// within a single delivery are accepted here; lending actions must run
// through the direct API inside a host execution scope.
type ExecuteHandler struct {
	bucket MulticontrollerBucket
}

var _ mctl.Handler = ExecuteHandler{}

func (h ExecuteHandler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return mctl.CheckResult{}, err
	}
	return mctl.CheckResult{GasAllocated: executeCost}, nil
}

func (h ExecuteHandler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	msg, multi, err := h.validate(ctx, db, tx)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	proposal, err := multi.Proposal(msg.ProposalID)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	if !deliverableAction(proposal.Action) {
		// Rejected before execution so the proposal stays in the table and
		// can still run through the direct API.
		return mctl.DeliverResult{}, errors.Wrapf(errors.ErrState,
			"%s requires a host execution scope", proposal.Action.Kind())
	}
	action, err := multi.Execute(msg.Credential, msg.ProposalID, blockNow(ctx))
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	tags := []common.KVPair{
		kvPair(tagMultiID, multi.ID.String()),
		proposalIDTag(msg.ProposalID),
		kvPair(tagEvent, eventProposalExecuted),
	}
	actionTags, data, deleted, err := applyAction(multi, action)
	if err != nil {
		// The proposal was consumed the moment it was executed, even though
		// applying its action failed. Persist the consumption so that the
		// controllers must open a fresh proposal after fixing the cause.
		if saveErr := h.bucket.Save(db, multi); saveErr != nil {
			return mctl.DeliverResult{}, saveErr
		}
		return mctl.DeliverResult{}, err
	}
	tags = append(tags, actionTags...)
	if deleted {
		if err := h.bucket.Delete(db, multi.ID); err != nil {
			return mctl.DeliverResult{}, err
		}
		return mctl.DeliverResult{Tags: tags}, nil
	}
	if err := h.bucket.Save(db, multi); err != nil {
		return mctl.DeliverResult{}, err
	}
	return mctl.DeliverResult{Data: data, Tags: tags}, nil
}

func (h ExecuteHandler) validate(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (*ExecuteMsg, *Multicontroller, error) {
	var msg ExecuteMsg
	if err := mctl.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	multi, err := h.bucket.Get(db, msg.MultiID)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := mctl.BlockTime(ctx); !ok {
		return nil, nil, errors.Wrap(errors.ErrHuman, "block time required")
	}
	return &msg, multi, nil
}

// DeleteProposalHandler discards proposals in any state.
type DeleteProposalHandler struct {
	bucket MulticontrollerBucket
}

var _ mctl.Handler = DeleteProposalHandler{}

func (h DeleteProposalHandler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return mctl.CheckResult{}, err
	}
	return mctl.CheckResult{GasAllocated: voteCost}, nil
}

func (h DeleteProposalHandler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	msg, multi, err := h.validate(ctx, db, tx)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	if err := multi.DeleteProposal(msg.Credential, msg.ProposalID); err != nil {
		return mctl.DeliverResult{}, err
	}
	if err := h.bucket.Save(db, multi); err != nil {
		return mctl.DeliverResult{}, err
	}
	return mctl.DeliverResult{
		Tags: []common.KVPair{
			kvPair(tagMultiID, multi.ID.String()),
			proposalIDTag(msg.ProposalID),
			kvPair(tagEvent, eventProposalDeleted),
		},
	}, nil
}

func (h DeleteProposalHandler) validate(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (*DeleteProposalMsg, *Multicontroller, error) {
	var msg DeleteProposalMsg
	if err := mctl.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	multi, err := h.bucket.Get(db, msg.MultiID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, multi, nil
}

// MintDelegationHandler derives restricted delegation tokens.
type MintDelegationHandler struct {
	bucket MulticontrollerBucket
}

var _ mctl.Handler = MintDelegationHandler{}

func (h MintDelegationHandler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return mctl.CheckResult{}, err
	}
	return mctl.CheckResult{GasAllocated: delegatedCost}, nil
}

func (h MintDelegationHandler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	msg, multi, err := h.validate(ctx, db, tx)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	token, err := multi.MintDelegation(msg.Capability, msg.Permissions)
	if err != nil {
		return mctl.DeliverResult{}, err
	}
	// Minting consumed a nonce from the capability sequence.
	if err := h.bucket.Save(db, multi); err != nil {
		return mctl.DeliverResult{}, err
	}
	data, err := cdc.MarshalBinaryBare(token)
	if err != nil {
		return mctl.DeliverResult{}, errors.Wrap(errors.ErrState, err.Error())
	}
	return mctl.DeliverResult{
		Data: data,
		Tags: []common.KVPair{
			kvPair(tagMultiID, multi.ID.String()),
			kvPair(tagEvent, eventDelegationMinted),
		},
	}, nil
}

func (h MintDelegationHandler) validate(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (*MintDelegationMsg, *Multicontroller, error) {
	var msg MintDelegationMsg
	if err := mctl.LoadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	multi, err := h.bucket.Get(db, msg.MultiID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, multi, nil
}

// deliverableAction reports whether the action can complete within a single
// delivery. Lending actions hold borrowed state across calls and must run
// through the direct API inside a host execution scope.
func deliverableAction(action Action) bool {
	switch action.(type) {
	case *Borrow, *ControllerExecution:
		return false
	}
	return true
}

// applyAction runs the action-specific state transition for actions that can
// complete within a single delivery. It returns the result data to hand back
// to the submitter and reports whether the multicontroller record itself was
// removed from existence by the action.
func applyAction(multi *Multicontroller, action Action) ([]common.KVPair, []byte, bool, error) {
	switch a := action.(type) {
	case *ConfigChange:
		caps, err := multi.ApplyConfigChange(a)
		if err != nil {
			return nil, nil, false, err
		}
		// Capabilities minted for added members are returned as result
		// data. The host must hand each one to its controller, the engine
		// never stores them.
		data, err := cdc.MarshalBinaryBare(caps)
		if err != nil {
			return nil, nil, false, errors.Wrap(errors.ErrState, err.Error())
		}
		return []common.KVPair{kvPair(tagEvent, eventConfigChanged)}, data, false, nil
	case *Send:
		ledger := multi.ApplySend(a)
		tags := make([]common.KVPair, 0, len(a.Transfers))
		for _, t := range a.Transfers {
			if err := ledger.Withdraw(t.ObjectID, t.Recipient); err != nil {
				return nil, nil, false, err
			}
			tags = append(tags, kvPair(tagEvent, eventTransfer))
		}
		if err := ledger.CompleteSend(); err != nil {
			return nil, nil, false, err
		}
		return tags, nil, false, nil
	case *Upgrade:
		multi.ApplyUpgrade(a)
		return []common.KVPair{kvPair(tagAction, a.Kind())}, nil, false, nil
	case *Deactivate:
		multi.ApplyDeactivate(a)
		return []common.KVPair{kvPair(tagAction, a.Kind())}, nil, false, nil
	case *Delete:
		if err := multi.ApplyDelete(a); err != nil {
			return nil, nil, false, err
		}
		return []common.KVPair{kvPair(tagAction, a.Kind())}, nil, true, nil
	case *Borrow, *ControllerExecution:
		return nil, nil, false, errors.Wrapf(errors.ErrState,
			"%s requires a host execution scope", a.Kind())
	default:
		return nil, nil, false, errors.Wrapf(errors.ErrType, "action %T", action)
	}
}

func blockNow(ctx mctl.Context) mctl.UnixTime {
	now, ok := mctl.BlockTime(ctx)
	if !ok {
		return 0
	}
	return mctl.AsUnixTime(now)
}
