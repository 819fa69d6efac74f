package multicontrol

import (
	"testing"

	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
	"github.com/tillage-one/mctl/mctltest"
	"github.com/tillage-one/mctl/mctltest/assert"
)

func twoControllerFixture(t testing.TB) (*Multicontroller, []*Capability) {
	t.Helper()
	multi, caps, err := NewMulticontroller(
		mctl.NewAddress([]byte("resource")),
		[]byte("payload"),
		[]Member{
			{Address: mctltest.SequenceAddress(1), Weight: 1},
			{Address: mctltest.SequenceAddress(2), Weight: 1},
		},
		2)
	assert.Nil(t, err)
	return multi, caps
}

func TestAuthorize(t *testing.T) {
	multi, caps := twoControllerFixture(t)

	t.Run("live capability passes any bit", func(t *testing.T) {
		ctrl, err := multi.Authorize(caps[0], PermCreateProposal|PermExecuteProposal)
		assert.Nil(t, err)
		assert.Equal(t, true, ctrl.Address.Equals(caps[0].Controller))
	})

	t.Run("nil credential", func(t *testing.T) {
		_, err := multi.Authorize(nil, PermCreateProposal)
		assert.IsErr(t, errors.ErrInvalidCapability, err)
	})

	t.Run("capability of another resource", func(t *testing.T) {
		other, otherCaps, err := NewMulticontroller(
			mctl.NewAddress([]byte("other resource")),
			nil,
			[]Member{{Address: mctltest.SequenceAddress(1), Weight: 1}},
			1)
		assert.Nil(t, err)
		_ = other

		_, err = multi.Authorize(otherCaps[0], PermCreateProposal)
		assert.IsErr(t, errors.ErrInvalidCapability, err)
	})

	t.Run("unknown controller", func(t *testing.T) {
		forged := &Capability{
			ID:         caps[0].ID,
			MultiID:    multi.ID,
			Controller: mctltest.SequenceAddress(9),
		}
		_, err := multi.Authorize(forged, PermCreateProposal)
		assert.IsErr(t, errors.ErrInvalidCapability, err)
	})

	t.Run("superseded capability", func(t *testing.T) {
		stale := &Capability{
			ID:         []byte("not the recorded id, same len"),
			MultiID:    multi.ID,
			Controller: caps[0].Controller,
		}
		_, err := multi.Authorize(stale, PermCreateProposal)
		assert.IsErr(t, errors.ErrInvalidCapability, err)
	})
}

func TestAuthorizeChecksBindingBeforePermission(t *testing.T) {
	multi, caps := twoControllerFixture(t)
	token, err := multi.MintDelegation(caps[0], PermApproveProposal)
	assert.Nil(t, err)

	// Invalidate the slot the token descends from. The token now fails
	// both checks and the binding failure must win, regardless of the
	// missing permission bit.
	_, err = multi.ApplyConfigChange(&ConfigChange{
		Remove:       []mctl.Address{caps[0].Controller},
		NewThreshold: 1,
	})
	assert.Nil(t, err)

	_, err = multi.Authorize(token, PermExecuteProposal)
	assert.IsErr(t, errors.ErrInvalidCapability, err)
}

func TestMintDelegation(t *testing.T) {
	multi, caps := twoControllerFixture(t)

	token, err := multi.MintDelegation(caps[0], PermCreateProposal|PermApproveProposal)
	assert.Nil(t, err)
	assert.Equal(t, PermCreateProposal|PermApproveProposal, token.Permissions())

	t.Run("granted bits pass", func(t *testing.T) {
		_, err := multi.Authorize(token, PermApproveProposal)
		assert.Nil(t, err)
	})

	t.Run("missing bit is denied", func(t *testing.T) {
		_, err := multi.Authorize(token, PermExecuteProposal)
		assert.IsErr(t, errors.ErrPermissionDenied, err)
	})

	t.Run("stale parent cannot mint", func(t *testing.T) {
		stale := &Capability{
			ID:         []byte("superseded id"),
			MultiID:    multi.ID,
			Controller: caps[0].Controller,
		}
		_, err := multi.MintDelegation(stale, PermApproveProposal)
		assert.IsErr(t, errors.ErrInvalidCapability, err)
	})
}

func TestDelegationDiesWithParent(t *testing.T) {
	multi, caps := twoControllerFixture(t)
	token, err := multi.MintDelegation(caps[0], PermApproveProposal)
	assert.Nil(t, err)

	// Remove and re-add the controller. The new slot carries a freshly
	// minted capability id, so both the old capability and every token
	// derived from it are dead.
	_, err = multi.ApplyConfigChange(&ConfigChange{
		Remove:       []mctl.Address{caps[0].Controller},
		NewThreshold: 1,
	})
	assert.Nil(t, err)
	minted, err := multi.ApplyConfigChange(&ConfigChange{
		Add: []Member{{Address: caps[0].Controller, Weight: 1}},
	})
	assert.Nil(t, err)
	assert.Equal(t, 1, len(minted))

	_, err = multi.Authorize(caps[0], PermApproveProposal)
	assert.IsErr(t, errors.ErrInvalidCapability, err)
	_, err = multi.Authorize(token, PermApproveProposal)
	assert.IsErr(t, errors.ErrInvalidCapability, err)

	// The replacement capability is live.
	_, err = multi.Authorize(minted[0], PermApproveProposal)
	assert.Nil(t, err)
}

func TestDelegationTokenIDsAreUnique(t *testing.T) {
	multi, caps := twoControllerFixture(t)

	first, err := multi.MintDelegation(caps[0], PermApproveProposal)
	assert.Nil(t, err)
	second, err := multi.MintDelegation(caps[0], PermApproveProposal)
	assert.Nil(t, err)

	if string(first.ID) == string(second.ID) {
		t.Fatalf("token id %X minted twice", first.ID)
	}
}
