package multicontrol

import (
	"testing"

	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
	"github.com/tillage-one/mctl/mctltest"
	"github.com/tillage-one/mctl/mctltest/assert"
)

// weightedFixture builds a resource controlled by three members with weights
// 1, 2 and 3 and the given threshold.
func weightedFixture(t testing.TB, threshold uint64) (*Multicontroller, []*Capability) {
	t.Helper()
	multi, caps, err := NewMulticontroller(
		mctl.NewAddress([]byte("resource")),
		[]byte("payload"),
		[]Member{
			{Address: mctltest.SequenceAddress(1), Weight: 1},
			{Address: mctltest.SequenceAddress(2), Weight: 2},
			{Address: mctltest.SequenceAddress(3), Weight: 3},
		},
		threshold)
	assert.Nil(t, err)
	return multi, caps
}

func TestCreateProposalCountsCreatorWeight(t *testing.T) {
	multi, caps := weightedFixture(t, 4)

	proposal, err := multi.CreateProposal(caps[1], &Upgrade{}, 0)
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), multi.Tally(proposal))
	assert.Equal(t, 1, len(proposal.Voters))
	assert.Equal(t, false, multi.Resolved(proposal))

	// A second proposal gets a fresh id.
	second, err := multi.CreateProposal(caps[0], &Deactivate{}, 0)
	assert.Nil(t, err)
	if second.ID == proposal.ID {
		t.Fatalf("proposal id %d issued twice", second.ID)
	}
}

func TestApprovalOrderDoesNotMatter(t *testing.T) {
	orders := map[string][]int{
		"light voters first": {0, 1, 2},
		"heavy voters first": {2, 1, 0},
		"creator in between": {1, 0, 2},
	}
	for testName, order := range orders {
		t.Run(testName, func(t *testing.T) {
			multi, caps := weightedFixture(t, 6)
			proposal, err := multi.CreateProposal(caps[order[0]], &Upgrade{}, 0)
			assert.Nil(t, err)
			for _, i := range order[1:] {
				assert.Nil(t, multi.Approve(caps[i], proposal.ID))
			}
			assert.Equal(t, uint64(6), multi.Tally(proposal))
			assert.Equal(t, true, multi.Resolved(proposal))
		})
	}
}

func TestApproveTwiceRejected(t *testing.T) {
	multi, caps := weightedFixture(t, 6)
	proposal, err := multi.CreateProposal(caps[0], &Upgrade{}, 0)
	assert.Nil(t, err)

	// The creator's vote is already counted.
	err = multi.Approve(caps[0], proposal.ID)
	assert.IsErr(t, errors.ErrAlreadyVoted, err)

	assert.Nil(t, multi.Approve(caps[1], proposal.ID))
	err = multi.Approve(caps[1], proposal.ID)
	assert.IsErr(t, errors.ErrAlreadyVoted, err)

	// The failed approvals did not change the count.
	assert.Equal(t, uint64(3), multi.Tally(proposal))
}

func TestRemoveApprovalUnresolves(t *testing.T) {
	multi, caps := weightedFixture(t, 4)
	proposal, err := multi.CreateProposal(caps[2], &Upgrade{}, 0)
	assert.Nil(t, err)
	assert.Nil(t, multi.Approve(caps[1], proposal.ID))
	assert.Equal(t, true, multi.Resolved(proposal))

	// Resolution is never latched. Retracting drops the proposal back
	// below the threshold and execution must fail.
	assert.Nil(t, multi.RemoveApproval(caps[1], proposal.ID))
	assert.Equal(t, false, multi.Resolved(proposal))
	_, err = multi.Execute(caps[2], proposal.ID, 0)
	assert.IsErr(t, errors.ErrState, err)

	// Approving again resolves it again.
	assert.Nil(t, multi.Approve(caps[1], proposal.ID))
	_, err = multi.Execute(caps[2], proposal.ID, 0)
	assert.Nil(t, err)
}

func TestTallyFollowsConfigChanges(t *testing.T) {
	t.Run("retraction after upward reweight", func(t *testing.T) {
		multi, caps, err := NewMulticontroller(
			mctl.NewAddress([]byte("resource")),
			nil,
			[]Member{
				{Address: mctltest.SequenceAddress(1), Weight: 1},
				{Address: mctltest.SequenceAddress(2), Weight: 5},
			},
			5)
		assert.Nil(t, err)

		proposal, err := multi.CreateProposal(caps[0], &Deactivate{}, 0)
		assert.Nil(t, err)
		assert.Equal(t, uint64(1), multi.Tally(proposal))

		_, err = multi.ApplyConfigChange(&ConfigChange{
			Update: []Member{{Address: mctltest.SequenceAddress(1), Weight: 4}},
		})
		assert.Nil(t, err)
		assert.Equal(t, uint64(4), multi.Tally(proposal))

		// Retracting after the reweight must leave an empty tally, not
		// wrap below zero or resolve the proposal.
		assert.Nil(t, multi.RemoveApproval(caps[0], proposal.ID))
		assert.Equal(t, 0, len(proposal.Voters))
		assert.Equal(t, uint64(0), multi.Tally(proposal))
		assert.Equal(t, false, multi.Resolved(proposal))
		_, err = multi.Execute(caps[1], proposal.ID, 0)
		assert.IsErr(t, errors.ErrState, err)
	})

	t.Run("removed voter stops counting", func(t *testing.T) {
		multi, caps := weightedFixture(t, 3)
		proposal, err := multi.CreateProposal(caps[2], &Upgrade{}, 0)
		assert.Nil(t, err)
		assert.Equal(t, true, multi.Resolved(proposal))

		_, err = multi.ApplyConfigChange(&ConfigChange{
			Remove: []mctl.Address{mctltest.SequenceAddress(3)},
		})
		assert.Nil(t, err)
		assert.Equal(t, uint64(0), multi.Tally(proposal))
		assert.Equal(t, false, multi.Resolved(proposal))
		_, err = multi.Execute(caps[1], proposal.ID, 0)
		assert.IsErr(t, errors.ErrState, err)
	})

	t.Run("downward reweight unresolves", func(t *testing.T) {
		multi, caps := weightedFixture(t, 3)
		proposal, err := multi.CreateProposal(caps[2], &Upgrade{}, 0)
		assert.Nil(t, err)
		assert.Equal(t, true, multi.Resolved(proposal))

		_, err = multi.ApplyConfigChange(&ConfigChange{
			Update: []Member{{Address: mctltest.SequenceAddress(3), Weight: 1}},
		})
		assert.Nil(t, err)
		assert.Equal(t, uint64(1), multi.Tally(proposal))
		assert.Equal(t, false, multi.Resolved(proposal))

		// The remaining controllers can still resolve it under the new
		// weights.
		assert.Nil(t, multi.Approve(caps[1], proposal.ID))
		assert.Equal(t, true, multi.Resolved(proposal))
	})
}

func TestRemoveApprovalWithoutVote(t *testing.T) {
	multi, caps := weightedFixture(t, 4)
	proposal, err := multi.CreateProposal(caps[2], &Upgrade{}, 0)
	assert.Nil(t, err)

	err = multi.RemoveApproval(caps[1], proposal.ID)
	assert.IsErr(t, errors.ErrNotVoted, err)
}

func TestExecuteProposal(t *testing.T) {
	multi, caps := weightedFixture(t, 3)

	t.Run("unresolved proposal cannot execute", func(t *testing.T) {
		proposal, err := multi.CreateProposal(caps[0], &Upgrade{}, 0)
		assert.Nil(t, err)
		_, err = multi.Execute(caps[0], proposal.ID, 0)
		assert.IsErr(t, errors.ErrState, err)
		assert.Nil(t, multi.DeleteProposal(caps[0], proposal.ID))
	})

	t.Run("executed proposal leaves the table", func(t *testing.T) {
		proposal, err := multi.CreateProposal(caps[2], &Upgrade{}, 0)
		assert.Nil(t, err)
		action, err := multi.Execute(caps[2], proposal.ID, 0)
		assert.Nil(t, err)
		if _, ok := action.(*Upgrade); !ok {
			t.Fatalf("want the proposed action back, got %T", action)
		}
		_, err = multi.Execute(caps[2], proposal.ID, 0)
		assert.IsErr(t, errors.ErrNotFound, err)
	})

	t.Run("missing execute bit is denied", func(t *testing.T) {
		proposal, err := multi.CreateProposal(caps[2], &Upgrade{}, 0)
		assert.Nil(t, err)
		token, err := multi.MintDelegation(caps[2], PermCreateProposal|PermApproveProposal)
		assert.Nil(t, err)
		_, err = multi.Execute(token, proposal.ID, 0)
		assert.IsErr(t, errors.ErrPermissionDenied, err)
		assert.Nil(t, multi.DeleteProposal(caps[2], proposal.ID))
	})
}

func TestExecuteExpiredProposal(t *testing.T) {
	const deadline mctl.UnixTime = 1000
	multi, caps := weightedFixture(t, 3)

	cases := map[string]struct {
		now     mctl.UnixTime
		wantErr *errors.Error
	}{
		"before the deadline": {now: deadline - 1},
		"at the deadline":     {now: deadline, wantErr: errors.ErrExpired},
		"after the deadline":  {now: deadline + 1, wantErr: errors.ErrExpired},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			proposal, err := multi.CreateProposal(caps[2], &Upgrade{}, deadline)
			assert.Nil(t, err)
			_, err = multi.Execute(caps[2], proposal.ID, tc.now)
			if tc.wantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.IsErr(t, tc.wantErr, err)

			// The expired proposal stays in the table until deleted.
			_, err = multi.Proposal(proposal.ID)
			assert.Nil(t, err)
			assert.Nil(t, multi.DeleteProposal(caps[2], proposal.ID))
		})
	}
}

func TestDeleteProposalAnyState(t *testing.T) {
	multi, caps := weightedFixture(t, 3)

	pending, err := multi.CreateProposal(caps[0], &Upgrade{}, 0)
	assert.Nil(t, err)
	resolved, err := multi.CreateProposal(caps[2], &Deactivate{}, 0)
	assert.Nil(t, err)

	assert.Nil(t, multi.DeleteProposal(caps[1], pending.ID))
	assert.Nil(t, multi.DeleteProposal(caps[1], resolved.ID))
	assert.Equal(t, 0, len(multi.Proposals))

	// Deletion has no effect on the governed value.
	assert.Equal(t, uint32(0), multi.Version)
	assert.Equal(t, false, multi.Deactivated)

	err = multi.DeleteProposal(caps[1], pending.ID)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestProposalsAreIsolatedPerResource(t *testing.T) {
	first, firstCaps := weightedFixture(t, 3)
	second, _, err := NewMulticontroller(
		mctl.NewAddress([]byte("second resource")),
		nil,
		[]Member{{Address: mctltest.SequenceAddress(1), Weight: 1}},
		1)
	assert.Nil(t, err)

	proposal, err := first.CreateProposal(firstCaps[0], &Upgrade{}, 0)
	assert.Nil(t, err)

	// A capability of the first resource holds no authority over the
	// second, even for the same controller address.
	_, err = second.Authorize(firstCaps[0], PermApproveProposal)
	assert.IsErr(t, errors.ErrInvalidCapability, err)
	err = second.Approve(firstCaps[0], proposal.ID)
	assert.IsErr(t, errors.ErrInvalidCapability, err)
}
