package multicontrol

import (
	"testing"

	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
	"github.com/tillage-one/mctl/mctltest"
	"github.com/tillage-one/mctl/mctltest/assert"
)

func TestApplyConfigChange(t *testing.T) {
	newcomer := mctltest.SequenceAddress(7)

	cases := map[string]struct {
		change  *ConfigChange
		wantErr *errors.Error
	}{
		"add a controller": {
			change: &ConfigChange{Add: []Member{{Address: newcomer, Weight: 2}}},
		},
		"remove with a lower threshold": {
			change: &ConfigChange{
				Remove:       []mctl.Address{mctltest.SequenceAddress(3)},
				NewThreshold: 2,
			},
		},
		"update a weight": {
			change: &ConfigChange{Update: []Member{{Address: mctltest.SequenceAddress(1), Weight: 5}}},
		},
		"replace the governed value": {
			change: &ConfigChange{NewValue: []byte("replacement")},
		},
		"empty change": {
			change:  &ConfigChange{},
			wantErr: errors.ErrEmpty,
		},
		"remove an unknown controller": {
			change:  &ConfigChange{Remove: []mctl.Address{newcomer}},
			wantErr: errors.ErrNotFound,
		},
		"update an unknown controller": {
			change:  &ConfigChange{Update: []Member{{Address: newcomer, Weight: 2}}},
			wantErr: errors.ErrNotFound,
		},
		"add an existing controller": {
			change:  &ConfigChange{Add: []Member{{Address: mctltest.SequenceAddress(1), Weight: 2}}},
			wantErr: errors.ErrDuplicate,
		},
		"threshold above the new total": {
			change:  &ConfigChange{NewThreshold: 100},
			wantErr: errors.ErrInvalidConfiguration,
		},
		"removal breaks the threshold": {
			// Weights 1+2 remain, threshold stays at 4.
			change:  &ConfigChange{Remove: []mctl.Address{mctltest.SequenceAddress(3)}},
			wantErr: errors.ErrInvalidConfiguration,
		},
		"remove everyone": {
			change: &ConfigChange{
				Remove: []mctl.Address{
					mctltest.SequenceAddress(1),
					mctltest.SequenceAddress(2),
					mctltest.SequenceAddress(3),
				},
				NewThreshold: 1,
			},
			wantErr: errors.ErrInvalidConfiguration,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			multi, _ := weightedFixture(t, 4)
			before := multi.Copy()

			minted, err := multi.ApplyConfigChange(tc.change)
			if tc.wantErr != nil {
				assert.IsErr(t, tc.wantErr, err)
				// A failed change must leave the multicontroller
				// untouched.
				assert.Equal(t, before, multi)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, len(tc.change.Add), len(minted))
			assert.Nil(t, multi.Validate())
		})
	}
}

func TestApplyConfigChangeMintsForAdded(t *testing.T) {
	multi, _ := weightedFixture(t, 4)
	newcomer := mctltest.SequenceAddress(7)

	minted, err := multi.ApplyConfigChange(&ConfigChange{
		Add: []Member{{Address: newcomer, Weight: 3}},
	})
	assert.Nil(t, err)
	assert.Equal(t, 1, len(minted))

	ctrl, err := multi.Authorize(minted[0], PermAll)
	assert.Nil(t, err)
	assert.Equal(t, true, ctrl.Address.Equals(newcomer))
	assert.Equal(t, Weight(3), ctrl.Weight)
}

func TestSendLedger(t *testing.T) {
	alice := mctltest.SequenceAddress(11)
	bob := mctltest.SequenceAddress(12)
	action := &Send{Transfers: []Transfer{
		{ObjectID: []byte("deed-1"), Recipient: alice},
		{ObjectID: []byte("deed-2"), Recipient: bob},
	}}

	t.Run("all transfers complete", func(t *testing.T) {
		multi, _ := weightedFixture(t, 4)
		ledger := multi.ApplySend(action)
		assert.Nil(t, ledger.Withdraw([]byte("deed-1"), alice))
		assert.Nil(t, ledger.Withdraw([]byte("deed-2"), bob))
		assert.Nil(t, ledger.CompleteSend())
	})

	t.Run("unconsumed transfer blocks completion", func(t *testing.T) {
		multi, _ := weightedFixture(t, 4)
		ledger := multi.ApplySend(action)
		assert.Nil(t, ledger.Withdraw([]byte("deed-1"), alice))
		err := ledger.CompleteSend()
		assert.IsErr(t, errors.ErrUnsentAssets, err)
	})

	t.Run("wrong recipient", func(t *testing.T) {
		multi, _ := weightedFixture(t, 4)
		ledger := multi.ApplySend(action)
		err := ledger.Withdraw([]byte("deed-1"), bob)
		assert.IsErr(t, errors.ErrInvalidObject, err)
	})

	t.Run("unpromised object", func(t *testing.T) {
		multi, _ := weightedFixture(t, 4)
		ledger := multi.ApplySend(action)
		err := ledger.Withdraw([]byte("deed-9"), alice)
		assert.IsErr(t, errors.ErrInvalidObject, err)
	})

	t.Run("double withdraw", func(t *testing.T) {
		multi, _ := weightedFixture(t, 4)
		ledger := multi.ApplySend(action)
		assert.Nil(t, ledger.Withdraw([]byte("deed-1"), alice))
		err := ledger.Withdraw([]byte("deed-1"), alice)
		assert.IsErr(t, errors.ErrInvalidObject, err)
	})
}

func TestBorrowLedger(t *testing.T) {
	action := &Borrow{Objects: [][]byte{[]byte("deed-1"), []byte("deed-2")}}

	t.Run("everything comes back", func(t *testing.T) {
		multi, _ := weightedFixture(t, 4)
		ledger := multi.ApplyBorrow(action)
		assert.Nil(t, ledger.Receive([]byte("deed-1")))
		assert.Nil(t, ledger.Receive([]byte("deed-2")))
		assert.Nil(t, ledger.PutBack([]byte("deed-1")))
		assert.Nil(t, ledger.PutBack([]byte("deed-2")))
		assert.Nil(t, ledger.ConcludeBorrow())
	})

	t.Run("never borrowed still counts", func(t *testing.T) {
		multi, _ := weightedFixture(t, 4)
		ledger := multi.ApplyBorrow(action)
		assert.Nil(t, ledger.Receive([]byte("deed-1")))
		assert.Nil(t, ledger.PutBack([]byte("deed-1")))
		err := ledger.ConcludeBorrow()
		assert.IsErr(t, errors.ErrUnreturnedObjects, err)
	})

	t.Run("kept object blocks conclusion", func(t *testing.T) {
		multi, _ := weightedFixture(t, 4)
		ledger := multi.ApplyBorrow(action)
		assert.Nil(t, ledger.Receive([]byte("deed-1")))
		assert.Nil(t, ledger.Receive([]byte("deed-2")))
		assert.Nil(t, ledger.PutBack([]byte("deed-1")))
		err := ledger.ConcludeBorrow()
		assert.IsErr(t, errors.ErrUnreturnedObjects, err)
	})
}

func TestApplyControllerExecution(t *testing.T) {
	// The borrower resource is itself a controller of the lender.
	borrower := mctl.NewAddress([]byte("borrower resource"))
	lender, caps, err := NewMulticontroller(
		mctl.NewAddress([]byte("lender resource")),
		nil,
		[]Member{
			{Address: borrower, Weight: 1},
			{Address: mctltest.SequenceAddress(1), Weight: 1},
		},
		1)
	assert.Nil(t, err)

	action := &ControllerExecution{
		ControllerOf: lender.ID,
		CapabilityID: caps[0].ID,
	}

	t.Run("borrow and return", func(t *testing.T) {
		loan, err := ApplyControllerExecution(lender, borrower, action)
		assert.Nil(t, err)

		lent, err := loan.Borrow()
		assert.Nil(t, err)
		// The lent capability acts for the borrower's slot on the
		// lender.
		_, err = lender.Authorize(lent, PermCreateProposal)
		assert.Nil(t, err)

		assert.Nil(t, loan.Return(lent))
		assert.Nil(t, loan.Conclude())
	})

	t.Run("unreturned loan blocks conclusion", func(t *testing.T) {
		loan, err := ApplyControllerExecution(lender, borrower, action)
		assert.Nil(t, err)
		_, err = loan.Borrow()
		assert.Nil(t, err)
		err = loan.Conclude()
		assert.IsErr(t, errors.ErrUnreturnedObjects, err)
	})

	t.Run("double borrow", func(t *testing.T) {
		loan, err := ApplyControllerExecution(lender, borrower, action)
		assert.Nil(t, err)
		_, err = loan.Borrow()
		assert.Nil(t, err)
		_, err = loan.Borrow()
		assert.IsErr(t, errors.ErrInvalidObject, err)
	})

	t.Run("wrong lender", func(t *testing.T) {
		other, _, err := NewMulticontroller(
			mctl.NewAddress([]byte("unrelated resource")),
			nil,
			[]Member{{Address: borrower, Weight: 1}},
			1)
		assert.Nil(t, err)
		_, err = ApplyControllerExecution(other, borrower, action)
		assert.IsErr(t, errors.ErrInvalidCapability, err)
	})

	t.Run("borrower is not a controller", func(t *testing.T) {
		_, err := ApplyControllerExecution(lender, mctltest.SequenceAddress(9), action)
		assert.IsErr(t, errors.ErrInvalidCapability, err)
	})

	t.Run("superseded capability id", func(t *testing.T) {
		stale := &ControllerExecution{
			ControllerOf: lender.ID,
			CapabilityID: []byte("superseded id"),
		}
		_, err := ApplyControllerExecution(lender, borrower, stale)
		assert.IsErr(t, errors.ErrInvalidCapability, err)
	})
}

func TestApplyLifecycleActions(t *testing.T) {
	multi, caps := weightedFixture(t, 3)

	multi.ApplyUpgrade(&Upgrade{})
	multi.ApplyUpgrade(&Upgrade{})
	assert.Equal(t, uint32(2), multi.Version)

	multi.ApplyDeactivate(&Deactivate{})
	assert.Equal(t, true, multi.Deactivated)

	// Deactivation leaves governance operational.
	proposal, err := multi.CreateProposal(caps[2], &Delete{}, 0)
	assert.Nil(t, err)

	// Delete refuses while proposals are pending.
	err = multi.ApplyDelete(&Delete{})
	assert.IsErr(t, errors.ErrState, err)

	_, err = multi.Execute(caps[2], proposal.ID, 0)
	assert.Nil(t, err)
	assert.Nil(t, multi.ApplyDelete(&Delete{}))
}
