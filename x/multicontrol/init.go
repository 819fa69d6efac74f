package multicontrol

import (
	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

// Initializer fulfils the mctl.Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ mctl.Initializer = Initializer{}

type genesisMulticontroller struct {
	Value     []byte `json:"value"`
	Threshold uint64 `json:"threshold"`
	Members   []struct {
		Address mctl.Address `json:"address"`
		Weight  uint32       `json:"weight"`
	} `json:"members"`
}

// FromGenesis initializes the multicontrollers declared under the
// "multicontrol" key. The capabilities minted for the initial controllers
// are discarded here; genesis controllers receive deterministic capability
// ids that each host derives and hands out on its own.
func (Initializer) FromGenesis(opts mctl.Options, db mctl.KVStore) error {
	var declared []genesisMulticontroller
	if err := opts.ReadOptions("multicontrol", &declared); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	bucket := NewMulticontrollerBucket()
	for i, gen := range declared {
		members := make([]Member, len(gen.Members))
		for j, m := range gen.Members {
			members[j] = Member{Address: m.Address, Weight: Weight(m.Weight)}
		}
		if _, _, err := bucket.Create(db, gen.Value, members, gen.Threshold); err != nil {
			return errors.Wrapf(err, "multicontroller #%d", i)
		}
	}
	return nil
}
