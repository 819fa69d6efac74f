package multicontrol

import (
	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

const (
	// maxControllers bounds the controller table so vote application stays
	// cheap.
	maxControllers = 2000

	// maxWeightValue is the highest strength a single controller can
	// carry.
	maxWeightValue = 1<<16 - 1
)

// Weight represents the voting strength of a controller.
type Weight uint32

// Validate enforces the 1..maxWeightValue range.
func (w Weight) Validate() error {
	if w == 0 {
		return errors.Wrap(errors.ErrInput, "weight must not be empty")
	}
	if w > maxWeightValue {
		return errors.Wrapf(errors.ErrOverflow,
			"weight is %d and must not be greater than %d", w, maxWeightValue)
	}
	return nil
}

// Member pairs a controller address with a weight. It describes a controller
// to be added (or reweighted) before any capability exists for it.
type Member struct {
	Address mctl.Address
	Weight  Weight
}

// Validate returns an error if the member entry cannot be used.
func (m Member) Validate() error {
	if err := m.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := m.Weight.Validate(); err != nil {
		return errors.Wrap(err, "weight")
	}
	return nil
}

// Controller is one slot in a multicontroller's controller table. The
// recorded capability id is the liveness anchor for the slot's capability and
// every delegation token derived from it.
type Controller struct {
	Address      mctl.Address
	Weight       Weight
	CapabilityID []byte
}

// Validate returns an error if the controller slot is broken.
func (c Controller) Validate() error {
	if err := c.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := c.Weight.Validate(); err != nil {
		return errors.Wrap(err, "weight")
	}
	if len(c.CapabilityID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "capability id")
	}
	return nil
}

// Multicontroller places one governed value under the joint authority of a
// weighted controller set. It is the only owner of the value: the value
// changes exclusively through successful proposal execution.
type Multicontroller struct {
	ID          mctl.Address
	Value       []byte
	Controllers []Controller
	Threshold   uint64
	Proposals   []*Proposal

	// ProposalSeq issues proposal ids, CapabilitySeq makes capability and
	// token ids unique within this resource.
	ProposalSeq   uint64
	CapabilitySeq uint64

	// Deactivated marks the governed value out of service. Governance
	// stays operational so that the controllers can still send assets
	// away or delete the resource.
	Deactivated bool

	// Version counts executed upgrades of the governed value.
	Version uint32
}

var _ mctl.Persistent = (*Multicontroller)(nil)

// NewMulticontroller creates a resource governed by the given members and
// threshold, minting one capability per member. The capabilities are
// returned for the host to hand to the controlling accounts; the engine
// never stores them.
func NewMulticontroller(id mctl.Address, value []byte, members []Member, threshold uint64) (*Multicontroller, []*Capability, error) {
	if err := id.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "id")
	}
	m := &Multicontroller{
		ID:        id.Clone(),
		Value:     value,
		Threshold: threshold,
	}
	caps := make([]*Capability, 0, len(members))
	for _, member := range members {
		if err := member.Validate(); err != nil {
			return nil, nil, errors.Wrapf(err, "member %s", member.Address)
		}
		if _, ok := m.Controller(member.Address); ok {
			return nil, nil, errors.Wrapf(errors.ErrDuplicate, "controller %s", member.Address)
		}
		ability := &Capability{
			ID:         m.nextCapabilityID(member.Address),
			MultiID:    m.ID.Clone(),
			Controller: member.Address.Clone(),
		}
		m.Controllers = append(m.Controllers, Controller{
			Address:      member.Address.Clone(),
			Weight:       member.Weight,
			CapabilityID: ability.ID,
		})
		caps = append(caps, ability)
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	return m, caps, nil
}

// Validate enforces the structural invariants, above all that the threshold
// never exceeds the total controller weight.
func (m *Multicontroller) Validate() error {
	if err := m.ID.Validate(); err != nil {
		return errors.Wrap(err, "id")
	}
	switch n := len(m.Controllers); {
	case n == 0:
		return errors.Wrap(errors.ErrInvalidConfiguration, "no controllers")
	case n > maxControllers:
		return errors.Wrapf(errors.ErrInvalidConfiguration,
			"controllers must not exceed %d", maxControllers)
	}
	seen := make(map[string]struct{}, len(m.Controllers))
	for _, c := range m.Controllers {
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "controller %s", c.Address)
		}
		key := string(c.Address)
		if _, ok := seen[key]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "controller %s", c.Address)
		}
		seen[key] = struct{}{}
	}
	if m.Threshold == 0 {
		return errors.Wrap(errors.ErrInvalidConfiguration, "threshold must not be empty")
	}
	if m.Threshold > m.TotalWeight() {
		return errors.Wrapf(errors.ErrInvalidConfiguration,
			"threshold %d exceeds total weight %d", m.Threshold, m.TotalWeight())
	}
	for _, p := range m.Proposals {
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "proposal %d", p.ID)
		}
	}
	return nil
}

// TotalWeight returns the sum of all controller weights.
func (m *Multicontroller) TotalWeight() uint64 {
	var total uint64
	for _, c := range m.Controllers {
		total += uint64(c.Weight)
	}
	return total
}

// Controller returns the slot registered for the given address and an ok
// flag which is true only when the address is in the controller table.
func (m *Multicontroller) Controller(addr mctl.Address) (*Controller, bool) {
	for i := range m.Controllers {
		if m.Controllers[i].Address.Equals(addr) {
			return &m.Controllers[i], true
		}
	}
	return nil, false
}

// Proposal returns the pending proposal with the given id.
func (m *Multicontroller) Proposal(id uint64) (*Proposal, error) {
	for _, p := range m.Proposals {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "proposal %d", id)
}

// dropProposal removes the proposal with the given id from the table.
func (m *Multicontroller) dropProposal(id uint64) {
	for i, p := range m.Proposals {
		if p.ID == id {
			m.Proposals = append(m.Proposals[:i], m.Proposals[i+1:]...)
			return
		}
	}
}

// Copy returns a deep copy of this multicontroller.
func (m *Multicontroller) Copy() *Multicontroller {
	controllers := make([]Controller, len(m.Controllers))
	for i, c := range m.Controllers {
		controllers[i] = Controller{
			Address:      c.Address.Clone(),
			Weight:       c.Weight,
			CapabilityID: append([]byte(nil), c.CapabilityID...),
		}
	}
	var proposals []*Proposal
	if len(m.Proposals) > 0 {
		proposals = make([]*Proposal, len(m.Proposals))
		for i, p := range m.Proposals {
			proposals[i] = p.Copy()
		}
	}
	return &Multicontroller{
		ID:            m.ID.Clone(),
		Value:         append([]byte(nil), m.Value...),
		Controllers:   controllers,
		Threshold:     m.Threshold,
		Proposals:     proposals,
		ProposalSeq:   m.ProposalSeq,
		CapabilitySeq: m.CapabilitySeq,
		Deactivated:   m.Deactivated,
		Version:       m.Version,
	}
}

// Marshal serializes the multicontroller with the package codec.
func (m *Multicontroller) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

// Unmarshal loads the multicontroller from its binary representation.
func (m *Multicontroller) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}
