package multicontrol

import (
	"bytes"
	"encoding/binary"

	"github.com/tillage-one/mctl"
	"github.com/tillage-one/mctl/errors"
)

// Credential is presented alongside every mutating operation. It is either a
// Capability (full authority over one multicontroller) or a DelegationToken
// (a restricted subset derived from a capability). The host's custody of
// these values is what makes them unforgeable; the engine verifies only the
// binding: right resource, live controller slot, matching capability id.
type Credential interface {
	// ResourceID returns the multicontroller this credential is bound to.
	ResourceID() mctl.Address

	// ControllerAddress returns the controller slot this credential acts
	// for.
	ControllerAddress() mctl.Address

	// RootID returns the id of the capability this credential descends
	// from. For a capability that is its own id.
	RootID() []byte

	// Permissions returns the bitmask of operations this credential
	// allows.
	Permissions() Permission
}

// Capability is the unforgeable proof of controller authority over one
// specific multicontroller. It is minted when its controller slot is added
// and invalidated (by id rotation or slot removal) when the controller is
// removed. A capability carries every permission.
type Capability struct {
	ID         []byte
	MultiID    mctl.Address
	Controller mctl.Address
}

var _ Credential = (*Capability)(nil)

func (c *Capability) ResourceID() mctl.Address        { return c.MultiID }
func (c *Capability) ControllerAddress() mctl.Address { return c.Controller }
func (c *Capability) RootID() []byte                  { return c.ID }
func (c *Capability) Permissions() Permission         { return PermAll }

// Validate returns an error if the capability is structurally broken.
func (c *Capability) Validate() error {
	if len(c.ID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "capability id")
	}
	if err := c.MultiID.Validate(); err != nil {
		return errors.Wrap(err, "multicontroller id")
	}
	if err := c.Controller.Validate(); err != nil {
		return errors.Wrap(err, "controller address")
	}
	return nil
}

// DelegationToken carries a permission subset derived from a parent
// capability. Many tokens may derive from one capability. A token dies with
// its parent: once the controller slot records a different capability id (or
// disappears) the token authorizes nothing.
type DelegationToken struct {
	ID           []byte
	MultiID      mctl.Address
	Controller   mctl.Address
	CapabilityID []byte
	Perms        Permission
}

var _ Credential = (*DelegationToken)(nil)

func (t *DelegationToken) ResourceID() mctl.Address        { return t.MultiID }
func (t *DelegationToken) ControllerAddress() mctl.Address { return t.Controller }
func (t *DelegationToken) RootID() []byte                  { return t.CapabilityID }
func (t *DelegationToken) Permissions() Permission         { return t.Perms }

// Validate returns an error if the token is structurally broken.
func (t *DelegationToken) Validate() error {
	if len(t.ID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "token id")
	}
	if len(t.CapabilityID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "parent capability id")
	}
	if err := t.MultiID.Validate(); err != nil {
		return errors.Wrap(err, "multicontroller id")
	}
	if err := t.Controller.Validate(); err != nil {
		return errors.Wrap(err, "controller address")
	}
	return nil
}

// Authorize verifies the credential against this multicontroller and returns
// the controller slot it acts for. Binding failures (wrong resource, unknown
// controller, superseded capability) surface as ErrInvalidCapability before
// the permission bits are consulted, a missing bit as ErrPermissionDenied.
func (m *Multicontroller) Authorize(cred Credential, required Permission) (*Controller, error) {
	if cred == nil {
		return nil, errors.Wrap(errors.ErrInvalidCapability, "no credential")
	}
	if !m.ID.Equals(cred.ResourceID()) {
		return nil, errors.Wrapf(errors.ErrInvalidCapability,
			"bound to %s, not %s", cred.ResourceID(), m.ID)
	}
	ctrl, ok := m.Controller(cred.ControllerAddress())
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidCapability,
			"no controller %s", cred.ControllerAddress())
	}
	if !bytes.Equal(ctrl.CapabilityID, cred.RootID()) {
		return nil, errors.Wrap(errors.ErrInvalidCapability, "capability superseded")
	}
	if !cred.Permissions().Permits(required) {
		return nil, errors.Wrapf(errors.ErrPermissionDenied, "requires %s", required)
	}
	return ctrl, nil
}

// MintDelegation derives a restricted token from a capability. The bitmask
// must be a subset of the parent's authority at minting time; a capability
// holds every permission, so any mask is a subset, but the parent must still
// be live against this multicontroller.
func (m *Multicontroller) MintDelegation(parent *Capability, perms Permission) (*DelegationToken, error) {
	if parent == nil {
		return nil, errors.Wrap(errors.ErrInvalidCapability, "no parent capability")
	}
	if _, err := m.Authorize(parent, PermNone); err != nil {
		return nil, errors.Wrap(err, "parent")
	}
	if !perms.SubsetOf(parent.Permissions()) {
		return nil, errors.Wrapf(errors.ErrPermissionDenied,
			"%s exceeds parent authority", perms)
	}
	return &DelegationToken{
		ID:           m.nextTokenID(parent, perms),
		MultiID:      parent.MultiID.Clone(),
		Controller:   parent.Controller.Clone(),
		CapabilityID: append([]byte(nil), parent.ID...),
		Perms:        perms,
	}, nil
}

// nextTokenID derives a fresh token id from the parent capability, the
// granted bitmask and a per-resource nonce, so that many tokens minted off
// one capability never collide.
func (m *Multicontroller) nextTokenID(parent *Capability, perms Permission) []byte {
	m.CapabilitySeq++
	seed := make([]byte, 0, len(parent.ID)+4+8)
	seed = append(seed, parent.ID...)
	seed = appendUint32(seed, uint32(perms))
	seed = appendUint64(seed, m.CapabilitySeq)
	return mctl.NewAddress(seed)
}

// nextCapabilityID derives a fresh capability id for a controller slot from
// the resource id, the controller address and a per-resource nonce.
func (m *Multicontroller) nextCapabilityID(controller mctl.Address) []byte {
	m.CapabilitySeq++
	seed := make([]byte, 0, len(m.ID)+len(controller)+8)
	seed = append(seed, m.ID...)
	seed = append(seed, controller...)
	seed = appendUint64(seed, m.CapabilitySeq)
	return mctl.NewAddress(seed)
}

func appendUint32(dst []byte, v uint32) []byte {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], v)
	return append(dst, raw[:]...)
}

func appendUint64(dst []byte, v uint64) []byte {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], v)
	return append(dst, raw[:]...)
}
