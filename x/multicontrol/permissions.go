package multicontrol

import "strings"

// Permission is a bitmask describing which proposal operations a credential
// may perform. The bit assignment is a fixed wire contract and must stay
// bit-exact across implementations.
type Permission uint32

const (
	PermNone            Permission = 0
	PermCreateProposal  Permission = 1
	PermApproveProposal Permission = 2
	PermExecuteProposal Permission = 4
	PermDeleteProposal  Permission = 8
	PermRemoveApproval  Permission = 16
	PermAll             Permission = 0xFFFFFFFF
)

// Permits returns true if this bitmask covers every bit of required.
func (p Permission) Permits(required Permission) bool {
	return p&required == required
}

// SubsetOf returns true if every bit of this bitmask is present in parent.
func (p Permission) SubsetOf(parent Permission) bool {
	return parent&p == p
}

var permissionNames = []struct {
	bit  Permission
	name string
}{
	{PermCreateProposal, "create-proposal"},
	{PermApproveProposal, "approve-proposal"},
	{PermExecuteProposal, "execute-proposal"},
	{PermDeleteProposal, "delete-proposal"},
	{PermRemoveApproval, "remove-approval"},
}

// String renders the bitmask in a human readable form, for error messages
// and result tags.
func (p Permission) String() string {
	if p == PermNone {
		return "none"
	}
	if p == PermAll {
		return "all"
	}
	var names []string
	rest := p
	for _, pn := range permissionNames {
		if p.Permits(pn.bit) {
			names = append(names, pn.name)
			rest &^= pn.bit
		}
	}
	if rest != 0 {
		names = append(names, "unknown")
	}
	return strings.Join(names, "|")
}
