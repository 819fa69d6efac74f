/*
Package multicontrol implements shared weighted control over a single
governed value.

A Multicontroller owns one opaque value and a table of weighted
controllers. Every mutation travels through a proposal: a controller (or
a delegate holding the right permission bit) creates a proposal carrying
an action, other controllers approve it, and once the tallied weight of
the voters reaches the threshold any sufficiently permissioned caller
executes it. Tallies are always computed against the current controller
table, so weight changes and removals reach pending proposals at once.
Execution hands the action to its apply logic, which may lend out
resources for the remainder of the atomic operation; the return ledger
guarantees that every lent resource is accounted for before the
operation may conclude.

Authority is carried by values, not by signatures: a Capability grants
its holder the full permission set over exactly one multicontroller, a
DelegationToken derived from it grants a subset. Both become unusable
the moment their controller slot stops recording the capability they
descend from.

The package exposes two surfaces. The methods on Multicontroller are
pure state transitions for hosts that compose several calls into one
atomic operation. The message handlers wrap the same transitions in the
Check/Deliver protocol for hosts that route one message per operation.
*/
package multicontrol
