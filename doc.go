/*
Package mctl defines the common interfaces that tie the multicontroller
governance engine together.

A multicontroller places one governed value under the joint authority of
a weighted controller set. Controllers act through unforgeable
capabilities (or restricted delegation tokens derived from them), any
change to the governed value travels through a weighted-vote proposal,
and a resolved proposal is executed as a single atomic state transition.

This root package holds the shared vocabulary: addresses, POSIX time,
the message/transaction contracts, handler interfaces and the key-value
store abstraction that supplies the atomic operation boundary. The
engine itself lives in x/multicontrol, the store implementations in
store and store/iavl.
*/
package mctl
