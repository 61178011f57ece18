/*
Package multisig implements an M-of-N multisignature account.

A multisig is a shared account controlled by a fixed set of members. Any
member can propose an action against another program; the action is held as
a proposal until a threshold number of members approve it, and only then can
it be executed. Execution delegates the action as a chained call, the
multisig itself never touches external accounts.

State lives in two kinds of derived accounts: one MultisigState per
multisig, addressed by its create key, and one Proposal per proposed action,
addressed by the create key and the proposal index. Both addresses are
recomputed on demand, never stored.
*/
package multisig
