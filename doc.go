/*

Package lez defines interfaces used throughout the multisig application:
identities, derived addresses, storage, transactions and handlers.

The design separates the pure state transition logic (handlers operating on
a key-value store) from the host environment that orders and persists
transactions (the sequencer). Handlers never block and never talk to the
network; they perform a single check-and-mutate step against the store they
are given, so whichever serialization order the sequencer picks, account
level invariants hold.

*/
package lez
