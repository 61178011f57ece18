package multisig

import (
	"encoding/binary"

	"github.com/lez-one/lez"
)

// Seed tags for the two canonical derivations. Anyone holding the program id
// and a create key can recompute both addresses offline.
const (
	stateSeed    = "multisig"
	proposalSeed = "proposal"
)

// StateAddress derives the address of the MultisigState account for the
// given create key.
func StateAddress(program lez.ProgramID, createKey [lez.IdentitySize]byte) (lez.AccountID, error) {
	id, _, err := lez.FindProgramAddress(program, []byte(stateSeed), createKey[:])
	return id, err
}

// ProposalAddress derives the address of the Proposal account for the given
// create key and proposal index.
func ProposalAddress(program lez.ProgramID, createKey [lez.IdentitySize]byte, index uint64) (lez.AccountID, error) {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	id, _, err := lez.FindProgramAddress(program, []byte(proposalSeed), createKey[:], idx[:])
	return id, err
}
