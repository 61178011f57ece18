package lez

import (
	"crypto/sha256"

	"filippo.io/edwards25519"
	"github.com/lez-one/lez/errors"
)

// Program derived addresses (PDAs) are deterministic account ids computed
// from a program id and seed bytes. Any two parties can agree on "the"
// address of a piece of program state without communication, as long as they
// agree on the seeds.
//
// A PDA must not be a valid ed25519 public key, so that no private key can
// ever sign for it. The derivation searches bump values from 255 downwards
// until the candidate digest falls off the curve.

const (
	// MaxSeeds is the maximum number of seeds in a single derivation.
	MaxSeeds = 16
	// MaxSeedLen is the maximum byte length of a single seed.
	MaxSeedLen = 32

	pdaMarker = "LezProgramDerivedAddress"
)

// CreateProgramAddress derives the address for the given seeds and a fixed
// bump. It fails with ErrInput on malformed seeds and with ErrState when the
// candidate lies on the ed25519 curve. Use FindProgramAddress unless a bump
// is already known.
func CreateProgramAddress(program ProgramID, bump uint8, seeds ...[]byte) (AccountID, error) {
	if err := validateSeeds(seeds); err != nil {
		return AccountID{}, err
	}
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(program[:])
	h.Write([]byte(pdaMarker))

	var id AccountID
	copy(id[:], h.Sum(nil))
	if isOnCurve(id) {
		return AccountID{}, errors.Wrap(errors.ErrState, "derived address is on the curve")
	}
	return id, nil
}

// FindProgramAddress derives the canonical address for the given seeds,
// returning the address together with the bump that produced it. The result
// is a pure function of the inputs: same program and seeds always yield the
// same address and bump, on every node.
func FindProgramAddress(program ProgramID, seeds ...[]byte) (AccountID, uint8, error) {
	if err := validateSeeds(seeds); err != nil {
		return AccountID{}, 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		id, err := CreateProgramAddress(program, uint8(bump), seeds...)
		if err == nil {
			return id, uint8(bump), nil
		}
	}
	// Statistically unreachable: every bump candidate decoded as a curve
	// point.
	return AccountID{}, 0, errors.Wrap(errors.ErrHuman, "no off-curve address found")
}

func validateSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return errors.Wrapf(errors.ErrInput, "too many seeds: %d", len(seeds))
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return errors.Wrapf(errors.ErrInput, "seed %d is %d bytes, max %d", i, len(seed), MaxSeedLen)
		}
	}
	return nil
}

func isOnCurve(id AccountID) bool {
	_, err := new(edwards25519.Point).SetBytes(id[:])
	return err == nil
}
