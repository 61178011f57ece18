package multisig

import (
	"github.com/lez-one/lez/errors"
)

// multisig reserves error codes 1030 ~ 1039.
var (
	// ErrInvalidThreshold is returned when a threshold is zero or larger
	// than the number of members.
	ErrInvalidThreshold = errors.Register(1030, "invalid threshold")

	// ErrDuplicateMember is returned when the member list of a new
	// multisig contains the same account more than once.
	ErrDuplicateMember = errors.Register(1031, "duplicate member")

	// ErrAccountExists is returned when creating a multisig whose
	// derived state address is already claimed.
	ErrAccountExists = errors.Register(1032, "account already exists")

	// ErrNotMember is returned when the acting account is not a member
	// of the multisig.
	ErrNotMember = errors.Register(1033, "not a member")

	// ErrEmptyAuthorizedSet is returned when a proposal authorizes no
	// voters, or references member indices that do not exist.
	ErrEmptyAuthorizedSet = errors.Register(1034, "empty or invalid authorized set")

	// ErrNotAuthorized is returned when a member outside the proposal's
	// authorized set tries to vote.
	ErrNotAuthorized = errors.Register(1035, "not in the authorized set")

	// ErrAlreadyVoted is returned when a member votes twice on the same
	// proposal.
	ErrAlreadyVoted = errors.Register(1036, "already voted")
)
