package multisig

import (
	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
)

// Routing paths of all multisig operations.
const (
	pathCreateMsg  = "multisig/create"
	pathProposeMsg = "multisig/propose"
	pathApproveMsg = "multisig/approve"
	pathRejectMsg  = "multisig/reject"
	pathExecuteMsg = "multisig/execute"
)

var (
	_ lez.Msg = (*CreateMultisigMsg)(nil)
	_ lez.Msg = (*ProposeMsg)(nil)
	_ lez.Msg = (*ApproveMsg)(nil)
	_ lez.Msg = (*RejectMsg)(nil)
	_ lez.Msg = (*ExecuteMsg)(nil)
)

// CreateMultisigMsg creates a new multisig account. The create key fixes the
// account's derived address, so the same key can never be claimed twice.
type CreateMultisigMsg struct {
	CreateKey [lez.IdentitySize]byte
	Threshold uint8
	Members   []lez.AccountID
}

func (CreateMultisigMsg) Path() string {
	return pathCreateMsg
}

func (m *CreateMultisigMsg) Validate() error {
	if m.CreateKey == [lez.IdentitySize]byte{} {
		return errors.Wrap(errors.ErrEmpty, "create key")
	}
	if len(m.Members) == 0 {
		return errors.Wrap(ErrInvalidThreshold, "no members")
	}
	if len(m.Members) > MaxMembers {
		return errors.Wrapf(ErrInvalidThreshold, "at most %d members", MaxMembers)
	}
	if m.Threshold < 1 || int(m.Threshold) > len(m.Members) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d of %d members", m.Threshold, len(m.Members))
	}
	for i, a := range m.Members {
		if a.IsZero() {
			return errors.Wrapf(errors.ErrEmpty, "member %d", i)
		}
		for _, b := range m.Members[i+1:] {
			if a.Equals(b) {
				return errors.Wrapf(ErrDuplicateMember, "%s", a)
			}
		}
	}
	return nil
}

// ProposeMsg creates a new proposal under an existing multisig. The target
// fields are opaque: only their shape is validated, their meaning belongs to
// the target program.
type ProposeMsg struct {
	CreateKey             [lez.IdentitySize]byte
	TargetProgram         lez.ProgramID
	TargetInstructionData []byte
	TargetAccountCount    uint8
	PDASeeds              [][lez.IdentitySize]byte
	AuthorizedIndices     []uint8
}

func (ProposeMsg) Path() string {
	return pathProposeMsg
}

func (m *ProposeMsg) Validate() error {
	if m.CreateKey == [lez.IdentitySize]byte{} {
		return errors.Wrap(errors.ErrEmpty, "create key")
	}
	if m.TargetProgram.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "target program")
	}
	if len(m.PDASeeds) > lez.MaxSeeds {
		return errors.Wrapf(errors.ErrInput, "at most %d seeds", lez.MaxSeeds)
	}
	if len(m.AuthorizedIndices) == 0 {
		return errors.Wrap(ErrEmptyAuthorizedSet, "no authorized voters")
	}
	seen := make(map[uint8]struct{}, len(m.AuthorizedIndices))
	for _, idx := range m.AuthorizedIndices {
		if _, ok := seen[idx]; ok {
			return errors.Wrapf(ErrEmptyAuthorizedSet, "duplicate index %d", idx)
		}
		seen[idx] = struct{}{}
	}
	return nil
}

// ApproveMsg casts a yes vote on an active proposal.
type ApproveMsg struct {
	CreateKey     [lez.IdentitySize]byte
	ProposalIndex uint64
}

func (ApproveMsg) Path() string {
	return pathApproveMsg
}

func (m *ApproveMsg) Validate() error {
	return validateProposalRef(m.CreateKey, m.ProposalIndex)
}

// RejectMsg casts a no vote on an active proposal.
type RejectMsg struct {
	CreateKey     [lez.IdentitySize]byte
	ProposalIndex uint64
}

func (RejectMsg) Path() string {
	return pathRejectMsg
}

func (m *RejectMsg) Validate() error {
	return validateProposalRef(m.CreateKey, m.ProposalIndex)
}

// ExecuteMsg performs the chained call of an approved proposal.
type ExecuteMsg struct {
	CreateKey     [lez.IdentitySize]byte
	ProposalIndex uint64
}

func (ExecuteMsg) Path() string {
	return pathExecuteMsg
}

func (m *ExecuteMsg) Validate() error {
	return validateProposalRef(m.CreateKey, m.ProposalIndex)
}

func validateProposalRef(createKey [lez.IdentitySize]byte, index uint64) error {
	if createKey == [lez.IdentitySize]byte{} {
		return errors.Wrap(errors.ErrEmpty, "create key")
	}
	if index == 0 {
		return errors.Wrap(errors.ErrInput, "proposal index starts at 1")
	}
	return nil
}
