package multisig

import (
	"github.com/near/borsh-go"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
	"github.com/lez-one/lez/orm"
)

// MaxMembers caps the member list of a single multisig.
const MaxMembers = 10

// accountBucket is the shared keyspace for all program owned accounts. Keys
// are derived addresses, so state and proposal entries never collide.
const accountBucket = "acct"

// ProposalStatus is the lifecycle stage of a proposal.
type ProposalStatus uint8

const (
	// StatusActive accepts votes.
	StatusActive ProposalStatus = iota
	// StatusApproved reached the threshold and awaits execution.
	StatusApproved
	// StatusRejected can no longer reach the threshold. Terminal.
	StatusRejected
	// StatusExecuted completed its chained call. Terminal.
	StatusExecuted
)

func (s ProposalStatus) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusExecuted:
		return "Executed"
	}
	return "Invalid"
}

// MultisigState is the persistent account of one multisig: who the members
// are, how many approvals an action needs and how many proposals were ever
// made.
type MultisigState struct {
	CreateKey        [lez.IdentitySize]byte
	Threshold        uint8
	MemberCount      uint8
	Members          []lez.AccountID
	TransactionIndex uint64
}

var _ orm.Model = (*MultisigState)(nil)

func (m *MultisigState) Marshal() ([]byte, error) {
	return borsh.Serialize(*m)
}

func (m *MultisigState) Unmarshal(data []byte) error {
	return borsh.Deserialize(m, data)
}

func (m *MultisigState) Validate() error {
	if len(m.Members) == 0 {
		return errors.Wrap(ErrInvalidThreshold, "no members")
	}
	if len(m.Members) > MaxMembers {
		return errors.Wrapf(ErrInvalidThreshold, "at most %d members", MaxMembers)
	}
	if int(m.MemberCount) != len(m.Members) {
		return errors.Wrap(errors.ErrModel, "member count out of sync")
	}
	if m.Threshold < 1 || int(m.Threshold) > len(m.Members) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d of %d members", m.Threshold, len(m.Members))
	}
	for i, a := range m.Members {
		for _, b := range m.Members[i+1:] {
			if a.Equals(b) {
				return errors.Wrapf(ErrDuplicateMember, "%s", a)
			}
		}
	}
	return nil
}

// MemberIndex returns the position of the account in the member list, or -1
// when the account is not a member.
func (m *MultisigState) MemberIndex(id lez.AccountID) int {
	for i, member := range m.Members {
		if member.Equals(id) {
			return i
		}
	}
	return -1
}

// IsMember returns whether the account belongs to this multisig.
func (m *MultisigState) IsMember(id lez.AccountID) bool {
	return m.MemberIndex(id) >= 0
}

// NextProposalIndex increments the proposal counter and returns the index
// assigned to the proposal being created. Indices start at 1 and are never
// reused.
func (m *MultisigState) NextProposalIndex() uint64 {
	m.TransactionIndex++
	return m.TransactionIndex
}

// Proposal is one pending action of a multisig, stored in its own derived
// account. The target fields describe the chained call performed on
// execution and are never interpreted here.
type Proposal struct {
	Index             uint64
	Proposer          lez.AccountID
	MultisigCreateKey [lez.IdentitySize]byte

	TargetProgram         lez.ProgramID
	TargetInstructionData []byte
	TargetAccountCount    uint8
	PDASeeds              [][lez.IdentitySize]byte

	// AuthorizedIndices are the member indices allowed to vote. Approvals
	// and Rejections hold member indices as well and never overlap.
	AuthorizedIndices []uint8
	Approvals         []uint8
	Rejections        []uint8
	Status            ProposalStatus
}

var _ orm.Model = (*Proposal)(nil)

func (p *Proposal) Marshal() ([]byte, error) {
	return borsh.Serialize(*p)
}

func (p *Proposal) Unmarshal(data []byte) error {
	return borsh.Deserialize(p, data)
}

func (p *Proposal) Validate() error {
	if p.Index == 0 {
		return errors.Wrap(errors.ErrModel, "zero proposal index")
	}
	if p.Proposer.IsZero() {
		return errors.Wrap(errors.ErrModel, "no proposer")
	}
	if len(p.AuthorizedIndices) == 0 {
		return errors.Wrap(ErrEmptyAuthorizedSet, "no authorized voters")
	}
	if p.Status > StatusExecuted {
		return errors.Wrapf(errors.ErrModel, "invalid status %d", p.Status)
	}
	if len(p.Approvals)+len(p.Rejections) > len(p.AuthorizedIndices) {
		return errors.Wrap(errors.ErrModel, "more votes than authorized voters")
	}
	for _, a := range p.Approvals {
		if containsIndex(p.Rejections, a) {
			return errors.Wrapf(errors.ErrModel, "member %d voted both ways", a)
		}
	}
	return nil
}

// IsAuthorized returns whether the member index may vote on this proposal.
func (p *Proposal) IsAuthorized(memberIndex uint8) bool {
	return containsIndex(p.AuthorizedIndices, memberIndex)
}

// HasVoted returns whether the member index already cast a vote.
func (p *Proposal) HasVoted(memberIndex uint8) bool {
	return containsIndex(p.Approvals, memberIndex) || containsIndex(p.Rejections, memberIndex)
}

func containsIndex(set []uint8, idx uint8) bool {
	for _, v := range set {
		if v == idx {
			return true
		}
	}
	return false
}

// NewStateBucket returns the bucket storing MultisigState accounts, keyed by
// their derived address.
func NewStateBucket() orm.ModelBucket {
	return orm.NewModelBucket(accountBucket, &MultisigState{})
}

// NewProposalBucket returns the bucket storing Proposal accounts, keyed by
// their derived address.
func NewProposalBucket() orm.ModelBucket {
	return orm.NewModelBucket(accountBucket, &Proposal{})
}
