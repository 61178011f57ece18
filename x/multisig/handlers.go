package multisig

import (
	"context"
	"encoding/binary"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
	"github.com/lez-one/lez/orm"
)

const (
	createCost  int64 = 300
	proposeCost int64 = 150
	voteCost    int64 = 50
	executeCost int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this package.
// The program id pins every address derivation performed by the handlers.
func RegisterRoutes(r lez.Registry, auth lez.Authenticator, program lez.ProgramID) {
	states := NewStateBucket()
	proposals := NewProposalBucket()

	r.Handle(&CreateMultisigMsg{}, CreateMultisigHandler{auth: auth, program: program, states: states})
	r.Handle(&ProposeMsg{}, ProposeHandler{auth: auth, program: program, states: states, proposals: proposals})
	r.Handle(&ApproveMsg{}, VoteHandler{auth: auth, program: program, states: states, proposals: proposals, approve: true})
	r.Handle(&RejectMsg{}, VoteHandler{auth: auth, program: program, states: states, proposals: proposals})
	r.Handle(&ExecuteMsg{}, ExecuteHandler{auth: auth, program: program, states: states, proposals: proposals})
}

// CreateMultisigHandler claims a fresh multisig state account.
type CreateMultisigHandler struct {
	auth    lez.Authenticator
	program lez.ProgramID
	states  orm.ModelBucket
}

var _ lez.Handler = CreateMultisigHandler{}

func (h CreateMultisigHandler) Check(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &lez.CheckResult{GasAllocated: createCost}, nil
}

func (h CreateMultisigHandler) Deliver(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.DeliverResult, error) {
	msg, addr, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	state := &MultisigState{
		CreateKey:        msg.CreateKey,
		Threshold:        msg.Threshold,
		MemberCount:      uint8(len(msg.Members)),
		Members:          msg.Members,
		TransactionIndex: 0,
	}
	if err := h.states.Put(db, addr[:], state); err != nil {
		return nil, err
	}
	return &lez.DeliverResult{Data: addr[:]}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CreateMultisigHandler) validate(ctx context.Context, db lez.KVStore, tx lez.Tx) (*CreateMultisigMsg, lez.AccountID, error) {
	var msg CreateMultisigMsg
	if err := lez.LoadMsg(tx, &msg); err != nil {
		return nil, lez.AccountID{}, err
	}
	// Anyone may create a multisig, but the transaction must be signed.
	if lez.MainSigner(ctx, h.auth).IsZero() {
		return nil, lez.AccountID{}, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	addr, err := StateAddress(h.program, msg.CreateKey)
	if err != nil {
		return nil, lez.AccountID{}, err
	}
	switch taken, err := h.states.Has(db, addr[:]); {
	case err != nil:
		return nil, lez.AccountID{}, err
	case taken:
		return nil, lez.AccountID{}, errors.Wrapf(ErrAccountExists, "create key %x", msg.CreateKey)
	}
	return &msg, addr, nil
}

// ProposeHandler allocates the next proposal index and claims the proposal
// account for it.
type ProposeHandler struct {
	auth      lez.Authenticator
	program   lez.ProgramID
	states    orm.ModelBucket
	proposals orm.ModelBucket
}

var _ lez.Handler = ProposeHandler{}

func (h ProposeHandler) Check(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &lez.CheckResult{GasAllocated: proposeCost}, nil
}

func (h ProposeHandler) Deliver(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.DeliverResult, error) {
	msg, state, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// Allocating the index and writing both accounts happens inside one
	// cache wrap, so two concurrent proposals can never share an index.
	index := state.NextProposalIndex()
	stateAddr, err := StateAddress(h.program, msg.CreateKey)
	if err != nil {
		return nil, err
	}
	if err := h.states.Put(db, stateAddr[:], state); err != nil {
		return nil, err
	}

	proposal := &Proposal{
		Index:                 index,
		Proposer:              proposer,
		MultisigCreateKey:     msg.CreateKey,
		TargetProgram:         msg.TargetProgram,
		TargetInstructionData: msg.TargetInstructionData,
		TargetAccountCount:    msg.TargetAccountCount,
		PDASeeds:              msg.PDASeeds,
		AuthorizedIndices:     msg.AuthorizedIndices,
		Status:                StatusActive,
	}
	propAddr, err := ProposalAddress(h.program, msg.CreateKey, index)
	if err != nil {
		return nil, err
	}
	if err := h.proposals.Put(db, propAddr[:], proposal); err != nil {
		return nil, err
	}

	// Result data is the assigned index followed by the proposal address.
	data := make([]byte, 8+lez.IdentitySize)
	binary.BigEndian.PutUint64(data, index)
	copy(data[8:], propAddr[:])
	return &lez.DeliverResult{Data: data}, nil
}

func (h ProposeHandler) validate(ctx context.Context, db lez.KVStore, tx lez.Tx) (*ProposeMsg, *MultisigState, lez.AccountID, error) {
	var msg ProposeMsg
	if err := lez.LoadMsg(tx, &msg); err != nil {
		return nil, nil, lez.AccountID{}, err
	}
	state, err := loadState(db, h.states, h.program, msg.CreateKey)
	if err != nil {
		return nil, nil, lez.AccountID{}, err
	}
	proposer := lez.MainSigner(ctx, h.auth)
	if !state.IsMember(proposer) {
		return nil, nil, lez.AccountID{}, errors.Wrapf(ErrNotMember, "%s", proposer)
	}
	for _, idx := range msg.AuthorizedIndices {
		if idx >= state.MemberCount {
			return nil, nil, lez.AccountID{}, errors.Wrapf(ErrEmptyAuthorizedSet, "index %d of %d members", idx, state.MemberCount)
		}
	}
	return &msg, state, proposer, nil
}

// VoteHandler records one approval or rejection. A vote is an exclusive,
// one-time choice per member per proposal.
type VoteHandler struct {
	auth      lez.Authenticator
	program   lez.ProgramID
	states    orm.ModelBucket
	proposals orm.ModelBucket
	approve   bool
}

var _ lez.Handler = VoteHandler{}

func (h VoteHandler) Check(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &lez.CheckResult{GasAllocated: voteCost}, nil
}

func (h VoteHandler) Deliver(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.DeliverResult, error) {
	state, proposal, memberIndex, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	applyVote(proposal, memberIndex, h.approve, state.Threshold)

	addr, err := ProposalAddress(h.program, proposal.MultisigCreateKey, proposal.Index)
	if err != nil {
		return nil, err
	}
	if err := h.proposals.Put(db, addr[:], proposal); err != nil {
		return nil, err
	}
	return &lez.DeliverResult{Data: []byte{byte(proposal.Status)}}, nil
}

func (h VoteHandler) validate(ctx context.Context, db lez.KVStore, tx lez.Tx) (*MultisigState, *Proposal, uint8, error) {
	createKey, index, err := proposalRef(tx)
	if err != nil {
		return nil, nil, 0, err
	}
	state, err := loadState(db, h.states, h.program, createKey)
	if err != nil {
		return nil, nil, 0, err
	}
	proposal, err := loadProposal(db, h.proposals, h.program, createKey, index)
	if err != nil {
		return nil, nil, 0, err
	}

	voter := lez.MainSigner(ctx, h.auth)
	mi := state.MemberIndex(voter)
	if mi < 0 {
		return nil, nil, 0, errors.Wrapf(ErrNotMember, "%s", voter)
	}
	memberIndex := uint8(mi)
	if !proposal.IsAuthorized(memberIndex) {
		return nil, nil, 0, errors.Wrapf(ErrNotAuthorized, "member %d", memberIndex)
	}
	if proposal.Status != StatusActive {
		return nil, nil, 0, errors.Wrapf(errors.ErrState, "proposal is %s", proposal.Status)
	}
	if proposal.HasVoted(memberIndex) {
		return nil, nil, 0, errors.Wrapf(ErrAlreadyVoted, "member %d", memberIndex)
	}
	return state, proposal, memberIndex, nil
}

// ExecuteHandler turns an approved proposal into a chained call and marks it
// executed. Marking and the call share one atomic delivery: if the call
// fails, the status write is rolled back with it and the proposal stays
// approved and retryable.
type ExecuteHandler struct {
	auth      lez.Authenticator
	program   lez.ProgramID
	states    orm.ModelBucket
	proposals orm.ModelBucket
}

var _ lez.Handler = ExecuteHandler{}

func (h ExecuteHandler) Check(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &lez.CheckResult{GasAllocated: executeCost}, nil
}

func (h ExecuteHandler) Deliver(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.DeliverResult, error) {
	proposal, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	proposal.Status = StatusExecuted
	addr, err := ProposalAddress(h.program, proposal.MultisigCreateKey, proposal.Index)
	if err != nil {
		return nil, err
	}
	if err := h.proposals.Put(db, addr[:], proposal); err != nil {
		return nil, err
	}

	call := lez.ChainedCall{
		Program:      proposal.TargetProgram,
		Data:         proposal.TargetInstructionData,
		AccountCount: proposal.TargetAccountCount,
		Seeds:        proposal.PDASeeds,
	}
	return &lez.DeliverResult{ChainedCalls: []lez.ChainedCall{call}}, nil
}

func (h ExecuteHandler) validate(ctx context.Context, db lez.KVStore, tx lez.Tx) (*Proposal, error) {
	createKey, index, err := proposalRef(tx)
	if err != nil {
		return nil, err
	}
	state, err := loadState(db, h.states, h.program, createKey)
	if err != nil {
		return nil, err
	}
	proposal, err := loadProposal(db, h.proposals, h.program, createKey, index)
	if err != nil {
		return nil, err
	}
	executor := lez.MainSigner(ctx, h.auth)
	if !state.IsMember(executor) {
		return nil, errors.Wrapf(ErrNotMember, "%s", executor)
	}
	if proposal.Status != StatusApproved {
		return nil, errors.Wrapf(errors.ErrState, "proposal is %s", proposal.Status)
	}
	return proposal, nil
}

// proposalRef extracts the (create key, index) reference shared by the
// approve, reject and execute messages.
func proposalRef(tx lez.Tx) ([lez.IdentitySize]byte, uint64, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return [lez.IdentitySize]byte{}, 0, errors.Wrap(err, "cannot get message")
	}
	if msg == nil {
		return [lez.IdentitySize]byte{}, 0, errors.Wrap(errors.ErrEmpty, "message")
	}
	if err := msg.Validate(); err != nil {
		return [lez.IdentitySize]byte{}, 0, err
	}
	switch m := msg.(type) {
	case *ApproveMsg:
		return m.CreateKey, m.ProposalIndex, nil
	case *RejectMsg:
		return m.CreateKey, m.ProposalIndex, nil
	case *ExecuteMsg:
		return m.CreateKey, m.ProposalIndex, nil
	}
	return [lez.IdentitySize]byte{}, 0, errors.Wrapf(errors.ErrType, "%T does not reference a proposal", msg)
}

func loadState(db lez.KVStore, states orm.ModelBucket, program lez.ProgramID, createKey [lez.IdentitySize]byte) (*MultisigState, error) {
	addr, err := StateAddress(program, createKey)
	if err != nil {
		return nil, err
	}
	var state MultisigState
	if err := states.One(db, addr[:], &state); err != nil {
		return nil, errors.Wrapf(err, "multisig %x", createKey)
	}
	return &state, nil
}

func loadProposal(db lez.KVStore, proposals orm.ModelBucket, program lez.ProgramID, createKey [lez.IdentitySize]byte, index uint64) (*Proposal, error) {
	addr, err := ProposalAddress(program, createKey, index)
	if err != nil {
		return nil, err
	}
	var proposal Proposal
	if err := proposals.One(db, addr[:], &proposal); err != nil {
		return nil, errors.Wrapf(err, "proposal %d", index)
	}
	return &proposal, nil
}
