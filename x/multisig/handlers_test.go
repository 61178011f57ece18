package multisig

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/app"
	"github.com/lez-one/lez/errors"
	"github.com/lez-one/lez/leztest"
	"github.com/lez-one/lez/leztest/assert"
	"github.com/lez-one/lez/store"
)

// fixture wires the multisig routes against a fresh in-memory store with a
// 2-of-3 multisig already created.
type fixture struct {
	db        lez.CacheableKVStore
	router    *app.Router
	program   lez.ProgramID
	createKey [lez.IdentitySize]byte
	members   []lez.AccountID
	stranger  lez.AccountID
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		db:        store.MemStore(),
		router:    app.NewRouter(),
		program:   leztest.RandProgramID(),
		createKey: leztest.RandCreateKey(),
		members: []lez.AccountID{
			leztest.RandAccountID(),
			leztest.RandAccountID(),
			leztest.RandAccountID(),
		},
		stranger: leztest.RandAccountID(),
	}
	RegisterRoutes(f.router, leztest.CtxAuth{}, f.program)

	_, err := f.deliver(f.members[0], &CreateMultisigMsg{
		CreateKey: f.createKey,
		Threshold: 2,
		Members:   f.members,
	})
	assert.Nil(t, err)
	return f
}

func (f *fixture) deliver(signer lez.AccountID, msg lez.Msg) (*lez.DeliverResult, error) {
	ctx := leztest.WithSigners(context.Background(), signer)
	return f.router.Deliver(ctx, f.db, &leztest.Tx{Msg: msg})
}

func (f *fixture) check(signer lez.AccountID, msg lez.Msg) (*lez.CheckResult, error) {
	ctx := leztest.WithSigners(context.Background(), signer)
	return f.router.Check(ctx, f.db, &leztest.Tx{Msg: msg})
}

func (f *fixture) propose(t testing.TB, proposer lez.AccountID, authorized ...uint8) uint64 {
	t.Helper()
	res, err := f.deliver(proposer, &ProposeMsg{
		CreateKey:             f.createKey,
		TargetProgram:         leztest.RandProgramID(),
		TargetInstructionData: []byte{1, 2, 3},
		TargetAccountCount:    1,
		AuthorizedIndices:     authorized,
	})
	assert.Nil(t, err)
	return binary.BigEndian.Uint64(res.Data[:8])
}

func (f *fixture) state(t testing.TB) *MultisigState {
	t.Helper()
	state, err := loadState(f.db, NewStateBucket(), f.program, f.createKey)
	assert.Nil(t, err)
	return state
}

func (f *fixture) proposal(t testing.TB, index uint64) *Proposal {
	t.Helper()
	proposal, err := loadProposal(f.db, NewProposalBucket(), f.program, f.createKey, index)
	assert.Nil(t, err)
	return proposal
}

func TestCreateMultisig(t *testing.T) {
	f := newFixture(t)

	state := f.state(t)
	assert.Equal(t, uint8(2), state.Threshold)
	assert.Equal(t, uint8(3), state.MemberCount)
	assert.Equal(t, f.members, state.Members)
	assert.Equal(t, uint64(0), state.TransactionIndex)
	assert.Equal(t, f.createKey, state.CreateKey)
}

func TestCreateMultisigFailures(t *testing.T) {
	f := newFixture(t)

	cases := map[string]struct {
		signer  lez.AccountID
		msg     *CreateMultisigMsg
		wantErr *errors.Error
	}{
		"existing create key": {
			signer:  f.members[0],
			msg:     &CreateMultisigMsg{CreateKey: f.createKey, Threshold: 2, Members: f.members},
			wantErr: ErrAccountExists,
		},
		"zero threshold": {
			signer:  f.members[0],
			msg:     &CreateMultisigMsg{CreateKey: leztest.RandCreateKey(), Threshold: 0, Members: f.members},
			wantErr: ErrInvalidThreshold,
		},
		"threshold above member count": {
			signer:  f.members[0],
			msg:     &CreateMultisigMsg{CreateKey: leztest.RandCreateKey(), Threshold: 4, Members: f.members},
			wantErr: ErrInvalidThreshold,
		},
		"duplicate members": {
			signer: f.members[0],
			msg: &CreateMultisigMsg{
				CreateKey: leztest.RandCreateKey(),
				Threshold: 1,
				Members:   []lez.AccountID{f.members[0], f.members[0]},
			},
			wantErr: ErrDuplicateMember,
		},
		"no signer": {
			msg:     &CreateMultisigMsg{CreateKey: leztest.RandCreateKey(), Threshold: 2, Members: f.members},
			wantErr: errors.ErrUnauthorized,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.check(tc.signer, tc.msg)
			assert.IsErr(t, tc.wantErr, err)
			_, err = f.deliver(tc.signer, tc.msg)
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func TestProposeAssignsDenseIndices(t *testing.T) {
	f := newFixture(t)

	for want := uint64(1); want <= 5; want++ {
		index := f.propose(t, f.members[want%3], 0, 1, 2)
		assert.Equal(t, want, index)
	}
	assert.Equal(t, uint64(5), f.state(t).TransactionIndex)

	// a new proposal starts active with empty vote sets
	proposal := f.proposal(t, 1)
	assert.Equal(t, StatusActive, proposal.Status)
	assert.Equal(t, 0, len(proposal.Approvals))
	assert.Equal(t, 0, len(proposal.Rejections))
}

func TestProposeReturnsProposalAddress(t *testing.T) {
	f := newFixture(t)

	res, err := f.deliver(f.members[0], &ProposeMsg{
		CreateKey:             f.createKey,
		TargetProgram:         leztest.RandProgramID(),
		TargetInstructionData: []byte{7},
		TargetAccountCount:    1,
		AuthorizedIndices:     []uint8{0, 1, 2},
	})
	assert.Nil(t, err)

	want, err := ProposalAddress(f.program, f.createKey, 1)
	assert.Nil(t, err)
	assert.Equal(t, want[:], res.Data[8:])
}

func TestProposeFailures(t *testing.T) {
	f := newFixture(t)

	cases := map[string]struct {
		signer  lez.AccountID
		msg     *ProposeMsg
		wantErr *errors.Error
	}{
		"not a member": {
			signer: f.stranger,
			msg: &ProposeMsg{
				CreateKey:         f.createKey,
				TargetProgram:     leztest.RandProgramID(),
				AuthorizedIndices: []uint8{0},
			},
			wantErr: ErrNotMember,
		},
		"unknown multisig": {
			signer: f.members[0],
			msg: &ProposeMsg{
				CreateKey:         leztest.RandCreateKey(),
				TargetProgram:     leztest.RandProgramID(),
				AuthorizedIndices: []uint8{0},
			},
			wantErr: errors.ErrNotFound,
		},
		"authorized index out of range": {
			signer: f.members[0],
			msg: &ProposeMsg{
				CreateKey:         f.createKey,
				TargetProgram:     leztest.RandProgramID(),
				AuthorizedIndices: []uint8{0, 3},
			},
			wantErr: ErrEmptyAuthorizedSet,
		},
		"empty authorized set": {
			signer: f.members[0],
			msg: &ProposeMsg{
				CreateKey:     f.createKey,
				TargetProgram: leztest.RandProgramID(),
			},
			wantErr: ErrEmptyAuthorizedSet,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.deliver(tc.signer, tc.msg)
			assert.IsErr(t, tc.wantErr, err)
		})
	}

	// none of the failures consumed an index
	assert.Equal(t, uint64(0), f.state(t).TransactionIndex)
}

// TestApprovalWalkthrough is the full happy path: 3 members, threshold 2,
// propose, approve twice, execute once and only once.
func TestApprovalWalkthrough(t *testing.T) {
	f := newFixture(t)
	index := f.propose(t, f.members[0], 0, 1, 2)
	assert.Equal(t, uint64(1), index)

	// first approval is not enough
	_, err := f.deliver(f.members[0], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
	proposal := f.proposal(t, index)
	assert.Equal(t, StatusActive, proposal.Status)
	assert.Equal(t, []uint8{0}, proposal.Approvals)

	// second approval crosses the threshold
	_, err = f.deliver(f.members[1], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
	proposal = f.proposal(t, index)
	assert.Equal(t, StatusApproved, proposal.Status)
	assert.Equal(t, []uint8{0, 1}, proposal.Approvals)

	// execute emits the chained call and finalizes the proposal
	res, err := f.deliver(f.members[2], &ExecuteMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res.ChainedCalls))
	assert.Equal(t, proposal.TargetProgram, res.ChainedCalls[0].Program)
	assert.Equal(t, proposal.TargetInstructionData, res.ChainedCalls[0].Data)
	assert.Equal(t, StatusExecuted, f.proposal(t, index).Status)

	// a second execute must fail and change nothing
	_, err = f.deliver(f.members[2], &ExecuteMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.IsErr(t, errors.ErrState, err)
	assert.Equal(t, StatusExecuted, f.proposal(t, index).Status)
}

func TestSubCommitteeVoting(t *testing.T) {
	f := newFixture(t)
	// only members 0 and 1 may vote
	index := f.propose(t, f.members[0], 0, 1)

	// the excluded member is refused, vote sets stay empty
	_, err := f.deliver(f.members[2], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.IsErr(t, ErrNotAuthorized, err)
	proposal := f.proposal(t, index)
	assert.Equal(t, 0, len(proposal.Approvals))
	assert.Equal(t, 0, len(proposal.Rejections))

	// the sub-committee can still satisfy the global threshold
	_, err = f.deliver(f.members[0], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
	_, err = f.deliver(f.members[1], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
	assert.Equal(t, StatusApproved, f.proposal(t, index).Status)
}

func TestRejectionByUnreachability(t *testing.T) {
	f := newFixture(t)
	index := f.propose(t, f.members[0], 0, 1, 2)

	// one rejection is not final: 2 possible approvals remain for
	// threshold 2
	_, err := f.deliver(f.members[0], &RejectMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
	assert.Equal(t, StatusActive, f.proposal(t, index).Status)

	// the second rejection leaves only 1 possible approval, so the
	// proposal dies
	_, err = f.deliver(f.members[1], &RejectMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
	assert.Equal(t, StatusRejected, f.proposal(t, index).Status)

	// rejected is terminal
	_, err = f.deliver(f.members[2], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.IsErr(t, errors.ErrState, err)
	_, err = f.deliver(f.members[2], &ExecuteMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.IsErr(t, errors.ErrState, err)
}

func TestVoteIsExclusiveAndFinal(t *testing.T) {
	f := newFixture(t)
	index := f.propose(t, f.members[0], 0, 1, 2)

	_, err := f.deliver(f.members[0], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)

	// the same member cannot vote again, in either direction
	_, err = f.deliver(f.members[0], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.IsErr(t, ErrAlreadyVoted, err)
	_, err = f.deliver(f.members[0], &RejectMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.IsErr(t, ErrAlreadyVoted, err)

	proposal := f.proposal(t, index)
	assert.Equal(t, []uint8{0}, proposal.Approvals)
	assert.Equal(t, 0, len(proposal.Rejections))
}

func TestVoteFailures(t *testing.T) {
	f := newFixture(t)
	index := f.propose(t, f.members[0], 0, 1, 2)

	cases := map[string]struct {
		signer  lez.AccountID
		msg     lez.Msg
		wantErr *errors.Error
	}{
		"unknown proposal": {
			signer:  f.members[0],
			msg:     &ApproveMsg{CreateKey: f.createKey, ProposalIndex: 99},
			wantErr: errors.ErrNotFound,
		},
		"unknown multisig": {
			signer:  f.members[0],
			msg:     &ApproveMsg{CreateKey: leztest.RandCreateKey(), ProposalIndex: index},
			wantErr: errors.ErrNotFound,
		},
		"stranger cannot vote": {
			signer:  f.stranger,
			msg:     &RejectMsg{CreateKey: f.createKey, ProposalIndex: index},
			wantErr: ErrNotMember,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.deliver(tc.signer, tc.msg)
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func TestExecuteRequiresApprovedStatus(t *testing.T) {
	f := newFixture(t)
	index := f.propose(t, f.members[0], 0, 1, 2)

	// active proposals cannot execute
	_, err := f.deliver(f.members[0], &ExecuteMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.IsErr(t, errors.ErrState, err)

	_, err = f.deliver(f.members[0], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
	_, err = f.deliver(f.members[1], &ApproveMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)

	// strangers cannot execute even an approved proposal
	_, err = f.deliver(f.stranger, &ExecuteMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.IsErr(t, ErrNotMember, err)

	_, err = f.deliver(f.members[0], &ExecuteMsg{CreateKey: f.createKey, ProposalIndex: index})
	assert.Nil(t, err)
}

func TestCheckAllocatesGas(t *testing.T) {
	f := newFixture(t)

	res, err := f.check(f.members[0], &CreateMultisigMsg{
		CreateKey: leztest.RandCreateKey(),
		Threshold: 2,
		Members:   f.members,
	})
	assert.Nil(t, err)
	assert.Equal(t, createCost, res.GasAllocated)

	res, err = f.check(f.members[0], &ProposeMsg{
		CreateKey:         f.createKey,
		TargetProgram:     leztest.RandProgramID(),
		AuthorizedIndices: []uint8{0},
	})
	assert.Nil(t, err)
	assert.Equal(t, proposeCost, res.GasAllocated)
}
