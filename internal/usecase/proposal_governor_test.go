package usecase_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/govtest"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

func TestProposalLifecycle(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	id := h.PassProposal(t, govtest.Alice, addCouncilParams(t, h, govtest.Bob, "add bob to the council"), govtest.Alice)

	eta, err := h.Governor.Queue(ctx, govtest.Alice, id)
	require.NoError(t, err)
	assert.Equal(t, h.Clock.Now().Add(2*24*time.Hour), eta)
	assert.Equal(t, models.ProposalStateQueued, proposalState(t, h, id))

	err = h.Governor.Execute(ctx, govtest.Executor, id)
	require.ErrorIs(t, err, domain.ErrOperationNotReady)

	h.Clock.Advance(2 * 24 * time.Hour)

	err = h.Governor.Execute(ctx, govtest.Alice, id)
	require.ErrorIs(t, err, domain.ErrExecutorNotAuthorized)
	assert.Equal(t, models.ProposalStateQueued, proposalState(t, h, id))

	require.NoError(t, h.Governor.Execute(ctx, govtest.Executor, id))
	assert.Equal(t, models.ProposalStateExecuted, proposalState(t, h, id))

	member, err := h.Governor.IsCouncilMember(ctx, govtest.Bob)
	require.NoError(t, err)
	assert.True(t, member)

	view, err := h.Governor.Proposal(ctx, id)
	require.NoError(t, err)
	op, err := h.Timelock.Operation(ctx, view.TimelockID)
	require.NoError(t, err)
	assert.True(t, op.Done)

	for _, et := range []domain.EventType{
		domain.EventTypeProposalCreated,
		domain.EventTypeVoteCast,
		domain.EventTypeProposalQueued,
		domain.EventTypeCallScheduled,
		domain.EventTypeCouncilMemberChanged,
		domain.EventTypeCallExecuted,
		domain.EventTypeProposalExecuted,
	} {
		assert.Equal(t, 1, h.Events.Count(et), et)
	}

	err = h.Governor.Execute(ctx, govtest.Executor, id)
	require.ErrorIs(t, err, domain.ErrUnexpectedProposalState)
}

func TestProposeAuthorization(t *testing.T) {
	tests := []struct {
		name      string
		proposer  common.Address
		kind      models.ProposalType
		expectErr error
	}{
		{name: "standard above threshold", proposer: govtest.Alice, kind: models.ProposalTypeStandard},
		{name: "standard below threshold", proposer: govtest.Carol, kind: models.ProposalTypeStandard, expectErr: domain.ErrInsufficientVotingPower},
		{name: "standard without tokens", proposer: govtest.Operator, kind: models.ProposalTypeStandard, expectErr: domain.ErrInsufficientVotingPower},
		{name: "standard from multisig", proposer: govtest.Multisig, kind: models.ProposalTypeStandard},
		{name: "emergency from holder", proposer: govtest.Alice, kind: models.ProposalTypeEmergency, expectErr: domain.ErrUnauthorized},
		{name: "emergency from multisig", proposer: govtest.Multisig, kind: models.ProposalTypeEmergency},
		{name: "upgrade from holder", proposer: govtest.Alice, kind: models.ProposalTypeUpgrade, expectErr: domain.ErrUnauthorized},
		{name: "upgrade from multisig", proposer: govtest.Multisig, kind: models.ProposalTypeUpgrade},
		{name: "constitutional from holder", proposer: govtest.Alice, kind: models.ProposalTypeConstitutional, expectErr: domain.ErrUnauthorized},
		{name: "constitutional from multisig", proposer: govtest.Multisig, kind: models.ProposalTypeConstitutional},
		{name: "unknown type", proposer: govtest.Multisig, kind: models.ProposalType(42), expectErr: domain.ErrInvalidProposalType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := govtest.New(t)
			fundVoters(t, h)

			params := addCouncilParams(t, h, govtest.Bob, tt.name)
			params.Type = tt.kind
			id, err := h.Governor.ProposeWithType(context.Background(), tt.proposer, params)
			if tt.expectErr != nil {
				require.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			view, err := h.Governor.Proposal(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, view.Type)
			assert.Equal(t, models.ProposalStatePending, view.State)
		})
	}
}

func TestProposeValidation(t *testing.T) {
	h := govtest.New(t)
	fundVoters(t, h)
	ctx := context.Background()
	member := pack(t, bindings.MethodAddCouncilMember, govtest.Bob)

	t.Run("empty", func(t *testing.T) {
		_, err := h.Governor.Propose(ctx, govtest.Alice, nil, nil, nil, "empty")
		assert.ErrorIs(t, err, domain.ErrEmptyProposal)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := h.Governor.Propose(ctx, govtest.Alice,
			[]common.Address{h.Governor.Address(), h.Governor.Address()}, nil, [][]byte{member}, "mismatch")
		assert.ErrorIs(t, err, domain.ErrInvalidProposalLength)
	})

	t.Run("too many operations", func(t *testing.T) {
		n := h.Config.Governor.MaxOperations + 1
		targets := make([]common.Address, n)
		calldatas := make([][]byte, n)
		for i := range targets {
			targets[i] = h.Governor.Address()
			calldatas[i] = member
		}
		_, err := h.Governor.Propose(ctx, govtest.Alice, targets, nil, calldatas, "too many")
		assert.ErrorIs(t, err, domain.ErrTooManyOperations)
	})

	t.Run("mint-request type without mint call", func(t *testing.T) {
		params := addCouncilParams(t, h, govtest.Bob, "not a mint")
		params.Type = models.ProposalTypeMintRequest
		_, err := h.Governor.ProposeWithType(ctx, govtest.Alice, params)
		assert.ErrorIs(t, err, domain.ErrInvalidProposalType)
	})

	t.Run("standard with mint call becomes mint-request", func(t *testing.T) {
		id, err := h.Governor.Propose(ctx, govtest.Alice,
			[]common.Address{h.Mint.Address()}, nil,
			[][]byte{pack(t, bindings.MethodCreateMintRequest, govtest.Carol, govtest.Tokens(1_000), "grant")},
			"mint for carol")
		require.NoError(t, err)
		view, err := h.Governor.Proposal(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ProposalTypeMintRequest, view.Type)
	})

	t.Run("duplicate", func(t *testing.T) {
		params := addCouncilParams(t, h, govtest.Bob, "duplicate")
		_, err := h.Governor.ProposeWithType(ctx, govtest.Alice, params)
		require.NoError(t, err)
		_, err = h.Governor.ProposeWithType(ctx, govtest.Alice, params)
		assert.ErrorIs(t, err, domain.ErrProposalAlreadyExists)
	})
}

func TestCastVote(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	id, err := h.Governor.ProposeWithType(ctx, govtest.Alice, addCouncilParams(t, h, govtest.Bob, "vote test"))
	require.NoError(t, err)

	_, err = h.Governor.CastVote(ctx, govtest.Alice, id, models.VoteFor, "")
	require.ErrorIs(t, err, domain.ErrUnexpectedProposalState, "voting is closed while pending")

	h.Clock.Mine(h.Config.Governor.VotingDelay + 1)
	require.Equal(t, models.ProposalStateActive, proposalState(t, h, id))

	// power moved after the snapshot does not count
	require.NoError(t, h.Ledger.Transfer(ctx, govtest.Alice, govtest.Bob, govtest.Tokens(10_000_000)))

	weight, err := h.Governor.CastVote(ctx, govtest.Bob, id, models.VoteAgainst, "no")
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(20_000_000), weight)

	weight, err = h.Governor.CastVote(ctx, govtest.Alice, id, models.VoteFor, "yes")
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(60_000_000), weight)

	_, err = h.Governor.CastVote(ctx, govtest.Carol, id, models.VoteAbstain, "")
	require.NoError(t, err)

	_, err = h.Governor.CastVote(ctx, govtest.Alice, id, models.VoteFor, "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	_, err = h.Governor.CastVote(ctx, govtest.Operator, id, models.VoteType(3), "")
	assert.ErrorIs(t, err, domain.ErrInvalidVoteType)

	votes, err := h.Governor.ProposalVotes(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(60_000_000), votes.For)
	assert.Equal(t, govtest.Tokens(20_000_000), votes.Against)
	assert.Equal(t, govtest.Tokens(2_000_000), votes.Abstain)

	voted, err := h.Governor.HasVoted(ctx, id, govtest.Carol)
	require.NoError(t, err)
	assert.True(t, voted)

	h.Clock.Mine(h.Config.Governor.VotingPeriod)
	assert.Equal(t, models.ProposalStateSucceeded, proposalState(t, h, id))

	_, err = h.Governor.CastVote(ctx, govtest.Operator, id, models.VoteFor, "")
	assert.ErrorIs(t, err, domain.ErrUnexpectedProposalState, "voting is closed after the period")
}

func TestProposalOutcome(t *testing.T) {
	tests := []struct {
		name     string
		votes    map[common.Address]models.VoteType
		expected models.ProposalState
	}{
		{
			name:     "no votes",
			votes:    map[common.Address]models.VoteType{},
			expected: models.ProposalStateDefeated,
		},
		{
			name:     "quorum not reached",
			votes:    map[common.Address]models.VoteType{govtest.Carol: models.VoteFor},
			expected: models.ProposalStateDefeated,
		},
		{
			name: "against wins",
			votes: map[common.Address]models.VoteType{
				govtest.Bob:   models.VoteFor,
				govtest.Alice: models.VoteAgainst,
			},
			expected: models.ProposalStateDefeated,
		},
		{
			name: "tie is defeated",
			votes: map[common.Address]models.VoteType{
				govtest.Alice: models.VoteAbstain,
			},
			expected: models.ProposalStateDefeated,
		},
		{
			name: "abstain counts toward quorum",
			votes: map[common.Address]models.VoteType{
				govtest.Carol: models.VoteFor,
				govtest.Alice: models.VoteAbstain,
			},
			expected: models.ProposalStateSucceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := govtest.New(t)
			fundVoters(t, h)

			id, err := h.Governor.ProposeWithType(ctx, govtest.Alice, addCouncilParams(t, h, govtest.Bob, tt.name))
			require.NoError(t, err)
			h.Clock.Mine(h.Config.Governor.VotingDelay + 1)
			for voter, support := range tt.votes {
				_, err := h.Governor.CastVote(ctx, voter, id, support, "")
				require.NoError(t, err)
			}
			h.Clock.Mine(h.Config.Governor.VotingPeriod)

			assert.Equal(t, tt.expected, proposalState(t, h, id))
			if tt.expected == models.ProposalStateDefeated {
				_, err = h.Governor.Queue(ctx, govtest.Alice, id)
				assert.ErrorIs(t, err, domain.ErrUnexpectedProposalState)
			}
		})
	}
}

func TestQuorumTiers(t *testing.T) {
	// Bob's 12M of a 100M supply clears the 10% tier but not the 15% tier
	tests := []struct {
		kind     models.ProposalType
		expected models.ProposalState
	}{
		{kind: models.ProposalTypeStandard, expected: models.ProposalStateSucceeded},
		{kind: models.ProposalTypeEmergency, expected: models.ProposalStateSucceeded},
		{kind: models.ProposalTypeUpgrade, expected: models.ProposalStateDefeated},
		{kind: models.ProposalTypeConstitutional, expected: models.ProposalStateDefeated},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			ctx := context.Background()
			h := govtest.New(t)
			h.Fund(t, govtest.Alice, 88_000_000)
			h.Fund(t, govtest.Bob, 12_000_000)

			params := addCouncilParams(t, h, govtest.Carol, tt.kind.String())
			params.Type = tt.kind
			id, err := h.Governor.ProposeWithType(ctx, govtest.Multisig, params)
			require.NoError(t, err)

			h.Clock.Mine(h.Config.Governor.VotingDelay + 1)
			_, err = h.Governor.CastVote(ctx, govtest.Bob, id, models.VoteFor, "")
			require.NoError(t, err)
			h.Clock.Mine(h.Config.Governor.VotingPeriod)

			assert.Equal(t, tt.expected, proposalState(t, h, id))

			quorum, err := h.Governor.ProposalQuorum(ctx, id)
			require.NoError(t, err)
			bps := h.Config.Governor.QuorumBps[tt.kind]
			want := new(big.Int).Div(new(big.Int).Mul(govtest.Tokens(100_000_000), new(big.Int).SetUint64(bps)), big.NewInt(10_000))
			if floor := h.Governor.QuorumPolicy().MinimumQuorum(); want.Cmp(floor) < 0 {
				want = floor
			}
			assert.Equal(t, want, quorum)
		})
	}
}

func TestQuorumPolicyOrdering(t *testing.T) {
	h := govtest.New(t)
	policy := h.Governor.QuorumPolicy()
	ordered := []models.ProposalType{
		models.ProposalTypeStandard,
		models.ProposalTypeEmergency,
		models.ProposalTypeUpgrade,
		models.ProposalTypeConstitutional,
	}

	for _, supply := range []int64{0, 1, 50_000_000, 250_000_000, 1_000_000_000} {
		s := govtest.Tokens(supply)
		for i := range ordered {
			q := policy.Quorum(ordered[i], s)
			assert.True(t, q.Cmp(policy.MinimumQuorum()) >= 0, "quorum never below the floor")
			if i > 0 {
				prev := policy.Quorum(ordered[i-1], s)
				assert.True(t, prev.Cmp(q) <= 0, "%s quorum above %s at supply %d", ordered[i-1], ordered[i], supply)
			}
		}
	}

	assert.Equal(t, govtest.Tokens(10_000_000), policy.MinimumQuorum())
	assert.Equal(t, govtest.Tokens(200_000_000), policy.Quorum(models.ProposalTypeConstitutional, govtest.Tokens(1_000_000_000)))
}

func TestProposalQuorumWhilePending(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	id, err := h.Governor.ProposeWithType(ctx, govtest.Alice, addCouncilParams(t, h, govtest.Bob, "pending quorum"))
	require.NoError(t, err)

	_, err = h.Governor.ProposalQuorum(ctx, id)
	assert.ErrorIs(t, err, domain.ErrFutureLookup)
}

func TestCancelProposal(t *testing.T) {
	type setup func(t *testing.T, h *govtest.Harness, id common.Hash)

	toActive := func(t *testing.T, h *govtest.Harness, id common.Hash) {
		h.Clock.Mine(h.Config.Governor.VotingDelay + 1)
	}
	toQueued := func(t *testing.T, h *govtest.Harness, id common.Hash) {
		ctx := context.Background()
		h.Clock.Mine(h.Config.Governor.VotingDelay + 1)
		_, err := h.Governor.CastVote(ctx, govtest.Alice, id, models.VoteFor, "")
		require.NoError(t, err)
		h.Clock.Mine(h.Config.Governor.VotingPeriod)
		_, err = h.Governor.Queue(ctx, govtest.Alice, id)
		require.NoError(t, err)
	}
	toExecuted := func(t *testing.T, h *govtest.Harness, id common.Hash) {
		toQueued(t, h, id)
		h.Clock.Advance(2 * 24 * time.Hour)
		require.NoError(t, h.Governor.Execute(context.Background(), govtest.Executor, id))
	}

	tests := []struct {
		name      string
		setup     setup
		caller    common.Address
		expectErr error
	}{
		{name: "proposer while pending", caller: govtest.Alice},
		{name: "proposer while active", setup: toActive, caller: govtest.Alice, expectErr: domain.ErrUnexpectedProposalState},
		{name: "stranger while pending", caller: govtest.Bob, expectErr: domain.ErrUnauthorizedCancellation},
		{name: "council while pending", caller: govtest.Council},
		{name: "council while active", setup: toActive, caller: govtest.Council},
		{name: "council while queued", setup: toQueued, caller: govtest.Council},
		{name: "council after execution", setup: toExecuted, caller: govtest.Council, expectErr: domain.ErrUnexpectedProposalState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := govtest.New(t)
			fundVoters(t, h)

			id, err := h.Governor.ProposeWithType(ctx, govtest.Alice, addCouncilParams(t, h, govtest.Bob, tt.name))
			require.NoError(t, err)
			if tt.setup != nil {
				tt.setup(t, h, id)
			}

			err = h.Governor.Cancel(ctx, tt.caller, id)
			if tt.expectErr != nil {
				require.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.ProposalStateCanceled, proposalState(t, h, id))

			view, err := h.Governor.Proposal(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.caller, view.CanceledBy)
			if view.Queued() {
				op, err := h.Timelock.Operation(ctx, view.TimelockID)
				require.NoError(t, err)
				assert.True(t, op.Canceled, "queued operation is cancelled with the proposal")
			}

			err = h.Governor.Cancel(ctx, tt.caller, id)
			assert.ErrorIs(t, err, domain.ErrAlreadyCanceled)
		})
	}
}

func TestQueuedProposalExpires(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	id := h.PassProposal(t, govtest.Alice, addCouncilParams(t, h, govtest.Bob, "expires"), govtest.Alice)
	_, err := h.Governor.Queue(ctx, govtest.Alice, id)
	require.NoError(t, err)

	h.Clock.Advance(2*24*time.Hour + h.Config.Governor.GracePeriod)
	assert.Equal(t, models.ProposalStateQueued, proposalState(t, h, id), "grace period end is inclusive")

	h.Clock.Advance(time.Second)
	assert.Equal(t, models.ProposalStateExpired, proposalState(t, h, id))

	err = h.Governor.Execute(ctx, govtest.Executor, id)
	assert.ErrorIs(t, err, domain.ErrUnexpectedProposalState)

	err = h.Governor.Cancel(ctx, govtest.Council, id)
	assert.ErrorIs(t, err, domain.ErrUnexpectedProposalState)

	// the timelock enforces the same deadline on the queued operation
	view, err := h.Governor.Proposal(ctx, id)
	require.NoError(t, err)
	err = h.Timelock.ExecuteByID(ctx, govtest.Executor, view.TimelockID)
	assert.ErrorIs(t, err, domain.ErrOperationExpired)
	assert.ErrorIs(t, err, domain.ErrExpired)

	member, err := h.Governor.IsCouncilMember(ctx, govtest.Bob)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, models.ProposalStateExpired, proposalState(t, h, id))
}

func TestQueuedProposalExecutedThroughTimelock(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	id := h.PassProposal(t, govtest.Alice, addCouncilParams(t, h, govtest.Bob, "direct"), govtest.Alice)
	_, err := h.Governor.Queue(ctx, govtest.Alice, id)
	require.NoError(t, err)
	h.Clock.Advance(2 * 24 * time.Hour)

	view, err := h.Governor.Proposal(ctx, id)
	require.NoError(t, err)
	require.NoError(t, h.Timelock.ExecuteByID(ctx, govtest.Executor, view.TimelockID))

	assert.Equal(t, models.ProposalStateExecuted, proposalState(t, h, id))
	member, err := h.Governor.IsCouncilMember(ctx, govtest.Bob)
	require.NoError(t, err)
	assert.True(t, member)

	err = h.Governor.Execute(ctx, govtest.Executor, id)
	assert.ErrorIs(t, err, domain.ErrUnexpectedProposalState)
	err = h.Governor.Cancel(ctx, govtest.Council, id)
	assert.Error(t, err, "executed proposals cannot be cancelled")
}

func TestFailedExecutionRollsBack(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	// Council is already a member, so the call reverts
	id := h.PassProposal(t, govtest.Alice, addCouncilParams(t, h, govtest.Council, "re-add council"), govtest.Alice)
	_, err := h.Governor.Queue(ctx, govtest.Alice, id)
	require.NoError(t, err)
	h.Clock.Advance(2 * 24 * time.Hour)
	h.Events.Reset()

	err = h.Governor.Execute(ctx, govtest.Executor, id)
	require.ErrorIs(t, err, domain.ErrAlreadyCouncilMember)

	assert.Equal(t, models.ProposalStateQueued, proposalState(t, h, id))
	view, err := h.Governor.Proposal(ctx, id)
	require.NoError(t, err)
	op, err := h.Timelock.Operation(ctx, view.TimelockID)
	require.NoError(t, err)
	assert.False(t, op.Done)

	remaining, err := h.Executors.RemainingExecutions(ctx, govtest.Executor)
	require.NoError(t, err)
	assert.Equal(t, h.Config.Executors.DailyLimit, remaining, "usage is not recorded for a failed execution")
	assert.Empty(t, h.Events.Events(), "no events escape a rolled back transaction")
}

func TestEmergencyProposal(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	params := addCouncilParams(t, h, govtest.Bob, "emergency council change")
	params.Type = models.ProposalTypeEmergency
	id, err := h.Governor.ProposeWithType(ctx, govtest.Multisig, params)
	require.NoError(t, err)

	view, err := h.Governor.Proposal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, h.Config.Governor.EmergencyVotingPeriod, view.VoteEnd-view.VoteStart)

	h.Clock.Mine(h.Config.Governor.VotingDelay + 1)
	_, err = h.Governor.CastVote(ctx, govtest.Alice, id, models.VoteFor, "")
	require.NoError(t, err)
	h.Clock.Mine(h.Config.Governor.EmergencyVotingPeriod)
	require.Equal(t, models.ProposalStateSucceeded, proposalState(t, h, id))

	eta, err := h.Governor.Queue(ctx, govtest.Multisig, id)
	require.NoError(t, err)
	assert.Equal(t, h.Clock.Now().Add(6*time.Hour), eta)

	h.Clock.Advance(6 * time.Hour)
	require.NoError(t, h.Governor.Execute(ctx, govtest.Executor, id))
}

func TestMintRequestThroughGovernance(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	params := usecase.ProposeParams{
		Targets:     []common.Address{h.Mint.Address()},
		Calldatas:   [][]byte{pack(t, bindings.MethodCreateMintRequest, govtest.Carol, govtest.Tokens(1_000_000), "ecosystem grant")},
		Description: "grant for carol",
	}
	id := h.PassProposal(t, govtest.Alice, params, govtest.Alice)
	_, err := h.Governor.Queue(ctx, govtest.Alice, id)
	require.NoError(t, err)
	h.Clock.Advance(2 * 24 * time.Hour)
	require.NoError(t, h.Governor.Execute(ctx, govtest.Executor, id))

	req, err := h.Mint.MintRequest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, govtest.Carol, req.Recipient)
	assert.Equal(t, govtest.Tokens(1_000_000), req.Amount)
	assert.Equal(t, h.Timelock.Address(), req.RequestedBy)
	assert.Equal(t, uint64(1), req.Period)
}

func TestListProposals(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	fundVoters(t, h)

	_, err := h.Governor.ProposeWithType(ctx, govtest.Alice, addCouncilParams(t, h, govtest.Bob, "first"))
	require.NoError(t, err)
	h.Clock.Mine(1)
	params := addCouncilParams(t, h, govtest.Carol, "second")
	params.Type = models.ProposalTypeEmergency
	second, err := h.Governor.ProposeWithType(ctx, govtest.Multisig, params)
	require.NoError(t, err)
	require.NoError(t, h.Governor.Cancel(ctx, govtest.Multisig, second))

	all, err := h.Governor.ListProposals(ctx, domain.ProposalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Description)

	emergency := models.ProposalTypeEmergency
	filtered, err := h.Governor.ListProposals(ctx, domain.ProposalFilter{Type: &emergency})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, second, filtered[0].ID)

	canceled, err := h.Governor.ListProposals(ctx, domain.ProposalFilter{State: models.ProposalStateCanceled})
	require.NoError(t, err)
	require.Len(t, canceled, 1)

	byAlice, err := h.Governor.ListProposals(ctx, domain.ProposalFilter{Proposer: govtest.Alice})
	require.NoError(t, err)
	require.Len(t, byAlice, 1)
}
