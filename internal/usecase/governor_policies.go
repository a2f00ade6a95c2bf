package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// QuorumPolicy computes the participation a proposal needs, per proposal type
type QuorumPolicy struct {
	bps       map[models.ProposalType]uint64
	minBps    uint64
	reference *big.Int
}

// NewQuorumPolicy creates a QuorumPolicy from the governor configuration
func NewQuorumPolicy(cfg config.GovernorConfig) QuorumPolicy {
	bps := make(map[models.ProposalType]uint64, len(cfg.QuorumBps))
	for t, v := range cfg.QuorumBps {
		bps[t] = v
	}
	ref := new(big.Int)
	if cfg.QuorumReferenceSupply != nil {
		ref.Set(cfg.QuorumReferenceSupply)
	}
	return QuorumPolicy{bps: bps, minBps: cfg.MinQuorumBps, reference: ref}
}

// Bps returns the quorum basis points of a proposal type
func (q QuorumPolicy) Bps(t models.ProposalType) uint64 {
	return q.bps[t]
}

// MinimumQuorum is the floor applied to every quorum so a near-empty supply
// cannot be governed by a handful of tokens
func (q QuorumPolicy) MinimumQuorum() *big.Int {
	return mulBps(q.reference, q.minBps)
}

// Quorum returns max(supply * bps(t), MinimumQuorum)
func (q QuorumPolicy) Quorum(t models.ProposalType, supply *big.Int) *big.Int {
	quorum := mulBps(supply, q.bps[t])
	if floor := q.MinimumQuorum(); quorum.Cmp(floor) < 0 {
		return floor
	}
	return quorum
}

// Reached reports whether votes meet the quorum
func (q QuorumPolicy) Reached(t models.ProposalType, supply *big.Int, votes models.ProposalVotes) bool {
	return votes.Participation().Cmp(q.Quorum(t, supply)) >= 0
}

func mulBps(amount *big.Int, bps uint64) *big.Int {
	v := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return v.Div(v, big.NewInt(config.BasisPoints))
}

// ProposalAuthorizer decides who may submit each proposal type
type ProposalAuthorizer struct {
	votes        VotesSource
	thresholdBps uint64
	multisig     common.Address
}

// NewProposalAuthorizer creates a ProposalAuthorizer
func NewProposalAuthorizer(cfg config.GovernorConfig, votes VotesSource) ProposalAuthorizer {
	return ProposalAuthorizer{
		votes:        votes,
		thresholdBps: cfg.ProposalThresholdBps,
		multisig:     cfg.PrivilegedMultisig,
	}
}

// IsPrivileged reports whether account is the privileged multisig
func (a ProposalAuthorizer) IsPrivileged(account common.Address) bool {
	return a.multisig != (common.Address{}) && account == a.multisig
}

// Threshold returns the voting power needed to propose, measured at block
func (a ProposalAuthorizer) Threshold(ctx context.Context, block uint64) (*big.Int, error) {
	supply, err := a.votes.GetPastTotalSupply(ctx, block)
	if err != nil {
		return nil, err
	}
	return mulBps(supply, a.thresholdBps), nil
}

// Authorize checks that proposer may submit a proposal of type t. Voting
// power is measured at the block before the current one.
func (a ProposalAuthorizer) Authorize(ctx context.Context, proposer common.Address, t models.ProposalType, currentBlock uint64) error {
	privileged := a.IsPrivileged(proposer)
	switch t {
	case models.ProposalTypeEmergency, models.ProposalTypeUpgrade, models.ProposalTypeConstitutional:
		if !privileged {
			return &domain.UnauthorizedError{Account: proposer, Capability: "privileged multisig for " + t.String() + " proposals"}
		}
		return nil
	case models.ProposalTypeStandard, models.ProposalTypeMintRequest:
		if privileged {
			return nil
		}
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidProposalType, t)
	}

	if currentBlock == 0 {
		return fmt.Errorf("%w: no block before genesis", domain.ErrInsufficientVotingPower)
	}
	block := currentBlock - 1
	threshold, err := a.Threshold(ctx, block)
	if err != nil {
		return err
	}
	power, err := a.votes.GetPastVotes(ctx, proposer, block)
	if err != nil {
		return err
	}
	if power.Cmp(threshold) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", domain.ErrInsufficientVotingPower, proposer.Hex(), power, threshold)
	}
	return nil
}

// CancellationPolicy decides who may cancel a proposal in which state. The
// proposer may cancel only while voting has not started; a security council
// member may cancel anything not yet executed or expired.
type CancellationPolicy struct{}

// Authorize checks a cancellation of p, currently in state, by caller
func (CancellationPolicy) Authorize(caller common.Address, p *models.Proposal, state models.ProposalState, isCouncil bool) error {
	isProposer := caller == p.Proposer
	if !isCouncil && !isProposer {
		return fmt.Errorf("%w: %s is neither proposer nor council member", domain.ErrUnauthorizedCancellation, caller.Hex())
	}
	if p.Canceled {
		return fmt.Errorf("proposal %s: %w", p.ID.Hex(), domain.ErrAlreadyCanceled)
	}
	if isCouncil {
		if state == models.ProposalStateExecuted || state == models.ProposalStateExpired {
			return &domain.ProposalStateError{
				ProposalID: p.ID,
				Current:    string(state),
				Expected:   []string{"pending", "active", "succeeded", "defeated", "queued"},
			}
		}
		return nil
	}
	if state != models.ProposalStatePending {
		return &domain.ProposalStateError{ProposalID: p.ID, Current: string(state), Expected: []string{"pending"}}
	}
	return nil
}
