package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// ProposalGovernor runs the typed proposal lifecycle: propose, vote, queue
// into the timelock and execute. Quorum, proposal authorization and
// cancellation rules are delegated to policy objects.
type ProposalGovernor struct {
	address      common.Address
	cfg          config.GovernorConfig
	store        StateStore
	roles        RoleManager
	votes        VotesSource
	timelock     *TimelockController
	clock        Clock
	events       EventSink
	log          *slog.Logger
	quorum       QuorumPolicy
	authorizer   ProposalAuthorizer
	cancellation CancellationPolicy
}

// NewProposalGovernor creates a new ProposalGovernor and registers it as the
// call target for council membership changes
func NewProposalGovernor(
	cfg *config.GovernanceConfig,
	store StateStore,
	roles RoleManager,
	votes VotesSource,
	timelock *TimelockController,
	router *CallRouter,
	clock Clock,
	events EventSink,
	log *slog.Logger,
) *ProposalGovernor {
	g := &ProposalGovernor{
		address:    cfg.Governor.Address,
		cfg:        cfg.Governor,
		store:      store,
		roles:      roles,
		votes:      votes,
		timelock:   timelock,
		clock:      clock,
		events:     events,
		log:        log.With("component", "ProposalGovernor"),
		quorum:     NewQuorumPolicy(cfg.Governor),
		authorizer: NewProposalAuthorizer(cfg.Governor, votes),
	}
	router.Register(g.address, g)
	return g
}

// Address returns the governor address
func (g *ProposalGovernor) Address() common.Address {
	return g.address
}

// Name returns the configured governor name
func (g *ProposalGovernor) Name() string {
	return g.cfg.Name
}

// QuorumPolicy returns the quorum strategy in use
func (g *ProposalGovernor) QuorumPolicy() QuorumPolicy {
	return g.quorum
}

// ProposeParams contains parameters for submitting a proposal
type ProposeParams struct {
	Targets     []common.Address
	Values      []*big.Int
	Calldatas   [][]byte
	Description string
	Type        models.ProposalType
}

func (g *ProposalGovernor) validateOperations(params *ProposeParams) error {
	n := len(params.Targets)
	if n == 0 {
		return domain.ErrEmptyProposal
	}
	if n > g.cfg.MaxOperations {
		return fmt.Errorf("%w: %d exceeds %d", domain.ErrTooManyOperations, n, g.cfg.MaxOperations)
	}
	if params.Values == nil {
		params.Values = make([]*big.Int, n)
	}
	if len(params.Values) != n || len(params.Calldatas) != n {
		return fmt.Errorf("%w: targets=%d values=%d calldatas=%d",
			domain.ErrInvalidProposalLength, n, len(params.Values), len(params.Calldatas))
	}
	for i, v := range params.Values {
		if v == nil {
			params.Values[i] = new(big.Int)
		}
	}
	return nil
}

// ResolveProposalType returns the effective type of a proposal: Standard
// proposals carrying a mint-request call become MintRequest proposals, and a
// MintRequest proposal must carry one
func ResolveProposalType(requested models.ProposalType, calldatas [][]byte) (models.ProposalType, error) {
	if !requested.Valid() {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidProposalType, uint8(requested))
	}
	hasMint := lo.SomeBy(calldatas, bindings.IsMintRequestCall)
	switch {
	case requested == models.ProposalTypeStandard && hasMint:
		return models.ProposalTypeMintRequest, nil
	case requested == models.ProposalTypeMintRequest && !hasMint:
		return 0, fmt.Errorf("%w: mint-request proposal without a mint request call", domain.ErrInvalidProposalType)
	}
	return requested, nil
}

// Propose submits a Standard proposal
func (g *ProposalGovernor) Propose(ctx context.Context, caller common.Address, targets []common.Address, values []*big.Int, calldatas [][]byte, description string) (common.Hash, error) {
	return g.ProposeWithType(ctx, caller, ProposeParams{
		Targets:     targets,
		Values:      values,
		Calldatas:   calldatas,
		Description: description,
		Type:        models.ProposalTypeStandard,
	})
}

// ProposeWithType submits a typed proposal and returns its id
func (g *ProposalGovernor) ProposeWithType(ctx context.Context, caller common.Address, params ProposeParams) (common.Hash, error) {
	if err := g.validateOperations(&params); err != nil {
		return common.Hash{}, err
	}
	kind, err := ResolveProposalType(params.Type, params.Calldatas)
	if err != nil {
		return common.Hash{}, err
	}

	descriptionHash := bindings.HashDescription(params.Description)
	id, err := bindings.HashProposal(params.Targets, params.Values, params.Calldatas, descriptionHash)
	if err != nil {
		return common.Hash{}, err
	}

	err = g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		block := g.clock.BlockNumber()
		if err := g.authorizer.Authorize(ctx, caller, kind, block); err != nil {
			return err
		}
		if _, exists := st.Proposals[id]; exists {
			return fmt.Errorf("%w: %s", domain.ErrProposalAlreadyExists, id.Hex())
		}

		period := g.cfg.VotingPeriod
		if kind == models.ProposalTypeEmergency && g.cfg.EmergencyVotingPeriod > 0 {
			period = g.cfg.EmergencyVotingPeriod
		}
		start := block + g.cfg.VotingDelay
		p := &models.Proposal{
			ID:              id,
			Type:            kind,
			Proposer:        caller,
			Targets:         params.Targets,
			Values:          params.Values,
			Calldatas:       params.Calldatas,
			Description:     params.Description,
			DescriptionHash: descriptionHash,
			VoteStart:       start,
			VoteEnd:         start + period,
			Votes:           models.NewProposalVotes(),
			Receipts:        make(map[common.Address]*models.Receipt),
			CreatedAt:       g.clock.Now(),
		}
		st.Proposals[id] = p

		g.log.Info("proposal created",
			"id", id.Hex(),
			"type", kind.String(),
			"proposer", caller.Hex(),
			"operations", len(params.Targets),
			"voteStart", p.VoteStart,
			"voteEnd", p.VoteEnd)
		publish(ctx, g.store, g.events, &domain.ProposalCreatedEvent{
			ProposalID: id,
			Proposer:   caller,
			Type:       kind,
			VoteStart:  p.VoteStart,
			VoteEnd:    p.VoteEnd,
		})
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	return id, nil
}

// stateOf derives the proposal state at the clock's current time and block.
// A queued proposal follows its timelock operation once that is done or canceled.
func (g *ProposalGovernor) stateOf(ctx context.Context, st *models.State, p *models.Proposal) (models.ProposalState, error) {
	switch {
	case p.Executed:
		return models.ProposalStateExecuted, nil
	case p.Canceled:
		return models.ProposalStateCanceled, nil
	}
	if op, ok := st.Timelock[p.TimelockID]; ok && p.Queued() {
		switch {
		case op.Done:
			return models.ProposalStateExecuted, nil
		case op.Canceled:
			return models.ProposalStateCanceled, nil
		}
	}
	block := g.clock.BlockNumber()
	if block <= p.VoteStart {
		return models.ProposalStatePending, nil
	}
	if block <= p.VoteEnd {
		return models.ProposalStateActive, nil
	}

	supply, err := g.votes.GetPastTotalSupply(ctx, p.Snapshot())
	if err != nil {
		return "", fmt.Errorf("failed to read supply at snapshot %d: %w", p.Snapshot(), err)
	}
	if !g.quorum.Reached(p.Type, supply, p.Votes) || p.Votes.For.Cmp(p.Votes.Against) <= 0 {
		return models.ProposalStateDefeated, nil
	}
	if !p.Queued() {
		return models.ProposalStateSucceeded, nil
	}
	if g.clock.Now().After(p.ETA.Add(g.cfg.GracePeriod)) {
		return models.ProposalStateExpired, nil
	}
	return models.ProposalStateQueued, nil
}

func (g *ProposalGovernor) requireState(ctx context.Context, st *models.State, p *models.Proposal, allowed ...models.ProposalState) (models.ProposalState, error) {
	state, err := g.stateOf(ctx, st, p)
	if err != nil {
		return "", err
	}
	if !lo.Contains(allowed, state) {
		return state, &domain.ProposalStateError{
			ProposalID: p.ID,
			Current:    string(state),
			Expected:   lo.Map(allowed, func(s models.ProposalState, _ int) string { return string(s) }),
		}
	}
	return state, nil
}

func proposalIn(st *models.State, id common.Hash) (*models.Proposal, error) {
	p, ok := st.Proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProposalNotFound, id.Hex())
	}
	return p, nil
}

// State returns the derived state of a proposal
func (g *ProposalGovernor) State(ctx context.Context, id common.Hash) (models.ProposalState, error) {
	var state models.ProposalState
	err := g.store.View(ctx, func(st *models.State) error {
		p, err := proposalIn(st, id)
		if err != nil {
			return err
		}
		state, err = g.stateOf(ctx, st, p)
		return err
	})
	return state, err
}

// CastVote records a ballot weighted by the voter's power at the snapshot
func (g *ProposalGovernor) CastVote(ctx context.Context, voter common.Address, id common.Hash, support models.VoteType, reason string) (*big.Int, error) {
	if support > models.VoteAbstain {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidVoteType, support)
	}
	var weight *big.Int
	err := g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		p, err := proposalIn(st, id)
		if err != nil {
			return err
		}
		if _, err := g.requireState(ctx, st, p, models.ProposalStateActive); err != nil {
			return err
		}
		if _, voted := p.Receipts[voter]; voted {
			return fmt.Errorf("%w: %s on %s", domain.ErrAlreadyVoted, voter.Hex(), id.Hex())
		}
		weight, err = g.votes.GetPastVotes(ctx, voter, p.Snapshot())
		if err != nil {
			return err
		}

		switch support {
		case models.VoteFor:
			p.Votes.For = new(big.Int).Add(p.Votes.For, weight)
		case models.VoteAgainst:
			p.Votes.Against = new(big.Int).Add(p.Votes.Against, weight)
		case models.VoteAbstain:
			p.Votes.Abstain = new(big.Int).Add(p.Votes.Abstain, weight)
		}
		p.Receipts[voter] = &models.Receipt{
			Support: support,
			Weight:  new(big.Int).Set(weight),
			Reason:  reason,
			CastAt:  g.clock.Now(),
		}

		g.log.Info("vote cast", "id", id.Hex(), "voter", voter.Hex(), "support", support.String(), "weight", weight)
		publish(ctx, g.store, g.events, &domain.VoteCastEvent{
			ProposalID: id,
			Voter:      voter,
			Support:    support,
			Weight:     new(big.Int).Set(weight),
			Reason:     reason,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return weight, nil
}

// TimelockSalt derives the timelock salt of a proposal: the governor address
// left-aligned in 32 bytes, xor the description hash
func (g *ProposalGovernor) TimelockSalt(descriptionHash common.Hash) common.Hash {
	var salt common.Hash
	copy(salt[:common.AddressLength], g.address.Bytes())
	for i := range salt {
		salt[i] ^= descriptionHash[i]
	}
	return salt
}

// Queue schedules a succeeded proposal in the timelock with its type's delay
func (g *ProposalGovernor) Queue(ctx context.Context, caller common.Address, id common.Hash) (time.Time, error) {
	var eta time.Time
	err := g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		p, err := proposalIn(st, id)
		if err != nil {
			return err
		}
		if _, err := g.requireState(ctx, st, p, models.ProposalStateSucceeded); err != nil {
			return err
		}
		delay := g.cfg.ExecutionDelay[p.Type]
		opID, err := g.timelock.ScheduleBatchWithGrace(ctx, g.address, p.Calls(), common.Hash{}, g.TimelockSalt(p.DescriptionHash), delay, g.cfg.GracePeriod)
		if err != nil {
			return fmt.Errorf("failed to queue proposal %s: %w", id.Hex(), err)
		}
		eta = g.clock.Now().Add(delay)
		p.TimelockID = opID
		p.ETA = eta

		g.log.Info("proposal queued", "id", id.Hex(), "operation", opID.Hex(), "eta", eta)
		publish(ctx, g.store, g.events, &domain.ProposalTransitionEvent{
			Type:       domain.EventTypeProposalQueued,
			ProposalID: id,
			Actor:      caller,
		})
		return nil
	})
	return eta, err
}

// Execute runs a queued proposal through the timelock. The caller must be an
// allow-listed executor; any failing call fails the whole execution.
func (g *ProposalGovernor) Execute(ctx context.Context, caller common.Address, id common.Hash) error {
	return g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		p, err := proposalIn(st, id)
		if err != nil {
			return err
		}
		if _, err := g.requireState(ctx, st, p, models.ProposalStateQueued); err != nil {
			return err
		}
		now := g.clock.Now()
		p.Executed = true
		p.ExecutedAt = &now

		if err := g.timelock.ExecuteBatch(ctx, caller, p.Calls(), common.Hash{}, g.TimelockSalt(p.DescriptionHash)); err != nil {
			return fmt.Errorf("failed to execute proposal %s: %w", id.Hex(), err)
		}
		g.log.Info("proposal executed", "id", id.Hex(), "executor", caller.Hex())
		publish(ctx, g.store, g.events, &domain.ProposalTransitionEvent{
			Type:       domain.EventTypeProposalExecuted,
			ProposalID: id,
			Actor:      caller,
		})
		return nil
	})
}

// Cancel cancels a proposal. The proposer may cancel while Pending; a
// security council member may cancel any proposal not yet executed or
// expired. A queued proposal's timelock operation is cancelled with it.
func (g *ProposalGovernor) Cancel(ctx context.Context, caller common.Address, id common.Hash) error {
	return g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		p, err := proposalIn(st, id)
		if err != nil {
			return err
		}
		state, err := g.stateOf(ctx, st, p)
		if err != nil {
			return err
		}
		_, isCouncil := st.Council[caller]
		if err := g.cancellation.Authorize(caller, p, state, isCouncil); err != nil {
			return err
		}

		now := g.clock.Now()
		p.Canceled = true
		p.CanceledAt = &now
		p.CanceledBy = caller

		if p.Queued() {
			if op, ok := st.Timelock[p.TimelockID]; ok && !op.Done && !op.Canceled {
				if err := g.timelock.Cancel(ctx, g.address, p.TimelockID); err != nil {
					return fmt.Errorf("failed to cancel timelock operation of %s: %w", id.Hex(), err)
				}
			}
		}

		path := "proposer"
		if isCouncil {
			path = "council"
		}
		g.log.Info("proposal cancelled", "id", id.Hex(), "by", caller.Hex(), "path", path, "state", string(state))
		publish(ctx, g.store, g.events, &domain.ProposalTransitionEvent{
			Type:       domain.EventTypeProposalCanceled,
			ProposalID: id,
			Actor:      caller,
		})
		return nil
	})
}

// ProposalQuorum returns the quorum of a proposal at its snapshot
func (g *ProposalGovernor) ProposalQuorum(ctx context.Context, id common.Hash) (*big.Int, error) {
	var quorum *big.Int
	err := g.store.View(ctx, func(st *models.State) error {
		p, ok := st.Proposals[id]
		if !ok || p.Snapshot() == 0 {
			return fmt.Errorf("%w: %s", domain.ErrProposalNotFound, id.Hex())
		}
		supply, err := g.votes.GetPastTotalSupply(ctx, p.Snapshot())
		if err != nil {
			return err
		}
		quorum = g.quorum.Quorum(p.Type, supply)
		return nil
	})
	return quorum, err
}

// ProposalThreshold returns the voting power currently needed to propose
func (g *ProposalGovernor) ProposalThreshold(ctx context.Context) (*big.Int, error) {
	block := g.clock.BlockNumber()
	if block == 0 {
		return new(big.Int), nil
	}
	return g.authorizer.Threshold(ctx, block-1)
}

// ProposalVotes returns the tallies of a proposal
func (g *ProposalGovernor) ProposalVotes(ctx context.Context, id common.Hash) (models.ProposalVotes, error) {
	var votes models.ProposalVotes
	err := g.store.View(ctx, func(st *models.State) error {
		p, err := proposalIn(st, id)
		if err != nil {
			return err
		}
		votes = models.ProposalVotes{
			For:     new(big.Int).Set(p.Votes.For),
			Against: new(big.Int).Set(p.Votes.Against),
			Abstain: new(big.Int).Set(p.Votes.Abstain),
		}
		return nil
	})
	return votes, err
}

// HasVoted reports whether account voted on a proposal
func (g *ProposalGovernor) HasVoted(ctx context.Context, id common.Hash, account common.Address) (bool, error) {
	var voted bool
	err := g.store.View(ctx, func(st *models.State) error {
		p, err := proposalIn(st, id)
		if err != nil {
			return err
		}
		_, voted = p.Receipts[account]
		return nil
	})
	return voted, err
}

// ProposalView is a proposal together with its derived state
type ProposalView struct {
	*models.Proposal
	State models.ProposalState `json:"state"`
}

// Proposal returns a proposal and its state
func (g *ProposalGovernor) Proposal(ctx context.Context, id common.Hash) (*ProposalView, error) {
	var view *ProposalView
	err := g.store.View(ctx, func(st *models.State) error {
		p, err := proposalIn(st, id)
		if err != nil {
			return err
		}
		state, err := g.stateOf(ctx, st, p)
		if err != nil {
			return err
		}
		cp := *p
		view = &ProposalView{Proposal: &cp, State: state}
		return nil
	})
	return view, err
}

// ListProposals returns proposals matching filter ordered by creation time
func (g *ProposalGovernor) ListProposals(ctx context.Context, filter domain.ProposalFilter) ([]*ProposalView, error) {
	var views []*ProposalView
	err := g.store.View(ctx, func(st *models.State) error {
		for _, p := range st.SortedProposals() {
			if filter.Type != nil && p.Type != *filter.Type {
				continue
			}
			if filter.Proposer != (common.Address{}) && p.Proposer != filter.Proposer {
				continue
			}
			state, err := g.stateOf(ctx, st, p)
			if err != nil {
				return err
			}
			if filter.State != "" && state != filter.State {
				continue
			}
			cp := *p
			views = append(views, &ProposalView{Proposal: &cp, State: state})
		}
		return nil
	})
	return views, err
}

// AddCouncilMember adds a security council member
func (g *ProposalGovernor) AddCouncilMember(ctx context.Context, caller, member common.Address) error {
	if err := requireRole(ctx, g.roles, domain.RoleGovernance, caller); err != nil {
		return err
	}
	if member == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	return g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if _, ok := st.Council[member]; ok {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyCouncilMember, member.Hex())
		}
		st.Council[member] = g.clock.Now()
		g.log.Info("council member added", "member", member.Hex(), "by", caller.Hex())
		publish(ctx, g.store, g.events, &domain.CouncilMemberChangedEvent{Member: member, Added: true, Actor: caller})
		return nil
	})
}

// RemoveCouncilMember removes a security council member
func (g *ProposalGovernor) RemoveCouncilMember(ctx context.Context, caller, member common.Address) error {
	if err := requireRole(ctx, g.roles, domain.RoleGovernance, caller); err != nil {
		return err
	}
	return g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if _, ok := st.Council[member]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrNotCouncilMember, member.Hex())
		}
		delete(st.Council, member)
		g.log.Info("council member removed", "member", member.Hex(), "by", caller.Hex())
		publish(ctx, g.store, g.events, &domain.CouncilMemberChangedEvent{Member: member, Added: false, Actor: caller})
		return nil
	})
}

// IsCouncilMember reports whether account sits on the security council
func (g *ProposalGovernor) IsCouncilMember(ctx context.Context, account common.Address) (bool, error) {
	var member bool
	err := g.store.View(ctx, func(st *models.State) error {
		_, member = st.Council[account]
		return nil
	})
	return member, err
}

// CouncilMember is a council address and the time it joined
type CouncilMember struct {
	Address common.Address
	Since   time.Time
}

// CouncilMembers lists the security council
func (g *ProposalGovernor) CouncilMembers(ctx context.Context) ([]CouncilMember, error) {
	var members []CouncilMember
	err := g.store.View(ctx, func(st *models.State) error {
		for addr, since := range st.Council {
			members = append(members, CouncilMember{Address: addr, Since: since})
		}
		return nil
	})
	sort.Slice(members, func(i, j int) bool { return members[i].Since.Before(members[j].Since) })
	return members, err
}

// HandleCall executes a governance call addressed to the governor
func (g *ProposalGovernor) HandleCall(ctx context.Context, sender common.Address, value *big.Int, data []byte) error {
	call, err := decodeCall(value, data)
	if err != nil {
		return err
	}
	switch call.Method {
	case bindings.MethodAddCouncilMember, bindings.MethodRemoveCouncilMember:
		member, err := call.Address("member")
		if err != nil {
			return err
		}
		if call.Method == bindings.MethodAddCouncilMember {
			return g.AddCouncilMember(ctx, sender, member)
		}
		return g.RemoveCouncilMember(ctx, sender, member)
	default:
		return fmt.Errorf("%w: %s on governor", domain.ErrUnknownSelector, call.Method)
	}
}
