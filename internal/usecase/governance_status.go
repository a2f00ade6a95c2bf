package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// GovernanceSummary is a point-in-time overview of every component
type GovernanceSummary struct {
	Initialized   bool
	Now           time.Time
	Block         uint64
	Proposals     map[models.ProposalState]int
	Upgrades      map[models.UpgradeAuthorityKind]map[models.UpgradeStatus]int
	MintRequests  map[models.MintRequestStatus]int
	PendingOps    int
	CurrentPeriod uint64
	Supply        *SupplyStatus
	Executors     int
	Frozen        bool
	Council       int
	Admins        int
}

// GovernanceStatus builds the overview shown by `trebgov status` and exported as metrics
type GovernanceStatus struct {
	store     StateStore
	governor  *ProposalGovernor
	timelock  *TimelockController
	upgrades  *UpgradeAuthority
	multisig  *MultisigUpgrader
	mint      *MintScheduler
	executors *ExecutorManager
	clock     Clock
}

// NewGovernanceStatus creates a new GovernanceStatus use case
func NewGovernanceStatus(
	store StateStore,
	governor *ProposalGovernor,
	timelock *TimelockController,
	upgrades *UpgradeAuthority,
	multisig *MultisigUpgrader,
	mint *MintScheduler,
	executors *ExecutorManager,
	clock Clock,
) *GovernanceStatus {
	return &GovernanceStatus{
		store:     store,
		governor:  governor,
		timelock:  timelock,
		upgrades:  upgrades,
		multisig:  multisig,
		mint:      mint,
		executors: executors,
		clock:     clock,
	}
}

// Run executes the use case
func (uc *GovernanceStatus) Run(ctx context.Context) (*GovernanceSummary, error) {
	s := &GovernanceSummary{
		Now:          uc.clock.Now(),
		Block:        uc.clock.BlockNumber(),
		Proposals:    make(map[models.ProposalState]int),
		Upgrades:     make(map[models.UpgradeAuthorityKind]map[models.UpgradeStatus]int),
		MintRequests: make(map[models.MintRequestStatus]int),
	}
	err := uc.store.View(ctx, func(st *models.State) error {
		s.Initialized = st.Initialized
		s.Council = len(st.Council)
		s.Admins = len(st.Admins)
		return nil
	})
	if err != nil {
		return nil, err
	}

	proposals, err := uc.governor.ListProposals(ctx, domain.ProposalFilter{})
	if err != nil {
		return nil, err
	}
	for _, p := range proposals {
		s.Proposals[p.State]++
	}

	ops, err := uc.timelock.ListOperations(ctx)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if op.Pending() {
			s.PendingOps++
		}
	}

	type lister struct {
		kind   models.UpgradeAuthorityKind
		window time.Duration
		list   func(context.Context, domain.UpgradeFilter) ([]*models.PendingUpgrade, error)
	}
	for _, l := range []lister{
		{models.UpgradeAuthorityTimelock, uc.upgrades.ExecutionWindow(), uc.upgrades.ListUpgrades},
		{models.UpgradeAuthorityMultisig, uc.multisig.ExecutionWindow(), uc.multisig.ListUpgrades},
	} {
		list, err := l.list(ctx, domain.UpgradeFilter{IncludeDone: true})
		if err != nil {
			return nil, err
		}
		counts := make(map[models.UpgradeStatus]int)
		for _, u := range list {
			counts[u.StatusAt(s.Now, l.window)]++
		}
		s.Upgrades[l.kind] = counts
	}

	requests, err := uc.mint.ListMintRequests(ctx, domain.MintRequestFilter{})
	if err != nil {
		return nil, err
	}
	for _, r := range requests {
		s.MintRequests[uc.mint.RequestStatus(r)]++
	}
	if s.Supply, err = uc.mint.Supply(ctx); err != nil {
		return nil, err
	}
	period, err := uc.mint.CurrentPeriod(ctx)
	switch {
	case err == nil:
		s.CurrentPeriod = period
	case errors.Is(err, domain.ErrScheduleNotStarted), errors.Is(err, domain.ErrScheduleEnded):
	default:
		return nil, err
	}

	executors, err := uc.executors.ListExecutors(ctx)
	if err != nil {
		return nil, err
	}
	s.Frozen = executors.Frozen
	for _, e := range executors.Executors {
		if e.Enabled {
			s.Executors++
		}
	}
	return s, nil
}
