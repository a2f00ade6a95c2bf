package app

import (
	"log/slog"

	"github.com/trebuchet-org/treb-gov/internal/adapters/metrics"
	"github.com/trebuchet-org/treb-gov/internal/adapters/repository/state"
	"github.com/trebuchet-org/treb-gov/internal/adapters/roles"
	"github.com/trebuchet-org/treb-gov/internal/adapters/token"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config     *config.RuntimeConfig
	Governance *config.GovernanceConfig

	// Shared dependencies
	Selector usecase.ItemSelector
	Clock    usecase.Clock
	Log      *slog.Logger

	// Governance components
	Governor  *usecase.ProposalGovernor
	Timelock  *usecase.TimelockController
	Upgrades  *usecase.UpgradeAuthority
	Multisig  *usecase.MultisigUpgrader
	Executors *usecase.ExecutorManager
	Admins    *usecase.AdminValidator
	Mint      *usecase.MintScheduler

	// Use cases
	InitGovernance *usecase.InitGovernance
	AdvanceClock   *usecase.AdvanceClock
	ManageProxies  *usecase.ManageProxies
	Status         *usecase.GovernanceStatus

	// Adapters (needed for commands outside the governance flow)
	Store          *state.FileRepository
	Ledger         *token.Ledger
	Roles          *roles.StaticRoleManager
	StateCollector *metrics.StateCollector
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	gov *config.GovernanceConfig,
	selector usecase.ItemSelector,
	clock usecase.Clock,
	log *slog.Logger,
	governor *usecase.ProposalGovernor,
	timelock *usecase.TimelockController,
	upgrades *usecase.UpgradeAuthority,
	multisig *usecase.MultisigUpgrader,
	executors *usecase.ExecutorManager,
	admins *usecase.AdminValidator,
	mint *usecase.MintScheduler,
	initGovernance *usecase.InitGovernance,
	advanceClock *usecase.AdvanceClock,
	manageProxies *usecase.ManageProxies,
	status *usecase.GovernanceStatus,
	store *state.FileRepository,
	ledger *token.Ledger,
	roleManager *roles.StaticRoleManager,
	collector *metrics.StateCollector,
) (*App, error) {
	return &App{
		Config:         cfg,
		Governance:     gov,
		Selector:       selector,
		Clock:          clock,
		Log:            log,
		Governor:       governor,
		Timelock:       timelock,
		Upgrades:       upgrades,
		Multisig:       multisig,
		Executors:      executors,
		Admins:         admins,
		Mint:           mint,
		InitGovernance: initGovernance,
		AdvanceClock:   advanceClock,
		ManageProxies:  manageProxies,
		Status:         status,
		Store:          store,
		Ledger:         ledger,
		Roles:          roleManager,
		StateCollector: collector,
	}, nil
}
