package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-gov/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-gov/internal/adapters/clock"
	"github.com/trebuchet-org/treb-gov/internal/adapters/events"
	"github.com/trebuchet-org/treb-gov/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-gov/internal/adapters/metrics"
	"github.com/trebuchet-org/treb-gov/internal/adapters/oracle"
	"github.com/trebuchet-org/treb-gov/internal/adapters/progress"
	"github.com/trebuchet-org/treb-gov/internal/adapters/proxy"
	"github.com/trebuchet-org/treb-gov/internal/adapters/repository/state"
	"github.com/trebuchet-org/treb-gov/internal/adapters/roles"
	"github.com/trebuchet-org/treb-gov/internal/adapters/token"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// StateSet provides the file-backed governance state and the clock over it
var StateSet = wire.NewSet(
	state.ProvideFileRepository,
	wire.Bind(new(usecase.StateStore), new(*state.FileRepository)),

	clock.NewSystemClock,
	wire.Bind(new(usecase.Clock), new(*clock.SystemClock)),
)

// LedgerSet provides the local token and proxy ledgers
var LedgerSet = wire.NewSet(
	token.NewLedger,
	wire.Bind(new(usecase.VotesSource), new(*token.Ledger)),
	wire.Bind(new(usecase.TokenMinter), new(*token.Ledger)),

	proxy.NewRegistry,
	wire.Bind(new(usecase.ProxyInspector), new(*proxy.Registry)),
	wire.Bind(new(usecase.ProxyUpgrader), new(*proxy.Registry)),
	wire.Bind(new(usecase.ProxyRegistrar), new(*proxy.Registry)),
)

// RolesSet provides role checks from configuration
var RolesSet = wire.NewSet(
	roles.NewStaticRoleManager,
	wire.Bind(new(usecase.RoleManager), new(*roles.StaticRoleManager)),
)

// BlockchainSet provides live-node access for proxy introspection
var BlockchainSet = wire.NewSet(
	blockchain.NewProxyReader,
	wire.Bind(new(usecase.ChainReader), new(*blockchain.ProxyReader)),
)

// OracleSet provides the revenue oracle client
var OracleSet = wire.NewSet(
	oracle.NewClient,
	wire.Bind(new(usecase.MintOracle), new(*oracle.Client)),
)

// EventsSet provides the committed-event fan-out and the state collector
var EventsSet = wire.NewSet(
	events.NewLogSink,
	metrics.NewEventSink,
	events.ProvideEventSink,
	metrics.NewStateCollector,
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.ItemSelector), new(*interactive.SelectorAdapter)),
	progress.ProvideProgressSink,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	StateSet,
	LedgerSet,
	RolesSet,
	BlockchainSet,
	OracleSet,
	EventsSet,
	InteractiveSet,
)
