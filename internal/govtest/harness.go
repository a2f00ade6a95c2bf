package govtest

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/adapters/proxy"
	"github.com/trebuchet-org/treb-gov/internal/adapters/repository/state"
	"github.com/trebuchet-org/treb-gov/internal/adapters/roles"
	"github.com/trebuchet-org/treb-gov/internal/adapters/token"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// Well-known test accounts
var (
	// Operator holds every operational role directly
	Operator = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	// Executor is on the executor allow-list
	Executor = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	// Multisig is the privileged proposer
	Multisig = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	// Council sits on the security council
	Council = common.HexToAddress("0x00000000000000000000000000000000000000a4")

	Alice = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	Bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	Carol = common.HexToAddress("0x00000000000000000000000000000000000000b3")

	// Signers hold UPGRADE_SIGNER_ROLE
	Signers = []common.Address{
		common.HexToAddress("0x00000000000000000000000000000000000000c1"),
		common.HexToAddress("0x00000000000000000000000000000000000000c2"),
		common.HexToAddress("0x00000000000000000000000000000000000000c3"),
	}
	// Owners own the standalone upgrade multisig
	Owners = []common.Address{
		common.HexToAddress("0x00000000000000000000000000000000000000d1"),
		common.HexToAddress("0x00000000000000000000000000000000000000d2"),
		common.HexToAddress("0x00000000000000000000000000000000000000d3"),
	}
)

var operatorRoles = []string{
	domain.RoleGovernance,
	domain.RoleUpgradeProposer,
	domain.RoleUpgradeCanceller,
	domain.RoleExecutorAdmin,
	domain.RoleEmergency,
	domain.RoleAdminRegistrar,
	domain.RoleMinter,
	domain.RoleProposer,
	domain.RoleCanceller,
}

// Option adjusts the configuration before the harness is built
type Option func(cfg *config.GovernanceConfig)

// Harness is a governance core wired over an in-memory store
type Harness struct {
	Config  *config.GovernanceConfig
	Store   *state.FileRepository
	Clock   *Clock
	Roles   *roles.StaticRoleManager
	Ledger  *token.Ledger
	Proxies *proxy.Registry
	Oracle  *Oracle
	Events  *Recorder
	Router  *usecase.CallRouter

	Executors *usecase.ExecutorManager
	Timelock  *usecase.TimelockController
	Governor  *usecase.ProposalGovernor
	Admins    *usecase.AdminValidator
	Upgrades  *usecase.UpgradeAuthority
	Multisig  *usecase.MultisigUpgrader
	Mint      *usecase.MintScheduler
}

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Tokens returns n whole tokens with 18 decimals
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// New builds a harness from the default configuration. The Executor account
// is allow-listed and Council sits on the security council.
func New(t testing.TB, opts ...Option) *Harness {
	t.Helper()

	cfg := config.DefaultGovernanceConfig()
	cfg.Governor.PrivilegedMultisig = Multisig
	cfg.Multisig.Owners = append([]common.Address(nil), Owners...)
	cfg.Mint.ScheduleStart = Genesis
	cfg.Clock.Genesis = Genesis
	for _, opt := range opts {
		opt(cfg)
	}
	require.NoError(t, cfg.Validate())

	log := DiscardLogger()
	h := &Harness{
		Config: cfg,
		Store:  state.NewInMemoryRepository(),
		Clock:  NewClock(cfg.Clock.Genesis, cfg.Clock.BlockTime),
		Oracle: NewOracle(),
		Events: &Recorder{},
		Router: usecase.NewCallRouter(),
	}
	h.Roles = roles.NewStaticRoleManager(cfg)
	for _, role := range operatorRoles {
		h.Roles.Grant(role, Operator)
	}
	for _, s := range Signers {
		h.Roles.Grant(domain.RoleUpgradeSigner, s)
	}
	h.Ledger = token.NewLedger(h.Store, h.Clock, log)
	h.Proxies = proxy.NewRegistry(h.Store, h.Clock, log)

	h.Executors = usecase.NewExecutorManager(cfg, h.Store, h.Roles, h.Router, h.Clock, h.Events, log)
	h.Timelock = usecase.NewTimelockController(cfg, h.Store, h.Roles, h.Executors, h.Router, h.Clock, h.Events, log)
	h.Governor = usecase.NewProposalGovernor(cfg, h.Store, h.Roles, h.Ledger, h.Timelock, h.Router, h.Clock, h.Events, log)
	h.Admins = usecase.NewAdminValidator(cfg, h.Store, h.Roles, h.Proxies, h.Router, h.Clock, h.Events, log)
	h.Upgrades = usecase.NewUpgradeAuthority(cfg, h.Store, h.Roles, h.Proxies, h.Proxies, h.Admins, h.Executors, h.Router, h.Clock, h.Events, log)
	h.Multisig = usecase.NewMultisigUpgrader(cfg, h.Store, h.Proxies, h.Proxies, h.Admins, h.Executors, h.Clock, h.Events, log)
	h.Mint = usecase.NewMintScheduler(cfg, h.Store, h.Roles, h.Ledger, h.Oracle, h.Router, h.Clock, h.Events, log)

	h.SeedExecutor(t, Executor)
	h.SeedCouncil(t, Council)
	return h
}

// SeedExecutor allow-lists addr without touching the modification cooldown
func (h *Harness) SeedExecutor(t testing.TB, addr common.Address) {
	t.Helper()
	err := h.Store.Update(context.Background(), func(_ context.Context, st *models.State) error {
		now := h.Clock.Now()
		st.Executors.Executors[addr] = &models.ExecutorRecord{
			Address:   addr,
			Enabled:   true,
			LastReset: now,
			AddedAt:   now,
		}
		return nil
	})
	require.NoError(t, err)
}

// SeedCouncil adds addr to the security council
func (h *Harness) SeedCouncil(t testing.TB, addr common.Address) {
	t.Helper()
	err := h.Store.Update(context.Background(), func(_ context.Context, st *models.State) error {
		st.Council[addr] = h.Clock.Now()
		return nil
	})
	require.NoError(t, err)
}

// Fund mints n whole tokens to account and mines a block so the balance
// counts toward past votes
func (h *Harness) Fund(t testing.TB, account common.Address, n int64) {
	t.Helper()
	require.NoError(t, h.Ledger.Mint(context.Background(), account, Tokens(n)))
	h.Clock.Mine(1)
}

// ProxyFixture is a registered proxy with an authorized admin and an
// undeployed-yet-registered next implementation
type ProxyFixture struct {
	Proxy              common.Address
	Admin              common.Address
	Implementation     common.Address
	NextImplementation common.Address
}

// SeedProxy registers a proxy, its admin and two implementations, and
// authorizes the admin
func (h *Harness) SeedProxy(t testing.TB) *ProxyFixture {
	t.Helper()
	ctx := context.Background()
	f := &ProxyFixture{
		Proxy:              common.HexToAddress("0x00000000000000000000000000000000000e0001"),
		Admin:              common.HexToAddress("0x00000000000000000000000000000000000e0002"),
		Implementation:     common.HexToAddress("0x00000000000000000000000000000000000e0003"),
		NextImplementation: common.HexToAddress("0x00000000000000000000000000000000000e0004"),
	}
	require.NoError(t, h.Proxies.RegisterContract(ctx, f.Admin, "ProxyAdmin"))
	require.NoError(t, h.Proxies.RegisterContract(ctx, f.Implementation, "TokenV1"))
	require.NoError(t, h.Proxies.RegisterContract(ctx, f.NextImplementation, "TokenV2"))
	require.NoError(t, h.Proxies.RegisterProxy(ctx, models.ProxyInfo{
		Address:        f.Proxy,
		Type:           "Transparent",
		Implementation: f.Implementation,
		Admin:          f.Admin,
	}))
	require.NoError(t, h.Admins.AuthorizeProxyAdmin(ctx, Operator, usecase.AuthorizeProxyAdminParams{
		Admin: f.Admin,
		Name:  "main",
		Owner: Operator,
	}))
	return f
}

// PassProposal proposes params as proposer, has every voter vote for it and
// mines past the voting period. The proposal is left Succeeded.
func (h *Harness) PassProposal(t testing.TB, proposer common.Address, params usecase.ProposeParams, voters ...common.Address) common.Hash {
	t.Helper()
	ctx := context.Background()
	id, err := h.Governor.ProposeWithType(ctx, proposer, params)
	require.NoError(t, err)

	h.Clock.Mine(h.Config.Governor.VotingDelay + 1)
	for _, v := range voters {
		_, err := h.Governor.CastVote(ctx, v, id, models.VoteFor, "")
		require.NoError(t, err)
	}
	period := h.Config.Governor.VotingPeriod
	if params.Type == models.ProposalTypeEmergency {
		period = h.Config.Governor.EmergencyVotingPeriod
	}
	h.Clock.Mine(period)

	got, err := h.Governor.State(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ProposalStateSucceeded, got)
	return id
}

// Snapshot returns a copy of the committed state
func (h *Harness) Snapshot(t testing.TB) *models.State {
	t.Helper()
	st, err := h.Store.Snapshot()
	require.NoError(t, err)
	return st
}
