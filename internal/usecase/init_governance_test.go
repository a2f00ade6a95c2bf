package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/govtest"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

func seededHarness(t *testing.T) *govtest.Harness {
	return govtest.New(t, func(cfg *config.GovernanceConfig) {
		cfg.Executors.Initial = []common.Address{govtest.Bob}
		cfg.Council = []common.Address{govtest.Carol}
		cfg.Token.Allocations = []config.TokenAllocation{
			{Account: govtest.Alice, Amount: govtest.Tokens(1_000)},
			{Account: govtest.Bob, Amount: govtest.Tokens(500)},
		}
		cfg.Proxies = []config.ProxyConfig{{
			Address:        common.HexToAddress("0x00000000000000000000000000000000000e0001"),
			Type:           "UUPS",
			Implementation: common.HexToAddress("0x00000000000000000000000000000000000e0003"),
			Admin:          common.HexToAddress("0x00000000000000000000000000000000000e0002"),
		}}
		cfg.Contracts = map[string]common.Address{
			"TokenV1": common.HexToAddress("0x00000000000000000000000000000000000e0003"),
		}
	})
}

func TestInitGovernance(t *testing.T) {
	ctx := context.Background()
	h := seededHarness(t)
	uc := usecase.NewInitGovernance(h.Config, h.Store, h.Ledger, h.Clock, govtest.DiscardLogger())

	result, err := uc.Run(ctx, usecase.InitGovernanceParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Executors)
	assert.Equal(t, 1, result.Council)
	assert.Equal(t, 2, result.Allocations)
	assert.Equal(t, 1, result.Proxies)
	assert.Equal(t, 1, result.Contracts)
	assert.Equal(t, govtest.Tokens(1_500), result.Supply)

	st := h.Snapshot(t)
	assert.True(t, st.Initialized)
	require.NotNil(t, st.GenesisAt)
	assert.Equal(t, h.Clock.Now(), *st.GenesisAt)
	assert.Contains(t, st.Executors.Executors, govtest.Bob)
	assert.NotContains(t, st.Executors.Executors, govtest.Executor, "genesis replaces prior state")
	assert.Contains(t, st.Council, govtest.Carol)
	assert.Len(t, st.Contracts, 2, "the proxy is registered as code too")

	supply, err := h.Ledger.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(1_500), supply)

	_, err = uc.Run(ctx, usecase.InitGovernanceParams{})
	require.ErrorIs(t, err, domain.ErrAlreadyInitialized)
}

func TestInitGovernanceForceKeepsClockOffset(t *testing.T) {
	ctx := context.Background()
	h := seededHarness(t)
	uc := usecase.NewInitGovernance(h.Config, h.Store, h.Ledger, h.Clock, govtest.DiscardLogger())
	advance := usecase.NewAdvanceClock(h.Store, govtest.DiscardLogger())

	_, err := uc.Run(ctx, usecase.InitGovernanceParams{})
	require.NoError(t, err)

	offset, err := advance.Run(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, offset)
	offset, err = advance.Run(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, offset)

	_, err = advance.Run(ctx, 0)
	require.Error(t, err)

	result, err := uc.Run(ctx, usecase.InitGovernanceParams{Force: true})
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(1_500), result.Supply, "force starts the ledger over")

	st := h.Snapshot(t)
	assert.Equal(t, 3*time.Hour, st.ClockOffset)
	assert.Empty(t, st.Proposals)
	assert.Equal(t, models.StateVersion, st.Version)
}

func TestInitGovernanceRejectsZeroExecutor(t *testing.T) {
	h := govtest.New(t, func(cfg *config.GovernanceConfig) {
		cfg.Executors.Initial = []common.Address{{}}
	})
	uc := usecase.NewInitGovernance(h.Config, h.Store, h.Ledger, h.Clock, govtest.DiscardLogger())

	_, err := uc.Run(context.Background(), usecase.InitGovernanceParams{})
	require.ErrorIs(t, err, domain.ErrZeroAddress)
	assert.False(t, h.Snapshot(t).Initialized)
}
