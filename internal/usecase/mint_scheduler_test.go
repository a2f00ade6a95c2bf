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
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/govtest"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

const year = 365 * 24 * time.Hour

func requestMint(t *testing.T, h *govtest.Harness, amount int64) *models.MintRequest {
	t.Helper()
	r, err := h.Mint.CreateMintRequest(context.Background(), govtest.Operator, usecase.CreateMintRequestParams{
		Recipient: govtest.Alice,
		Amount:    govtest.Tokens(amount),
		Purpose:   "ecosystem grants",
	})
	require.NoError(t, err)
	return r
}

func remaining(t *testing.T, h *govtest.Harness, period uint64) *big.Int {
	t.Helper()
	rem, err := h.Mint.RemainingCapacity(context.Background(), period)
	require.NoError(t, err)
	return rem
}

func TestMintPeriodCapacity(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		period uint64
		cap    int64
	}{
		{name: "early phase", offset: 0, period: 1, cap: 50_000_000},
		{name: "last early period", offset: 4 * year, period: 5, cap: 50_000_000},
		{name: "growth phase", offset: 5 * year, period: 6, cap: 25_000_000},
		{name: "mature phase", offset: 15 * year, period: 16, cap: 10_000_000},
		{name: "final period", offset: 24*year + year - time.Second, period: 25, cap: 10_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := govtest.New(t)
			h.Clock.Advance(tt.offset)

			period, err := h.Mint.CurrentPeriod(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.period, period)
			assert.Equal(t, govtest.Tokens(tt.cap), remaining(t, h, period))
		})
	}
}

func TestMintScheduleEnds(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	h.Clock.Advance(25 * year)

	_, err := h.Mint.CurrentPeriod(ctx)
	require.ErrorIs(t, err, domain.ErrScheduleEnded)

	_, err = h.Mint.CreateMintRequest(ctx, govtest.Operator, usecase.CreateMintRequestParams{
		Recipient: govtest.Alice,
		Amount:    govtest.Tokens(1),
	})
	assert.ErrorIs(t, err, domain.ErrScheduleEnded)

	schedule, err := h.Mint.Schedule(ctx)
	require.NoError(t, err)
	require.Len(t, schedule, 25)
	total := new(big.Int)
	for _, p := range schedule {
		total.Add(total, p.Cap)
	}
	assert.Equal(t, h.Config.Mint.MintableCeiling(), total, "period caps sum to the ceiling")
	assert.Equal(t, "early", schedule[0].Phase)
	assert.Equal(t, "growth", schedule[5].Phase)
	assert.Equal(t, "mature", schedule[24].Phase)

	_, err = h.Mint.PeriodSummary(ctx, 26)
	assert.ErrorIs(t, err, domain.ErrScheduleEnded)
}

func TestMintRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	delay := h.Config.Mint.ExecutionDelay

	require.NoError(t, h.Mint.InitialAllocation(ctx, govtest.Operator, govtest.Bob, govtest.Tokens(10_000_000)))
	assert.Equal(t, govtest.Tokens(40_000_000), remaining(t, h, 1))

	r := requestMint(t, h, 30_000_000)
	assert.Equal(t, uint64(1), r.ID)
	assert.Equal(t, uint64(1), r.Period)
	assert.Equal(t, govtest.Tokens(10_000_000), remaining(t, h, 1), "requests reserve capacity up front")

	_, err := h.Mint.CreateMintRequest(ctx, govtest.Operator, usecase.CreateMintRequestParams{
		Recipient: govtest.Alice,
		Amount:    govtest.Tokens(10_000_001),
	})
	require.ErrorIs(t, err, domain.ErrExceedsPeriodCapacity)

	err = h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r.ID)
	require.ErrorIs(t, err, domain.ErrDelayNotMet)
	assert.Equal(t, models.MintRequestStatusPending, h.Mint.RequestStatus(r))

	h.Clock.Advance(delay)
	require.NoError(t, h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r.ID))

	balance, err := h.Ledger.BalanceOf(ctx, govtest.Alice)
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(30_000_000), balance)

	err = h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyExecuted)
	err = h.Mint.CancelMintRequest(ctx, govtest.Operator, r.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyExecuted)

	supply, err := h.Mint.Supply(ctx)
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(40_000_000), supply.TotalMinted)
	assert.Zero(t, supply.TotalPending.Sign())
	assert.True(t, supply.InitialAllocated)
	assert.Equal(t, govtest.Tokens(10_000_000), remaining(t, h, 1))

	summary, err := h.Mint.PeriodSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(40_000_000), summary.Minted)
	assert.Equal(t, h.Config.Mint.ScheduleStart, summary.Start)
}

func TestMintFullCapacityRequest(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	require.Equal(t, 2*24*time.Hour, h.Config.Mint.ExecutionDelay)

	full := remaining(t, h, 1)
	r, err := h.Mint.CreateMintRequest(ctx, govtest.Operator, usecase.CreateMintRequestParams{
		Recipient: govtest.Alice,
		Amount:    full,
		Purpose:   "treasury",
	})
	require.NoError(t, err)
	assert.Zero(t, remaining(t, h, 1).Sign())

	h.Clock.Advance(24 * time.Hour)
	err = h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r.ID)
	require.ErrorIs(t, err, domain.ErrDelayNotMet)

	h.Clock.Advance(24*time.Hour + time.Second)
	require.NoError(t, h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r.ID))

	balance, err := h.Ledger.BalanceOf(ctx, govtest.Alice)
	require.NoError(t, err)
	assert.Equal(t, full, balance)

	_, err = h.Mint.CreateMintRequest(ctx, govtest.Operator, usecase.CreateMintRequestParams{
		Recipient: govtest.Alice,
		Amount:    big.NewInt(1),
		Purpose:   "one more",
	})
	assert.ErrorIs(t, err, domain.ErrExceedsPeriodCapacity)
}

func TestMintRequestExpiry(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	expiry := h.Config.Mint.RequestExpiry

	r := requestMint(t, h, 50_000_000)
	assert.Zero(t, remaining(t, h, 1).Sign())

	// the expiry instant itself is still executable
	h.Clock.Advance(expiry)
	assert.Equal(t, models.MintRequestStatusExecutable, h.Mint.RequestStatus(r))
	assert.Zero(t, remaining(t, h, 1).Sign())

	h.Clock.Advance(time.Second)
	assert.Equal(t, models.MintRequestStatusExpired, h.Mint.RequestStatus(r))
	assert.Equal(t, govtest.Tokens(50_000_000), remaining(t, h, 1), "expired requests release their reservation")

	err := h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r.ID)
	require.ErrorIs(t, err, domain.ErrMintRequestExpired)

	expired, err := h.Mint.ListMintRequests(ctx, domain.MintRequestFilter{Status: models.MintRequestStatusExpired})
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, r.ID, expired[0].ID)
}

func TestCancelMintRequest(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)

	r := requestMint(t, h, 20_000_000)
	err := h.Mint.CancelMintRequest(ctx, govtest.Alice, r.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, h.Mint.CancelMintRequest(ctx, govtest.Operator, r.ID))
	assert.Equal(t, govtest.Tokens(50_000_000), remaining(t, h, 1))

	err = h.Mint.CancelMintRequest(ctx, govtest.Operator, r.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCanceled)

	h.Clock.Advance(h.Config.Mint.ExecutionDelay)
	err = h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCanceled)

	err = h.Mint.CancelMintRequest(ctx, govtest.Operator, 99)
	assert.ErrorIs(t, err, domain.ErrMintRequestNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInitialAllocation(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, h *govtest.Harness)
		caller    common.Address
		amount    int64
		expectErr error
	}{
		{name: "first period", caller: govtest.Operator, amount: 50_000_000},
		{name: "without minter role", caller: govtest.Alice, amount: 1, expectErr: domain.ErrUnauthorized},
		{name: "above period cap", caller: govtest.Operator, amount: 50_000_001, expectErr: domain.ErrExceedsPeriodCapacity},
		{
			name:   "after a request",
			caller: govtest.Operator,
			amount: 1,
			setup: func(t *testing.T, h *govtest.Harness) {
				r := requestMint(t, h, 1)
				require.NoError(t, h.Mint.CancelMintRequest(context.Background(), govtest.Operator, r.ID))
			},
			expectErr: domain.ErrInitialAllocationUnavailable,
		},
		{
			name:      "second period",
			caller:    govtest.Operator,
			amount:    1,
			setup:     func(t *testing.T, h *govtest.Harness) { h.Clock.Advance(year) },
			expectErr: domain.ErrInitialAllocationUnavailable,
		},
		{
			name:   "twice",
			caller: govtest.Operator,
			amount: 1,
			setup: func(t *testing.T, h *govtest.Harness) {
				require.NoError(t, h.Mint.InitialAllocation(context.Background(), govtest.Operator, govtest.Bob, govtest.Tokens(1)))
			},
			expectErr: domain.ErrInitialAllocationDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := govtest.New(t)
			if tt.setup != nil {
				tt.setup(t, h)
			}
			before, err := h.Ledger.TotalSupply(ctx)
			require.NoError(t, err)

			err = h.Mint.InitialAllocation(ctx, tt.caller, govtest.Carol, govtest.Tokens(tt.amount))
			after, serr := h.Ledger.TotalSupply(ctx)
			require.NoError(t, serr)
			if tt.expectErr != nil {
				require.ErrorIs(t, err, tt.expectErr)
				assert.Equal(t, before, after)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, new(big.Int).Add(before, govtest.Tokens(tt.amount)), after)
		})
	}
}

func TestMintRequestFromOracle(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	now := h.Clock.Now()

	h.Oracle.Set("q1", models.OracleMintData{TokensToMint: govtest.Tokens(1_000_000), Timestamp: now, Finalized: true})
	h.Oracle.Set("q2", models.OracleMintData{TokensToMint: govtest.Tokens(1_000_000), Timestamp: now})
	h.Oracle.Set("q3", models.OracleMintData{TokensToMint: govtest.Tokens(1_000_000), Timestamp: now.Add(-48 * time.Hour), Finalized: true})
	h.Oracle.Set("q4", models.OracleMintData{TokensToMint: govtest.Tokens(60_000_000), Timestamp: now, Finalized: true})

	r, err := h.Mint.CreateMintRequestFromOracle(ctx, govtest.Operator, govtest.Alice, "q1", "revenue share")
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(1_000_000), r.Amount)
	assert.Equal(t, "q1", r.OracleRequestID)

	_, err = h.Mint.CreateMintRequestFromOracle(ctx, govtest.Operator, govtest.Alice, "q1", "again")
	require.ErrorIs(t, err, domain.ErrOracleRequestConsumed)

	// a cancelled request still consumes its oracle id
	require.NoError(t, h.Mint.CancelMintRequest(ctx, govtest.Operator, r.ID))
	_, err = h.Mint.CreateMintRequestFromOracle(ctx, govtest.Operator, govtest.Alice, "q1", "again")
	require.ErrorIs(t, err, domain.ErrOracleRequestConsumed)

	_, err = h.Mint.CreateMintRequestFromOracle(ctx, govtest.Operator, govtest.Alice, "q2", "")
	require.ErrorIs(t, err, domain.ErrOracleDataNotFinalized)

	_, err = h.Mint.CreateMintRequestFromOracle(ctx, govtest.Operator, govtest.Alice, "q3", "")
	require.ErrorIs(t, err, domain.ErrOracleDataStale)

	_, err = h.Mint.CreateMintRequestFromOracle(ctx, govtest.Operator, govtest.Alice, "q4", "")
	require.ErrorIs(t, err, domain.ErrExceedsPeriodCapacity)

	// a rejected request leaves the id usable once the data is fixed
	h.Oracle.Set("q2", models.OracleMintData{TokensToMint: govtest.Tokens(5), Timestamp: now, Finalized: true})
	_, err = h.Mint.CreateMintRequestFromOracle(ctx, govtest.Operator, govtest.Alice, "q2", "")
	require.NoError(t, err)

	_, err = h.Mint.CreateMintRequestFromOracle(ctx, govtest.Operator, govtest.Alice, "missing", "")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.Mint.CreateMintRequestFromOracle(ctx, govtest.Alice, govtest.Alice, "q4", "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestMintCapacityAcrossPeriods(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)

	r := requestMint(t, h, 50_000_000)
	h.Clock.Advance(h.Config.Mint.ExecutionDelay)
	require.NoError(t, h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r.ID))

	// unused capacity does not roll over
	h.Clock.Advance(year)
	period, err := h.Mint.CurrentPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), period)
	assert.Equal(t, govtest.Tokens(50_000_000), remaining(t, h, 2))
	assert.Zero(t, remaining(t, h, 1).Sign())

	// a request made in period 2 stays charged to period 2 after the boundary
	h.Clock.Set(govtest.Genesis.Add(2*year - 24*time.Hour))
	r2 := requestMint(t, h, 5)
	h.Clock.Advance(h.Config.Mint.ExecutionDelay)
	period, err = h.Mint.CurrentPeriod(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), period)
	err = h.Mint.ExecuteMintRequest(ctx, govtest.Operator, r2.ID)
	require.NoError(t, err)

	summary, err := h.Mint.PeriodSummary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, govtest.Tokens(5), summary.Minted)
	assert.Equal(t, govtest.Tokens(50_000_000), remaining(t, h, 3))

	byPeriod, err := h.Mint.ListMintRequests(ctx, domain.MintRequestFilter{Period: 2})
	require.NoError(t, err)
	require.Len(t, byPeriod, 1)
	assert.Equal(t, r2.ID, byPeriod[0].ID)
}

func TestMintValidation(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)

	_, err := h.Mint.CreateMintRequest(ctx, govtest.Operator, usecase.CreateMintRequestParams{Recipient: govtest.Alice, Amount: new(big.Int)})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = h.Mint.CreateMintRequest(ctx, govtest.Operator, usecase.CreateMintRequestParams{Amount: govtest.Tokens(1)})
	assert.ErrorIs(t, err, domain.ErrZeroAddress)

	_, err = h.Mint.CreateMintRequest(ctx, govtest.Alice, usecase.CreateMintRequestParams{Recipient: govtest.Alice, Amount: govtest.Tokens(1)})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	h2 := govtest.New(t, func(cfg *config.GovernanceConfig) {
		cfg.Mint.ScheduleStart = govtest.Genesis.Add(time.Hour)
	})
	_, err = h2.Mint.CurrentPeriod(ctx)
	assert.ErrorIs(t, err, domain.ErrScheduleNotStarted)
}
