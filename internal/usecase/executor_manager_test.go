package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/govtest"
)

func TestExecutorAllowList(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)

	err := h.Executors.AddExecutor(ctx, govtest.Alice, govtest.Bob)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	err = h.Executors.AddExecutor(ctx, govtest.Operator, govtest.Executor)
	require.ErrorIs(t, err, domain.ErrExecutorAlreadyListed)

	require.NoError(t, h.Executors.AddExecutor(ctx, govtest.Operator, govtest.Bob))

	err = h.Executors.AddExecutor(ctx, govtest.Operator, govtest.Carol)
	require.ErrorIs(t, err, domain.ErrCooldownActive)
	err = h.Executors.RemoveExecutor(ctx, govtest.Operator, govtest.Bob)
	require.ErrorIs(t, err, domain.ErrCooldownActive)

	h.Clock.Advance(h.Config.Executors.Cooldown)
	require.NoError(t, h.Executors.RemoveExecutor(ctx, govtest.Operator, govtest.Bob))

	listed, err := h.Executors.IsExecutor(ctx, govtest.Bob)
	require.NoError(t, err)
	assert.False(t, listed)

	h.Clock.Advance(h.Config.Executors.Cooldown)
	err = h.Executors.RemoveExecutor(ctx, govtest.Operator, govtest.Bob)
	assert.ErrorIs(t, err, domain.ErrExecutorNotAuthorized)

	rec, err := h.Executors.Executor(ctx, govtest.Bob)
	require.NoError(t, err)
	assert.False(t, rec.Enabled)
	_, err = h.Executors.Executor(ctx, govtest.Carol)
	assert.ErrorIs(t, err, domain.ErrExecutorNotAuthorized)

	status, err := h.Executors.ListExecutors(ctx)
	require.NoError(t, err)
	assert.Len(t, status.Executors, 2, "removed executors keep their record")
	assert.Equal(t, h.Config.Executors.DailyLimit, status.DailyLimit)
}

func TestExecutorDailyLimit(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	limit := h.Config.Executors.DailyLimit

	for i := uint64(0); i < limit; i++ {
		require.NoError(t, h.Executors.RecordExecution(ctx, govtest.Executor))
	}
	remaining, err := h.Executors.RemainingExecutions(ctx, govtest.Executor)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	err = h.Executors.RecordExecution(ctx, govtest.Executor)
	require.ErrorIs(t, err, domain.ErrDailyLimitExceeded)

	h.Clock.Advance(24*time.Hour - time.Second)
	err = h.Executors.RecordExecution(ctx, govtest.Executor)
	require.ErrorIs(t, err, domain.ErrDailyLimitExceeded)

	h.Clock.Advance(time.Second)
	remaining, err = h.Executors.RemainingExecutions(ctx, govtest.Executor)
	require.NoError(t, err)
	assert.Equal(t, limit, remaining, "the window resets after a day")
	require.NoError(t, h.Executors.RecordExecution(ctx, govtest.Executor))

	err = h.Executors.RecordExecution(ctx, govtest.Alice)
	assert.ErrorIs(t, err, domain.ErrExecutorNotAuthorized)
}

func TestExecutorEmergencyFreeze(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)

	err := h.Executors.SetEmergencyFreeze(ctx, govtest.Alice, true)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, h.Executors.SetEmergencyFreeze(ctx, govtest.Operator, true))
	err = h.Executors.RecordExecution(ctx, govtest.Executor)
	require.ErrorIs(t, err, domain.ErrEmergencyFrozen)

	remaining, err := h.Executors.RemainingExecutions(ctx, govtest.Executor)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	status, err := h.Executors.ListExecutors(ctx)
	require.NoError(t, err)
	assert.True(t, status.Frozen)

	// freezing twice is a no-op and emits nothing
	before := h.Events.Count(domain.EventTypeEmergencyFreezeChanged)
	require.NoError(t, h.Executors.SetEmergencyFreeze(ctx, govtest.Operator, true))
	assert.Equal(t, before, h.Events.Count(domain.EventTypeEmergencyFreezeChanged))

	require.NoError(t, h.Executors.SetEmergencyFreeze(ctx, govtest.Operator, false))
	require.NoError(t, h.Executors.RecordExecution(ctx, govtest.Executor))
}
