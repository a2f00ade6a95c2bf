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
)

func addExecutorCall(t *testing.T, h *govtest.Harness, executor common.Address) models.Call {
	return models.Call{
		Target: h.Executors.Address(),
		Value:  new(big.Int),
		Data:   pack(t, bindings.MethodAddExecutor, executor),
	}
}

func TestTimelockSchedule(t *testing.T) {
	salt := common.HexToHash("0x01")

	tests := []struct {
		name      string
		caller    common.Address
		delay     time.Duration
		expectErr error
	}{
		{name: "proposer at minimum delay", caller: govtest.Operator, delay: 6 * time.Hour},
		{name: "governor holds proposer", caller: common.Address{}, delay: 24 * time.Hour},
		{name: "below minimum delay", caller: govtest.Operator, delay: 6*time.Hour - time.Second, expectErr: domain.ErrInsufficientDelay},
		{name: "caller without proposer role", caller: govtest.Alice, delay: 6 * time.Hour, expectErr: domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := govtest.New(t)
			caller := tt.caller
			if caller == (common.Address{}) {
				caller = h.Governor.Address()
			}

			id, err := h.Timelock.Schedule(ctx, caller, addExecutorCall(t, h, govtest.Bob), common.Hash{}, salt, tt.delay)
			if tt.expectErr != nil {
				require.ErrorIs(t, err, tt.expectErr)
				ops, err := h.Timelock.ListOperations(ctx)
				require.NoError(t, err)
				assert.Empty(t, ops)
				return
			}
			require.NoError(t, err)

			op, err := h.Timelock.Operation(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, h.Clock.Now().Add(tt.delay), op.Timestamp)
			assert.Equal(t, models.OperationStateWaiting, op.StateAt(h.Clock.Now()))

			_, err = h.Timelock.Schedule(ctx, caller, addExecutorCall(t, h, govtest.Bob), common.Hash{}, salt, tt.delay)
			assert.ErrorIs(t, err, domain.ErrOperationAlreadyExists)
		})
	}
}

func TestTimelockExecute(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)

	call := addExecutorCall(t, h, govtest.Bob)
	id, err := h.Timelock.Schedule(ctx, govtest.Operator, call, common.Hash{}, common.Hash{}, 6*time.Hour)
	require.NoError(t, err)

	ready, err := h.Timelock.IsOperationReady(ctx, id)
	require.NoError(t, err)
	assert.False(t, ready)

	err = h.Timelock.Execute(ctx, govtest.Executor, call, common.Hash{}, common.Hash{})
	require.ErrorIs(t, err, domain.ErrOperationNotReady)

	h.Clock.Advance(6 * time.Hour)
	ready, err = h.Timelock.IsOperationReady(ctx, id)
	require.NoError(t, err)
	assert.True(t, ready)

	err = h.Timelock.Execute(ctx, govtest.Bob, call, common.Hash{}, common.Hash{})
	require.ErrorIs(t, err, domain.ErrExecutorNotAuthorized)

	require.NoError(t, h.Timelock.Execute(ctx, govtest.Executor, call, common.Hash{}, common.Hash{}))

	listed, err := h.Executors.IsExecutor(ctx, govtest.Bob)
	require.NoError(t, err)
	assert.True(t, listed, "the call ran as the timelock")

	err = h.Timelock.ExecuteByID(ctx, govtest.Executor, id)
	assert.ErrorIs(t, err, domain.ErrAlreadyExecuted)

	err = h.Timelock.Cancel(ctx, govtest.Operator, id)
	assert.ErrorIs(t, err, domain.ErrAlreadyExecuted)

	err = h.Timelock.ExecuteByID(ctx, govtest.Executor, common.HexToHash("0xdead"))
	assert.ErrorIs(t, err, domain.ErrOperationNotFound)
}

func TestTimelockPredecessor(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)

	first, err := h.Timelock.Schedule(ctx, govtest.Operator, addExecutorCall(t, h, govtest.Bob), common.Hash{}, common.Hash{}, 6*time.Hour)
	require.NoError(t, err)
	second, err := h.Timelock.Schedule(ctx, govtest.Operator, addExecutorCall(t, h, govtest.Carol), first, common.Hash{}, 6*time.Hour)
	require.NoError(t, err)

	h.Clock.Advance(6 * time.Hour)
	err = h.Timelock.ExecuteByID(ctx, govtest.Executor, second)
	require.ErrorIs(t, err, domain.ErrPredecessorNotDone)

	require.NoError(t, h.Timelock.ExecuteByID(ctx, govtest.Executor, first))

	// the executor list is in its modification cooldown now
	err = h.Timelock.ExecuteByID(ctx, govtest.Executor, second)
	require.ErrorIs(t, err, domain.ErrCooldownActive)

	h.Clock.Advance(h.Config.Executors.Cooldown)
	require.NoError(t, h.Timelock.ExecuteByID(ctx, govtest.Executor, second))
}

func TestTimelockCancel(t *testing.T) {
	ctx := context.Background()
	h := govtest.New(t)
	call := addExecutorCall(t, h, govtest.Bob)

	id, err := h.Timelock.Schedule(ctx, govtest.Operator, call, common.Hash{}, common.Hash{}, 6*time.Hour)
	require.NoError(t, err)

	err = h.Timelock.Cancel(ctx, govtest.Alice, id)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, h.Timelock.Cancel(ctx, govtest.Operator, id))
	err = h.Timelock.Cancel(ctx, govtest.Operator, id)
	assert.ErrorIs(t, err, domain.ErrAlreadyCanceled)

	h.Clock.Advance(6 * time.Hour)
	err = h.Timelock.ExecuteByID(ctx, govtest.Executor, id)
	assert.ErrorIs(t, err, domain.ErrAlreadyCanceled)

	// a cancelled operation can be scheduled again
	again, err := h.Timelock.Schedule(ctx, govtest.Operator, call, common.Hash{}, common.Hash{}, 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	op, err := h.Timelock.Operation(ctx, again)
	require.NoError(t, err)
	assert.False(t, op.Canceled)
}

func TestTimelockFailingCall(t *testing.T) {
	tests := []struct {
		name      string
		call      func(t *testing.T, h *govtest.Harness) models.Call
		expectErr error
	}{
		{
			name: "unknown target",
			call: func(t *testing.T, h *govtest.Harness) models.Call {
				c := addExecutorCall(t, h, govtest.Bob)
				c.Target = govtest.Carol
				return c
			},
			expectErr: domain.ErrUnknownCallTarget,
		},
		{
			name: "value attached",
			call: func(t *testing.T, h *govtest.Harness) models.Call {
				c := addExecutorCall(t, h, govtest.Bob)
				c.Value = big.NewInt(1)
				return c
			},
			expectErr: domain.ErrValueNotAccepted,
		},
		{
			name: "unknown selector",
			call: func(t *testing.T, h *govtest.Harness) models.Call {
				return models.Call{Target: h.Executors.Address(), Value: new(big.Int), Data: []byte{0xde, 0xad, 0xbe, 0xef}}
			},
			expectErr: domain.ErrUnknownSelector,
		},
		{
			name: "method on the wrong component",
			call: func(t *testing.T, h *govtest.Harness) models.Call {
				c := addExecutorCall(t, h, govtest.Bob)
				c.Target = h.Mint.Address()
				return c
			},
			expectErr: domain.ErrUnknownSelector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := govtest.New(t)

			id, err := h.Timelock.Schedule(ctx, govtest.Operator, tt.call(t, h), common.Hash{}, common.Hash{}, 6*time.Hour)
			require.NoError(t, err)
			h.Clock.Advance(6 * time.Hour)

			err = h.Timelock.ExecuteByID(ctx, govtest.Executor, id)
			require.ErrorIs(t, err, tt.expectErr)

			op, err := h.Timelock.Operation(ctx, id)
			require.NoError(t, err)
			assert.False(t, op.Done, "a failed call leaves the operation ready")
		})
	}
}

func TestTimelockBatchHash(t *testing.T) {
	h := govtest.New(t)
	calls := []models.Call{addExecutorCall(t, h, govtest.Bob), addExecutorCall(t, h, govtest.Carol)}

	a, err := h.Timelock.HashOperationBatch(calls, common.Hash{}, common.HexToHash("0x01"))
	require.NoError(t, err)
	b, err := h.Timelock.HashOperationBatch(calls, common.Hash{}, common.HexToHash("0x02"))
	require.NoError(t, err)
	c, err := h.Timelock.HashOperationBatch(calls[:1], common.Hash{}, common.HexToHash("0x01"))
	require.NoError(t, err)
	single, err := h.Timelock.HashOperation(calls[0], common.Hash{}, common.HexToHash("0x01"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "salt is part of the id")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, c, single, "single and batch encodings differ")

	_, err = h.Timelock.ScheduleBatch(context.Background(), govtest.Operator, nil, common.Hash{}, common.Hash{}, 6*time.Hour)
	assert.ErrorIs(t, err, domain.ErrEmptyProposal)
}
