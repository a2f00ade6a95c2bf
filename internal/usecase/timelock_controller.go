package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// TimelockController holds scheduled call batches until their delay elapses
// and executes them as the timelock address
type TimelockController struct {
	address   common.Address
	minDelay  time.Duration
	store     StateStore
	roles     RoleManager
	executors *ExecutorManager
	router    *CallRouter
	clock     Clock
	events    EventSink
	log       *slog.Logger
}

// NewTimelockController creates a new TimelockController
func NewTimelockController(
	cfg *config.GovernanceConfig,
	store StateStore,
	roles RoleManager,
	executors *ExecutorManager,
	router *CallRouter,
	clock Clock,
	events EventSink,
	log *slog.Logger,
) *TimelockController {
	return &TimelockController{
		address:   cfg.Timelock.Address,
		minDelay:  cfg.Timelock.MinDelay,
		store:     store,
		roles:     roles,
		executors: executors,
		router:    router,
		clock:     clock,
		events:    events,
		log:       log.With("component", "TimelockController"),
	}
}

// Address returns the address calls are executed as
func (t *TimelockController) Address() common.Address {
	return t.address
}

// MinDelay returns the minimum schedule delay
func (t *TimelockController) MinDelay() time.Duration {
	return t.minDelay
}

// HashOperation returns the id of a single-call operation
func (t *TimelockController) HashOperation(call models.Call, predecessor, salt common.Hash) (common.Hash, error) {
	return bindings.HashOperation(call.Target, call.Value, call.Data, predecessor, salt)
}

// HashOperationBatch returns the id of a batch operation
func (t *TimelockController) HashOperationBatch(calls []models.Call, predecessor, salt common.Hash) (common.Hash, error) {
	targets, values, payloads := splitCalls(calls)
	return bindings.HashOperationBatch(targets, values, payloads, predecessor, salt)
}

// Schedule schedules a single call
func (t *TimelockController) Schedule(ctx context.Context, caller common.Address, call models.Call, predecessor, salt common.Hash, delay time.Duration) (common.Hash, error) {
	id, err := t.HashOperation(call, predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}
	return id, t.schedule(ctx, caller, id, []models.Call{call}, predecessor, salt, delay, 0)
}

// ScheduleBatch schedules calls to be executed together
func (t *TimelockController) ScheduleBatch(ctx context.Context, caller common.Address, calls []models.Call, predecessor, salt common.Hash, delay time.Duration) (common.Hash, error) {
	return t.ScheduleBatchWithGrace(ctx, caller, calls, predecessor, salt, delay, 0)
}

// ScheduleBatchWithGrace schedules a batch that can only be executed within
// grace of becoming ready; afterwards it is expired
func (t *TimelockController) ScheduleBatchWithGrace(ctx context.Context, caller common.Address, calls []models.Call, predecessor, salt common.Hash, delay, grace time.Duration) (common.Hash, error) {
	if len(calls) == 0 {
		return common.Hash{}, domain.ErrEmptyProposal
	}
	id, err := t.HashOperationBatch(calls, predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}
	return id, t.schedule(ctx, caller, id, calls, predecessor, salt, delay, grace)
}

func (t *TimelockController) schedule(ctx context.Context, caller common.Address, id common.Hash, calls []models.Call, predecessor, salt common.Hash, delay, grace time.Duration) error {
	if err := requireRole(ctx, t.roles, domain.RoleProposer, caller); err != nil {
		return err
	}
	if delay < t.minDelay {
		return fmt.Errorf("%w: %s below minimum %s", domain.ErrInsufficientDelay, delay, t.minDelay)
	}
	return t.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if existing, ok := st.Timelock[id]; ok && !existing.Canceled {
			return fmt.Errorf("%w: %s", domain.ErrOperationAlreadyExists, id.Hex())
		}
		now := t.clock.Now()
		op := &models.TimelockOperation{
			ID:          id,
			Calls:       calls,
			Predecessor: predecessor,
			Salt:        salt,
			Delay:       delay,
			Timestamp:   now.Add(delay),
			ScheduledBy: caller,
		}
		if grace > 0 {
			deadline := op.Timestamp.Add(grace)
			op.Deadline = &deadline
		}
		st.Timelock[id] = op
		t.log.Info("operation scheduled", "id", id.Hex(), "calls", len(calls), "ready", now.Add(delay))
		publish(ctx, t.store, t.events, &domain.TimelockEvent{
			Type:        domain.EventTypeCallScheduled,
			OperationID: id,
			Calls:       len(calls),
			Actor:       caller,
		})
		return nil
	})
}

// Execute executes a ready single-call operation
func (t *TimelockController) Execute(ctx context.Context, caller common.Address, call models.Call, predecessor, salt common.Hash) error {
	id, err := t.HashOperation(call, predecessor, salt)
	if err != nil {
		return err
	}
	return t.execute(ctx, caller, id)
}

// ExecuteBatch executes a ready batch operation
func (t *TimelockController) ExecuteBatch(ctx context.Context, caller common.Address, calls []models.Call, predecessor, salt common.Hash) error {
	id, err := t.HashOperationBatch(calls, predecessor, salt)
	if err != nil {
		return err
	}
	return t.execute(ctx, caller, id)
}

// ExecuteByID executes a ready operation by its id
func (t *TimelockController) ExecuteByID(ctx context.Context, caller common.Address, id common.Hash) error {
	return t.execute(ctx, caller, id)
}

func (t *TimelockController) execute(ctx context.Context, caller common.Address, id common.Hash) error {
	return t.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		op, ok := st.Timelock[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrOperationNotFound, id.Hex())
		}
		now := t.clock.Now()
		switch op.StateAt(now) {
		case models.OperationStateDone:
			return fmt.Errorf("operation %s: %w", id.Hex(), domain.ErrAlreadyExecuted)
		case models.OperationStateCanceled:
			return fmt.Errorf("operation %s: %w", id.Hex(), domain.ErrAlreadyCanceled)
		case models.OperationStateWaiting:
			return fmt.Errorf("%w: %s ready at %s", domain.ErrOperationNotReady, id.Hex(), op.Timestamp.Format(time.RFC3339))
		case models.OperationStateExpired:
			return fmt.Errorf("%w: %s closed at %s", domain.ErrOperationExpired, id.Hex(), op.Deadline.Format(time.RFC3339))
		}
		if op.Predecessor != (common.Hash{}) {
			if pred, ok := st.Timelock[op.Predecessor]; !ok || !pred.Done {
				return fmt.Errorf("%w: %s", domain.ErrPredecessorNotDone, op.Predecessor.Hex())
			}
		}
		if err := t.executors.RecordExecution(ctx, caller); err != nil {
			return err
		}

		op.Done = true
		op.ExecutedAt = &now

		if err := t.router.DispatchAll(ctx, t.address, op.Calls); err != nil {
			return fmt.Errorf("operation %s: %w", id.Hex(), err)
		}
		t.log.Info("operation executed", "id", id.Hex(), "executor", caller.Hex())
		publish(ctx, t.store, t.events, &domain.TimelockEvent{
			Type:        domain.EventTypeCallExecuted,
			OperationID: id,
			Calls:       len(op.Calls),
			Actor:       caller,
		})
		return nil
	})
}

// Cancel cancels a pending operation
func (t *TimelockController) Cancel(ctx context.Context, caller common.Address, id common.Hash) error {
	if err := requireRole(ctx, t.roles, domain.RoleCanceller, caller); err != nil {
		return err
	}
	return t.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		op, ok := st.Timelock[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrOperationNotFound, id.Hex())
		}
		if op.Done {
			return fmt.Errorf("operation %s: %w", id.Hex(), domain.ErrAlreadyExecuted)
		}
		if op.Canceled {
			return fmt.Errorf("operation %s: %w", id.Hex(), domain.ErrAlreadyCanceled)
		}
		op.Canceled = true
		t.log.Info("operation canceled", "id", id.Hex(), "by", caller.Hex())
		publish(ctx, t.store, t.events, &domain.TimelockEvent{
			Type:        domain.EventTypeOperationCanceled,
			OperationID: id,
			Calls:       len(op.Calls),
			Actor:       caller,
		})
		return nil
	})
}

// Operation returns a copy of a scheduled operation
func (t *TimelockController) Operation(ctx context.Context, id common.Hash) (*models.TimelockOperation, error) {
	var op *models.TimelockOperation
	err := t.store.View(ctx, func(st *models.State) error {
		found, ok := st.Timelock[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrOperationNotFound, id.Hex())
		}
		cp := *found
		op = &cp
		return nil
	})
	return op, err
}

// IsOperationReady reports whether an operation can execute now
func (t *TimelockController) IsOperationReady(ctx context.Context, id common.Hash) (bool, error) {
	var ready bool
	err := t.store.View(ctx, func(st *models.State) error {
		ready = st.Timelock[id].StateAt(t.clock.Now()) == models.OperationStateReady
		return nil
	})
	return ready, err
}

// ListOperations returns every operation ordered by ready time
func (t *TimelockController) ListOperations(ctx context.Context) ([]*models.TimelockOperation, error) {
	var ops []*models.TimelockOperation
	err := t.store.View(ctx, func(st *models.State) error {
		for _, op := range st.Timelock {
			cp := *op
			ops = append(ops, &cp)
		}
		return nil
	})
	sort.Slice(ops, func(i, j int) bool { return ops[i].Timestamp.Before(ops[j].Timestamp) })
	return ops, err
}

func splitCalls(calls []models.Call) ([]common.Address, []*big.Int, [][]byte) {
	targets := make([]common.Address, len(calls))
	values := make([]*big.Int, len(calls))
	payloads := make([][]byte, len(calls))
	for i, c := range calls {
		targets[i] = c.Target
		values[i] = c.Value
		payloads[i] = c.Data
	}
	return targets, values, payloads
}
