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

// usageWindow is the length of one daily-usage accounting window
const usageWindow = 24 * time.Hour

// ExecutorManager keeps the allow-list of addresses permitted to execute
// privileged actions, with per-address daily usage and an emergency freeze
type ExecutorManager struct {
	address    common.Address
	dailyLimit uint64
	cooldown   time.Duration
	store      StateStore
	roles      RoleManager
	clock      Clock
	events     EventSink
	log        *slog.Logger
}

// NewExecutorManager creates a new ExecutorManager and registers it as a call target
func NewExecutorManager(
	cfg *config.GovernanceConfig,
	store StateStore,
	roles RoleManager,
	router *CallRouter,
	clock Clock,
	events EventSink,
	log *slog.Logger,
) *ExecutorManager {
	m := &ExecutorManager{
		address:    cfg.Executors.Address,
		dailyLimit: cfg.Executors.DailyLimit,
		cooldown:   cfg.Executors.Cooldown,
		store:      store,
		roles:      roles,
		clock:      clock,
		events:     events,
		log:        log.With("component", "ExecutorManager"),
	}
	router.Register(m.address, m)
	return m
}

// Address returns the call-routing address of the manager
func (m *ExecutorManager) Address() common.Address {
	return m.address
}

// DailyLimit returns the per-executor execution limit per window
func (m *ExecutorManager) DailyLimit() uint64 {
	return m.dailyLimit
}

func (m *ExecutorManager) checkCooldown(reg *models.ExecutorRegistry, now time.Time) error {
	if reg.LastModified.IsZero() {
		return nil
	}
	if next := reg.LastModified.Add(m.cooldown); now.Before(next) {
		return fmt.Errorf("%w: next modification allowed at %s", domain.ErrCooldownActive, next.Format(time.RFC3339))
	}
	return nil
}

// AddExecutor adds an address to the allow-list
func (m *ExecutorManager) AddExecutor(ctx context.Context, caller, executor common.Address) error {
	if err := requireRole(ctx, m.roles, domain.RoleExecutorAdmin, caller); err != nil {
		return err
	}
	if executor == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	return m.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		now := m.clock.Now()
		if err := m.checkCooldown(&st.Executors, now); err != nil {
			return err
		}
		if rec, ok := st.Executors.Executors[executor]; ok && rec.Enabled {
			return fmt.Errorf("%w: %s", domain.ErrExecutorAlreadyListed, executor.Hex())
		}
		addExecutor(st, executor, now)
		m.log.Info("executor added", "executor", executor.Hex(), "by", caller.Hex())
		publish(ctx, m.store, m.events, &domain.ExecutorChangedEvent{Executor: executor, Enabled: true, Actor: caller})
		return nil
	})
}

func addExecutor(st *models.State, executor common.Address, now time.Time) {
	st.Executors.Executors[executor] = &models.ExecutorRecord{
		Address:   executor,
		Enabled:   true,
		LastReset: now,
		AddedAt:   now,
	}
	st.Executors.LastModified = now
}

// RemoveExecutor removes an address from the allow-list
func (m *ExecutorManager) RemoveExecutor(ctx context.Context, caller, executor common.Address) error {
	if err := requireRole(ctx, m.roles, domain.RoleExecutorAdmin, caller); err != nil {
		return err
	}
	return m.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		now := m.clock.Now()
		if err := m.checkCooldown(&st.Executors, now); err != nil {
			return err
		}
		rec, ok := st.Executors.Executors[executor]
		if !ok || !rec.Enabled {
			return fmt.Errorf("%w: %s", domain.ErrExecutorNotAuthorized, executor.Hex())
		}
		rec.Enabled = false
		st.Executors.LastModified = now
		m.log.Info("executor removed", "executor", executor.Hex(), "by", caller.Hex())
		publish(ctx, m.store, m.events, &domain.ExecutorChangedEvent{Executor: executor, Enabled: false, Actor: caller})
		return nil
	})
}

// RecordExecution counts one privileged execution against executor's daily budget
func (m *ExecutorManager) RecordExecution(ctx context.Context, executor common.Address) error {
	return m.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if st.Executors.Frozen {
			return domain.ErrEmergencyFrozen
		}
		rec, ok := st.Executors.Executors[executor]
		if !ok || !rec.Enabled {
			return fmt.Errorf("%w: %s", domain.ErrExecutorNotAuthorized, executor.Hex())
		}
		now := m.clock.Now()
		if !now.Before(rec.LastReset.Add(usageWindow)) {
			rec.DailyUsage = 0
			rec.LastReset = now
		}
		if rec.DailyUsage >= m.dailyLimit {
			return fmt.Errorf("%w: %s used %d of %d", domain.ErrDailyLimitExceeded, executor.Hex(), rec.DailyUsage, m.dailyLimit)
		}
		rec.DailyUsage++
		rec.TotalRuns++
		m.log.Debug("execution recorded", "executor", executor.Hex(), "usage", rec.DailyUsage, "limit", m.dailyLimit)
		publish(ctx, m.store, m.events, &domain.ExecutionRecordedEvent{
			Executor:   executor,
			DailyUsage: rec.DailyUsage,
			DailyLimit: m.dailyLimit,
		})
		return nil
	})
}

// SetEmergencyFreeze blocks or resumes every recorded execution
func (m *ExecutorManager) SetEmergencyFreeze(ctx context.Context, caller common.Address, frozen bool) error {
	if err := requireRole(ctx, m.roles, domain.RoleEmergency, caller); err != nil {
		return err
	}
	return m.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if st.Executors.Frozen == frozen {
			return nil
		}
		st.Executors.Frozen = frozen
		if frozen {
			now := m.clock.Now()
			st.Executors.FrozenAt = &now
		} else {
			st.Executors.FrozenAt = nil
		}
		m.log.Warn("emergency freeze changed", "frozen", frozen, "by", caller.Hex())
		publish(ctx, m.store, m.events, &domain.EmergencyFreezeChangedEvent{Frozen: frozen, Actor: caller})
		return nil
	})
}

// IsExecutor reports whether executor is on the allow-list
func (m *ExecutorManager) IsExecutor(ctx context.Context, executor common.Address) (bool, error) {
	var listed bool
	err := m.store.View(ctx, func(st *models.State) error {
		rec, ok := st.Executors.Executors[executor]
		listed = ok && rec.Enabled
		return nil
	})
	return listed, err
}

// Executor returns the allow-list record for executor, including removed ones
func (m *ExecutorManager) Executor(ctx context.Context, executor common.Address) (*models.ExecutorRecord, error) {
	var rec *models.ExecutorRecord
	err := m.store.View(ctx, func(st *models.State) error {
		found, ok := st.Executors.Executors[executor]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrExecutorNotAuthorized, executor.Hex())
		}
		cp := *found
		rec = &cp
		return nil
	})
	return rec, err
}

// RemainingExecutions returns how many executions executor has left in the
// current window; zero when unlisted or frozen
func (m *ExecutorManager) RemainingExecutions(ctx context.Context, executor common.Address) (uint64, error) {
	var remaining uint64
	err := m.store.View(ctx, func(st *models.State) error {
		rec, ok := st.Executors.Executors[executor]
		if st.Executors.Frozen || !ok || !rec.Enabled {
			return nil
		}
		used := rec.DailyUsage
		if !m.clock.Now().Before(rec.LastReset.Add(usageWindow)) {
			used = 0
		}
		if used < m.dailyLimit {
			remaining = m.dailyLimit - used
		}
		return nil
	})
	return remaining, err
}

// ExecutorStatus is a read view over the allow-list
type ExecutorStatus struct {
	Frozen       bool
	LastModified time.Time
	CooldownEnds time.Time
	DailyLimit   uint64
	Executors    []*models.ExecutorRecord
}

// ListExecutors returns the allow-list and its global state
func (m *ExecutorManager) ListExecutors(ctx context.Context) (*ExecutorStatus, error) {
	status := &ExecutorStatus{DailyLimit: m.dailyLimit}
	err := m.store.View(ctx, func(st *models.State) error {
		status.Frozen = st.Executors.Frozen
		status.LastModified = st.Executors.LastModified
		if !st.Executors.LastModified.IsZero() {
			status.CooldownEnds = st.Executors.LastModified.Add(m.cooldown)
		}
		for _, rec := range st.Executors.Executors {
			cp := *rec
			status.Executors = append(status.Executors, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(status.Executors, func(i, j int) bool {
		return status.Executors[i].AddedAt.Before(status.Executors[j].AddedAt)
	})
	return status, nil
}

// HandleCall executes a governance call addressed to the manager
func (m *ExecutorManager) HandleCall(ctx context.Context, sender common.Address, value *big.Int, data []byte) error {
	call, err := decodeCall(value, data)
	if err != nil {
		return err
	}
	switch call.Method {
	case bindings.MethodAddExecutor, bindings.MethodRemoveExecutor:
		executor, err := call.Address("executor")
		if err != nil {
			return err
		}
		if call.Method == bindings.MethodAddExecutor {
			return m.AddExecutor(ctx, sender, executor)
		}
		return m.RemoveExecutor(ctx, sender, executor)
	case bindings.MethodSetEmergencyFreeze:
		frozen, err := call.Bool("frozen")
		if err != nil {
			return err
		}
		return m.SetEmergencyFreeze(ctx, sender, frozen)
	default:
		return fmt.Errorf("%w: %s on executor manager", domain.ErrUnknownSelector, call.Method)
	}
}
