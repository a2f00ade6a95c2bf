package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// MultisigUpgrader is the standalone upgrade authority governed by a fixed
// owner set. Owners propose and confirm; emergency upgrades need the higher
// emergency threshold but wait only the emergency delay.
type MultisigUpgrader struct {
	gate               *upgradeGate
	owners             []common.Address
	threshold          int
	emergencyThreshold int
	standardDelay      time.Duration
	emergencyDelay     time.Duration
}

// NewMultisigUpgrader creates a new MultisigUpgrader
func NewMultisigUpgrader(
	cfg *config.GovernanceConfig,
	store StateStore,
	inspector ProxyInspector,
	upgrader ProxyUpgrader,
	admins *AdminValidator,
	executors *ExecutorManager,
	clock Clock,
	events EventSink,
	log *slog.Logger,
) *MultisigUpgrader {
	m := &MultisigUpgrader{
		owners:             append([]common.Address(nil), cfg.Multisig.Owners...),
		threshold:          cfg.Multisig.Threshold,
		emergencyThreshold: cfg.Multisig.EmergencyThreshold,
		standardDelay:      cfg.Upgrade.StandardDelay,
		emergencyDelay:     cfg.Upgrade.EmergencyDelay,
	}
	m.gate = &upgradeGate{
		kind:      models.UpgradeAuthorityMultisig,
		authority: cfg.Multisig.Address,
		window:    cfg.Upgrade.ExecutionWindow,
		store:     store,
		inspector: inspector,
		upgrader:  upgrader,
		admins:    admins,
		executors: executors,
		clock:     clock,
		events:    events,
		log:       log.With("component", "MultisigUpgrader"),
		required:  m.requiredFor,
	}
	return m
}

func (m *MultisigUpgrader) requiredFor(u *models.PendingUpgrade) int {
	if u != nil && u.IsEmergency {
		return m.emergencyThreshold
	}
	return m.threshold
}

// Owners returns the owner set
func (m *MultisigUpgrader) Owners() []common.Address {
	return append([]common.Address(nil), m.owners...)
}

// Threshold returns the standard and emergency confirmation thresholds
func (m *MultisigUpgrader) Threshold() (int, int) {
	return m.threshold, m.emergencyThreshold
}

// IsOwner reports whether account is an owner
func (m *MultisigUpgrader) IsOwner(account common.Address) bool {
	return lo.Contains(m.owners, account)
}

func (m *MultisigUpgrader) requireOwner(account common.Address) error {
	if !m.IsOwner(account) {
		return &domain.UnauthorizedError{Account: account, Capability: "multisig owner"}
	}
	return nil
}

// ProposeUpgrade records a pending upgrade; the proposer's confirmation is counted
func (m *MultisigUpgrader) ProposeUpgrade(ctx context.Context, caller common.Address, params ScheduleUpgradeParams) (*models.PendingUpgrade, error) {
	if err := m.requireOwner(caller); err != nil {
		return nil, err
	}
	delay := m.standardDelay
	if params.IsEmergency {
		delay = m.emergencyDelay
	}
	return m.gate.schedule(ctx, scheduleRequest{
		proxy:          params.Proxy,
		implementation: params.Implementation,
		data:           params.Data,
		isEmergency:    params.IsEmergency,
		reason:         params.Reason,
		proposer:       caller,
		delay:          delay,
		autoSign:       true,
	})
}

// ConfirmUpgrade adds the caller's confirmation and returns the running count
func (m *MultisigUpgrader) ConfirmUpgrade(ctx context.Context, caller common.Address, id common.Hash) (int, int, error) {
	if err := m.requireOwner(caller); err != nil {
		return 0, 0, err
	}
	return m.gate.sign(ctx, caller, id)
}

// RevokeConfirmation withdraws the caller's confirmation
func (m *MultisigUpgrader) RevokeConfirmation(ctx context.Context, caller common.Address, id common.Hash) error {
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	return m.gate.revoke(ctx, caller, id)
}

// CanExecuteUpgrade reports whether the proxy's pending upgrade can execute now
func (m *MultisigUpgrader) CanExecuteUpgrade(ctx context.Context, proxy common.Address) (bool, string, error) {
	return m.gate.canExecute(ctx, proxy)
}

// ExecuteUpgrade performs the upgrade. The caller must be an owner and an
// allow-listed executor.
func (m *MultisigUpgrader) ExecuteUpgrade(ctx context.Context, caller, proxy common.Address) error {
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	return m.gate.execute(ctx, caller, proxy, false)
}

// ExecuteUpgradeWithCall performs the upgrade and runs the proposed call data
func (m *MultisigUpgrader) ExecuteUpgradeWithCall(ctx context.Context, caller, proxy common.Address) error {
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	return m.gate.execute(ctx, caller, proxy, true)
}

// CancelUpgrade cancels the proxy's pending upgrade
func (m *MultisigUpgrader) CancelUpgrade(ctx context.Context, caller, proxy common.Address) error {
	if err := m.requireOwner(caller); err != nil {
		return err
	}
	return m.gate.cancel(ctx, caller, proxy)
}

// PendingUpgrade returns the upgrade record of the proxy
func (m *MultisigUpgrader) PendingUpgrade(ctx context.Context, proxy common.Address) (*models.PendingUpgrade, error) {
	return m.gate.pending(ctx, proxy)
}

// ListUpgrades returns the multisig's upgrade records
func (m *MultisigUpgrader) ListUpgrades(ctx context.Context, filter domain.UpgradeFilter) ([]*models.PendingUpgrade, error) {
	return m.gate.list(ctx, filter)
}

// RequiredFor returns the confirmations an upgrade needs
func (m *MultisigUpgrader) RequiredFor(u *models.PendingUpgrade) int {
	return m.requiredFor(u)
}

// ExecutionWindow returns how long an upgrade stays executable
func (m *MultisigUpgrader) ExecutionWindow() time.Duration {
	return m.gate.window
}
