package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// UpgradeAuthority is the timelock-integrated upgrade authority. Upgrades are
// scheduled by the timelock, signed by role holders and executed by
// allow-listed executors once the delay has elapsed.
type UpgradeAuthority struct {
	gate           *upgradeGate
	roles          RoleManager
	required       int
	standardDelay  time.Duration
	emergencyDelay time.Duration
}

// NewUpgradeAuthority creates a new UpgradeAuthority and registers it as a call target
func NewUpgradeAuthority(
	cfg *config.GovernanceConfig,
	store StateStore,
	roles RoleManager,
	inspector ProxyInspector,
	upgrader ProxyUpgrader,
	admins *AdminValidator,
	executors *ExecutorManager,
	router *CallRouter,
	clock Clock,
	events EventSink,
	log *slog.Logger,
) *UpgradeAuthority {
	required := cfg.Upgrade.RequiredSignatures
	a := &UpgradeAuthority{
		gate: &upgradeGate{
			kind:      models.UpgradeAuthorityTimelock,
			authority: cfg.Upgrade.Address,
			window:    cfg.Upgrade.ExecutionWindow,
			store:     store,
			inspector: inspector,
			upgrader:  upgrader,
			admins:    admins,
			executors: executors,
			clock:     clock,
			events:    events,
			log:       log.With("component", "UpgradeAuthority"),
			required:  func(*models.PendingUpgrade) int { return required },
		},
		roles:          roles,
		required:       required,
		standardDelay:  cfg.Upgrade.StandardDelay,
		emergencyDelay: cfg.Upgrade.EmergencyDelay,
	}
	router.Register(a.Address(), a)
	return a
}

// Address returns the call-routing address of the authority
func (a *UpgradeAuthority) Address() common.Address {
	return a.gate.authority
}

// RequiredSignatures returns the signature threshold
func (a *UpgradeAuthority) RequiredSignatures() int {
	return a.required
}

// Delay returns the delay applied to a standard or emergency upgrade
func (a *UpgradeAuthority) Delay(isEmergency bool) time.Duration {
	if isEmergency {
		return a.emergencyDelay
	}
	return a.standardDelay
}

// ScheduleUpgradeParams contains parameters for scheduling an upgrade
type ScheduleUpgradeParams struct {
	Proxy          common.Address
	Implementation common.Address
	Data           []byte
	IsEmergency    bool
	Reason         string
}

// ScheduleUpgrade records a pending upgrade for the proxy
func (a *UpgradeAuthority) ScheduleUpgrade(ctx context.Context, caller common.Address, params ScheduleUpgradeParams) (*models.PendingUpgrade, error) {
	if err := requireRole(ctx, a.roles, domain.RoleUpgradeProposer, caller); err != nil {
		return nil, err
	}
	return a.gate.schedule(ctx, scheduleRequest{
		proxy:          params.Proxy,
		implementation: params.Implementation,
		data:           params.Data,
		isEmergency:    params.IsEmergency,
		reason:         params.Reason,
		proposer:       caller,
		delay:          a.Delay(params.IsEmergency),
	})
}

// SignUpgrade adds the caller's signature and returns the running count
// against the required threshold
func (a *UpgradeAuthority) SignUpgrade(ctx context.Context, caller common.Address, id common.Hash) (int, int, error) {
	if err := requireRole(ctx, a.roles, domain.RoleUpgradeSigner, caller); err != nil {
		return 0, 0, err
	}
	return a.gate.sign(ctx, caller, id)
}

// CanExecuteUpgrade reports whether the proxy's pending upgrade can execute now
func (a *UpgradeAuthority) CanExecuteUpgrade(ctx context.Context, proxy common.Address) (bool, string, error) {
	return a.gate.canExecute(ctx, proxy)
}

// ExecuteUpgrade swaps the proxy's implementation without a follow-up call
func (a *UpgradeAuthority) ExecuteUpgrade(ctx context.Context, caller, proxy common.Address) error {
	return a.gate.execute(ctx, caller, proxy, false)
}

// ExecuteUpgradeWithCall swaps the implementation and runs the scheduled call data
func (a *UpgradeAuthority) ExecuteUpgradeWithCall(ctx context.Context, caller, proxy common.Address) error {
	return a.gate.execute(ctx, caller, proxy, true)
}

// CancelUpgrade cancels the proxy's pending upgrade
func (a *UpgradeAuthority) CancelUpgrade(ctx context.Context, caller, proxy common.Address) error {
	if err := requireRole(ctx, a.roles, domain.RoleUpgradeCanceller, caller); err != nil {
		return err
	}
	return a.gate.cancel(ctx, caller, proxy)
}

// PendingUpgrade returns the upgrade record of the proxy
func (a *UpgradeAuthority) PendingUpgrade(ctx context.Context, proxy common.Address) (*models.PendingUpgrade, error) {
	return a.gate.pending(ctx, proxy)
}

// ListUpgrades returns the authority's upgrade records
func (a *UpgradeAuthority) ListUpgrades(ctx context.Context, filter domain.UpgradeFilter) ([]*models.PendingUpgrade, error) {
	return a.gate.list(ctx, filter)
}

// ExecutionWindow returns how long an upgrade stays executable
func (a *UpgradeAuthority) ExecutionWindow() time.Duration {
	return a.gate.window
}

// HandleCall executes a governance call addressed to the authority
func (a *UpgradeAuthority) HandleCall(ctx context.Context, sender common.Address, value *big.Int, data []byte) error {
	call, err := decodeCall(value, data)
	if err != nil {
		return err
	}
	switch call.Method {
	case bindings.MethodScheduleUpgrade:
		var params ScheduleUpgradeParams
		if params.Proxy, err = call.Address("proxy"); err != nil {
			return err
		}
		if params.Implementation, err = call.Address("newImplementation"); err != nil {
			return err
		}
		if params.Data, err = call.Bytes("data"); err != nil {
			return err
		}
		if params.IsEmergency, err = call.Bool("isEmergency"); err != nil {
			return err
		}
		if params.Reason, err = call.String("reason"); err != nil {
			return err
		}
		_, err = a.ScheduleUpgrade(ctx, sender, params)
		return err
	case bindings.MethodCancelUpgrade:
		proxy, err := call.Address("proxy")
		if err != nil {
			return err
		}
		return a.CancelUpgrade(ctx, sender, proxy)
	default:
		return fmt.Errorf("%w: %s on upgrade authority", domain.ErrUnknownSelector, call.Method)
	}
}
