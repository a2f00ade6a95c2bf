package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// upgradeGate holds the schedule/execute machinery shared by both upgrade
// authorities. The variants differ only in who may act and how many
// signatures a record needs.
type upgradeGate struct {
	kind      models.UpgradeAuthorityKind
	authority common.Address
	window    time.Duration
	store     StateStore
	inspector ProxyInspector
	upgrader  ProxyUpgrader
	admins    *AdminValidator
	executors *ExecutorManager
	clock     Clock
	events    EventSink
	log       *slog.Logger
	required  func(u *models.PendingUpgrade) int
}

type scheduleRequest struct {
	proxy          common.Address
	implementation common.Address
	data           []byte
	isEmergency    bool
	reason         string
	proposer       common.Address
	delay          time.Duration
	autoSign       bool
}

// schedule stores a new pending upgrade for the proxy. A previous record that
// is executed, cancelled or past its window is overwritten.
func (g *upgradeGate) schedule(ctx context.Context, req scheduleRequest) (*models.PendingUpgrade, error) {
	if req.proxy == (common.Address{}) {
		return nil, fmt.Errorf("proxy: %w", domain.ErrZeroAddress)
	}
	if err := requireContract(ctx, g.inspector, req.implementation); err != nil {
		return nil, fmt.Errorf("implementation: %w", err)
	}

	var scheduled *models.PendingUpgrade
	err := g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		now := g.clock.Now()
		if prev := st.Upgrade(g.kind, req.proxy); prev != nil && !prev.Resolved(now, g.window) {
			return fmt.Errorf("%w: %s (id %s)", domain.ErrUpgradeAlreadyPending, req.proxy.Hex(), prev.ID.Hex())
		}

		nonce := st.UpgradeNonce[g.kind]
		st.UpgradeNonce[g.kind] = nonce + 1
		id, err := bindings.HashUpgrade(g.authority, req.proxy, req.implementation, req.data, nonce)
		if err != nil {
			return err
		}

		u := &models.PendingUpgrade{
			ID:             id,
			Authority:      g.kind,
			Proxy:          req.proxy,
			Implementation: req.implementation,
			Data:           req.data,
			IsEmergency:    req.isEmergency,
			Reason:         req.reason,
			Proposer:       req.proposer,
			ProposedAt:     now,
			ExecuteTime:    now.Add(req.delay),
			Signers:        []common.Address{},
		}
		if req.autoSign {
			u.Signers = append(u.Signers, req.proposer)
		}
		st.PutUpgrade(u)

		g.log.Info("upgrade scheduled",
			"id", id.Hex(),
			"proxy", req.proxy.Hex(),
			"implementation", req.implementation.Hex(),
			"emergency", req.isEmergency,
			"executeTime", u.ExecuteTime)
		publish(ctx, g.store, g.events, g.event(domain.EventTypeUpgradeProposed, u, req.proposer))

		cp := *u
		scheduled = &cp
		return nil
	})
	return scheduled, err
}

// sign adds signer to the record identified by id
func (g *upgradeGate) sign(ctx context.Context, signer common.Address, id common.Hash) (int, int, error) {
	var count, required int
	err := g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		u := st.UpgradeByID(g.kind, id)
		if u == nil {
			return fmt.Errorf("%w: %s", domain.ErrUpgradeNotFound, id.Hex())
		}
		if err := g.checkOpen(u, g.clock.Now()); err != nil {
			return err
		}
		if u.HasSigned(signer) {
			return fmt.Errorf("%w: %s on %s", domain.ErrAlreadySigned, signer.Hex(), id.Hex())
		}
		u.Signers = append(u.Signers, signer)
		count, required = u.SignatureCount(), g.required(u)
		g.log.Info("upgrade signed", "id", id.Hex(), "signer", signer.Hex(), "signatures", count, "required", required)
		publish(ctx, g.store, g.events, g.event(domain.EventTypeUpgradeSigned, u, signer))
		return nil
	})
	return count, required, err
}

// revoke removes signer from the record identified by id
func (g *upgradeGate) revoke(ctx context.Context, signer common.Address, id common.Hash) error {
	return g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		u := st.UpgradeByID(g.kind, id)
		if u == nil {
			return fmt.Errorf("%w: %s", domain.ErrUpgradeNotFound, id.Hex())
		}
		if err := g.checkOpen(u, g.clock.Now()); err != nil {
			return err
		}
		idx := -1
		for i, s := range u.Signers {
			if s == signer {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s on %s", domain.ErrNotSigned, signer.Hex(), id.Hex())
		}
		u.Signers = append(u.Signers[:idx], u.Signers[idx+1:]...)
		g.log.Info("upgrade confirmation revoked", "id", id.Hex(), "signer", signer.Hex())
		return nil
	})
}

// checkOpen rejects records that can no longer change
func (g *upgradeGate) checkOpen(u *models.PendingUpgrade, now time.Time) error {
	switch {
	case u.Executed:
		return fmt.Errorf("upgrade %s: %w", u.ID.Hex(), domain.ErrAlreadyExecuted)
	case u.Canceled:
		return fmt.Errorf("upgrade %s: %w", u.ID.Hex(), domain.ErrAlreadyCanceled)
	case u.Expired(now, g.window):
		return fmt.Errorf("%w: %s expired at %s", domain.ErrUpgradeExpired, u.ID.Hex(),
			u.ExpiresAt(g.window).Format(time.RFC3339))
	}
	return nil
}

// readiness evaluates every execution precondition against st, reading the
// proxy's admin from the inspector so the admin is validated before use
func (g *upgradeGate) readiness(ctx context.Context, st *models.State, proxy common.Address) (*models.PendingUpgrade, common.Address, error) {
	u := st.Upgrade(g.kind, proxy)
	if u == nil {
		return nil, common.Address{}, fmt.Errorf("%w: %s", domain.ErrUpgradeNotFound, proxy.Hex())
	}
	now := g.clock.Now()
	if u.Executed {
		return u, common.Address{}, fmt.Errorf("upgrade %s: %w", u.ID.Hex(), domain.ErrAlreadyExecuted)
	}
	if u.Canceled {
		return u, common.Address{}, fmt.Errorf("upgrade %s: %w", u.ID.Hex(), domain.ErrAlreadyCanceled)
	}
	if now.Before(u.ExecuteTime) {
		return u, common.Address{}, fmt.Errorf("%w: executable at %s", domain.ErrDelayNotMet, u.ExecuteTime.Format(time.RFC3339))
	}
	if u.Expired(now, g.window) {
		return u, common.Address{}, fmt.Errorf("%w: window closed at %s", domain.ErrUpgradeExpired,
			u.ExpiresAt(g.window).Format(time.RFC3339))
	}
	if have, need := u.SignatureCount(), g.required(u); have < need {
		return u, common.Address{}, fmt.Errorf("%w: %d of %d", domain.ErrInsufficientSignatures, have, need)
	}
	admin, err := g.inspector.Admin(ctx, proxy)
	if err != nil {
		return u, common.Address{}, fmt.Errorf("failed to read admin of %s: %w", proxy.Hex(), err)
	}
	valid, err := g.admins.IsValidProxyAdmin(ctx, admin)
	if err != nil {
		return u, admin, err
	}
	if !valid {
		return u, admin, fmt.Errorf("%w: %s", domain.ErrInvalidProxyAdmin, admin.Hex())
	}
	if err := requireContract(ctx, g.inspector, u.Implementation); err != nil {
		return u, admin, fmt.Errorf("implementation: %w", err)
	}
	return u, admin, nil
}

// canExecute reports whether the proxy's upgrade could execute now, with a
// human-readable reason when it cannot
func (g *upgradeGate) canExecute(ctx context.Context, proxy common.Address) (bool, string, error) {
	var (
		ok     bool
		reason string
	)
	err := g.store.View(ctx, func(st *models.State) error {
		u, admin, err := g.readiness(ctx, st, proxy)
		if err == nil {
			ok, reason = true, "ready"
			return nil
		}
		reason = describeReadiness(u, admin, err, g.required)
		if isReadinessError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, "", err
	}
	return ok, reason, nil
}

func isReadinessError(err error) bool {
	for _, target := range []error{
		domain.ErrUpgradeNotFound,
		domain.ErrAlreadyExecuted,
		domain.ErrAlreadyCanceled,
		domain.ErrDelayNotMet,
		domain.ErrUpgradeExpired,
		domain.ErrInsufficientSignatures,
		domain.ErrInvalidProxyAdmin,
		domain.ErrNotAContract,
		domain.ErrZeroAddress,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func describeReadiness(u *models.PendingUpgrade, admin common.Address, err error, required func(*models.PendingUpgrade) int) string {
	switch {
	case errors.Is(err, domain.ErrUpgradeNotFound):
		return "no pending upgrade for proxy"
	case errors.Is(err, domain.ErrAlreadyExecuted):
		return "upgrade already executed"
	case errors.Is(err, domain.ErrAlreadyCanceled):
		return "upgrade was cancelled"
	case errors.Is(err, domain.ErrDelayNotMet):
		return fmt.Sprintf("timelock delay not met, executable at %s", u.ExecuteTime.Format(time.RFC3339))
	case errors.Is(err, domain.ErrUpgradeExpired):
		return "upgrade expired, schedule it again"
	case errors.Is(err, domain.ErrInsufficientSignatures):
		return fmt.Sprintf("insufficient signatures: %d of %d", u.SignatureCount(), required(u))
	case errors.Is(err, domain.ErrInvalidProxyAdmin):
		return fmt.Sprintf("proxy admin %s is not authorized", admin.Hex())
	case errors.Is(err, domain.ErrNotAContract), errors.Is(err, domain.ErrZeroAddress):
		return "implementation has no code"
	default:
		return err.Error()
	}
}

// execute performs the upgrade once every precondition holds. The record is
// marked executed before the proxy is touched.
func (g *upgradeGate) execute(ctx context.Context, caller, proxy common.Address, withCall bool) error {
	return g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		u, admin, err := g.readiness(ctx, st, proxy)
		if err != nil {
			return err
		}
		var data []byte
		if withCall {
			if len(u.Data) == 0 {
				return fmt.Errorf("upgrade %s: %w", u.ID.Hex(), domain.ErrNoUpgradeCall)
			}
			data = u.Data
		}
		if err := g.executors.RecordExecution(ctx, caller); err != nil {
			return err
		}

		now := g.clock.Now()
		u.Executed = true
		u.ExecutedAt = &now
		u.ExecutedBy = caller

		if err := g.upgrader.UpgradeAndCall(ctx, admin, proxy, u.Implementation, data); err != nil {
			return fmt.Errorf("failed to upgrade %s: %w", proxy.Hex(), err)
		}
		got, err := g.inspector.Implementation(ctx, proxy)
		if err != nil {
			return fmt.Errorf("failed to verify upgrade of %s: %w", proxy.Hex(), err)
		}
		if got != u.Implementation {
			return fmt.Errorf("%w: %s points at %s, expected %s",
				domain.ErrUpgradeVerificationFailed, proxy.Hex(), got.Hex(), u.Implementation.Hex())
		}

		g.log.Info("upgrade executed",
			"id", u.ID.Hex(),
			"proxy", proxy.Hex(),
			"implementation", u.Implementation.Hex(),
			"executor", caller.Hex())
		publish(ctx, g.store, g.events, g.event(domain.EventTypeUpgradeExecuted, u, caller))
		return nil
	})
}

// cancel marks the proxy's pending upgrade cancelled
func (g *upgradeGate) cancel(ctx context.Context, caller, proxy common.Address) error {
	return g.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		u := st.Upgrade(g.kind, proxy)
		if u == nil {
			return fmt.Errorf("%w: %s", domain.ErrUpgradeNotFound, proxy.Hex())
		}
		if u.Executed {
			return fmt.Errorf("upgrade %s: %w", u.ID.Hex(), domain.ErrAlreadyExecuted)
		}
		if u.Canceled {
			return fmt.Errorf("upgrade %s: %w", u.ID.Hex(), domain.ErrAlreadyCanceled)
		}
		now := g.clock.Now()
		u.Canceled = true
		u.CanceledAt = &now
		u.CanceledBy = caller
		g.log.Info("upgrade cancelled", "id", u.ID.Hex(), "proxy", proxy.Hex(), "by", caller.Hex())
		publish(ctx, g.store, g.events, g.event(domain.EventTypeUpgradeCanceled, u, caller))
		return nil
	})
}

func (g *upgradeGate) pending(ctx context.Context, proxy common.Address) (*models.PendingUpgrade, error) {
	var out *models.PendingUpgrade
	err := g.store.View(ctx, func(st *models.State) error {
		u := st.Upgrade(g.kind, proxy)
		if u == nil {
			return fmt.Errorf("%w: %s", domain.ErrUpgradeNotFound, proxy.Hex())
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (g *upgradeGate) list(ctx context.Context, filter domain.UpgradeFilter) ([]*models.PendingUpgrade, error) {
	var out []*models.PendingUpgrade
	err := g.store.View(ctx, func(st *models.State) error {
		now := g.clock.Now()
		for _, u := range st.UpgradesOf(g.kind) {
			status := u.StatusAt(now, g.window)
			if filter.Proxy != (common.Address{}) && u.Proxy != filter.Proxy {
				continue
			}
			if filter.Status != "" && status != filter.Status {
				continue
			}
			if !filter.IncludeDone && filter.Status == "" &&
				(status == models.UpgradeStatusExecuted || status == models.UpgradeStatusCanceled) {
				continue
			}
			cp := *u
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (g *upgradeGate) event(t domain.EventType, u *models.PendingUpgrade, actor common.Address) *domain.UpgradeEvent {
	return &domain.UpgradeEvent{
		Type:           t,
		Authority:      g.kind,
		UpgradeID:      u.ID,
		Proxy:          u.Proxy,
		Implementation: u.Implementation,
		Actor:          actor,
		Signatures:     u.SignatureCount(),
		Required:       g.required(u),
	}
}
