package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// AdminValidator registers the proxy admin contracts upgrades may trust
type AdminValidator struct {
	address   common.Address
	store     StateStore
	roles     RoleManager
	inspector ProxyInspector
	clock     Clock
	events    EventSink
	log       *slog.Logger
}

// NewAdminValidator creates a new AdminValidator and registers it as a call target
func NewAdminValidator(
	cfg *config.GovernanceConfig,
	store StateStore,
	roles RoleManager,
	inspector ProxyInspector,
	router *CallRouter,
	clock Clock,
	events EventSink,
	log *slog.Logger,
) *AdminValidator {
	v := &AdminValidator{
		address:   cfg.Admins.Address,
		store:     store,
		roles:     roles,
		inspector: inspector,
		clock:     clock,
		events:    events,
		log:       log.With("component", "AdminValidator"),
	}
	router.Register(v.address, v)
	return v
}

// Address returns the call-routing address of the validator
func (v *AdminValidator) Address() common.Address {
	return v.address
}

// AuthorizeProxyAdminParams contains parameters for registering an admin
type AuthorizeProxyAdminParams struct {
	Admin       common.Address
	Name        string
	Owner       common.Address
	Description string
}

// AuthorizeProxyAdmin registers admin. Registration is write-once per address.
func (v *AdminValidator) AuthorizeProxyAdmin(ctx context.Context, caller common.Address, params AuthorizeProxyAdminParams) error {
	if err := requireRole(ctx, v.roles, domain.RoleAdminRegistrar, caller); err != nil {
		return err
	}
	if params.Owner == (common.Address{}) {
		return fmt.Errorf("admin owner: %w", domain.ErrZeroAddress)
	}
	if err := requireContract(ctx, v.inspector, params.Admin); err != nil {
		return err
	}

	return v.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if _, exists := st.Admins[params.Admin]; exists {
			return fmt.Errorf("%w: %s", domain.ErrAdminAlreadyAuthorized, params.Admin.Hex())
		}
		st.Admins[params.Admin] = &models.AuthorizedAdmin{
			Address:      params.Admin,
			Name:         params.Name,
			Owner:        params.Owner,
			Description:  params.Description,
			RegisteredAt: v.clock.Now(),
			RegisteredBy: caller,
			Active:       true,
		}
		v.log.Info("proxy admin authorized", "admin", params.Admin.Hex(), "name", params.Name)
		publish(ctx, v.store, v.events, &domain.ProxyAdminEvent{
			Type:  domain.EventTypeProxyAdminAuthorized,
			Admin: params.Admin,
			Name:  params.Name,
			Actor: caller,
		})
		return nil
	})
}

// RevokeProxyAdmin deactivates a registered admin. The record is kept, so the
// address can never be registered again.
func (v *AdminValidator) RevokeProxyAdmin(ctx context.Context, caller, admin common.Address) error {
	if err := requireRole(ctx, v.roles, domain.RoleAdminRegistrar, caller); err != nil {
		return err
	}
	return v.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		rec, ok := st.Admins[admin]
		if !ok || !rec.Active {
			return fmt.Errorf("%w: %s", domain.ErrAdminNotAuthorized, admin.Hex())
		}
		now := v.clock.Now()
		rec.Active = false
		rec.RevokedAt = &now
		v.log.Info("proxy admin revoked", "admin", admin.Hex())
		publish(ctx, v.store, v.events, &domain.ProxyAdminEvent{
			Type:  domain.EventTypeProxyAdminRevoked,
			Admin: admin,
			Name:  rec.Name,
			Actor: caller,
		})
		return nil
	})
}

// IsValidProxyAdmin reports whether admin is registered and active
func (v *AdminValidator) IsValidProxyAdmin(ctx context.Context, admin common.Address) (bool, error) {
	var valid bool
	err := v.store.View(ctx, func(st *models.State) error {
		valid = isValidAdmin(st, admin)
		return nil
	})
	return valid, err
}

func isValidAdmin(st *models.State, admin common.Address) bool {
	rec, ok := st.Admins[admin]
	return ok && rec.Active
}

// ProxyValidation is the result of validating a proxy's admin
type ProxyValidation struct {
	Proxy          common.Address
	Admin          common.Address
	Implementation common.Address
	Valid          bool
	Registered     *models.AuthorizedAdmin
}

// ValidateProxy reads the proxy's admin and checks it against the registry
func (v *AdminValidator) ValidateProxy(ctx context.Context, proxy common.Address) (*ProxyValidation, error) {
	admin, err := v.inspector.Admin(ctx, proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin of %s: %w", proxy.Hex(), err)
	}
	impl, err := v.inspector.Implementation(ctx, proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to read implementation of %s: %w", proxy.Hex(), err)
	}
	result := &ProxyValidation{Proxy: proxy, Admin: admin, Implementation: impl}
	err = v.store.View(ctx, func(st *models.State) error {
		if rec, ok := st.Admins[admin]; ok {
			cp := *rec
			result.Registered = &cp
		}
		result.Valid = isValidAdmin(st, admin)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAdmins returns every registered admin, ordered by registration time
func (v *AdminValidator) ListAdmins(ctx context.Context) ([]*models.AuthorizedAdmin, error) {
	var admins []*models.AuthorizedAdmin
	err := v.store.View(ctx, func(st *models.State) error {
		for _, rec := range st.Admins {
			cp := *rec
			admins = append(admins, &cp)
		}
		return nil
	})
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].RegisteredAt.Before(admins[j].RegisteredAt)
	})
	return admins, err
}

// HandleCall executes a governance call addressed to the validator
func (v *AdminValidator) HandleCall(ctx context.Context, sender common.Address, value *big.Int, data []byte) error {
	call, err := decodeCall(value, data)
	if err != nil {
		return err
	}
	switch call.Method {
	case bindings.MethodAuthorizeProxyAdmin:
		var params AuthorizeProxyAdminParams
		if params.Admin, err = call.Address("admin"); err != nil {
			return err
		}
		if params.Name, err = call.String("name"); err != nil {
			return err
		}
		if params.Owner, err = call.Address("owner"); err != nil {
			return err
		}
		if params.Description, err = call.String("description"); err != nil {
			return err
		}
		return v.AuthorizeProxyAdmin(ctx, sender, params)
	case bindings.MethodRevokeProxyAdmin:
		admin, err := call.Address("admin")
		if err != nil {
			return err
		}
		return v.RevokeProxyAdmin(ctx, sender, admin)
	default:
		return fmt.Errorf("%w: %s on admin validator", domain.ErrUnknownSelector, call.Method)
	}
}
