package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// Registry is the local proxy and code registry kept in the governance state.
// It stands in for the chain when upgrades are exercised without a node.
type Registry struct {
	store usecase.StateStore
	clock usecase.Clock
	log   *slog.Logger
}

// NewRegistry creates a new proxy registry
func NewRegistry(store usecase.StateStore, clock usecase.Clock, log *slog.Logger) *Registry {
	return &Registry{
		store: store,
		clock: clock,
		log:   log.With("component", "ProxyRegistry"),
	}
}

// IsContract reports whether addr is a registered contract or proxy
func (r *Registry) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	var ok bool
	err := r.store.View(ctx, func(st *models.State) error {
		_, isContract := st.Contracts[addr]
		_, isProxy := st.Proxies[addr]
		ok = isContract || isProxy
		return nil
	})
	return ok, err
}

func (r *Registry) proxy(ctx context.Context, addr common.Address) (*models.ProxyInfo, error) {
	var info *models.ProxyInfo
	err := r.store.View(ctx, func(st *models.State) error {
		p, ok := st.Proxies[addr]
		if !ok {
			return fmt.Errorf("proxy %s %w", addr.Hex(), domain.ErrNotFound)
		}
		cp := *p
		info = &cp
		return nil
	})
	return info, err
}

// Implementation returns the current implementation of proxy
func (r *Registry) Implementation(ctx context.Context, proxy common.Address) (common.Address, error) {
	p, err := r.proxy(ctx, proxy)
	if err != nil {
		return common.Address{}, err
	}
	return p.Implementation, nil
}

// Admin returns the admin of proxy
func (r *Registry) Admin(ctx context.Context, proxy common.Address) (common.Address, error) {
	p, err := r.proxy(ctx, proxy)
	if err != nil {
		return common.Address{}, err
	}
	return p.Admin, nil
}

// UpgradeAndCall points proxy at implementation through its admin and records
// the upgrade in the proxy history
func (r *Registry) UpgradeAndCall(ctx context.Context, admin, proxy, implementation common.Address, data []byte) error {
	return r.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		p, ok := st.Proxies[proxy]
		if !ok {
			return fmt.Errorf("proxy %s %w", proxy.Hex(), domain.ErrNotFound)
		}
		if p.Admin != admin {
			return fmt.Errorf("%w: %s does not administer %s", domain.ErrInvalidProxyAdmin, admin.Hex(), proxy.Hex())
		}
		if _, ok := st.Contracts[implementation]; !ok {
			return fmt.Errorf("implementation %s: %w", implementation.Hex(), domain.ErrNotAContract)
		}
		p.History = append(p.History, models.ProxyUpgrade{
			From:       p.Implementation,
			To:         implementation,
			CallData:   append([]byte(nil), data...),
			UpgradedAt: r.clock.Now(),
		})
		p.Implementation = implementation
		r.log.Info("proxy upgraded", "proxy", proxy.Hex(), "implementation", implementation.Hex(), "withCall", len(data) > 0)
		return nil
	})
}

// RegisterContract records code at addr under label
func (r *Registry) RegisterContract(ctx context.Context, addr common.Address, label string) error {
	if addr == (common.Address{}) {
		return fmt.Errorf("contract: %w", domain.ErrZeroAddress)
	}
	return r.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		st.Contracts[addr] = label
		return nil
	})
}

// RegisterProxy records a proxy with its implementation and admin
func (r *Registry) RegisterProxy(ctx context.Context, info models.ProxyInfo) error {
	if info.Address == (common.Address{}) {
		return fmt.Errorf("proxy: %w", domain.ErrZeroAddress)
	}
	return r.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if _, exists := st.Proxies[info.Address]; exists {
			return fmt.Errorf("proxy %s already registered", info.Address.Hex())
		}
		if info.History == nil {
			info.History = []models.ProxyUpgrade{}
		}
		st.Proxies[info.Address] = &info
		if _, ok := st.Contracts[info.Address]; !ok {
			st.Contracts[info.Address] = "proxy"
		}
		r.log.Info("proxy registered", "proxy", info.Address.Hex(), "implementation", info.Implementation.Hex())
		return nil
	})
}

// List returns all registered proxies ordered by address
func (r *Registry) List(ctx context.Context) ([]*models.ProxyInfo, error) {
	var out []*models.ProxyInfo
	err := r.store.View(ctx, func(st *models.State) error {
		for _, p := range st.Proxies {
			cp := *p
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Cmp(out[j].Address) < 0 })
	return out, err
}

// Get returns one registered proxy
func (r *Registry) Get(ctx context.Context, addr common.Address) (*models.ProxyInfo, error) {
	return r.proxy(ctx, addr)
}

var (
	_ usecase.ProxyInspector = (*Registry)(nil)
	_ usecase.ProxyUpgrader  = (*Registry)(nil)
	_ usecase.ProxyRegistrar = (*Registry)(nil)
)
