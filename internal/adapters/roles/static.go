package roles

import (
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// timelockRoles are held by the timelock so queued proposals can drive every component
var timelockRoles = []string{
	domain.RoleGovernance,
	domain.RoleUpgradeProposer,
	domain.RoleUpgradeCanceller,
	domain.RoleExecutorAdmin,
	domain.RoleEmergency,
	domain.RoleAdminRegistrar,
	domain.RoleMinter,
}

// governorRoles let the governor queue and cancel its proposals in the timelock
var governorRoles = []string{
	domain.RoleProposer,
	domain.RoleCanceller,
}

// StaticRoleManager answers role checks from the [roles] table of trebgov.toml
type StaticRoleManager struct {
	grants map[common.Hash]map[common.Address]struct{}
}

// NewStaticRoleManager builds the grant table from configuration and adds the
// roles implied by the component wiring
func NewStaticRoleManager(cfg *config.GovernanceConfig) *StaticRoleManager {
	m := &StaticRoleManager{grants: make(map[common.Hash]map[common.Address]struct{})}
	for name, accounts := range cfg.Roles {
		for _, account := range accounts {
			m.Grant(name, account)
		}
	}
	if cfg.Timelock.Address != (common.Address{}) {
		for _, name := range timelockRoles {
			m.Grant(name, cfg.Timelock.Address)
		}
	}
	if cfg.Governor.Address != (common.Address{}) {
		for _, name := range governorRoles {
			m.Grant(name, cfg.Governor.Address)
		}
	}
	return m
}

// Grant gives account the named role
func (m *StaticRoleManager) Grant(name string, account common.Address) {
	id := domain.RoleID(name)
	if m.grants[id] == nil {
		m.grants[id] = make(map[common.Address]struct{})
	}
	m.grants[id][account] = struct{}{}
}

// HasRole reports whether account holds role
func (m *StaticRoleManager) HasRole(_ context.Context, role common.Hash, account common.Address) (bool, error) {
	_, ok := m.grants[role][account]
	return ok, nil
}

// Members lists the holders of a role sorted by address
func (m *StaticRoleManager) Members(name string) []common.Address {
	members := lo.Keys(m.grants[domain.RoleID(name)])
	sort.Slice(members, func(i, j int) bool { return members[i].Cmp(members[j]) < 0 })
	return members
}

var _ usecase.RoleManager = (*StaticRoleManager)(nil)
