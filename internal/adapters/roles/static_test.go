package roles

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
)

func TestStaticRoleManager(t *testing.T) {
	ctx := context.Background()
	signer := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	other := common.HexToAddress("0x00000000000000000000000000000000000000c2")

	cfg := config.DefaultGovernanceConfig()
	cfg.Roles = map[string][]common.Address{
		"upgrade-signer": {other, signer},
	}
	m := NewStaticRoleManager(cfg)

	ok, err := m.HasRole(ctx, domain.RoleID(domain.RoleUpgradeSigner), signer)
	require.NoError(t, err)
	assert.True(t, ok, "config role names are normalized")

	ok, err = m.HasRole(ctx, domain.RoleID(domain.RoleMinter), signer)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []common.Address{signer, other}, m.Members(domain.RoleUpgradeSigner))

	for _, role := range timelockRoles {
		ok, err := m.HasRole(ctx, domain.RoleID(role), cfg.Timelock.Address)
		require.NoError(t, err)
		assert.True(t, ok, "timelock holds %s", role)
	}
	for _, role := range governorRoles {
		ok, err := m.HasRole(ctx, domain.RoleID(role), cfg.Governor.Address)
		require.NoError(t, err)
		assert.True(t, ok, "governor holds %s", role)
	}
	ok, err = m.HasRole(ctx, domain.RoleID(domain.RoleUpgradeSigner), cfg.Timelock.Address)
	require.NoError(t, err)
	assert.False(t, ok, "signing stays with people")

	m.Grant("minter", other)
	ok, err = m.HasRole(ctx, domain.RoleID(domain.RoleMinter), other)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRoleNames(t *testing.T) {
	assert.Equal(t, domain.RoleUpgradeSigner, domain.NormalizeRoleName(" upgrade-signer "))
	assert.Equal(t, domain.RoleMinter, domain.NormalizeRoleName("MINTER_ROLE"))
	assert.Equal(t, domain.RoleEmergency, domain.RoleName(domain.RoleID("emergency")))

	unknown := common.HexToHash("0x01")
	assert.Equal(t, unknown.Hex(), domain.RoleName(unknown))
}
