package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

func TestLoadTrebGovConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		loaded, err := LoadTrebGovConfig(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, loaded.Path)
		assert.Nil(t, loaded.Network)
		assert.Equal(t, config.DefaultGovernanceConfig(), loaded.Governance)
	})

	t.Run("overlays file values on defaults", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("TREBGOV_TEST_RPC", "http://localhost:8545")
		trebgovToml := `
council = ["0x00000000000000000000000000000000000000c1"]

[network]
name = "local"
chain_id = 31337
rpc_url = "${TREBGOV_TEST_RPC}"

[governor]
voting_delay = 1
voting_period = 100
privileged_multisig = "0x00000000000000000000000000000000000000aa"

[governor.quorum_bps]
standard = 300

[governor.execution_delay]
emergency = "12h"

[upgrade]
standard_delay = "3d"
emergency_delay = "1d12h"

[multisig]
owners = [
  "0x0000000000000000000000000000000000000001",
  "0x0000000000000000000000000000000000000002",
  "0x0000000000000000000000000000000000000003",
]
threshold = 2
emergency_threshold = 3

[mint]
max_supply = "1_000_000"
schedule_start = "2025-01-01T00:00:00Z"

[roles]
minter = ["0x00000000000000000000000000000000000000b1"]
UPGRADE_SIGNER_ROLE = ["0x00000000000000000000000000000000000000b2"]

[[token.allocations]]
account = "0x00000000000000000000000000000000000000d1"
amount = "2500.5"

[[proxies]]
address = "0x00000000000000000000000000000000000000e1"
implementation = "0x00000000000000000000000000000000000000e2"
admin = "0x00000000000000000000000000000000000000e3"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, TrebGovFile), []byte(trebgovToml), 0644))

		loaded, err := LoadTrebGovConfig(dir)
		require.NoError(t, err)
		gov := loaded.Governance

		assert.Equal(t, filepath.Join(dir, TrebGovFile), loaded.Path)
		require.NotNil(t, loaded.Network)
		assert.Equal(t, "http://localhost:8545", loaded.Network.RPCURL)
		assert.Equal(t, uint64(31337), loaded.Network.ChainID)

		assert.Equal(t, uint64(1), gov.Governor.VotingDelay)
		assert.Equal(t, uint64(100), gov.Governor.VotingPeriod)
		assert.Equal(t, uint64(300), gov.Governor.QuorumBps[models.ProposalTypeStandard])
		// untouched tiers keep their defaults
		assert.Equal(t, uint64(2_000), gov.Governor.QuorumBps[models.ProposalTypeConstitutional])
		assert.Equal(t, 12*time.Hour, gov.Governor.ExecutionDelay[models.ProposalTypeEmergency])
		assert.Equal(t, common.HexToAddress("0xaa"), gov.Governor.PrivilegedMultisig)

		assert.Equal(t, 72*time.Hour, gov.Upgrade.StandardDelay)
		assert.Equal(t, 36*time.Hour, gov.Upgrade.EmergencyDelay)
		assert.Len(t, gov.Multisig.Owners, 3)

		assert.Equal(t, models.Tokens(1_000_000), gov.Mint.MaxSupply)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), gov.Mint.ScheduleStart)
		assert.Len(t, gov.Mint.Phases, 3)

		assert.Equal(t, []common.Address{common.HexToAddress("0xb1")}, gov.Roles[domain.RoleMinter])
		assert.Equal(t, []common.Address{common.HexToAddress("0xb2")}, gov.Roles[domain.RoleUpgradeSigner])
		assert.Equal(t, []common.Address{common.HexToAddress("0xc1")}, gov.Council)

		require.Len(t, gov.Token.Allocations, 1)
		expected, _ := models.ParseTokens("2500.5")
		assert.Equal(t, expected, gov.Token.Allocations[0].Amount)

		require.Len(t, gov.Proxies, 1)
		assert.Equal(t, "ERC1967", gov.Proxies[0].Type)
		assert.Equal(t, common.HexToAddress("0xe3"), gov.Proxies[0].Admin)

		require.NoError(t, gov.Validate())
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		cases := map[string]string{
			"bad address":  "[governor]\naddress = \"0x1234\"\n",
			"bad duration": "[timelock]\nmin_delay = \"soon\"\n",
			"bad amount":   "[mint]\nmax_supply = \"lots\"\n",
			"bad type":     "[governor.quorum_bps]\nsuper = 100\n",
			"bad time":     "[mint]\nschedule_start = \"yesterday\"\n",
		}
		for name, content := range cases {
			t.Run(name, func(t *testing.T) {
				_, _, err := ParseTrebGovConfig(content)
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			})
		}
	})

	t.Run("rejects invalid toml", func(t *testing.T) {
		_, _, err := ParseTrebGovConfig("[governor\n")
		require.Error(t, err)
	})
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "6h", want: 6 * time.Hour},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "1d12h", want: 36 * time.Hour},
		{in: "90s", want: 90 * time.Second},
		{in: "xd", wantErr: true},
		{in: "1d5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
