package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	t.Run("defaults without trebgov.toml", func(t *testing.T) {
		dir := t.TempDir()
		v := viper.New()
		v.Set("project_root", dir)

		cfg, err := Provider(v)
		require.NoError(t, err)
		assert.Equal(t, dir, cfg.ProjectRoot)
		assert.Equal(t, filepath.Join(dir, DataDirName), cfg.DataDir)
		assert.Equal(t, filepath.Join(dir, DataDirName, "state.json"), cfg.StatePath)
		assert.Empty(t, cfg.ConfigSource)
		assert.Nil(t, cfg.Network)
		require.NotNil(t, cfg.Governance)
	})

	t.Run("flags override file and env files are loaded", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TREBGOV_TEST_ORACLE=https://oracle.example\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, TrebGovFile), []byte(`
[oracle]
url = "${TREBGOV_TEST_ORACLE}"

[network]
name = "sepolia"
chain_id = 11155111
rpc_url = "https://sepolia.example"
`), 0644))
		t.Cleanup(func() { os.Unsetenv("TREBGOV_TEST_ORACLE") })

		v := viper.New()
		v.Set("project_root", dir)
		v.Set("from", "0x00000000000000000000000000000000000000f1")
		v.Set("rpc_url", "http://127.0.0.1:8545")
		v.Set("json", true)

		cfg, err := Provider(v)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0xf1"), cfg.Sender)
		assert.Equal(t, "json", cfg.Output)
		require.NotNil(t, cfg.Network)
		assert.Equal(t, "http://127.0.0.1:8545", cfg.Network.RPCURL)
		assert.Equal(t, uint64(11155111), cfg.Network.ChainID)
		assert.Equal(t, "https://oracle.example", cfg.Governance.Oracle.URL)
	})

	t.Run("rejects a malformed sender", func(t *testing.T) {
		v := viper.New()
		v.Set("project_root", t.TempDir())
		v.Set("from", "alice")

		_, err := Provider(v)
		assert.Error(t, err)
	})
}
