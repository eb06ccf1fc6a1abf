package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chaincfg "github.com/weisyn/wasmsim/internal/config/chain"
)

func TestProviderDefaults(t *testing.T) {
	provider := NewProvider(nil)

	chainOpts := provider.GetChain().GetOptions()
	assert.Equal(t, chaincfg.DefaultChainID, chainOpts.ChainID)
	assert.Equal(t, chaincfg.DefaultBaseHeight, chainOpts.BaseHeight)
	assert.Equal(t, chaincfg.DefaultGasLimit, chainOpts.GasLimit)
	require.Len(t, chainOpts.Accounts, 1)
	assert.Equal(t, chaincfg.DefaultAccount, chainOpts.Accounts[0].Address)

	apiOpts := provider.GetAPI().GetOptions()
	assert.False(t, apiOpts.Enabled)
	assert.Equal(t, 8080, apiOpts.Port)

	assert.Equal(t, "info", provider.GetLog().GetOptions().Level)
}

func TestLoadAppConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"log": {"level": "debug"},
		"api": {"enabled": true, "port": 9000},
		"chain": {
			"chain_id": "testing",
			"base_height": 7,
			"accounts": [{"address": "alice", "coins": [{"denom": "orai", "amount": "42"}]}]
		}
	}`), 0o644))

	appConfig, err := LoadAppConfig(path)
	require.NoError(t, err)
	provider := NewProvider(appConfig)

	assert.Equal(t, "debug", provider.GetLog().GetOptions().Level)

	apiOpts := provider.GetAPI().GetOptions()
	assert.True(t, apiOpts.Enabled)
	assert.Equal(t, "127.0.0.1:9000", provider.GetAPI().ListenAddr())

	chainOpts := provider.GetChain().GetOptions()
	assert.Equal(t, "testing", chainOpts.ChainID)
	assert.Equal(t, uint64(7), chainOpts.BaseHeight)
	// 未覆盖的字段保持默认值
	assert.Equal(t, chaincfg.DefaultGasLimit, chainOpts.GasLimit)

	balances := provider.GetChain().Balances()
	require.Contains(t, balances, "alice")
	assert.Equal(t, "42", balances["alice"][0].Amount)
}

func TestLoadAppConfigMissing(t *testing.T) {
	appConfig, err := LoadAppConfig("")
	require.NoError(t, err)
	assert.Nil(t, appConfig)

	_, err = LoadAppConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
