package config

import (
	"os"
	"testing"

	"github.com/ardanlabs/conf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	withArgs(t, "shramba")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "shramba.sqlite3", cfg.DB)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.OfflineCache)
	assert.Equal(t, 128, cfg.OfflineCacheSize)
	assert.Empty(t, cfg.Args)
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("SHRAMBA_DB", "/tmp/pantry.db")
	t.Setenv("SHRAMBA_OFFLINE_CACHE", "false")
	withArgs(t, "shramba", "--addr", "127.0.0.1:9000", "import", "old.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pantry.db", cfg.DB)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.False(t, cfg.OfflineCache)

	name, arg, err := cfg.Command()
	require.NoError(t, err)
	assert.Equal(t, CmdImport, name)
	assert.Equal(t, "old.json", arg)
}

func TestCommand(t *testing.T) {
	tests := []struct {
		args    conf.Args
		name    string
		arg     string
		wantErr bool
	}{
		{nil, CmdServe, "", false},
		{conf.Args{"serve"}, CmdServe, "", false},
		{conf.Args{"seed"}, CmdSeed, "", false},
		{conf.Args{"import", "x.yaml"}, CmdImport, "x.yaml", false},
		{conf.Args{"import"}, "", "", true},
		{conf.Args{"seed", "extra"}, "", "", true},
		{conf.Args{"init"}, "", "", true},
	}
	for _, tt := range tests {
		cfg := &Config{Args: tt.args}
		name, arg, err := cfg.Command()
		if tt.wantErr {
			assert.Error(t, err, "args %v", tt.args)
			continue
		}
		require.NoError(t, err, "args %v", tt.args)
		assert.Equal(t, tt.name, name)
		assert.Equal(t, tt.arg, arg)
	}
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = args
	t.Cleanup(func() { os.Args = old })
}
