package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragrep/ragrep/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, ProviderAuto, cfg.Provider)
	assert.Equal(t, StalenessMtime, cfg.Staleness)
	assert.Equal(t, int64(10485760), cfg.MaxFileSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RAGREP_CHUNK_SIZE", "500")
	t.Setenv("RAGREP_STALENESS", "hash")
	t.Setenv("RAGREP_PROVIDER", "local")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, StalenessHash, cfg.Staleness)
	assert.Equal(t, ProviderLocal, cfg.Provider)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.ChunkSize = 0
	assert.ErrorIs(t, cfg.Validate(), types.ErrConfig)

	cfg = base()
	cfg.ChunkOverlap = cfg.ChunkSize
	assert.ErrorIs(t, cfg.Validate(), types.ErrConfig)

	cfg = base()
	cfg.ChunkOverlap = -1
	assert.ErrorIs(t, cfg.Validate(), types.ErrConfig)

	cfg = base()
	cfg.Staleness = "vibes"
	assert.ErrorIs(t, cfg.Validate(), types.ErrConfig)

	cfg = base()
	cfg.Provider = "unknown"
	assert.ErrorIs(t, cfg.Validate(), types.ErrConfig)

	cfg = base()
	cfg.MaxFileSize = 0
	assert.ErrorIs(t, cfg.Validate(), types.ErrConfig)
}

func TestResolveRoot(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	dir := t.TempDir()
	abs, err := cfg.ResolveRoot(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	_, err = cfg.ResolveRoot(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, types.ErrConfig)

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = cfg.ResolveRoot(file)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestResolveStorePath(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/x", DefaultStoreName), cfg.ResolveStorePath("/srv/x"))

	cfg.StorePath = "/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", cfg.ResolveStorePath("/srv/x"))
}
