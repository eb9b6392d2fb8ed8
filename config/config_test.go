package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/require"
)

// withXDGHome points XDG_CONFIG_HOME at a scratch directory for the
// duration of a test. xdg resolves its base directories once at package
// init, so Reload is required for a later Setenv to take effect.
func withXDGHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, xdg.Reload())
	t.Cleanup(func() { _ = xdg.Reload() })
	return dir
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	withXDGHome(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	withXDGHome(t)
	cfg := Default()
	cfg.PluginDirs = []string{"/opt/flowquery/plugins"}
	cfg.DeterministicRand = true
	cfg.RandSeed = 42
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadRejectsNonPositiveFetchTimeout(t *testing.T) {
	dir := withXDGHome(t)
	path, err := Path()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("fetch_timeout: 0s\nmax_response_bytes: 1024\n"), 0o644))
	_ = dir

	_, err = Load()
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveMaxResponseBytes(t *testing.T) {
	withXDGHome(t)
	path, err := Path()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("fetch_timeout: 5s\nmax_response_bytes: 0\n"), 0o644))

	_, err = Load()
	require.Error(t, err)
}
