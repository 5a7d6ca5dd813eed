package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, []string{".c", ".h"}, cfg.Extensions)
	require.Equal(t, []string{"main"}, cfg.EntryPoints)
	require.False(t, cfg.Strict)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".csweep.yaml")
	content := `extensions: [".c", ".h", ".inc"]
exclude: [vendor, third_party]
entry_points: [event_loop]
externals: [sqlite3_open]
strict: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{".c", ".h", ".inc"}, cfg.Extensions)
	require.Equal(t, []string{"vendor", "third_party"}, cfg.Exclude)
	require.Equal(t, []string{"event_loop", "main"}, cfg.EntryPoints, "main is always an entry point")
	require.Equal(t, []string{"sqlite3_open"}, cfg.Externals)
	require.True(t, cfg.Strict)
}

func TestLoad_FillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exclude: [build]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{".c", ".h"}, cfg.Extensions)
	require.Equal(t, []string{"main"}, cfg.EntryPoints)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("extensions: {not: a list}\n"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	// Explicit path that cannot be read is an error.
	_, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	// Implicit default file may be absent.
	dir := t.TempDir()
	t.Chdir(dir)
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	// Implicit default file is picked up when present.
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("strict: true\n"), 0o644))
	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	require.True(t, cfg.Strict)
}
