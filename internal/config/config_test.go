package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func hermetic(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{
		UserConfigDir: t.TempDir(),
		StateDir:      filepath.Join(t.TempDir(), "state"),
	}
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	opts := hermetic(t)
	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Remap.Workers)
	assert.Equal(t, ".bak", cfg.Remap.BackupExt)
	assert.Equal(t, "**/MainField/**/?-?_*.smubin", cfg.Remap.Pattern)
	assert.False(t, cfg.Remap.KeepOwnID)
	assert.True(t, cfg.Ledger.Enabled)
	assert.Equal(t, filepath.Join(opts.StateDir, "ledger.db"), cfg.Ledger.Path)
	assert.Equal(t, filepath.Join(opts.StateDir, "hypostasis.log"), cfg.Log.File)
	assert.Equal(t, "auto", cfg.Output.Format)
}

func TestLoad_Layering(t *testing.T) {
	opts := hermetic(t)
	write(t, filepath.Join(opts.UserConfigDir, "config.toml"), `
[remap]
workers = 2
backup_ext = ".user"
pattern = "user/**"

[log]
file = "-"
`)
	project := t.TempDir()
	write(t, filepath.Join(project, ".hypostasis.yaml"), `
remap:
  workers: 3
  reference_hashes: hashes.txt
ledger:
  enabled: false
`)
	opts.ProjectDir = project
	t.Setenv("HYPOSTASIS_REMAP_WORKERS", "5")
	t.Setenv("HYPOSTASIS_REMAP_DRY_RUN", "true")
	opts.Flags = map[string]any{"remap.backup_ext": ".flag"}

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Remap.Workers, "env beats project")
	assert.True(t, cfg.Remap.DryRun)
	assert.Equal(t, ".flag", cfg.Remap.BackupExt, "flags beat user config")
	assert.Equal(t, "user/**", cfg.Remap.Pattern)
	assert.False(t, cfg.Ledger.Enabled)
	assert.Equal(t, filepath.Join(project, "hashes.txt"), cfg.Remap.ReferenceHashes)
	assert.Equal(t, "", cfg.Log.File, `"-" disables the log file`)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	opts := hermetic(t)
	opts.ConfigFile = write(t, filepath.Join(t.TempDir(), "custom.yml"), "output:\n  format: json\n")
	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)

	opts.ConfigFile = filepath.Join(t.TempDir(), "missing.toml")
	_, err = Load(opts)
	assert.ErrorContains(t, err, "missing.toml")

	opts.ConfigFile = write(t, filepath.Join(t.TempDir(), "config.ini"), "x=1")
	_, err = Load(opts)
	assert.ErrorContains(t, err, "unsupported config file type")
}

func TestLoad_Errors(t *testing.T) {
	opts := hermetic(t)
	write(t, filepath.Join(opts.UserConfigDir, "config.toml"), "[remap\nworkers = ")
	_, err := Load(opts)
	assert.ErrorContains(t, err, "config.toml")

	opts = hermetic(t)
	opts.Flags = map[string]any{"remap.workers": -1}
	_, err = Load(opts)
	assert.ErrorContains(t, err, "must not be negative")
}

func TestMarshal(t *testing.T) {
	cfg, err := Load(hermetic(t))
	require.NoError(t, err)

	data, err := Marshal(cfg, "toml")
	require.NoError(t, err)
	var fromTOML Config
	require.NoError(t, toml.Unmarshal(data, &fromTOML))
	assert.Equal(t, *cfg, fromTOML)
	assert.Contains(t, string(data), "[remap]")

	data, err = Marshal(cfg, "yaml")
	require.NoError(t, err)
	var fromYAML Config
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, *cfg, fromYAML)

	_, err = Marshal(cfg, "xml")
	assert.Error(t, err)
}

func TestDefaultsTOML(t *testing.T) {
	var cfg Config
	require.NoError(t, toml.Unmarshal([]byte(DefaultsTOML()), &cfg))
	assert.Equal(t, ".bak", cfg.Remap.BackupExt)
}
