// Package config loads hypostasis settings from layered sources: built-in
// defaults, the user config file, the project config file, environment
// variables and command-line flags, each overriding the previous one.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	ktoml "github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	AppName   = "hypostasis"
	EnvPrefix = "HYPOSTASIS_"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// DefaultsTOML returns the built-in defaults file.
func DefaultsTOML() string {
	return string(defaultConfig)
}

type Config struct {
	Remap  RemapConfig  `koanf:"remap" toml:"remap" yaml:"remap"`
	Ledger LedgerConfig `koanf:"ledger" toml:"ledger" yaml:"ledger"`
	Log    LogConfig    `koanf:"log" toml:"log" yaml:"log"`
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`
}

type RemapConfig struct {
	Workers         int    `koanf:"workers" toml:"workers" yaml:"workers"`
	BackupExt       string `koanf:"backup_ext" toml:"backup_ext" yaml:"backup_ext"`
	Pattern         string `koanf:"pattern" toml:"pattern" yaml:"pattern"`
	ReferenceHashes string `koanf:"reference_hashes" toml:"reference_hashes" yaml:"reference_hashes"`
	Force           bool   `koanf:"force" toml:"force" yaml:"force"`
	DryRun          bool   `koanf:"dry_run" toml:"dry_run" yaml:"dry_run"`
	KeepOwnID       bool   `koanf:"keep_own_id" toml:"keep_own_id" yaml:"keep_own_id"`
}

type LedgerConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	Path    string `koanf:"path" toml:"path" yaml:"path"`
}

type LogConfig struct {
	File string `koanf:"file" toml:"file" yaml:"file"`
}

type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"`
}

// LoadOptions selects the sources consulted by Load.
type LoadOptions struct {
	// ConfigFile replaces the user config file lookup. It must exist.
	ConfigFile string
	// UserConfigDir defaults to $XDG_CONFIG_HOME/hypostasis.
	UserConfigDir string
	// ProjectDir is searched for .hypostasis.toml or .hypostasis.yaml.
	ProjectDir string
	// StateDir defaults to $XDG_STATE_HOME/hypostasis.
	StateDir string
	// Flags holds dotted keys set on the command line.
	Flags map[string]any
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load merges all configuration layers and resolves default paths.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, ktoml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. User config
	if opts.ConfigFile != "" {
		if err := loadFile(k, opts.ConfigFile); err != nil {
			return nil, err
		}
	} else {
		dir := opts.UserConfigDir
		if dir == "" {
			dir = filepath.Join(xdg.ConfigHome, AppName)
		}
		if err := loadFirst(k, dir, "config.toml", "config.yaml", "config.yml"); err != nil {
			return nil, err
		}
	}

	// 3. Project config
	if opts.ProjectDir != "" {
		if err := loadFirst(k, opts.ProjectDir, ".hypostasis.toml", ".hypostasis.yaml", ".hypostasis.yml"); err != nil {
			return nil, err
		}
	}

	// 4. Environment: HYPOSTASIS_REMAP_BACKUP_EXT sets remap.backup_ext
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags
	if len(opts.Flags) > 0 {
		if err := k.Load(confmap.Provider(opts.Flags, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	stateDir := opts.StateDir
	if stateDir == "" {
		stateDir = filepath.Join(xdg.StateHome, AppName)
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = filepath.Join(stateDir, "ledger.db")
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(stateDir, AppName+".log")
	} else if cfg.Log.File == "-" {
		cfg.Log.File = ""
	}
	if cfg.Remap.ReferenceHashes != "" && opts.ProjectDir != "" && !filepath.IsAbs(cfg.Remap.ReferenceHashes) {
		cfg.Remap.ReferenceHashes = filepath.Join(opts.ProjectDir, cfg.Remap.ReferenceHashes)
	}
	if cfg.Remap.Workers < 0 {
		return nil, fmt.Errorf("remap.workers must not be negative, got %d", cfg.Remap.Workers)
	}
	return &cfg, nil
}

func loadFirst(k *koanf.Koanf, dir string, names ...string) error {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return loadFile(k, path)
		}
	}
	return nil
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = ktoml.Parser()
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	default:
		return fmt.Errorf("unsupported config file type %s", path)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return nil
}
