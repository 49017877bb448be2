package store

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"bullet-cli/internal/logging"

	"gopkg.in/yaml.v3"
)

type GlobalConfig struct {
	// DataDir holds bullet.sqlite. Empty means <config dir>/data.
	DataDir string `yaml:"dataDir,omitempty" json:"dataDir,omitempty"`

	// CurrentDocument is the document the bare `bullet` command opens.
	CurrentDocument string `yaml:"currentDocument,omitempty" json:"currentDocument,omitempty"`

	Log logging.Config `yaml:"log,omitempty" json:"log,omitempty"`

	// TUI holds optional user preferences for the interactive editor.
	TUI *TUIConfig `yaml:"tui,omitempty" json:"tui,omitempty"`
}

type TUIConfig struct {
	// Glyphs selects the bullet glyph set ("unicode", "ascii").
	Glyphs string `yaml:"glyphs,omitempty" json:"glyphs,omitempty"`
	// AutosaveSeconds is the autosave interval; 0 disables autosave (save on quit only).
	AutosaveSeconds int `yaml:"autosaveSeconds,omitempty" json:"autosaveSeconds,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.bullet).
	if v := strings.TrimSpace(os.Getenv("BULLET_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bullet"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

// ResolveDataDir returns the directory that holds the document database.
func (cfg *GlobalConfig) ResolveDataDir() (string, error) {
	if cfg != nil && strings.TrimSpace(cfg.DataDir) != "" {
		return cfg.DataDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// AutosaveSeconds is the configured autosave interval (0 when unset).
func (cfg *GlobalConfig) AutosaveSeconds() int {
	if cfg == nil || cfg.TUI == nil || cfg.TUI.AutosaveSeconds < 0 {
		return 0
	}
	return cfg.TUI.AutosaveSeconds
}

// Set assigns a dotted config key from a string (used by `bullet config set`).
func (cfg *GlobalConfig) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "dataDir":
		cfg.DataDir = value
	case "currentDocument":
		cfg.CurrentDocument = value
	case "log.mode":
		cfg.Log.Mode = value
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "tui.glyphs":
		cfg.ensureTUI().Glyphs = value
	case "tui.autosaveSeconds":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return errors.New("tui.autosaveSeconds must be a non-negative integer")
		}
		cfg.ensureTUI().AutosaveSeconds = n
	default:
		return errors.New("unknown config key: " + key)
	}
	return nil
}

func (cfg *GlobalConfig) ensureTUI() *TUIConfig {
	if cfg.TUI == nil {
		cfg.TUI = &TUIConfig{}
	}
	return cfg.TUI
}
