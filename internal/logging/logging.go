package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Config selects how the process logs. The zero value disables logging.
type Config struct {
	// Mode is "off", "development" or "production".
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`
	// Level is a zap level name ("debug", "info", ...). Empty keeps the mode default.
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
	// File redirects output away from stderr (the TUI owns the terminal).
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "off", "none":
		return zap.NewNop(), nil
	case "production", "prod":
		zc = zap.NewProductionConfig()
	case "development", "dev":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log mode: %s", cfg.Mode)
	}

	if lvl := strings.TrimSpace(cfg.Level); lvl != "" {
		al, err := zap.ParseAtomicLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = al
	}
	if f := strings.TrimSpace(cfg.File); f != "" {
		zc.OutputPaths = []string{f}
		zc.ErrorOutputPaths = []string{f}
	}
	return zc.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
