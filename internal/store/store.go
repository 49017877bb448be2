package store

import (
	"fmt"
	"os"
	"path/filepath"

	"bullet-cli/internal/logging"

	"go.uber.org/zap"
)

const sqliteFileName = "bullet.sqlite"

// Store persists outline documents in a single SQLite file under Dir.
type Store struct {
	Dir string
	Log *zap.Logger
}

func New(dir string, log *zap.Logger) Store {
	return Store{Dir: dir, Log: logging.OrNop(log)}
}

// Open resolves the data directory from the global config (or dirOverride when set).
func Open(dirOverride string, log *zap.Logger) (Store, error) {
	dir := dirOverride
	if dir == "" {
		cfg, err := LoadConfig()
		if err != nil {
			return Store{}, fmt.Errorf("load config: %w", err)
		}
		dir, err = cfg.ResolveDataDir()
		if err != nil {
			return Store{}, err
		}
	}
	return New(dir, log), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

func (s Store) log() *zap.Logger {
	return logging.OrNop(s.Log)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// AmbiguousIDError is returned when an id prefix matches more than one document.
type AmbiguousIDError struct {
	Prefix  string
	Matches []string
}

func (e AmbiguousIDError) Error() string {
	return fmt.Sprintf("document id %q is ambiguous (%d matches)", e.Prefix, len(e.Matches))
}
