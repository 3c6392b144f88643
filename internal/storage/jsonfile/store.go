package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gumtree-monitor/internal/observability"
	"gumtree-monitor/internal/storage"
)

const fileMode os.FileMode = 0o644

// Store keeps the seen-set as a JSON array of ids in a single file.
type Store struct {
	path   string
	logger *observability.Logger
}

var _ storage.SeenStore = (*Store)(nil)

func NewStore(path string, logger *observability.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

func (s *Store) Load(ctx context.Context) storage.SeenSet {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error("Failed to read seen file, starting with empty set",
				"path", s.path,
				"error", err.Error(),
			)
		}
		return storage.NewSeenSet()
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Error("Failed to decode seen file, starting with empty set",
			"path", s.path,
			"error", err.Error(),
		)
		return storage.NewSeenSet()
	}

	return storage.NewSeenSet(ids...)
}

// Save writes to a temp file next to the record and renames it into place.
func (s *Store) Save(ctx context.Context, seen storage.SeenSet) error {
	data, err := json.Marshal(seen.IDs())
	if err != nil {
		return fmt.Errorf("encode seen set: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	s.logger.Debug("Seen set saved", "path", s.path, "count", len(seen))
	return nil
}
