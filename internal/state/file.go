package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileStore keeps state in a single JSON file.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the state file. A missing file is an empty state.
func (s *FileStore) Load(_ context.Context) (Websites, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", s.Path).Msg("No state file yet, starting empty")
		return Websites{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	sites := Websites{}
	if len(data) == 0 {
		return sites, nil
	}
	if err := json.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("failed to decode state file %s: %w", s.Path, err)
	}
	return sites, nil
}

// Save writes the state to a temporary file in the same directory and
// renames it over the old one.
func (s *FileStore) Save(_ context.Context, sites Websites) error {
	if sites == nil {
		sites = Websites{}
	}
	data, err := json.MarshalIndent(sites, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	log.Debug().Str("path", s.Path).Int("websites", len(sites)).Msg("State saved")
	return nil
}
