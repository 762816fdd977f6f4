// Package local stores progress snapshots as JSON files. It serves
// deployments that run without a database; the daemon falls back to it when
// no SQLite path is configured.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blockyard/stagekit/internal/domain"
	"github.com/blockyard/stagekit/internal/progress"
)

// Store implements progress.Store on top of a directory of JSON files, one
// per session and track.
type Store struct {
	basePath  string
	sessionID string
	mu        sync.RWMutex
}

// NewStore creates a file store rooted at basePath, scoped to sessionID.
func NewStore(basePath, sessionID string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{basePath: basePath, sessionID: sessionID}, nil
}

func (s *Store) path(track string) string {
	return filepath.Join(s.basePath, s.sessionID, track+".json")
}

// Load reads the snapshot for a track, or returns ErrProgressNotFound.
func (s *Store) Load(ctx context.Context, track string) (*progress.LevelProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(track))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProgressNotFound, track)
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	var p progress.LevelProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse progress file: %w", err)
	}
	return &p, nil
}

// Save writes the snapshot atomically via a temp file rename.
func (s *Store) Save(ctx context.Context, p *progress.LevelProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.basePath, s.sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	tmp := s.path(p.Track) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write progress file: %w", err)
	}
	if err := os.Rename(tmp, s.path(p.Track)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}
