package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blockyard/stagekit/internal/domain"
	"github.com/blockyard/stagekit/internal/progress"
)

// ProgressStore persists level-progress snapshots for one session. It
// implements progress.Store; the session binding happens at construction so
// restore code never needs to know whose progress it is loading.
type ProgressStore struct {
	db        *DB
	sessionID string
}

// NewProgressStore creates a progress store scoped to sessionID.
func NewProgressStore(db *DB, sessionID string) *ProgressStore {
	return &ProgressStore{db: db, sessionID: sessionID}
}

// Load returns the stored snapshot for a track, or ErrProgressNotFound.
func (s *ProgressStore) Load(ctx context.Context, track string) (*progress.LevelProgress, error) {
	var p progress.LevelProgress
	var completed int
	err := s.db.QueryRowContext(ctx, `
		SELECT track, level, max_level, completed, lang, page, skin, mode
		FROM progress WHERE session_id = ? AND track = ?`,
		s.sessionID, track,
	).Scan(&p.Track, &p.Level, &p.MaxLevel, &completed, &p.Lang, &p.Page, &p.Skin, &p.Mode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProgressNotFound, track)
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	p.Completed = completed != 0
	return &p, nil
}

// Save upserts the snapshot for the progress' track.
func (s *ProgressStore) Save(ctx context.Context, p *progress.LevelProgress) error {
	completed := 0
	if p.Completed {
		completed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (session_id, track, level, max_level, completed, lang, page, skin, mode, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(session_id, track) DO UPDATE SET
			level=excluded.level, max_level=excluded.max_level,
			completed=excluded.completed, lang=excluded.lang,
			page=excluded.page, skin=excluded.skin, mode=excluded.mode,
			updated_at=excluded.updated_at`,
		s.sessionID, p.Track, p.Level, p.MaxLevel, completed,
		p.Lang, p.Page, p.Skin, p.Mode,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
