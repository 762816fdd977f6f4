// Package repository persists evaluated attempts in Postgres for analytics.
// The daemon runs fine without it; attempt recording is optional and
// best-effort.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sqlc-dev/pqtype"

	"github.com/blockyard/stagekit/internal/domain"
)

// AttemptRepository stores attempts in Postgres via the pgx stdlib driver.
type AttemptRepository struct {
	db *sql.DB
}

// Connect opens a Postgres connection pool and verifies it.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewAttemptRepository creates a repository over an open connection pool.
func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// EnsureSchema creates the attempts table when it does not exist yet.
func (r *AttemptRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attempts (
			id           UUID PRIMARY KEY,
			track        TEXT NOT NULL,
			level        INTEGER NOT NULL,
			outcome      INTEGER NOT NULL,
			completed    BOOLEAN NOT NULL,
			blocks_used  INTEGER NOT NULL,
			program      TEXT NOT NULL,
			presentation JSONB,
			created_at   TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure attempts schema: %w", err)
	}
	return nil
}

// Save inserts an attempt record.
func (r *AttemptRepository) Save(ctx context.Context, a *domain.Attempt) error {
	presentation, err := marshalPresentation(a.Presentation)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO attempts (id, track, level, outcome, completed, blocks_used, program, presentation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Track, a.Level, int(a.Outcome), a.Completed,
		a.BlocksUsed, a.Program, presentation, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// FindByID retrieves a single attempt.
func (r *AttemptRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Attempt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, track, level, outcome, completed, blocks_used, program, presentation, created_at
		FROM attempts WHERE id = $1`, id)

	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAttemptNotFound, id)
	}
	return a, err
}

// ListByTrackLevel returns recent attempts for one level, newest first.
func (r *AttemptRepository) ListByTrackLevel(ctx context.Context, track string, level, limit int) ([]*domain.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, track, level, outcome, completed, blocks_used, program, presentation, created_at
		FROM attempts WHERE track = $1 AND level = $2
		ORDER BY created_at DESC LIMIT $3`, track, level, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner) (*domain.Attempt, error) {
	var a domain.Attempt
	var outcome int
	var presentation pqtype.NullRawMessage
	err := row.Scan(&a.ID, &a.Track, &a.Level, &outcome, &a.Completed,
		&a.BlocksUsed, &a.Program, &presentation, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Outcome = domain.Outcome(outcome)
	if presentation.Valid {
		if err := json.Unmarshal(presentation.RawMessage, &a.Presentation); err != nil {
			return nil, fmt.Errorf("parse presentation: %w", err)
		}
	}
	return &a, nil
}

func marshalPresentation(p domain.Presentation) (pqtype.NullRawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("marshal presentation: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}
