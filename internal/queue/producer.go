package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blockyard/stagekit/internal/domain"
)

// AttemptEvent is the telemetry record published for each evaluated attempt.
type AttemptEvent struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id"`
	Track      string    `json:"track"`
	Level      int       `json:"level"`
	Outcome    int       `json:"outcome"`
	Completed  bool      `json:"completed"`
	BlocksUsed int       `json:"blocks_used"`
	CreatedAt  time.Time `json:"created_at"`
}

// Producer publishes attempt events.
type Producer struct {
	conn *Connection
}

// NewProducer creates a producer over an established connection.
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishAttempt publishes one attempt event.
func (p *Producer) PublishAttempt(ctx context.Context, event *AttemptEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, AttemptQueueName, event); err != nil {
		return fmt.Errorf("publish attempt event: %w", err)
	}

	slog.Debug("published attempt event",
		"event_id", event.ID,
		"track", event.Track,
		"level", event.Level,
		"outcome", event.Outcome,
	)
	return nil
}

// NewAttemptEvent builds an event from an attempt record.
func NewAttemptEvent(sessionID string, a *domain.Attempt) *AttemptEvent {
	return &AttemptEvent{
		ID:         a.ID,
		SessionID:  sessionID,
		Track:      a.Track,
		Level:      a.Level,
		Outcome:    int(a.Outcome),
		Completed:  a.Completed,
		BlocksUsed: a.BlocksUsed,
		CreatedAt:  a.CreatedAt,
	}
}
