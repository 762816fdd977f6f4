package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attempt records one evaluated submission for a level.
type Attempt struct {
	ID           uuid.UUID
	Track        string
	Level        int
	Outcome      Outcome
	Completed    bool
	BlocksUsed   int
	Program      string
	Presentation Presentation
	CreatedAt    time.Time
}

// NewAttempt builds an attempt from an evaluation result
func NewAttempt(track string, level int, completed bool, res Result) *Attempt {
	return &Attempt{
		ID:           uuid.New(),
		Track:        track,
		Level:        level,
		Outcome:      res.Outcome,
		Completed:    completed,
		BlocksUsed:   res.BlocksUsed,
		Program:      res.Program,
		Presentation: res.Outcome.Presentation(),
		CreatedAt:    time.Now(),
	}
}
