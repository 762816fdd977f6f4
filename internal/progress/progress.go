// Package progress holds the per-page level-progress context. It is passed
// explicitly to every component that reads or mutates it; there are no
// ambient globals, so tests can run many independent instances.
package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/blockyard/stagekit/internal/interstitial"
)

// LevelProgress is the state of one learner's position in a track. It is set
// at page load from level configuration, mutated by each run cycle, and read
// by the navigator at advancement time.
type LevelProgress struct {
	Track    string
	Level    int
	MaxLevel int

	// Completed records whether the latest run completed the level.
	Completed bool

	// RedirectURL is a server-supplied override for the next destination.
	// When set it wins over all computed navigation.
	RedirectURL string

	Interstitials interstitial.Flags

	// Address components for next-level URL construction.
	Origin string
	Path   string
	Lang   string
	Page   string
	Skin   string
	Mode   string
}

// Store persists level-progress snapshots.
type Store interface {
	Load(ctx context.Context, track string) (*LevelProgress, error)
	Save(ctx context.Context, p *LevelProgress) error
}

// Scheduler defers a task; satisfied by overlay.TimerScheduler.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// RestoreDeferred schedules a restore-from-storage task to run after current
// initialization completes. A failure during restore is logged and ignored
// so it can never abort page setup. Only the mutable run-cycle fields are
// restored; address components stay as configured.
//
// The restore runs on the scheduler's goroutine while run cycles may be
// mutating p concurrently, so the snapshot is applied under mu, which must
// be the same lock the caller holds for every other mutation of p.
func RestoreDeferred(sched Scheduler, store Store, p *LevelProgress, mu sync.Locker, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	track := p.Track
	sched.After(0, func() {
		stored, err := store.Load(context.Background(), track)
		if err != nil {
			logger.Warn("progress restore failed", "track", track, "error", err)
			return
		}
		mu.Lock()
		if stored.Level > p.Level {
			p.Level = stored.Level
		}
		p.Completed = stored.Completed
		restored := p.Level
		mu.Unlock()
		logger.Debug("progress restored", "track", track, "level", restored)
	})
}
