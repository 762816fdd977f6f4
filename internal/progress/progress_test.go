package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blockyard/stagekit/internal/overlay"
)

type stubStore struct {
	stored *LevelProgress
	err    error
	saved  *LevelProgress
}

func (s *stubStore) Load(ctx context.Context, track string) (*LevelProgress, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stored, nil
}

func (s *stubStore) Save(ctx context.Context, p *LevelProgress) error {
	s.saved = p
	return nil
}

func TestRestoreDeferred_AppliesSnapshotAfterInit(t *testing.T) {
	sched := overlay.NewManualScheduler()
	store := &stubStore{stored: &LevelProgress{Track: "maze", Level: 7, Completed: true}}
	p := &LevelProgress{Track: "maze", Level: 1}

	RestoreDeferred(sched, store, p, &sync.Mutex{}, nil)

	if p.Level != 1 {
		t.Fatal("restore ran before initialization completed")
	}

	sched.Advance(0)

	if p.Level != 7 {
		t.Errorf("Level = %d, want 7", p.Level)
	}
	if !p.Completed {
		t.Error("Completed not restored")
	}
}

func TestRestoreDeferred_FailureDoesNotAbort(t *testing.T) {
	sched := overlay.NewManualScheduler()
	store := &stubStore{err: errors.New("disk gone")}
	p := &LevelProgress{Track: "maze", Level: 3}

	RestoreDeferred(sched, store, p, &sync.Mutex{}, nil)
	sched.Advance(0)

	if p.Level != 3 {
		t.Errorf("Level = %d, want unchanged 3", p.Level)
	}
}

func TestRestoreDeferred_NeverRegressesLevel(t *testing.T) {
	sched := overlay.NewManualScheduler()
	store := &stubStore{stored: &LevelProgress{Track: "maze", Level: 2}}
	p := &LevelProgress{Track: "maze", Level: 5}

	RestoreDeferred(sched, store, p, &sync.Mutex{}, nil)
	sched.Advance(0)

	if p.Level != 5 {
		t.Errorf("Level = %d, want 5", p.Level)
	}
}

// The restore runs on a timer goroutine while run cycles mutate the same
// progress under the session lock. Mutating concurrently here lets the race
// detector catch any restore write that escapes the lock.
func TestRestoreDeferred_AppliesUnderCallerLock(t *testing.T) {
	var mu sync.Mutex
	store := &stubStore{stored: &LevelProgress{Track: "maze", Level: 9, Completed: true}}
	p := &LevelProgress{Track: "maze", Level: 1}

	RestoreDeferred(overlay.TimerScheduler{}, store, p, &mu, nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		p.Completed = false
		level := p.Level
		mu.Unlock()
		if level == 9 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("restore never applied")
		}
	}
}
