package overlay

import (
	"sort"
	"time"
)

// Scheduler defers a function by a fixed delay. The returned cancel func
// stops the callback from firing; cancelling after the callback ran is a
// no-op.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules through real timers.
type TimerScheduler struct{}

// After implements Scheduler using time.AfterFunc
func (TimerScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ManualScheduler is a virtual-time scheduler for tests. Callbacks fire only
// when Advance moves the clock past their deadline.
type ManualScheduler struct {
	now     time.Duration
	nextID  int
	pending []*manualTask
}

type manualTask struct {
	id       int
	deadline time.Duration
	fn       func()
	done     bool
}

// NewManualScheduler creates a manual scheduler at time zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// After implements Scheduler
func (s *ManualScheduler) After(d time.Duration, fn func()) func() {
	s.nextID++
	task := &manualTask{id: s.nextID, deadline: s.now + d, fn: fn}
	s.pending = append(s.pending, task)
	return func() { task.done = true }
}

// Advance moves virtual time forward, firing due callbacks in deadline order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.now += d

	due := make([]*manualTask, 0, len(s.pending))
	rest := s.pending[:0]
	for _, t := range s.pending {
		if t.done {
			continue
		}
		if t.deadline <= s.now {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	s.pending = rest

	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline == due[j].deadline {
			return due[i].id < due[j].id
		}
		return due[i].deadline < due[j].deadline
	})
	for _, t := range due {
		if !t.done {
			t.done = true
			t.fn()
		}
	}
}

// Pending returns the number of scheduled, uncancelled callbacks.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.pending {
		if !t.done {
			n++
		}
	}
	return n
}
