package capture

import (
	"sync"
	"time"
)

// Clock supplies the engine's notion of now. Injected so tests can pin
// relative timestamps exactly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Task is a cancellable deferred callback. Each debounced path owns at
// most one in-flight Task at a time.
type Task interface {
	// Cancel stops the task if it has not fired; returns false when the
	// callback already ran or was already cancelled.
	Cancel() bool
}

// Scheduler defers callbacks for the debounced capture paths. The
// engine guards its own state, so callbacks may fire from any
// goroutine.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

// TimerScheduler backs Schedule with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) Task {
	return &timerTask{t: time.AfterFunc(d, fn)}
}

type timerTask struct {
	t *time.Timer
}

func (t *timerTask) Cancel() bool { return t.t.Stop() }

// FakeClock is a manually-advanced Clock for tests and hosts that drive
// their own event loop.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFakeClock starts at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// ManualScheduler queues scheduled callbacks and runs them only when
// Fire is called, giving tests deterministic control over the debounce
// paths.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	mu        sync.Mutex
	fn        func()
	cancelled bool
	fired     bool
}

func (t *manualTask) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

func (t *manualTask) run() bool {
	t.mu.Lock()
	if t.fired || t.cancelled {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	fn := t.fn
	t.mu.Unlock()
	fn()
	return true
}

func (s *ManualScheduler) Schedule(d time.Duration, fn func()) Task {
	task := &manualTask{fn: fn}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return task
}

// Fire runs every task scheduled so far that is still pending and
// returns how many ran. Tasks scheduled by fired callbacks are queued
// for the next Fire.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	batch := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	ran := 0
	for _, t := range batch {
		if t.run() {
			ran++
		}
	}
	return ran
}

// Pending counts tasks that have been scheduled but not fired or
// cancelled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		t.mu.Lock()
		if !t.fired && !t.cancelled {
			n++
		}
		t.mu.Unlock()
	}
	return n
}
