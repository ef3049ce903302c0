// Package schedule provides cancellable timer tasks.
//
// Timers are first-class values: a Task can be stopped and inspected, and a
// Slot holds at most one Task so that starting a new heartbeat or reconnect
// timer always cancels the previous one.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	statePending int32 = iota
	stateFired
	stateStopped
)

// Task is a scheduled callback, either one-shot (After) or periodic (Every).
type Task struct {
	state atomic.Int32

	timer    clockwork.Timer  // one-shot only
	ticker   clockwork.Ticker // periodic only
	done     chan struct{}
	finished chan struct{} // closed once fn can no longer be running
}

// After runs fn once after d. Once Stop returns true, fn never starts.
func After(clock clockwork.Clock, d time.Duration, fn func()) *Task {
	t := &Task{finished: make(chan struct{})}
	t.timer = clock.AfterFunc(d, func() {
		if !t.state.CompareAndSwap(statePending, stateFired) {
			return
		}
		defer close(t.finished)
		fn()
	})
	return t
}

// Every runs fn every d until stopped. Ticks are not queued: a slow fn
// skips ticks instead of piling them up.
func Every(clock clockwork.Clock, d time.Duration, fn func()) *Task {
	t := &Task{
		ticker:   clock.NewTicker(d),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	go func() {
		defer close(t.finished)
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.Chan():
				if t.state.Load() != statePending {
					return
				}
				fn()
			}
		}
	}()

	return t
}

// Stop cancels the task. It reports whether the task was still pending
// (for one-shot tasks: whether fn was prevented from running).
func (t *Task) Stop() bool {
	if t == nil {
		return false
	}
	if !t.state.CompareAndSwap(statePending, stateStopped) {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
		close(t.finished)
	}
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.done)
	}
	return true
}

// Wait blocks until fn is neither running nor able to start again. For a
// periodic task that means Stop was called and the last run returned; a
// one-shot task also finishes by firing. Wait must not be called from fn.
func (t *Task) Wait() {
	if t == nil {
		return
	}
	<-t.finished
}

// Active reports whether the task can still fire.
func (t *Task) Active() bool {
	return t != nil && t.state.Load() == statePending
}

// Slot holds at most one task.
type Slot struct {
	mu   sync.Mutex
	task *Task
}

// Set replaces the current task, stopping the previous one first.
func (s *Slot) Set(t *Task) {
	s.mu.Lock()
	prev := s.task
	s.task = t
	s.mu.Unlock()

	prev.Stop()
}

// Stop stops and clears the current task. It reports whether a pending task
// was cancelled.
func (s *Slot) Stop() bool {
	s.mu.Lock()
	t := s.task
	s.task = nil
	s.mu.Unlock()

	return t.Stop()
}

// Take clears the slot and returns its task, which keeps running.
func (s *Slot) Take() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.task
	s.task = nil
	return t
}

// Active reports whether the slot holds a task that can still fire.
func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task.Active()
}
