package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/listate"
)

// ManualScheduler is a listate.Scheduler driven by Advance instead of wall time.
//
// Timers fire in deadline order, ties broken by scheduling order, on the
// goroutine calling Advance. Nothing fires inside AfterFunc.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int64
	timers []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	due     time.Duration
	seq     int64
	f       func()
	stopped bool
	fired   bool
}

var _ listate.Scheduler = (*ManualScheduler)(nil)

// NewManualScheduler creates a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc registers f to run once the scheduler has advanced by d.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) listate.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, due: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the elapsed virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves virtual time forward by d, firing every timer that falls due.
// Timers scheduled by fired callbacks run too if they fall inside the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		t := s.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// AdvanceTo moves virtual time to the absolute offset at.
// Does nothing when at is in the past.
func (s *ManualScheduler) AdvanceTo(at time.Duration) {
	now := s.Now()
	if at > now {
		s.Advance(at - now)
	}
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// nextDue pops the earliest live timer due at or before target and moves
// the clock to its deadline.
func (s *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.timers) == 0 {
		return nil
	}
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due != s.timers[j].due {
			return s.timers[i].due < s.timers[j].due
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	t := s.timers[0]
	if t.due > target {
		return nil
	}
	s.timers = s.timers[1:]
	t.fired = true
	if t.due > s.now {
		s.now = t.due
	}
	return t
}

// Stop implements listate.Timer.
func (t *manualTimer) Stop() bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	for i, other := range s.timers {
		if other == t {
			s.timers = append(s.timers[:i:i], s.timers[i+1:]...)
			break
		}
	}
	return true
}
