package dispatch

import (
	"sort"
	"sync"
	"time"
)

// ManualScheduler is a Scheduler driven explicitly by tests. Posted
// callbacks run on RunPending; timers fire only when Advance moves the
// virtual clock past their deadline.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	posted []func()
	timers []*manualTimer
}

// NewManualScheduler creates a scheduler with its clock at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualTimer struct {
	s        *ManualScheduler
	deadline time.Duration
	seq      int
	fn       func()
	done     bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.s.remove(t)
	return true
}

// Post queues fn.
func (s *ManualScheduler) Post(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, fn)
}

// AfterFunc schedules fn at now+d on the virtual clock.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &manualTimer{s: s, deadline: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].deadline != s.timers[j].deadline {
			return s.timers[i].deadline < s.timers[j].deadline
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	return t
}

// RunPending runs posted callbacks, including ones they post, until the
// queue is empty. It returns the number of callbacks run.
func (s *ManualScheduler) RunPending() int {
	n := 0
	for {
		s.mu.Lock()
		if len(s.posted) == 0 {
			s.mu.Unlock()
			return n
		}
		fn := s.posted[0]
		s.posted = s.posted[1:]
		s.mu.Unlock()

		fn()
		n++
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Posted callbacks are drained before and after each timer.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.RunPending()

	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if len(s.timers) == 0 || s.timers[0].deadline > target {
			s.now = target
			s.mu.Unlock()
			s.RunPending()
			return
		}
		t := s.timers[0]
		s.timers = s.timers[1:]
		t.done = true
		s.now = t.deadline
		s.mu.Unlock()

		t.fn()
		s.RunPending()
	}
}

// Now returns the virtual time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// PendingTimers returns the number of timers that have not fired or been
// stopped.
func (s *ManualScheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// NextDeadline returns the time until the earliest pending timer.
func (s *ManualScheduler) NextDeadline() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return 0, false
	}
	return s.timers[0].deadline - s.now, true
}

func (s *ManualScheduler) remove(t *manualTimer) {
	for i, x := range s.timers {
		if x == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

var _ Scheduler = (*ManualScheduler)(nil)
