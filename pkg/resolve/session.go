package resolve

import (
	"context"
	"sync"
	"time"
)

// session is one resolve cycle: the debounce timer and the context of the
// fetches it starts. Stopping a session always does both.
type session struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	running *sync.WaitGroup
}

func newSession(id uint64, running *sync.WaitGroup) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:      id,
		ctx:     ctx,
		cancel:  cancel,
		running: running,
	}
}

// arm schedules fn after d. It does nothing once the session is stopped.
func (s *session) arm(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.running.Add(1)
	s.timer = time.AfterFunc(d, func() {
		defer s.running.Done()
		fn()
	})
}

// stop clears the timer and cancels the context.
func (s *session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	if s.timer != nil && s.timer.Stop() {
		s.running.Done()
	}
	s.cancel()
}

// done releases the context of a session that settled normally.
func (s *session) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancel()
}

func (s *session) live() bool {
	return s.ctx.Err() == nil
}
