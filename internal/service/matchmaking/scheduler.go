package matchmaking

import (
	"sync"
	"time"
)

// FallbackScheduler arms one deferred action per waiting connection,
// typically the bot-opponent fallback. Cancel and fire race; callers
// resolve the race by starting the fired action with a queue removal
// that reports whether the request was still pending.
type FallbackScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewFallbackScheduler() *FallbackScheduler {
	return &FallbackScheduler{
		timers: make(map[string]*time.Timer),
	}
}

// Arm schedules fire after delay. Re-arming a connection replaces its
// previous timer.
func (s *FallbackScheduler) Arm(connID string, delay time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.timers[connID]; exists {
		old.Stop()
	}
	s.timers[connID] = time.AfterFunc(delay, func() {
		s.remove(connID)
		fire()
	})
}

// Cancel disarms a pending timer. A timer that already fired is gone
// from the map, so this is a no-op then.
func (s *FallbackScheduler) Cancel(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, exists := s.timers[connID]; exists {
		timer.Stop()
		delete(s.timers, connID)
	}
}

func (s *FallbackScheduler) remove(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, connID)
}
