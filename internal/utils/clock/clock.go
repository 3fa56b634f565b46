package clock

import (
	"sync"
	"time"
)

// Clock is injected wherever "now" matters so tests can pin it.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns the wall clock.
func Real() Clock { return realClock{} }

// Manual is a settable clock for tests and dry runs.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(now time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
