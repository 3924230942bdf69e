// Package clock lets the countdown and the services read "now" from an
// injected source instead of calling time.Now directly.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current instant. A zero time.Time means the source has
// no usable time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always returns the same instant.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

// Mock is a settable clock. It is safe to read from the engine goroutine
// while a test moves it.
type Mock struct {
	mu      sync.Mutex
	current time.Time
}

func NewMock(t time.Time) *Mock {
	return &Mock{current: t}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current
}

func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}

var (
	_ Clock = systemClock{}
	_ Clock = fixedClock{}
	_ Clock = Func(nil)
	_ Clock = (*Mock)(nil)
)
