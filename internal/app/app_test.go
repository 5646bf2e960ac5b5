package app

import (
	"sync"
	"testing"
	"time"

	"chatbase/pkg/store"
)

// stepClock advances one second on every read so consecutive audit
// timestamps are strictly ordered. Advance jumps it forward for lockout
// expiry tests.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestApp(t *testing.T) (*App, *stepClock) {
	t.Helper()
	clock := newStepClock()
	a, err := New(Config{Store: store.NewMemoryStore()}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, clock
}
