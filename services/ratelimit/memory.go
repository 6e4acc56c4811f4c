package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a fixed-window limiter for a single API instance.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	state map[string]*counter
}

type counter struct {
	start time.Time
	hits  int
}

var _ Limiter = (*Memory)(nil)

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:  limit,
		window: window,
		now:    time.Now,
		state:  make(map[string]*counter),
	}
}

func (l *Memory) Allow(_ context.Context, key string) (bool, error) {
	start := windowStart(l.now(), l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.state[key]
	if !ok || c.start.Before(start) {
		l.evict(start)
		c = &counter{start: start}
		l.state[key] = c
	}
	c.hits++
	return c.hits <= l.limit, nil
}

// evict drops the counters of past windows. Callers hold l.mu.
func (l *Memory) evict(start time.Time) {
	for key, c := range l.state {
		if c.start.Before(start) {
			delete(l.state, key)
		}
	}
}
