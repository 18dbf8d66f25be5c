package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type localEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Local is an in-process token bucket per key: limit events per window,
// bursting up to limit.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	every   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

func NewLocal(limit int, window time.Duration) *Local {
	if limit <= 0 {
		limit = 1
	}
	return &Local{
		entries: make(map[string]*localEntry),
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idle:    window * 2,
		now:     time.Now,
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{lim: rate.NewLimiter(l.every, l.burst)}
		l.entries[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1), nil
}

// Sweep drops keys idle for longer than two windows.
func (l *Local) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for k, e := range l.entries {
		if now.Sub(e.seen) > l.idle {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

func (l *Local) RunSweeper(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}
