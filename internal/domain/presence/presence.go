// Package presence counts visitors seen recently and pushes the count to
// subscribers. The game engine never depends on it.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

const defaultStaleAfter = 10 * time.Minute

// Counter is what presentation layers consume.
type Counter interface {
	Touch(userID string)
	Leave(userID string)
	Online() int
	Subscribe(fn func(count int)) (unsubscribe func())
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStaleAfter sets how long an entry counts without a Touch.
func WithStaleAfter(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.staleAfter = d
		}
	}
}

// WithClock replaces time.Now. Tests use it to move time.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// Tracker is an in-memory Counter.
type Tracker struct {
	staleAfter time.Duration
	now        func() time.Time
	log        logger.Logger

	// pubMu orders deliveries so the last count a subscriber sees is the
	// last count computed. Held from snapshot through fan-out.
	pubMu sync.Mutex

	mu       sync.Mutex
	lastSeen map[string]time.Time
	subs     map[int]func(int)
	nextSub  int
	lastSent int
}

// New creates a Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		staleAfter: defaultStaleAfter,
		now:        time.Now,
		log:        logger.Nop(),
		lastSeen:   make(map[string]time.Time),
		subs:       make(map[int]func(int)),
		lastSent:   -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Touch marks userID as online now.
func (t *Tracker) Touch(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	t.lastSeen[userID] = t.now()
	t.mu.Unlock()
	t.publish()
}

// Leave removes userID immediately.
func (t *Tracker) Leave(userID string) {
	t.mu.Lock()
	delete(t.lastSeen, userID)
	t.mu.Unlock()
	t.publish()
}

// Online returns the number of users seen within the stale window.
func (t *Tracker) Online() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pruneLocked()
}

// Subscribe registers fn for count changes and calls it once with the
// current count. The returned func removes the subscription. fn must not
// call Touch or Leave.
func (t *Tracker) Subscribe(fn func(count int)) func() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	count := t.pruneLocked()
	t.mu.Unlock()

	fn(count)

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Run prunes stale entries every interval until ctx is done, notifying
// subscribers when the count drops.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.publish()
		}
	}
}

// pruneLocked drops stale entries and returns the live count.
func (t *Tracker) pruneLocked() int {
	cutoff := t.now().Add(-t.staleAfter)
	for id, seen := range t.lastSeen {
		if seen.Before(cutoff) {
			delete(t.lastSeen, id)
		}
	}
	return len(t.lastSeen)
}

// publish notifies subscribers if the count changed since the last push.
// Callbacks run outside mu so they may read Online.
func (t *Tracker) publish() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	t.mu.Lock()
	count := t.pruneLocked()
	if count == t.lastSent {
		t.mu.Unlock()
		return
	}
	t.lastSent = count
	fns := make([]func(int), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	metrics.UpdatePresence(count)
	t.log.Debug(context.Background(), "presence changed", logger.Int("online", count))
	for _, fn := range fns {
		fn(count)
	}
}
