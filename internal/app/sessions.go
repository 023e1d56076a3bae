package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hangman/internal/domain/game"
	"github.com/okian/hangman/internal/domain/model"
)

// liveSession is a session held between requests. mu serializes
// transitions so concurrent guesses on one session apply in order.
type liveSession struct {
	mu    sync.Mutex
	id    string
	owner *model.Player
	state game.Session

	// scoreID is the record id of the queued submission, if any.
	scoreID   string
	submitErr string

	touched atomic.Int64
}

func (ls *liveSession) touch(now time.Time) { ls.touched.Store(now.UnixNano()) }

func (ls *liveSession) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, ls.touched.Load()))
}

// ownedBy reports whether userID may act on the session. Anonymous sessions
// are reachable by anyone holding the id. ls.mu must be held.
func (ls *liveSession) ownedBy(userID string) bool {
	return ls.owner == nil || ls.owner.UserID == userID
}

// registry indexes live sessions by id and evicts idle ones.
type registry struct {
	mu    sync.RWMutex
	items map[string]*liveSession
}

func newRegistry() *registry {
	return &registry{items: make(map[string]*liveSession)}
}

func (r *registry) add(ls *liveSession) {
	r.mu.Lock()
	r.items[ls.id] = ls
	r.mu.Unlock()
}

func (r *registry) get(id string) (*liveSession, bool) {
	r.mu.RLock()
	ls, ok := r.items[id]
	r.mu.RUnlock()
	return ls, ok
}

func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	return true
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// sweep drops sessions idle for longer than ttl and returns how many went.
func (r *registry) sweep(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, ls := range r.items {
		if ls.idleSince(now) > ttl {
			delete(r.items, id)
			n++
		}
	}
	return n
}
