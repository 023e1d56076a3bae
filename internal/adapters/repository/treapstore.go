package repository

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering follows model.RanksAbove: "less" means ranks earlier, so an
// in-order traversal yields the leaderboard from best to worst. Subtree
// sizes make rank queries O(log n).

type node struct {
	rec   model.ScoreRecord
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, rec model.ScoreRecord, prio uint64) *node {
	if n == nil {
		return &node{rec: rec, prio: prio, size: 1}
	}
	if model.RanksAbove(rec, n.rec) {
		n.left = insert(n.left, rec, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, rec, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectTopN appends up to limit records in rank order.
func collectTopN(n *node, limit int, out *[]model.ScoreRecord) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.rec)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// countAbove returns how many records score strictly more than score.
func countAbove(n *node, score int) int {
	c := 0
	for n != nil {
		if n.rec.Score > score {
			c += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

// TreapStore keeps every record in a treap plus a per-user index.
type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	byID   map[string]struct{}
	byUser map[string][]model.ScoreRecord
	rng    *rand.Rand

	opts     options
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs an empty in-memory store and starts its
// background metrics updater.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:     make(map[string]struct{}),
		byUser:   make(map[string][]model.ScoreRecord),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // treap priorities only
		opts:     applyOptions(opts),
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runMetricsUpdater(ctx, s.stopChan, s.opts.metricsUpdateInterval, s.Count)
	}()
	return s
}

// Close stops the metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Insert implements Store.Insert in O(log n) expected time.
func (s *TreapStore) Insert(_ context.Context, rec model.ScoreRecord) error {
	defer observe("insert", time.Now())
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byID[rec.ID]; taken {
		metrics.RecordErrorByComponent("repository", "duplicate_id")
		return ErrDuplicateID
	}
	s.byID[rec.ID] = struct{}{}
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec)
	s.root = insert(s.root, rec, s.rng.Uint64())
	return nil
}

// TopScores implements Store.TopScores.
func (s *TreapStore) TopScores(_ context.Context, n int) ([]model.ScoreRecord, error) {
	defer observe("top_scores", time.Now())
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ScoreRecord, 0, min(n, nsize(s.root)))
	collectTopN(s.root, n, &out)
	return out, nil
}

// UserBest implements Store.UserBest.
func (s *TreapStore) UserBest(_ context.Context, userID string) (model.ScoreRecord, error) {
	defer observe("user_best", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bestLocked(userID)
}

func (s *TreapStore) bestLocked(userID string) (model.ScoreRecord, error) {
	recs := s.byUser[userID]
	if len(recs) == 0 {
		return model.ScoreRecord{}, ErrNotFound
	}
	best := recs[0]
	for _, r := range recs[1:] {
		if model.RanksAbove(r, best) {
			best = r
		}
	}
	return best, nil
}

// UserRecent implements Store.UserRecent.
func (s *TreapStore) UserRecent(_ context.Context, userID string, n int) ([]model.ScoreRecord, error) {
	defer observe("user_recent", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	out := append([]model.ScoreRecord(nil), s.byUser[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// UserRank implements Store.UserRank in O(log n) after the user lookup.
func (s *TreapStore) UserRank(_ context.Context, userID string) (int, error) {
	defer observe("user_rank", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, err := s.bestLocked(userID)
	if err != nil {
		return 0, err
	}
	return 1 + countAbove(s.root, best.Score), nil
}

// Count returns the total number of records.
func (s *TreapStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nsize(s.root), nil
}

// Users returns the number of distinct users with a record.
func (s *TreapStore) Users(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser), nil
}
