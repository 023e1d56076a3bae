package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/hangman/internal/app"
	"github.com/okian/hangman/internal/adapters/repository"
	"github.com/okian/hangman/internal/domain/game"
	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// gatedStore blocks inserts until the gate opens.
type gatedStore struct {
	repository.Store
	gate chan struct{}
	once sync.Once
}

func newGatedStore(ctx context.Context) *gatedStore {
	return &gatedStore{Store: repository.NewTreapStore(ctx), gate: make(chan struct{})}
}

func (s *gatedStore) Insert(ctx context.Context, rec model.ScoreRecord) error {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Store.Insert(ctx, rec)
}

func (s *gatedStore) open() { s.once.Do(func() { close(s.gate) }) }

// failingStore refuses inserts while failures is positive.
type failingStore struct {
	repository.Store
	failures atomic.Int32
}

func (s *failingStore) Insert(ctx context.Context, rec model.ScoreRecord) error {
	if s.failures.Add(-1) >= 0 {
		return errors.New("disk on fire")
	}
	return s.Store.Insert(ctx, rec)
}

// finish wins the single CAT round and advances to Finished.
func finish(svc *service.Service, id, userID string) types.Game {
	ctx := context.Background()
	for _, l := range []string{"c", "a", "t"} {
		_, err := svc.Guess(ctx, id, userID, l)
		So(err, ShouldBeNil)
	}
	g, err := svc.Advance(ctx, id, userID)
	So(err, ShouldBeNil)
	So(g.Phase, ShouldEqual, "finished")
	return g
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := newService(t)
		ctx := context.Background()

		Convey("When a signed-in player finishes a session", func() {
			g, err := svc.StartGame(ctx, lan)
			So(err, ShouldBeNil)
			g = finish(svc, g.ID, lan.UserID)

			Convey("Then the score is submitted automatically", func() {
				So(g.Score, ShouldEqual, 220)
				So(g.Submission, ShouldNotBeNil)
				So(g.Submission.State, ShouldEqual, types.SubmissionQueued)
				So(g.Submission.ID, ShouldNotBeEmpty)
			})

			Convey("Then it reaches the leaderboard", func() {
				So(eventually(func() bool {
					top, err := svc.TopScores(ctx, 10)
					return err == nil && len(top) == 1
				}), ShouldBeTrue)

				top, _ := svc.TopScores(ctx, 10)
				So(top[0].Rank, ShouldEqual, 1)
				So(top[0].ID, ShouldEqual, g.Submission.ID)
				So(top[0].DisplayName, ShouldEqual, "Lan")
				So(top[0].Score, ShouldEqual, 220)
				So(top[0].TotalRounds, ShouldEqual, 1)
				So(top[0].CorrectCount, ShouldEqual, 1)
				So(top[0].BestStreak, ShouldEqual, 1)

				rank, err := svc.UserRank(ctx, lan.UserID)
				So(err, ShouldBeNil)
				So(rank.Rank, ShouldEqual, 1)
				So(rank.Best.Score, ShouldEqual, 220)

				best, err := svc.UserBest(ctx, lan.UserID)
				So(err, ShouldBeNil)
				So(best.ID, ShouldEqual, g.Submission.ID)

				recent, err := svc.UserRecent(ctx, lan.UserID, 5)
				So(err, ShouldBeNil)
				So(recent, ShouldHaveLength, 1)
			})

			Convey("Then resubmitting returns the same record id", func() {
				id, err := svc.SubmitSession(ctx, g.ID, lan)
				So(err, ShouldBeNil)
				So(id, ShouldEqual, g.Submission.ID)
			})

			Convey("Then the gateway refuses the session id a second time", func() {
				_, err := svc.Submit(ctx, g.ID, *lan, game.Summary{Score: 220, TotalRounds: 1, CorrectCount: 1, BestStreak: 1})
				So(errors.Is(err, service.ErrAlreadySubmitted), ShouldBeTrue)
				So(errors.Is(err, repository.ErrSubmission), ShouldBeTrue)
			})
		})

		Convey("When an anonymous player finishes a session", func() {
			g, _ := svc.StartGame(ctx, nil)
			g = finish(svc, g.ID, "")

			Convey("Then nothing is submitted", func() {
				So(g.Submission, ShouldBeNil)
			})

			Convey("Then submitting without a user is unauthenticated", func() {
				_, err := svc.SubmitSession(ctx, g.ID, nil)
				So(errors.Is(err, service.ErrUnauthenticated), ShouldBeTrue)
				So(errors.Is(err, repository.ErrSubmission), ShouldBeTrue)
			})

			Convey("Then signing in and submitting claims it", func() {
				id, err := svc.SubmitSession(ctx, g.ID, lan)
				So(err, ShouldBeNil)
				So(id, ShouldNotBeEmpty)

				_, err = svc.Game(ctx, g.ID, "u-other")
				So(err, ShouldEqual, service.ErrForbidden)
			})
		})

		Convey("When a session is submitted before it finishes", func() {
			g, _ := svc.StartGame(ctx, lan)
			_, err := svc.SubmitSession(ctx, g.ID, lan)
			So(err, ShouldEqual, service.ErrNotFinished)
		})

		Convey("When reading an unknown user", func() {
			_, err := svc.UserRank(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When asking for a non-positive leaderboard", func() {
			_, err := svc.TopScores(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a one-slot queue in front of a stalled store", t, func() {
		ctx := context.Background()
		store := newGatedStore(ctx)
		svc := newService(t, service.WithStore(store), service.WithQueueSize(1))
		defer store.open()

		Convey("When several players finish at once", func() {
			var (
				refused *types.Game
				player  *model.Player
			)
			for i := range 4 {
				p := &model.Player{UserID: "u" + string(rune('a'+i)), DisplayName: "P"}
				g, err := svc.StartGame(ctx, p)
				So(err, ShouldBeNil)
				g = finish(svc, g.ID, p.UserID)
				if g.Submission.State == types.SubmissionFailed && refused == nil {
					refused, player = &g, p
				}
			}

			Convey("Then at least one submission is refused but can be retried", func() {
				So(refused, ShouldNotBeNil)
				So(refused.Submission.Error, ShouldContainSubstring, "backed up")

				store.open()
				So(eventually(func() bool {
					_, err := svc.SubmitSession(ctx, refused.ID, player)
					return err == nil
				}), ShouldBeTrue)
				So(eventually(func() bool {
					rank, err := svc.UserRank(ctx, player.UserID)
					return err == nil && rank.Rank >= 1
				}), ShouldBeTrue)
			})
		})
	})
}

func TestServicePersistFailure(t *testing.T) {
	Convey("Given a store that fails its first three inserts", t, func() {
		ctx := context.Background()
		store := &failingStore{Store: repository.NewTreapStore(ctx)}
		// One initial try plus two retries.
		store.failures.Store(3)
		svc := newService(t, service.WithStore(store))

		Convey("When a signed-in player finishes", func() {
			g, _ := svc.StartGame(ctx, lan)
			g = finish(svc, g.ID, lan.UserID)
			So(g.Submission.State, ShouldEqual, types.SubmissionQueued)

			Convey("Then the failure is reported and the session can resubmit", func() {
				So(eventually(func() bool {
					got, err := svc.Game(ctx, g.ID, lan.UserID)
					return err == nil && got.Submission != nil && got.Submission.State == types.SubmissionFailed
				}), ShouldBeTrue)

				id, err := svc.SubmitSession(ctx, g.ID, lan)
				So(err, ShouldBeNil)
				So(id, ShouldNotEqual, g.Submission.ID)

				So(eventually(func() bool {
					n, _ := store.Count(ctx)
					return n == 1
				}), ShouldBeTrue)
			})
		})
	})
}
