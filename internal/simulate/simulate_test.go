package simulate

import (
	"context"
	"errors"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/hangman/internal/adapters/http/api"
	service "github.com/okian/hangman/internal/app"
	"github.com/okian/hangman/internal/domain/game"
	"github.com/okian/hangman/internal/domain/types"
	"github.com/okian/hangman/internal/domain/wordbank"
	"github.com/okian/hangman/pkg/logger"
)

const secret = "sim-secret"

func init() {
	_ = logger.Init()
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(
		service.WithCatalogue(wordbank.Catalogue{
			{Word: "HUE", Hint: "Imperial capital of the Nguyen", Category: "Places"},
			{Word: "TRAN", Hint: "Dynasty that repelled the Mongols", Category: "Dynasties"},
			{Word: "THANGLONG", Hint: "Old name of Hanoi", Category: "Places"},
		}),
		service.WithEngineOptions(game.WithTotalRounds(2)),
		service.WithWorkerCount(2),
		service.WithLogger(logger.Nop()),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc, api.WithAuthSecret(secret)).Router(context.Background()))
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running quiz server", t, func() {
		srv := newServer(t)

		Convey("When bots play against it", func() {
			cfg := DefaultConfig()
			cfg.BaseURL = srv.URL
			cfg.AuthSecret = secret
			cfg.Players = 5
			cfg.GamesPerPlayer = 2
			cfg.Workers = 4
			cfg.PersistWait = 5 * time.Second
			cfg.Seed = 42

			stats, err := Run(context.Background(), cfg)

			Convey("Then every game is played, saved and verified", func() {
				So(err, ShouldBeNil)
				So(stats.GamesPlayed, ShouldEqual, 10)
				So(stats.GamesFailed, ShouldEqual, 0)
				So(stats.RoundsWon+stats.RoundsLost, ShouldEqual, 20)
				So(stats.ScoresQueued, ShouldEqual, 10)
				So(stats.PlayersVerified, ShouldEqual, 5)
			})
		})

		Convey("When the secret does not match", func() {
			cfg := DefaultConfig()
			cfg.BaseURL = srv.URL
			cfg.AuthSecret = "wrong"
			cfg.Players = 1
			cfg.GamesPerPlayer = 1
			cfg.Workers = 1

			stats, err := Run(context.Background(), cfg)

			Convey("Then games count as failed since scores cannot be saved", func() {
				So(err, ShouldBeNil)
				So(stats.GamesFailed, ShouldEqual, 1)
				So(stats.PlayersVerified, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an invalid configuration", t, func() {
		Convey("Then Run refuses it", func() {
			_, err := Run(context.Background(), Config{Players: 0, AuthSecret: "x"})
			So(err, ShouldEqual, ErrNoPlayers)
			_, err = Run(context.Background(), Config{Players: 1})
			So(err, ShouldEqual, ErrNoSecret)
		})
	})

	Convey("Given no server", t, func() {
		cfg := DefaultConfig()
		cfg.BaseURL = "http://127.0.0.1:1"
		cfg.AuthSecret = secret
		cfg.Timeout = time.Second

		Convey("Then the health check fails", func() {
			_, err := Run(context.Background(), cfg)
			So(errors.Is(err, ErrHealth), ShouldBeTrue)
		})
	})
}

func TestBotPick(t *testing.T) {
	Convey("Given a bot", t, func() {
		b := &bot{rng: rand.New(rand.NewSource(1))}

		Convey("Then it never repeats a guessed letter", func() {
			guessed := ""
			for range 26 {
				l := b.pick(guessed)
				So(l, ShouldHaveLength, 1)
				So(guessed, ShouldNotContainSubstring, l)
				guessed += l
			}
			So(b.pick(guessed), ShouldBeEmpty)
		})
	})
}

func TestCheckOrdering(t *testing.T) {
	Convey("Given leaderboard rows", t, func() {
		Convey("Then a sorted board passes", func() {
			So(checkOrdering([]types.Entry{{Rank: 1, Score: 500}, {Rank: 2, Score: 500}, {Rank: 3, Score: 220}}), ShouldBeNil)
		})

		Convey("Then an unsorted board fails", func() {
			err := checkOrdering([]types.Entry{{Rank: 1, Score: 220}, {Rank: 2, Score: 500}})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})

		Convey("Then a gap in ranks fails", func() {
			err := checkOrdering([]types.Entry{{Rank: 1, Score: 500}, {Rank: 3, Score: 220}})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})
	})
}

func TestBestScores(t *testing.T) {
	Convey("Given game results", t, func() {
		best := bestScores([]gameResult{
			{userID: "a", score: 100, scoreID: "1"},
			{userID: "a", score: 300, scoreID: "2"},
			{userID: "b", score: 900},
			{userID: "c", score: 0, scoreID: "3"},
		})

		Convey("Then unsaved games are ignored and the max wins", func() {
			So(best, ShouldResemble, map[string]int{"a": 300, "c": 0})
		})
	})
}
