package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/hangman/internal/domain/model"
	types "github.com/okian/hangman/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromRecord(t *testing.T) {
	Convey("Given a stored record", t, func() {
		at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		rec := model.ScoreRecord{
			ID: "r1", UserID: "u1", DisplayName: "Lan",
			Score: 490, TotalRounds: 10, CorrectCount: 2, BestStreak: 2, CreatedAt: at,
		}

		Convey("When converted it carries the rank and every field", func() {
			e := types.FromRecord(3, rec)
			So(e.Rank, ShouldEqual, 3)
			So(e.ID, ShouldEqual, "r1")
			So(e.Score, ShouldEqual, 490)
			So(e.CreatedAt, ShouldEqual, at)
		})

		Convey("When encoded an empty avatar is omitted", func() {
			b, err := json.Marshal(types.FromRecord(1, rec))
			So(err, ShouldBeNil)
			So(string(b), ShouldNotContainSubstring, "avatar_url")
			So(string(b), ShouldContainSubstring, `"display_name":"Lan"`)
		})

		Convey("When encoded with an avatar it is present", func() {
			rec.AvatarURL = "https://example.com/a.png"
			b, _ := json.Marshal(types.FromRecord(1, rec))
			So(string(b), ShouldContainSubstring, `"avatar_url":"https://example.com/a.png"`)
		})
	})
}

func TestGameEncoding(t *testing.T) {
	Convey("Given a game view mid-round", t, func() {
		g := types.Game{ID: "g1", Phase: "in_round", Round: 1, TotalRounds: 10, Masked: "_A_"}

		Convey("When encoded the word and submission are hidden", func() {
			b, err := json.Marshal(g)
			So(err, ShouldBeNil)
			So(string(b), ShouldNotContainSubstring, `"word"`)
			So(string(b), ShouldNotContainSubstring, `"submission"`)
			So(string(b), ShouldContainSubstring, `"masked":"_A_"`)
		})

		Convey("When the score was queued the submission is present", func() {
			g.Phase = "finished"
			g.Word = "CAT"
			g.Submission = &types.Submission{ID: "r1", State: types.SubmissionQueued}
			b, _ := json.Marshal(g)
			So(string(b), ShouldContainSubstring, `"word":"CAT"`)
			So(string(b), ShouldContainSubstring, `"submission":{"id":"r1","state":"queued"}`)
		})
	})

	Convey("Given an entry outside a leaderboard listing", t, func() {
		b, _ := json.Marshal(types.FromRecord(0, model.ScoreRecord{ID: "r1"}))

		Convey("Then rank is omitted", func() {
			So(string(b), ShouldNotContainSubstring, `"rank"`)
		})
	})
}
