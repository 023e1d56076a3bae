package presence_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/hangman/internal/domain/presence"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTracker(t *testing.T) {
	Convey("Given a tracker with a ten minute window", t, func() {
		clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
		tr := presence.New(presence.WithStaleAfter(10*time.Minute), presence.WithClock(clock.Now))

		Convey("Touching users counts each once", func() {
			tr.Touch("a")
			tr.Touch("b")
			tr.Touch("a")
			tr.Touch("")
			So(tr.Online(), ShouldEqual, 2)
		})

		Convey("Users not seen within the window drop out", func() {
			tr.Touch("a")
			clock.Advance(6 * time.Minute)
			tr.Touch("b")
			clock.Advance(5 * time.Minute)
			So(tr.Online(), ShouldEqual, 1)
		})

		Convey("Leave removes a user at once", func() {
			tr.Touch("a")
			tr.Leave("a")
			So(tr.Online(), ShouldEqual, 0)
		})

		Convey("Subscribers get the current count and each change", func() {
			var mu sync.Mutex
			var got []int
			unsubscribe := tr.Subscribe(func(n int) {
				mu.Lock()
				got = append(got, n)
				mu.Unlock()
			})

			tr.Touch("a")
			tr.Touch("a")
			tr.Touch("b")
			tr.Leave("a")
			unsubscribe()
			unsubscribe()
			tr.Touch("c")

			mu.Lock()
			defer mu.Unlock()
			So(got, ShouldResemble, []int{0, 1, 2, 1})
		})
	})
}

func TestTrackerConcurrentPublish(t *testing.T) {
	Convey("Given a subscriber that is slow on one count", t, func() {
		for i := 0; i < 50; i++ {
			tr := presence.New()
			var mu sync.Mutex
			last := -1
			unsubscribe := tr.Subscribe(func(n int) {
				if n == 7 {
					time.Sleep(time.Millisecond)
				}
				mu.Lock()
				last = n
				mu.Unlock()
			})

			var wg sync.WaitGroup
			for u := 0; u < 8; u++ {
				wg.Add(1)
				go func(u int) {
					defer wg.Done()
					tr.Touch(fmt.Sprintf("user-%d", u))
				}(u)
			}
			wg.Wait()
			unsubscribe()

			mu.Lock()
			got := last
			mu.Unlock()
			So(got, ShouldEqual, tr.Online())
			So(got, ShouldEqual, 8)
		}
	})
}
