package crossing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/greenhorn/internal/domain/crossing"
	"github.com/okian/greenhorn/internal/domain/model"
	"github.com/okian/greenhorn/internal/domain/threshold"
	"github.com/okian/greenhorn/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// recordingLedger lets tests inspect what the detector remembered.
type recordingLedger struct {
	mu     sync.Mutex
	levels map[model.PlayerID]int
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{levels: map[model.PlayerID]int{}}
}

func (l *recordingLedger) Recall(id model.PlayerID) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.levels[id]
	return v, ok
}

func (l *recordingLedger) Remember(id model.PlayerID, level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.levels[id] = level
}

func (l *recordingLedger) Forget(id model.PlayerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.levels, id)
}

func TestDetectorLevelChange(t *testing.T) {
	Convey("Given a detector with threshold 10", t, func() {
		ctx := context.Background()
		store, err := threshold.NewStore(10)
		So(err, ShouldBeNil)
		d := crossing.NewDetector(store)
		const id = model.PlayerID("char-1")

		Convey("When a player observed at 5 reaches 10", func() {
			_, fired := d.OnLevelChange(ctx, id, 5)
			So(fired, ShouldBeFalse)
			So(d.Tracked(), ShouldEqual, 1)

			c, fired := d.OnLevelChange(ctx, id, 10)

			Convey("Then exactly one crossing fires with the new level", func() {
				So(fired, ShouldBeTrue)
				So(c.PlayerID, ShouldEqual, id)
				So(c.Level, ShouldEqual, 10)
				So(c.Threshold, ShouldEqual, 10)
			})

			Convey("And the observation is removed", func() {
				So(d.Tracked(), ShouldEqual, 0)
			})

			Convey("And a later level change does not fire again", func() {
				_, again := d.OnLevelChange(ctx, id, 12)
				So(again, ShouldBeFalse)
			})
		})

		Convey("When a player levels 3 -> 5 -> 8", func() {
			Convey("Then no crossing fires at any step", func() {
				for _, level := range []int{3, 5, 8} {
					_, fired := d.OnLevelChange(ctx, id, level)
					So(fired, ShouldBeFalse)
				}
				So(d.Tracked(), ShouldEqual, 1)
			})
		})

		Convey("When a never-observed player is seen above the threshold", func() {
			_, fired := d.OnLevelChange(ctx, "char-veteran", 40)

			Convey("Then no crossing fires and nothing is tracked", func() {
				So(fired, ShouldBeFalse)
				So(d.Tracked(), ShouldEqual, 0)
			})
		})

		Convey("When the threshold is raised while a player is tracked at 5", func() {
			_, _ = d.OnLevelChange(ctx, id, 5)
			So(store.Set(20), ShouldBeNil)

			Convey("Then the change alone keeps the observation", func() {
				So(d.Tracked(), ShouldEqual, 1)
			})

			Convey("And a level change to 6 is evaluated against the new threshold", func() {
				_, fired := d.OnLevelChange(ctx, id, 6)
				So(fired, ShouldBeFalse)
			})

			Convey("And reaching the new threshold fires once", func() {
				c, fired := d.OnLevelChange(ctx, id, 20)
				So(fired, ShouldBeTrue)
				So(c.Threshold, ShouldEqual, 20)
			})
		})

		Convey("When the threshold is lowered below a tracked level", func() {
			_, _ = d.OnLevelChange(ctx, id, 8)
			So(store.Set(5), ShouldBeNil)

			Convey("Then the next level change does not count as a crossing", func() {
				_, fired := d.OnLevelChange(ctx, id, 9)
				So(fired, ShouldBeFalse)
				So(d.Tracked(), ShouldEqual, 0)
			})
		})

		Convey("When the threshold drops to zero with a dangling observation", func() {
			_, _ = d.OnLevelChange(ctx, id, 5)
			So(store.Set(0), ShouldBeNil)

			_, fired := d.OnLevelChange(ctx, id, 6)

			Convey("Then no crossing fires and the observation is cleared", func() {
				So(fired, ShouldBeFalse)
				So(d.Tracked(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a detector with threshold 0", t, func() {
		ctx := context.Background()
		store, err := threshold.NewStore(0)
		So(err, ShouldBeNil)
		d := crossing.NewDetector(store)

		Convey("Then no level ever fires or is tracked", func() {
			for level := 0; level < 50; level++ {
				_, fired := d.OnLevelChange(ctx, "char-z", level)
				So(fired, ShouldBeFalse)
			}
			So(d.Tracked(), ShouldEqual, 0)
		})
	})
}

func TestDetectorSessions(t *testing.T) {
	Convey("Given a detector with threshold 10", t, func() {
		ctx := context.Background()
		store, err := threshold.NewStore(10)
		So(err, ShouldBeNil)
		ledger := newRecordingLedger()
		d := crossing.NewDetector(store, crossing.WithLedger(ledger))
		const id = model.PlayerID("char-2")

		Convey("When a player logs in below the threshold", func() {
			_, fired := d.OnLogin(ctx, id, 4)

			Convey("Then the player is tracked and remembered", func() {
				So(fired, ShouldBeFalse)
				So(d.Tracked(), ShouldEqual, 1)
				v, ok := ledger.Recall(id)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 4)
			})
		})

		Convey("When a player cached at 8 gains levels while offline", func() {
			_, _ = d.OnLevelChange(ctx, id, 8)
			d.OnLogout(ctx, id)
			So(d.Tracked(), ShouldEqual, 0)

			c, fired := d.OnLogin(ctx, id, 12)

			Convey("Then exactly one crossing fires at login", func() {
				So(fired, ShouldBeTrue)
				So(c.Level, ShouldEqual, 12)
			})

			Convey("And the character is no longer tracked or remembered", func() {
				So(d.Tracked(), ShouldEqual, 0)
				_, ok := ledger.Recall(id)
				So(ok, ShouldBeFalse)
			})

			Convey("And logging in again does not fire", func() {
				d.OnLogout(ctx, id)
				_, again := d.OnLogin(ctx, id, 12)
				So(again, ShouldBeFalse)
			})
		})

		Convey("When a never-observed player logs in above the threshold", func() {
			_, fired := d.OnLogin(ctx, "char-new", 30)

			Convey("Then no crossing fires", func() {
				So(fired, ShouldBeFalse)
			})
		})

		Convey("When a player disconnects without logging out", func() {
			_, _ = d.OnLogin(ctx, id, 9)
			c, fired := d.OnLogin(ctx, id, 10)

			Convey("Then the stale observation is evaluated at the next login", func() {
				So(fired, ShouldBeTrue)
				So(c.Level, ShouldEqual, 10)
				So(d.Tracked(), ShouldEqual, 0)
			})
		})

		Convey("When logging out twice", func() {
			_, _ = d.OnLogin(ctx, id, 3)
			d.OnLogout(ctx, id)
			tracked := d.Tracked()
			d.OnLogout(ctx, id)

			Convey("Then the second logout changes nothing", func() {
				So(tracked, ShouldEqual, 0)
				So(d.Tracked(), ShouldEqual, 0)
				v, ok := ledger.Recall(id)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 3)
			})
		})

		Convey("When logging out an unknown player", func() {
			Convey("Then it should not panic", func() {
				So(func() { d.OnLogout(ctx, "char-ghost") }, ShouldNotPanic)
			})
		})
	})
}

func TestDetectorConcurrency(t *testing.T) {
	Convey("Given many players levelling concurrently", t, func() {
		ctx := context.Background()
		store, err := threshold.NewStore(10)
		So(err, ShouldBeNil)
		d := crossing.NewDetector(store)

		const players = 64
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			counts = make(map[model.PlayerID]int)
		)
		for i := 0; i < players; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				id := model.PlayerID(fmt.Sprintf("char-%d", n))
				_, _ = d.OnLogin(ctx, id, 1)
				for level := 2; level <= 15; level++ {
					if _, fired := d.OnLevelChange(ctx, id, level); fired {
						mu.Lock()
						counts[id]++
						mu.Unlock()
					}
				}
				d.OnLogout(ctx, id)
			}(i)
		}
		wg.Wait()

		Convey("Then every player crossed exactly once", func() {
			So(len(counts), ShouldEqual, players)
			for _, n := range counts {
				So(n, ShouldEqual, 1)
			}
			So(d.Tracked(), ShouldEqual, 0)
		})
	})
}
