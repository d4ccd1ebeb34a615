package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it should start empty", func() {
			So(d, ShouldNotBeNil)
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a key is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "refresh-1")

			Convey("Then it should be reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And recording it again should report it as seen", func() {
				So(d.SeenAndRecord(ctx, "refresh-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded key is unrecorded", func() {
			d.SeenAndRecord(ctx, "game-7")
			d.Unrecord(ctx, "game-7")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "game-7"), ShouldBeFalse)
			})
		})

		Convey("When an unknown key is unrecorded", func() {
			d.Unrecord(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper at capacity", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"a", "b", "c"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("When a new key is recorded", func() {
			So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

			Convey("Then the oldest key should be evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When many keys are recorded", func() {
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i))
			}

			Convey("Then none should be evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "key-0"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deduper with a TTL", t, func() {
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		d := dedupe.NewInMemoryDeduper(dedupe.WithTTL(time.Minute), dedupe.WithClock(clock))
		d.SeenAndRecord(ctx, "key")

		Convey("When the TTL has not elapsed", func() {
			now = now.Add(30 * time.Second)

			Convey("Then the key is still seen", func() {
				So(d.SeenAndRecord(ctx, "key"), ShouldBeTrue)
			})
		})

		Convey("When the TTL has elapsed", func() {
			now = now.Add(2 * time.Minute)

			Convey("Then the key counts as new", func() {
				So(d.SeenAndRecord(ctx, "key"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const perGoroutine = 100

		Convey("When goroutines record distinct keys concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("key-%d-%d", g, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every key should be recorded", func() {
				So(d.Size(), ShouldEqual, goroutines*perGoroutine)
			})
		})

		Convey("When goroutines race on the same key", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(context.Background(), "shared") {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one should win", func() {
				So(fresh, ShouldEqual, 1)
			})
		})
	})
}
