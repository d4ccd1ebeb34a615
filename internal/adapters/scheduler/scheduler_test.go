package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []model.RefreshJob
	fail map[string]bool
}

func (r *recordingEnqueuer) EnqueueRefresh(_ context.Context, job model.RefreshJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[job.Scope] {
		return errors.New("queue full")
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recordingEnqueuer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func TestScheduler(t *testing.T) {
	convey.Convey("Given a scheduler over two scopes", t, func() {
		enq := &recordingEnqueuer{fail: map[string]bool{}}
		fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		n := 0
		s, err := New("@every 1h", []string{model.GlobalScope, "s1"}, enq,
			WithClock(func() time.Time { return fixed }),
			WithIDGenerator(func() string { n++; return string(rune('a' + n - 1)) }),
		)
		convey.So(err, convey.ShouldBeNil)
		convey.So(s.Enabled(), convey.ShouldBeTrue)

		convey.Convey("Trigger enqueues one job per scope", func() {
			convey.So(s.Trigger(context.Background()), convey.ShouldEqual, 2)
			convey.So(enq.jobs, convey.ShouldResemble, []model.RefreshJob{
				{ID: "a", Scope: "", Reason: ReasonSchedule, RequestedAt: fixed},
				{ID: "b", Scope: "s1", Reason: ReasonSchedule, RequestedAt: fixed},
			})
		})

		convey.Convey("A rejected scope does not stop the others", func() {
			enq.fail[""] = true
			convey.So(s.Trigger(context.Background()), convey.ShouldEqual, 1)
			convey.So(enq.jobs[0].Scope, convey.ShouldEqual, "s1")
		})

		convey.Convey("Start and Stop are clean", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			s.Start(ctx)
			s.Stop(ctx)
			convey.So(enq.count(), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("A short interval fires on its own", t, func() {
		enq := &recordingEnqueuer{}
		s, err := New("@every 1s", []string{"s1"}, enq)
		convey.So(err, convey.ShouldBeNil)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		s.Start(ctx)
		defer s.Stop(ctx)

		deadline := time.Now().Add(2500 * time.Millisecond)
		for enq.count() == 0 && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}
		convey.So(enq.count(), convey.ShouldBeGreaterThanOrEqualTo, 1)
	})

	convey.Convey("An empty spec disables scheduling", t, func() {
		s, err := New("", []string{"s1"}, &recordingEnqueuer{})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s.Enabled(), convey.ShouldBeFalse)
		s.Start(context.Background())
		s.Stop(context.Background())
	})

	convey.Convey("A malformed spec is rejected", t, func() {
		_, err := New("every five minutes", nil, &recordingEnqueuer{})
		convey.So(errors.Is(err, ErrInvalidSchedule), convey.ShouldBeTrue)
	})
}
