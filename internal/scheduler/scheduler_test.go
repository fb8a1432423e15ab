package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/battlegrounds/internal/domain/tv"
	"github.com/okian/battlegrounds/internal/scheduler"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeJobs struct {
	settled  atomic.Int32
	closed   atomic.Int32
	rotated  atomic.Int32
	panicTV  bool
	settleBy int
}

func (f *fakeJobs) SettleBattles(context.Context) int {
	f.settled.Add(1)
	return f.settleBy
}

func (f *fakeJobs) CloseContests(context.Context) int {
	f.closed.Add(1)
	return 0
}

func (f *fakeJobs) RotateTV(context.Context) tv.View {
	f.rotated.Add(1)
	if f.panicTV {
		panic("display gone")
	}
	return tv.ViewBattles
}

func TestScheduler(t *testing.T) {
	convey.Convey("Given a scheduler over fake jobs", t, func() {
		ctx := context.Background()
		jobs := &fakeJobs{settleBy: 2}

		convey.Convey("An invalid cron spec is rejected", func() {
			_, err := scheduler.New(jobs, scheduler.WithBattleSweep("every now and then"))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, scheduler.JobBattleSweep)
		})

		convey.Convey("Run executes a named job once", func() {
			s, err := scheduler.New(jobs, scheduler.WithTVRotation(0))
			convey.So(err, convey.ShouldBeNil)

			convey.So(s.Run(ctx, scheduler.JobBattleSweep), convey.ShouldBeNil)
			convey.So(s.Run(ctx, scheduler.JobTVRotation), convey.ShouldBeNil)
			convey.So(jobs.settled.Load(), convey.ShouldEqual, 1)
			convey.So(jobs.rotated.Load(), convey.ShouldEqual, 1)
			convey.So(jobs.closed.Load(), convey.ShouldEqual, 0)
		})

		convey.Convey("Run rejects an unknown job", func() {
			s, err := scheduler.New(jobs)
			convey.So(err, convey.ShouldBeNil)
			err = s.Run(ctx, "payroll")
			convey.So(errors.Is(err, scheduler.ErrUnknownJob), convey.ShouldBeTrue)
		})

		convey.Convey("RunSweeps runs both sweeps", func() {
			s, err := scheduler.New(jobs)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.RunSweeps(ctx), convey.ShouldBeNil)
			convey.So(jobs.settled.Load(), convey.ShouldEqual, 1)
			convey.So(jobs.closed.Load(), convey.ShouldEqual, 1)
		})

		convey.Convey("A panicking job is reported as an error", func() {
			jobs.panicTV = true
			s, err := scheduler.New(jobs)
			convey.So(err, convey.ShouldBeNil)
			err = s.Run(ctx, scheduler.JobTVRotation)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "display gone")
		})
	})
}

func TestSchedulerLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	convey.Convey("Given a started scheduler rotating every second", t, func() {
		ctx := context.Background()
		jobs := &fakeJobs{}
		s, err := scheduler.New(jobs,
			scheduler.WithBattleSweep("@every 1h"),
			scheduler.WithContestSweep("@every 1h"),
			scheduler.WithTVRotation(time.Second),
			scheduler.WithLocation(time.UTC))
		convey.So(err, convey.ShouldBeNil)
		convey.So(s.Start(ctx), convey.ShouldBeNil)

		convey.Convey("Starting twice fails", func() {
			convey.So(s.Start(ctx), convey.ShouldEqual, scheduler.ErrAlreadyStarted)
		})

		convey.Convey("The rotation job fires", func() {
			deadline := time.Now().Add(5 * time.Second)
			for jobs.rotated.Load() == 0 && time.Now().Before(deadline) {
				time.Sleep(50 * time.Millisecond)
			}
			convey.So(jobs.rotated.Load(), convey.ShouldBeGreaterThan, 0)
			convey.So(jobs.settled.Load(), convey.ShouldEqual, 0)
		})

		convey.Reset(func() {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			convey.So(s.Stop(stopCtx), convey.ShouldBeNil)
			convey.So(s.Stop(stopCtx), convey.ShouldBeNil)
		})
	})
}
