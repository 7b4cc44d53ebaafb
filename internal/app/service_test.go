package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/okian/eventops/internal/app"
	"github.com/okian/eventops/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats(context.Background())
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 1_024)
			So(stats["dedupeSize"], ShouldEqual, 10_000)
		})

		Convey("And the stores should not exist yet", func() {
			So(svc.Tasks(), ShouldBeNil)
			So(svc.Alerts(), ShouldBeNil)
			So(svc.Notifications(10), ShouldBeEmpty)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithFeedSize(10),
			service.WithRepositoryLatency(time.Millisecond),
		)

		Convey("Then the options should be applied", func() {
			stats := svc.GetStats(context.Background())
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
		})
	})

	Convey("Given options with non-positive values", t, func() {
		svc := service.New(
			service.WithWorkerCount(0),
			service.WithQueueSize(-1),
			service.WithDedupeSize(0),
		)

		Convey("Then the defaults should be kept", func() {
			stats := svc.GetStats(context.Background())
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 1_024)
			So(stats["dedupeSize"], ShouldEqual, 10_000)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.Tasks(), ShouldNotBeNil)
				So(svc.Alerts(), ShouldNotBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats(ctx)
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("And starting again should be a no-op", func() {
				tasks := svc.Tasks()
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Tasks(), ShouldEqual, tasks)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats(ctx)
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And stopping again should not panic", func() {
				So(svc.Stop, ShouldNotPanic)
			})
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then Stop should not panic", func() {
			So(svc.Stop, ShouldNotPanic)
		})
	})
}

func TestService_SeenAndRecord(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When checking a new idempotency key", func() {
			seen := svc.SeenAndRecord(ctx, "sos-123")

			Convey("Then it should not have been seen before", func() {
				So(seen, ShouldBeFalse)
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When checking the same key again", func() {
			svc.SeenAndRecord(ctx, "sos-456")
			seen := svc.SeenAndRecord(ctx, "sos-456")

			Convey("Then it should have been seen before", func() {
				So(seen, ShouldBeTrue)
			})
		})

		Convey("When a key is released", func() {
			svc.SeenAndRecord(ctx, "sos-789")
			svc.Unrecord(ctx, "sos-789")

			Convey("Then it can be used again", func() {
				So(svc.SeenAndRecord(ctx, "sos-789"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then keys are never reported as seen", func() {
			ctx := context.Background()
			So(svc.SeenAndRecord(ctx, "k"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "k"), ShouldBeFalse)
			So(svc.Size(), ShouldEqual, 0)
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats(context.Background())

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats, ShouldNotContainKey, "tasks")
			})
		})
	})

	Convey("Given a started service holding data", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()), service.WithSeedData(true))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.Tasks().Fetch(ctx, "")
		So(err, ShouldBeNil)
		_, err = svc.Alerts().Fetch(ctx, "")
		So(err, ShouldBeNil)

		Convey("When getting stats", func() {
			stats := svc.GetStats(ctx)

			Convey("Then the store summaries should be included", func() {
				So(stats, ShouldContainKey, "tasks")
				So(stats, ShouldContainKey, "alerts")
				So(stats, ShouldContainKey, "notifications")
				So(stats, ShouldContainKey, "idempotencyKeys")
			})
		})
	})
}
