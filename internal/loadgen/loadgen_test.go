package loadgen

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/eventops/internal/adapters/http/api"
	app "github.com/okian/eventops/internal/app"
	"github.com/okian/eventops/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func newTarget(t *testing.T) (*httptest.Server, *app.Service) {
	t.Helper()
	svc := app.New(app.WithLogger(logger.Nop()))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, 100).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv, svc
}

func TestGenerate(t *testing.T) {
	Convey("Given a config with duplicates every third alert", t, func() {
		cfg := &Config{Tasks: 4, Alerts: 9, DuplicateEvery: 3, EventID: "load"}

		Convey("When the workload is generated", func() {
			p := generate(cfg)

			Convey("Then every job should be present and keys should repeat", func() {
				So(len(p.jobs), ShouldEqual, 13)
				So(p.distinctKeys, ShouldEqual, 6)

				keys := map[string]int{}
				tasks := 0
				for _, j := range p.jobs {
					switch j.kind {
					case jobTask:
						tasks++
						So(j.task.EventID, ShouldEqual, "load")
						So(j.task.Validate(), ShouldBeNil)
					case jobAlert:
						keys[j.key]++
						So(j.alert.Validate(), ShouldBeNil)
					}
				}
				So(tasks, ShouldEqual, 4)
				So(len(keys), ShouldEqual, 6)
			})
		})

		Convey("When duplicates are disabled", func() {
			cfg.DuplicateEvery = 0
			p := generate(cfg)

			Convey("Then every alert should get its own key", func() {
				So(p.distinctKeys, ShouldEqual, 9)
			})
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a run that created 3 tasks and 2 alerts", t, func() {
		stats := &Stats{TasksCreated: 3, AlertsCreated: 2, AlertsDuplicate: 1}
		p := plan{distinctKeys: 2}
		before := totals{tasks: 10, alerts: 5}

		Convey("When the server grew by the same amounts", func() {
			err := verify(before, totals{tasks: 13, alerts: 7}, p, stats)

			Convey("Then verification should pass", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the server lost a task", func() {
			err := verify(before, totals{tasks: 12, alerts: 7}, p, stats)

			Convey("Then a mismatch should be reported", func() {
				So(errors.Is(err, ErrMismatch), ShouldBeTrue)
			})
		})

		Convey("When a key produced two alerts", func() {
			p.distinctKeys = 1
			err := verify(before, totals{tasks: 13, alerts: 7}, p, stats)

			Convey("Then a mismatch should be reported", func() {
				So(errors.Is(err, ErrMismatch), ShouldBeTrue)
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running eventops API", t, func() {
		srv, svc := newTarget(t)
		cfg := &Config{
			BaseURL:        srv.URL,
			EventID:        "load",
			UserID:         "loadgen",
			Tasks:          20,
			Alerts:         20,
			Workers:        4,
			Timeout:        5 * time.Second,
			DuplicateEvery: 4,
		}

		Convey("When a load run is executed", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then every task and each distinct alert should be created", func() {
				So(err, ShouldBeNil)
				So(stats.TasksCreated, ShouldEqual, 20)
				So(stats.TasksFailed, ShouldEqual, 0)
				So(stats.AlertsCreated, ShouldEqual, 15)
				So(stats.AlertsDuplicate, ShouldEqual, 5)
				So(stats.AlertsFailed, ShouldEqual, 0)

				st, err := svc.Alerts().Stats(context.Background())
				So(err, ShouldBeNil)
				So(st.Total, ShouldEqual, 15)
			})
		})
	})

	Convey("Given an unreachable server", t, func() {
		cfg := &Config{BaseURL: "http://127.0.0.1:1", Workers: 1, Timeout: time.Second}

		Convey("When a load run is executed", func() {
			_, err := Run(context.Background(), cfg)

			Convey("Then the health check should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}
