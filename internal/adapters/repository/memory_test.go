package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/eventops/internal/adapters/repository"
	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/task"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func mkTask(id string) task.Task {
	return task.New(id, task.Draft{Title: "task " + id}, now)
}

func mkAlert(id string) alert.Alert {
	return alert.New(id, alert.Draft{Title: "alert " + id}, now)
}

func TestMemoryTasks(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty task repository", t, func() {
		repo := repository.NewMemoryTasks()

		Convey("When tasks are inserted", func() {
			for _, id := range []string{"a", "b", "c"} {
				So(repo.Insert(ctx, mkTask(id)), ShouldBeNil)
			}

			Convey("Then List keeps insertion order", func() {
				got, err := repo.List(ctx)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].ID, ShouldEqual, "a")
				So(got[2].ID, ShouldEqual, "c")
			})

			Convey("Then inserting a duplicate id fails", func() {
				err := repo.Insert(ctx, mkTask("a"))
				So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)
			})

			Convey("Then a returned value is a copy", func() {
				got, _ := repo.Get(ctx, "a")
				got.Title = "changed"
				again, _ := repo.Get(ctx, "a")
				So(again.Title, ShouldEqual, "task a")
			})

			Convey("Then Update applies the mutation atomically", func() {
				out, err := repo.Update(ctx, "b", func(t *task.Task) error {
					t.Title = "renamed"
					return nil
				})
				So(err, ShouldBeNil)
				So(out.Title, ShouldEqual, "renamed")
				stored, _ := repo.Get(ctx, "b")
				So(stored.Title, ShouldEqual, "renamed")
			})

			Convey("Then a failing mutation writes nothing", func() {
				boom := errors.New("boom")
				_, err := repo.Update(ctx, "b", func(t *task.Task) error {
					t.Title = "half-done"
					return boom
				})
				So(errors.Is(err, boom), ShouldBeTrue)
				stored, _ := repo.Get(ctx, "b")
				So(stored.Title, ShouldEqual, "task b")
			})

			Convey("Then Delete removes the task and its log", func() {
				So(repo.AppendUpdate(ctx, task.Update{ID: "u1", TaskID: "b", Kind: task.UpdateComment}), ShouldBeNil)
				So(repo.Delete(ctx, "b"), ShouldBeNil)
				got, _ := repo.List(ctx)
				So(len(got), ShouldEqual, 2)
				So(got[1].ID, ShouldEqual, "c")
				_, err := repo.Updates(ctx, "b")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When an unknown id is used", func() {
			_, err := repo.Get(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = repo.Update(ctx, "missing", func(*task.Task) error { return nil })
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(repo.Delete(ctx, "missing"), repository.ErrNotFound), ShouldBeTrue)
			err = repo.AppendUpdate(ctx, task.Update{TaskID: "missing"})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the list is empty it is not nil", func() {
			got, err := repo.List(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
	})
}

func TestMemoryAlerts(t *testing.T) {
	ctx := context.Background()

	Convey("Given an alert repository with two alerts", t, func() {
		repo := repository.NewMemoryAlerts()
		So(repo.Insert(ctx, mkAlert("first")), ShouldBeNil)
		So(repo.Insert(ctx, mkAlert("second")), ShouldBeNil)

		Convey("Then the newest alert comes first", func() {
			got, _ := repo.List(ctx)
			So(got[0].ID, ShouldEqual, "second")
			So(got[1].ID, ShouldEqual, "first")
		})

		Convey("When a response is appended with a parent mutation", func() {
			resp := alert.Response{ID: "r1", AlertID: "first", Type: alert.ResponseAcknowledgment}
			parent, err := repo.AppendResponse(ctx, resp, func(a *alert.Alert) error {
				a.Status = alert.StatusAcknowledged
				return nil
			})

			Convey("Then both are stored", func() {
				So(err, ShouldBeNil)
				So(parent.Status, ShouldEqual, alert.StatusAcknowledged)
				rs, _ := repo.Responses(ctx, "first")
				So(len(rs), ShouldEqual, 1)
				So(rs[0].ID, ShouldEqual, "r1")
			})
		})

		Convey("When the parent mutation fails", func() {
			_, err := repo.AppendResponse(ctx, alert.Response{ID: "r1", AlertID: "first"}, func(*alert.Alert) error {
				return alert.ErrInvalidTransition
			})

			Convey("Then no response is recorded", func() {
				So(errors.Is(err, alert.ErrInvalidTransition), ShouldBeTrue)
				rs, _ := repo.Responses(ctx, "first")
				So(rs, ShouldBeEmpty)
			})
		})
	})
}

func TestLatency(t *testing.T) {
	Convey("Given a repository with simulated latency", t, func() {
		repo := repository.NewMemoryTasks(repository.WithLatency(50 * time.Millisecond))

		Convey("When the caller's context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
			defer cancel()
			err := repo.Insert(ctx, mkTask("a"))

			Convey("Then the call gives up with the context error", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				got, _ := repo.List(context.Background())
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When the context allows it the call completes after the delay", func() {
			start := time.Now()
			So(repo.Insert(context.Background(), mkTask("a")), ShouldBeNil)
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 50*time.Millisecond)
		})
	})
}

func TestConcurrentAccess(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		ctx := context.Background()
		repo := repository.NewMemoryTasks()
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = repo.Insert(ctx, mkTask(fmt.Sprintf("t-%d", i)))
			}()
		}
		wg.Wait()

		got, err := repo.List(ctx)
		So(err, ShouldBeNil)
		So(len(got), ShouldEqual, 20)
	})
}
