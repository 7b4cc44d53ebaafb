package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/eventops/internal/adapters/http/api"
	"github.com/okian/eventops/internal/adapters/repository"
	"github.com/okian/eventops/internal/domain/alert"
	"github.com/okian/eventops/internal/domain/model"
	"github.com/okian/eventops/internal/domain/task"
	"github.com/okian/eventops/internal/store"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *mockDeduper) SeenAndRecord(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeduper) Unrecord(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockDeduper) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seen))
}

// failingAlertRepo fails every insert.
type failingAlertRepo struct {
	repository.AlertRepository
}

func (failingAlertRepo) Insert(context.Context, alert.Alert) error {
	return errors.New("disk on fire")
}

type mockDependencies struct {
	*mockDeduper
	tasks  *store.TaskStore
	alerts *store.AlertStore
	notes  []model.Notification
}

func (m *mockDependencies) Tasks() *store.TaskStore   { return m.tasks }
func (m *mockDependencies) Alerts() *store.AlertStore { return m.alerts }

func (m *mockDependencies) Notifications(limit int) []model.Notification {
	if limit > len(m.notes) {
		limit = len(m.notes)
	}
	return m.notes[:limit]
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats(context.Context) map[string]interface{} {
	return m.stats
}

func newDeps(seed bool) *mockDependencies {
	now := func() time.Time { return time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC) }
	opts := []store.Option{store.WithClock(now), store.WithSeedData(seed)}
	return &mockDependencies{
		mockDeduper: &mockDeduper{},
		tasks:       store.NewTaskStore(repository.NewMemoryTasks(), opts...),
		alerts:      store.NewAlertStore(repository.NewMemoryAlerts(), opts...),
	}
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 100).
		Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.NewDecoder(w.Body).Decode(&v), ShouldBeNil)
	return v
}

func errorCode(w *httptest.ResponseRecorder) string {
	var e struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(w.Body).Decode(&e)
	return e.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newDeps(false))

		Convey("Then health endpoint should serve metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats endpoint should be accessible", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[map[string]any](w)["started"], ShouldEqual, true)
		})

		Convey("And unknown paths should be 404", func() {
			w := do(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods should be rejected", func() {
			w := do(mux, http.MethodPut, "/tasks", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestTasksHandler(t *testing.T) {
	Convey("Given an API over an empty task store", t, func() {
		deps := newDeps(false)
		mux := newMux(deps)

		Convey("When a task is created", func() {
			w := do(mux, http.MethodPost, "/tasks",
				`{"title":"Hang banners","priority":"high","category":"logistics","event_id":"event-1"}`,
				api.HeaderUserID, "organizer-9")
			So(w.Code, ShouldEqual, http.StatusCreated)
			created := decode[task.Task](w)

			Convey("Then it should carry defaults and the acting user", func() {
				So(created.ID, ShouldNotBeEmpty)
				So(created.Status, ShouldEqual, task.StatusTodo)
				So(created.ProgressPercentage, ShouldEqual, 0)
				So(created.AssignedBy, ShouldEqual, "organizer-9")
			})

			Convey("And it should be readable by id", func() {
				w := do(mux, http.MethodGet, "/tasks/"+created.ID, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[task.Task](w).Title, ShouldEqual, "Hang banners")
			})

			Convey("And progress should drive its status", func() {
				w := do(mux, http.MethodPost, "/tasks/"+created.ID+"/progress", `{"progress_percentage":150,"comment":"done"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				got := decode[task.Task](w)
				So(got.ProgressPercentage, ShouldEqual, 100)
				So(got.Status, ShouldEqual, task.StatusCompleted)

				w = do(mux, http.MethodGet, "/tasks/"+created.ID+"/updates", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]task.Update](w)), ShouldEqual, 1)
			})

			Convey("And a completed status with lower progress should be rejected", func() {
				w := do(mux, http.MethodPatch, "/tasks/"+created.ID, `{"status":"in_progress","progress_percentage":100}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})

			Convey("And assignment should show up in the assignee's tasks", func() {
				w := do(mux, http.MethodPost, "/tasks/"+created.ID+"/assign", `{"user_id":"user-3"}`)
				So(w.Code, ShouldEqual, http.StatusOK)

				w = do(mux, http.MethodGet, "/tasks/mine", "", api.HeaderUserID, "user-3")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]task.Task](w)), ShouldEqual, 1)

				w = do(mux, http.MethodPost, "/tasks/"+created.ID+"/unassign", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[task.Task](w).AssignedTo, ShouldBeNil)
			})

			Convey("And a comment can be added", func() {
				w := do(mux, http.MethodPost, "/tasks/"+created.ID+"/updates", `{"content":"ladder needed"}`, api.HeaderUserID, "user-3")
				So(w.Code, ShouldEqual, http.StatusCreated)
				u := decode[task.Update](w)
				So(u.Kind, ShouldEqual, task.UpdateComment)
				So(u.UserID, ShouldEqual, "user-3")
			})

			Convey("And deleting it should remove it", func() {
				w := do(mux, http.MethodDelete, "/tasks/"+created.ID, "")
				So(w.Code, ShouldEqual, http.StatusNoContent)
				w = do(mux, http.MethodGet, "/tasks/"+created.ID, "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And the filters should narrow the list", func() {
				w := do(mux, http.MethodGet, "/tasks?priority=high,urgent", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]task.Task](w)), ShouldEqual, 1)

				w = do(mux, http.MethodGet, "/tasks?category=catering", "")
				So(len(decode[[]task.Task](w)), ShouldEqual, 0)
			})

			Convey("And stats should count it", func() {
				w := do(mux, http.MethodGet, "/tasks/stats", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[task.Stats](w).Total, ShouldEqual, 1)
			})
		})

		Convey("When the request is invalid", func() {
			Convey("Then a blank title should be 400", func() {
				w := do(mux, http.MethodPost, "/tasks", `{"title":" "}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And malformed JSON should be 400", func() {
				w := do(mux, http.MethodPost, "/tasks", `{"title":`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And an unknown filter value should be 400", func() {
				w := do(mux, http.MethodGet, "/tasks?status=sleeping", "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And an unknown id should be 404", func() {
				w := do(mux, http.MethodPatch, "/tasks/nope", `{"title":"x"}`)
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "not_found")
			})
		})
	})

	Convey("Given an API with demo data enabled", t, func() {
		mux := newMux(newDeps(true))

		Convey("When the event's tasks are fetched", func() {
			w := do(mux, http.MethodGet, "/tasks?event_id=event-9", "")

			Convey("Then the demo tasks should be loaded for that event", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				ts := decode[[]task.Task](w)
				So(len(ts), ShouldEqual, 2)
				So(ts[0].EventID, ShouldEqual, "event-9")
			})
		})

		Convey("When a task is created before its event is listed", func() {
			w := do(mux, http.MethodPost, "/tasks", `{"title":"Book shuttle buses","event_id":"event-1"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			created := decode[task.Task](w)

			w = do(mux, http.MethodGet, "/tasks?event_id=event-1", "")

			Convey("Then listing the event should keep it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				ts := decode[[]task.Task](w)
				So(len(ts), ShouldEqual, 1)
				So(ts[0].ID, ShouldEqual, created.ID)
			})
		})
	})
}

func TestAlertsHandler(t *testing.T) {
	Convey("Given an API over an empty alert store", t, func() {
		deps := newDeps(false)
		mux := newMux(deps)

		Convey("When an SOS alert is raised", func() {
			w := do(mux, http.MethodPost, "/alerts",
				`{"title":"Lost child","category":"security_concern","priority":"critical","event_id":"event-1"}`,
				api.HeaderUserID, "staff-1")
			So(w.Code, ShouldEqual, http.StatusCreated)
			created := decode[alert.Alert](w)

			Convey("Then it should be open and owned by the acting user", func() {
				So(created.Status, ShouldEqual, alert.StatusOpen)
				So(created.CreatedBy, ShouldEqual, "staff-1")
			})

			Convey("And acknowledging it should record a response", func() {
				w := do(mux, http.MethodPost, "/alerts/"+created.ID+"/acknowledge", `{"user_id":"sec-1"}`)
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode[alert.Response](w).Message, ShouldEqual, alert.AcknowledgeMessage)

				w = do(mux, http.MethodGet, "/alerts/"+created.ID, "")
				So(decode[alert.Alert](w).Status, ShouldEqual, alert.StatusAcknowledged)
			})

			Convey("And escalating it should make it critical and escalated", func() {
				w := do(mux, http.MethodPost, "/alerts/"+created.ID+"/escalate", `{"reason":"no response"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[alert.Alert](w).Status, ShouldEqual, alert.StatusEscalated)

				w = do(mux, http.MethodGet, "/alerts/"+created.ID+"/responses", "")
				rs := decode[[]alert.Response](w)
				So(len(rs), ShouldEqual, 1)
				So(rs[0].Message, ShouldEqual, "Alert escalated: no response")
			})

			Convey("And resolving it should take it out of the active list", func() {
				w := do(mux, http.MethodPost, "/alerts/"+created.ID+"/resolve", `{"resolution_notes":"found at gate"}`, api.HeaderUserID, "sec-2")
				So(w.Code, ShouldEqual, http.StatusOK)
				resolved := decode[alert.Alert](w)
				So(*resolved.ResolvedBy, ShouldEqual, "sec-2")

				w = do(mux, http.MethodGet, "/alerts/active", "")
				So(len(decode[[]alert.Alert](w)), ShouldEqual, 0)

				Convey("And reopening it should conflict", func() {
					w := do(mux, http.MethodPatch, "/alerts/"+created.ID, `{"status":"open"}`)
					So(w.Code, ShouldEqual, http.StatusConflict)
					So(errorCode(w), ShouldEqual, "conflict")
				})
			})

			Convey("And resolving it with an empty chunked body should succeed", func() {
				req := httptest.NewRequest(http.MethodPost, "/alerts/"+created.ID+"/resolve", strings.NewReader(""))
				req.ContentLength = -1
				req.Header.Set(api.HeaderUserID, "sec-3")
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[alert.Alert](w).Status, ShouldEqual, alert.StatusResolved)
			})

			Convey("And responders can be assigned", func() {
				w := do(mux, http.MethodPost, "/alerts/"+created.ID+"/assign", `{"user_ids":["sec-1","sec-2"]}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[alert.Alert](w).AssignedTo, ShouldResemble, []string{"sec-1", "sec-2"})
			})

			Convey("And suggestions should fall back for an unlisted category", func() {
				w := do(mux, http.MethodGet, "/alerts/"+created.ID+"/suggestions", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				s := decode[alert.Suggestions](w)
				So(s.SuggestedActions, ShouldResemble, alert.FallbackRule.SuggestedActions)
			})

			Convey("And stats should count it as active and critical", func() {
				w := do(mux, http.MethodGet, "/alerts/stats", "")
				st := decode[alert.Stats](w)
				So(st.Active, ShouldEqual, 1)
				So(st.Critical, ShouldEqual, 1)
			})

			Convey("And deleting it should remove it", func() {
				w := do(mux, http.MethodDelete, "/alerts/"+created.ID, "")
				So(w.Code, ShouldEqual, http.StatusNoContent)
				w = do(mux, http.MethodGet, "/alerts/"+created.ID+"/responses", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the SOS button is pressed twice with one idempotency key", func() {
			body := `{"title":"Fire alarm","category":"venue_issue"}`
			first := do(mux, http.MethodPost, "/alerts", body, api.HeaderIdempotencyKey, "press-1")
			second := do(mux, http.MethodPost, "/alerts", body, api.HeaderIdempotencyKey, "press-1")

			Convey("Then only one alert should exist", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusConflict)
				So(errorCode(second), ShouldEqual, "duplicate")

				w := do(mux, http.MethodGet, "/alerts", "")
				So(len(decode[[]alert.Alert](w)), ShouldEqual, 1)
			})
		})

		Convey("When creation fails validation", func() {
			w := do(mux, http.MethodPost, "/alerts", `{"title":""}`, api.HeaderIdempotencyKey, "press-2")
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			Convey("Then the key should be released for a retry", func() {
				So(deps.Size(), ShouldEqual, 0)
				w := do(mux, http.MethodPost, "/alerts", `{"title":"Retry"}`, api.HeaderIdempotencyKey, "press-2")
				So(w.Code, ShouldEqual, http.StatusCreated)
			})
		})

		Convey("When a response has an unknown type", func() {
			w := do(mux, http.MethodPost, "/alerts/x/responses", `{"response_type":"shrug"}`)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given an alert store whose backend fails", t, func() {
		deps := newDeps(false)
		deps.alerts = store.NewAlertStore(failingAlertRepo{repository.NewMemoryAlerts()})
		mux := newMux(deps)

		Convey("When an alert is created", func() {
			w := do(mux, http.MethodPost, "/alerts", `{"title":"Power out"}`, api.HeaderIdempotencyKey, "press-3")

			Convey("Then it should be a 500 and the key released", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(errorCode(w), ShouldEqual, "internal_error")
				So(deps.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestNotificationsHandler(t *testing.T) {
	Convey("Given a feed with three notifications", t, func() {
		deps := newDeps(false)
		deps.notes = []model.Notification{
			{ID: "3", Level: model.LevelSuccess},
			{ID: "2", Level: model.LevelError},
			{ID: "1", Level: model.LevelInfo},
		}
		mux := newMux(deps)

		Convey("When listing with a limit", func() {
			w := do(mux, http.MethodGet, "/notifications?limit=2", "")

			Convey("Then the newest should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				ns := decode[[]model.Notification](w)
				So(len(ns), ShouldEqual, 2)
				So(ns[0].ID, ShouldEqual, "3")
			})
		})

		Convey("When the limit is invalid", func() {
			Convey("Then zero should be rejected", func() {
				So(do(mux, http.MethodGet, "/notifications?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("And values above the cap should be rejected", func() {
				So(do(mux, http.MethodGet, "/notifications?limit=101", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			handler.HandleHealth(w, req)

			Convey("Then it should return OK status", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		handler := api.NewStatsHandler(&mockStatsProvider{
			stats: map[string]interface{}{
				"queueLength": 3,
				"workerCount": 2,
			},
		})

		Convey("When handling stats request", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			handler.HandleStats(w, req)

			Convey("Then it should return stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response map[string]interface{}
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response["queueLength"], ShouldEqual, 3)
				So(response["workerCount"], ShouldEqual, 2)
			})
		})
	})
}
