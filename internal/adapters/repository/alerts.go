package repository

import (
	"context"

	"github.com/okian/eventops/internal/domain/alert"
)

// MemoryAlerts is the in-memory AlertRepository. New alerts go to the front.
type MemoryAlerts struct {
	m *memory[alert.Alert, alert.Response]
}

var _ AlertRepository = (*MemoryAlerts)(nil)

// NewMemoryAlerts constructs an empty alert repository.
func NewMemoryAlerts(opts ...Option) *MemoryAlerts {
	return &MemoryAlerts{m: newMemory("alert",
		func(a alert.Alert) string { return a.ID },
		alert.Alert.Clone,
		alert.Response.Clone,
		true, opts)}
}

func (r *MemoryAlerts) Insert(ctx context.Context, a alert.Alert) error {
	return r.m.insert(ctx, a)
}

func (r *MemoryAlerts) Get(ctx context.Context, id string) (alert.Alert, error) {
	return r.m.get(ctx, id)
}

func (r *MemoryAlerts) Update(ctx context.Context, id string, fn func(*alert.Alert) error) (alert.Alert, error) {
	return r.m.update(ctx, id, fn)
}

func (r *MemoryAlerts) Delete(ctx context.Context, id string) error {
	return r.m.delete(ctx, id)
}

func (r *MemoryAlerts) List(ctx context.Context) ([]alert.Alert, error) {
	return r.m.list(ctx)
}

func (r *MemoryAlerts) AppendResponse(ctx context.Context, resp alert.Response, apply func(*alert.Alert) error) (alert.Alert, error) {
	return r.m.appendChild(ctx, resp.AlertID, resp, apply)
}

func (r *MemoryAlerts) Responses(ctx context.Context, alertID string) ([]alert.Response, error) {
	return r.m.listChildren(ctx, alertID)
}
