package store

import "context"

// AnonymousActor is the acting user when a request names none.
const AnonymousActor = "current-user"

type actorKey struct{}

// WithActor returns a context carrying the acting user id.
func WithActor(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the acting user id carried by ctx, or AnonymousActor.
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return AnonymousActor
}
