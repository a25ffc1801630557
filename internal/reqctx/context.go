package reqctx

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	keyRID     ctxKey = "rid"
	keyActorID ctxKey = "actor_id"
)

// WithRID stores the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithActorID stores the authenticated user id.
func WithActorID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, keyActorID, id)
}

// ActorID returns the authenticated user id, or 0 for anonymous requests.
func ActorID(ctx context.Context) uint64 {
	v, _ := ctx.Value(keyActorID).(uint64)
	return v
}

// Fields returns the zap fields identifying the request behind ctx.
func Fields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if rid := RID(ctx); rid != "" {
		fields = append(fields, zap.String("rid", rid))
	}
	if id := ActorID(ctx); id != 0 {
		fields = append(fields, zap.Uint64("actor_id", id))
	}
	return fields
}
