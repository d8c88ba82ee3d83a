// Package actorcontext carries the verified request actor through
// context.Context. Handlers resolve the actor once via the identity
// service; services read it from here and never trust caller input.
package actorcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey string

const (
	actorIDKey   contextKey = "actor_id"
	actorRoleKey contextKey = "actor_role"
	workshopKey  contextKey = "actor_workshop_id"
	requestIDKey contextKey = "request_id"
)

func WithActor(ctx context.Context, id snowflake.ID, role string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, id)
	return context.WithValue(ctx, actorRoleKey, role)
}

func WithWorkshop(ctx context.Context, workshopID snowflake.ID) context.Context {
	return context.WithValue(ctx, workshopKey, workshopID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func ActorID(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(actorIDKey).(snowflake.ID)
	return id, ok && id != 0
}

func Role(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(actorRoleKey).(string)
	return role, ok && role != ""
}

// WorkshopID returns the workshop the actor belongs to; zero for owners
// and admins.
func WorkshopID(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(workshopKey).(snowflake.ID)
	return id, ok && id != 0
}

func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
