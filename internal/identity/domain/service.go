package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// GetActor resolves an actor by id, typically from the X-Actor-ID
	// request header.
	GetActor(ctx context.Context, id snowflake.ID) (Actor, error)
	// MechanicBelongsTo reports whether the actor is a mechanic employed
	// by the given workshop.
	MechanicBelongsTo(ctx context.Context, mechanicID, workshopID snowflake.ID) (bool, error)
}

var (
	ErrInvalidID = errors.New("invalid_actor_id")
	ErrNotFound  = errors.New("actor_not_found")
)
