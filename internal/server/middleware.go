package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/motorlane/motorlane/internal/actorcontext"
	identitydomain "github.com/motorlane/motorlane/internal/identity/domain"
)

const (
	HeaderActor     = "X-Actor-ID"
	HeaderRequestID = "X-Request-ID"
)

// RequestID propagates the caller's request id or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := actorcontext.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// ActorRequired resolves the X-Actor-ID header against the identity
// store and injects the verified id, role and workshop into the request
// context. The role always comes from the store, never the caller.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderActor))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actorID, err := snowflake.ParseString(raw)
		if err != nil || actorID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor, err := s.identitySvc.GetActor(c.Request.Context(), actorID)
		if err != nil {
			if isNotFoundError(err) {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			AbortWithError(c, err)
			return
		}

		ctx := actorcontext.WithActor(c.Request.Context(), actor.ID, actor.Role)
		if actor.Role == identitydomain.RoleWorkshop && actor.WorkshopID != nil {
			ctx = actorcontext.WithWorkshop(ctx, *actor.WorkshopID)
		} else if actor.Role == identitydomain.RoleMechanic && actor.WorkshopID != nil {
			ctx = actorcontext.WithWorkshop(ctx, *actor.WorkshopID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authorize gates the route on the actor's role capability for
// (object, action). Services still re-check row-level scope.
func (s *Server) Authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := actorcontext.Role(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(c.Request.Context(), role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
