package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/authz"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	"github.com/allisson/dynamic-secrets/internal/httputil"
)

// Headers set by the fronting auth proxy after authenticating the caller.
const (
	HeaderActorID    = "X-Actor-ID"
	HeaderOrgID      = "X-Org-ID"
	HeaderActorType  = "X-Actor-Type"
	HeaderAuthMethod = "X-Auth-Method"
)

const actorContextKey = "actor"

// ActorMiddleware extracts the authenticated actor from request headers. The
// service runs behind an auth proxy that validates credentials and forwards
// the principal identity; requests without a complete identity are rejected.
func ActorMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := uuid.Parse(c.GetHeader(HeaderActorID))
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "missing or invalid actor id"), logger)
			c.Abort()
			return
		}

		orgID, err := uuid.Parse(c.GetHeader(HeaderOrgID))
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "missing or invalid org id"), logger)
			c.Abort()
			return
		}

		actorType := authz.ActorType(c.GetHeader(HeaderActorType))
		switch actorType {
		case "":
			actorType = authz.ActorTypeUser
		case authz.ActorTypeUser, authz.ActorTypeIdentity:
		default:
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid actor type"), logger)
			c.Abort()
			return
		}

		c.Set(actorContextKey, authz.Actor{
			ID:         actorID,
			OrgID:      orgID,
			Type:       actorType,
			AuthMethod: c.GetHeader(HeaderAuthMethod),
		})
		c.Next()
	}
}

// ActorFromContext returns the actor stored by ActorMiddleware.
func ActorFromContext(c *gin.Context) (authz.Actor, bool) {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return authz.Actor{}, false
	}
	actor, ok := value.(authz.Actor)
	return actor, ok
}
