package middleware

import (
	"strings"

	"wellness/models"
	"wellness/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

// JWTAuthMiddleware verifies the bearer token issued by the identity provider and stores the
// caller's identity and role on the context.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, utils.NewAppError(utils.KindUnauthenticated, "Missing or invalid Authorization header", nil))
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		sub, role, err := utils.ExtractClaims(tokenString)
		if err != nil {
			utils.GetLogger().Debug("rejected bearer token", zap.Error(err))
			utils.RespondError(c, utils.NewAppError(utils.KindUnauthenticated, "Invalid token", nil))
			return
		}
		r := models.Role(role)
		if !r.Valid() {
			utils.RespondError(c, utils.Deniedf("unknown role %q", role))
			return
		}

		c.Set(actorKey, models.Actor{ID: sub, Role: r})
		c.Next()
	}
}

// ActorFrom returns the authenticated caller. The zero Actor fails every authorisation check.
func ActorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// SetActor is used by tests and internal callers that authenticate by other means.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}
