package middleware

import (
	"wellness/models"
	"wellness/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects callers whose role is not listed. Finer checks happen in the services.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		utils.RespondError(c, utils.Deniedf("role %q may not use this endpoint", actor.Role))
	}
}
