package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
	"github.com/crewflow-hq/crewflow-api/pkg/response"
)

// RequirePermission gates a route on the caller's role holding the given
// permission. Missing claims are an authentication failure, a role without
// the permission is an authorization failure.
func RequirePermission(permission models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !models.RoleHasPermission(claims.Role, permission) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermissionOrSelf passes when the caller holds the permission or when
// the route's :id parameter is the caller's own user id.
func RequirePermissionOrSelf(permission models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if models.RoleHasPermission(claims.Role, permission) {
			c.Next()
			return
		}
		if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
