package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/univ-dsi/accessplan-api/internal/models"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
	"github.com/univ-dsi/accessplan-api/pkg/response"
)

// RBAC enforces role-based access control: the token must carry at least one
// of the allowed roles. The pseudo-role SELF additionally admits requests
// whose :id path parameter is the caller's own user ID.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowSelf := false
		for _, a := range allowed {
			if a == "SELF" {
				allowSelf = true
				continue
			}
			if claims.HasRole(models.UserRole(a)) {
				c.Next()
				return
			}
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roleList ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roleList))
	for i, r := range roleList {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
