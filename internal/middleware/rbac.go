package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drivingschool-api/internal/models"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
	"github.com/noah-isme/drivingschool-api/pkg/response"
)

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireStaff admits every role that manages bookings for others.
func RequireStaff() gin.HandlerFunc {
	return RBAC(models.RoleAdmin, models.RoleStaff, models.RoleInstructor)
}

// RequireAdmin admits administrators only.
func RequireAdmin() gin.HandlerFunc {
	return RBAC(models.RoleAdmin)
}
