package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/upstander-api/pkg/errors"
	"github.com/noah-isme/upstander-api/pkg/response"
)

// RequireSchool rejects admins whose account is not affiliated with a school.
// Every report route is scoped by that affiliation, so it runs after JWT.
func RequireSchool() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentAdmin(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.SchoolID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account is not affiliated with a school"))
			c.Abort()
			return
		}
		c.Next()
	}
}
