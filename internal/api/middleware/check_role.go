package middleware

import (
	"Townhall/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireModerator must run after AuthMiddleware
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := CurrentViewer(c)
		if viewer == nil || !viewer.IsModerator {
			response.Fail(c, response.Forbidden, "moderator role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
