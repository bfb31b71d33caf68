package middleware

import (
	"context"
	log "log/slog"

	"Townhall/internal/model"
	"Townhall/internal/pkg/consts"
	"Townhall/internal/pkg/logger"
	"Townhall/internal/pkg/response"
	"Townhall/internal/pkg/security"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer JWT and resolves the caller into a Viewer
func AuthMiddleware(viewerSvc service.ViewerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := security.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Fail(c, response.Unauthorized, "missing or malformed token")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			log.WarnContext(c.Request.Context(), "token rejected", "err", err)
			response.Fail(c, response.Unauthorized, "token invalid or expired")
			c.Abort()
			return
		}

		viewer, err := viewerSvc.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(consts.UserIDKey, viewer.ID)
		c.Set(consts.RolesKey, claims.Roles)
		c.Set(consts.ViewerKey, viewer)

		newCtx := context.WithValue(c.Request.Context(), logger.UserIDKey, viewer.ID)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}

// CurrentViewer set by AuthMiddleware; nil on unauthenticated routes
func CurrentViewer(c *gin.Context) *model.Viewer {
	v, ok := c.Get(consts.ViewerKey)
	if !ok {
		return nil
	}
	viewer, _ := v.(*model.Viewer)
	return viewer
}
