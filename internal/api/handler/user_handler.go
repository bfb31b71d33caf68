package handler

import (
	log "log/slog"

	"Townhall/internal/api/middleware"
	"Townhall/internal/pkg/response"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (s *UserHandler) GetMe(c *gin.Context) {
	me, err := s.userSvc.GetMe(c.Request.Context(), middleware.CurrentViewer(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, me)
}

// SyncDirectory moderator-triggered pull of the HR directory
func (s *UserHandler) SyncDirectory(c *gin.Context) {
	result, err := s.userSvc.SyncDirectory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	log.InfoContext(c.Request.Context(), "directory sync triggered",
		"by", c.GetString("user_id"), "upserted", result.Upserted, "deactivated", result.Deactivated)
	response.Success(c, result)
}
