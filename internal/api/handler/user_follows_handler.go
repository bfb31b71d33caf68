package handler

import (
	"Townhall/internal/api/dto"
	"Townhall/internal/api/middleware"
	"Townhall/internal/pkg/response"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
)

type UserFollowHandler struct {
	userFollowSvc service.UserFollowService
}

func NewUserFollowHandler(userFollowSvc service.UserFollowService) *UserFollowHandler {
	return &UserFollowHandler{userFollowSvc: userFollowSvc}
}

func (s *UserFollowHandler) Follow(c *gin.Context) {
	if err := s.userFollowSvc.Follow(c.Request.Context(), middleware.CurrentViewer(c), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserFollowHandler) Unfollow(c *gin.Context) {
	if err := s.userFollowSvc.Unfollow(c.Request.Context(), middleware.CurrentViewer(c), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserFollowHandler) GetFollowing(c *gin.Context) {
	var req dto.PageDTO
	if !bindQuery(c, &req) {
		return
	}

	list, err := s.userFollowSvc.GetFollowing(c.Request.Context(), middleware.CurrentViewer(c), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
