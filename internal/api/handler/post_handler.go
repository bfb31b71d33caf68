package handler

import (
	"Townhall/internal/api/dto"
	"Townhall/internal/api/middleware"
	"Townhall/internal/pkg/response"
	"Townhall/internal/pkg/util"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postSvc service.PostService
}

func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{
		postSvc: postSvc,
	}
}

func (s *PostHandler) CreatePost(c *gin.Context) {
	var req dto.CreatePostDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	post, err := s.postSvc.CreatePost(c.Request.Context(), middleware.CurrentViewer(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, post)
}

func (s *PostHandler) GetPost(c *gin.Context) {
	post, err := s.postSvc.GetPost(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, post)
}

func (s *PostHandler) UpdatePost(c *gin.Context) {
	var req dto.UpdatePostDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	post, err := s.postSvc.UpdatePost(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, post)
}

func (s *PostHandler) DeletePost(c *gin.Context) {
	if err := s.postSvc.DeletePost(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

func (s *PostHandler) TogglePin(c *gin.Context) {
	post, err := s.postSvc.TogglePin(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, post)
}
