package handler

import (
	"Townhall/internal/api/dto"
	"Townhall/internal/api/middleware"
	"Townhall/internal/pkg/response"
	"Townhall/internal/pkg/util"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
)

type PostActionHandler struct {
	postActionSvc service.PostActionService
}

func NewPostActionHandler(postActionSvc service.PostActionService) *PostActionHandler {
	return &PostActionHandler{postActionSvc: postActionSvc}
}

func (s *PostActionHandler) AddReaction(c *gin.Context) {
	var req dto.ReactionDTO
	if !bindJSON(c, &req) {
		return
	}

	post, err := s.postActionSvc.AddReaction(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id"), req.Type)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostActionHandler) RemoveReaction(c *gin.Context) {
	post, err := s.postActionSvc.RemoveReaction(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostActionHandler) AddComment(c *gin.Context) {
	var req dto.CommentDTO
	if !bindJSON(c, &req) {
		return
	}

	post, err := s.postActionSvc.AddComment(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostActionHandler) ReplyComment(c *gin.Context) {
	var req dto.CommentDTO
	if !bindJSON(c, &req) {
		return
	}

	post, err := s.postActionSvc.ReplyComment(c.Request.Context(), middleware.CurrentViewer(c),
		c.Param("post_id"), c.Param("comment_id"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostActionHandler) DeleteComment(c *gin.Context) {
	post, err := s.postActionSvc.DeleteComment(c.Request.Context(), middleware.CurrentViewer(c),
		c.Param("post_id"), c.Param("comment_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostActionHandler) AddCommentReaction(c *gin.Context) {
	var req dto.ReactionDTO
	if !bindJSON(c, &req) {
		return
	}

	post, err := s.postActionSvc.AddCommentReaction(c.Request.Context(), middleware.CurrentViewer(c),
		c.Param("post_id"), c.Param("comment_id"), req.Type)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostActionHandler) RemoveCommentReaction(c *gin.Context) {
	post, err := s.postActionSvc.RemoveCommentReaction(c.Request.Context(), middleware.CurrentViewer(c),
		c.Param("post_id"), c.Param("comment_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, err)
		return false
	}
	if err := util.ValidateDTO(req); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}
