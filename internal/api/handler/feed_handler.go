package handler

import (
	"Townhall/internal/api/dto"
	"Townhall/internal/api/middleware"
	"Townhall/internal/pkg/response"
	"Townhall/internal/pkg/util"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedSvc service.FeedService
}

func NewFeedHandler(feedSvc service.FeedService) *FeedHandler {
	return &FeedHandler{feedSvc: feedSvc}
}

func (s *FeedHandler) Newsfeed(c *gin.Context) {
	var req dto.NewsfeedDTO
	if !bindQuery(c, &req) {
		return
	}

	filter := &service.FeedFilter{
		Type:       req.Type,
		Author:     req.Author,
		Department: req.Department,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}
	page, err := s.feedSvc.Newsfeed(c.Request.Context(), middleware.CurrentViewer(c), filter, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *FeedHandler) Pinned(c *gin.Context) {
	posts, err := s.feedSvc.Pinned(c.Request.Context(), middleware.CurrentViewer(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

func (s *FeedHandler) Trending(c *gin.Context) {
	var req dto.LimitDTO
	if !bindQuery(c, &req) {
		return
	}

	posts, err := s.feedSvc.Trending(c.Request.Context(), req.Limit, req.Days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

func (s *FeedHandler) Following(c *gin.Context) {
	var req dto.PageDTO
	if !bindQuery(c, &req) {
		return
	}

	page, err := s.feedSvc.Following(c.Request.Context(), middleware.CurrentViewer(c), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *FeedHandler) Search(c *gin.Context) {
	var req dto.PostListDTO
	if !bindQuery(c, &req) {
		return
	}

	page, err := s.feedSvc.Search(c.Request.Context(), middleware.CurrentViewer(c), req.Keyword, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *FeedHandler) Related(c *gin.Context) {
	var req dto.LimitDTO
	if !bindQuery(c, &req) {
		return
	}

	posts, err := s.feedSvc.Related(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id"), req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

func (s *FeedHandler) EngagementStats(c *gin.Context) {
	stats, err := s.feedSvc.EngagementStats(c.Request.Context(), middleware.CurrentViewer(c), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

func (s *FeedHandler) TopContributors(c *gin.Context) {
	var req dto.LimitDTO
	if !bindQuery(c, &req) {
		return
	}

	contributors, err := s.feedSvc.TopContributors(c.Request.Context(), req.Days, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, contributors)
}

func (s *FeedHandler) Popular(c *gin.Context) {
	var req dto.LimitDTO
	if !bindQuery(c, &req) {
		return
	}

	posts, err := s.feedSvc.PopularInDepartment(c.Request.Context(), middleware.CurrentViewer(c), req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

// bindQuery binds and validates a query DTO, writing the error response on failure
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.Error(c, err)
		return false
	}
	if err := util.ValidateDTO(req); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}
