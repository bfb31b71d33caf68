package service

import (
	"context"
	"strings"
	"time"

	"Townhall/internal/access"
	"Townhall/internal/api/dto"
	"Townhall/internal/model"
	"Townhall/internal/pkg/util"
	"Townhall/internal/repository"

	"golang.org/x/sync/errgroup"
)

// FeedOptions paging and ranking limits
type FeedOptions struct {
	DefaultPageSize    int
	MaxPageSize        int
	TrendingWindowDays int
	TrendingLimit      int
	RelatedLimit       int
	ContributorDays    int
	ContributorLimit   int
	PopularLimit       int
}

func (o FeedOptions) withDefaults() FeedOptions {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 10
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	if o.TrendingWindowDays <= 0 {
		o.TrendingWindowDays = 7
	}
	if o.TrendingLimit <= 0 {
		o.TrendingLimit = 10
	}
	if o.RelatedLimit <= 0 {
		o.RelatedLimit = 5
	}
	if o.ContributorDays <= 0 {
		o.ContributorDays = 30
	}
	if o.ContributorLimit <= 0 {
		o.ContributorLimit = 10
	}
	if o.PopularLimit <= 0 {
		o.PopularLimit = 10
	}
	return o
}

// FeedFilter optional narrowing of the newsfeed
type FeedFilter struct {
	Type       string
	Author     string
	Department string
	SortBy     string
	SortOrder  string
}

// FeedService read-only feed composition; every query is scoped to what the viewer can see
type FeedService interface {
	Newsfeed(ctx context.Context, viewer *model.Viewer, filter *FeedFilter, page, pageSize int) (*dto.PostPageDTO, error)
	Pinned(ctx context.Context, viewer *model.Viewer) ([]*dto.PostDTO, error)
	Trending(ctx context.Context, limit, windowDays int) ([]*dto.PostDTO, error)
	Following(ctx context.Context, viewer *model.Viewer, page, pageSize int) (*dto.PostPageDTO, error)
	Search(ctx context.Context, viewer *model.Viewer, keyword string, page, pageSize int) (*dto.PostPageDTO, error)
	Related(ctx context.Context, viewer *model.Viewer, postID string, limit int) ([]*dto.PostDTO, error)
	EngagementStats(ctx context.Context, viewer *model.Viewer, postID string) (*dto.EngagementStatsDTO, error)
	TopContributors(ctx context.Context, windowDays, limit int) ([]*dto.ContributorDTO, error)
	PopularInDepartment(ctx context.Context, viewer *model.Viewer, limit int) ([]*dto.PostDTO, error)
}

type feedServiceImpl struct {
	postRepo  repository.PostRepo
	userRepo  repository.UserRepo
	followSvc UserFollowService
	opts      FeedOptions
	now       func() time.Time
}

func NewFeedService(postRepo repository.PostRepo, userRepo repository.UserRepo, followSvc UserFollowService, opts FeedOptions) FeedService {
	return &feedServiceImpl{
		postRepo:  postRepo,
		userRepo:  userRepo,
		followSvc: followSvc,
		opts:      opts.withDefaults(),
		now:       time.Now,
	}
}

func (s *feedServiceImpl) Newsfeed(ctx context.Context, viewer *model.Viewer, filter *FeedFilter, page, pageSize int) (*dto.PostPageDTO, error) {
	if filter == nil {
		filter = &FeedFilter{}
	}
	q := &repository.PostQuery{
		Scope:      repository.ScopeViewer,
		Viewer:     viewer,
		AuthorID:   strings.TrimSpace(filter.Author),
		Department: strings.TrimSpace(filter.Department),
		SortField:  repository.SortCreatedAt,
		SortAsc:    strings.EqualFold(filter.SortOrder, "asc"),
	}
	if t := strings.TrimSpace(filter.Type); t != "" {
		if !model.PostType(t).Valid() {
			return nil, newValidationError("type", "unknown post type "+t)
		}
		q.Type = model.PostType(t)
	}
	switch filter.SortBy {
	case "", "createdAt":
	case "updatedAt":
		q.SortField = repository.SortUpdatedAt
	default:
		return nil, newValidationError("sortBy", "must be createdAt or updatedAt")
	}
	return s.page(ctx, q, page, pageSize)
}

// Pinned pinned posts the viewer can see, most recently updated first
func (s *feedServiceImpl) Pinned(ctx context.Context, viewer *model.Viewer) ([]*dto.PostDTO, error) {
	posts, err := s.postRepo.Find(ctx, &repository.PostQuery{
		Scope:      repository.ScopeViewer,
		Viewer:     viewer,
		PinnedOnly: true,
		SortField:  repository.SortUpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	return toPostDTOs(posts), nil
}

// Trending public posts of the window ranked by reactions+comments, newest first on ties
func (s *feedServiceImpl) Trending(ctx context.Context, limit, windowDays int) ([]*dto.PostDTO, error) {
	if limit <= 0 {
		limit = s.opts.TrendingLimit
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	if windowDays <= 0 {
		windowDays = s.opts.TrendingWindowDays
	}
	posts, err := s.postRepo.Find(ctx, &repository.PostQuery{
		Scope:     repository.ScopePublic,
		Since:     s.now().AddDate(0, 0, -windowDays),
		SortField: repository.SortScore,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, err
	}
	return toPostDTOs(posts), nil
}

// Following posts by the users the viewer follows plus the viewer's own
func (s *feedServiceImpl) Following(ctx context.Context, viewer *model.Viewer, page, pageSize int) (*dto.PostPageDTO, error) {
	if viewer == nil {
		return nil, UnauthorizedError
	}
	ids, err := s.followSvc.GetFollowingIDs(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	authors := make([]string, 0, len(ids)+1)
	authors = append(authors, ids...)
	authors = append(authors, viewer.ID)

	return s.page(ctx, &repository.PostQuery{
		Scope:     repository.ScopeViewer,
		Viewer:    viewer,
		AuthorIDs: util.Dedup(authors),
		SortField: repository.SortCreatedAt,
	}, page, pageSize)
}

// Search literal case-insensitive match over content and badge text
func (s *feedServiceImpl) Search(ctx context.Context, viewer *model.Viewer, keyword string, page, pageSize int) (*dto.PostPageDTO, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, newValidationError("q", "must not be empty")
	}
	return s.page(ctx, &repository.PostQuery{
		Scope:     repository.ScopeViewer,
		Viewer:    viewer,
		Keyword:   keyword,
		SortField: repository.SortCreatedAt,
	}, page, pageSize)
}

// Related posts sharing a tag, the department, the type or the author; never the source itself
func (s *feedServiceImpl) Related(ctx context.Context, viewer *model.Viewer, postID string, limit int) ([]*dto.PostDTO, error) {
	source, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.RelatedLimit
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}

	posts, err := s.postRepo.Find(ctx, &repository.PostQuery{
		Scope:     repository.ScopeViewer,
		Viewer:    viewer,
		ExcludeID: source.ID,
		Related: &repository.RelatedMatch{
			Tags:       source.Tags,
			Department: source.Department,
			Type:       source.Type,
			AuthorID:   source.AuthorID,
		},
		SortField: repository.SortCreatedAt,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, err
	}
	return toPostDTOs(posts), nil
}

func (s *feedServiceImpl) EngagementStats(ctx context.Context, viewer *model.Viewer, postID string) (*dto.EngagementStatsDTO, error) {
	post, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}

	stats := &dto.EngagementStatsDTO{
		PostID:            post.ID,
		TotalReactions:    len(post.Reactions),
		TotalComments:     len(post.Comments),
		ReactionBreakdown: make(map[string]int),
		CommentsByDate:    make(map[string]int),
	}
	for _, r := range post.Reactions {
		stats.ReactionBreakdown[r.Type]++
	}
	for _, c := range post.Comments {
		stats.CommentsByDate[c.CreatedAt.UTC().Format(time.DateOnly)]++
	}
	stats.EngagementRate = stats.TotalReactions + stats.TotalComments
	return stats, nil
}

func (s *feedServiceImpl) TopContributors(ctx context.Context, windowDays, limit int) ([]*dto.ContributorDTO, error) {
	if windowDays <= 0 {
		windowDays = s.opts.ContributorDays
	}
	if limit <= 0 {
		limit = s.opts.ContributorLimit
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}

	stats, err := s.postRepo.TopContributors(ctx, s.now().AddDate(0, 0, -windowDays), int64(limit))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.AuthorID)
	}
	users, err := s.userRepo.GetActiveUsersByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]*dto.ContributorDTO, 0, len(stats))
	for _, st := range stats {
		c := &dto.ContributorDTO{
			AuthorID:        st.AuthorID,
			PostCount:       st.PostCount,
			TotalReactions:  st.TotalReactions,
			TotalComments:   st.TotalComments,
			TotalEngagement: st.TotalEngagement,
		}
		if u, ok := byID[st.AuthorID]; ok {
			c.FullName = u.FullName
			c.Department = u.Department
			c.AvatarURL = u.AvatarURL
		}
		out = append(out, c)
	}
	return out, nil
}

// PopularInDepartment public posts plus the viewer's department, by engagement
func (s *feedServiceImpl) PopularInDepartment(ctx context.Context, viewer *model.Viewer, limit int) ([]*dto.PostDTO, error) {
	if limit <= 0 {
		limit = s.opts.PopularLimit
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	posts, err := s.postRepo.Find(ctx, &repository.PostQuery{
		Scope:     repository.ScopeViewer,
		Viewer:    viewer,
		SortField: repository.SortScore,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, err
	}
	return toPostDTOs(posts), nil
}

// page runs the page query and the count side by side
func (s *feedServiceImpl) page(ctx context.Context, q *repository.PostQuery, page, pageSize int) (*dto.PostPageDTO, error) {
	page, pageSize = util.NormalizePage(page, pageSize, s.opts.DefaultPageSize, s.opts.MaxPageSize)
	q.Skip = util.Offset(page, pageSize)
	q.Limit = int64(pageSize)

	var (
		posts []*model.Post
		total int64
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.postRepo.Find(gCtx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.postRepo.Count(gCtx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dto.PostPageDTO{
		Posts:      toPostDTOs(posts),
		Pagination: util.NewPagination(page, pageSize, total),
	}, nil
}

func (s *feedServiceImpl) loadVisible(ctx context.Context, viewer *model.Viewer, postID string) (*model.Post, error) {
	id, err := parseObjectID(postID, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !access.CanView(post, viewer) {
		return nil, ErrForbidden
	}
	return post, nil
}
