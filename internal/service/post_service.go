package service

import (
	"context"
	log "log/slog"
	"strings"
	"time"

	"Townhall/internal/access"
	"Townhall/internal/api/dto"
	"Townhall/internal/model"
	"Townhall/internal/pkg/consts"
	"Townhall/internal/pkg/util"
	"Townhall/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostService interface {
	CreatePost(ctx context.Context, viewer *model.Viewer, req *dto.CreatePostDTO) (*dto.PostDTO, error)
	GetPost(ctx context.Context, viewer *model.Viewer, postID string) (*dto.PostDTO, error)
	UpdatePost(ctx context.Context, viewer *model.Viewer, postID string, req *dto.UpdatePostDTO) (*dto.PostDTO, error)
	TogglePin(ctx context.Context, viewer *model.Viewer, postID string) (*dto.PostDTO, error)
	DeletePost(ctx context.Context, viewer *model.Viewer, postID string) error
}

type postServiceImpl struct {
	postRepo repository.PostRepo
	userRepo repository.UserRepo
	fanout   FanoutService
	notify   NotifyService
}

func NewPostService(postRepo repository.PostRepo, userRepo repository.UserRepo, fanout FanoutService, notify NotifyService) PostService {
	return &postServiceImpl{
		postRepo: postRepo,
		userRepo: userRepo,
		fanout:   fanout,
		notify:   notify,
	}
}

// CreatePost validates, stores, then fans out. Fanout and notifications never affect the result.
func (s *postServiceImpl) CreatePost(ctx context.Context, viewer *model.Viewer, req *dto.CreatePostDTO) (*dto.PostDTO, error) {
	if viewer == nil {
		return nil, UnauthorizedError
	}
	if err := util.ValidateDTO(req); err != nil {
		return nil, newValidationError("request", err.Error())
	}

	now := time.Now().UTC()
	post := &model.Post{
		ID:         primitive.NewObjectID(),
		AuthorID:   viewer.ID,
		Content:    req.Content,
		Images:     util.Dedup(req.Images),
		Videos:     util.Dedup(req.Videos),
		Type:       model.PostType(req.Type),
		Visibility: model.Visibility(req.Visibility),
		Department: req.Department,
		Tags:       req.Tags,
		IsPinned:   false,
		Comments:   []model.Comment{},
		Reactions:  []model.Reaction{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.BadgeInfo != nil {
		post.BadgeInfo = &model.BadgeInfo{
			BadgeName: req.BadgeInfo.BadgeName,
			BadgeIcon: req.BadgeInfo.BadgeIcon,
			Message:   req.BadgeInfo.Message,
		}
	}

	if err := s.normalizePost(ctx, post); err != nil {
		return nil, err
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.fanout.PostCreated(ctx, post)
	s.notifyCreated(ctx, post)
	return toPostDTO(post), nil
}

func (s *postServiceImpl) GetPost(ctx context.Context, viewer *model.Viewer, postID string) (*dto.PostDTO, error) {
	post, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}
	return toPostDTO(post), nil
}

// UpdatePost author or moderator; only moderators may touch isPinned
func (s *postServiceImpl) UpdatePost(ctx context.Context, viewer *model.Viewer, postID string, req *dto.UpdatePostDTO) (*dto.PostDTO, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !access.CanEditOrDelete(post, viewer) {
		return nil, ErrForbidden
	}
	if req.IsPinned != nil && !access.CanModerate(viewer) {
		return nil, ErrForbidden
	}
	if err = util.ValidateDTO(req); err != nil {
		return nil, newValidationError("request", err.Error())
	}

	// validate against the merged view, but write only what the request names
	merged := post.Clone()
	applyPatch(merged, req)
	if err = s.normalizePost(ctx, merged); err != nil {
		return nil, err
	}

	before, updated, err := s.postRepo.UpdateFields(ctx, post.ID, buildPatch(merged, req))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPostNotFound
	}

	if added := newlyAdded(before.Tags, updated.Tags); len(added) > 0 {
		s.fanout.Tagged(ctx, updated, added)
		s.notify.Notify(ctx, consts.NotifyPostTagged, recipientsExcept(viewer.ID, added...), postRef(updated, viewer.ID))
	}
	return toPostDTO(updated), nil
}

func (s *postServiceImpl) TogglePin(ctx context.Context, viewer *model.Viewer, postID string) (*dto.PostDTO, error) {
	if !access.CanModerate(viewer) {
		return nil, ErrForbidden
	}
	id, err := parseObjectID(postID, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.TogglePin(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	log.InfoContext(ctx, "post pin toggled", "post_id", postID, "pinned", post.IsPinned, "moderator", viewer.ID)
	return toPostDTO(post), nil
}

// DeletePost comments and reactions are embedded and go with the post
func (s *postServiceImpl) DeletePost(ctx context.Context, viewer *model.Viewer, postID string) error {
	post, err := s.load(ctx, postID)
	if err != nil {
		return err
	}
	if !access.CanEditOrDelete(post, viewer) {
		return ErrForbidden
	}
	deleted, err := s.postRepo.Delete(ctx, post.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPostNotFound
	}
	return nil
}

func (s *postServiceImpl) load(ctx context.Context, postID string) (*model.Post, error) {
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
	return post, nil
}

func (s *postServiceImpl) loadVisible(ctx context.Context, viewer *model.Viewer, postID string) (*model.Post, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !access.CanView(post, viewer) {
		return nil, ErrForbidden
	}
	return post, nil
}

// normalizePost applies defaults and rejects invalid state before anything is written
func (s *postServiceImpl) normalizePost(ctx context.Context, post *model.Post) error {
	post.Content = strings.TrimSpace(post.Content)
	if post.Content == "" {
		return newValidationError("content", "must not be empty")
	}

	if post.Type == "" {
		post.Type = model.PostTypeShare
	}
	if !post.Type.Valid() {
		return newValidationError("type", "unknown post type "+string(post.Type))
	}
	if post.Visibility == "" {
		post.Visibility = model.VisibilityPublic
	}
	if !post.Visibility.Valid() {
		return newValidationError("visibility", "unknown visibility "+string(post.Visibility))
	}

	post.Department = strings.TrimSpace(post.Department)
	switch post.Visibility {
	case model.VisibilityDepartment:
		if post.Department == "" {
			return newValidationError("department", "is required for department posts")
		}
	case model.VisibilityPublic:
		post.Department = ""
	}

	if post.Type != model.PostTypeBadge {
		post.BadgeInfo = nil
	}
	if post.Images == nil {
		post.Images = []string{}
	}
	if post.Videos == nil {
		post.Videos = []string{}
	}

	post.Tags = util.Dedup(post.Tags)
	return s.validateTags(ctx, post.Tags)
}

// validateTags every tag must be an active user; the error lists the bad ids in input order
func (s *postServiceImpl) validateTags(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	users, err := s.userRepo.GetActiveUsersByIds(ctx, tags)
	if err != nil {
		return err
	}
	active := make(map[string]struct{}, len(users))
	for _, u := range users {
		active[u.ID] = struct{}{}
	}
	var invalid []string
	for _, t := range tags {
		if _, ok := active[t]; !ok {
			invalid = append(invalid, t)
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Field: "tags", Reason: "contain unknown or inactive users", InvalidTags: invalid}
	}
	return nil
}

func (s *postServiceImpl) notifyCreated(ctx context.Context, post *model.Post) {
	ref := postRef(post, post.AuthorID)
	if len(post.Tags) > 0 {
		s.notify.Notify(ctx, consts.NotifyPostTagged, recipientsExcept(post.AuthorID, post.Tags...), ref)
	}
	if post.Type == model.PostTypeAnnouncement && post.Visibility == model.VisibilityPublic {
		s.notify.Broadcast(ctx, consts.NotifyNewPostBroadcast, ref)
	}
	if ids := mentionRecipients(ctx, s.userRepo, post, post.AuthorID, post.Content); len(ids) > 0 {
		s.notify.Notify(ctx, consts.NotifyPostMention, ids, ref)
	}
}

func applyPatch(post *model.Post, req *dto.UpdatePostDTO) {
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Images != nil {
		post.Images = util.Dedup(*req.Images)
	}
	if req.Videos != nil {
		post.Videos = util.Dedup(*req.Videos)
	}
	if req.Type != nil {
		post.Type = model.PostType(*req.Type)
	}
	if req.Visibility != nil {
		post.Visibility = model.Visibility(*req.Visibility)
	}
	if req.Department != nil {
		post.Department = *req.Department
	}
	if req.Tags != nil {
		post.Tags = *req.Tags
	}
	if req.BadgeInfo != nil {
		post.BadgeInfo = &model.BadgeInfo{
			BadgeName: req.BadgeInfo.BadgeName,
			BadgeIcon: req.BadgeInfo.BadgeIcon,
			Message:   req.BadgeInfo.Message,
		}
	}
	if req.IsPinned != nil {
		post.IsPinned = *req.IsPinned
	}
}

// buildPatch picks the normalized values of the fields present in req.
// Department follows visibility and badge info follows type, since
// normalization may clear them.
func buildPatch(merged *model.Post, req *dto.UpdatePostDTO) *repository.PostPatch {
	patch := &repository.PostPatch{UpdatedAt: time.Now().UTC()}
	if req.Content != nil {
		patch.Content = &merged.Content
	}
	if req.Images != nil {
		patch.Images = &merged.Images
	}
	if req.Videos != nil {
		patch.Videos = &merged.Videos
	}
	if req.Type != nil {
		patch.Type = &merged.Type
	}
	if req.Visibility != nil {
		patch.Visibility = &merged.Visibility
	}
	if req.Visibility != nil || req.Department != nil {
		patch.Department = &merged.Department
	}
	if req.Tags != nil {
		patch.Tags = &merged.Tags
	}
	if req.Type != nil || req.BadgeInfo != nil {
		patch.SetBadgeInfo = true
		patch.BadgeInfo = merged.BadgeInfo
	}
	if req.IsPinned != nil {
		patch.IsPinned = &merged.IsPinned
	}
	return patch
}

func newlyAdded(before, after []string) []string {
	old := make(map[string]struct{}, len(before))
	for _, t := range before {
		old[t] = struct{}{}
	}
	var added []string
	for _, t := range after {
		if _, ok := old[t]; !ok {
			added = append(added, t)
		}
	}
	return added
}

// postRef payload carried by notifications
func postRef(post *model.Post, actor string) map[string]any {
	return map[string]any{
		"postId":   post.ID.Hex(),
		"authorId": post.AuthorID,
		"actorId":  actor,
		"type":     post.Type,
		"excerpt":  excerpt(post.Content, 140),
	}
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func parseObjectID(hex string, notFound error) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return id, nil
}
