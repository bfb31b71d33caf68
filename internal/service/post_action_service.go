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

const MaxReactionTypeLength = 32

// PostActionService reactions and comments. Each mutation is one targeted
// update in the store; the refreshed post is returned.
type PostActionService interface {
	AddReaction(ctx context.Context, viewer *model.Viewer, postID, reactionType string) (*dto.PostDTO, error)
	RemoveReaction(ctx context.Context, viewer *model.Viewer, postID string) (*dto.PostDTO, error)

	AddComment(ctx context.Context, viewer *model.Viewer, postID, content string) (*dto.PostDTO, error)
	ReplyComment(ctx context.Context, viewer *model.Viewer, postID, parentCommentID, content string) (*dto.PostDTO, error)
	DeleteComment(ctx context.Context, viewer *model.Viewer, postID, commentID string) (*dto.PostDTO, error)

	AddCommentReaction(ctx context.Context, viewer *model.Viewer, postID, commentID, reactionType string) (*dto.PostDTO, error)
	RemoveCommentReaction(ctx context.Context, viewer *model.Viewer, postID, commentID string) (*dto.PostDTO, error)
}

type postActionServiceImpl struct {
	postRepo repository.PostRepo
	userRepo repository.UserRepo
	notify   NotifyService
}

func NewPostActionService(postRepo repository.PostRepo, userRepo repository.UserRepo, notify NotifyService) PostActionService {
	return &postActionServiceImpl{
		postRepo: postRepo,
		userRepo: userRepo,
		notify:   notify,
	}
}

func (s *postActionServiceImpl) AddReaction(ctx context.Context, viewer *model.Viewer, postID, reactionType string) (*dto.PostDTO, error) {
	reactionType, err := normalizeReactionType(reactionType)
	if err != nil {
		return nil, err
	}
	post, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}

	updated, err := s.postRepo.UpsertReaction(ctx, post.ID, model.Reaction{
		UserID:    viewer.ID,
		Type:      reactionType,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPostNotFound
	}

	data := postRef(updated, viewer.ID)
	data["reaction"] = reactionType
	s.notify.Notify(ctx, consts.NotifyPostReacted, recipientsExcept(viewer.ID, updated.AuthorID), data)
	return toPostDTO(updated), nil
}

// RemoveReaction no-op when the viewer has not reacted
func (s *postActionServiceImpl) RemoveReaction(ctx context.Context, viewer *model.Viewer, postID string) (*dto.PostDTO, error) {
	post, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}
	updated, err := s.postRepo.RemoveReaction(ctx, post.ID, viewer.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPostNotFound
	}
	return toPostDTO(updated), nil
}

func (s *postActionServiceImpl) AddComment(ctx context.Context, viewer *model.Viewer, postID, content string) (*dto.PostDTO, error) {
	content, err := normalizeCommentContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}

	comment := newComment(viewer.ID, content, nil)
	updated, err := s.postRepo.AppendComment(ctx, post.ID, comment)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPostNotFound
	}

	data := commentRef(updated, &comment, viewer.ID)
	s.notify.Notify(ctx, consts.NotifyPostCommented, recipientsExcept(viewer.ID, updated.AuthorID), data)
	s.notifyMentions(ctx, updated, viewer.ID, content, data)
	return toPostDTO(updated), nil
}

// ReplyComment a reply to a reply is attached to the top-level comment
func (s *postActionServiceImpl) ReplyComment(ctx context.Context, viewer *model.Viewer, postID, parentCommentID, content string) (*dto.PostDTO, error) {
	content, err := normalizeCommentContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}
	parentID, err := parseObjectID(parentCommentID, ErrPostCommentNotFound)
	if err != nil {
		return nil, err
	}
	parent := post.FindComment(parentID)
	if parent == nil {
		return nil, ErrPostCommentNotFound
	}
	notifyTo := parent.AuthorID
	if parent.ParentID != nil {
		parentID = *parent.ParentID
	}

	reply := newComment(viewer.ID, content, &parentID)
	updated, err := s.postRepo.AppendComment(ctx, post.ID, reply)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, s.missing(ctx, post.ID, ErrPostCommentNotFound)
	}

	data := commentRef(updated, &reply, viewer.ID)
	data["parentCommentId"] = parentID.Hex()
	s.notify.Notify(ctx, consts.NotifyCommentReplied, recipientsExcept(viewer.ID, notifyTo), data)
	s.notifyMentions(ctx, updated, viewer.ID, content, data)
	return toPostDTO(updated), nil
}

// DeleteComment comment author, post author or moderator; only that comment is removed
func (s *postActionServiceImpl) DeleteComment(ctx context.Context, viewer *model.Viewer, postID, commentID string) (*dto.PostDTO, error) {
	post, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}
	cid, err := parseObjectID(commentID, ErrPostCommentNotFound)
	if err != nil {
		return nil, err
	}
	comment := post.FindComment(cid)
	if comment == nil {
		return nil, ErrPostCommentNotFound
	}
	if !access.CanDeleteComment(post, comment, viewer) {
		return nil, ErrForbidden
	}

	updated, err := s.postRepo.RemoveComment(ctx, post.ID, cid)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, s.missing(ctx, post.ID, ErrPostCommentNotFound)
	}
	return toPostDTO(updated), nil
}

func (s *postActionServiceImpl) AddCommentReaction(ctx context.Context, viewer *model.Viewer, postID, commentID, reactionType string) (*dto.PostDTO, error) {
	reactionType, err := normalizeReactionType(reactionType)
	if err != nil {
		return nil, err
	}
	post, comment, err := s.loadComment(ctx, viewer, postID, commentID)
	if err != nil {
		return nil, err
	}

	updated, err := s.postRepo.UpsertCommentReaction(ctx, post.ID, comment.ID, model.Reaction{
		UserID:    viewer.ID,
		Type:      reactionType,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, s.missing(ctx, post.ID, ErrPostCommentNotFound)
	}

	data := commentRef(updated, comment, viewer.ID)
	data["reaction"] = reactionType
	s.notify.Notify(ctx, consts.NotifyCommentReacted, recipientsExcept(viewer.ID, comment.AuthorID), data)
	return toPostDTO(updated), nil
}

func (s *postActionServiceImpl) RemoveCommentReaction(ctx context.Context, viewer *model.Viewer, postID, commentID string) (*dto.PostDTO, error) {
	post, comment, err := s.loadComment(ctx, viewer, postID, commentID)
	if err != nil {
		return nil, err
	}
	updated, err := s.postRepo.RemoveCommentReaction(ctx, post.ID, comment.ID, viewer.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, s.missing(ctx, post.ID, ErrPostCommentNotFound)
	}
	return toPostDTO(updated), nil
}

func (s *postActionServiceImpl) loadVisible(ctx context.Context, viewer *model.Viewer, postID string) (*model.Post, error) {
	if viewer == nil {
		return nil, UnauthorizedError
	}
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

func (s *postActionServiceImpl) loadComment(ctx context.Context, viewer *model.Viewer, postID, commentID string) (*model.Post, *model.Comment, error) {
	post, err := s.loadVisible(ctx, viewer, postID)
	if err != nil {
		return nil, nil, err
	}
	cid, err := parseObjectID(commentID, ErrPostCommentNotFound)
	if err != nil {
		return nil, nil, err
	}
	comment := post.FindComment(cid)
	if comment == nil {
		return nil, nil, ErrPostCommentNotFound
	}
	return post, comment, nil
}

// missing tells a vanished post apart from a vanished comment after an unmatched update
func (s *postActionServiceImpl) missing(ctx context.Context, postID primitive.ObjectID, otherwise error) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	return otherwise
}

func (s *postActionServiceImpl) notifyMentions(ctx context.Context, post *model.Post, actor, content string, data map[string]any) {
	if ids := mentionRecipients(ctx, s.userRepo, post, actor, content); len(ids) > 0 {
		s.notify.Notify(ctx, consts.NotifyPostMention, ids, data)
	}
}

// mentionRecipients active mentioned users who can see the post, minus the actor
func mentionRecipients(ctx context.Context, userRepo repository.UserRepo, post *model.Post, actor, content string) []string {
	mentions := util.ExtractMentions(content)
	if len(mentions) == 0 {
		return nil
	}
	users, err := userRepo.GetActiveUsersByIds(ctx, mentions)
	if err != nil {
		log.WarnContext(ctx, "resolve mentions failed", "post_id", post.ID.Hex(), "err", err)
		return nil
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if access.CanView(post, &model.Viewer{ID: u.ID, Department: u.Department}) {
			ids = append(ids, u.ID)
		}
	}
	return recipientsExcept(actor, ids...)
}

func normalizeReactionType(reactionType string) (string, error) {
	reactionType = strings.TrimSpace(reactionType)
	if reactionType == "" {
		return "", newValidationError("type", "must not be empty")
	}
	if len(reactionType) > MaxReactionTypeLength {
		return "", newValidationError("type", "is too long")
	}
	return reactionType, nil
}

func normalizeCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", newValidationError("content", "must not be empty")
	}
	return content, nil
}

func newComment(authorID, content string, parentID *primitive.ObjectID) model.Comment {
	return model.Comment{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		Content:   content,
		Reactions: []model.Reaction{},
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
}

func commentRef(post *model.Post, comment *model.Comment, actor string) map[string]any {
	data := postRef(post, actor)
	data["commentId"] = comment.ID.Hex()
	data["commentExcerpt"] = excerpt(comment.Content, 140)
	return data
}
