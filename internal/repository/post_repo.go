package repository

import (
	"context"
	"strings"
	"time"

	"Townhall/internal/access"
	"Townhall/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortScore     SortField = "score"
)

type Scope int8

const (
	// ScopeViewer posts the query viewer may see (public only when Viewer is nil)
	ScopeViewer Scope = iota
	ScopePublic
	// ScopeAll no visibility restriction, aggregate use only
	ScopeAll
)

// RelatedMatch any one of the set fields must match
type RelatedMatch struct {
	Tags       []string
	Department string
	Type       model.PostType
	AuthorID   string
}

// PostQuery typed post filter shared by every PostRepo implementation
type PostQuery struct {
	Scope      Scope
	Viewer     *model.Viewer
	Type       model.PostType
	AuthorID   string
	AuthorIDs  []string
	Department string
	Keyword    string
	PinnedOnly bool
	Since      time.Time
	ExcludeID  primitive.ObjectID
	Related    *RelatedMatch

	SortField SortField
	SortAsc   bool
	Skip      int64
	Limit     int64
}

// ContributorStat per-author aggregate
type ContributorStat struct {
	AuthorID        string `bson:"_id" json:"authorId"`
	PostCount       int64  `bson:"post_count" json:"postCount"`
	TotalReactions  int64  `bson:"total_reactions" json:"totalReactions"`
	TotalComments   int64  `bson:"total_comments" json:"totalComments"`
	TotalEngagement int64  `bson:"total_engagement" json:"totalEngagement"`
}

// PostRepo post store. Every mutation is a single atomic update of one post;
// methods returning *model.Post give the post after the update, nil when no
// post matched.
type PostRepo interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	Find(ctx context.Context, q *PostQuery) ([]*model.Post, error)
	Count(ctx context.Context, q *PostQuery) (int64, error)
	TopContributors(ctx context.Context, since time.Time, limit int64) ([]*ContributorStat, error)

	// UpdateFields writes only the fields set on patch and returns the post
	// before and after the update
	UpdateFields(ctx context.Context, id primitive.ObjectID, patch *PostPatch) (before, after *model.Post, err error)
	TogglePin(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)

	UpsertReaction(ctx context.Context, postID primitive.ObjectID, reaction model.Reaction) (*model.Post, error)
	RemoveReaction(ctx context.Context, postID primitive.ObjectID, userID string) (*model.Post, error)
	AppendComment(ctx context.Context, postID primitive.ObjectID, comment model.Comment) (*model.Post, error)
	RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) (*model.Post, error)
	UpsertCommentReaction(ctx context.Context, postID, commentID primitive.ObjectID, reaction model.Reaction) (*model.Post, error)
	RemoveCommentReaction(ctx context.Context, postID, commentID primitive.ObjectID, userID string) (*model.Post, error)
}

// PostPatch editable fields of a post; nil leaves the stored value alone.
// An empty Department or a nil BadgeInfo with SetBadgeInfo clears the field.
type PostPatch struct {
	Content      *string
	Images       *[]string
	Videos       *[]string
	Type         *model.PostType
	Visibility   *model.Visibility
	Department   *string
	Tags         *[]string
	SetBadgeInfo bool
	BadgeInfo    *model.BadgeInfo
	IsPinned     *bool
	UpdatedAt    time.Time
}

// Apply mutates p the same way the stores do
func (pp *PostPatch) Apply(p *model.Post) {
	if pp.Content != nil {
		p.Content = *pp.Content
	}
	if pp.Images != nil {
		p.Images = append([]string{}, *pp.Images...)
	}
	if pp.Videos != nil {
		p.Videos = append([]string{}, *pp.Videos...)
	}
	if pp.Type != nil {
		p.Type = *pp.Type
	}
	if pp.Visibility != nil {
		p.Visibility = *pp.Visibility
	}
	if pp.Department != nil {
		p.Department = *pp.Department
	}
	if pp.Tags != nil {
		p.Tags = append([]string{}, *pp.Tags...)
	}
	if pp.SetBadgeInfo {
		p.BadgeInfo = nil
		if pp.BadgeInfo != nil {
			b := *pp.BadgeInfo
			p.BadgeInfo = &b
		}
	}
	if pp.IsPinned != nil {
		p.IsPinned = *pp.IsPinned
	}
	if !pp.UpdatedAt.IsZero() {
		p.UpdatedAt = pp.UpdatedAt
	}
}

// Match reports whether post satisfies q. The Mongo filter builder mirrors it.
func (q *PostQuery) Match(p *model.Post) bool {
	switch q.Scope {
	case ScopePublic:
		if p.Visibility != model.VisibilityPublic {
			return false
		}
	case ScopeViewer:
		if !access.CanView(p, q.Viewer) {
			return false
		}
	}

	if q.Type != "" && p.Type != q.Type {
		return false
	}
	if q.AuthorID != "" && p.AuthorID != q.AuthorID {
		return false
	}
	if q.AuthorIDs != nil && !containsString(q.AuthorIDs, p.AuthorID) {
		return false
	}
	if q.Department != "" && p.Department != q.Department {
		return false
	}
	if q.PinnedOnly && !p.IsPinned {
		return false
	}
	if !q.Since.IsZero() && p.CreatedAt.Before(q.Since) {
		return false
	}
	if !q.ExcludeID.IsZero() && p.ID == q.ExcludeID {
		return false
	}
	if q.Keyword != "" && !matchKeyword(p, q.Keyword) {
		return false
	}
	if q.Related != nil && !q.Related.match(p) {
		return false
	}
	return true
}

func (r *RelatedMatch) match(p *model.Post) bool {
	for _, t := range r.Tags {
		if p.HasTag(t) {
			return true
		}
	}
	if r.Department != "" && p.Department == r.Department {
		return true
	}
	if r.Type != "" && p.Type == r.Type {
		return true
	}
	return r.AuthorID != "" && p.AuthorID == r.AuthorID
}

func matchKeyword(p *model.Post, keyword string) bool {
	kw := strings.ToLower(keyword)
	if strings.Contains(strings.ToLower(p.Content), kw) {
		return true
	}
	if p.BadgeInfo != nil {
		return strings.Contains(strings.ToLower(p.BadgeInfo.BadgeName), kw) ||
			strings.Contains(strings.ToLower(p.BadgeInfo.Message), kw)
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
