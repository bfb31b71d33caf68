package dto

import (
	"time"

	"Townhall/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostDTO struct {
	ID            primitive.ObjectID `json:"id"`
	AuthorID      string             `json:"authorId"`
	Content       string             `json:"content"`
	Images        []string           `json:"images"`
	Videos        []string           `json:"videos"`
	Type          model.PostType     `json:"type"`
	Visibility    model.Visibility   `json:"visibility"`
	Department    string             `json:"department,omitempty"`
	Tags          []string           `json:"tags"`
	BadgeInfo     *model.BadgeInfo   `json:"badgeInfo,omitempty"`
	IsPinned      bool               `json:"isPinned"`
	Comments      []model.Comment    `json:"comments"`
	Reactions     []model.Reaction   `json:"reactions"`
	ReactionCount int                `json:"reactionCount"`
	CommentCount  int                `json:"commentCount"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type PaginationDTO struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	TotalPosts  int64 `json:"totalPosts"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

type PostPageDTO struct {
	Posts      []*PostDTO     `json:"posts"`
	Pagination *PaginationDTO `json:"pagination"`
}

type EngagementStatsDTO struct {
	PostID            primitive.ObjectID `json:"postId"`
	TotalReactions    int                `json:"totalReactions"`
	TotalComments     int                `json:"totalComments"`
	ReactionBreakdown map[string]int     `json:"reactionBreakdown"`
	CommentsByDate    map[string]int     `json:"commentsByDate"`
	EngagementRate    int                `json:"engagementRate"`
}

type ContributorDTO struct {
	AuthorID        string `json:"authorId"`
	FullName        string `json:"fullName,omitempty"`
	Department      string `json:"department,omitempty"`
	AvatarURL       string `json:"avatarUrl,omitempty"`
	PostCount       int64  `json:"postCount"`
	TotalReactions  int64  `json:"totalReactions"`
	TotalComments   int64  `json:"totalComments"`
	TotalEngagement int64  `json:"totalEngagement"`
}
