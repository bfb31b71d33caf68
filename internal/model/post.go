package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostType string

const (
	PostTypeAnnouncement PostType = "Announcement"
	PostTypeShare        PostType = "Share"
	PostTypeQuestion     PostType = "Question"
	PostTypeBadge        PostType = "Badge"
	PostTypeOther        PostType = "Other"
)

// Valid reports whether t is one of the known post types
func (t PostType) Valid() bool {
	switch t {
	case PostTypeAnnouncement, PostTypeShare, PostTypeQuestion, PostTypeBadge, PostTypeOther:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityDepartment Visibility = "department"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityDepartment
}

// Post aggregate root. Comments and reactions live inside the document so
// a single update is atomic and deleting the post removes them with it.
type Post struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID   string             `bson:"author_id" json:"authorId"`
	Content    string             `bson:"content" json:"content"`
	Images     []string           `bson:"images" json:"images"`
	Videos     []string           `bson:"videos" json:"videos"`
	Type       PostType           `bson:"type" json:"type"`
	Visibility Visibility         `bson:"visibility" json:"visibility"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	Tags       []string           `bson:"tags" json:"tags"`
	BadgeInfo  *BadgeInfo         `bson:"badge_info,omitempty" json:"badgeInfo,omitempty"`
	IsPinned   bool               `bson:"is_pinned" json:"isPinned"`
	Comments   []Comment          `bson:"comments" json:"comments"`
	Reactions  []Reaction         `bson:"reactions" json:"reactions"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

type BadgeInfo struct {
	BadgeName string `bson:"badge_name" json:"badgeName"`
	BadgeIcon string `bson:"badge_icon" json:"badgeIcon"`
	Message   string `bson:"message" json:"message"`
}

// Comment ParentID references a top-level comment of the same post (one level of replies)
type Comment struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	AuthorID  string              `bson:"author_id" json:"authorId"`
	Content   string              `bson:"content" json:"content"`
	Reactions []Reaction          `bson:"reactions" json:"reactions"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}

type Reaction struct {
	UserID    string    `bson:"user_id" json:"userId"`
	Type      string    `bson:"type" json:"type"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Score engagement score used for trending and popularity ordering
func (p *Post) Score() int {
	return len(p.Reactions) + len(p.Comments)
}

// FindComment returns the comment with the given id, or nil
func (p *Post) FindComment(id primitive.ObjectID) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}

// HasTag reports whether userID is tagged on the post
func (p *Post) HasTag(userID string) bool {
	for _, t := range p.Tags {
		if t == userID {
			return true
		}
	}
	return false
}

// Clone deep copy, so callers never share slices with a store
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Images = append([]string(nil), p.Images...)
	c.Videos = append([]string(nil), p.Videos...)
	c.Tags = append([]string(nil), p.Tags...)
	if p.BadgeInfo != nil {
		b := *p.BadgeInfo
		c.BadgeInfo = &b
	}
	c.Reactions = append([]Reaction(nil), p.Reactions...)
	c.Comments = make([]Comment, len(p.Comments))
	for i, cm := range p.Comments {
		cm.Reactions = append([]Reaction(nil), cm.Reactions...)
		if cm.ParentID != nil {
			pid := *cm.ParentID
			cm.ParentID = &pid
		}
		c.Comments[i] = cm
	}
	return &c
}

// TrendingLess orders by score desc, then creation time desc
func TrendingLess(a, b *Post) bool {
	if sa, sb := a.Score(), b.Score(); sa != sb {
		return sa > sb
	}
	return a.CreatedAt.After(b.CreatedAt)
}
