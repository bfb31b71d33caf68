// Package access holds every visibility and authorization rule for posts.
// Services, the in-memory store and the Mongo filter builder all defer to it.
package access

import (
	"Townhall/internal/model"
)

// DefaultModeratorRoles used when no roles are configured
var DefaultModeratorRoles = []string{"admin"}

// CanView public posts are visible to everyone, department posts only to
// viewers of the same department.
func CanView(post *model.Post, viewer *model.Viewer) bool {
	if post == nil {
		return false
	}
	if post.Visibility == model.VisibilityPublic {
		return true
	}
	if post.Visibility == model.VisibilityDepartment && viewer != nil {
		return post.Department != "" && post.Department == viewer.Department
	}
	return false
}

// CanEditOrDelete author or moderator
func CanEditOrDelete(post *model.Post, viewer *model.Viewer) bool {
	if post == nil || viewer == nil {
		return false
	}
	return post.AuthorID == viewer.ID || CanModerate(viewer)
}

func CanModerate(viewer *model.Viewer) bool {
	return viewer != nil && viewer.IsModerator
}

// CanDeleteComment comment author, post author or moderator
func CanDeleteComment(post *model.Post, comment *model.Comment, viewer *model.Viewer) bool {
	if post == nil || comment == nil || viewer == nil {
		return false
	}
	return comment.AuthorID == viewer.ID || post.AuthorID == viewer.ID || CanModerate(viewer)
}

// Policy decides who is a moderator
type Policy struct {
	moderatorRoles map[string]struct{}
}

func NewPolicy(moderatorRoles []string) *Policy {
	if len(moderatorRoles) == 0 {
		moderatorRoles = DefaultModeratorRoles
	}
	set := make(map[string]struct{}, len(moderatorRoles))
	for _, r := range moderatorRoles {
		set[r] = struct{}{}
	}
	return &Policy{moderatorRoles: set}
}

// IsModerator true when any role is a moderator role
func (p *Policy) IsModerator(roles []string) bool {
	for _, r := range roles {
		if _, ok := p.moderatorRoles[r]; ok {
			return true
		}
	}
	return false
}

// Viewer normalizes a directory user into a request viewer
func (p *Policy) Viewer(user *model.User) *model.Viewer {
	return &model.Viewer{
		ID:          user.ID,
		Department:  user.Department,
		IsModerator: p.IsModerator(user.RoleList()),
	}
}
