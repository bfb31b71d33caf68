package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"Townhall/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryPostRepoImpl struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*model.Post
}

// NewMemoryPostRepo in-process post store. Each mutation runs under the lock
// and callers only ever receive copies.
func NewMemoryPostRepo() PostRepo {
	return &memoryPostRepoImpl{posts: make(map[primitive.ObjectID]*model.Post)}
}

func (s *memoryPostRepoImpl) Create(_ context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	s.posts[post.ID] = post.Clone()
	return nil
}

func (s *memoryPostRepoImpl) FindByID(_ context.Context, id primitive.ObjectID) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.posts[id].Clone(), nil
}

func (s *memoryPostRepoImpl) Find(_ context.Context, q *PostQuery) ([]*model.Post, error) {
	s.mu.RLock()
	matched := make([]*model.Post, 0)
	for _, p := range s.posts {
		if q.Match(p) {
			matched = append(matched, p.Clone())
		}
	}
	s.mu.RUnlock()

	sortPosts(matched, q.SortField, q.SortAsc)

	start := int(q.Skip)
	if start >= len(matched) {
		return []*model.Post{}, nil
	}
	end := len(matched)
	if q.Limit > 0 && start+int(q.Limit) < end {
		end = start + int(q.Limit)
	}
	return matched[start:end], nil
}

func (s *memoryPostRepoImpl) Count(_ context.Context, q *PostQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.posts {
		if q.Match(p) {
			n++
		}
	}
	return n, nil
}

func (s *memoryPostRepoImpl) TopContributors(_ context.Context, since time.Time, limit int64) ([]*ContributorStat, error) {
	s.mu.RLock()
	byAuthor := make(map[string]*ContributorStat)
	for _, p := range s.posts {
		if p.CreatedAt.Before(since) {
			continue
		}
		st, ok := byAuthor[p.AuthorID]
		if !ok {
			st = &ContributorStat{AuthorID: p.AuthorID}
			byAuthor[p.AuthorID] = st
		}
		st.PostCount++
		st.TotalReactions += int64(len(p.Reactions))
		st.TotalComments += int64(len(p.Comments))
	}
	s.mu.RUnlock()

	stats := make([]*ContributorStat, 0, len(byAuthor))
	for _, st := range byAuthor {
		st.TotalEngagement = st.TotalReactions + st.TotalComments
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].PostCount != stats[j].PostCount {
			return stats[i].PostCount > stats[j].PostCount
		}
		if stats[i].TotalEngagement != stats[j].TotalEngagement {
			return stats[i].TotalEngagement > stats[j].TotalEngagement
		}
		return stats[i].AuthorID < stats[j].AuthorID
	})
	if limit > 0 && int(limit) < len(stats) {
		stats = stats[:limit]
	}
	return stats, nil
}

func (s *memoryPostRepoImpl) UpdateFields(_ context.Context, id primitive.ObjectID, patch *PostPatch) (*model.Post, *model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.posts[id]
	if !ok {
		return nil, nil, nil
	}
	next := cur.Clone()
	patch.Apply(next)
	s.posts[id] = next
	return cur.Clone(), next.Clone(), nil
}

func (s *memoryPostRepoImpl) TogglePin(_ context.Context, id primitive.ObjectID) (*model.Post, error) {
	return s.mutate(id, func(p *model.Post) bool {
		p.IsPinned = !p.IsPinned
		p.UpdatedAt = time.Now()
		return true
	})
}

func (s *memoryPostRepoImpl) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return false, nil
	}
	delete(s.posts, id)
	return true, nil
}

func (s *memoryPostRepoImpl) UpsertReaction(_ context.Context, postID primitive.ObjectID, reaction model.Reaction) (*model.Post, error) {
	return s.mutate(postID, func(p *model.Post) bool {
		p.Reactions = upsertReaction(p.Reactions, reaction)
		return true
	})
}

func (s *memoryPostRepoImpl) RemoveReaction(_ context.Context, postID primitive.ObjectID, userID string) (*model.Post, error) {
	return s.mutate(postID, func(p *model.Post) bool {
		p.Reactions = removeReaction(p.Reactions, userID)
		return true
	})
}

func (s *memoryPostRepoImpl) AppendComment(_ context.Context, postID primitive.ObjectID, comment model.Comment) (*model.Post, error) {
	return s.mutate(postID, func(p *model.Post) bool {
		if comment.ParentID != nil {
			parent := p.FindComment(*comment.ParentID)
			if parent == nil || parent.ParentID != nil {
				return false
			}
		}
		if comment.Reactions == nil {
			comment.Reactions = []model.Reaction{}
		}
		p.Comments = append(p.Comments, comment)
		return true
	})
}

func (s *memoryPostRepoImpl) RemoveComment(_ context.Context, postID, commentID primitive.ObjectID) (*model.Post, error) {
	return s.mutate(postID, func(p *model.Post) bool {
		if p.FindComment(commentID) == nil {
			return false
		}
		kept := p.Comments[:0]
		for _, c := range p.Comments {
			if c.ID == commentID {
				continue
			}
			kept = append(kept, c)
		}
		p.Comments = kept
		return true
	})
}

func (s *memoryPostRepoImpl) UpsertCommentReaction(_ context.Context, postID, commentID primitive.ObjectID, reaction model.Reaction) (*model.Post, error) {
	return s.mutate(postID, func(p *model.Post) bool {
		c := p.FindComment(commentID)
		if c == nil {
			return false
		}
		c.Reactions = upsertReaction(c.Reactions, reaction)
		return true
	})
}

func (s *memoryPostRepoImpl) RemoveCommentReaction(_ context.Context, postID, commentID primitive.ObjectID, userID string) (*model.Post, error) {
	return s.mutate(postID, func(p *model.Post) bool {
		c := p.FindComment(commentID)
		if c == nil {
			return false
		}
		c.Reactions = removeReaction(c.Reactions, userID)
		return true
	})
}

// mutate applies fn to a private copy and swaps it in when fn returns true
func (s *memoryPostRepoImpl) mutate(id primitive.ObjectID, fn func(p *model.Post) bool) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	next := cur.Clone()
	if !fn(next) {
		return nil, nil
	}
	s.posts[id] = next
	return next.Clone(), nil
}

func upsertReaction(list []model.Reaction, r model.Reaction) []model.Reaction {
	for i := range list {
		if list[i].UserID == r.UserID {
			list[i].Type = r.Type
			list[i].CreatedAt = r.CreatedAt
			return list
		}
	}
	return append(list, r)
}

func removeReaction(list []model.Reaction, userID string) []model.Reaction {
	kept := make([]model.Reaction, 0, len(list))
	for _, r := range list {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	return kept
}

func sortPosts(posts []*model.Post, field SortField, asc bool) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch field {
		case SortScore:
			if asc {
				return model.TrendingLess(b, a)
			}
			return model.TrendingLess(a, b)
		case SortUpdatedAt:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt) == asc
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt) == asc
			}
		}
		return (a.ID.Hex() < b.ID.Hex()) == asc
	})
}
