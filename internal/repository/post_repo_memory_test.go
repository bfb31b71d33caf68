package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"Townhall/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPost(author string, vis model.Visibility, dept string, created time.Time) *model.Post {
	return &model.Post{
		AuthorID:   author,
		Content:    "hello from " + author,
		Type:       model.PostTypeShare,
		Visibility: vis,
		Department: dept,
		Comments:   []model.Comment{},
		Reactions:  []model.Reaction{},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestMemoryPostRepo_FindScopedAndPaged(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newPost("a", model.VisibilityPublic, "", base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, repo.Create(ctx, newPost("b", model.VisibilityDepartment, "Engineering", base.Add(10*time.Hour))))

	sales := &model.Viewer{ID: "s", Department: "Sales"}
	q := &PostQuery{Viewer: sales, SortField: SortCreatedAt, Limit: 2}
	page, err := repo.Find(ctx, q)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	total, err := repo.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	eng := &model.Viewer{ID: "e", Department: "Engineering"}
	total, err = repo.Count(ctx, &PostQuery{Viewer: eng})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	q.Skip = 10
	page, err = repo.Find(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryPostRepo_ReactionUpsertReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	p := newPost("a", model.VisibilityPublic, "", time.Now())
	require.NoError(t, repo.Create(ctx, p))

	_, err := repo.UpsertReaction(ctx, p.ID, model.Reaction{UserID: "u1", Type: "like", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = repo.UpsertReaction(ctx, p.ID, model.Reaction{UserID: "u2", Type: "like", CreatedAt: time.Now()})
	require.NoError(t, err)
	got, err := repo.UpsertReaction(ctx, p.ID, model.Reaction{UserID: "u1", Type: "love", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.Len(t, got.Reactions, 2)
	assert.Equal(t, "u1", got.Reactions[0].UserID)
	assert.Equal(t, "love", got.Reactions[0].Type)

	got, err = repo.RemoveReaction(ctx, p.ID, "u1")
	require.NoError(t, err)
	require.Len(t, got.Reactions, 1)
	assert.Equal(t, "u2", got.Reactions[0].UserID)

	got, err = repo.RemoveReaction(ctx, p.ID, "nobody")
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 1)
}

func TestMemoryPostRepo_ConcurrentReactionsSingleEntryPerUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	p := newPost("a", model.VisibilityPublic, "", time.Now())
	require.NoError(t, repo.Create(ctx, p))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ := "like"
			if i%2 == 0 {
				typ = "love"
			}
			_, _ = repo.UpsertReaction(ctx, p.ID, model.Reaction{UserID: "same", Type: typ, CreatedAt: time.Now()})
		}(i)
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 1)
}

func TestMemoryPostRepo_CommentsAndReplies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	p := newPost("a", model.VisibilityPublic, "", time.Now())
	require.NoError(t, repo.Create(ctx, p))

	top := model.Comment{ID: primitive.NewObjectID(), AuthorID: "u1", Content: "first", CreatedAt: time.Now()}
	got, err := repo.AppendComment(ctx, p.ID, top)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.NotNil(t, got.Comments[0].Reactions)

	reply := model.Comment{ID: primitive.NewObjectID(), AuthorID: "u2", Content: "reply", ParentID: &top.ID, CreatedAt: time.Now()}
	got, err = repo.AppendComment(ctx, p.ID, reply)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)

	missing := primitive.NewObjectID()
	orphan := model.Comment{ID: primitive.NewObjectID(), AuthorID: "u2", Content: "x", ParentID: &missing}
	got, err = repo.AppendComment(ctx, p.ID, orphan)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.UpsertCommentReaction(ctx, p.ID, top.ID, model.Reaction{UserID: "u3", Type: "like"})
	require.NoError(t, err)
	assert.Len(t, got.FindComment(top.ID).Reactions, 1)

	got, err = repo.RemoveComment(ctx, p.ID, top.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1, "replies outlive their parent")
	assert.Equal(t, reply.ID, got.Comments[0].ID)

	got, err = repo.RemoveComment(ctx, p.ID, top.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryPostRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	p := newPost("a", model.VisibilityPublic, "", time.Now())
	p.Tags = []string{"x"}
	require.NoError(t, repo.Create(ctx, p))

	got, _ := repo.FindByID(ctx, p.ID)
	got.Tags[0] = "mutated"
	got.Content = "mutated"

	again, _ := repo.FindByID(ctx, p.ID)
	assert.Equal(t, "x", again.Tags[0])
	assert.NotEqual(t, "mutated", again.Content)
}

func TestMemoryPostRepo_DeleteAndPin(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	p := newPost("a", model.VisibilityPublic, "", time.Now())
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.TogglePin(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPinned)

	ok, err := repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = repo.TogglePin(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryPostRepo_UpdateFieldsWritesOnlyPatched(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	p := newPost("a", model.VisibilityDepartment, "Eng", time.Now().Add(-time.Hour))
	p.Tags = []string{"x"}
	p.BadgeInfo = &model.BadgeInfo{BadgeName: "Star"}
	require.NoError(t, repo.Create(ctx, p))

	_, err := repo.TogglePin(ctx, p.ID)
	require.NoError(t, err)
	_, err = repo.UpsertReaction(ctx, p.ID, model.Reaction{UserID: "u1", Type: "like"})
	require.NoError(t, err)

	content := "edited"
	tags := []string{"x", "y"}
	now := time.Now().UTC()
	before, after, err := repo.UpdateFields(ctx, p.ID, &PostPatch{Content: &content, Tags: &tags, UpdatedAt: now})
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, before.Tags)
	assert.Equal(t, "edited", after.Content)
	assert.Equal(t, []string{"x", "y"}, after.Tags)
	assert.True(t, after.IsPinned)
	assert.Len(t, after.Reactions, 1)
	assert.Equal(t, "Eng", after.Department)
	require.NotNil(t, after.BadgeInfo)
	assert.True(t, now.Equal(after.UpdatedAt))

	empty := ""
	_, after, err = repo.UpdateFields(ctx, p.ID, &PostPatch{Department: &empty, SetBadgeInfo: true})
	require.NoError(t, err)
	assert.Empty(t, after.Department)
	assert.Nil(t, after.BadgeInfo)
	assert.Equal(t, "edited", after.Content)

	before, after, err = repo.UpdateFields(ctx, primitive.NewObjectID(), &PostPatch{Content: &content})
	require.NoError(t, err)
	assert.Nil(t, before)
	assert.Nil(t, after)
}

func TestMemoryPostRepo_TopContributors(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, newPost("a", model.VisibilityPublic, "", now)))
	require.NoError(t, repo.Create(ctx, newPost("a", model.VisibilityPublic, "", now)))
	busy := newPost("b", model.VisibilityPublic, "", now)
	busy.Reactions = []model.Reaction{{UserID: "x", Type: "like"}}
	require.NoError(t, repo.Create(ctx, busy))
	require.NoError(t, repo.Create(ctx, newPost("c", model.VisibilityPublic, "", now.AddDate(0, 0, -60))))

	stats, err := repo.TopContributors(ctx, now.AddDate(0, 0, -30), 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].AuthorID)
	assert.Equal(t, int64(2), stats[0].PostCount)
	assert.Equal(t, int64(1), stats[1].TotalEngagement)
}

func TestPostQuery_Match(t *testing.T) {
	p := &model.Post{
		ID:         primitive.NewObjectID(),
		AuthorID:   "a",
		Content:    "Quarterly Results are in",
		Type:       model.PostTypeAnnouncement,
		Visibility: model.VisibilityDepartment,
		Department: "Finance",
		Tags:       []string{"t1"},
		BadgeInfo:  &model.BadgeInfo{BadgeName: "Star", Message: "great job"},
		CreatedAt:  time.Now(),
	}
	fin := &model.Viewer{ID: "f", Department: "Finance"}

	assert.True(t, (&PostQuery{Viewer: fin}).Match(p))
	assert.False(t, (&PostQuery{Scope: ScopePublic}).Match(p))
	assert.True(t, (&PostQuery{Scope: ScopeAll}).Match(p))
	assert.True(t, (&PostQuery{Viewer: fin, Keyword: "results"}).Match(p))
	assert.True(t, (&PostQuery{Viewer: fin, Keyword: "GREAT"}).Match(p))
	assert.False(t, (&PostQuery{Viewer: fin, Keyword: "missing"}).Match(p))
	assert.False(t, (&PostQuery{Viewer: fin, ExcludeID: p.ID}).Match(p))
	assert.False(t, (&PostQuery{Viewer: fin, AuthorIDs: []string{}}).Match(p))
	assert.True(t, (&PostQuery{Viewer: fin, Related: &RelatedMatch{Tags: []string{"t1"}}}).Match(p))
	assert.False(t, (&PostQuery{Viewer: fin, Related: &RelatedMatch{Type: model.PostTypeQuestion}}).Match(p))
	assert.False(t, (&PostQuery{Viewer: fin, Since: time.Now().Add(time.Hour)}).Match(p))
}
