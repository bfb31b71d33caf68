package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Townhall/internal/api/dto"
	"Townhall/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func postIDs(posts []*dto.PostDTO) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestFeed_TrendingTieBreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := time.Now().Add(-2 * time.Hour)
	t1 := t0.Add(time.Hour)

	a := env.seed(t, &model.Post{AuthorID: "alice", Content: "A", CreatedAt: t0, Reactions: reactions(7)})
	b := env.seed(t, &model.Post{AuthorID: "bob", Content: "B", CreatedAt: t1, Reactions: reactions(7)})
	env.seed(t, &model.Post{AuthorID: "bob", Content: "old", CreatedAt: time.Now().AddDate(0, 0, -30), Reactions: reactions(20)})
	env.seed(t, &model.Post{AuthorID: "carol", Content: "private", Visibility: model.VisibilityDepartment, Department: "Eng", Reactions: reactions(20)})

	got, err := env.feed.Trending(ctx, 10, 7)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID, a.ID}, postIDs(got))

	_, err = env.actions.AddReaction(ctx, viewerOf("zed", "Ops"), a.ID.Hex(), "like")
	require.NoError(t, err)
	got, err = env.feed.Trending(ctx, 10, 7)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a.ID, b.ID}, postIDs(got))

	got, err = env.feed.Trending(ctx, 1, 7)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFeed_NewsfeedPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		env.seed(t, &model.Post{AuthorID: "alice", Content: fmt.Sprintf("p%d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	page, err := env.feed.Newsfeed(ctx, viewerOf("bob", "Sales"), nil, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 10)
	assert.Equal(t, "p24", page.Posts[0].Content)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, int64(25), page.Pagination.TotalPosts)

	page, err = env.feed.Newsfeed(ctx, viewerOf("bob", "Sales"), nil, 3, 10)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 5)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)

	page, err = env.feed.Newsfeed(ctx, viewerOf("bob", "Sales"), &FeedFilter{SortOrder: "asc"}, 1, 500)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 25)
	assert.Equal(t, 100, page.Pagination.PageSize)
	assert.Equal(t, "p0", page.Posts[0].Content)
}

func TestFeed_NewsfeedFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, &model.Post{AuthorID: "alice", Content: "q", Type: model.PostTypeQuestion})
	env.seed(t, &model.Post{AuthorID: "bob", Content: "s"})
	env.seed(t, &model.Post{AuthorID: "carol", Content: "eng", Visibility: model.VisibilityDepartment, Department: "Eng"})

	page, err := env.feed.Newsfeed(ctx, viewerOf("dave", "Eng"), &FeedFilter{Type: "Question"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "q", page.Posts[0].Content)

	page, err = env.feed.Newsfeed(ctx, viewerOf("dave", "Eng"), &FeedFilter{Author: "bob"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)

	page, err = env.feed.Newsfeed(ctx, viewerOf("bob", "Sales"), &FeedFilter{Department: "Eng"}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Posts, "a department filter never widens visibility")

	_, err = env.feed.Newsfeed(ctx, viewerOf("bob", "Sales"), &FeedFilter{SortBy: "score"}, 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFeed_PinnedOrderedByUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()
	older := env.seed(t, &model.Post{AuthorID: "alice", Content: "older", IsPinned: true, UpdatedAt: now.Add(-time.Hour)})
	newer := env.seed(t, &model.Post{AuthorID: "alice", Content: "newer", IsPinned: true, UpdatedAt: now})
	env.seed(t, &model.Post{AuthorID: "alice", Content: "not pinned"})
	env.seed(t, &model.Post{AuthorID: "carol", Content: "eng pinned", IsPinned: true, Visibility: model.VisibilityDepartment, Department: "Eng"})

	got, err := env.feed.Pinned(ctx, viewerOf("bob", "Sales"))
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{newer.ID, older.ID}, postIDs(got))
}

func TestFeed_Following(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := viewerOf("alice", "Eng")
	env.seed(t, &model.Post{AuthorID: "alice", Content: "mine"})
	env.seed(t, &model.Post{AuthorID: "bob", Content: "bob's"})
	env.seed(t, &model.Post{AuthorID: "carol", Content: "carol's"})

	page, err := env.feed.Following(ctx, alice, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "mine", page.Posts[0].Content)

	require.NoError(t, env.followSvc.Follow(ctx, alice, "bob"))
	page, err = env.feed.Following(ctx, alice, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
}

func TestFeed_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, &model.Post{AuthorID: "alice", Content: "Quarterly RESULTS are in"})
	env.seed(t, &model.Post{AuthorID: "alice", Content: "badge", Type: model.PostTypeBadge, BadgeInfo: &model.BadgeInfo{BadgeName: "Results Hero"}})
	env.seed(t, &model.Post{AuthorID: "carol", Content: "eng results", Visibility: model.VisibilityDepartment, Department: "Eng"})
	env.seed(t, &model.Post{AuthorID: "alice", Content: "a.b regex chars"})

	page, err := env.feed.Search(ctx, viewerOf("bob", "Sales"), "results", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)

	page, err = env.feed.Search(ctx, viewerOf("bob", "Sales"), "a.b", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)

	_, err = env.feed.Search(ctx, viewerOf("bob", "Sales"), "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFeed_RelatedExcludesSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	src := env.seed(t, &model.Post{AuthorID: "alice", Content: "src", Type: model.PostTypeQuestion, Tags: []string{"bob"}})
	byTag := env.seed(t, &model.Post{AuthorID: "carol", Content: "tag", Type: model.PostTypeShare, Tags: []string{"bob"}})
	byType := env.seed(t, &model.Post{AuthorID: "dave", Content: "type", Type: model.PostTypeQuestion})
	byAuthor := env.seed(t, &model.Post{AuthorID: "alice", Content: "author", Type: model.PostTypeOther})
	env.seed(t, &model.Post{AuthorID: "dave", Content: "unrelated", Type: model.PostTypeOther})

	got, err := env.feed.Related(ctx, viewerOf("bob", "Sales"), src.ID.Hex(), 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []primitive.ObjectID{byTag.ID, byType.ID, byAuthor.ID}, postIDs(got))
	assert.NotContains(t, postIDs(got), src.ID)

	_, err = env.feed.Related(ctx, viewerOf("bob", "Sales"), primitive.NewObjectID().Hex(), 0)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestFeed_TopContributorsAndPopular(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, &model.Post{AuthorID: "alice", Content: "1", Reactions: reactions(1)})
	env.seed(t, &model.Post{AuthorID: "alice", Content: "2"})
	env.seed(t, &model.Post{AuthorID: "bob", Content: "3", Reactions: reactions(5)})
	eng := env.seed(t, &model.Post{AuthorID: "carol", Content: "eng", Visibility: model.VisibilityDepartment, Department: "Eng", Reactions: reactions(9)})

	top, err := env.feed.TopContributors(ctx, 30, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "alice", top[0].AuthorID)
	assert.Equal(t, int64(2), top[0].PostCount)
	assert.Equal(t, "Eng", top[0].Department)

	popular, err := env.feed.PopularInDepartment(ctx, viewerOf("dave", "Eng"), 2)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, eng.ID, popular[0].ID)

	popular, err = env.feed.PopularInDepartment(ctx, viewerOf("bob", "Sales"), 10)
	require.NoError(t, err)
	assert.NotContains(t, postIDs(popular), eng.ID)
}

// Author in Eng posts to Eng; Sales cannot see it, Eng can, engagement adds up.
func TestFeed_DepartmentPostScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.posts.CreatePost(ctx, viewerOf("alice", "Eng"), &dto.CreatePostDTO{
		Content:    "Hello team",
		Visibility: "department",
		Department: "Eng",
	})
	require.NoError(t, err)
	assert.False(t, created.IsPinned)
	assert.Empty(t, created.Comments)
	assert.Empty(t, created.Reactions)
	env.flush()
	assert.Equal(t, []string{"department:Eng"}, env.realtime.channels())

	sales, err := env.feed.Newsfeed(ctx, viewerOf("bob", "Sales"), nil, 1, 10)
	require.NoError(t, err)
	assert.NotContains(t, postIDs(sales.Posts), created.ID)

	carol := viewerOf("carol", "Eng")
	eng, err := env.feed.Newsfeed(ctx, carol, nil, 1, 10)
	require.NoError(t, err)
	assert.Contains(t, postIDs(eng.Posts), created.ID)

	got, err := env.actions.AddReaction(ctx, carol, created.ID.Hex(), "like")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReactionCount)
	got, err = env.actions.AddReaction(ctx, carol, created.ID.Hex(), "love")
	require.NoError(t, err)
	require.Equal(t, 1, got.ReactionCount)
	assert.Equal(t, "love", got.Reactions[0].Type)

	got, err = env.actions.AddComment(ctx, viewerOf("dave", "Eng"), created.ID.Hex(), "nice")
	require.NoError(t, err)
	assert.Len(t, got.Comments, 1)

	stats, err := env.feed.EngagementStats(ctx, carol, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalReactions)
	assert.Equal(t, 1, stats.TotalComments)
	assert.Equal(t, map[string]int{"love": 1}, stats.ReactionBreakdown)
	assert.Equal(t, 2, stats.EngagementRate)
	assert.Equal(t, map[string]int{time.Now().UTC().Format(time.DateOnly): 1}, stats.CommentsByDate)

	_, err = env.feed.EngagementStats(ctx, viewerOf("bob", "Sales"), created.ID.Hex())
	assert.ErrorIs(t, err, ErrForbidden)
}
