//go:build integration

package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"Townhall/internal/model"
	"Townhall/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// run with: TOWNHALL_TEST_MONGO_URL=mongodb://localhost:27017 go test -tags integration ./internal/pkg/mongo/
func newIntegrationRepo(t *testing.T) repository.PostRepo {
	t.Helper()
	url := os.Getenv("TOWNHALL_TEST_MONGO_URL")
	if url == "" {
		t.Skip("TOWNHALL_TEST_MONGO_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database(fmt.Sprintf("townhall_it_%s", primitive.NewObjectID().Hex()))
	require.NoError(t, EnsurePostIndexes(ctx, db))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return NewPostRepo(db)
}

func seedPost(t *testing.T, repo repository.PostRepo) *model.Post {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	p := &model.Post{
		AuthorID:   "alice",
		Content:    "integration",
		Type:       model.PostTypeShare,
		Visibility: model.VisibilityPublic,
		Images:     []string{},
		Videos:     []string{},
		Tags:       []string{},
		Comments:   []model.Comment{},
		Reactions:  []model.Reaction{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPostRepo_ConcurrentReactionUpsert(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	p := seedPost(t, repo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := fmt.Sprintf("user%02d", i)
			_, err := repo.UpsertReaction(ctx, p.ID, model.Reaction{UserID: uid, Type: "like", CreatedAt: time.Now()})
			assert.NoError(t, err)
			_, err = repo.UpsertReaction(ctx, p.ID, model.Reaction{UserID: uid, Type: "love", CreatedAt: time.Now()})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Reactions, 20)
	seen := map[string]bool{}
	for _, r := range got.Reactions {
		assert.False(t, seen[r.UserID], "one reaction per user")
		seen[r.UserID] = true
		assert.Equal(t, "love", r.Type)
	}
}

func TestPostRepo_CommentReactionUpsert(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	p := seedPost(t, repo)

	c1 := model.Comment{ID: primitive.NewObjectID(), AuthorID: "bob", Content: "c1", CreatedAt: time.Now()}
	c2 := model.Comment{ID: primitive.NewObjectID(), AuthorID: "bob", Content: "c2", CreatedAt: time.Now()}
	_, err := repo.AppendComment(ctx, p.ID, c1)
	require.NoError(t, err)
	_, err = repo.AppendComment(ctx, p.ID, c2)
	require.NoError(t, err)

	_, err = repo.UpsertCommentReaction(ctx, p.ID, c1.ID, model.Reaction{UserID: "carol", Type: "like"})
	require.NoError(t, err)
	got, err := repo.UpsertCommentReaction(ctx, p.ID, c1.ID, model.Reaction{UserID: "carol", Type: "celebrate"})
	require.NoError(t, err)

	require.Len(t, got.FindComment(c1.ID).Reactions, 1)
	assert.Equal(t, "celebrate", got.FindComment(c1.ID).Reactions[0].Type)
	assert.Empty(t, got.FindComment(c2.ID).Reactions)
	assert.Empty(t, got.Reactions)

	got, err = repo.RemoveCommentReaction(ctx, p.ID, c1.ID, "carol")
	require.NoError(t, err)
	assert.Empty(t, got.FindComment(c1.ID).Reactions)

	got, err = repo.UpsertCommentReaction(ctx, p.ID, primitive.NewObjectID(), model.Reaction{UserID: "carol", Type: "like"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostRepo_UpdateFieldsKeepsPin(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	p := seedPost(t, repo)

	_, err := repo.TogglePin(ctx, p.ID)
	require.NoError(t, err)

	content := "edited"
	tags := []string{"carol"}
	before, after, err := repo.UpdateFields(ctx, p.ID, &repository.PostPatch{Content: &content, Tags: &tags})
	require.NoError(t, err)
	assert.Empty(t, before.Tags)
	assert.Equal(t, []string{"carol"}, after.Tags)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPinned)
	assert.Equal(t, "edited", stored.Content)
}

func TestPostRepo_RemoveCommentKeepsReplies(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	p := seedPost(t, repo)

	top := model.Comment{ID: primitive.NewObjectID(), AuthorID: "bob", Content: "top", CreatedAt: time.Now()}
	reply := model.Comment{ID: primitive.NewObjectID(), AuthorID: "carol", Content: "reply", ParentID: &top.ID, CreatedAt: time.Now()}
	_, err := repo.AppendComment(ctx, p.ID, top)
	require.NoError(t, err)
	_, err = repo.AppendComment(ctx, p.ID, reply)
	require.NoError(t, err)

	got, err := repo.RemoveComment(ctx, p.ID, top.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, reply.ID, got.Comments[0].ID)
}
