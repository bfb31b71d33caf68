package mongo

import (
	"context"
	"errors"
	"time"

	"Townhall/internal/model"
	"Townhall/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const PostCollection = "posts"

type postRepoImpl struct {
	col *mongo.Collection
}

func NewPostRepo(db *mongo.Database) repository.PostRepo {
	return &postRepoImpl{
		col: db.Collection(PostCollection),
	}
}

// Create inserts a new post, assigning an id when missing
func (s *postRepoImpl) Create(ctx context.Context, post *model.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, post)
	return err
}

func (s *postRepoImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var post model.Post
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Find score ordering needs a computed field, so it runs as an aggregation
func (s *postRepoImpl) Find(ctx context.Context, q *repository.PostQuery) ([]*model.Post, error) {
	var (
		cursor *mongo.Cursor
		err    error
	)
	if q.SortField == repository.SortScore {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: BuildPostFilter(q)}},
			{{Key: "$addFields", Value: bson.M{"score": scoreField}}},
			{{Key: "$sort", Value: BuildPostSort(q)}},
		}
		if q.Skip > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Skip}})
		}
		if q.Limit > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{"score": 0}}})
		cursor, err = s.col.Aggregate(ctx, pipeline)
	} else {
		opts := options.Find().
			SetSort(BuildPostSort(q)).
			SetSkip(q.Skip)
		if q.Limit > 0 {
			opts.SetLimit(q.Limit)
		}
		cursor, err = s.col.Find(ctx, BuildPostFilter(q), opts)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*model.Post, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *postRepoImpl) Count(ctx context.Context, q *repository.PostQuery) (int64, error) {
	return s.col.CountDocuments(ctx, BuildPostFilter(q))
}

// TopContributors groups posts since the window start by author
func (s *postRepoImpl) TopContributors(ctx context.Context, since time.Time, limit int64) ([]*repository.ContributorStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":             "$author_id",
			"post_count":      bson.M{"$sum": 1},
			"total_reactions": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$reactions", bson.A{}}}}},
			"total_comments":  bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$comments", bson.A{}}}}},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"total_engagement": bson.M{"$add": bson.A{"$total_reactions", "$total_comments"}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "post_count", Value: -1},
			{Key: "total_engagement", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	stats := make([]*repository.ContributorStat, 0)
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// UpdateFields sets only the patched fields. The stored post is read back as
// it was before the update and the patch is replayed on it for the result.
func (s *postRepoImpl) UpdateFields(ctx context.Context, id primitive.ObjectID, patch *repository.PostPatch) (*model.Post, *model.Post, error) {
	if patch.UpdatedAt.IsZero() {
		stamped := *patch
		stamped.UpdatedAt = time.Now().UTC()
		patch = &stamped
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	before, err := s.decodeUpdated(s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, BuildPostPatchUpdate(patch), opts))
	if err != nil || before == nil {
		return nil, nil, err
	}
	after := before.Clone()
	patch.Apply(after)
	return before, after, nil
}

// BuildPostPatchUpdate $set/$unset document for a patch; comments and
// reactions are never part of it
func BuildPostPatchUpdate(patch *repository.PostPatch) bson.M {
	set := bson.M{}
	unset := bson.M{}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Images != nil {
		set["images"] = nonNil(*patch.Images)
	}
	if patch.Videos != nil {
		set["videos"] = nonNil(*patch.Videos)
	}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}
	if patch.Visibility != nil {
		set["visibility"] = *patch.Visibility
	}
	if patch.Department != nil {
		if *patch.Department != "" {
			set["department"] = *patch.Department
		} else {
			unset["department"] = ""
		}
	}
	if patch.Tags != nil {
		set["tags"] = nonNil(*patch.Tags)
	}
	if patch.SetBadgeInfo {
		if patch.BadgeInfo != nil {
			set["badge_info"] = patch.BadgeInfo
		} else {
			unset["badge_info"] = ""
		}
	}
	if patch.IsPinned != nil {
		set["is_pinned"] = *patch.IsPinned
	}
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	set["updated_at"] = updatedAt

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (s *postRepoImpl) TogglePin(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	update := bson.A{
		bson.M{"$set": bson.M{
			"is_pinned":  bson.M{"$not": bson.A{"$is_pinned"}},
			"updated_at": time.Now(),
		}},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (s *postRepoImpl) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// UpsertReaction replaces the user's reaction in place or appends it, in one update
func (s *postRepoImpl) UpsertReaction(ctx context.Context, postID primitive.ObjectID, reaction model.Reaction) (*model.Post, error) {
	update := bson.A{
		bson.M{"$set": bson.M{"reactions": ReactionUpsertExpr("$reactions", reaction)}},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": postID}, update)
}

func (s *postRepoImpl) RemoveReaction(ctx context.Context, postID primitive.ObjectID, userID string) (*model.Post, error) {
	update := bson.M{"$pull": bson.M{"reactions": bson.M{"user_id": userID}}}
	return s.findOneAndUpdate(ctx, bson.M{"_id": postID}, update)
}

// AppendComment a reply only lands when its parent is a top-level comment of the same post
func (s *postRepoImpl) AppendComment(ctx context.Context, postID primitive.ObjectID, comment model.Comment) (*model.Post, error) {
	if comment.Reactions == nil {
		comment.Reactions = []model.Reaction{}
	}
	filter := bson.M{"_id": postID}
	if comment.ParentID != nil {
		filter["comments"] = bson.M{"$elemMatch": bson.M{
			"_id":       *comment.ParentID,
			"parent_id": bson.M{"$exists": false},
		}}
	}
	update := bson.M{"$push": bson.M{"comments": comment}}
	return s.findOneAndUpdate(ctx, filter, update)
}

// RemoveComment pulls that one comment; replies to it stay
func (s *postRepoImpl) RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) (*model.Post, error) {
	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}}
	return s.findOneAndUpdate(ctx, filter, update)
}

func (s *postRepoImpl) UpsertCommentReaction(ctx context.Context, postID, commentID primitive.ObjectID, reaction model.Reaction) (*model.Post, error) {
	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.A{
		bson.M{"$set": bson.M{"comments": bson.M{"$map": bson.M{
			"input": "$comments",
			"as":    "c",
			"in": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$$c._id", commentID}},
				bson.M{"$mergeObjects": bson.A{
					"$$c",
					bson.M{"reactions": ReactionUpsertExpr("$$c.reactions", reaction)},
				}},
				"$$c",
			}},
		}}}},
	}
	return s.findOneAndUpdate(ctx, filter, update)
}

func (s *postRepoImpl) RemoveCommentReaction(ctx context.Context, postID, commentID primitive.ObjectID, userID string) (*model.Post, error) {
	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.M{"$pull": bson.M{"comments.$[c].reactions": bson.M{"user_id": userID}}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"c._id": commentID}}})
	return s.decodeUpdated(s.col.FindOneAndUpdate(ctx, filter, update, opts))
}

func (s *postRepoImpl) findOneAndUpdate(ctx context.Context, filter bson.M, update interface{}) (*model.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return s.decodeUpdated(s.col.FindOneAndUpdate(ctx, filter, update, opts))
}

func (s *postRepoImpl) decodeUpdated(res *mongo.SingleResult) (*model.Post, error) {
	var post model.Post
	if err := res.Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ReactionUpsertExpr aggregation expression over the reaction array at path:
// the entry of reaction.UserID gets the new type and time, otherwise the
// reaction is appended
func ReactionUpsertExpr(path string, reaction model.Reaction) bson.M {
	current := bson.M{"$ifNull": bson.A{path, bson.A{}}}
	uid := bson.M{"$literal": reaction.UserID}
	return bson.M{"$cond": bson.A{
		bson.M{"$in": bson.A{uid, bson.M{"$map": bson.M{"input": current, "as": "r", "in": "$$r.user_id"}}}},
		bson.M{"$map": bson.M{
			"input": current,
			"as":    "r",
			"in": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$$r.user_id", uid}},
				bson.M{"$mergeObjects": bson.A{"$$r", bson.M{
					"type":       bson.M{"$literal": reaction.Type},
					"created_at": reaction.CreatedAt,
				}}},
				"$$r",
			}},
		}},
		bson.M{"$concatArrays": bson.A{current, bson.A{bson.M{
			"user_id":    bson.M{"$literal": reaction.UserID},
			"type":       bson.M{"$literal": reaction.Type},
			"created_at": reaction.CreatedAt,
		}}}},
	}}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
