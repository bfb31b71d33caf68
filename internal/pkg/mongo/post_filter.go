package mongo

import (
	"regexp"

	"Townhall/internal/model"
	"Townhall/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
)

// VisibilityMatch public posts, plus department posts of the viewer's department
func VisibilityMatch(scope repository.Scope, viewer *model.Viewer) bson.M {
	switch scope {
	case repository.ScopeAll:
		return nil
	case repository.ScopePublic:
		return bson.M{"visibility": model.VisibilityPublic}
	}
	if viewer == nil || viewer.Department == "" {
		return bson.M{"visibility": model.VisibilityPublic}
	}
	return bson.M{
		"$or": bson.A{
			bson.M{"visibility": model.VisibilityPublic},
			bson.M{"visibility": model.VisibilityDepartment, "department": viewer.Department},
		},
	}
}

// BuildPostFilter translates q into a Mongo filter, mirroring PostQuery.Match
func BuildPostFilter(q *repository.PostQuery) bson.M {
	and := bson.A{}
	if vis := VisibilityMatch(q.Scope, q.Viewer); vis != nil {
		and = append(and, vis)
	}
	if q.Type != "" {
		and = append(and, bson.M{"type": q.Type})
	}
	if q.AuthorID != "" {
		and = append(and, bson.M{"author_id": q.AuthorID})
	}
	if q.AuthorIDs != nil {
		and = append(and, bson.M{"author_id": bson.M{"$in": q.AuthorIDs}})
	}
	if q.Department != "" {
		and = append(and, bson.M{"department": q.Department})
	}
	if q.PinnedOnly {
		and = append(and, bson.M{"is_pinned": true})
	}
	if !q.Since.IsZero() {
		and = append(and, bson.M{"created_at": bson.M{"$gte": q.Since}})
	}
	if !q.ExcludeID.IsZero() {
		and = append(and, bson.M{"_id": bson.M{"$ne": q.ExcludeID}})
	}
	if q.Keyword != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(q.Keyword), "$options": "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"content": re},
			bson.M{"badge_info.badge_name": re},
			bson.M{"badge_info.message": re},
		}})
	}
	if q.Related != nil {
		and = append(and, relatedMatch(q.Related))
	}

	switch len(and) {
	case 0:
		return bson.M{}
	case 1:
		return and[0].(bson.M)
	}
	return bson.M{"$and": and}
}

func relatedMatch(r *repository.RelatedMatch) bson.M {
	or := bson.A{}
	if len(r.Tags) > 0 {
		or = append(or, bson.M{"tags": bson.M{"$in": r.Tags}})
	}
	if r.Department != "" {
		or = append(or, bson.M{"department": r.Department})
	}
	if r.Type != "" {
		or = append(or, bson.M{"type": r.Type})
	}
	if r.AuthorID != "" {
		or = append(or, bson.M{"author_id": r.AuthorID})
	}
	if len(or) == 0 {
		// nothing to relate on
		return bson.M{"_id": bson.M{"$exists": false}}
	}
	return bson.M{"$or": or}
}

// BuildPostSort sort document for a query; ties broken by _id
func BuildPostSort(q *repository.PostQuery) bson.D {
	dir := -1
	if q.SortAsc {
		dir = 1
	}
	switch q.SortField {
	case repository.SortScore:
		return bson.D{{Key: "score", Value: dir}, {Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}
	case repository.SortUpdatedAt:
		return bson.D{{Key: "updated_at", Value: dir}, {Key: "_id", Value: dir}}
	}
	return bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}
}

// scoreField reactions + comments
var scoreField = bson.M{"$add": bson.A{
	bson.M{"$size": bson.M{"$ifNull": bson.A{"$reactions", bson.A{}}}},
	bson.M{"$size": bson.M{"$ifNull": bson.A{"$comments", bson.A{}}}},
}}
