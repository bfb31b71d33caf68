package repository

import (
	"Townhall/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo interface {
	GetUserById(ctx context.Context, id string) (*model.User, error)
	GetActiveUsersByIds(ctx context.Context, ids []string) ([]*model.User, error)
	UpsertUser(ctx context.Context, user *model.User) error
	UpsertUsers(ctx context.Context, users []*model.User) error
	DeactivateUser(ctx context.Context, id string) error
	DeactivateMissing(ctx context.Context, activeIDs []string) (int64, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

// GetUserById nil when the user is unknown
func (s *UserRepoImpl) GetUserById(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	result := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(user)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return user, nil
}

func (s *UserRepoImpl) GetActiveUsersByIds(ctx context.Context, ids []string) ([]*model.User, error) {
	users := make([]*model.User, 0)
	if len(ids) == 0 {
		return users, nil
	}
	result := s.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

var userUpsertColumns = []string{"email", "full_name", "department", "job_title", "avatar_url", "roles", "active", "updated_at"}

func (s *UserRepoImpl) UpsertUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(userUpsertColumns),
		}).
		Create(user).Error
}

func (s *UserRepoImpl) UpsertUsers(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(userUpsertColumns),
		}).
		CreateInBatches(users, 200).Error
}

func (s *UserRepoImpl) DeactivateUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// DeactivateMissing marks every active user not in activeIDs inactive
func (s *UserRepoImpl) DeactivateMissing(ctx context.Context, activeIDs []string) (int64, error) {
	tx := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("active = ?", true)
	if len(activeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", activeIDs)
	}
	result := tx.Update("active", false)
	return result.RowsAffected, result.Error
}
