package repository

import (
	"Townhall/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserFollowRepo interface {
	GetUserFollowingIDs(ctx context.Context, userID string) ([]string, error)
	GetUserFollowing(ctx context.Context, userID string, limit, offset int) ([]*model.UserFollow, error)
	GetUserFollowingCount(ctx context.Context, userID string) (int64, error)
	GetUserFollow(ctx context.Context, userID string, followingID string) (*model.UserFollow, error)
	CreateUserFollow(ctx context.Context, userFollow *model.UserFollow) error
	DeleteUserFollow(ctx context.Context, userFollow *model.UserFollow) error
}

type UserFollowRepoImpl struct {
	db *gorm.DB
}

func NewUserFollowRepo(db *gorm.DB) UserFollowRepo {
	return &UserFollowRepoImpl{db: db}
}

// GetUserFollowingIDs full following set of a user
func (s *UserFollowRepoImpl) GetUserFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ids := make([]string, 0)
	result := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}

// GetUserFollowing paged following list
func (s *UserFollowRepoImpl) GetUserFollowing(ctx context.Context, userID string, limit, offset int) ([]*model.UserFollow, error) {
	var userFollows []*model.UserFollow
	result := s.db.WithContext(ctx).
		Where("follower_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&userFollows)

	if result.Error != nil {
		return nil, result.Error
	}
	return userFollows, nil
}

func (s *UserFollowRepoImpl) GetUserFollowingCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where("follower_id = ?", userID).
		Count(&count)

	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (s *UserFollowRepoImpl) GetUserFollow(ctx context.Context, userID string, followingID string) (*model.UserFollow, error) {
	var userFollow model.UserFollow
	result := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", userID, followingID).
		First(&userFollow)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &userFollow, nil
}

// CreateUserFollow a duplicate surfaces as the driver's duplicate key error
func (s *UserFollowRepoImpl) CreateUserFollow(ctx context.Context, userFollow *model.UserFollow) error {
	return s.db.WithContext(ctx).Create(userFollow).Error
}

func (s *UserFollowRepoImpl) DeleteUserFollow(ctx context.Context, userFollow *model.UserFollow) error {
	return s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", userFollow.FollowerID, userFollow.FollowingID).
		Delete(&model.UserFollow{}).Error
}
