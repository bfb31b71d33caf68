package service

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"Townhall/internal/api/dto"
	"Townhall/internal/model"
	"Townhall/internal/pkg/consts"
	"Townhall/internal/pkg/redis"
	"Townhall/internal/pkg/util"
	"Townhall/internal/repository"

	"github.com/go-sql-driver/mysql"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

const (
	MaxFollowingCount  = 1000
	followingCacheTTL  = 10 * time.Minute
	mysqlDuplicateCode = 1062
)

type UserFollowService interface {
	Follow(ctx context.Context, viewer *model.Viewer, targetID string) error
	Unfollow(ctx context.Context, viewer *model.Viewer, targetID string) error
	GetFollowing(ctx context.Context, viewer *model.Viewer, page, pageSize int) (*dto.UserFollowListDTO, error)
	// GetFollowingIDs the social graph read used by the following feed
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
}

type UserFollowServiceImpl struct {
	userFollowRepo repository.UserFollowRepo
	userRepo       repository.UserRepo
}

func NewUserFollowService(userFollowRepo repository.UserFollowRepo, userRepo repository.UserRepo) UserFollowService {
	return &UserFollowServiceImpl{userFollowRepo: userFollowRepo, userRepo: userRepo}
}

func (s *UserFollowServiceImpl) Follow(ctx context.Context, viewer *model.Viewer, targetID string) error {
	if viewer == nil {
		return UnauthorizedError
	}
	if targetID == "" {
		return ErrParamInvalid
	}
	if targetID == viewer.ID {
		return ErrUserFollowSelf
	}
	users, err := s.userRepo.GetActiveUsersByIds(ctx, []string{targetID})
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return ErrUserNotFound
	}

	existing, err := s.userFollowRepo.GetUserFollow(ctx, viewer.ID, targetID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserFollowExist
	}
	count, err := s.userFollowRepo.GetUserFollowingCount(ctx, viewer.ID)
	if err != nil {
		return err
	}
	if count >= MaxFollowingCount {
		return ErrUserFollowLimit
	}

	err = s.userFollowRepo.CreateUserFollow(ctx, &model.UserFollow{
		FollowerID:  viewer.ID,
		FollowingID: targetID,
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrUserFollowExist
		}
		return err
	}
	s.evict(ctx, viewer.ID)
	return nil
}

func (s *UserFollowServiceImpl) Unfollow(ctx context.Context, viewer *model.Viewer, targetID string) error {
	if viewer == nil {
		return UnauthorizedError
	}
	if targetID == "" {
		return ErrParamInvalid
	}
	err := s.userFollowRepo.DeleteUserFollow(ctx, &model.UserFollow{
		FollowerID:  viewer.ID,
		FollowingID: targetID,
	})
	if err != nil {
		return err
	}
	s.evict(ctx, viewer.ID)
	return nil
}

func (s *UserFollowServiceImpl) GetFollowing(ctx context.Context, viewer *model.Viewer, page, pageSize int) (*dto.UserFollowListDTO, error) {
	if viewer == nil {
		return nil, UnauthorizedError
	}
	page, pageSize = util.NormalizePage(page, pageSize, 20, 100)

	follows, err := s.userFollowRepo.GetUserFollowing(ctx, viewer.ID, pageSize, int(util.Offset(page, pageSize)))
	if err != nil {
		return nil, err
	}
	total, err := s.userFollowRepo.GetUserFollowingCount(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.FollowingID)
	}
	users, err := s.userRepo.GetActiveUsersByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	list := &dto.UserFollowListDTO{Users: make([]*dto.UserFollowDTO, 0, len(follows)), Total: total}
	for _, f := range follows {
		item := &dto.UserFollowDTO{FollowedAt: f.CreatedAt}
		if u, ok := byID[f.FollowingID]; ok {
			item.UserDTO = *toUserDTO(u)
		} else {
			item.ID = f.FollowingID
		}
		list.Users = append(list.Users, item)
	}
	return list, nil
}

// GetFollowingIDs cached as a json list; a cache failure falls through to the database
func (s *UserFollowServiceImpl) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	key := consts.UserFollowingKey + userID
	if cached, err := redis.GetValue(ctx, key); err == nil && cached != "" {
		var ids []string
		if err = json.Unmarshal([]byte(cached), &ids); err == nil {
			return ids, nil
		}
		log.WarnContext(ctx, "bad following cache entry", "key", key, "err", err)
	}

	ids, err := s.userFollowRepo.GetUserFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(ids); err == nil {
		if err = redis.SetWithExpiration(ctx, key, string(raw), followingCacheTTL); err != nil {
			log.WarnContext(ctx, "cache following ids failed", "key", key, "err", err)
		}
	}
	return ids, nil
}

func (s *UserFollowServiceImpl) evict(ctx context.Context, userID string) {
	if err := redis.DeleteKey(ctx, consts.UserFollowingKey+userID); err != nil {
		log.WarnContext(ctx, "evict following cache failed", "user_id", userID, "err", err)
	}
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateCode {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
