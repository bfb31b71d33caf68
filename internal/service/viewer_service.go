package service

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"Townhall/internal/access"
	"Townhall/internal/model"
	"Townhall/internal/pkg/consts"
	"Townhall/internal/pkg/erp"
	"Townhall/internal/pkg/redis"
	"Townhall/internal/repository"

	"github.com/goccy/go-json"
)

const viewerCacheTTL = 5 * time.Minute

// DirectoryClient HR/ERP directory lookups
type DirectoryClient interface {
	GetUser(ctx context.Context, id string) (*erp.DirectoryUser, error)
	ListAllEnabledUsers(ctx context.Context) ([]erp.DirectoryUser, error)
}

// ViewerService resolves an authenticated user id into a Viewer
type ViewerService interface {
	Resolve(ctx context.Context, userID string) (*model.Viewer, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	Invalidate(ctx context.Context, userIDs ...string)
}

type viewerServiceImpl struct {
	userRepo  repository.UserRepo
	directory DirectoryClient
	policy    *access.Policy
}

func NewViewerService(userRepo repository.UserRepo, directory DirectoryClient, policy *access.Policy) ViewerService {
	return &viewerServiceImpl{userRepo: userRepo, directory: directory, policy: policy}
}

func (s *viewerServiceImpl) Resolve(ctx context.Context, userID string) (*model.Viewer, error) {
	if userID == "" {
		return nil, UnauthorizedError
	}
	key := consts.ViewerCacheKey + userID
	if cached, err := redis.GetValue(ctx, key); err != nil {
		log.WarnContext(ctx, "viewer cache read failed", "user_id", userID, "err", err)
	} else if cached != "" {
		viewer := &model.Viewer{}
		if err = json.Unmarshal([]byte(cached), viewer); err == nil {
			return viewer, nil
		}
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, UnauthorizedError
	}

	viewer := s.policy.Viewer(user)
	if raw, err := json.Marshal(viewer); err == nil {
		if err = redis.SetWithExpiration(ctx, key, string(raw), viewerCacheTTL); err != nil {
			log.WarnContext(ctx, "viewer cache write failed", "user_id", userID, "err", err)
		}
	}
	return viewer, nil
}

// GetUser local directory first, then the ERP; ERP hits are stored locally
func (s *viewerServiceImpl) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	du, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, erp.ErrUserNotFound) {
			return nil, UnauthorizedError
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	user = du.ToUser()
	if err = s.userRepo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "user imported from directory", "user_id", user.ID)
	return user, nil
}

func (s *viewerServiceImpl) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, consts.ViewerCacheKey+id)
	}
	if err := redis.DeleteKey(ctx, keys...); err != nil {
		log.WarnContext(ctx, "viewer cache evict failed", "err", err)
	}
}
