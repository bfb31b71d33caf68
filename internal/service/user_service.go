package service

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"Townhall/internal/access"
	"Townhall/internal/api/dto"
	"Townhall/internal/model"
	"Townhall/internal/pkg/consts"
	"Townhall/internal/pkg/redis"
	"Townhall/internal/repository"

	"github.com/google/uuid"
)

const directorySyncLockTTL = 10 * time.Minute

// UserService local user directory, kept in step with the HR/ERP system
type UserService interface {
	GetMe(ctx context.Context, viewer *model.Viewer) (*dto.MeDTO, error)
	SyncDirectory(ctx context.Context) (*dto.SyncResultDTO, error)
	UpsertUser(ctx context.Context, user *model.User) error
	DeactivateUser(ctx context.Context, id string) error
}

type UserServiceImpl struct {
	userRepo  repository.UserRepo
	directory DirectoryClient
	viewerSvc ViewerService
}

func NewUserService(userRepo repository.UserRepo, directory DirectoryClient, viewerSvc ViewerService) UserService {
	return &UserServiceImpl{
		userRepo:  userRepo,
		directory: directory,
		viewerSvc: viewerSvc,
	}
}

func (s *UserServiceImpl) GetMe(ctx context.Context, viewer *model.Viewer) (*dto.MeDTO, error) {
	if viewer == nil {
		return nil, UnauthorizedError
	}
	user, err := s.viewerSvc.GetUser(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	return &dto.MeDTO{UserDTO: *toUserDTO(user), IsModerator: access.CanModerate(viewer)}, nil
}

// SyncDirectory full pull of enabled users. Users missing from the pull are
// deactivated; an empty pull is treated as a directory fault and changes nothing.
func (s *UserServiceImpl) SyncDirectory(ctx context.Context) (*dto.SyncResultDTO, error) {
	lockID := uuid.NewString()
	ok, err := redis.TryLock(ctx, consts.DirectorySyncLockKey, lockID, directorySyncLockTTL, 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.InfoContext(ctx, "directory sync already running elsewhere, skipped")
		return &dto.SyncResultDTO{}, nil
	}
	defer redis.UnLock(ctx, consts.DirectorySyncLockKey, lockID)

	dirUsers, err := s.directory.ListAllEnabledUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(dirUsers) == 0 {
		log.WarnContext(ctx, "directory returned no enabled users, sync aborted")
		return &dto.SyncResultDTO{}, nil
	}

	users := make([]*model.User, 0, len(dirUsers))
	ids := make([]string, 0, len(dirUsers))
	for i := range dirUsers {
		u := dirUsers[i].ToUser()
		if u.ID == "" {
			continue
		}
		users = append(users, u)
		ids = append(ids, u.ID)
	}
	if err = s.userRepo.UpsertUsers(ctx, users); err != nil {
		return nil, err
	}
	deactivated, err := s.userRepo.DeactivateMissing(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.viewerSvc.Invalidate(ctx, ids...)

	log.InfoContext(ctx, "directory sync finished", "upserted", len(users), "deactivated", deactivated)
	return &dto.SyncResultDTO{Upserted: len(users), Deactivated: deactivated}, nil
}

func (s *UserServiceImpl) UpsertUser(ctx context.Context, user *model.User) error {
	if user == nil || user.ID == "" {
		return ErrParamInvalid
	}
	if err := s.userRepo.UpsertUser(ctx, user); err != nil {
		return err
	}
	s.viewerSvc.Invalidate(ctx, user.ID)
	return nil
}

func (s *UserServiceImpl) DeactivateUser(ctx context.Context, id string) error {
	if id == "" {
		return ErrParamInvalid
	}
	if err := s.userRepo.DeactivateUser(ctx, id); err != nil {
		return err
	}
	s.viewerSvc.Invalidate(ctx, id)
	return nil
}
