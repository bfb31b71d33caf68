package job

import (
	"context"
	log "log/slog"
	"time"

	"Townhall/internal/pkg/logger"
	"Townhall/internal/service"

	"github.com/google/uuid"
)

const directorySyncTimeout = 5 * time.Minute

// DirectorySyncJob pulls every enabled user from the HR directory and
// deactivates the local users that disappeared from it
type DirectorySyncJob struct {
	userSvc service.UserService
}

func NewDirectorySyncJob(userSvc service.UserService) *DirectorySyncJob {
	return &DirectorySyncJob{userSvc: userSvc}
}

func (s *DirectorySyncJob) Run() {
	traceID := "job-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)
	ctx, cancel := context.WithTimeout(ctx, directorySyncTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.userSvc.SyncDirectory(ctx)
	if err != nil {
		log.ErrorContext(ctx, "directory sync failed", "err", err)
		return
	}
	log.InfoContext(ctx, "directory sync job done",
		"upserted", result.Upserted,
		"deactivated", result.Deactivated,
		"latency", time.Since(start),
	)
}
