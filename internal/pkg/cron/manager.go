package cron

import (
	log "log/slog"

	"Townhall/internal/job"

	"github.com/robfig/cron/v3"
)

const DefaultDirectorySyncSpec = "0 0 6 * * *"

type Manager struct {
	engine           *cron.Cron
	directorySyncJob *job.DirectorySyncJob
	directorySpec    string
}

// NewCronManager spec uses the six-field (with seconds) cron syntax
func NewCronManager(directorySyncJob *job.DirectorySyncJob, directorySpec string) *Manager {
	if directorySpec == "" {
		directorySpec = DefaultDirectorySyncSpec
	}
	return &Manager{
		engine: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		directorySyncJob: directorySyncJob,
		directorySpec:    directorySpec,
	}
}

func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.directorySpec, s.directorySyncJob); err != nil {
		return err
	}
	log.Info("cron job registered", "job", "directory_sync", "spec", s.directorySpec)
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron engine started")
	s.engine.Start()
}

// Stop waits for running jobs to finish
func (s *Manager) Stop() {
	log.Info("Cron engine stopping")
	<-s.engine.Stop().Done()
}
