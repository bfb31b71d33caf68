package cron

import (
	"fmt"
	log "log/slog"
)

// InitCron registers the directory sync and starts the engine
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return fmt.Errorf("register directory sync %q: %w", mgr.directorySpec, err)
	}
	mgr.Start()
	log.Info("cron jobs running", "entries", len(mgr.engine.Entries()))
	return nil
}
