package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/phytopro-backend/pkg/logger"
)

type expiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewSessionCleanupJob purges expired login sessions. Lookups already ignore
// them; this only reclaims rows.
func NewSessionCleanupJob(logg *logger.Logger, sessions expiredSessionDeleter) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &sessionCleanupJob{logg: logg, sessions: sessions}, nil
}

type sessionCleanupJob struct {
	logg     *logger.Logger
	sessions expiredSessionDeleter
}

func (j *sessionCleanupJob) Name() string { return "session-cleanup" }

func (j *sessionCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_deleted", deleted), "expired sessions purged")
	return nil
}
