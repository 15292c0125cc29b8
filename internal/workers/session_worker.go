package workers

import (
	"context"
	"time"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/repositories"

	"gorm.io/gorm"
)

const sessionWorkerName = "session"

// Cleaner - что-то, что периодически чистит память (например, rate limiter)
type Cleaner interface {
	Cleanup() int
}

// SessionWorker удаляет протухшие серверные сессии и заодно чистит лимитеры
type SessionWorker struct {
	db          *gorm.DB
	sessionRepo repositories.SessionRepository
	cleaners    []Cleaner
	interval    time.Duration
}

func NewSessionWorker(db *gorm.DB, sessionRepo repositories.SessionRepository, interval time.Duration, cleaners ...Cleaner) *SessionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionWorker{
		db:          db,
		sessionRepo: sessionRepo,
		cleaners:    cleaners,
		interval:    interval,
	}
}

func (w *SessionWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *SessionWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Session worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce возвращает число удаленных сессий
func (w *SessionWorker) RunOnce(ctx context.Context) int64 {
	deleted, err := w.sessionRepo.DeleteExpired(w.db.WithContext(ctx), time.Now().UTC())
	if err != nil {
		logger.WorkerLog(sessionWorkerName, "delete_expired", err)
		deleted = 0
	} else if deleted > 0 {
		logger.WorkerLog(sessionWorkerName, "delete_expired", nil, "sessions", deleted)
	}

	for _, c := range w.cleaners {
		if n := c.Cleanup(); n > 0 {
			logger.WorkerLog(sessionWorkerName, "limiter_cleanup", nil, "entries", n)
		}
	}
	return deleted
}
