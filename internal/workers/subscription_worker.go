package workers

import (
	"context"
	"time"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/repositories"

	"gorm.io/gorm"
)

const subscriptionWorkerName = "subscription"

type SubscriptionWorker struct {
	db       *gorm.DB
	userRepo repositories.UserRepository
	interval time.Duration
}

func NewSubscriptionWorker(db *gorm.DB, userRepo repositories.UserRepository, interval time.Duration) *SubscriptionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SubscriptionWorker{db: db, userRepo: userRepo, interval: interval}
}

// Start запускает фоновую проверку истекших подписок
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.checkExpiredSubscriptions(ctx)
}

func (w *SubscriptionWorker) checkExpiredSubscriptions(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// первый прогон сразу, чтобы не ждать час после рестарта
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce переводит истекшие PRO подписки в FREE
func (w *SubscriptionWorker) RunOnce(ctx context.Context) int64 {
	affected, err := w.userRepo.DowngradeExpired(w.db.WithContext(ctx), time.Now().UTC())
	if err != nil {
		logger.WorkerLog(subscriptionWorkerName, "downgrade_expired", err)
		return 0
	}
	if affected > 0 {
		logger.WorkerLog(subscriptionWorkerName, "downgrade_expired", nil, "users", affected)
	}
	return affected
}
