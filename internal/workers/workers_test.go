package workers

import (
	"bytes"
	"context"
	"testing"
	"time"

	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCleaner struct {
	calls   int
	removed int
}

func (c *countingCleaner) Cleanup() int {
	c.calls++
	return c.removed
}

func TestSubscriptionWorker_RunOnce(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter("test", "info", &buf)

	db := testutil.NewTestDB(t)
	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(24 * time.Hour)

	expired := testutil.CreateUser(t, db, "expired@test.com", models.UserRoleUser, models.SubscriptionPro, &past)
	active := testutil.CreateUser(t, db, "active@test.com", models.UserRoleUser, models.SubscriptionPro, &future)
	lifetime := testutil.CreateUser(t, db, "lifetime@test.com", models.UserRoleUser, models.SubscriptionPro, nil)

	w := NewSubscriptionWorker(db, repositories.NewUserRepository(), 0)
	assert.Equal(t, time.Hour, w.interval)
	assert.Equal(t, int64(1), w.RunOnce(context.Background()))

	subscriptionOf := func(id string) models.SubscriptionTier {
		var stored models.User
		require.NoError(t, db.First(&stored, "id = ?", id).Error)
		return stored.Subscription
	}
	assert.Equal(t, models.SubscriptionFree, subscriptionOf(expired.ID))
	assert.Equal(t, models.SubscriptionPro, subscriptionOf(active.ID))
	assert.Equal(t, models.SubscriptionPro, subscriptionOf(lifetime.ID))

	assert.Contains(t, buf.String(), "worker=subscription")
	assert.Contains(t, buf.String(), "operation=downgrade_expired")

	// второй прогон ничего не трогает
	assert.Equal(t, int64(0), w.RunOnce(context.Background()))
}

func TestSessionWorker_RunOnce(t *testing.T) {
	logger.InitWithWriter("test", "error", &bytes.Buffer{})

	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "user@test.com", models.UserRoleUser, models.SubscriptionFree, nil)

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Session{Token: "old", UserID: user.ID, ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Session{Token: "fresh", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}).Error)

	cleaner := &countingCleaner{removed: 3}
	w := NewSessionWorker(db, repositories.NewSessionRepository(), time.Minute, cleaner)

	assert.Equal(t, int64(1), w.RunOnce(context.Background()))
	assert.Equal(t, 1, cleaner.calls)

	var tokens []string
	require.NoError(t, db.Model(&models.Session{}).Pluck("token", &tokens).Error)
	assert.Equal(t, []string{"fresh"}, tokens)

	assert.Equal(t, int64(0), w.RunOnce(context.Background()))
	assert.Equal(t, 2, cleaner.calls)
}

func TestWorkers_StopOnCancel(t *testing.T) {
	logger.InitWithWriter("test", "error", &bytes.Buffer{})

	db := testutil.NewTestDB(t)
	past := time.Now().UTC().Add(-time.Minute)
	user := testutil.CreateUser(t, db, "expired@test.com", models.UserRoleUser, models.SubscriptionPro, &past)

	ctx, cancel := context.WithCancel(context.Background())
	NewSubscriptionWorker(db, repositories.NewUserRepository(), time.Hour).Start(ctx)

	// первый прогон выполняется сразу при старте
	require.Eventually(t, func() bool {
		var stored models.User
		if err := db.First(&stored, "id = ?", user.ID).Error; err != nil {
			return false
		}
		return stored.Subscription == models.SubscriptionFree
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
}
