package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdminService(relayer *fakeRelayer) AdminService {
	return NewAdminService(
		repositories.NewUserRepository(),
		repositories.NewChatbotRepository(),
		repositories.NewConversationRepository(),
		repositories.NewDownloadRepository(),
		relayer,
		"",
	)
}

func TestAdminService_Users(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newTestAdminService(&fakeRelayer{})

	admin := testutil.CreateUser(t, db, "admin@test.com", models.UserRoleAdmin, models.SubscriptionFree, nil)
	user := testutil.CreateUser(t, db, "alice@test.com", models.UserRoleUser, models.SubscriptionFree, nil)
	testutil.CreateUser(t, db, "bob@test.com", models.UserRoleUser, models.SubscriptionFree, nil)

	list, err := svc.ListUsers(db, &dto.UserListQuery{Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, 1, list.Page)

	list, err = svc.ListUsers(db, &dto.UserListQuery{Search: "ALICE"})
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, user.ID, list.Users[0].ID)

	t.Run("grant pro", func(t *testing.T) {
		pro := "pro"
		endsAt := time.Now().Add(30 * 24 * time.Hour)
		updated, err := svc.UpdateUser(db, admin.ID, user.ID, &dto.AdminUpdateUserRequest{Subscription: &pro, SubscriptionEndsAt: &endsAt})
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionPro, updated.Subscription)
		assert.True(t, updated.HasActivePro)

		updated, err = svc.UpdateUser(db, admin.ID, user.ID, &dto.AdminUpdateUserRequest{ClearSubscriptionEnd: true})
		require.NoError(t, err)
		assert.Nil(t, updated.SubscriptionEndsAt)
		assert.True(t, updated.HasActivePro)
	})

	t.Run("cannot demote self", func(t *testing.T) {
		role := "USER"
		_, err := svc.UpdateUser(db, admin.ID, admin.ID, &dto.AdminUpdateUserRequest{Role: &role})
		requireAppError(t, err, http.StatusBadRequest)

		var stored models.User
		require.NoError(t, db.First(&stored, "id = ?", admin.ID).Error)
		assert.Equal(t, models.UserRoleAdmin, stored.Role)
	})

	t.Run("cannot delete self", func(t *testing.T) {
		requireAppError(t, svc.DeleteUser(db, admin.ID, admin.ID), http.StatusBadRequest)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.GetUser(db, "garbage")
		requireAppError(t, err, http.StatusNotFound)
		requireAppError(t, svc.DeleteUser(db, admin.ID, "00000000-0000-0000-0000-000000000000"), http.StatusNotFound)
	})

	require.NoError(t, svc.DeleteUser(db, admin.ID, user.ID))
	_, err = svc.GetUser(db, user.ID)
	requireAppError(t, err, http.StatusNotFound)
}

func TestAdminService_Stats(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newTestAdminService(&fakeRelayer{})
	convRepo := repositories.NewConversationRepository()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)
	owner := testutil.CreateUser(t, db, "owner@test.com", models.UserRoleAdmin, models.SubscriptionFree, nil)
	testutil.CreateUser(t, db, "pro@test.com", models.UserRoleUser, models.SubscriptionPro, &future)
	testutil.CreateUser(t, db, "lapsed@test.com", models.UserRoleUser, models.SubscriptionPro, &past)

	bot := testutil.CreateChatbot(t, db, owner.ID, "")
	conv := &models.Conversation{ChatbotID: bot.ID}
	require.NoError(t, convRepo.Create(db, conv))
	for _, text := range []string{"hi", "hello", "bye"} {
		_, err := convRepo.AppendMessage(db, conv.ID, text, true)
		require.NoError(t, err)
	}

	require.NoError(t, db.Create(&models.Download{
		Title: "Guide", FileName: "guide.pdf", FilePath: "guide.pdf", AccessLevel: models.AccessPublic, DownloadCount: 7,
	}).Error)

	stats, err := svc.GetStats(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Users)
	assert.Equal(t, int64(1), stats.ProUsers)
	assert.Equal(t, int64(1), stats.Conversations)
	assert.Equal(t, int64(3), stats.Messages)
	assert.Equal(t, int64(1), stats.Downloads)
	assert.Equal(t, int64(7), stats.TotalDownloads)
}

func TestAdminService_Webhooks(t *testing.T) {
	db := testutil.NewTestDB(t)
	relayer := &fakeRelayer{}
	svc := newTestAdminService(relayer)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner@test.com", models.UserRoleUser, models.SubscriptionFree, nil)
	bot := testutil.CreateChatbot(t, db, owner.ID, "https://hooks.example.com/a")
	noURL := testutil.CreateChatbot(t, db, owner.ID, "")

	hooks, err := svc.ListWebhooks(db)
	require.NoError(t, err)
	assert.Len(t, hooks, 2)

	newURL := "https://hooks.example.com/b"
	off := false
	hook, err := svc.UpdateWebhook(db, bot.ID, &dto.UpdateWebhookRequest{WebhookURL: &newURL, IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, newURL, hook.WebhookURL)
	assert.False(t, hook.IsActive)
	assert.Equal(t, owner.ID, hook.OwnerID)

	_, err = svc.UpdateWebhook(db, "garbage", &dto.UpdateWebhookRequest{IsActive: &off})
	requireAppError(t, err, http.StatusNotFound)

	result, err := svc.TestWebhook(ctx, db, bot.ID)
	require.NoError(t, err)
	assert.True(t, result.Reachable)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	relayer.status = http.StatusBadGateway
	result, err = svc.TestWebhook(ctx, db, bot.ID)
	require.NoError(t, err)
	assert.False(t, result.Reachable)
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)

	relayer.err = errWebhookDown
	result, err = svc.TestWebhook(ctx, db, bot.ID)
	require.NoError(t, err)
	assert.False(t, result.Reachable)
	assert.Equal(t, errWebhookDown.Error(), result.Error)

	// без URL и без глобального вебхука
	result, err = svc.TestWebhook(ctx, db, noURL.ID)
	require.NoError(t, err)
	assert.False(t, result.Reachable)
	assert.NotEmpty(t, result.Error)
}
