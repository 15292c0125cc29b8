package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"chatsaas_backend/internal/access"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testApology = "Sorry, try again later."

func newTestChatService(relayer *fakeRelayer) ChatService {
	return NewChatService(
		repositories.NewChatbotRepository(),
		repositories.NewConversationRepository(),
		access.NewPolicy(true),
		relayer,
		ChatConfig{
			DefaultWebhookURL: "http://default.hook",
			ApologyMessage:    testApology,
			HistoryLimit:      10,
		},
	)
}

func setupChat(t *testing.T) (*gorm.DB, *models.User, *models.Chatbot) {
	t.Helper()
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@test.com", models.UserRoleUser, models.SubscriptionFree, nil)
	bot := testutil.CreateChatbot(t, db, owner.ID, "http://hook.local/chat")
	return db, owner, bot
}

func TestSendMessage_AnonymousWebhookFailureStoresApology(t *testing.T) {
	db, _, bot := setupChat(t)
	relayer := &fakeRelayer{err: errWebhookDown}
	svc := newTestChatService(relayer)

	resp, err := svc.SendMessage(context.Background(), db, nil, &dto.ChatRequest{
		ChatbotID: bot.ID,
		Message:   "Hello there",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, testApology, resp.Content)
	assert.NotEmpty(t, resp.ConversationID)

	conv, err := repositories.NewConversationRepository().FindByID(db, resp.ConversationID)
	require.NoError(t, err)
	assert.Nil(t, conv.UserID)
	require.NotNil(t, conv.Title)
	assert.Equal(t, "Hello there", *conv.Title)

	messages, err := repositories.NewConversationRepository().FindMessages(db, resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].IsFromUser)
	assert.Equal(t, "Hello there", messages[0].Content)
	assert.False(t, messages[1].IsFromUser)
	assert.Equal(t, testApology, messages[1].Content)
	assert.Equal(t, resp.MessageID, messages[1].ID)

	calls := relayer.calls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].UserID)
	assert.Nil(t, calls[0].User)
}

func TestSendMessage_ReusesConversationAndSendsHistory(t *testing.T) {
	db, owner, bot := setupChat(t)
	relayer := &fakeRelayer{reply: "Hi! How can I help?"}
	svc := newTestChatService(relayer)
	identity := access.IdentityFromUser(owner)

	first, err := svc.SendMessage(context.Background(), db, identity, &dto.ChatRequest{ChatbotID: bot.ID, Message: "first"})
	require.NoError(t, err)
	assert.Equal(t, "Hi! How can I help?", first.Content)

	second, err := svc.SendMessage(context.Background(), db, identity, &dto.ChatRequest{
		ChatbotID:      bot.ID,
		Message:        "second",
		ConversationID: first.ConversationID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	calls := relayer.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "second", calls[1].Message)
	require.Len(t, calls[1].History, 2)
	assert.Equal(t, "user", calls[1].History[0].Role)
	assert.Equal(t, "first", calls[1].History[0].Content)
	assert.Equal(t, "assistant", calls[1].History[1].Role)
	require.NotNil(t, calls[1].User)
	assert.Equal(t, owner.Email, calls[1].User.Email)

	messages, err := svc.ListMessages(db, owner.ID, first.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	for i, m := range messages {
		assert.Equal(t, i%2 == 0, m.IsFromUser, "message %d", i)
	}
}

func TestSendMessage_ForeignConversationStartsNewOne(t *testing.T) {
	db, owner, bot := setupChat(t)
	other := testutil.CreateUser(t, db, "other@test.com", models.UserRoleUser, models.SubscriptionFree, nil)
	svc := newTestChatService(&fakeRelayer{reply: "ok"})

	mine, err := svc.SendMessage(context.Background(), db, access.IdentityFromUser(owner), &dto.ChatRequest{ChatbotID: bot.ID, Message: "mine"})
	require.NoError(t, err)

	theirs, err := svc.SendMessage(context.Background(), db, access.IdentityFromUser(other), &dto.ChatRequest{
		ChatbotID:      bot.ID,
		Message:        "hijack",
		ConversationID: mine.ConversationID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, mine.ConversationID, theirs.ConversationID)

	// чужой диалог не виден
	_, err = svc.ListMessages(db, other.ID, mine.ConversationID)
	requireAppError(t, err, http.StatusNotFound)

	messages, err := svc.ListMessages(db, owner.ID, mine.ConversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	// невалидный id тоже ведет к новому диалогу
	fresh, err := svc.SendMessage(context.Background(), db, nil, &dto.ChatRequest{ChatbotID: bot.ID, Message: "x", ConversationID: "not-a-uuid"})
	require.NoError(t, err)
	assert.NotEqual(t, mine.ConversationID, fresh.ConversationID)
}

func TestSendMessage_ChatbotChecks(t *testing.T) {
	db, owner, bot := setupChat(t)
	svc := newTestChatService(&fakeRelayer{reply: "ok"})
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, db, nil, &dto.ChatRequest{ChatbotID: "5b1d7c1e-0000-4000-8000-000000000000", Message: "hi"})
	requireAppError(t, err, http.StatusNotFound)

	_, err = svc.SendMessage(ctx, db, nil, &dto.ChatRequest{ChatbotID: "garbage", Message: "hi"})
	requireAppError(t, err, http.StatusNotFound)

	require.NoError(t, db.Model(&models.Chatbot{}).Where("id = ?", bot.ID).Update("is_active", false).Error)
	_, err = svc.SendMessage(ctx, db, nil, &dto.ChatRequest{ChatbotID: bot.ID, Message: "hi"})
	requireAppError(t, err, http.StatusForbidden)

	premium := testutil.CreateChatbot(t, db, owner.ID, "http://hook.local/chat")
	require.NoError(t, db.Model(&models.Chatbot{}).Where("id = ?", premium.ID).Update("access_level", models.AccessPremium).Error)

	_, err = svc.SendMessage(ctx, db, nil, &dto.ChatRequest{ChatbotID: premium.ID, Message: "hi"})
	requireAppError(t, err, http.StatusUnauthorized)

	_, err = svc.SendMessage(ctx, db, access.IdentityFromUser(owner), &dto.ChatRequest{ChatbotID: premium.ID, Message: "hi"})
	requireAppError(t, err, http.StatusForbidden)

	future := time.Now().UTC().Add(24 * time.Hour)
	pro := testutil.CreateUser(t, db, "pro@test.com", models.UserRoleUser, models.SubscriptionPro, &future)
	resp, err := svc.SendMessage(ctx, db, access.IdentityFromUser(pro), &dto.ChatRequest{ChatbotID: premium.ID, Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestSendMessage_ConcurrentTurnsAreSerialized(t *testing.T) {
	db, owner, bot := setupChat(t)
	svc := newTestChatService(&fakeRelayer{reply: "pong"})
	identity := access.IdentityFromUser(owner)

	first, err := svc.SendMessage(context.Background(), db, identity, &dto.ChatRequest{ChatbotID: bot.ID, Message: "ping"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SendMessage(context.Background(), db, identity, &dto.ChatRequest{
				ChatbotID:      bot.ID,
				Message:        "ping",
				ConversationID: first.ConversationID,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	messages, err := svc.ListMessages(db, owner.ID, first.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 12)
	// каждый ход - пара (user, assistant) подряд
	for i, m := range messages {
		assert.Equal(t, i%2 == 0, m.IsFromUser, "message %d", i)
	}
}

func TestListConversations_OwnOnly(t *testing.T) {
	db, owner, bot := setupChat(t)
	svc := newTestChatService(&fakeRelayer{reply: "ok"})

	_, err := svc.SendMessage(context.Background(), db, access.IdentityFromUser(owner), &dto.ChatRequest{ChatbotID: bot.ID, Message: "one"})
	require.NoError(t, err)
	_, err = svc.SendMessage(context.Background(), db, nil, &dto.ChatRequest{ChatbotID: bot.ID, Message: "anon"})
	require.NoError(t, err)

	list, err := svc.ListConversations(db, owner.ID, bot.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "one", *list[0].Title)

	list, err = svc.ListConversations(db, owner.ID, "bad-id")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSendMessage_AnonymousConversationBoundToClientKey(t *testing.T) {
	db, _, bot := setupChat(t)
	relayer := &fakeRelayer{reply: "ok"}
	svc := newTestChatService(relayer)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, db, nil, &dto.ChatRequest{ChatbotID: bot.ID, Message: "hello", ClientKey: "client-a"})
	require.NoError(t, err)

	conv, err := repositories.NewConversationRepository().FindByID(db, first.ConversationID)
	require.NoError(t, err)
	require.NotNil(t, conv.ClientKeyHash)
	assert.NotEqual(t, "client-a", *conv.ClientKeyHash)

	same, err := svc.SendMessage(ctx, db, nil, &dto.ChatRequest{
		ChatbotID: bot.ID, Message: "again", ConversationID: first.ConversationID, ClientKey: "client-a",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, same.ConversationID)

	// другой клиент с чужим id получает новый диалог без чужой истории
	other, err := svc.SendMessage(ctx, db, nil, &dto.ChatRequest{
		ChatbotID: bot.ID, Message: "peek", ConversationID: first.ConversationID, ClientKey: "client-b",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ConversationID, other.ConversationID)

	calls := relayer.calls()
	require.Len(t, calls, 3)
	assert.Empty(t, calls[2].History)

	// без ключа диалог никогда не переиспользуется
	keyless, err := svc.SendMessage(ctx, db, nil, &dto.ChatRequest{
		ChatbotID: bot.ID, Message: "peek", ConversationID: first.ConversationID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ConversationID, keyless.ConversationID)

	messages, err := repositories.NewConversationRepository().FindMessages(db, first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestSendMessage_BlankMessageRejected(t *testing.T) {
	db, _, bot := setupChat(t)
	relayer := &fakeRelayer{reply: "ok"}
	svc := newTestChatService(relayer)

	_, err := svc.SendMessage(context.Background(), db, nil, &dto.ChatRequest{ChatbotID: bot.ID, Message: "   \n\t"})
	requireAppError(t, err, http.StatusBadRequest)
	assert.Empty(t, relayer.calls())

	var count int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&count).Error)
	assert.Zero(t, count)
}
