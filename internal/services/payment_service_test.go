package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"chatsaas_backend/internal/email"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPaymentSecret = "whsec_test"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testPaymentSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestPaymentService(dispatcher *fakeDispatcher) PaymentService {
	mailer := NewEmailTemplateService(repositories.NewEmailTemplateRepository(), dispatcher, "noreply@test.com", email.TemplateData{})
	return NewPaymentService(testPaymentSecret, repositories.NewUserRepository(), repositories.NewPaymentEventRepository(), mailer)
}

func paymentEvent(t *testing.T, id, eventType, userEmail string, periodEnd *time.Time) ([]byte, *dto.PaymentWebhookEvent) {
	t.Helper()
	var event dto.PaymentWebhookEvent
	event.ID = id
	event.Type = eventType
	event.Data.Email = userEmail
	event.Data.Plan = "pro-monthly"
	event.Data.PeriodEnd = periodEnd

	raw, err := json.Marshal(&event)
	require.NoError(t, err)
	return raw, &event
}

func TestVerifySignature(t *testing.T) {
	svc := newTestPaymentService(&fakeDispatcher{})
	body := []byte(`{"id":"evt_1"}`)

	assert.NoError(t, svc.VerifySignature(body, sign(body)))
	requireAppError(t, svc.VerifySignature(body, "sha256=deadbeef"), http.StatusUnauthorized)
	// без префикса sha256=
	requireAppError(t, svc.VerifySignature(body, strings.TrimPrefix(sign(body), "sha256=")), http.StatusUnauthorized)
	requireAppError(t, svc.VerifySignature([]byte(`{"id":"evt_2"}`), sign(body)), http.StatusUnauthorized)

	noSecret := NewPaymentService("", repositories.NewUserRepository(), repositories.NewPaymentEventRepository(), nil)
	requireAppError(t, noSecret.VerifySignature(body, sign(body)), http.StatusUnauthorized)
}

func TestHandleEvent_ActivateIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	dispatcher := &fakeDispatcher{}
	svc := newTestPaymentService(dispatcher)
	user := testutil.CreateUser(t, db, "payer@test.com", models.UserRoleUser, models.SubscriptionFree, nil)

	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	raw, event := paymentEvent(t, "evt_activate", PaymentEventActivated, "Payer@Test.com", &periodEnd)

	resp, err := svc.HandleEvent(db, raw, event)
	require.NoError(t, err)
	assert.True(t, resp.Received)
	assert.False(t, resp.Duplicate)

	got, err := repositories.NewUserRepository().FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPro, got.Subscription)
	require.NotNil(t, got.SubscriptionEndsAt)
	assert.True(t, got.SubscriptionEndsAt.Equal(periodEnd))

	sent := dispatcher.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"payer@test.com"}, sent[0].To)
	assert.Equal(t, email.TemplateSubscriptionActivated, sent[0].Tag)

	// повтор - без изменений и без второго письма
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("subscription", models.SubscriptionFree).Error)
	resp, err = svc.HandleEvent(db, raw, event)
	require.NoError(t, err)
	assert.True(t, resp.Duplicate)

	got, err = repositories.NewUserRepository().FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionFree, got.Subscription)
	assert.Len(t, dispatcher.sent(), 1)
}

func TestHandleEvent_Cancel(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newTestPaymentService(&fakeDispatcher{})
	future := time.Now().UTC().Add(24 * time.Hour)
	user := testutil.CreateUser(t, db, "leaver@test.com", models.UserRoleUser, models.SubscriptionPro, &future)

	raw, event := paymentEvent(t, "evt_cancel", PaymentEventCanceled, user.Email, nil)
	_, err := svc.HandleEvent(db, raw, event)
	require.NoError(t, err)

	got, err := repositories.NewUserRepository().FindByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionFree, got.Subscription)
	require.NotNil(t, got.SubscriptionEndsAt)
	assert.False(t, got.SubscriptionEndsAt.After(time.Now().UTC()))
}

func TestHandleEvent_UnknownUserIsNotRecorded(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newTestPaymentService(&fakeDispatcher{})

	raw, event := paymentEvent(t, "evt_ghost", PaymentEventActivated, "ghost@test.com", nil)
	_, err := svc.HandleEvent(db, raw, event)
	requireAppError(t, err, http.StatusNotFound)

	assert.EqualValues(t, 0, countEvents(t, db))

	// неизвестный тип фиксируется и игнорируется
	raw, event = paymentEvent(t, "evt_other", "invoice.paid", "ghost@test.com", nil)
	resp, err := svc.HandleEvent(db, raw, event)
	require.NoError(t, err)
	assert.True(t, resp.Received)
	assert.EqualValues(t, 1, countEvents(t, db))
}

func countEvents(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.PaymentEvent{}).Count(&n).Error)
	return n
}
