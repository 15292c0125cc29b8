package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatsaas_backend/internal/auth"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGoogle - token endpoint + userinfo
func fakeGoogle(t *testing.T, profile map[string]interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOAuthService(srv *httptest.Server) OAuthService {
	return NewOAuthService(OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/v1/auth/google/callback",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		SessionTTL:   time.Hour,
	}, repositories.NewUserRepository(), repositories.NewSessionRepository(), auth.NewTokenManager("test-secret", time.Hour))
}

func TestOAuthCallback_CreatesUserAndSession(t *testing.T) {
	db := testutil.NewTestDB(t)
	srv := fakeGoogle(t, map[string]interface{}{
		"id":             "g-1",
		"email":          "New.User@gmail.com",
		"verified_email": true,
		"name":           "New User",
	})
	svc := newTestOAuthService(srv)

	assert.Contains(t, svc.AuthCodeURL("state-xyz"), "state=state-xyz")

	result, err := svc.Callback(context.Background(), db, "good-code")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.SessionToken)
	assert.Equal(t, "new.user@gmail.com", result.User.Email)

	user, err := repositories.NewUserRepository().FindByGoogleID(db, "g-1")
	require.NoError(t, err)
	assert.NotNil(t, user.EmailVerified)
	assert.Equal(t, models.SubscriptionFree, user.Subscription)

	session, err := repositories.NewSessionRepository().FindValid(db, result.SessionToken, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)

	// повторный вход не создает второго пользователя
	_, err = svc.Callback(context.Background(), db, "good-code")
	require.NoError(t, err)
	count, err := repositories.NewUserRepository().CountAll(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestOAuthCallback_LinksExistingEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	existing := testutil.CreateUser(t, db, "linked@test.com", models.UserRoleUser, models.SubscriptionFree, nil)
	srv := fakeGoogle(t, map[string]interface{}{"id": "g-2", "email": "linked@test.com", "name": "Linked"})
	svc := newTestOAuthService(srv)

	result, err := svc.Callback(context.Background(), db, "good-code")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.User.ID)

	user, err := repositories.NewUserRepository().FindByID(db, existing.ID)
	require.NoError(t, err)
	require.NotNil(t, user.GoogleID)
	assert.Equal(t, "g-2", *user.GoogleID)
	assert.NotNil(t, user.EmailVerified)
}

func TestOAuthCallback_Failures(t *testing.T) {
	db := testutil.NewTestDB(t)
	srv := fakeGoogle(t, map[string]interface{}{"id": "g-3", "email": "x@test.com"})
	svc := newTestOAuthService(srv)

	_, err := svc.Callback(context.Background(), db, "bad-code")
	requireAppError(t, err, http.StatusBadGateway)

	_, err = svc.Callback(context.Background(), db, "")
	requireAppError(t, err, http.StatusBadRequest)

	disabled := NewOAuthService(OAuthConfig{}, repositories.NewUserRepository(), repositories.NewSessionRepository(), auth.NewTokenManager("s", time.Hour))
	assert.False(t, disabled.Enabled())
	_, err = disabled.Callback(context.Background(), db, "good-code")
	requireAppError(t, err, http.StatusServiceUnavailable)
}
