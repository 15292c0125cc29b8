package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"chatsaas_backend/internal/email"
	"chatsaas_backend/internal/relay"
	"chatsaas_backend/pkg/apperrors"

	"github.com/stretchr/testify/require"
)

// fakeRelayer записывает запросы и отвечает фиксированным текстом или ошибкой
type fakeRelayer struct {
	mu       sync.Mutex
	reply    string
	err      error
	status   int
	payloads []relay.Payload
}

func (f *fakeRelayer) Relay(ctx context.Context, targetURL string, payload relay.Payload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeRelayer) Ping(ctx context.Context, targetURL string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.status == 0 {
		return http.StatusOK, nil
	}
	return f.status, nil
}

func (f *fakeRelayer) calls() []relay.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]relay.Payload(nil), f.payloads...)
}

var errWebhookDown = errors.New("webhook down")

// fakeDispatcher собирает письма вместо очереди
type fakeDispatcher struct {
	mu      sync.Mutex
	queued  []*email.Email
	sendErr error
}

func (f *fakeDispatcher) Enqueue(msg *email.Email) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, msg)
	return true
}

func (f *fakeDispatcher) SendNow(msg *email.Email) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.Enqueue(msg)
	return nil
}

func (f *fakeDispatcher) sent() []*email.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*email.Email(nil), f.queued...)
}

func requireAppError(t *testing.T, err error, httpCode int) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, httpCode, appErr.HTTPCode, appErr.Message)
	return appErr
}
