package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultReply - ответ, если вебхук вернул 2xx без текстового поля
const DefaultReply = "Your message was processed successfully."

// максимальный размер ответа, который читаем от вебхука
const maxResponseBytes = 1 << 20

var ErrUpstream = errors.New("webhook upstream failed")

// UserContext - необязательный контекст пользователя для автоматизации
type UserContext struct {
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	Subscription string `json:"subscription,omitempty"`
}

type HistoryItem struct {
	Role    string    `json:"role"` // user | assistant
	Content string    `json:"content"`
	At      time.Time `json:"timestamp"`
}

// Payload - тело POST запроса на вебхук
type Payload struct {
	Message        string        `json:"message"`
	ConversationID string        `json:"conversationId"`
	ChatbotID      string        `json:"chatbotId"`
	UserID         string        `json:"userId,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
	User           *UserContext  `json:"user,omitempty"`
	History        []HistoryItem `json:"history,omitempty"`
}

// Relayer - то, что нужно сервису чата
type Relayer interface {
	Relay(ctx context.Context, targetURL string, payload Payload) (string, error)
	Ping(ctx context.Context, targetURL string) (int, error)
}

// Client делает ровно одну попытку доставки, без ретраев.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// NewClientWithHTTP - для тестов и кастомных транспортов
func NewClientWithHTTP(httpClient *http.Client, timeout time.Duration) *Client {
	return &Client{httpClient: httpClient, timeout: timeout}
}

func (c *Client) Relay(ctx context.Context, targetURL string, payload Payload) (string, error) {
	if targetURL == "" {
		return "", fmt.Errorf("%w: webhook url is empty", ErrUpstream)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	reply, err := DecodeReply(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return reply, nil
}

// Ping отправляет тестовое сообщение и возвращает HTTP статус
func (c *Client) Ping(ctx context.Context, targetURL string) (int, error) {
	body, _ := json.Marshal(Payload{Message: "ping", Timestamp: time.Now().UTC()})

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	return resp.StatusCode, nil
}
