package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"output wins", `{"output":"a","message":"b","text":"c","response":"d"}`, "a"},
		{"message before text", `{"message":"b","text":"c"}`, "b"},
		{"text before response", `{"response":"d","text":"c"}`, "c"},
		{"response only", `{"response":"d"}`, "d"},
		{"empty output skipped", `{"output":"","message":"b"}`, "b"},
		{"non-string skipped", `{"output":{"x":1},"text":"c"}`, "c"},
		{"no known fields", `{"foo":"bar"}`, DefaultReply},
		{"empty body", ``, DefaultReply},
		{"array first element", `[{"output":"from n8n"},{"output":"ignored"}]`, "from n8n"},
		{"empty array", `[]`, DefaultReply},
		{"bare string", `"hello"`, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeReply([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeReply_Invalid(t *testing.T) {
	_, err := DecodeReply([]byte(`<html>oops</html>`))
	assert.ErrorIs(t, err, ErrInvalidReply)
}

func TestClient_RelaySendsPayload(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"output":"pong"}`))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	reply, err := c.Relay(context.Background(), srv.URL, Payload{
		Message:        "ping",
		ConversationID: "conv-1",
		ChatbotID:      "bot-1",
		UserID:         "user-1",
		Timestamp:      time.Now().UTC(),
		User:           &UserContext{Email: "u@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
	assert.Equal(t, "ping", got.Message)
	assert.Equal(t, "conv-1", got.ConversationID)
	assert.Equal(t, "bot-1", got.ChatbotID)
	assert.Equal(t, "u@example.com", got.User.Email)
}

func TestClient_RelayFailures(t *testing.T) {
	t.Run("non-2xx is upstream error, single attempt", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewClient(time.Second).Relay(context.Background(), srv.URL, Payload{Message: "x"})
		assert.ErrorIs(t, err, ErrUpstream)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		start := time.Now()
		_, err := NewClient(100*time.Millisecond).Relay(context.Background(), srv.URL, Payload{Message: "x"})
		assert.ErrorIs(t, err, ErrUpstream)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("invalid json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := NewClient(time.Second).Relay(context.Background(), srv.URL, Payload{Message: "x"})
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := NewClient(time.Second).Relay(context.Background(), "", Payload{Message: "x"})
		assert.ErrorIs(t, err, ErrUpstream)
	})
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	status, err := NewClient(time.Second).Ping(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)
}
