package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieConfig - имена и сроки cookie аутентификации
type CookieConfig struct {
	TokenName   string
	SessionName string
	StateName   string
	TokenTTL    time.Duration
	SessionTTL  time.Duration
	Secure      bool
}

const (
	oauthStateTTL = 10 * time.Minute

	// chat-client связывает анонимные диалоги с браузером
	chatClientCookie = "chat-client"
	chatClientTTL    = 30 * 24 * time.Hour
)

func (cc CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (cc CookieConfig) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, cc.cookie(name, value, ttl))
}

// chatClientKey возвращает ключ анонимного клиента. Для нового ключа
// возвращается cookie, которую нужно выдать клиенту.
func (cc CookieConfig) chatClientKey(r *http.Request) (string, *http.Cookie) {
	if existing, err := r.Cookie(chatClientCookie); err == nil && len(existing.Value) >= 32 && len(existing.Value) <= 64 {
		return existing.Value, nil
	}
	key := uuid.NewString()
	return key, cc.cookie(chatClientCookie, key, chatClientTTL)
}

func (cc CookieConfig) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
