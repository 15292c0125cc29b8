package email

import (
	"sync"

	"chatsaas_backend/internal/logger"
)

// Provider определяет интерфейс для отправки email
type Provider interface {
	// Send отправляет сообщение синхронно
	Send(email *Email) error

	// Validate проверяет конфигурацию провайдера
	Validate() error

	// Close закрывает соединение с провайдером
	Close() error
}

// LogProvider используется, когда SMTP не настроен: письма только логируются.
type LogProvider struct{}

func (p *LogProvider) Send(email *Email) error {
	logger.Info("Email not sent (SMTP disabled)", "to", email.To, "subject", email.Subject, "template", email.Tag)
	return nil
}

func (p *LogProvider) Validate() error { return nil }
func (p *LogProvider) Close() error    { return nil }

// MemoryProvider сохраняет письма в памяти (тесты и локальная разработка)
type MemoryProvider struct {
	mu   sync.Mutex
	sent []Email
	Err  error
}

func (p *MemoryProvider) Send(email *Email) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, *email)
	return nil
}

func (p *MemoryProvider) Validate() error { return nil }
func (p *MemoryProvider) Close() error    { return nil }

// Sent возвращает копию отправленных писем
func (p *MemoryProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Email, len(p.sent))
	copy(out, p.sent)
	return out
}
