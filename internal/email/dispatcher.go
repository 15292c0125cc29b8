package email

import (
	"context"
	"sync"
	"time"

	"chatsaas_backend/internal/logger"
)

// Dispatcher отправляет письма в фоне: запрос только кладет письмо в очередь.
// Ошибки отправки логируются и никогда не доходят до вызывающего.
type Dispatcher struct {
	provider Provider
	queue    chan *Email
	wg       sync.WaitGroup
	once     sync.Once

	// mu защищает stopped: после остановки очередь больше не принимает письма
	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(provider Provider, size int) *Dispatcher {
	if size <= 0 {
		size = 100
	}
	return &Dispatcher{
		provider: provider,
		queue:    make(chan *Email, size),
	}
}

// Start запускает воркер. Останавливается по ctx, дослав то, что уже в очереди.
func (d *Dispatcher) Start(ctx context.Context) {
	d.once.Do(func() {
		d.wg.Add(1)
		go d.run(ctx)
	})
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	logger.Info("Email dispatcher started")

	for {
		select {
		case msg := <-d.queue:
			d.send(msg)
		case <-ctx.Done():
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
			d.drain()
			logger.Info("Email dispatcher stopped")
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case msg := <-d.queue:
			d.send(msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) send(msg *Email) {
	start := time.Now()
	if err := d.provider.Send(msg); err != nil {
		logger.Error("Failed to send email", "error", err.Error(), "to", msg.To, "template", msg.Tag)
		return
	}
	logger.Debug("Email sent", "to", msg.To, "template", msg.Tag, "duration_ms", time.Since(start).Milliseconds())
}

// Enqueue не блокирует: при переполненной очереди или остановленном воркере
// письмо отбрасывается с логом.
func (d *Dispatcher) Enqueue(msg *Email) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		logger.Warn("Email dispatcher is stopped, dropping message", "to", msg.To, "template", msg.Tag)
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		logger.Warn("Email queue is full, dropping message", "to", msg.To, "template", msg.Tag)
		return false
	}
}

// SendNow - синхронная отправка (send-test в админке)
func (d *Dispatcher) SendNow(msg *Email) error {
	return d.provider.Send(msg)
}

// Wait ждет завершения воркера после отмены контекста
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
