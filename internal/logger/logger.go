package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

var log *slog.Logger

// Init инициализирует глобальный логгер
// env: "development" или "production"
func Init(env string) {
	InitWithWriter(env, "", os.Stdout)
}

// InitWithWriter - то же самое, но с явным уровнем и приемником (нужно для тестов).
func InitWithWriter(env, level string, w io.Writer) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     parseLevel(level, slog.LevelInfo),
		AddSource: env != "test",
	}

	switch env {
	case "development":
		// Development: читаемый текстовый формат
		opts.Level = parseLevel(level, slog.LevelDebug)
		handler = slog.NewTextHandler(w, opts)
	case "test":
		handler = slog.NewTextHandler(w, opts)
	default:
		// Production: JSON формат для парсинга
		handler = slog.NewJSONHandler(w, opts)
	}

	log = slog.New(handler)
	slog.SetDefault(log)
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

// current возвращает глобальный логгер
func current() *slog.Logger {
	if log == nil {
		// Fallback если Init не вызван
		Init("development")
	}
	return log
}

// Debug логирует debug сообщение
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Info логирует info сообщение
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Warn логирует warning сообщение
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error логирует error сообщение
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// Fatal логирует fatal ошибку и завершает программу
func Fatal(msg string, args ...any) {
	current().Error(msg, args...)
	os.Exit(1)
}

// HTTPLog пишет итог HTTP запроса; уровень выбирается по статусу
func HTTPLog(ctx context.Context, method, path string, status int, duration time.Duration, size int, args ...any) {
	fields := append([]any{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size_bytes", size,
	}, args...)

	log := FromContext(ctx)
	switch {
	case status >= 500:
		log.Error("HTTP Server Error", fields...)
	case status >= 400:
		log.Warn("HTTP Client Error", fields...)
	default:
		log.Info("HTTP Request", fields...)
	}
}

// RelayLog логирует вызов внешнего вебхука чатбота
func RelayLog(ctx context.Context, chatbotID string, duration time.Duration, err error) {
	fields := []any{
		"chatbot_id", chatbotID,
		"duration_ms", duration.Milliseconds(),
	}
	log := FromContext(ctx)
	if err != nil {
		fields = append(fields, "error", err.Error())
		log.Warn("webhook relay failed", fields...)
		return
	}
	log.Debug("webhook relay completed", fields...)
}

// WorkerLog логирует операцию воркера
func WorkerLog(workerName, operation string, err error, args ...any) {
	fields := append([]any{
		"worker", workerName,
		"operation", operation,
	}, args...)

	if err != nil {
		fields = append(fields, "error", err.Error())
		current().Error("worker operation failed", fields...)
	} else {
		current().Info("worker operation completed", fields...)
	}
}
