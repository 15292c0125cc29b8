package apperrors

import "net/http"

// ErrNotFound - фабрика для ошибки "не найдено" (404).
// Используется, когда ошибка репозитория должна быть преобразована в AppError.
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrDuplicate - нарушение уникальности. По контракту API это 400, а не 409/500.
func ErrDuplicate(err error, domain, message string) *AppError {
	return Wrap(err, CodeAlreadyExists, domain, message, http.StatusBadRequest)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// --- Auth ---

var ErrAuthenticationRequired = New(CodeUnauthorized, "auth", "Authentication required", http.StatusUnauthorized)

var ErrAdminRequired = New(CodeForbidden, "auth", "Administrator role required", http.StatusForbidden)

var ErrInsufficientEntitlement = New(CodeForbidden, "access", "Your subscription does not include this content", http.StatusForbidden)

var ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid email or password", http.StatusUnauthorized)

var ErrInvalidToken = New(CodeInvalidToken, "auth", "Invalid or expired token", http.StatusBadRequest)

var ErrEmailAlreadyExists = New(CodeAlreadyExists, "auth", "Email already in use", http.StatusBadRequest)

var ErrWeakPassword = New(CodeValidationFailed, "validation", "Password must be at least 8 characters long", http.StatusBadRequest)

var ErrOAuthNotConfigured = New(CodeInvalidOperation, "oauth", "Google sign-in is not configured", http.StatusServiceUnavailable)

var ErrOAuthFailed = New(CodeExternalServiceError, "oauth", "Google sign-in failed", http.StatusBadGateway)

var ErrCannotModifySelf = New(CodeInvalidOperation, "admin", "Operation on your own account is not allowed", http.StatusBadRequest)

// --- Resources ---

var ErrUserNotFound = New(CodeNotFound, "user", "User not found", http.StatusNotFound)

var ErrChatbotNotFound = New(CodeNotFound, "chat", "Chatbot not found", http.StatusNotFound)

var ErrChatbotInactive = New(CodeForbidden, "chat", "Chatbot is disabled", http.StatusForbidden)

var ErrConversationNotFound = New(CodeNotFound, "chat", "Conversation not found", http.StatusNotFound)

var ErrDownloadNotFound = New(CodeNotFound, "download", "Download not found", http.StatusNotFound)

var ErrFileMissing = New(CodeNotFound, "download", "File not found in storage", http.StatusNotFound)

var ErrPromotionNotFound = New(CodeNotFound, "promotion", "Promotion not found", http.StatusNotFound)

var ErrTemplateNotFound = New(CodeNotFound, "email", "Email template not found", http.StatusNotFound)

var ErrSiteConfigNotFound = New(CodeNotFound, "site_config", "Config key not found", http.StatusNotFound)

var ErrBlogPostNotFound = New(CodeNotFound, "blog", "Blog post not found", http.StatusNotFound)

// --- Limits ---

var ErrRateLimited = New(CodeLimitExceeded, "chat", "Too many messages, slow down", http.StatusTooManyRequests)

var ErrPromotionInvalid = New(CodeInvalidOperation, "promotion", "Promotion code is not valid", http.StatusBadRequest)

// --- Payments ---

var ErrInvalidSignature = New(CodeUnauthorized, "payment", "Invalid webhook signature", http.StatusUnauthorized)
