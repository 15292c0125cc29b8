package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - это ключ, по которому мы будем хранить *gorm.DB в context
const DBContextKey = contextKey("db")

// IdentityContextKey - ключ для *access.Identity текущего запроса (nil = аноним)
const IdentityContextKey = contextKey("identity")

// SessionTokenKey - сырой токен сессии, если запрос пришел с cookie session-token
const SessionTokenKey = contextKey("session_token")
