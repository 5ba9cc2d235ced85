package contextkeys

type contextKey string

const (
	UserIDKey    contextKey = "UserID"
	IdentityKey  contextKey = "Identity"
	RequestIDKey contextKey = "RequestID"
	ClientIPKey  contextKey = "ClientIP"
	UserAgentKey contextKey = "UserAgent"
)
