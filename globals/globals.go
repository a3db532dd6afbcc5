package globals

// ContextKey is the type for request-context keys shared across packages.
type ContextKey string

const (
	UserKey      ContextKey = "user"
	RequestIDKey ContextKey = "requestId"
)
