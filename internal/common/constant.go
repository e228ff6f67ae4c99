package common

const (
	// DefaultSessionCookieName is the cookie carrying the session token.
	DefaultSessionCookieName = "session_token"

	// AuthorizationHeaderName and BearerPrefix describe the header carrier.
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "

	// RequestIDHeaderName is echoed on every HTTP response.
	RequestIDHeaderName = "X-Request-ID"

	// ServiceName identifies the service in health responses and metrics.
	ServiceName = "krishi-auth"
)
