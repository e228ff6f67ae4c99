package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/common"
	"github.com/dmitrijs2005/krishiauth/internal/logging"
	"github.com/dmitrijs2005/krishiauth/internal/server/metrics"
)

// Carrier names where a session token was found.
type Carrier string

const (
	CarrierNone   Carrier = "none"
	CarrierCookie Carrier = "cookie"
	CarrierBearer Carrier = "bearer"
)

// ExtractToken looks for a session token on r. The cookie wins over the
// Authorization header when both are present.
func ExtractToken(r *http.Request, cookieName string) (string, Carrier, bool) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, CarrierCookie, true
	}

	h := r.Header.Get(common.AuthorizationHeaderName)
	if len(h) > len(common.BearerPrefix) && strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		if tok := strings.TrimSpace(h[len(common.BearerPrefix):]); tok != "" {
			return tok, CarrierBearer, true
		}
	}

	return "", CarrierNone, false
}

// Boundary turns request credentials into an authenticated username and
// produces the session cookie.
type Boundary struct {
	tokens       *TokenService
	cookieName   string
	cookieSecure bool
	logger       logging.Logger
}

func NewBoundary(tokens *TokenService, cookieName string, cookieSecure bool, logger logging.Logger) *Boundary {
	if cookieName == "" {
		cookieName = common.DefaultSessionCookieName
	}
	return &Boundary{
		tokens:       tokens,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
		logger:       logger.With("module", "session"),
	}
}

func (b *Boundary) CookieName() string {
	return b.cookieName
}

// Authenticate returns the username of the request's session. Every failure
// matches common.ErrUnauthenticated; a bad token additionally matches
// common.ErrInvalidToken or common.ErrTokenExpired.
func (b *Boundary) Authenticate(r *http.Request) (string, error) {
	tok, carrier, ok := ExtractToken(r, b.cookieName)
	if !ok {
		metrics.RecordTokenRejection(string(CarrierNone), "missing")
		return "", common.ErrUnauthenticated
	}

	username, err := b.tokens.Verify(tok)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, common.ErrTokenExpired) {
			reason = "expired"
		}
		metrics.RecordTokenRejection(string(carrier), reason)
		b.logger.Debug(r.Context(), "session token rejected", "carrier", carrier, "reason", reason)
		return "", fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	return username, nil
}

// SessionCookie wraps token in the session cookie, expiring with the token.
func (b *Boundary) SessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     b.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(b.tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   b.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie on the client.
func (b *Boundary) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     b.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

type usernameKey struct{}

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

func UsernameFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(usernameKey{}).(string)
	return u, ok && u != ""
}
