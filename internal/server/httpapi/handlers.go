// Package httpapi exposes the auth endpoints over HTTP with gorilla/mux.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/krishiauth/internal/common"
	"github.com/dmitrijs2005/krishiauth/internal/logging"
	"github.com/dmitrijs2005/krishiauth/internal/server/auth"
	"github.com/dmitrijs2005/krishiauth/internal/server/credentials"
	"github.com/dmitrijs2005/krishiauth/internal/server/services"
)

const (
	maxBodyBytes      = 1 << 20
	healthPingTimeout = 2 * time.Second
	storeAvailable    = "available"
	storeUnavailable  = "unavailable"
)

// UserService is satisfied by *services.UserService.
type UserService interface {
	Register(ctx context.Context, username, password string) (*credentials.Result, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
}

// StoreChecker reports whether the durable store answers.
type StoreChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	users    UserService
	boundary *auth.Boundary
	store    StoreChecker
	logger   logging.Logger
}

func NewHandler(users UserService, boundary *auth.Boundary, store StoreChecker, logger logging.Logger) *Handler {
	return &Handler{
		users:    users,
		boundary: boundary,
		store:    store,
		logger:   logger.With("module", "http"),
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := decodeCredentials(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.users.Register(r.Context(), req.Username, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, StatusResponse{Status: statusSuccess, Message: "Registration successful"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := decodeCredentials(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sess, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, h.boundary.SessionCookie(sess.Token, sess.ExpiresAt))
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  statusSuccess,
		Message: fmt.Sprintf("Welcome %s", sess.Username),
		Token:   sess.Token,
	})
}

// Logout only clears the cookie; issued tokens stay valid until they expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.boundary.ClearCookie())
	writeJSON(w, http.StatusOK, StatusResponse{Status: statusSuccess, Message: "Logged out"})
}

// Me serves both /auth/me and /auth/whoami behind RequireSession.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		h.fail(w, r, common.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, IdentityResponse{Username: username})
}

// Health always answers 200 while the process serves; the store field tells
// whether requests currently go to the durable store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	store := storeAvailable
	if err := h.store.Ping(ctx); err != nil {
		store = storeUnavailable
		h.logger.Debug(ctx, "durable store ping failed", "error", err)
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: common.ServiceName, Store: store})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	writeError(w, status, message)
}
