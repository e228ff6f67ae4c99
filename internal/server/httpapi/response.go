package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/krishiauth/internal/common"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// StatusResponse is the body of every auth endpoint except me/whoami.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

type IdentityResponse struct {
	Username string `json:"username"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Store   string `json:"store"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var errMalformedBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, StatusResponse{Status: statusError, Message: message})
}

// errorStatus maps service errors onto the HTTP contract. Unknown errors are
// reported as 500 without detail.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, "Malformed request body"
	case errors.Is(err, common.ErrUserAlreadyExists):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, common.ErrInvalidUsername):
		return http.StatusBadRequest, "Invalid username"
	case errors.Is(err, common.ErrInvalidPassword):
		return http.StatusBadRequest, "Invalid password"
	case errors.Is(err, common.ErrUserNotFound):
		return http.StatusUnauthorized, "User not found"
	case errors.Is(err, common.ErrWrongPassword):
		return http.StatusUnauthorized, "Incorrect password"
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthenticated"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func decodeCredentials(r *http.Request) (CredentialsRequest, error) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errMalformedBody
	}
	return req, nil
}
