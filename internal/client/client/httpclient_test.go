package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL+"/", 2*time.Second)
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_RejectsBareAddress(t *testing.T) {
	_, err := NewHTTPClient("127.0.0.1:8000", time.Second)
	require.Error(t, err)
}

func TestRegister_SendsCredentials(t *testing.T) {
	var got credentials
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"success","message":"Registration successful"}`))
	})

	require.NoError(t, c.Register(context.Background(), "alice", []byte("pw1")))
	assert.Equal(t, credentials{Username: "alice", Password: "pw1"}, got)
}

func TestRegister_Duplicate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"User already exists"}`))
	})

	err := c.Register(context.Background(), "alice", []byte("pw1"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "User already exists", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_ReturnsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","message":"Welcome alice","token":"tok-123"}`))
	})

	token, err := c.Login(context.Background(), "alice", []byte("pw1"))
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","message":"Incorrect password"}`))
	})

	_, err := c.Login(context.Background(), "alice", []byte("nope"))
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Incorrect password")
}

func TestLogin_MissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","message":"Welcome alice"}`))
	})

	_, err := c.Login(context.Background(), "alice", []byte("pw1"))
	require.Error(t, err)
}

func TestWhoAmI_SendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/whoami", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","message":"Unauthenticated"}`))
			return
		}
		_, _ = w.Write([]byte(`{"username":"alice"}`))
	})

	name, err := c.WhoAmI(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	_, err = c.WhoAmI(context.Background(), "other")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, time.Second)
	require.NoError(t, err)

	_, err = c.WhoAmI(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDecodeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.WhoAmI(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestAPIError_Message(t *testing.T) {
	assert.Equal(t, "server returned 500", (&APIError{Status: 500}).Error())
	assert.Equal(t, "server returned 400: bad", (&APIError{Status: 400, Message: "bad"}).Error())
}
