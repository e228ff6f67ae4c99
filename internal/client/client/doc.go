// Package client is the HTTP API client used by the krishiauth terminal
// client. Transport failures are reported as ErrUnavailable; non-2xx replies
// as *APIError, which matches ErrUnauthorized for 401.
package client
