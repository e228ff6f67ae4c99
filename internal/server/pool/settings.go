package pool

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Settings describe the target database and the pool bounds.
type Settings struct {
	Host     string
	Port     int
	User     string
	Password string
	// Database is the target database, created on first run if missing.
	Database string
	// AdminDatabase is connected to when Database has to be created.
	AdminDatabase string
	SSLMode       string

	// MaxConns bounds the pool; Acquire blocks while all are in use.
	MaxConns       int
	ConnectTimeout time.Duration
	// AcquireTimeout bounds how long Acquire waits for a free connection.
	AcquireTimeout time.Duration
}

// DSN renders a postgres:// URL for database.
func (s Settings) DSN(database string) string {
	q := url.Values{}
	if s.SSLMode != "" {
		q.Set("sslmode", s.SSLMode)
	}
	if s.ConnectTimeout > 0 {
		secs := int(s.ConnectTimeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:     "/" + database,
		RawQuery: q.Encode(),
	}
	return u.String()
}
