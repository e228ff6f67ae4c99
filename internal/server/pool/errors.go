package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/krishiauth/internal/common"
)

// IsMissingDatabase reports whether err is Postgres saying the target
// database does not exist.
func IsMissingDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidCatalogName
}

// IsConnectivityError reports whether err means the store could not be
// reached, as opposed to the store answering with an error.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrStoreUnavailable) {
		return true
	}

	// A server-side error means the server was reachable; only a few codes
	// say otherwise.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.AdminShutdown, pgerrcode.CrashShutdown, pgerrcode.CannotConnectNow:
			return true
		}
		return pgerrcode.IsConnectionException(pgErr.Code)
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify tags connectivity-class errors with common.ErrStoreUnavailable and
// returns every other error unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, common.ErrStoreUnavailable) {
		return err
	}
	if IsConnectivityError(err) {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return err
}

// acquireError classifies a failed acquisition. Running out of AcquireTimeout
// while the caller's own context is still live counts as unavailable.
func acquireError(parent context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w: acquire timed out: %w", common.ErrStoreUnavailable, err)
	}
	return Classify(err)
}
