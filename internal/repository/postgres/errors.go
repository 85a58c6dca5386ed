package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/lib/pq"
)

// storeError prefixes err with op and marks connectivity failures as
// domain.ErrTransient so callers can answer with a retryable status.
func storeError(op string, err error) error {
	if isConnectivityError(err) {
		return domain.Transient(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection_exception. 57P0x is a server shutdown and 53300
		// is too_many_connections.
		switch pqErr.Code {
		case "57P01", "57P02", "57P03", "53300":
			return true
		}
		return pqErr.Code.Class() == "08"
	}
	return false
}
