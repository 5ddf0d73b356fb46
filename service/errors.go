package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the referenced contract, version or share does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor is neither a party to the contract nor an admin.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition means the requested status is unreachable from the current one.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotAvailable means the backing store could not be reached.
	ErrNotAvailable = errors.New("store not available")
	// ErrDeliveryFailed means an email or document transport failed.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrInvalidInput means the request was rejected before any side effect.
	ErrInvalidInput = errors.New("invalid input")
)

// storeErr classifies a database error. Missing rows become ErrNotFound and
// connectivity failures become ErrNotAvailable; other errors are wrapped as is.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %v", op, ErrNotAvailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func invalidTransition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}
