// Package repository implements the store ports and the entity
// repositories on MySQL through database/sql.  Driver errors are
// translated into the store sentinels so that callers never inspect
// MySQL error numbers themselves.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/hotelops/hotel-backend/internal/store"
)

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
	errRowIsReferenced = 1451
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// ErrConflict is returned when a change is refused because of the state of
// related rows, such as deleting a room that holds an active booking.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a user email is already registered.
var ErrEmailExists = errors.New("email already exists")

// classify maps driver errors onto store sentinels and leaves everything
// else untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry:
			return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
		case errNoReferencedRow:
			return fmt.Errorf("%w: %w", store.ErrNotFound, err)
		case errRowIsReferenced:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}
	return err
}

// retryable reports whether a transaction failed on a deadlock or a lock
// wait timeout and may succeed when run again.
func retryable(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDeadlock || me.Number == errLockWaitTimeout
	}
	return false
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func nullID(p *uint64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func idPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
