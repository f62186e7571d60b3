package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hotelops/hotel-backend/internal/store"
)

const maxTxAttempts = 3

// Store implements store.Store on MySQL.
type Store struct {
	DB *sql.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// InTx runs fn in a transaction and retries it when MySQL reports a
// deadlock or a lock wait timeout.  fn may run more than once.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.inTx(ctx, fn)
		if !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*25) * time.Millisecond):
		}
	}
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sqlTx implements store.Tx on a *sql.Tx.  Its methods live next to the
// repository of the table they touch.
type sqlTx struct {
	tx *sql.Tx
}

var _ store.Tx = (*sqlTx)(nil)
