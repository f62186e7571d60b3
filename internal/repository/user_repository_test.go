package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

var userCols = []string{"id", "name", "email", "password_hash", "role", "created_at", "updated_at"}

func TestEnsureAdminCreatesMissingAccount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`FROM users WHERE email=\?`).
		WithArgs("admin@hotel.test").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("Administrator", "admin@hotel.test", sqlmock.AnyArg(), model.RoleAdmin, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := repo.EnsureAdmin(context.Background(), " Administrator ", " Admin@Hotel.test", "changeme123", bcrypt.MinCost)
	if err != nil || !created {
		t.Fatalf("EnsureAdmin = %v, %v; want created", created, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEnsureAdminKeepsExistingAccount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM users WHERE email=\?`).
		WithArgs("admin@hotel.test").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Admin", "admin@hotel.test", "$2a$", model.RoleUser, now, now))

	created, err := repo.EnsureAdmin(context.Background(), "Administrator", "admin@hotel.test", "changeme123", bcrypt.MinCost)
	if err != nil || created {
		t.Fatalf("EnsureAdmin = %v, %v; want existing account untouched", created, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'users.email'"})

	_, err := repo.Create(context.Background(), "Recepción", "front@hotel.test", "password1", model.RoleUser, bcrypt.MinCost)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestDeleteUnknownUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`DELETE FROM users WHERE id=\?`).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), 9); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestValidateRefreshRejectsRevokedAndExpired(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	cols := []string{"user_id", "expires_at", "revoked_at"}
	future := time.Now().UTC().Add(time.Hour)

	mock.ExpectQuery(`FROM refresh_tokens WHERE token_hash=\?`).WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, future, nil))
	mock.ExpectQuery(`FROM refresh_tokens`).WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, future, time.Now().UTC()))
	mock.ExpectQuery(`FROM refresh_tokens`).WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, time.Now().UTC().Add(-time.Minute), nil))
	mock.ExpectQuery(`FROM refresh_tokens`).WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(cols))

	ctx := context.Background()
	if uid, err := repo.ValidateRefresh(ctx, "live"); err != nil || uid != 4 {
		t.Errorf("live token = %d, %v", uid, err)
	}
	for _, h := range []string{"revoked", "expired", "unknown"} {
		if _, err := repo.ValidateRefresh(ctx, h); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("%s token: err = %v, want ErrNotFound", h, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
