// Package store declares the persistence ports used by the booking
// engine.  Every lifecycle operation runs inside Store.InTx; the Tx value
// handed to the callback is only valid for the duration of that call.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist, is soft deleted,
	// or a foreign key points at a missing row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate")
)

// BookingFilter narrows ListBookings.  Zero values mean "any".
type BookingFilter struct {
	Status   string
	ClientID uint64
	RoomID   uint64
}

// Store opens transactions and serves read-only booking projections.
type Store interface {
	// InTx runs fn in a transaction.  The transaction commits when fn
	// returns nil and rolls back otherwise; fn's error is returned as is.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	ListBookings(ctx context.Context, f BookingFilter) ([]model.BookingView, error)
	GetBooking(ctx context.Context, id uint64) (model.BookingView, error)
	// CheckingOutBetween lists bookings with from < check_out <= to.
	CheckingOutBetween(ctx context.Context, from, to time.Time) ([]model.BookingView, error)
	// Overdue lists bookings with check_out <= now.
	Overdue(ctx context.Context, now time.Time) ([]model.BookingView, error)
}

// Tx is the set of row operations the lifecycle engine performs inside a
// transaction.  Methods named Lock* take row locks held until commit.
type Tx interface {
	LockRoom(ctx context.Context, id uint64) (model.Room, error)
	// SetRoomAvailability updates a room; a missing room is not an error.
	SetRoomAvailability(ctx context.Context, id uint64, availability string) error
	GetClient(ctx context.Context, id uint64) (model.Client, error)

	InsertBooking(ctx context.Context, b *model.Booking) error
	LockBooking(ctx context.Context, id uint64) (model.Booking, error)
	UpdateBooking(ctx context.Context, b *model.Booking) error
	DeleteBooking(ctx context.Context, id uint64) error
	// LockUnnotifiedCheckingOut locks bookings with from < check_out <= to
	// and notified = false.
	LockUnnotifiedCheckingOut(ctx context.Context, from, to time.Time) ([]model.BookingView, error)
	MarkNotified(ctx context.Context, ids []uint64) error
	// LockOverdue locks bookings with check_out <= now.
	LockOverdue(ctx context.Context, now time.Time) ([]model.BookingView, error)

	// LiveIncomeForBooking returns the income still owned by a booking.
	LiveIncomeForBooking(ctx context.Context, bookingID uint64) (model.Income, bool, error)
	InsertIncome(ctx context.Context, in *model.Income) error
	DeleteIncome(ctx context.Context, id uint64) error

	InsertArchive(ctx context.Context, a *model.Archive) error
}
