package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking statuses.  The first four are the only values a row in the
// `bookings` table can carry; the terminal ones exist only on archives.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"

	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
	StatusVacated   = "vacated"
	StatusRefund    = "refund"
)

// IsActiveStatus reports whether s may be stored on a live booking.
func IsActiveStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut:
		return true
	}
	return false
}

// IsTerminalStatus reports whether s ends a booking's life.  Terminal
// transitions go through archiving, never through an update.
func IsTerminalStatus(s string) bool {
	switch s {
	case StatusCancelled, StatusExpired, StatusVacated, StatusRefund:
		return true
	}
	return false
}

// Booking is a reservation of one room by one client for a stay
// interval.  While the row exists its room is occupied.
//
// Fields:
//  ID            – primary key identifier.
//  ClientID      – guest holding the booking.
//  RoomID        – reserved room.
//  CheckIn       – start of the stay, stored in UTC.
//  CheckOut      – end of the stay, strictly after CheckIn.
//  RoomType      – room type copied from the room at creation.
//  GuestCount    – number of guests, at least one.
//  PaymentMethod – free text such as cash or card.
//  Status        – one of the active statuses.
//  Notes         – optional staff notes.
//  Value         – DECIMAL(12,2) amount charged for the stay.
//  Notified      – near‑expiry alert already emitted.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64          // bookings.id
	ClientID      uint64          // bookings.client_id
	RoomID        uint64          // bookings.room_id
	CheckIn       time.Time       // bookings.check_in
	CheckOut      time.Time       // bookings.check_out
	RoomType      string          // bookings.room_type
	GuestCount    uint32          // bookings.guest_count
	PaymentMethod string          // bookings.payment_method
	Status        string          // bookings.status
	Notes         string          // bookings.notes
	Value         decimal.Decimal // bookings.value
	Notified      bool            // bookings.notified
	CreatedAt     time.Time       // bookings.created_at
	UpdatedAt     time.Time       // bookings.updated_at
}

// BookingView is a booking joined with the client name and room number
// for listings.
type BookingView struct {
	Booking
	ClientName string // clients.name
	RoomNumber uint32 // rooms.number
}
