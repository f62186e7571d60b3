package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Archive is the write‑once record of a booking that reached a terminal
// state.  BookingID keeps the original booking id for traceability; the
// booking row itself no longer exists.
type Archive struct {
	ID            uint64          // archives.id
	BookingID     uint64          // archives.booking_id
	ClientID      uint64          // archives.client_id
	RoomID        uint64          // archives.room_id
	CheckIn       time.Time       // archives.check_in
	CheckOut      time.Time       // archives.check_out
	RoomType      string          // archives.room_type
	GuestCount    uint32          // archives.guest_count
	PaymentMethod string          // archives.payment_method
	Notes         string          // archives.notes
	Value         decimal.Decimal // archives.value
	Status        string          // archives.status: expired, cancelled, vacated or refund
	ArchivedAt    time.Time       // archives.archived_at
	Reason        string          // archives.reason
}
