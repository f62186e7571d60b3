package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income statuses.
const (
	IncomeConfirmed = "confirmed"
	IncomeRefunded  = "refunded"
	IncomeCompleted = "completed"
	IncomeAnnulled  = "annulled"
)

// IsValidIncomeStatus reports whether s is a known income status.
func IsValidIncomeStatus(s string) bool {
	switch s {
	case IncomeConfirmed, IncomeRefunded, IncomeCompleted, IncomeAnnulled:
		return true
	}
	return false
}

// Income is a ledger row derived from a booking.  Exactly one of
// BookingID and ArchiveID is set: a live booking owns its income until
// the booking is archived, after which the archive does.
//
// Fields:
//  ClientName     – client name at the time of payment.
//  ClientDocument – client document at the time of payment.
//  PaidAt         – UTC time the income was recorded.
//  Amount         – DECIMAL(12,2) equal to the booking value.
type Income struct {
	ID             uint64          // incomes.id
	BookingID      *uint64         // incomes.booking_id (nullable)
	ArchiveID      *uint64         // incomes.archive_id (nullable)
	ClientID       uint64          // incomes.client_id
	ClientName     string          // incomes.client_name
	ClientDocument string          // incomes.client_document
	PaidAt         time.Time       // incomes.paid_at
	Amount         decimal.Decimal // incomes.amount
	PaymentMethod  string          // incomes.payment_method
	Status         string          // incomes.status
	Notes          string          // incomes.notes
}
