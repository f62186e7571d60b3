package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

// ArchiveResult describes a completed archive-and-remove.
type ArchiveResult struct {
	ArchiveID      uint64
	Status         string
	IncomeMigrated bool
}

// ArchiveStatusFor maps the status of a booking being deleted to the
// status its archive records.
func ArchiveStatusFor(bookingStatus string) string {
	switch bookingStatus {
	case model.StatusExpired:
		return model.StatusExpired
	case model.StatusPending:
		return model.StatusCancelled
	case model.StatusConfirmed, model.StatusCheckedIn, model.StatusCheckedOut:
		return model.StatusVacated
	}
	return bookingStatus
}

func defaultReason(status string) string {
	switch status {
	case model.StatusCancelled:
		return "cancelled before check-in"
	case model.StatusVacated:
		return "guest vacated the room"
	case model.StatusExpired:
		return "check-out time passed"
	case model.StatusRefund:
		return "refund issued"
	}
	return status
}

// archiveBooking replaces a booking with its archive.  The order matters:
// the archive must exist before the income can point at it, and the
// income must leave the booking before the booking row can be deleted.
func archiveBooking(ctx context.Context, tx store.Tx, b model.Booking, status, reason string, at time.Time) (ArchiveResult, error) {
	if reason == "" {
		reason = defaultReason(status)
	}
	a := model.Archive{
		BookingID:     b.ID,
		ClientID:      b.ClientID,
		RoomID:        b.RoomID,
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
		RoomType:      b.RoomType,
		GuestCount:    b.GuestCount,
		PaymentMethod: b.PaymentMethod,
		Notes:         b.Notes,
		Value:         b.Value,
		Status:        status,
		ArchivedAt:    at.UTC(),
		Reason:        reason,
	}
	if err := tx.InsertArchive(ctx, &a); err != nil {
		return ArchiveResult{}, fmt.Errorf("insert archive: %w", err)
	}
	migrated, err := MigrateIncomeToArchive(ctx, tx, b.ID, a)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("migrate income: %w", err)
	}
	if err := MarkAvailable(ctx, tx, b.RoomID); err != nil {
		return ArchiveResult{}, fmt.Errorf("release room: %w", err)
	}
	if err := tx.DeleteBooking(ctx, b.ID); err != nil {
		return ArchiveResult{}, fmt.Errorf("delete booking: %w", err)
	}
	return ArchiveResult{ArchiveID: a.ID, Status: status, IncomeMigrated: migrated}, nil
}
