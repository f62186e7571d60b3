package booking

import (
	"context"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

// CreateIncomeForBooking records the income of a confirmed booking.  It
// re-checks for a live income inside tx and reports false when one
// already exists.
func CreateIncomeForBooking(ctx context.Context, tx store.Tx, b model.Booking, c model.Client, paidAt time.Time) (bool, error) {
	if _, found, err := tx.LiveIncomeForBooking(ctx, b.ID); err != nil || found {
		return false, err
	}
	bookingID := b.ID
	in := model.Income{
		BookingID:      &bookingID,
		ClientID:       c.ID,
		ClientName:     c.Name,
		ClientDocument: c.Document,
		PaidAt:         paidAt.UTC(),
		Amount:         b.Value,
		PaymentMethod:  b.PaymentMethod,
		Status:         model.IncomeConfirmed,
	}
	if err := tx.InsertIncome(ctx, &in); err != nil {
		return false, err
	}
	return true, nil
}

// MigrateIncomeToArchive moves the live income of a booking onto its
// archive: a copy pointing at the archive is inserted with the status the
// archive implies and the original row is deleted.  It reports false when
// the booking had no income.
func MigrateIncomeToArchive(ctx context.Context, tx store.Tx, bookingID uint64, a model.Archive) (bool, error) {
	in, found, err := tx.LiveIncomeForBooking(ctx, bookingID)
	if err != nil || !found {
		return false, err
	}
	archiveID := a.ID
	moved := in
	moved.ID = 0
	moved.BookingID = nil
	moved.ArchiveID = &archiveID
	moved.Status = IncomeStatusFor(in.Status, a.Status)
	if err := tx.InsertIncome(ctx, &moved); err != nil {
		return false, err
	}
	if err := tx.DeleteIncome(ctx, in.ID); err != nil {
		return false, err
	}
	return true, nil
}

// IncomeStatusFor maps an income status through an archive transition.
// Only confirmed incomes change.
func IncomeStatusFor(current, archiveStatus string) string {
	if current != model.IncomeConfirmed {
		return current
	}
	switch archiveStatus {
	case model.StatusVacated, model.StatusExpired:
		return model.IncomeCompleted
	case model.StatusCancelled:
		return model.IncomeAnnulled
	case model.StatusRefund:
		return model.IncomeRefunded
	}
	return current
}
