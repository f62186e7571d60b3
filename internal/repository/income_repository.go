package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

const incomeColumns = `id, booking_id, archive_id, client_id, client_name, client_document, paid_at, amount,
       payment_method, status, notes`

func scanIncome(s rowScanner) (model.Income, error) {
	var (
		in                   model.Income
		bookingID, archiveID sql.NullInt64
	)
	err := s.Scan(&in.ID, &bookingID, &archiveID, &in.ClientID, &in.ClientName, &in.ClientDocument,
		&in.PaidAt, &in.Amount, &in.PaymentMethod, &in.Status, &in.Notes)
	in.BookingID = idPtr(bookingID)
	in.ArchiveID = idPtr(archiveID)
	return in, err
}

// LiveIncomeForBooking locks and returns the income still owned by a
// booking.  The lock makes the existence check hold until commit.
func (t *sqlTx) LiveIncomeForBooking(ctx context.Context, bookingID uint64) (model.Income, bool, error) {
	in, err := scanIncome(t.tx.QueryRowContext(ctx,
		"SELECT "+incomeColumns+" FROM incomes WHERE booking_id = ? FOR UPDATE", bookingID))
	if err == sql.ErrNoRows {
		return model.Income{}, false, nil
	}
	if err != nil {
		return model.Income{}, false, err
	}
	return in, true, nil
}

func (t *sqlTx) InsertIncome(ctx context.Context, in *model.Income) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO incomes (booking_id, archive_id, client_id, client_name, client_document, paid_at,
		                      amount, payment_method, status, notes)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		nullID(in.BookingID), nullID(in.ArchiveID), in.ClientID, in.ClientName, in.ClientDocument,
		in.PaidAt.UTC(), in.Amount, in.PaymentMethod, in.Status, in.Notes)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	in.ID = uint64(id)
	return nil
}

func (t *sqlTx) DeleteIncome(ctx context.Context, id uint64) error {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM incomes WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncomeRepo reads the income ledger.
type IncomeRepo struct{ DB *sql.DB }

func NewIncomeRepo(db *sql.DB) *IncomeRepo { return &IncomeRepo{DB: db} }

// IncomeFilter narrows List.  Zero values mean "any"; From and To bound
// paid_at as [From, To).
type IncomeFilter struct {
	BookingID uint64
	ArchiveID uint64
	ClientID  uint64
	Status    string
	From, To  time.Time
}

func (r *IncomeRepo) List(ctx context.Context, f IncomeFilter) ([]model.Income, error) {
	q := "SELECT " + incomeColumns + " FROM incomes WHERE 1=1"
	var args []any
	if f.BookingID != 0 {
		q += " AND booking_id = ?"
		args = append(args, f.BookingID)
	}
	if f.ArchiveID != 0 {
		q += " AND archive_id = ?"
		args = append(args, f.ArchiveID)
	}
	if f.ClientID != 0 {
		q += " AND client_id = ?"
		args = append(args, f.ClientID)
	}
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		q += " AND paid_at >= ?"
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		q += " AND paid_at < ?"
		args = append(args, f.To.UTC())
	}
	rows, err := r.DB.QueryContext(ctx, q+" ORDER BY paid_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *IncomeRepo) GetByID(ctx context.Context, id uint64) (model.Income, error) {
	in, err := scanIncome(r.DB.QueryRowContext(ctx,
		"SELECT "+incomeColumns+" FROM incomes WHERE id = ?", id))
	return in, classify(err)
}
