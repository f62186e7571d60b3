package repository

import (
	"context"
	"database/sql"

	"github.com/hotelops/hotel-backend/internal/model"
)

const archiveColumns = `id, booking_id, client_id, room_id, check_in, check_out, room_type, guest_count,
       payment_method, notes, value, status, archived_at, reason`

func scanArchive(s rowScanner) (model.Archive, error) {
	var a model.Archive
	err := s.Scan(&a.ID, &a.BookingID, &a.ClientID, &a.RoomID, &a.CheckIn, &a.CheckOut, &a.RoomType,
		&a.GuestCount, &a.PaymentMethod, &a.Notes, &a.Value, &a.Status, &a.ArchivedAt, &a.Reason)
	return a, err
}

func (t *sqlTx) InsertArchive(ctx context.Context, a *model.Archive) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO archives (booking_id, client_id, room_id, check_in, check_out, room_type, guest_count,
		                       payment_method, notes, value, status, archived_at, reason)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.BookingID, a.ClientID, a.RoomID, a.CheckIn.UTC(), a.CheckOut.UTC(), a.RoomType, a.GuestCount,
		a.PaymentMethod, a.Notes, a.Value, a.Status, a.ArchivedAt.UTC(), a.Reason)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ArchiveRepo reads archived bookings.  Archives are write-once; the only
// writer is the booking engine through the store transaction.
type ArchiveRepo struct{ DB *sql.DB }

func NewArchiveRepo(db *sql.DB) *ArchiveRepo { return &ArchiveRepo{DB: db} }

// ArchiveFilter narrows List.  Zero values mean "any".
type ArchiveFilter struct {
	Status   string
	ClientID uint64
}

func (r *ArchiveRepo) List(ctx context.Context, f ArchiveFilter) ([]model.Archive, error) {
	q := "SELECT " + archiveColumns + " FROM archives WHERE 1=1"
	var args []any
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.ClientID != 0 {
		q += " AND client_id = ?"
		args = append(args, f.ClientID)
	}
	rows, err := r.DB.QueryContext(ctx, q+" ORDER BY archived_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Archive{}
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ArchiveRepo) GetByID(ctx context.Context, id uint64) (model.Archive, error) {
	a, err := scanArchive(r.DB.QueryRowContext(ctx,
		"SELECT "+archiveColumns+" FROM archives WHERE id = ?", id))
	return a, classify(err)
}
