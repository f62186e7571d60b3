package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

const bookingViewSelect = `SELECT b.id, b.client_id, b.room_id, b.check_in, b.check_out, b.room_type,
       b.guest_count, b.payment_method, b.status, b.notes, b.value, b.notified,
       b.created_at, b.updated_at, c.name, r.number
  FROM bookings b
  JOIN clients c ON c.id = b.client_id
  JOIN rooms r ON r.id = b.room_id`

func scanBookingView(s rowScanner) (model.BookingView, error) {
	var v model.BookingView
	err := s.Scan(&v.ID, &v.ClientID, &v.RoomID, &v.CheckIn, &v.CheckOut, &v.RoomType,
		&v.GuestCount, &v.PaymentMethod, &v.Status, &v.Notes, &v.Value, &v.Notified,
		&v.CreatedAt, &v.UpdatedAt, &v.ClientName, &v.RoomNumber)
	return v, err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryBookingViews(ctx context.Context, q queryer, query string, args ...any) ([]model.BookingView, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingView{}
	for rows.Next() {
		v, err := scanBookingView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) ListBookings(ctx context.Context, f store.BookingFilter) ([]model.BookingView, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, f.Status)
	}
	if f.ClientID != 0 {
		where = append(where, "b.client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.RoomID != 0 {
		where = append(where, "b.room_id = ?")
		args = append(args, f.RoomID)
	}
	q := bookingViewSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY b.id"
	return queryBookingViews(ctx, s.DB, q, args...)
}

func (s *Store) GetBooking(ctx context.Context, id uint64) (model.BookingView, error) {
	v, err := scanBookingView(s.DB.QueryRowContext(ctx, bookingViewSelect+" WHERE b.id = ?", id))
	return v, classify(err)
}

func (s *Store) CheckingOutBetween(ctx context.Context, from, to time.Time) ([]model.BookingView, error) {
	return queryBookingViews(ctx, s.DB,
		bookingViewSelect+" WHERE b.check_out > ? AND b.check_out <= ? ORDER BY b.check_out, b.id",
		from.UTC(), to.UTC())
}

func (s *Store) Overdue(ctx context.Context, now time.Time) ([]model.BookingView, error) {
	return queryBookingViews(ctx, s.DB,
		bookingViewSelect+" WHERE b.check_out <= ? ORDER BY b.check_out, b.id", now.UTC())
}

// InsertBooking stores b and fills in its id and timestamps.
func (t *sqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO bookings (client_id, room_id, check_in, check_out, room_type, guest_count,
		                       payment_method, status, notes, value, notified, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ClientID, b.RoomID, b.CheckIn.UTC(), b.CheckOut.UTC(), b.RoomType, b.GuestCount,
		b.PaymentMethod, b.Status, b.Notes, b.Value, b.Notified, now, now)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

func (t *sqlTx) LockBooking(ctx context.Context, id uint64) (model.Booking, error) {
	var b model.Booking
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, client_id, room_id, check_in, check_out, room_type, guest_count,
		        payment_method, status, notes, value, notified, created_at, updated_at
		   FROM bookings WHERE id = ? FOR UPDATE`, id).
		Scan(&b.ID, &b.ClientID, &b.RoomID, &b.CheckIn, &b.CheckOut, &b.RoomType, &b.GuestCount,
			&b.PaymentMethod, &b.Status, &b.Notes, &b.Value, &b.Notified, &b.CreatedAt, &b.UpdatedAt)
	return b, classify(err)
}

func (t *sqlTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bookings SET client_id=?, room_id=?, check_in=?, check_out=?, room_type=?, guest_count=?,
		        payment_method=?, status=?, notes=?, value=?, notified=?, updated_at=?
		  WHERE id=?`,
		b.ClientID, b.RoomID, b.CheckIn.UTC(), b.CheckOut.UTC(), b.RoomType, b.GuestCount,
		b.PaymentMethod, b.Status, b.Notes, b.Value, b.Notified, now, b.ID)
	if err != nil {
		return classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for an unchanged row too; confirm the row exists.
		var one int
		if err := t.tx.QueryRowContext(ctx, "SELECT 1 FROM bookings WHERE id=?", b.ID).Scan(&one); err != nil {
			return classify(err)
		}
	}
	b.UpdatedAt = now
	return nil
}

func (t *sqlTx) DeleteBooking(ctx context.Context, id uint64) error {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	if err != nil {
		return classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *sqlTx) LockUnnotifiedCheckingOut(ctx context.Context, from, to time.Time) ([]model.BookingView, error) {
	return queryBookingViews(ctx, t.tx,
		bookingViewSelect+` WHERE b.notified = 0 AND b.check_out > ? AND b.check_out <= ?
		 ORDER BY b.check_out, b.id FOR UPDATE OF b`, from.UTC(), to.UTC())
}

func (t *sqlTx) MarkNotified(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := t.tx.ExecContext(ctx,
		"UPDATE bookings SET notified = 1 WHERE id IN ("+placeholders(len(ids))+")", args...)
	return err
}

func (t *sqlTx) LockOverdue(ctx context.Context, now time.Time) ([]model.BookingView, error) {
	return queryBookingViews(ctx, t.tx,
		bookingViewSelect+" WHERE b.check_out <= ? ORDER BY b.check_out, b.id FOR UPDATE OF b", now.UTC())
}
