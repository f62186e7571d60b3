package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

const roomColumns = `id, number, type, capacity, nightly_rate, availability, amenities, room_view, notes,
       is_deleted, created_at, updated_at`

func scanRoom(s rowScanner) (model.Room, error) {
	var r model.Room
	err := s.Scan(&r.ID, &r.Number, &r.Type, &r.Capacity, &r.NightlyRate, &r.Availability,
		&r.Amenities, &r.View, &r.Notes, &r.IsDeleted, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// LockRoom reads a live room and locks it until the transaction ends.
func (t *sqlTx) LockRoom(ctx context.Context, id uint64) (model.Room, error) {
	r, err := scanRoom(t.tx.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id = ? AND is_deleted = 0 FOR UPDATE", id))
	return r, classify(err)
}

func (t *sqlTx) SetRoomAvailability(ctx context.Context, id uint64, availability string) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE rooms SET availability = ?, updated_at = ? WHERE id = ?",
		availability, time.Now().UTC(), id)
	return err
}

// RoomRepo serves the room administration endpoints.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

// RoomPatch lists the room fields staff may change.
type RoomPatch struct {
	Number       *uint32
	Type         *string
	Capacity     *uint32
	NightlyRate  *decimal.Decimal
	Availability *string
	Amenities    *string
	View         *string
	Notes        *string
}

func (r *RoomRepo) List(ctx context.Context, includeDeleted bool) ([]model.Room, error) {
	q := "SELECT " + roomColumns + " FROM rooms"
	if !includeDeleted {
		q += " WHERE is_deleted = 0"
	}
	rows, err := r.DB.QueryContext(ctx, q+" ORDER BY number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	room, err := scanRoom(r.DB.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id = ? AND is_deleted = 0", id))
	return room, classify(err)
}

// Create inserts a room.  A duplicate number yields store.ErrDuplicate.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	now := time.Now().UTC()
	if room.Availability == "" {
		room.Availability = model.RoomAvailable
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO rooms (number, type, capacity, nightly_rate, availability, amenities, room_view, notes,
		                    is_deleted, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,0,?,?)`,
		room.Number, room.Type, room.Capacity, room.NightlyRate, room.Availability,
		room.Amenities, room.View, room.Notes, now, now)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	room.CreatedAt, room.UpdatedAt = now, now
	return nil
}

// Update applies p under a row lock.  Availability may only move between
// available and maintenance, and never while the room is occupied;
// violations return ErrConflict.
func (r *RoomRepo) Update(ctx context.Context, id uint64, p RoomPatch) (model.Room, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Room{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := (&sqlTx{tx: tx}).LockRoom(ctx, id)
	if err != nil {
		return model.Room{}, err
	}
	if p.Availability != nil && *p.Availability != room.Availability {
		if room.Availability == model.RoomOccupied || *p.Availability == model.RoomOccupied {
			return model.Room{}, ErrConflict
		}
		room.Availability = *p.Availability
	}
	if p.Number != nil {
		room.Number = *p.Number
	}
	if p.Type != nil {
		room.Type = *p.Type
	}
	if p.Capacity != nil {
		room.Capacity = *p.Capacity
	}
	if p.NightlyRate != nil {
		room.NightlyRate = *p.NightlyRate
	}
	if p.Amenities != nil {
		room.Amenities = *p.Amenities
	}
	if p.View != nil {
		room.View = *p.View
	}
	if p.Notes != nil {
		room.Notes = *p.Notes
	}
	room.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE rooms SET number=?, type=?, capacity=?, nightly_rate=?, availability=?, amenities=?,
		        room_view=?, notes=?, updated_at=? WHERE id=?`,
		room.Number, room.Type, room.Capacity, room.NightlyRate, room.Availability, room.Amenities,
		room.View, room.Notes, room.UpdatedAt, id)
	if err != nil {
		return model.Room{}, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return model.Room{}, err
	}
	committed = true
	return room, nil
}

// SoftDelete hides a room.  An occupied room cannot be deleted.
func (r *RoomRepo) SoftDelete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	room, err := (&sqlTx{tx: tx}).LockRoom(ctx, id)
	if err != nil {
		return err
	}
	if room.Availability == model.RoomOccupied {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE rooms SET is_deleted = 1, updated_at = ? WHERE id = ?", time.Now().UTC(), id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
