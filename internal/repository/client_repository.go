package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

const clientColumns = `id, name, email, phone, document, birth_date, preferences, comments, is_deleted,
       created_at, updated_at`

func scanClient(s rowScanner) (model.Client, error) {
	var (
		c     model.Client
		birth sql.NullTime
	)
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Document, &birth, &c.Preferences,
		&c.Comments, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	if birth.Valid {
		t := birth.Time
		c.BirthDate = &t
	}
	return c, err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// GetClient reads a live client inside the transaction.
func (t *sqlTx) GetClient(ctx context.Context, id uint64) (model.Client, error) {
	c, err := scanClient(t.tx.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = ? AND is_deleted = 0", id))
	return c, classify(err)
}

// ClientRepo serves the client administration endpoints.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

// ClientPatch lists the client fields staff may change.
type ClientPatch struct {
	Name        *string
	Email       *string
	Phone       *string
	Document    *string
	BirthDate   *time.Time
	Preferences *string
	Comments    *string
}

// List returns live clients, or only soft deleted ones when deleted is true.
func (r *ClientRepo) List(ctx context.Context, deleted bool) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE is_deleted = ? ORDER BY name, id", deleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.Client, error) {
	c, err := scanClient(r.DB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = ? AND is_deleted = 0", id))
	return c, classify(err)
}

// Create inserts a client.  Duplicate email or document yields
// store.ErrDuplicate.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO clients (name, email, phone, document, birth_date, preferences, comments,
		                      is_deleted, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,0,?,?)`,
		c.Name, c.Email, c.Phone, c.Document, nullTime(c.BirthDate), c.Preferences, c.Comments, now, now)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (r *ClientRepo) Update(ctx context.Context, id uint64, p ClientPatch) (model.Client, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Client{}, err
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Document != nil {
		c.Document = *p.Document
	}
	if p.BirthDate != nil {
		c.BirthDate = p.BirthDate
	}
	if p.Preferences != nil {
		c.Preferences = *p.Preferences
	}
	if p.Comments != nil {
		c.Comments = *p.Comments
	}
	c.UpdatedAt = time.Now().UTC()
	_, err = r.DB.ExecContext(ctx,
		`UPDATE clients SET name=?, email=?, phone=?, document=?, birth_date=?, preferences=?, comments=?,
		        updated_at=? WHERE id=? AND is_deleted = 0`,
		c.Name, c.Email, c.Phone, c.Document, nullTime(c.BirthDate), c.Preferences, c.Comments,
		c.UpdatedAt, id)
	if err != nil {
		return model.Client{}, classify(err)
	}
	return c, nil
}

// SoftDelete flags a live client as deleted.  A client still referenced
// by a booking yields ErrConflict.  The client row is locked first; a
// concurrent booking insert waits on it through the foreign key check.
func (r *ClientRepo) SoftDelete(ctx context.Context, id uint64) error {
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
	var lockedID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM clients WHERE id = ? AND is_deleted = 0 FOR UPDATE", id).Scan(&lockedID)
	if err != nil {
		return classify(err)
	}
	var active int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE client_id = ?", id).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE clients SET is_deleted = 1, updated_at = ? WHERE id = ?", time.Now().UTC(), id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Restore brings back a soft deleted client.
func (r *ClientRepo) Restore(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET is_deleted = 0, updated_at = ? WHERE id = ? AND is_deleted = 1",
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
