package model

import "time"

// Client is a hotel guest.  Rows are soft deleted so that archived
// bookings and income rows keep a valid reference.
type Client struct {
	ID          uint64     // clients.id
	Name        string     // clients.name
	Email       string     // clients.email (unique)
	Phone       string     // clients.phone
	Document    string     // clients.document (unique)
	BirthDate   *time.Time // clients.birth_date (nullable)
	Preferences string     // clients.preferences
	Comments    string     // clients.comments
	IsDeleted   bool       // clients.is_deleted
	CreatedAt   time.Time  // clients.created_at
	UpdatedAt   time.Time  // clients.updated_at
}
