package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Room availability values.  Occupied is owned by the booking engine;
// staff may only move a room between available and maintenance.
const (
	RoomAvailable   = "available"
	RoomOccupied    = "occupied"
	RoomMaintenance = "maintenance"
)

// Room mirrors the `rooms` table.
//
// Fields:
//  Number       – unique room number shown to staff.
//  Type         – room category; copied onto bookings at creation.
//  NightlyRate  – DECIMAL(12,2) list price.
//  Availability – available, occupied or maintenance.
type Room struct {
	ID           uint64          // rooms.id
	Number       uint32          // rooms.number
	Type         string          // rooms.type
	Capacity     uint32          // rooms.capacity
	NightlyRate  decimal.Decimal // rooms.nightly_rate
	Availability string          // rooms.availability
	Amenities    string          // rooms.amenities
	View         string          // rooms.view
	Notes        string          // rooms.notes
	IsDeleted    bool            // rooms.is_deleted
	CreatedAt    time.Time       // rooms.created_at
	UpdatedAt    time.Time       // rooms.updated_at
}

// IsValidAvailability reports whether s is a known availability value.
func IsValidAvailability(s string) bool {
	return s == RoomAvailable || s == RoomOccupied || s == RoomMaintenance
}
