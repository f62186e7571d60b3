// Package queue defines the event payload published to the broker and the
// background consumer that records every event in a log file.
package queue

// Event names.
const (
	EventNearExpiry      = "near_expiry"      // booking checks out within the lead window
	EventExpired         = "expired"          // sweeper archived an overdue booking
	EventBookingCreated  = "booking_created"  // booking inserted
	EventBookingArchived = "booking_archived" // booking deleted or refunded by staff
)

// Event is published after the transaction that produced it committed.
// It carries enough information for dashboards and the log consumer to
// work without querying the primary database.  Timestamps are rendered in
// the hotel time zone using the API wire layout.
type Event struct {
	Name          string `json:"event"`
	BookingID     uint64 `json:"booking_id"`
	ArchiveID     uint64 `json:"archive_id,omitempty"`
	ClientID      uint64 `json:"client_id,omitempty"`
	ClientName    string `json:"client_name,omitempty"`
	RoomID        uint64 `json:"room_id,omitempty"`
	RoomNumber    uint32 `json:"room_number,omitempty"`
	CheckOut      string `json:"check_out,omitempty"`
	Status        string `json:"status,omitempty"`
	Value         string `json:"value,omitempty"`
	IncomeChanged bool   `json:"income_changed,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
