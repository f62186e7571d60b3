package booking

import (
	"context"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

// MarkOccupied flags a room as holding an active booking.  It must run in
// the transaction that creates or moves the booking.
func MarkOccupied(ctx context.Context, tx store.Tx, roomID uint64) error {
	return tx.SetRoomAvailability(ctx, roomID, model.RoomOccupied)
}

// MarkAvailable releases a room.  A room that no longer exists is ignored.
func MarkAvailable(ctx context.Context, tx store.Tx, roomID uint64) error {
	return tx.SetRoomAvailability(ctx, roomID, model.RoomAvailable)
}
