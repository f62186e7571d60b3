package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/queue"
	"github.com/hotelops/hotel-backend/internal/store/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Emit(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) named(name string) []queue.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []queue.Event
	for _, ev := range r.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	st       *memory.Store
	svc      *Service
	sweeper  *Sweeper
	events   *recorder
	now      time.Time
	clientID uint64
	room101  uint64
	room102  uint64
}

var staff = Actor{UserID: 1, Role: model.RoleUser}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		st:     memory.New(),
		events: &recorder{},
		now:    time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
	}
	opts := Options{
		Notifier: f.events,
		Lead:     10 * time.Minute,
		Now:      func() time.Time { return f.now },
	}
	f.svc = NewService(f.st, opts)
	f.sweeper = NewSweeper(f.st, opts)
	f.clientID = f.st.AddClient(model.Client{Name: "Ana Gómez", Document: "CC-1001", Email: "ana@example.com"})
	f.room101 = f.st.AddRoom(model.Room{Number: 101, Type: "double", Capacity: 2, NightlyRate: decimal.NewFromInt(100)})
	f.room102 = f.st.AddRoom(model.Room{Number: 102, Type: "suite", Capacity: 4, NightlyRate: decimal.NewFromInt(180)})
	return f
}

func (f *fixture) request(roomID uint64, status string) CreateRequest {
	return CreateRequest{
		ClientID:      f.clientID,
		RoomID:        roomID,
		CheckIn:       time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2025, 1, 12, 14, 0, 0, 0, time.UTC),
		GuestCount:    2,
		PaymentMethod: "card",
		Status:        status,
		Value:         decimal.NewFromInt(200),
	}
}

func (f *fixture) create(roomID uint64, status string) CreateResult {
	f.t.Helper()
	res, err := f.svc.Create(context.Background(), staff, f.request(roomID, status))
	if err != nil {
		f.t.Fatalf("create booking in room %d: %v", roomID, err)
	}
	return res
}

func (f *fixture) roomAvailability(id uint64) string {
	f.t.Helper()
	r, ok := f.st.Room(id)
	if !ok {
		f.t.Fatalf("room %d missing", id)
	}
	return r.Availability
}

// assertRoomConsistency checks that rooms with a booking are occupied and
// occupied rooms have a booking.
func (f *fixture) assertRoomConsistency() {
	f.t.Helper()
	booked := map[uint64]bool{}
	for _, b := range f.st.Bookings() {
		booked[b.RoomID] = true
		if got := f.roomAvailability(b.RoomID); got != model.RoomOccupied {
			f.t.Errorf("booking %d: room %d is %q, want occupied", b.ID, b.RoomID, got)
		}
	}
	for _, id := range []uint64{f.room101, f.room102} {
		if f.roomAvailability(id) == model.RoomOccupied && !booked[id] {
			f.t.Errorf("room %d is occupied without a booking", id)
		}
	}
}

func incomesForBooking(st *memory.Store, bookingID uint64) []model.Income {
	var out []model.Income
	for _, in := range st.Incomes() {
		if in.BookingID != nil && *in.BookingID == bookingID {
			out = append(out, in)
		}
	}
	return out
}

func incomesForArchive(st *memory.Store, archiveID uint64) []model.Income {
	var out []model.Income
	for _, in := range st.Incomes() {
		if in.ArchiveID != nil && *in.ArchiveID == archiveID {
			out = append(out, in)
		}
	}
	return out
}
