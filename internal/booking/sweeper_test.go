package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/queue"
)

func TestSweeperExpiresPendingBookingOnce(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusPending)
	ctx := context.Background()

	f.now = time.Date(2025, 1, 12, 14, 0, 1, 0, time.UTC)
	if !f.sweeper.RunOnce(ctx) {
		t.Fatal("sweeper skipped")
	}
	if _, ok := f.st.Booking(res.BookingID); ok {
		t.Fatal("overdue booking still active")
	}
	archives := f.st.Archives()
	if len(archives) != 1 || archives[0].Status != model.StatusExpired || archives[0].BookingID != res.BookingID {
		t.Fatalf("archives = %+v", archives)
	}
	if got := f.roomAvailability(f.room101); got != model.RoomAvailable {
		t.Errorf("room 101 = %q, want available", got)
	}
	expired := f.events.named(queue.EventExpired)
	if len(expired) != 1 || expired[0].BookingID != res.BookingID || expired[0].ArchiveID != archives[0].ID {
		t.Fatalf("expired events = %+v", expired)
	}

	f.now = f.now.Add(time.Minute)
	f.sweeper.RunOnce(ctx)
	if n := len(f.events.named(queue.EventExpired)); n != 1 {
		t.Errorf("expired events after second tick = %d, want 1", n)
	}
	f.assertRoomConsistency()
}

func TestSweeperCompletesIncomeOfExpiredConfirmedBooking(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusConfirmed)

	f.now = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	f.sweeper.RunOnce(context.Background())

	a := f.st.Archives()
	if len(a) != 1 {
		t.Fatalf("archives = %d", len(a))
	}
	if n := len(incomesForBooking(f.st, res.BookingID)); n != 0 {
		t.Errorf("incomes left on booking = %d", n)
	}
	in := incomesForArchive(f.st, a[0].ID)
	if len(in) != 1 || in[0].Status != model.IncomeCompleted {
		t.Fatalf("archive incomes = %+v", in)
	}
}

func TestSweeperNearExpiryNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusConfirmed)
	ctx := context.Background()

	f.now = time.Date(2025, 1, 12, 13, 52, 0, 0, time.UTC)
	f.sweeper.RunOnce(ctx)
	f.now = f.now.Add(time.Minute)
	f.sweeper.RunOnce(ctx)

	near := f.events.named(queue.EventNearExpiry)
	if len(near) != 1 {
		t.Fatalf("near_expiry events = %d, want 1", len(near))
	}
	ev := near[0]
	if ev.BookingID != res.BookingID || ev.ClientName != "Ana Gómez" || ev.CheckOut != "2025-01-12T14:00:00" {
		t.Errorf("event = %+v", ev)
	}
	if _, ok := f.st.Booking(res.BookingID); !ok {
		t.Error("near-expiry pass must not archive")
	}
}

func TestSweeperFailedPassRollsBackAndNextTickRecovers(t *testing.T) {
	f := newFixture(t)
	first := f.create(f.room101, model.StatusConfirmed)
	f.create(f.room102, model.StatusPending)
	ctx := context.Background()

	f.now = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	f.st.FailOn("DeleteBooking", errors.New("lock wait timeout"))
	f.sweeper.RunOnce(ctx)

	if n := len(f.st.Archives()); n != 0 {
		t.Fatalf("failed pass left %d archives", n)
	}
	if _, ok := f.st.Booking(first.BookingID); !ok {
		t.Fatal("failed pass removed a booking")
	}
	if n := len(f.events.named(queue.EventExpired)); n != 0 {
		t.Fatalf("failed pass emitted %d events", n)
	}
	f.assertRoomConsistency()

	f.sweeper.RunOnce(ctx)
	if n := len(f.st.Bookings()); n != 0 {
		t.Errorf("bookings after recovery = %d", n)
	}
	if n := len(f.events.named(queue.EventExpired)); n != 2 {
		t.Errorf("expired events after recovery = %d, want 2", n)
	}
	f.assertRoomConsistency()
}

func TestSweeperSkipsOverlappingRun(t *testing.T) {
	f := newFixture(t)
	f.sweeper.running.Store(true)
	if f.sweeper.RunOnce(context.Background()) {
		t.Fatal("RunOnce should skip while another run is in progress")
	}
	f.sweeper.running.Store(false)
	if !f.sweeper.RunOnce(context.Background()) {
		t.Fatal("RunOnce should run once the guard is released")
	}
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	f := newFixture(t)
	if _, err := f.sweeper.Schedule("every now and then"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	c, err := f.sweeper.Schedule("@every 60s")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if n := len(c.Entries()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
}
