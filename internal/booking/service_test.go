package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/queue"
	"github.com/hotelops/hotel-backend/internal/store"
)

func TestCreateConfirmedBookingOccupiesRoomAndRecordsIncome(t *testing.T) {
	f := newFixture(t)

	res := f.create(f.room101, model.StatusConfirmed)
	if !res.IncomeCreated {
		t.Fatal("confirmed booking should create an income")
	}
	b, ok := f.st.Booking(res.BookingID)
	if !ok {
		t.Fatal("booking not stored")
	}
	if b.RoomType != "double" {
		t.Errorf("room type = %q, want copied from room", b.RoomType)
	}
	if got := f.roomAvailability(f.room101); got != model.RoomOccupied {
		t.Errorf("room 101 = %q, want occupied", got)
	}
	incomes := incomesForBooking(f.st, res.BookingID)
	if len(incomes) != 1 {
		t.Fatalf("incomes = %d, want 1", len(incomes))
	}
	in := incomes[0]
	if !in.Amount.Equal(decimal.NewFromInt(200)) || in.Status != model.IncomeConfirmed {
		t.Errorf("income = %s %s, want 200 confirmed", in.Amount, in.Status)
	}
	if in.ClientName != "Ana Gómez" || in.ClientDocument != "CC-1001" {
		t.Errorf("income client = %q/%q", in.ClientName, in.ClientDocument)
	}
	if !in.PaidAt.Equal(f.now) {
		t.Errorf("paid_at = %v, want %v", in.PaidAt, f.now)
	}
	if got := f.events.named(queue.EventBookingCreated); len(got) != 1 || got[0].RoomNumber != 101 {
		t.Errorf("booking_created events = %+v", got)
	}
	f.assertRoomConsistency()
}

func TestCreateRejectsOccupiedRoom(t *testing.T) {
	f := newFixture(t)
	f.create(f.room101, model.StatusConfirmed)

	_, err := f.svc.Create(context.Background(), staff, f.request(f.room101, model.StatusConfirmed))
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("second booking: got %v, want conflict", err)
	}
	if n := len(f.st.Bookings()); n != 1 {
		t.Errorf("bookings = %d, want 1", n)
	}
	if n := len(f.st.Incomes()); n != 1 {
		t.Errorf("incomes = %d, want 1", n)
	}
	f.assertRoomConsistency()
}

func TestCreateValidationOrder(t *testing.T) {
	f := newFixture(t)
	maintenance := f.st.AddRoom(model.Room{Number: 300, Availability: model.RoomMaintenance})
	deleted := f.st.AddRoom(model.Room{Number: 301, IsDeleted: true})

	cases := []struct {
		name string
		edit func(*CreateRequest)
		kind apperr.Kind
	}{
		{"missing client", func(r *CreateRequest) { r.ClientID = 0 }, apperr.KindValidation},
		{"missing payment method", func(r *CreateRequest) { r.PaymentMethod = " " }, apperr.KindValidation},
		{"no guests", func(r *CreateRequest) { r.GuestCount = 0 }, apperr.KindValidation},
		{"terminal status", func(r *CreateRequest) { r.Status = model.StatusVacated }, apperr.KindValidation},
		{"unknown status", func(r *CreateRequest) { r.Status = "lost" }, apperr.KindValidation},
		{"negative value", func(r *CreateRequest) { r.Value = decimal.NewFromInt(-1) }, apperr.KindValidation},
		{"unknown room", func(r *CreateRequest) { r.RoomID = 999 }, apperr.KindNotFound},
		{"soft deleted room", func(r *CreateRequest) { r.RoomID = deleted }, apperr.KindNotFound},
		// room checks run before the date check
		{"room in maintenance with bad dates", func(r *CreateRequest) {
			r.RoomID = maintenance
			r.CheckOut = r.CheckIn
		}, apperr.KindConflict},
		{"check-out equal to check-in", func(r *CreateRequest) { r.CheckOut = r.CheckIn }, apperr.KindValidation},
		{"unknown client", func(r *CreateRequest) { r.ClientID = 999 }, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request(f.room101, model.StatusConfirmed)
			tc.edit(&req)
			_, err := f.svc.Create(context.Background(), staff, req)
			if got := apperr.KindOf(err); got != tc.kind {
				t.Fatalf("kind = %v (%v), want %v", got, err, tc.kind)
			}
		})
	}
	if n := len(f.st.Bookings()); n != 0 {
		t.Errorf("rejected creates left %d bookings", n)
	}
	if got := f.roomAvailability(f.room101); got != model.RoomAvailable {
		t.Errorf("room 101 = %q after rejected creates", got)
	}
}

func TestCreateClientErrorIsDistinctFromRoom(t *testing.T) {
	f := newFixture(t)
	req := f.request(f.room101, model.StatusConfirmed)
	req.ClientID = 42
	_, err := f.svc.Create(context.Background(), staff, req)
	if apperr.Message(err) != "client not found" {
		t.Fatalf("message = %q", apperr.Message(err))
	}
}

func TestCreateDefaultsToPending(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, "")
	b, _ := f.st.Booking(res.BookingID)
	if b.Status != model.StatusPending || res.IncomeCreated {
		t.Fatalf("status = %q, income = %v", b.Status, res.IncomeCreated)
	}
}

func TestAnonymousActorIsRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), Actor{}, f.request(f.room101, model.StatusPending))
	if apperr.KindOf(err) != apperr.KindPermission {
		t.Fatalf("got %v, want permission error", err)
	}
}

func TestIncomeUniquenessAcrossRepeatedConfirmation(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusPending)
	ctx := context.Background()

	confirmed := model.StatusConfirmed
	checkedIn := model.StatusCheckedIn
	steps := []string{confirmed, confirmed, checkedIn, confirmed, confirmed}
	created := 0
	for _, st := range steps {
		st := st
		out, err := f.svc.Update(ctx, staff, res.BookingID, Patch{Status: &st})
		if err != nil {
			t.Fatalf("update to %s: %v", st, err)
		}
		if out.IncomeCreated {
			created++
		}
	}
	if created != 1 {
		t.Errorf("income created %d times, want 1", created)
	}
	if n := len(incomesForBooking(f.st, res.BookingID)); n != 1 {
		t.Errorf("live incomes = %d, want 1", n)
	}
}

func TestUpdateMovesRoom(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusPending)

	out, err := f.svc.Update(context.Background(), staff, res.BookingID, Patch{RoomID: &f.room102})
	if err != nil {
		t.Fatalf("move room: %v", err)
	}
	if out.Booking.RoomID != f.room102 || out.Booking.RoomType != "suite" || out.Booking.RoomNumber != 102 {
		t.Errorf("booking after move = %+v", out.Booking)
	}
	if f.roomAvailability(f.room101) != model.RoomAvailable || f.roomAvailability(f.room102) != model.RoomOccupied {
		t.Errorf("rooms after move: 101=%s 102=%s", f.roomAvailability(f.room101), f.roomAvailability(f.room102))
	}
	f.assertRoomConsistency()
}

func TestUpdateRejectsUnavailableTargetRoom(t *testing.T) {
	f := newFixture(t)
	first := f.create(f.room101, model.StatusPending)
	f.create(f.room102, model.StatusPending)

	_, err := f.svc.Update(context.Background(), staff, first.BookingID, Patch{RoomID: &f.room102})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("got %v, want conflict", err)
	}
	missing := uint64(77)
	_, err = f.svc.Update(context.Background(), staff, first.BookingID, Patch{RoomID: &missing})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("got %v, want not found", err)
	}
	b, _ := f.st.Booking(first.BookingID)
	if b.RoomID != f.room101 {
		t.Errorf("booking moved to %d despite rejection", b.RoomID)
	}
	f.assertRoomConsistency()
}

func TestUpdateValidation(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusPending)
	ctx := context.Background()

	expired := model.StatusExpired
	if _, err := f.svc.Update(ctx, staff, res.BookingID, Patch{Status: &expired}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("terminal status: %v", err)
	}
	early := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	if _, err := f.svc.Update(ctx, staff, res.BookingID, Patch{CheckOut: &early}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("check_out before check_in: %v", err)
	}
	if _, err := f.svc.Update(ctx, staff, res.BookingID, Patch{}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("empty patch: %v", err)
	}
	if _, err := f.svc.Update(ctx, staff, 999, Patch{Status: new(string)}); err == nil {
		t.Error("update of unknown booking should fail")
	}
	notes := "late arrival"
	if _, err := f.svc.Update(ctx, staff, 999, Patch{Notes: &notes}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown booking: %v", err)
	}
}

func TestUpdateCheckOutResetsNotified(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusConfirmed)

	f.now = time.Date(2025, 1, 12, 13, 55, 0, 0, time.UTC)
	f.sweeper.RunOnce(context.Background())
	if b, _ := f.st.Booking(res.BookingID); !b.Notified {
		t.Fatal("sweeper should have flagged the booking")
	}
	later := time.Date(2025, 1, 13, 14, 0, 0, 0, time.UTC)
	if _, err := f.svc.Update(context.Background(), staff, res.BookingID, Patch{CheckOut: &later}); err != nil {
		t.Fatalf("extend stay: %v", err)
	}
	if b, _ := f.st.Booking(res.BookingID); b.Notified {
		t.Error("moving check-out should re-arm the near-expiry alert")
	}
}

func TestDeleteConfirmedBookingArchivesAndMigratesIncome(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusConfirmed)
	before, _ := f.st.Booking(res.BookingID)

	out, err := f.svc.Delete(context.Background(), staff, res.BookingID, "")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out.Status != model.StatusVacated || !out.IncomeMigrated {
		t.Fatalf("result = %+v", out)
	}
	if _, ok := f.st.Booking(res.BookingID); ok {
		t.Error("booking row still present")
	}
	archives := f.st.Archives()
	if len(archives) != 1 {
		t.Fatalf("archives = %d, want 1", len(archives))
	}
	a := archives[0]
	if a.BookingID != before.ID || a.ClientID != before.ClientID || a.RoomID != before.RoomID ||
		!a.CheckIn.Equal(before.CheckIn) || !a.CheckOut.Equal(before.CheckOut) ||
		a.RoomType != before.RoomType || a.GuestCount != before.GuestCount ||
		a.PaymentMethod != before.PaymentMethod || a.Notes != before.Notes || !a.Value.Equal(before.Value) {
		t.Errorf("archive does not copy the booking: %+v vs %+v", a, before)
	}
	if !a.ArchivedAt.Equal(f.now) {
		t.Errorf("archived_at = %v", a.ArchivedAt)
	}
	if got := f.roomAvailability(f.room101); got != model.RoomAvailable {
		t.Errorf("room 101 = %q, want available", got)
	}
	if n := len(incomesForBooking(f.st, res.BookingID)); n != 0 {
		t.Errorf("incomes still on booking: %d", n)
	}
	moved := incomesForArchive(f.st, a.ID)
	if len(moved) != 1 || moved[0].Status != model.IncomeCompleted {
		t.Fatalf("archive incomes = %+v", moved)
	}
	if ev := f.events.named(queue.EventBookingArchived); len(ev) != 1 || ev[0].ArchiveID != a.ID {
		t.Errorf("booking_archived events = %+v", ev)
	}
	f.assertRoomConsistency()
}

func TestArchivedEventNamesClientAndRoom(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusPending)

	if _, err := f.svc.Refund(context.Background(), staff, res.BookingID, "duplicate"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	ev := f.events.named(queue.EventBookingArchived)
	if len(ev) != 1 {
		t.Fatalf("booking_archived events = %d, want 1", len(ev))
	}
	if ev[0].ClientName != "Ana Gómez" || ev[0].RoomNumber != 101 {
		t.Errorf("client = %q, room = %d", ev[0].ClientName, ev[0].RoomNumber)
	}
	if ev[0].BookingID != res.BookingID || ev[0].Status != model.StatusRefund {
		t.Errorf("event = %+v", ev[0])
	}
}

func TestDeleteStatusMapping(t *testing.T) {
	cases := []struct {
		status        string
		archiveStatus string
	}{
		{model.StatusPending, model.StatusCancelled},
		{model.StatusConfirmed, model.StatusVacated},
		{model.StatusCheckedIn, model.StatusVacated},
		{model.StatusCheckedOut, model.StatusVacated},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			f := newFixture(t)
			res := f.create(f.room101, tc.status)
			out, err := f.svc.Delete(context.Background(), staff, res.BookingID, "")
			if err != nil {
				t.Fatalf("delete: %v", err)
			}
			if out.Status != tc.archiveStatus {
				t.Errorf("archive status = %q, want %q", out.Status, tc.archiveStatus)
			}
			if n := len(f.st.Archives()); n != 1 {
				t.Errorf("archives = %d", n)
			}
		})
	}
}

func TestRefundMarksIncomeRefunded(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusConfirmed)

	out, err := f.svc.Refund(context.Background(), staff, res.BookingID, "guest complaint")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if out.Status != model.StatusRefund {
		t.Errorf("archive status = %q", out.Status)
	}
	a := f.st.Archives()[0]
	if a.Reason != "guest complaint" {
		t.Errorf("reason = %q", a.Reason)
	}
	in := incomesForArchive(f.st, a.ID)
	if len(in) != 1 || in[0].Status != model.IncomeRefunded {
		t.Fatalf("incomes = %+v", in)
	}
}

func TestDeleteIsAtomicWhenIncomeMigrationFails(t *testing.T) {
	f := newFixture(t)
	res := f.create(f.room101, model.StatusConfirmed)
	f.st.FailOn("InsertIncome", errors.New("check constraint violated"))

	_, err := f.svc.Delete(context.Background(), staff, res.BookingID, "")
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("got %v, want internal error", err)
	}
	if _, ok := f.st.Booking(res.BookingID); !ok {
		t.Error("booking removed despite failure")
	}
	if n := len(f.st.Archives()); n != 0 {
		t.Errorf("archives = %d, want 0", n)
	}
	if got := f.roomAvailability(f.room101); got != model.RoomOccupied {
		t.Errorf("room 101 = %q, want occupied", got)
	}
	if n := len(incomesForBooking(f.st, res.BookingID)); n != 1 {
		t.Errorf("booking incomes = %d, want 1", n)
	}
	if n := len(f.events.named(queue.EventBookingArchived)); n != 0 {
		t.Errorf("event emitted for a rolled back delete")
	}
}

func TestDeleteUnknownBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Delete(context.Background(), staff, 5, "")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestListAndGetDenormalise(t *testing.T) {
	f := newFixture(t)
	first := f.create(f.room101, model.StatusPending)
	f.create(f.room102, model.StatusConfirmed)
	ctx := context.Background()

	all, err := f.svc.List(ctx, staff, store.BookingFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("list = %d, %v", len(all), err)
	}
	confirmed, _ := f.svc.List(ctx, staff, store.BookingFilter{Status: model.StatusConfirmed})
	if len(confirmed) != 1 || confirmed[0].RoomNumber != 102 {
		t.Errorf("confirmed filter = %+v", confirmed)
	}
	if _, err := f.svc.List(ctx, staff, store.BookingFilter{Status: "nope"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad filter: %v", err)
	}
	v, err := f.svc.Get(ctx, staff, first.BookingID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.ClientName != "Ana Gómez" || v.RoomNumber != 101 {
		t.Errorf("view = %+v", v)
	}
	if _, err := f.svc.Get(ctx, staff, 404); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing booking: %v", err)
	}
}

func TestAlertsAndOverdueWindows(t *testing.T) {
	f := newFixture(t)
	f.create(f.room101, model.StatusConfirmed)
	ctx := context.Background()

	f.now = time.Date(2025, 1, 12, 13, 50, 0, 0, time.UTC)
	alerts, _ := f.svc.Alerts(ctx, staff)
	if len(alerts) != 1 {
		t.Errorf("alerts at lead boundary = %d, want 1", len(alerts))
	}
	overdue, _ := f.svc.Overdue(ctx, staff)
	if len(overdue) != 0 {
		t.Errorf("overdue before check-out = %d", len(overdue))
	}

	f.now = time.Date(2025, 1, 12, 14, 0, 0, 0, time.UTC)
	if overdue, _ := f.svc.Overdue(ctx, staff); len(overdue) != 1 {
		t.Errorf("overdue at check-out = %d, want 1", len(overdue))
	}
}

func TestIncomeStatusFor(t *testing.T) {
	cases := []struct{ current, archive, want string }{
		{model.IncomeConfirmed, model.StatusVacated, model.IncomeCompleted},
		{model.IncomeConfirmed, model.StatusExpired, model.IncomeCompleted},
		{model.IncomeConfirmed, model.StatusCancelled, model.IncomeAnnulled},
		{model.IncomeConfirmed, model.StatusRefund, model.IncomeRefunded},
		{model.IncomeRefunded, model.StatusVacated, model.IncomeRefunded},
		{model.IncomeCompleted, model.StatusRefund, model.IncomeCompleted},
	}
	for _, tc := range cases {
		if got := IncomeStatusFor(tc.current, tc.archive); got != tc.want {
			t.Errorf("IncomeStatusFor(%s, %s) = %s, want %s", tc.current, tc.archive, got, tc.want)
		}
	}
}

func TestParseWire(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	got, err := ParseWire("check_in", "2025-01-10T14:00:00", bogota)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 1, 10, 19, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}
	if FormatWire(got, bogota) != "2025-01-10T14:00:00" {
		t.Errorf("format round trip = %q", FormatWire(got, bogota))
	}
	_, err = ParseWire("check_out", "10/01/2025", bogota)
	if apperr.Message(err) != "invalid date format for check_out, use YYYY-MM-DDTHH:MM:SS" {
		t.Errorf("message = %q", apperr.Message(err))
	}
}
