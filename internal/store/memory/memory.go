// Package memory is an in-process implementation of the store ports.
// Transactions are serialised by a single mutex and work on a copy of the
// data that replaces the committed state only when the callback succeeds,
// so a failed transaction leaves no trace.  It enforces the same
// referential rules as the MySQL schema.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

// ErrIncomeOwner mirrors the CHECK constraint on incomes: exactly one of
// booking_id and archive_id must be set.
var ErrIncomeOwner = errors.New("memory: income must reference exactly one of booking or archive")

type state struct {
	clients  map[uint64]model.Client
	rooms    map[uint64]model.Room
	bookings map[uint64]model.Booking
	archives map[uint64]model.Archive
	incomes  map[uint64]model.Income

	nextClient, nextRoom, nextBooking, nextArchive, nextIncome uint64
}

func newState() *state {
	return &state{
		clients:  map[uint64]model.Client{},
		rooms:    map[uint64]model.Room{},
		bookings: map[uint64]model.Booking{},
		archives: map[uint64]model.Archive{},
		incomes:  map[uint64]model.Income{},
	}
}

func (s *state) clone() *state {
	c := *s
	c.clients = make(map[uint64]model.Client, len(s.clients))
	for k, v := range s.clients {
		c.clients[k] = v
	}
	c.rooms = make(map[uint64]model.Room, len(s.rooms))
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	c.bookings = make(map[uint64]model.Booking, len(s.bookings))
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	c.archives = make(map[uint64]model.Archive, len(s.archives))
	for k, v := range s.archives {
		c.archives[k] = v
	}
	c.incomes = make(map[uint64]model.Income, len(s.incomes))
	for k, v := range s.incomes {
		c.incomes[k] = v
	}
	return &c
}

// Store implements store.Store in memory.
type Store struct {
	mu     sync.Mutex
	st     *state
	faults map[string]error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), faults: map[string]error{}}
}

// FailOn makes the next call of the named Tx method (for example
// "InsertIncome") return err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&tx{st: work, faults: s.faults}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) ListBookings(ctx context.Context, f store.BookingFilter) ([]model.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.st.views(func(b model.Booking) bool {
		if f.Status != "" && b.Status != f.Status {
			return false
		}
		if f.ClientID != 0 && b.ClientID != f.ClientID {
			return false
		}
		if f.RoomID != 0 && b.RoomID != f.RoomID {
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetBooking(ctx context.Context, id uint64) (model.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.bookings[id]
	if !ok {
		return model.BookingView{}, store.ErrNotFound
	}
	return s.st.view(b), nil
}

func (s *Store) CheckingOutBetween(ctx context.Context, from, to time.Time) ([]model.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.checkingOut(from, to, false), nil
}

func (s *Store) Overdue(ctx context.Context, now time.Time) ([]model.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.overdue(now), nil
}

func (st *state) view(b model.Booking) model.BookingView {
	return model.BookingView{
		Booking:    b,
		ClientName: st.clients[b.ClientID].Name,
		RoomNumber: st.rooms[b.RoomID].Number,
	}
}

func (st *state) views(keep func(model.Booking) bool) []model.BookingView {
	out := []model.BookingView{}
	for _, b := range st.bookings {
		if keep(b) {
			out = append(out, st.view(b))
		}
	}
	return out
}

func byCheckOut(v []model.BookingView) {
	sort.Slice(v, func(i, j int) bool {
		if v[i].CheckOut.Equal(v[j].CheckOut) {
			return v[i].ID < v[j].ID
		}
		return v[i].CheckOut.Before(v[j].CheckOut)
	})
}

func (st *state) checkingOut(from, to time.Time, onlyUnnotified bool) []model.BookingView {
	out := st.views(func(b model.Booking) bool {
		if onlyUnnotified && b.Notified {
			return false
		}
		return b.CheckOut.After(from) && !b.CheckOut.After(to)
	})
	byCheckOut(out)
	return out
}

func (st *state) overdue(now time.Time) []model.BookingView {
	out := st.views(func(b model.Booking) bool { return !b.CheckOut.After(now) })
	byCheckOut(out)
	return out
}

// tx is bound to the working copy of one InTx call.
type tx struct {
	st     *state
	faults map[string]error
}

func (t *tx) fault(op string) error {
	if err, ok := t.faults[op]; ok {
		delete(t.faults, op)
		return err
	}
	return nil
}

func (t *tx) LockRoom(ctx context.Context, id uint64) (model.Room, error) {
	if err := t.fault("LockRoom"); err != nil {
		return model.Room{}, err
	}
	r, ok := t.st.rooms[id]
	if !ok || r.IsDeleted {
		return model.Room{}, store.ErrNotFound
	}
	return r, nil
}

func (t *tx) SetRoomAvailability(ctx context.Context, id uint64, availability string) error {
	if err := t.fault("SetRoomAvailability"); err != nil {
		return err
	}
	r, ok := t.st.rooms[id]
	if !ok {
		return nil
	}
	r.Availability = availability
	r.UpdatedAt = time.Now().UTC()
	t.st.rooms[id] = r
	return nil
}

func (t *tx) GetClient(ctx context.Context, id uint64) (model.Client, error) {
	if err := t.fault("GetClient"); err != nil {
		return model.Client{}, err
	}
	c, ok := t.st.clients[id]
	if !ok || c.IsDeleted {
		return model.Client{}, store.ErrNotFound
	}
	return c, nil
}

func (t *tx) InsertBooking(ctx context.Context, b *model.Booking) error {
	if err := t.fault("InsertBooking"); err != nil {
		return err
	}
	if _, ok := t.st.clients[b.ClientID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := t.st.rooms[b.RoomID]; !ok {
		return store.ErrNotFound
	}
	t.st.nextBooking++
	now := time.Now().UTC()
	b.ID = t.st.nextBooking
	b.CreatedAt, b.UpdatedAt = now, now
	t.st.bookings[b.ID] = *b
	return nil
}

func (t *tx) LockBooking(ctx context.Context, id uint64) (model.Booking, error) {
	if err := t.fault("LockBooking"); err != nil {
		return model.Booking{}, err
	}
	b, ok := t.st.bookings[id]
	if !ok {
		return model.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (t *tx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	if err := t.fault("UpdateBooking"); err != nil {
		return err
	}
	if _, ok := t.st.bookings[b.ID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := t.st.clients[b.ClientID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := t.st.rooms[b.RoomID]; !ok {
		return store.ErrNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	t.st.bookings[b.ID] = *b
	return nil
}

func (t *tx) DeleteBooking(ctx context.Context, id uint64) error {
	if err := t.fault("DeleteBooking"); err != nil {
		return err
	}
	if _, ok := t.st.bookings[id]; !ok {
		return store.ErrNotFound
	}
	for _, in := range t.st.incomes {
		if in.BookingID != nil && *in.BookingID == id {
			return fmt.Errorf("memory: booking %d is still referenced by income %d", id, in.ID)
		}
	}
	delete(t.st.bookings, id)
	return nil
}

func (t *tx) LockUnnotifiedCheckingOut(ctx context.Context, from, to time.Time) ([]model.BookingView, error) {
	if err := t.fault("LockUnnotifiedCheckingOut"); err != nil {
		return nil, err
	}
	return t.st.checkingOut(from, to, true), nil
}

func (t *tx) MarkNotified(ctx context.Context, ids []uint64) error {
	if err := t.fault("MarkNotified"); err != nil {
		return err
	}
	for _, id := range ids {
		if b, ok := t.st.bookings[id]; ok {
			b.Notified = true
			t.st.bookings[id] = b
		}
	}
	return nil
}

func (t *tx) LockOverdue(ctx context.Context, now time.Time) ([]model.BookingView, error) {
	if err := t.fault("LockOverdue"); err != nil {
		return nil, err
	}
	return t.st.overdue(now), nil
}

func (t *tx) LiveIncomeForBooking(ctx context.Context, bookingID uint64) (model.Income, bool, error) {
	if err := t.fault("LiveIncomeForBooking"); err != nil {
		return model.Income{}, false, err
	}
	for _, in := range t.st.incomes {
		if in.BookingID != nil && *in.BookingID == bookingID {
			return in, true, nil
		}
	}
	return model.Income{}, false, nil
}

func (t *tx) InsertIncome(ctx context.Context, in *model.Income) error {
	if err := t.fault("InsertIncome"); err != nil {
		return err
	}
	if (in.BookingID == nil) == (in.ArchiveID == nil) {
		return ErrIncomeOwner
	}
	if in.BookingID != nil {
		if _, ok := t.st.bookings[*in.BookingID]; !ok {
			return store.ErrNotFound
		}
		for _, other := range t.st.incomes {
			if other.BookingID != nil && *other.BookingID == *in.BookingID {
				return store.ErrDuplicate
			}
		}
	}
	if in.ArchiveID != nil {
		if _, ok := t.st.archives[*in.ArchiveID]; !ok {
			return store.ErrNotFound
		}
	}
	t.st.nextIncome++
	in.ID = t.st.nextIncome
	t.st.incomes[in.ID] = *in
	return nil
}

func (t *tx) DeleteIncome(ctx context.Context, id uint64) error {
	if err := t.fault("DeleteIncome"); err != nil {
		return err
	}
	if _, ok := t.st.incomes[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.incomes, id)
	return nil
}

func (t *tx) InsertArchive(ctx context.Context, a *model.Archive) error {
	if err := t.fault("InsertArchive"); err != nil {
		return err
	}
	t.st.nextArchive++
	a.ID = t.st.nextArchive
	t.st.archives[a.ID] = *a
	return nil
}
