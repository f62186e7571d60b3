// Package booking implements the booking lifecycle: creation, updates,
// archive-and-remove on delete or refund, the income derived from
// confirmed bookings, and the sweeper that expires overdue stays.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/queue"
	"github.com/hotelops/hotel-backend/internal/store"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Role   string
}

func (a Actor) check() error {
	if a.UserID == 0 || !model.IsValidRole(a.Role) {
		return apperr.Permission("authentication required")
	}
	return nil
}

// CreateRequest holds the fields of a new booking.  Times are UTC.
type CreateRequest struct {
	ClientID      uint64
	RoomID        uint64
	CheckIn       time.Time
	CheckOut      time.Time
	GuestCount    uint32
	PaymentMethod string
	Status        string
	Value         decimal.Decimal
	Notes         string
}

// CreateResult reports the new booking and whether an income was recorded.
type CreateResult struct {
	BookingID     uint64
	IncomeCreated bool
}

// Patch lists the fields an update may change.  Nil means unchanged.
type Patch struct {
	ClientID      *uint64
	RoomID        *uint64
	CheckIn       *time.Time
	CheckOut      *time.Time
	GuestCount    *uint32
	PaymentMethod *string
	Status        *string
	Value         *decimal.Decimal
	Notes         *string
}

func (p Patch) empty() bool {
	return p.ClientID == nil && p.RoomID == nil && p.CheckIn == nil && p.CheckOut == nil &&
		p.GuestCount == nil && p.PaymentMethod == nil && p.Status == nil && p.Value == nil && p.Notes == nil
}

// UpdateResult is the booking after the update.
type UpdateResult struct {
	Booking       model.BookingView
	IncomeCreated bool
}

// Service runs booking operations against a store.
type Service struct {
	st store.Store
	deps
}

func NewService(st store.Store, opts Options) *Service {
	if st == nil {
		panic("nil store passed to NewService")
	}
	return &Service{st: st, deps: newDeps(opts)}
}

// Location is the zone wire dates are read and written in.
func (s *Service) Location() *time.Location { return s.loc }

func validateStatus(status string) error {
	if model.IsTerminalStatus(status) {
		return apperr.Validationf("status %q ends a booking; delete or refund it instead", status)
	}
	if !model.IsActiveStatus(status) {
		return apperr.Validationf("invalid status %q", status)
	}
	return nil
}

func (r *CreateRequest) validate() error {
	var missing []string
	if r.ClientID == 0 {
		missing = append(missing, "client_id")
	}
	if r.RoomID == 0 {
		missing = append(missing, "room_id")
	}
	if r.CheckIn.IsZero() {
		missing = append(missing, "check_in")
	}
	if r.CheckOut.IsZero() {
		missing = append(missing, "check_out")
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		missing = append(missing, "payment_method")
	}
	if len(missing) > 0 {
		return apperr.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if r.GuestCount < 1 {
		return apperr.Validation("guest_count must be at least 1")
	}
	if r.Value.IsNegative() {
		return apperr.Validation("value must not be negative")
	}
	if r.Status == "" {
		r.Status = model.StatusPending
	}
	return validateStatus(r.Status)
}

func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

// Create books a room.  The room must exist and be available; it becomes
// occupied in the same transaction, and a confirmed booking records its
// income.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateRequest) (CreateResult, error) {
	if err := actor.check(); err != nil {
		return CreateResult{}, err
	}
	if err := req.validate(); err != nil {
		return CreateResult{}, err
	}
	now := s.clock()
	var (
		res  CreateResult
		view model.BookingView
	)
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		room, err := tx.LockRoom(ctx, req.RoomID)
		if err != nil {
			return notFound(err, "room not found")
		}
		if room.Availability != model.RoomAvailable {
			return apperr.Conflict(fmt.Sprintf("room %d is not available", room.Number))
		}
		if !req.CheckOut.After(req.CheckIn) {
			return apperr.Validation("check_out must be after check_in")
		}
		client, err := tx.GetClient(ctx, req.ClientID)
		if err != nil {
			return notFound(err, "client not found")
		}

		b := model.Booking{
			ClientID:      client.ID,
			RoomID:        room.ID,
			CheckIn:       req.CheckIn.UTC(),
			CheckOut:      req.CheckOut.UTC(),
			RoomType:      room.Type,
			GuestCount:    req.GuestCount,
			PaymentMethod: strings.TrimSpace(req.PaymentMethod),
			Status:        req.Status,
			Notes:         req.Notes,
			Value:         req.Value,
		}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			return notFound(err, "client or room not found")
		}
		if err := MarkOccupied(ctx, tx, room.ID); err != nil {
			return err
		}
		if b.Status == model.StatusConfirmed {
			created, err := CreateIncomeForBooking(ctx, tx, b, client, now)
			if err != nil {
				return err
			}
			res.IncomeCreated = created
		}
		res.BookingID = b.ID
		view = model.BookingView{Booking: b, ClientName: client.Name, RoomNumber: room.Number}
		return nil
	})
	if err != nil {
		return CreateResult{}, apperr.Wrap(err)
	}
	ev := s.event(queue.EventBookingCreated, view, now)
	ev.IncomeChanged = res.IncomeCreated
	s.emit(ctx, ev)
	return res, nil
}

// Update applies a patch to an active booking.  Terminal statuses are
// rejected; moving to another room requires that room to be available.
// A first transition to confirmed records the booking's income.
func (s *Service) Update(ctx context.Context, actor Actor, id uint64, p Patch) (UpdateResult, error) {
	if err := actor.check(); err != nil {
		return UpdateResult{}, err
	}
	if p.empty() {
		return UpdateResult{}, apperr.Validation("no fields to update")
	}
	if p.Status != nil {
		if err := validateStatus(*p.Status); err != nil {
			return UpdateResult{}, err
		}
	}
	if p.GuestCount != nil && *p.GuestCount < 1 {
		return UpdateResult{}, apperr.Validation("guest_count must be at least 1")
	}
	if p.PaymentMethod != nil && strings.TrimSpace(*p.PaymentMethod) == "" {
		return UpdateResult{}, apperr.Validation("payment_method must not be empty")
	}
	if p.Value != nil && p.Value.IsNegative() {
		return UpdateResult{}, apperr.Validation("value must not be negative")
	}

	now := s.clock()
	var res UpdateResult
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return notFound(err, "booking not found")
		}
		prevStatus := b.Status

		if p.CheckIn != nil {
			b.CheckIn = p.CheckIn.UTC()
		}
		if p.CheckOut != nil {
			if !p.CheckOut.Equal(b.CheckOut) {
				b.Notified = false
			}
			b.CheckOut = p.CheckOut.UTC()
		}
		if !b.CheckOut.After(b.CheckIn) {
			return apperr.Validation("check_out must be after check_in")
		}

		var client model.Client
		if p.ClientID != nil {
			if client, err = tx.GetClient(ctx, *p.ClientID); err != nil {
				return notFound(err, "client not found")
			}
			b.ClientID = client.ID
		}

		if p.RoomID != nil && *p.RoomID != b.RoomID {
			room, err := tx.LockRoom(ctx, *p.RoomID)
			if err != nil {
				return notFound(err, "room not found")
			}
			if room.Availability != model.RoomAvailable {
				return apperr.Conflict(fmt.Sprintf("room %d is not available", room.Number))
			}
			if err := MarkAvailable(ctx, tx, b.RoomID); err != nil {
				return err
			}
			if err := MarkOccupied(ctx, tx, room.ID); err != nil {
				return err
			}
			b.RoomID = room.ID
			b.RoomType = room.Type
		}

		if p.GuestCount != nil {
			b.GuestCount = *p.GuestCount
		}
		if p.PaymentMethod != nil {
			b.PaymentMethod = strings.TrimSpace(*p.PaymentMethod)
		}
		if p.Status != nil {
			b.Status = *p.Status
		}
		if p.Value != nil {
			b.Value = *p.Value
		}
		if p.Notes != nil {
			b.Notes = *p.Notes
		}
		if err := tx.UpdateBooking(ctx, &b); err != nil {
			return notFound(err, "booking not found")
		}

		if b.Status == model.StatusConfirmed && prevStatus != model.StatusConfirmed {
			if client.ID == 0 {
				if client, err = tx.GetClient(ctx, b.ClientID); err != nil {
					return notFound(err, "client not found")
				}
			}
			created, err := CreateIncomeForBooking(ctx, tx, b, client, now)
			if err != nil {
				return err
			}
			res.IncomeCreated = created
		}
		res.Booking = model.BookingView{Booking: b, ClientName: client.Name}
		return nil
	})
	if err != nil {
		return UpdateResult{}, apperr.Wrap(err)
	}
	if v, err := s.st.GetBooking(ctx, id); err == nil {
		res.Booking = v
	}
	return res, nil
}

// Delete archives a booking under the status its current status maps to
// and removes it.  The room is released and a live income moves to the
// archive.
func (s *Service) Delete(ctx context.Context, actor Actor, id uint64, reason string) (ArchiveResult, error) {
	return s.archive(ctx, actor, id, "", reason)
}

// Refund archives a booking with status refund; its income, if any,
// becomes refunded.
func (s *Service) Refund(ctx context.Context, actor Actor, id uint64, reason string) (ArchiveResult, error) {
	return s.archive(ctx, actor, id, model.StatusRefund, reason)
}

func (s *Service) archive(ctx context.Context, actor Actor, id uint64, status, reason string) (ArchiveResult, error) {
	if err := actor.check(); err != nil {
		return ArchiveResult{}, err
	}
	// Client name and room number for the event come from the projection.
	view, err := s.st.GetBooking(ctx, id)
	if err != nil {
		return ArchiveResult{}, apperr.Wrap(notFound(err, "booking not found"))
	}
	now := s.clock()
	var (
		res ArchiveResult
		b   model.Booking
	)
	err = s.st.InTx(ctx, func(tx store.Tx) error {
		var err error
		b, err = tx.LockBooking(ctx, id)
		if err != nil {
			return notFound(err, "booking not found")
		}
		target := status
		if target == "" {
			target = ArchiveStatusFor(b.Status)
		}
		res, err = archiveBooking(ctx, tx, b, target, strings.TrimSpace(reason), now)
		return err
	})
	if err != nil {
		return ArchiveResult{}, apperr.Wrap(err)
	}
	view.Booking = b
	ev := s.event(queue.EventBookingArchived, view, now)
	ev.ArchiveID = res.ArchiveID
	ev.Status = res.Status
	ev.IncomeChanged = res.IncomeMigrated
	s.emit(ctx, ev)
	return res, nil
}

// List returns active bookings with client name and room number.
func (s *Service) List(ctx context.Context, actor Actor, f store.BookingFilter) ([]model.BookingView, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	if f.Status != "" && !model.IsActiveStatus(f.Status) {
		return nil, apperr.Validationf("invalid status %q", f.Status)
	}
	out, err := s.st.ListBookings(ctx, f)
	return out, apperr.Wrap(err)
}

func (s *Service) Get(ctx context.Context, actor Actor, id uint64) (model.BookingView, error) {
	if err := actor.check(); err != nil {
		return model.BookingView{}, err
	}
	v, err := s.st.GetBooking(ctx, id)
	if err != nil {
		return model.BookingView{}, apperr.Wrap(notFound(err, "booking not found"))
	}
	return v, nil
}

// Alerts lists bookings checking out within the lead window.
func (s *Service) Alerts(ctx context.Context, actor Actor) ([]model.BookingView, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	now := s.clock()
	out, err := s.st.CheckingOutBetween(ctx, now, now.Add(s.lead))
	return out, apperr.Wrap(err)
}

// Overdue lists bookings past their check-out that the sweeper has not
// archived yet.
func (s *Service) Overdue(ctx context.Context, actor Actor) ([]model.BookingView, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	out, err := s.st.Overdue(ctx, s.clock())
	return out, apperr.Wrap(err)
}
