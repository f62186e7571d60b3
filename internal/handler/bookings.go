package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/booking"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/store"
)

// BookingHandler exposes the booking lifecycle under /api/bookings.
type BookingHandler struct {
	Svc *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	if svc == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

type createBookingReq struct {
	ClientID      uint64          `json:"client_id"`
	RoomID        uint64          `json:"room_id"`
	CheckIn       string          `json:"check_in"`
	CheckOut      string          `json:"check_out"`
	GuestCount    uint32          `json:"guest_count"`
	PaymentMethod string          `json:"payment_method" validate:"max=40"`
	Status        string          `json:"status"`
	Value         decimal.Decimal `json:"value"`
	Notes         string          `json:"notes" validate:"max=2000"`
}

type updateBookingReq struct {
	ClientID      *uint64          `json:"client_id"`
	RoomID        *uint64          `json:"room_id"`
	CheckIn       *string          `json:"check_in"`
	CheckOut      *string          `json:"check_out"`
	GuestCount    *uint32          `json:"guest_count"`
	PaymentMethod *string          `json:"payment_method" validate:"omitempty,max=40"`
	Status        *string          `json:"status"`
	Value         *decimal.Decimal `json:"value"`
	Notes         *string          `json:"notes" validate:"omitempty,max=2000"`
}

type archiveReq struct {
	Reason string `json:"reason" validate:"max=255"`
}

type bookingResp struct {
	ID            uint64          `json:"id"`
	ClientID      uint64          `json:"client_id"`
	ClientName    string          `json:"client_name"`
	RoomID        uint64          `json:"room_id"`
	RoomNumber    uint32          `json:"room_number"`
	RoomType      string          `json:"room_type"`
	CheckIn       string          `json:"check_in"`
	CheckOut      string          `json:"check_out"`
	GuestCount    uint32          `json:"guest_count"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	Value         decimal.Decimal `json:"value"`
	Notes         string          `json:"notes"`
	Notified      bool            `json:"notified"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

func toBookingResp(v model.BookingView, loc *time.Location) bookingResp {
	return bookingResp{
		ID:            v.ID,
		ClientID:      v.ClientID,
		ClientName:    v.ClientName,
		RoomID:        v.RoomID,
		RoomNumber:    v.RoomNumber,
		RoomType:      v.RoomType,
		CheckIn:       booking.FormatWire(v.CheckIn, loc),
		CheckOut:      booking.FormatWire(v.CheckOut, loc),
		GuestCount:    v.GuestCount,
		PaymentMethod: v.PaymentMethod,
		Status:        v.Status,
		Value:         v.Value,
		Notes:         v.Notes,
		Notified:      v.Notified,
		CreatedAt:     booking.FormatWire(v.CreatedAt, loc),
		UpdatedAt:     booking.FormatWire(v.UpdatedAt, loc),
	}
}

func (h *BookingHandler) list(c echo.Context, views []model.BookingView) error {
	out := make([]bookingResp, 0, len(views))
	for _, v := range views {
		out = append(out, toBookingResp(v, h.Svc.Location()))
	}
	return items(c, out, len(out))
}

// parseOptionalWire leaves an empty value as the zero time so that the
// service reports it as missing.
func parseOptionalWire(field, s string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return booking.ParseWire(field, s, loc)
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	loc := h.Svc.Location()
	checkIn, err := parseOptionalWire("check_in", req.CheckIn, loc)
	if err != nil {
		return respondError(c, err)
	}
	checkOut, err := parseOptionalWire("check_out", req.CheckOut, loc)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Svc.Create(c.Request().Context(), actorFrom(c), booking.CreateRequest{
		ClientID:      req.ClientID,
		RoomID:        req.RoomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		GuestCount:    req.GuestCount,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Status:        strings.TrimSpace(req.Status),
		Value:         req.Value,
		Notes:         req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":             res.BookingID,
		"income_created": res.IncomeCreated,
	})
}

// List handles GET /api/bookings with optional status, client_id and
// room_id filters.
func (h *BookingHandler) List(c echo.Context) error {
	clientID, err := queryID(c, "client_id")
	if err != nil {
		return respondError(c, err)
	}
	roomID, err := queryID(c, "room_id")
	if err != nil {
		return respondError(c, err)
	}
	views, err := h.Svc.List(c.Request().Context(), actorFrom(c), store.BookingFilter{
		Status:   strings.TrimSpace(c.QueryParam("status")),
		ClientID: clientID,
		RoomID:   roomID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return h.list(c, views)
}

func (h *BookingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	v, err := h.Svc.Get(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(v, h.Svc.Location()))
}

// Update handles PUT /api/bookings/:id.  Absent fields are left unchanged.
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateBookingReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	loc := h.Svc.Location()
	p := booking.Patch{
		ClientID:      req.ClientID,
		RoomID:        req.RoomID,
		GuestCount:    req.GuestCount,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
		Value:         req.Value,
		Notes:         req.Notes,
	}
	if req.CheckIn != nil {
		t, err := booking.ParseWire("check_in", *req.CheckIn, loc)
		if err != nil {
			return respondError(c, err)
		}
		p.CheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := booking.ParseWire("check_out", *req.CheckOut, loc)
		if err != nil {
			return respondError(c, err)
		}
		p.CheckOut = &t
	}
	res, err := h.Svc.Update(c.Request().Context(), actorFrom(c), id, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking":        toBookingResp(res.Booking, loc),
		"income_created": res.IncomeCreated,
	})
}

// Delete handles DELETE /api/bookings/:id.  The booking is archived and
// removed; an optional JSON body may carry the reason.
func (h *BookingHandler) Delete(c echo.Context) error {
	return h.archive(c, h.Svc.Delete)
}

// Refund handles POST /api/bookings/:id/refund.
func (h *BookingHandler) Refund(c echo.Context) error {
	return h.archive(c, h.Svc.Refund)
}

type archiveFunc func(ctx context.Context, actor booking.Actor, id uint64, reason string) (booking.ArchiveResult, error)

func (h *BookingHandler) archive(c echo.Context, fn archiveFunc) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req archiveReq
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return respondError(c, err)
		}
	}
	res, err := fn(c.Request().Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"archive_id":      res.ArchiveID,
		"status":          res.Status,
		"income_migrated": res.IncomeMigrated,
	})
}

// Alerts handles GET /api/bookings/alertas.
func (h *BookingHandler) Alerts(c echo.Context) error {
	views, err := h.Svc.Alerts(c.Request().Context(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return h.list(c, views)
}

// Overdue handles GET /api/bookings/vencidas.
func (h *BookingHandler) Overdue(c echo.Context) error {
	views, err := h.Svc.Overdue(c.Request().Context(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return h.list(c, views)
}
