package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/repository"
	"github.com/hotelops/hotel-backend/internal/store"
)

type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomHandler(r *repository.RoomRepo) *RoomHandler { return &RoomHandler{Rooms: r} }

type roomResp struct {
	ID           uint64          `json:"id"`
	Number       uint32          `json:"number"`
	Type         string          `json:"type"`
	Capacity     uint32          `json:"capacity"`
	NightlyRate  decimal.Decimal `json:"nightly_rate"`
	Availability string          `json:"availability"`
	Amenities    string          `json:"amenities"`
	View         string          `json:"view"`
	Notes        string          `json:"notes"`
	IsDeleted    bool            `json:"is_deleted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toRoomResp(r model.Room) roomResp {
	return roomResp{
		ID: r.ID, Number: r.Number, Type: r.Type, Capacity: r.Capacity, NightlyRate: r.NightlyRate,
		Availability: r.Availability, Amenities: r.Amenities, View: r.View, Notes: r.Notes,
		IsDeleted: r.IsDeleted, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type roomReq struct {
	Number       uint32          `json:"number" validate:"required"`
	Type         string          `json:"type" validate:"required,max=40"`
	Capacity     uint32          `json:"capacity" validate:"required"`
	NightlyRate  decimal.Decimal `json:"nightly_rate"`
	Availability string          `json:"availability" validate:"omitempty,oneof=available maintenance"`
	Amenities    string          `json:"amenities"`
	View         string          `json:"view" validate:"max=60"`
	Notes        string          `json:"notes"`
}

type roomPatchReq struct {
	Number       *uint32          `json:"number" validate:"omitempty,min=1"`
	Type         *string          `json:"type" validate:"omitempty,min=1,max=40"`
	Capacity     *uint32          `json:"capacity" validate:"omitempty,min=1"`
	NightlyRate  *decimal.Decimal `json:"nightly_rate"`
	Availability *string          `json:"availability" validate:"omitempty,oneof=available maintenance"`
	Amenities    *string          `json:"amenities"`
	View         *string          `json:"view" validate:"omitempty,max=60"`
	Notes        *string          `json:"notes"`
}

// List handles GET /api/rooms.  ?include_deleted=true also returns soft
// deleted rooms.
func (h *RoomHandler) List(c echo.Context) error {
	include := false
	if raw := c.QueryParam("include_deleted"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return respondError(c, apperr.Validation("invalid include_deleted"))
		}
		include = b
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	rooms, err := h.Rooms.List(ctx, include)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]roomResp, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResp(r))
	}
	return items(c, out, len(out))
}

func (h *RoomHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	r, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		return respondError(c, entityErr(err, "room"))
	}
	return c.JSON(http.StatusOK, toRoomResp(r))
}

func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.NightlyRate.IsNegative() {
		return respondError(c, apperr.Validation("nightly_rate must not be negative"))
	}
	r := model.Room{
		Number:       req.Number,
		Type:         strings.TrimSpace(req.Type),
		Capacity:     req.Capacity,
		NightlyRate:  req.NightlyRate,
		Availability: req.Availability,
		Amenities:    req.Amenities,
		View:         strings.TrimSpace(req.View),
		Notes:        req.Notes,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Rooms.Create(ctx, &r); err != nil {
		return respondError(c, entityErr(err, "room number"))
	}
	return c.JSON(http.StatusCreated, toRoomResp(r))
}

// Update handles PUT /api/rooms/:id.  Occupancy is owned by bookings, so
// availability can only toggle maintenance on a room that is not occupied.
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req roomPatchReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.NightlyRate != nil && req.NightlyRate.IsNegative() {
		return respondError(c, apperr.Validation("nightly_rate must not be negative"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	r, err := h.Rooms.Update(ctx, id, repository.RoomPatch{
		Number: req.Number, Type: trimmed(req.Type), Capacity: req.Capacity, NightlyRate: req.NightlyRate,
		Availability: req.Availability, Amenities: req.Amenities, View: trimmed(req.View), Notes: req.Notes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return respondError(c, apperr.Conflict("room availability is managed by its bookings"))
		}
		if errors.Is(err, store.ErrDuplicate) {
			return respondError(c, entityErr(err, "room number"))
		}
		return respondError(c, entityErr(err, "room"))
	}
	return c.JSON(http.StatusOK, toRoomResp(r))
}

// Delete soft deletes a room that is not occupied.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Rooms.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return respondError(c, apperr.Conflict("room is occupied"))
		}
		return respondError(c, entityErr(err, "room"))
	}
	return c.NoContent(http.StatusNoContent)
}
