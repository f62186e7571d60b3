package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/booking"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/repository"
)

// ArchiveHandler serves the read-only archive of finished bookings.
type ArchiveHandler struct {
	Archives *repository.ArchiveRepo
	Loc      *time.Location
}

func NewArchiveHandler(r *repository.ArchiveRepo, loc *time.Location) *ArchiveHandler {
	return &ArchiveHandler{Archives: r, Loc: loc}
}

type archiveResp struct {
	ID            uint64          `json:"id"`
	BookingID     uint64          `json:"booking_id"`
	ClientID      uint64          `json:"client_id"`
	RoomID        uint64          `json:"room_id"`
	CheckIn       string          `json:"check_in"`
	CheckOut      string          `json:"check_out"`
	RoomType      string          `json:"room_type"`
	GuestCount    uint32          `json:"guest_count"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
	Value         decimal.Decimal `json:"value"`
	Status        string          `json:"status"`
	ArchivedAt    string          `json:"archived_at"`
	Reason        string          `json:"reason"`
}

func toArchiveResp(a model.Archive, loc *time.Location) archiveResp {
	return archiveResp{
		ID: a.ID, BookingID: a.BookingID, ClientID: a.ClientID, RoomID: a.RoomID,
		CheckIn:  booking.FormatWire(a.CheckIn, loc),
		CheckOut: booking.FormatWire(a.CheckOut, loc),
		RoomType: a.RoomType, GuestCount: a.GuestCount, PaymentMethod: a.PaymentMethod,
		Notes: a.Notes, Value: a.Value, Status: a.Status,
		ArchivedAt: booking.FormatWire(a.ArchivedAt, loc),
		Reason:     a.Reason,
	}
}

func (h *ArchiveHandler) respond(c echo.Context, f repository.ArchiveFilter) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Archives.List(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]archiveResp, 0, len(list))
	for _, a := range list {
		out = append(out, toArchiveResp(a, h.Loc))
	}
	return items(c, out, len(out))
}

// List handles GET /api/archives with optional status and client_id.
func (h *ArchiveHandler) List(c echo.Context) error {
	clientID, err := queryID(c, "client_id")
	if err != nil {
		return respondError(c, err)
	}
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.IsTerminalStatus(status) {
		return respondError(c, apperr.Validationf("invalid archive status %q", status))
	}
	return h.respond(c, repository.ArchiveFilter{Status: status, ClientID: clientID})
}

// ByStatus handles GET /api/archives/estado/:status.
func (h *ArchiveHandler) ByStatus(c echo.Context) error {
	status := strings.TrimSpace(c.Param("status"))
	if !model.IsTerminalStatus(status) {
		return respondError(c, apperr.Validationf("invalid archive status %q", status))
	}
	return h.respond(c, repository.ArchiveFilter{Status: status})
}

// ByClient handles GET /api/archives/cliente/:client_id.
func (h *ArchiveHandler) ByClient(c echo.Context) error {
	id, err := parseID(c, "client_id")
	if err != nil {
		return respondError(c, err)
	}
	return h.respond(c, repository.ArchiveFilter{ClientID: id})
}

func (h *ArchiveHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	a, err := h.Archives.GetByID(ctx, id)
	if err != nil {
		return respondError(c, entityErr(err, "archive"))
	}
	return c.JSON(http.StatusOK, toArchiveResp(a, h.Loc))
}
