package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/repository"
	"github.com/hotelops/hotel-backend/internal/store"
)

const dateLayout = "2006-01-02"

type ClientHandler struct {
	Clients *repository.ClientRepo
}

func NewClientHandler(r *repository.ClientRepo) *ClientHandler { return &ClientHandler{Clients: r} }

type clientResp struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Document    string    `json:"document"`
	BirthDate   *string   `json:"birth_date"`
	Preferences string    `json:"preferences"`
	Comments    string    `json:"comments"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toClientResp(cl model.Client) clientResp {
	r := clientResp{
		ID: cl.ID, Name: cl.Name, Email: cl.Email, Phone: cl.Phone, Document: cl.Document,
		Preferences: cl.Preferences, Comments: cl.Comments, IsDeleted: cl.IsDeleted,
		CreatedAt: cl.CreatedAt, UpdatedAt: cl.UpdatedAt,
	}
	if cl.BirthDate != nil {
		s := cl.BirthDate.Format(dateLayout)
		r.BirthDate = &s
	}
	return r
}

type clientReq struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email,max=190"`
	Phone       string `json:"phone" validate:"max=40"`
	Document    string `json:"document" validate:"required,max=40"`
	BirthDate   string `json:"birth_date"`
	Preferences string `json:"preferences"`
	Comments    string `json:"comments"`
}

type clientPatchReq struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email       *string `json:"email" validate:"omitempty,email,max=190"`
	Phone       *string `json:"phone" validate:"omitempty,max=40"`
	Document    *string `json:"document" validate:"omitempty,min=1,max=40"`
	BirthDate   *string `json:"birth_date"`
	Preferences *string `json:"preferences"`
	Comments    *string `json:"comments"`
}

func parseBirthDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, apperr.Validation("invalid date format for birth_date, use YYYY-MM-DD")
	}
	return &t, nil
}

// List handles GET /api/clients.  ?show_deleted=true lists soft deleted
// clients instead of live ones.
func (h *ClientHandler) List(c echo.Context) error {
	deleted := false
	if raw := c.QueryParam("show_deleted"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return respondError(c, apperr.Validation("invalid show_deleted"))
		}
		deleted = b
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Clients.List(ctx, deleted)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]clientResp, 0, len(list))
	for _, cl := range list {
		out = append(out, toClientResp(cl))
	}
	return items(c, out, len(out))
}

func (h *ClientHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return respondError(c, entityErr(err, "client"))
	}
	return c.JSON(http.StatusOK, toClientResp(cl))
}

func (h *ClientHandler) Create(c echo.Context) error {
	var req clientReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	birth, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return respondError(c, err)
	}
	cl := model.Client{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		Document:    strings.TrimSpace(req.Document),
		BirthDate:   birth,
		Preferences: req.Preferences,
		Comments:    req.Comments,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Clients.Create(ctx, &cl); err != nil {
		return respondError(c, entityErr(err, "client with that email or document"))
	}
	return c.JSON(http.StatusCreated, toClientResp(cl))
}

// Update handles PUT /api/clients/:id.  Only the whitelisted fields of
// clientPatchReq can change.
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req clientPatchReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	p := repository.ClientPatch{
		Name: trimmed(req.Name), Phone: trimmed(req.Phone), Document: trimmed(req.Document),
		Preferences: req.Preferences, Comments: req.Comments,
	}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		p.Email = &e
	}
	if req.BirthDate != nil {
		if p.BirthDate, err = parseBirthDate(*req.BirthDate); err != nil {
			return respondError(c, err)
		}
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	cl, err := h.Clients.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return respondError(c, entityErr(err, "client with that email or document"))
		}
		return respondError(c, entityErr(err, "client"))
	}
	return c.JSON(http.StatusOK, toClientResp(cl))
}

// Delete soft deletes a client.
func (h *ClientHandler) Delete(c echo.Context) error {
	return h.setDeleted(c, true)
}

// Restore handles PATCH /api/clients/:id/restore.
func (h *ClientHandler) Restore(c echo.Context) error {
	return h.setDeleted(c, false)
}

func (h *ClientHandler) setDeleted(c echo.Context, deleted bool) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if deleted {
		err = h.Clients.SoftDelete(ctx, id)
	} else {
		err = h.Clients.Restore(ctx, id)
	}
	if errors.Is(err, repository.ErrConflict) {
		return respondError(c, apperr.Conflict("client has active bookings"))
	}
	if err != nil {
		return respondError(c, entityErr(err, "client"))
	}
	if deleted {
		return c.NoContent(http.StatusNoContent)
	}
	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return respondError(c, entityErr(err, "client"))
	}
	return c.JSON(http.StatusOK, toClientResp(cl))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
