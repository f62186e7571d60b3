package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/repository"
)

// UserHandler manages staff accounts.  Reads are open to any
// authenticated user; the router restricts mutations to admins.
type UserHandler struct {
	Users      *repository.UserRepo
	BcryptCost int
}

func NewUserHandler(u *repository.UserRepo, cost int) *UserHandler {
	return &UserHandler{Users: u, BcryptCost: cost}
}

// userResp never carries the password hash.
type userResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResp(u model.User) userResp {
	return userResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type createUserReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=190"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

type updateUserReq struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Email    *string `json:"email" validate:"omitempty,email,max=190"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user"`
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return items(c, out, len(out))
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, entityErr(err, "user"))
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	id, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, req.Role, h.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResp(u))
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.Name == nil && req.Email == nil && req.Password == nil && req.Role == nil {
		return respondError(c, apperr.Validation("no fields to update"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	u, err := h.Users.Update(ctx, id, repository.UserPatch{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role,
	}, h.BcryptCost)
	if err != nil {
		return respondError(c, entityErr(err, "user"))
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Delete removes a user.  Admins cannot delete themselves.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if me, _ := getUserID(c); me == id {
		return respondError(c, apperr.Conflict("cannot delete your own account"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return respondError(c, entityErr(err, "user"))
	}
	return c.NoContent(http.StatusNoContent)
}
