package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/booking"
	"github.com/hotelops/hotel-backend/internal/middleware"
	"github.com/hotelops/hotel-backend/internal/repository"
	"github.com/hotelops/hotel-backend/internal/store"
	"github.com/hotelops/hotel-backend/internal/utils"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

// Validator adapts go-playground/validator to echo.Validator so handlers
// can call c.Validate(&req).
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator { return &Validator{v: validator.New(validator.WithRequiredStructEnabled())} }

func (cv *Validator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Validationf("invalid %s: failed %s", jsonName(fe), fe.Tag())
		}
		return apperr.Validation("invalid request")
	}
	return nil
}

// jsonName turns a struct field name such as GuestCount into guest_count.
func jsonName(fe validator.FieldError) string {
	var b strings.Builder
	for i, r := range fe.Field() {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// bind decodes the body into req and validates it when a validator is
// registered.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("invalid body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

// getUserID extracts the user_id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.CtxUserID).(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// actorFrom builds the booking actor from the authenticated request.  A
// request without identity yields the zero Actor, which the service
// rejects with a permission error.
func actorFrom(c echo.Context) booking.Actor {
	uid, _ := getUserID(c)
	role, _ := c.Get(middleware.CtxRole).(string)
	return booking.Actor{UserID: uid, Role: role}
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validationf("invalid %s", strings.ReplaceAll(name, "_", " "))
	}
	return id, nil
}

// queryID reads an optional numeric query parameter; absent means 0.
func queryID(c echo.Context, name string) (uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validationf("invalid %s", name)
	}
	return id, nil
}

// items writes the list envelope used by every collection endpoint.
func items(c echo.Context, list interface{}, n int) error {
	return c.JSON(http.StatusOK, echo.Map{"items": list, "count": n})
}

// entityErr names the entity in not-found and duplicate errors coming
// from a repository.
func entityErr(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(entity + " not found")
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict(entity + " already exists")
	}
	return err
}

// respondError maps err onto a status code and an {"error": msg} body.
// Store sentinels that escape a repository are translated here; anything
// unrecognised is logged and answered with 500.
func respondError(c echo.Context, err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		switch {
		case errors.Is(err, store.ErrNotFound):
			err = apperr.NotFound("not found")
		case errors.Is(err, repository.ErrEmailExists):
			err = apperr.Conflict("email already exists")
		case errors.Is(err, store.ErrDuplicate):
			err = apperr.Conflict("duplicate value")
		case errors.Is(err, repository.ErrConflict):
			err = apperr.Conflict("conflict with current state")
		case errors.Is(err, utils.ErrPasswordLength):
			err = apperr.Validation(utils.ErrPasswordLength.Error())
		}
	}
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindPermission:
		status = http.StatusForbidden
	default:
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, echo.Map{"error": apperr.Message(err)})
}
