package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/booking"
	"github.com/hotelops/hotel-backend/internal/handler"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/router"
	"github.com/hotelops/hotel-backend/internal/store/memory"
	"github.com/hotelops/hotel-backend/internal/utils"
)

const testSecret = "handler-test-secret"

type bookingAPI struct {
	t      *testing.T
	e      *echo.Echo
	st     *memory.Store
	token  string
	client uint64
	room   uint64
}

func newBookingAPI(t *testing.T) *bookingAPI {
	t.Helper()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := memory.New()
	svc := booking.NewService(st, booking.Options{Now: func() time.Time { return now }})

	e := echo.New()
	e.Validator = handler.NewValidator()
	router.RegisterBookings(e, handler.NewBookingHandler(svc), testSecret)

	tok, err := utils.NewAccessToken(testSecret, 7, model.RoleUser, 15)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return &bookingAPI{
		t:      t,
		e:      e,
		st:     st,
		token:  tok.Token,
		client: st.AddClient(model.Client{Name: "Luis Pérez", Document: "CC-77", Email: "luis@example.com"}),
		room:   st.AddRoom(model.Room{Number: 204, Type: "double", Capacity: 2, NightlyRate: decimal.NewFromInt(90)}),
	}
}

func (a *bookingAPI) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *bookingAPI) createBody(status, checkIn, checkOut string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"client_id":      a.client,
		"room_id":        a.room,
		"check_in":       checkIn,
		"check_out":      checkOut,
		"guest_count":    2,
		"payment_method": "cash",
		"status":         status,
		"value":          "180.00",
	})
	return string(b)
}

func (a *bookingAPI) create(status, checkIn, checkOut string) uint64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/bookings", a.createBody(status, checkIn, checkOut), a.token)
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		ID uint64 `json:"id"`
	}
	decode(a.t, rec, &out)
	return out.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	decode(t, rec, &out)
	return out.Error
}

func TestCreateConfirmedBooking(t *testing.T) {
	a := newBookingAPI(t)

	rec := a.do(http.MethodPost, "/api/bookings",
		a.createBody(model.StatusConfirmed, "2025-03-02T14:00:00", "2025-03-04T12:00:00"), a.token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		ID            uint64 `json:"id"`
		IncomeCreated bool   `json:"income_created"`
	}
	decode(t, rec, &out)
	if out.ID == 0 || !out.IncomeCreated {
		t.Errorf("response = %+v, want id and income_created", out)
	}
	if r, _ := a.st.Room(a.room); r.Availability != model.RoomOccupied {
		t.Errorf("room availability = %q, want occupied", r.Availability)
	}

	rec = a.do(http.MethodGet, "/api/bookings/"+itoa(out.ID), "", a.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var got struct {
		CheckIn    string `json:"check_in"`
		RoomNumber uint32 `json:"room_number"`
		ClientName string `json:"client_name"`
		Status     string `json:"status"`
	}
	decode(t, rec, &got)
	if got.CheckIn != "2025-03-02T14:00:00" || got.RoomNumber != 204 || got.ClientName != "Luis Pérez" || got.Status != model.StatusConfirmed {
		t.Errorf("booking = %+v", got)
	}
}

func TestCreateBookingErrors(t *testing.T) {
	a := newBookingAPI(t)

	cases := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{
			name:   "malformed check_in",
			body:   a.createBody("", "02/03/2025 14:00", "2025-03-04T12:00:00"),
			status: http.StatusBadRequest,
			msg:    "invalid date format for check_in, use YYYY-MM-DDTHH:MM:SS",
		},
		{
			name:   "check_out before check_in",
			body:   a.createBody("", "2025-03-04T12:00:00", "2025-03-02T14:00:00"),
			status: http.StatusBadRequest,
			msg:    "check_out must be after check_in",
		},
		{
			name:   "terminal status",
			body:   a.createBody(model.StatusRefund, "2025-03-02T14:00:00", "2025-03-04T12:00:00"),
			status: http.StatusBadRequest,
		},
		{
			name:   "missing fields",
			body:   `{"guest_count":1}`,
			status: http.StatusBadRequest,
			msg:    "missing required fields: client_id, room_id, check_in, check_out, payment_method",
		},
		{
			name:   "not json",
			body:   `{`,
			status: http.StatusBadRequest,
			msg:    "invalid body",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(http.MethodPost, "/api/bookings", tc.body, a.token)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.status, rec.Body.String())
			}
			if tc.msg != "" {
				if got := errorOf(t, rec); got != tc.msg {
					t.Errorf("error = %q, want %q", got, tc.msg)
				}
			}
		})
	}
	if n := len(a.st.Bookings()); n != 0 {
		t.Errorf("bookings = %d, want none after rejected requests", n)
	}
}

func TestBookingsRequireToken(t *testing.T) {
	a := newBookingAPI(t)

	if rec := a.do(http.MethodGet, "/api/bookings", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", rec.Code)
	}
	if rec := a.do(http.MethodGet, "/api/bookings", "", "not-a-jwt"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d, want 401", rec.Code)
	}
	other, _ := utils.NewAccessToken(testSecret, 9, "guest", 15)
	if rec := a.do(http.MethodGet, "/api/bookings", "", other.Token); rec.Code != http.StatusForbidden {
		t.Errorf("unknown role: status %d, want 403", rec.Code)
	}
}

func TestGetBookingNotFound(t *testing.T) {
	a := newBookingAPI(t)

	rec := a.do(http.MethodGet, "/api/bookings/99", "", a.token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := errorOf(t, rec); got != "booking not found" {
		t.Errorf("error = %q", got)
	}
	if rec := a.do(http.MethodGet, "/api/bookings/abc", "", a.token); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: status %d, want 400", rec.Code)
	}
}

type archiveOut struct {
	ArchiveID      uint64 `json:"archive_id"`
	Status         string `json:"status"`
	IncomeMigrated bool   `json:"income_migrated"`
}

func TestDeletePendingBookingArchivesAsCancelled(t *testing.T) {
	a := newBookingAPI(t)
	id := a.create(model.StatusPending, "2025-03-02T14:00:00", "2025-03-04T12:00:00")

	rec := a.do(http.MethodDelete, "/api/bookings/"+itoa(id), `{"reason":"guest called"}`, a.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out archiveOut
	decode(t, rec, &out)
	if out.ArchiveID == 0 || out.Status != model.StatusCancelled || out.IncomeMigrated {
		t.Errorf("archive = %+v, want cancelled without income", out)
	}
	if r, _ := a.st.Room(a.room); r.Availability != model.RoomAvailable {
		t.Errorf("room availability = %q, want available", r.Availability)
	}
	if rec := a.do(http.MethodGet, "/api/bookings/"+itoa(id), "", a.token); rec.Code != http.StatusNotFound {
		t.Errorf("deleted booking still readable: status %d", rec.Code)
	}
}

func TestRefundMigratesIncome(t *testing.T) {
	a := newBookingAPI(t)
	id := a.create(model.StatusConfirmed, "2025-03-02T14:00:00", "2025-03-04T12:00:00")

	rec := a.do(http.MethodPost, "/api/bookings/"+itoa(id)+"/refund", "", a.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out archiveOut
	decode(t, rec, &out)
	if out.Status != model.StatusRefund || !out.IncomeMigrated {
		t.Errorf("archive = %+v, want refund with migrated income", out)
	}
}

func TestUpdateBookingConfirmCreatesIncome(t *testing.T) {
	a := newBookingAPI(t)
	id := a.create(model.StatusPending, "2025-03-02T14:00:00", "2025-03-04T12:00:00")

	rec := a.do(http.MethodPut, "/api/bookings/"+itoa(id), `{"status":"confirmed","notes":"late arrival"}`, a.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Booking struct {
			Status string `json:"status"`
			Notes  string `json:"notes"`
		} `json:"booking"`
		IncomeCreated bool `json:"income_created"`
	}
	decode(t, rec, &out)
	if out.Booking.Status != model.StatusConfirmed || out.Booking.Notes != "late arrival" || !out.IncomeCreated {
		t.Errorf("update = %+v", out)
	}

	rec = a.do(http.MethodPut, "/api/bookings/"+itoa(id), `{"check_out":"tomorrow"}`, a.token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad check_out: status %d, want 400", rec.Code)
	}
}

func TestOverdueAndAlertLists(t *testing.T) {
	a := newBookingAPI(t)
	a.create(model.StatusConfirmed, "2025-02-27T14:00:00", "2025-03-01T11:00:00")

	var out struct {
		Items []struct {
			ID uint64 `json:"id"`
		} `json:"items"`
		Count int `json:"count"`
	}
	rec := a.do(http.MethodGet, "/api/bookings/vencidas", "", a.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("vencidas: status %d", rec.Code)
	}
	decode(t, rec, &out)
	if out.Count != 1 || len(out.Items) != 1 {
		t.Errorf("overdue = %+v, want one booking", out)
	}

	rec = a.do(http.MethodGet, "/api/bookings/alertas", "", a.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("alertas: status %d", rec.Code)
	}
	out.Items, out.Count = nil, 0
	decode(t, rec, &out)
	if out.Count != 0 {
		t.Errorf("alerts = %+v, want none", out)
	}
}

func TestListBookingsFilters(t *testing.T) {
	a := newBookingAPI(t)
	a.create(model.StatusPending, "2025-03-02T14:00:00", "2025-03-04T12:00:00")

	var out struct {
		Count int `json:"count"`
	}
	rec := a.do(http.MethodGet, "/api/bookings?status=pending&room_id="+itoa(a.room), "", a.token)
	decode(t, rec, &out)
	if out.Count != 1 {
		t.Errorf("pending in room: count %d, want 1", out.Count)
	}
	rec = a.do(http.MethodGet, "/api/bookings?status=confirmed", "", a.token)
	decode(t, rec, &out)
	if out.Count != 0 {
		t.Errorf("confirmed: count %d, want 0", out.Count)
	}
	if rec := a.do(http.MethodGet, "/api/bookings?client_id=x", "", a.token); rec.Code != http.StatusBadRequest {
		t.Errorf("bad client_id: status %d, want 400", rec.Code)
	}
}

func itoa(n uint64) string { return strconv.FormatUint(n, 10) }
