package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/booking"
	"github.com/hotelops/hotel-backend/internal/repository"
)

// StatsHandler serves dashboard figures.  Calendar periods (today, this
// month) are computed in the hotel time zone.
type StatsHandler struct {
	Stats *repository.StatsRepo
	Loc   *time.Location
	Now   func() time.Time
}

func NewStatsHandler(r *repository.StatsRepo, loc *time.Location) *StatsHandler {
	return &StatsHandler{Stats: r, Loc: loc, Now: time.Now}
}

// periodBounds returns the start of the current day and month and the
// start of the next month, all in loc.
func periodBounds(now time.Time, loc *time.Location) (day, month, nextMonth time.Time) {
	n := now.In(loc)
	day = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	month = time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, loc)
	return day, month, month.AddDate(0, 1, 0)
}

// intQuery reads a bounded integer query parameter.
func intQuery(c echo.Context, name string, def, min, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, apperr.Validationf("%s must be between %d and %d", name, min, max)
	}
	return n, nil
}

// QuickStats handles GET /api/stats/quick-stats.
func (h *StatsHandler) QuickStats(c echo.Context) error {
	day, month, _ := periodBounds(h.Now(), h.Loc)
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	qs, err := h.Stats.QuickStats(ctx, month, day)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"monthly_revenue":      qs.MonthlyRevenue.StringFixed(2),
		"monthly_clients":      qs.MonthlyClients,
		"occupancy_percentage": qs.OccupancyPercentage,
		"today_payments":       qs.TodayPayments,
	})
}

// CurrentOccupancy handles GET /api/stats/current-occupancy.
func (h *StatsHandler) CurrentOccupancy(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	o, err := h.Stats.Occupancy(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_rooms":       o.Total,
		"occupied_rooms":    o.Occupied,
		"maintenance_rooms": o.Maintenance,
		"available_rooms":   o.Available,
		"percentage":        o.Percentage,
	})
}

// MonthlyRevenue handles GET /api/stats/monthly-revenue?months=N (1-24,
// default 12), oldest month first.
func (h *StatsHandler) MonthlyRevenue(c echo.Context) error {
	months, err := intQuery(c, "months", 12, 1, 24)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Stats.MonthlyRevenue(ctx, h.Now(), h.Loc, months)
	if err != nil {
		return respondError(c, err)
	}
	type row struct {
		Month   string `json:"month"`
		Revenue string `json:"revenue"`
	}
	out := make([]row, 0, len(list))
	for _, m := range list {
		out = append(out, row{Month: m.Month, Revenue: m.Revenue.StringFixed(2)})
	}
	return items(c, out, len(out))
}

// DailyRevenue handles GET /api/stats/daily-revenue?days=N (1-90,
// default 30), oldest day first.
func (h *StatsHandler) DailyRevenue(c echo.Context) error {
	days, err := intQuery(c, "days", 30, 1, 90)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Stats.DailyRevenue(ctx, h.Now(), h.Loc, days)
	if err != nil {
		return respondError(c, err)
	}
	type row struct {
		Day     string `json:"day"`
		Revenue string `json:"revenue"`
	}
	out := make([]row, 0, len(list))
	for _, d := range list {
		out = append(out, row{Day: d.Day, Revenue: d.Revenue.StringFixed(2)})
	}
	return items(c, out, len(out))
}

// DailyClients handles GET /api/stats/daily-clients?days=N: distinct
// paying clients per day.
func (h *StatsHandler) DailyClients(c echo.Context) error {
	days, err := intQuery(c, "days", 30, 1, 90)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Stats.DailyClients(ctx, h.Now(), h.Loc, days)
	if err != nil {
		return respondError(c, err)
	}
	type row struct {
		Day     string `json:"day"`
		Clients int    `json:"clients"`
	}
	out := make([]row, 0, len(list))
	for _, d := range list {
		out = append(out, row{Day: d.Day, Clients: d.Clients})
	}
	return items(c, out, len(out))
}

// CurrentMonthPayments handles GET /api/stats/current-month-payments.
func (h *StatsHandler) CurrentMonthPayments(c echo.Context) error {
	_, month, next := periodBounds(h.Now(), h.Loc)
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Stats.PaymentsByMethod(ctx, month, next)
	if err != nil {
		return respondError(c, err)
	}
	type row struct {
		Method string `json:"payment_method"`
		Amount string `json:"amount"`
		Count  int    `json:"count"`
	}
	out := make([]row, 0, len(list))
	total := decimal.Zero
	for _, p := range list {
		out = append(out, row{Method: p.Method, Amount: p.Amount.StringFixed(2), Count: p.Count})
		total = total.Add(p.Amount)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"month": month.Format("2006-01"),
		"items": out,
		"count": len(out),
		"total": total.StringFixed(2),
	})
}

// TopSpenders handles GET /api/stats/top-spenders.  from and to (wire
// layout) default to the current month; limit is 1-50, default 5.
func (h *StatsHandler) TopSpenders(c echo.Context) error {
	limit, err := intQuery(c, "limit", 5, 1, 50)
	if err != nil {
		return respondError(c, err)
	}
	_, from, to := periodBounds(h.Now(), h.Loc)
	if raw := c.QueryParam("from"); raw != "" {
		if from, err = booking.ParseWire("from", raw, h.Loc); err != nil {
			return respondError(c, err)
		}
	}
	if raw := c.QueryParam("to"); raw != "" {
		if to, err = booking.ParseWire("to", raw, h.Loc); err != nil {
			return respondError(c, err)
		}
	}
	if !to.After(from) {
		return respondError(c, apperr.Validation("to must be after from"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Stats.TopSpenders(ctx, from, to, limit)
	if err != nil {
		return respondError(c, err)
	}
	type row struct {
		ClientID     uint64 `json:"client_id"`
		Name         string `json:"name"`
		Document     string `json:"document"`
		Transactions int    `json:"transactions"`
		Total        string `json:"total"`
		OnBookings   int    `json:"on_bookings"`
		OnArchives   int    `json:"on_archives"`
	}
	out := make([]row, 0, len(list))
	for _, s := range list {
		out = append(out, row{
			ClientID: s.ClientID, Name: s.Name, Document: s.Document, Transactions: s.Transactions,
			Total: s.Total.StringFixed(2), OnBookings: s.OnBookings, OnArchives: s.OnArchives,
		})
	}
	return items(c, out, len(out))
}
