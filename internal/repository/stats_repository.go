package repository

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotelops/hotel-backend/internal/model"
)

// Incomes in these statuses count as revenue: confirmed ones belong to
// live bookings and completed ones to stays that ended normally.
const revenueFilter = "status IN ('" + model.IncomeConfirmed + "','" + model.IncomeCompleted + "')"

// StatsRepo runs the aggregate queries behind the dashboard.  Period
// bounds are computed by the caller in the hotel time zone and passed in
// as instants.
type StatsRepo struct{ DB *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

type QuickStats struct {
	MonthlyRevenue      decimal.Decimal
	MonthlyClients      int
	OccupancyPercentage float64
	TodayPayments       int
}

type Occupancy struct {
	Total       int
	Occupied    int
	Maintenance int
	Available   int
	Percentage  float64
}

type MonthRevenue struct {
	Month   string // YYYY-MM in the hotel time zone
	Revenue decimal.Decimal
}

type DayRevenue struct {
	Day     string // YYYY-MM-DD in the hotel time zone
	Revenue decimal.Decimal
}

type DayClients struct {
	Day     string
	Clients int
}

type PaymentMethodTotal struct {
	Method string
	Amount decimal.Decimal
	Count  int
}

type Spender struct {
	ClientID     uint64
	Name         string
	Document     string
	Transactions int
	Total        decimal.Decimal
	OnBookings   int
	OnArchives   int
}

func (r *StatsRepo) QuickStats(ctx context.Context, monthStart, dayStart time.Time) (QuickStats, error) {
	var (
		qs      QuickStats
		revenue decimal.NullDecimal
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT SUM(amount), COUNT(DISTINCT client_id) FROM incomes WHERE "+revenueFilter+" AND paid_at >= ?",
		monthStart.UTC()).Scan(&revenue, &qs.MonthlyClients)
	if err != nil {
		return QuickStats{}, err
	}
	if revenue.Valid {
		qs.MonthlyRevenue = revenue.Decimal
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM incomes WHERE "+revenueFilter+" AND paid_at >= ?",
		dayStart.UTC()).Scan(&qs.TodayPayments); err != nil {
		return QuickStats{}, err
	}
	occ, err := r.Occupancy(ctx)
	if err != nil {
		return QuickStats{}, err
	}
	qs.OccupancyPercentage = occ.Percentage
	return qs, nil
}

func (r *StatsRepo) Occupancy(ctx context.Context) (Occupancy, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT availability, COUNT(*) FROM rooms WHERE is_deleted = 0 GROUP BY availability")
	if err != nil {
		return Occupancy{}, err
	}
	defer rows.Close()
	var o Occupancy
	for rows.Next() {
		var (
			availability string
			n            int
		)
		if err := rows.Scan(&availability, &n); err != nil {
			return Occupancy{}, err
		}
		o.Total += n
		switch availability {
		case model.RoomOccupied:
			o.Occupied = n
		case model.RoomMaintenance:
			o.Maintenance = n
		case model.RoomAvailable:
			o.Available = n
		}
	}
	if err := rows.Err(); err != nil {
		return Occupancy{}, err
	}
	o.Percentage = percentage(o.Occupied, o.Total)
	return o, nil
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

type paidAmount struct {
	PaidAt time.Time
	Amount decimal.Decimal
}

// MonthlyRevenue returns revenue for the months months ending with the
// month containing now, oldest first, including months without income.
func (r *StatsRepo) MonthlyRevenue(ctx context.Context, now time.Time, loc *time.Location, months int) ([]MonthRevenue, error) {
	start := monthStart(now.In(loc)).AddDate(0, -(months - 1), 0)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT paid_at, amount FROM incomes WHERE "+revenueFilter+" AND paid_at >= ?", start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paid []paidAmount
	for rows.Next() {
		var p paidAmount
		if err := rows.Scan(&p.PaidAt, &p.Amount); err != nil {
			return nil, err
		}
		paid = append(paid, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupByMonth(paid, start, months, loc), nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func groupByMonth(paid []paidAmount, start time.Time, months int, loc *time.Location) []MonthRevenue {
	out := make([]MonthRevenue, months)
	index := make(map[string]int, months)
	for i := range out {
		key := start.AddDate(0, i, 0).Format("2006-01")
		out[i] = MonthRevenue{Month: key, Revenue: decimal.Zero}
		index[key] = i
	}
	for _, p := range paid {
		if i, ok := index[p.PaidAt.In(loc).Format("2006-01")]; ok {
			out[i].Revenue = out[i].Revenue.Add(p.Amount)
		}
	}
	return out
}

type dailyPayment struct {
	PaidAt   time.Time
	Amount   decimal.Decimal
	ClientID uint64
}

func (r *StatsRepo) dailyPayments(ctx context.Context, start time.Time) ([]dailyPayment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT paid_at, amount, client_id FROM incomes WHERE "+revenueFilter+" AND paid_at >= ?", start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paid []dailyPayment
	for rows.Next() {
		var p dailyPayment
		if err := rows.Scan(&p.PaidAt, &p.Amount, &p.ClientID); err != nil {
			return nil, err
		}
		paid = append(paid, p)
	}
	return paid, rows.Err()
}

// firstDay is the start of the oldest of the days days ending today.
func firstDay(now time.Time, loc *time.Location, days int) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day()-(days-1), 0, 0, 0, 0, loc)
}

func dayIndex(start time.Time, days int) ([]string, map[string]int) {
	keys := make([]string, days)
	index := make(map[string]int, days)
	for i := range keys {
		keys[i] = start.AddDate(0, 0, i).Format("2006-01-02")
		index[keys[i]] = i
	}
	return keys, index
}

// DailyRevenue returns revenue per day for the days days ending today,
// oldest first, including days without income.
func (r *StatsRepo) DailyRevenue(ctx context.Context, now time.Time, loc *time.Location, days int) ([]DayRevenue, error) {
	start := firstDay(now, loc, days)
	paid, err := r.dailyPayments(ctx, start)
	if err != nil {
		return nil, err
	}
	return groupRevenueByDay(paid, start, days, loc), nil
}

func groupRevenueByDay(paid []dailyPayment, start time.Time, days int, loc *time.Location) []DayRevenue {
	keys, index := dayIndex(start, days)
	out := make([]DayRevenue, days)
	for i, k := range keys {
		out[i] = DayRevenue{Day: k, Revenue: decimal.Zero}
	}
	for _, p := range paid {
		if i, ok := index[p.PaidAt.In(loc).Format("2006-01-02")]; ok {
			out[i].Revenue = out[i].Revenue.Add(p.Amount)
		}
	}
	return out
}

// DailyClients counts distinct paying clients per day for the days days
// ending today, oldest first.
func (r *StatsRepo) DailyClients(ctx context.Context, now time.Time, loc *time.Location, days int) ([]DayClients, error) {
	start := firstDay(now, loc, days)
	paid, err := r.dailyPayments(ctx, start)
	if err != nil {
		return nil, err
	}
	return groupClientsByDay(paid, start, days, loc), nil
}

func groupClientsByDay(paid []dailyPayment, start time.Time, days int, loc *time.Location) []DayClients {
	keys, index := dayIndex(start, days)
	seen := make([]map[uint64]struct{}, days)
	for _, p := range paid {
		i, ok := index[p.PaidAt.In(loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		if seen[i] == nil {
			seen[i] = make(map[uint64]struct{})
		}
		seen[i][p.ClientID] = struct{}{}
	}
	out := make([]DayClients, days)
	for i, k := range keys {
		out[i] = DayClients{Day: k, Clients: len(seen[i])}
	}
	return out
}

// PaymentsByMethod totals revenue per lower-cased payment method in
// [from, to).
func (r *StatsRepo) PaymentsByMethod(ctx context.Context, from, to time.Time) ([]PaymentMethodTotal, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT LOWER(payment_method), SUM(amount), COUNT(*) FROM incomes
		  WHERE `+revenueFilter+` AND paid_at >= ? AND paid_at < ?
		  GROUP BY LOWER(payment_method) ORDER BY LOWER(payment_method)`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PaymentMethodTotal{}
	for rows.Next() {
		var p PaymentMethodTotal
		if err := rows.Scan(&p.Method, &p.Amount, &p.Count); err != nil {
			return nil, err
		}
		p.Method = strings.TrimSpace(p.Method)
		out = append(out, p)
	}
	return out, rows.Err()
}

// TopSpenders ranks clients by revenue in [from, to).
func (r *StatsRepo) TopSpenders(ctx context.Context, from, to time.Time, limit int) ([]Spender, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT i.client_id, c.name, c.document, COUNT(i.id), SUM(i.amount),
		        SUM(CASE WHEN i.booking_id IS NOT NULL THEN 1 ELSE 0 END),
		        SUM(CASE WHEN i.archive_id IS NOT NULL THEN 1 ELSE 0 END)
		   FROM incomes i JOIN clients c ON c.id = i.client_id
		  WHERE i.status IN (?, ?) AND i.paid_at >= ? AND i.paid_at < ?
		  GROUP BY i.client_id, c.name, c.document
		  ORDER BY SUM(i.amount) DESC
		  LIMIT ?`,
		model.IncomeConfirmed, model.IncomeCompleted, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Spender{}
	for rows.Next() {
		var s Spender
		if err := rows.Scan(&s.ClientID, &s.Name, &s.Document, &s.Transactions, &s.Total,
			&s.OnBookings, &s.OnArchives); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
