package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/hotelops/hotel-backend/internal/apperr"
	"github.com/hotelops/hotel-backend/internal/booking"
	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/repository"
)

// IncomeHandler serves the income ledger.  Rows are written only by the
// booking engine.
type IncomeHandler struct {
	Incomes *repository.IncomeRepo
	Loc     *time.Location
}

func NewIncomeHandler(r *repository.IncomeRepo, loc *time.Location) *IncomeHandler {
	return &IncomeHandler{Incomes: r, Loc: loc}
}

type incomeResp struct {
	ID             uint64          `json:"id"`
	BookingID      *uint64         `json:"booking_id"`
	ArchiveID      *uint64         `json:"archive_id"`
	ClientID       uint64          `json:"client_id"`
	ClientName     string          `json:"client_name"`
	ClientDocument string          `json:"client_document"`
	PaidAt         string          `json:"paid_at"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         string          `json:"status"`
	Notes          string          `json:"notes"`
}

func toIncomeResp(in model.Income, loc *time.Location) incomeResp {
	return incomeResp{
		ID: in.ID, BookingID: in.BookingID, ArchiveID: in.ArchiveID, ClientID: in.ClientID,
		ClientName: in.ClientName, ClientDocument: in.ClientDocument,
		PaidAt: booking.FormatWire(in.PaidAt, loc),
		Amount: in.Amount, PaymentMethod: in.PaymentMethod, Status: in.Status, Notes: in.Notes,
	}
}

// filter reads booking_id, archive_id, client_id, status, from and to from
// the query string.  from and to use the wire layout.
func (h *IncomeHandler) filter(c echo.Context) (repository.IncomeFilter, error) {
	var (
		f   repository.IncomeFilter
		err error
	)
	if f.BookingID, err = queryID(c, "booking_id"); err != nil {
		return f, err
	}
	if f.ArchiveID, err = queryID(c, "archive_id"); err != nil {
		return f, err
	}
	if f.ClientID, err = queryID(c, "client_id"); err != nil {
		return f, err
	}
	f.Status = strings.TrimSpace(c.QueryParam("status"))
	if f.Status != "" && !model.IsValidIncomeStatus(f.Status) {
		return f, apperr.Validationf("invalid income status %q", f.Status)
	}
	if raw := c.QueryParam("from"); raw != "" {
		if f.From, err = booking.ParseWire("from", raw, h.Loc); err != nil {
			return f, err
		}
	}
	if raw := c.QueryParam("to"); raw != "" {
		if f.To, err = booking.ParseWire("to", raw, h.Loc); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (h *IncomeHandler) respond(c echo.Context, f repository.IncomeFilter) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Incomes.List(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]incomeResp, 0, len(list))
	for _, in := range list {
		out = append(out, toIncomeResp(in, h.Loc))
	}
	return items(c, out, len(out))
}

// List handles GET /api/incomes.
func (h *IncomeHandler) List(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return respondError(c, err)
	}
	return h.respond(c, f)
}

func (h *IncomeHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	in, err := h.Incomes.GetByID(ctx, id)
	if err != nil {
		return respondError(c, entityErr(err, "income"))
	}
	return c.JSON(http.StatusOK, toIncomeResp(in, h.Loc))
}

func (h *IncomeHandler) ByBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	return h.respond(c, repository.IncomeFilter{BookingID: id})
}

func (h *IncomeHandler) ByArchive(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	return h.respond(c, repository.IncomeFilter{ArchiveID: id})
}

func (h *IncomeHandler) ByClient(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	return h.respond(c, repository.IncomeFilter{ClientID: id})
}

func (h *IncomeHandler) ByStatus(c echo.Context) error {
	status := strings.TrimSpace(c.Param("status"))
	if !model.IsValidIncomeStatus(status) {
		return respondError(c, apperr.Validationf("invalid income status %q", status))
	}
	return h.respond(c, repository.IncomeFilter{Status: status})
}

// Export handles GET /api/incomes/export.  It accepts the List filters and
// returns the matching rows as an xlsx workbook.
func (h *IncomeHandler) Export(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Incomes.List(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	buf, err := incomeWorkbook(list, h.Loc)
	if err != nil {
		return respondError(c, err)
	}
	name := fmt.Sprintf("incomes_%s.xlsx", time.Now().In(h.Loc).Format("20060102_150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

const incomeSheet = "Incomes"

var incomeHeaders = []string{"ID", "Booking", "Archive", "Client", "Document", "Paid at", "Amount", "Method", "Status", "Notes"}

// incomeWorkbook renders incomes into a single-sheet workbook with a total
// row below the data.
func incomeWorkbook(list []model.Income, loc *time.Location) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", incomeSheet); err != nil {
		return nil, err
	}
	for i, header := range incomeHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(incomeSheet, cell, header); err != nil {
			return nil, err
		}
	}

	total := decimal.Zero
	for i, in := range list {
		row := i + 2
		values := []interface{}{
			in.ID, optionalID(in.BookingID), optionalID(in.ArchiveID), in.ClientName, in.ClientDocument,
			booking.FormatWire(in.PaidAt, loc), in.Amount.InexactFloat64(), in.PaymentMethod, in.Status, in.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(incomeSheet, cell, v); err != nil {
				return nil, err
			}
		}
		total = total.Add(in.Amount)
	}

	totalRow := len(list) + 2
	if err := f.SetCellValue(incomeSheet, fmt.Sprintf("A%d", totalRow), "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(incomeSheet, fmt.Sprintf("G%d", totalRow), total.InexactFloat64()); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(incomeSheet, "A", "C", 10)
	_ = f.SetColWidth(incomeSheet, "D", "D", 28)
	_ = f.SetColWidth(incomeSheet, "E", "E", 16)
	_ = f.SetColWidth(incomeSheet, "F", "F", 20)
	_ = f.SetColWidth(incomeSheet, "G", "I", 12)
	_ = f.SetColWidth(incomeSheet, "J", "J", 40)

	return f.WriteToBuffer()
}

func optionalID(p *uint64) interface{} {
	if p == nil {
		return ""
	}
	return *p
}
