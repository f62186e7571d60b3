package booking

import (
	"strings"
	"time"

	"github.com/hotelops/hotel-backend/internal/apperr"
)

// WireLayout is the date-time format accepted and produced by the API.
// Values carry no zone and are read in the hotel's location.
const WireLayout = "2006-01-02T15:04:05"

// ParseWire parses s in loc and returns the instant in UTC.
func ParseWire(field, s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(WireLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, apperr.Validationf("invalid date format for %s, use YYYY-MM-DDTHH:MM:SS", field)
	}
	return t.UTC(), nil
}

// FormatWire renders t in loc using WireLayout.
func FormatWire(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(WireLayout)
}
