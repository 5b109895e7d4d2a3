package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DayFormat is the calendar-day layout used on the wire.
const DayFormat = "2006-01-02"

var dayLayouts = []string{
	DayFormat,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
}

func init() {
	// The backend expects amounts as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// BalancePoint is one dated balance snapshot of an account, position or asset.
type BalancePoint struct {
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	AmountInEuro decimal.Decimal `json:"amount_in_euro"`
}

// Day parses the point date into a UTC midnight time.
func (p BalancePoint) Day() (time.Time, error) {
	return ParseDay(p.Date)
}

// ParseDay parses a calendar-day string. Full timestamps are accepted and
// truncated to their UTC day.
func ParseDay(s string) (time.Time, error) {
	for _, layout := range dayLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected %s", s, DayFormat)
}

// FormatDay formats t as a calendar-day string.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// Today returns the current UTC day.
func Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
