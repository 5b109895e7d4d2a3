package series

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/wealth/internal/domain"
)

// AllTime is the window length that disables trailing-window filtering.
const AllTime = -1

// MonthOptions are the window lengths offered by the month selector.
var MonthOptions = []int{1, 2, 3, 6, 12, 24, 36, 60, 120, AllTime}

// ValidMonths reports whether months is one of MonthOptions.
func ValidMonths(months int) bool {
	return lo.Contains(MonthOptions, months)
}

// TrailingWindow returns the points dated after now minus months calendar
// months. See TrailingWindowAt.
func TrailingWindow(points []domain.BalancePoint, months int) []domain.BalancePoint {
	return TrailingWindowAt(points, months, time.Now().UTC())
}

// TrailingWindowAt returns the points dated strictly after now minus months
// calendar months. A negative months (AllTime) returns points unchanged.
//
// When nothing falls inside the window, the points sharing the most recent
// date are returned with their date set to that day, so a non-empty series
// always yields at least one point.
func TrailingWindowAt(points []domain.BalancePoint, months int, now time.Time) []domain.BalancePoint {
	if months < 0 {
		return points
	}
	if len(points) == 0 {
		return []domain.BalancePoint{}
	}

	cutoff := SubtractMonths(now, months)
	inWindow := lo.Filter(points, func(p domain.BalancePoint, _ int) bool {
		day, ok := parse(p.Date)
		return ok && day.After(cutoff)
	})
	if len(inWindow) > 0 {
		return inWindow
	}

	var last time.Time
	found := false
	for _, p := range points {
		if day, ok := parse(p.Date); ok && (!found || day.After(last)) {
			last, found = day, true
		}
	}
	if !found {
		return []domain.BalancePoint{}
	}
	lastDate := domain.FormatDay(last)
	return lo.FilterMap(points, func(p domain.BalancePoint, _ int) (domain.BalancePoint, bool) {
		day, ok := parse(p.Date)
		if !ok || !day.Equal(last) {
			return domain.BalancePoint{}, false
		}
		p.Date = lastDate
		return p, true
	})
}

// SubtractMonths moves t back by n calendar months, clamping the day to the
// length of the target month (March 31 minus one month is February 28/29).
func SubtractMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(d, daysInMonth)-1)
}

// Months returns the first day of every month from the month after the
// earliest point up to the month of the latest point. The month after the
// earliest point is always included, even when every point shares a month.
func Months(points []domain.BalancePoint) []time.Time {
	days := lo.FilterMap(points, func(p domain.BalancePoint, _ int) (time.Time, bool) {
		return parse(p.Date)
	})
	if len(days) == 0 {
		return nil
	}
	first := lo.MinBy(days, func(a, b time.Time) bool { return a.Before(b) })
	last := lo.MaxBy(days, func(a, b time.Time) bool { return a.After(b) })

	month := time.Date(first.Year(), first.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := []time.Time{month}
	for month.Before(end) {
		month = month.AddDate(0, 1, 0)
		out = append(out, month)
	}
	return out
}

// WindowLabel renders a window length the way the month selector shows it.
func WindowLabel(months int) string {
	switch {
	case months < 0:
		return "All time"
	case months == 1:
		return "1 month"
	case months < 12:
		return fmt.Sprintf("%d months", months)
	case months == 12:
		return "1 year"
	default:
		return fmt.Sprintf("%g years", float64(months)/12)
	}
}

// Paginate returns the page-th slice of limit items (page is zero-based).
func Paginate[T any](items []T, page, limit int) []T {
	if page < 0 || limit <= 0 {
		return []T{}
	}
	start := page * limit
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+limit, len(items))]
}
