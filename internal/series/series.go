// Package series turns raw balance series into date-aligned, chart-ready
// series. Every function is pure: inputs are never modified.
package series

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
)

// SumByDay groups points by date string and sums Amount and AmountInEuro of
// points sharing a date. One point per distinct date is returned, in no
// particular order.
func SumByDay(points []domain.BalancePoint) []domain.BalancePoint {
	if len(points) == 0 {
		return []domain.BalancePoint{}
	}
	byDate := lo.GroupBy(points, func(p domain.BalancePoint) string { return p.Date })
	return lo.MapToSlice(byDate, func(date string, group []domain.BalancePoint) domain.BalancePoint {
		return lo.Reduce(group, func(acc domain.BalancePoint, p domain.BalancePoint, _ int) domain.BalancePoint {
			acc.Amount = acc.Amount.Add(p.Amount)
			acc.AmountInEuro = acc.AmountInEuro.Add(p.AmountInEuro)
			return acc
		}, domain.BalancePoint{Date: date, Amount: decimal.Zero, AmountInEuro: decimal.Zero})
	})
}

// UnionDates returns every distinct date present in any of the given series,
// in first-seen order.
func UnionDates(all ...[]domain.BalancePoint) []string {
	return lo.Uniq(lo.FlatMap(all, func(s []domain.BalancePoint, _ int) []string {
		return lo.Map(s, func(p domain.BalancePoint, _ int) string { return p.Date })
	}))
}

// FillMissingDates appends a zero-valued point for every date of allDates
// that has no point in points. Existing points are kept as they are.
func FillMissingDates(points []domain.BalancePoint, allDates []string) []domain.BalancePoint {
	present := lo.SliceToMap(points, func(p domain.BalancePoint) (string, struct{}) {
		return p.Date, struct{}{}
	})
	out := make([]domain.BalancePoint, len(points), len(points)+len(allDates))
	copy(out, points)
	for _, date := range allDates {
		if _, ok := present[date]; ok {
			continue
		}
		present[date] = struct{}{}
		out = append(out, domain.BalancePoint{Date: date, Amount: decimal.Zero, AmountInEuro: decimal.Zero})
	}
	return out
}

// SortByDate returns a chronologically sorted copy of points. The sort is
// stable; points with unparsable dates go last.
func SortByDate(points []domain.BalancePoint) []domain.BalancePoint {
	out := make([]domain.BalancePoint, len(points))
	copy(out, points)
	keys := make([]time.Time, len(out))
	valid := make([]bool, len(out))
	for i, p := range out {
		keys[i], valid[i] = parse(p.Date)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if valid[ia] != valid[ib] {
			return valid[ia]
		}
		return keys[ia].Before(keys[ib])
	})
	sorted := make([]domain.BalancePoint, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// Downsample keeps at most maxPoints items, picking index
// floor((i+1)*len/maxPoints)-1 for i in [0, maxPoints). Order is preserved.
// Input no longer than maxPoints is returned unchanged. The selection is by
// index, so callers sort chronologically first.
func Downsample[T any](items []T, maxPoints int) []T {
	if len(items) <= maxPoints {
		return items
	}
	if maxPoints <= 0 {
		return []T{}
	}
	out := make([]T, maxPoints)
	for i := range maxPoints {
		out[i] = items[(i+1)*len(items)/maxPoints-1]
	}
	return out
}

// Latest returns the AmountInEuro of the chronologically last point, or zero.
func Latest(points []domain.BalancePoint) decimal.Decimal {
	sorted := SortByDate(points)
	if len(sorted) == 0 {
		return decimal.Zero
	}
	return sorted[len(sorted)-1].AmountInEuro
}

func parse(date string) (time.Time, bool) {
	t, err := domain.ParseDay(date)
	return t, err == nil
}
