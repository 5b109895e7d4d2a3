// Package dashboard turns cached balances into chart-ready series.
package dashboard

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/series"
	"github.com/mtlprog/wealth/internal/store"
)

// DefaultMaxPoints bounds the length of every overview series.
const DefaultMaxPoints = 200

// Series is one kind's balance history.
type Series struct {
	Kind   store.Kind            `json:"kind"`
	Label  string                `json:"label"`
	Points []domain.BalancePoint `json:"points"`
}

// Slice is one kind's share of the current total.
type Slice struct {
	Kind         store.Kind      `json:"kind"`
	Label        string          `json:"label"`
	AmountInEuro decimal.Decimal `json:"amount_in_euro"`
	Share        decimal.Decimal `json:"share"`
}

// Overview is the data behind the overview page.
type Overview struct {
	Series      []Series        `json:"series"`
	Total       decimal.Decimal `json:"total"`
	TotalLabel  string          `json:"total_label"`
	Composition []Slice         `json:"composition"`
}

// BuildOverview sums every kind by day, aligns the kinds on a shared date
// axis and downsamples each to maxPoints. Total and composition use the
// latest euro amount of each kind before alignment.
func BuildOverview(reg *store.Registry, maxPoints int) Overview {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}

	summed := lo.Map(store.Kinds, func(k store.Kind, _ int) []domain.BalancePoint {
		return series.SortByDate(series.SumByDay(reg.Series(k)))
	})
	latest := lo.Map(summed, func(points []domain.BalancePoint, _ int) decimal.Decimal {
		return series.Latest(points)
	})
	total := decimal.Sum(decimal.Zero, latest...)

	allDates := series.UnionDates(summed...)
	out := Overview{
		Series:      make([]Series, len(store.Kinds)),
		Total:       total,
		TotalLabel:  domain.FormatCurrency(total, domain.DefaultCurrency),
		Composition: make([]Slice, len(store.Kinds)),
	}
	for i, kind := range store.Kinds {
		aligned := series.SortByDate(series.FillMissingDates(summed[i], allDates))
		out.Series[i] = Series{
			Kind:   kind,
			Label:  kind.Label(),
			Points: series.Downsample(aligned, maxPoints),
		}
		out.Composition[i] = Slice{
			Kind:         kind,
			Label:        kind.Label() + ": " + domain.FormatCurrency(latest[i], domain.DefaultCurrency),
			AmountInEuro: latest[i],
			Share:        domain.Share(latest[i], total),
		}
	}
	return out
}

// Graph is the series of one kind within a trailing window.
type Graph struct {
	Kind   store.Kind            `json:"kind"`
	Months int                   `json:"months"`
	Window string                `json:"window"`
	Points []domain.BalancePoint `json:"points"`
	Latest decimal.Decimal       `json:"latest"`

	// Ticks are the first days of the months spanned by Points, used as
	// x-axis labels.
	Ticks []string `json:"ticks"`
}

// WindowedSeries sums points by day, keeps the trailing months window and
// sorts the result chronologically.
func WindowedSeries(points []domain.BalancePoint, months int) []domain.BalancePoint {
	return series.SortByDate(series.TrailingWindow(series.SumByDay(points), months))
}

// BuildGraph renders the graph of kind for the selected entity ids (all
// entities when ids is empty).
func BuildGraph(reg *store.Registry, kind store.Kind, months int, ids ...string) Graph {
	points := WindowedSeries(reg.AllBalances(kind, ids...), months)
	ticks := lo.Map(series.Months(points), func(t time.Time, _ int) string {
		return domain.FormatDay(t)
	})
	return Graph{
		Kind:   kind,
		Months: months,
		Window: series.WindowLabel(months),
		Points: points,
		Latest: series.Latest(points),
		Ticks:  ticks,
	}
}

// Board renders dashboard views from a registry.
type Board struct {
	reg       *store.Registry
	maxPoints int
}

func NewBoard(reg *store.Registry, maxPoints int) *Board {
	return &Board{reg: reg, maxPoints: maxPoints}
}

// Overview builds the overview with the configured point budget.
func (b *Board) Overview() Overview { return BuildOverview(b.reg, b.maxPoints) }

// OverviewWithPoints builds the overview with an explicit point budget.
func (b *Board) OverviewWithPoints(maxPoints int) Overview { return BuildOverview(b.reg, maxPoints) }

// Graph builds the graph of kind for the selected ids.
func (b *Board) Graph(kind store.Kind, months int, ids ...string) Graph {
	return BuildGraph(b.reg, kind, months, ids...)
}
