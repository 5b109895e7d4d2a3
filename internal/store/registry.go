package store

import (
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/mtlprog/wealth/internal/domain"
)

// Kind names one family of entities.
type Kind string

const (
	KindBanks  Kind = "banks"
	KindStocks Kind = "stocks"
	KindAssets Kind = "assets"
)

// Kinds lists every entity family in display order.
var Kinds = []Kind{KindBanks, KindStocks, KindAssets}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Label is the human-readable name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindBanks:
		return "Bank accounts"
	case KindStocks:
		return "Stocks"
	case KindAssets:
		return "Custom assets"
	default:
		return string(k)
	}
}

// Registry bundles the entity stores with the aggregated balance series the
// backend reports per kind.
type Registry struct {
	Accounts  *Store[domain.Account]
	Positions *Store[domain.StockPosition]
	Assets    *Store[domain.CustomAsset]

	mu         sync.RWMutex
	aggregates map[Kind][]domain.BalancePoint
}

func NewRegistry() *Registry {
	return &Registry{
		Accounts: New(
			func(a domain.Account) string { return a.AccountID },
			func(a *domain.Account) *[]domain.BalancePoint { return &a.Balances },
		),
		Positions: New(
			func(p domain.StockPosition) string { return p.PositionID },
			func(p *domain.StockPosition) *[]domain.BalancePoint { return &p.Balances },
		),
		Assets: New(
			func(a domain.CustomAsset) string { return a.AssetID },
			func(a *domain.CustomAsset) *[]domain.BalancePoint { return &a.Balances },
		),
		aggregates: make(map[Kind][]domain.BalancePoint),
	}
}

// ClearAll empties every store. It is registered as a logout hook.
func (r *Registry) ClearAll() {
	r.Accounts.Clear()
	r.Positions.Clear()
	r.Assets.Clear()

	r.mu.Lock()
	r.aggregates = make(map[Kind][]domain.BalancePoint)
	r.mu.Unlock()
}

// SetAggregate stores the backend-aggregated series of kind.
func (r *Registry) SetAggregate(kind Kind, points []domain.BalancePoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates[kind] = points
}

// Aggregate returns the backend-aggregated series of kind, if fetched.
func (r *Registry) Aggregate(kind Kind) ([]domain.BalancePoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	points, ok := r.aggregates[kind]
	return points, ok
}

// AllBalances concatenates the balance points of every cached entity of
// kind. When ids is non-empty only those entities contribute.
func (r *Registry) AllBalances(kind Kind, ids ...string) []domain.BalancePoint {
	want := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })
	selected := func(id string) bool {
		if len(want) == 0 {
			return true
		}
		_, ok := want[id]
		return ok
	}

	var out []domain.BalancePoint
	switch kind {
	case KindBanks:
		for _, a := range r.Accounts.All() {
			if selected(a.AccountID) {
				out = append(out, a.Balances...)
			}
		}
	case KindStocks:
		for _, p := range r.Positions.All() {
			if selected(p.PositionID) {
				out = append(out, p.Balances...)
			}
		}
	case KindAssets:
		for _, a := range r.Assets.All() {
			if selected(a.AssetID) {
				out = append(out, a.Balances...)
			}
		}
	}
	return out
}

// Series returns the series of kind: the backend aggregate when fetched,
// otherwise the concatenated entity balances.
func (r *Registry) Series(kind Kind) []domain.BalancePoint {
	if points, ok := r.Aggregate(kind); ok {
		return points
	}
	return r.AllBalances(kind)
}
