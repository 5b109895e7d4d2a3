package domain

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used by asset forms that leave the currency empty.
const DefaultCurrency = "EUR"

// CustomAsset is a user-defined asset valued through manually entered events.
type CustomAsset struct {
	AssetID            string          `json:"asset_id"`
	Description        string          `json:"description"`
	Currency           string          `json:"currency"`
	CurrentValue       decimal.Decimal `json:"current_value"`
	CurrentValueInEuro decimal.Decimal `json:"current_value_in_euro"`
	Balances           []BalancePoint  `json:"balances,omitempty"`
	Events             []AssetEvent    `json:"events,omitempty"`
}

// AssetEvent is a user-entered valuation of a custom asset on a given day.
type AssetEvent struct {
	Date   string          `json:"date" validate:"required,day,notfuture"`
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

// NewCustomAsset is the create form of a custom asset.
type NewCustomAsset struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
	Currency    string          `json:"currency" validate:"required"`
	AssetDate   string          `json:"asset_date" validate:"required,day,notfuture"`
}

// EditCustomAsset is the edit form of a custom asset. Events replaces the
// full set of valuation events.
type EditCustomAsset struct {
	Description *string      `json:"description,omitempty"`
	Currency    *string      `json:"currency,omitempty"`
	Events      []AssetEvent `json:"events,omitempty" validate:"min=1,dive"`
}

// RemovedEvents returns the events of current whose date no longer appears in
// submitted. Dates are compared as calendar days.
func RemovedEvents(current, submitted []AssetEvent) []AssetEvent {
	kept := lo.SliceToMap(submitted, func(e AssetEvent) (string, struct{}) {
		return dayKey(e.Date), struct{}{}
	})
	return lo.Filter(current, func(e AssetEvent, _ int) bool {
		_, ok := kept[dayKey(e.Date)]
		return !ok
	})
}

func dayKey(s string) string {
	t, err := ParseDay(s)
	if err != nil {
		return s
	}
	return FormatDay(t)
}
