package domain

import "github.com/shopspring/decimal"

// StockPosition is a number of shares of one ticker held since StartDate.
type StockPosition struct {
	PositionID         string          `json:"position_id"`
	Amount             decimal.Decimal `json:"amount"`
	StartDate          string          `json:"start_date"`
	Ticker             string          `json:"ticker"`
	CurrentValue       decimal.Decimal `json:"current_value"`
	CurrentValueInEuro decimal.Decimal `json:"current_value_in_euro"`
	Balances           []BalancePoint  `json:"balances,omitempty"`
}

// NewStockPosition is the create form of a position.
type NewStockPosition struct {
	Amount    decimal.Decimal `json:"amount" validate:"gte=0"`
	StartDate string          `json:"start_date" validate:"required,day,notfuture"`
	Ticker    string          `json:"ticker"`
}

// EditStockPosition is the partial update of a position.
type EditStockPosition struct {
	Amount    *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gte=0"`
	StartDate *string          `json:"start_date,omitempty" validate:"omitempty,day,notfuture"`
}

// TickerSearchItem is one match returned by stocks/search/{query}.
type TickerSearchItem struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Region     string  `json:"region"`
	MatchScore float64 `json:"match_score"`
}
