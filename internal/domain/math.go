package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount parses user input into a decimal. Blank or malformed input is
// reported as a validation error on field.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, ValidationErrors{field: "must be a number"}
	}
	return d, nil
}

// FormatCurrency renders amount in whole units of the given currency, e.g. "€1,235".
// Unknown currency codes fall back to EUR.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		cur = money.GetCurrency(money.EUR)
	}
	whole := *cur
	whole.Fraction = 0
	return whole.Formatter().Format(amount.Round(0).IntPart())
}

// Share returns part/total in percent rounded to two decimals, or zero when total is zero.
func Share(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}
