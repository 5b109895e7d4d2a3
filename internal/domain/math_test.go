package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid integer", "100", "100", false},
		{"valid decimal", "3.14", "3.14", false},
		{"zero", "0", "0", false},
		{"negative", "-5.5", "-5.5", false},
		{"padded", "  12.5 ", "12.5", false},
		{"empty string", "", "", true},
		{"invalid string", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount("amount", tt.input)
			if tt.wantErr {
				var verrs ValidationErrors
				if !errors.As(err, &verrs) || verrs["amount"] == "" {
					t.Errorf("ParseAmount(%q) error = %v, want validation error on amount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.input, err)
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestFormatCurrencyRoundsToWholeUnits(t *testing.T) {
	got := FormatCurrency(decimal.RequireFromString("1234.6"), "EUR")
	if !strings.Contains(got, "€") {
		t.Errorf("FormatCurrency() = %q, want euro sign", got)
	}
	if !strings.Contains(got, "235") {
		t.Errorf("FormatCurrency() = %q, want rounded 1235", got)
	}
	if strings.Contains(got, "6") {
		t.Errorf("FormatCurrency() = %q, want no fractional digits", got)
	}
}

func TestFormatCurrencyUnknownCodeFallsBackToEUR(t *testing.T) {
	got := FormatCurrency(decimal.NewFromInt(5), "???")
	if !strings.Contains(got, "€") {
		t.Errorf("FormatCurrency() = %q, want euro fallback", got)
	}
}

func TestShare(t *testing.T) {
	got := Share(decimal.NewFromInt(1), decimal.NewFromInt(3))
	if !got.Equal(decimal.RequireFromString("33.33")) {
		t.Errorf("Share(1, 3) = %s, want 33.33", got)
	}
	if !Share(decimal.NewFromInt(1), decimal.Zero).IsZero() {
		t.Error("Share with zero total should be zero")
	}
}
