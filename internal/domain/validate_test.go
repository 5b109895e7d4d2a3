package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateNewStockPosition(t *testing.T) {
	tomorrow := FormatDay(Today().AddDate(0, 0, 1))

	tests := []struct {
		name      string
		form      NewStockPosition
		wantField string
	}{
		{"valid", NewStockPosition{Amount: decimal.NewFromInt(3), StartDate: "2023-01-02", Ticker: "AAPL"}, ""},
		{"zero amount allowed", NewStockPosition{Amount: decimal.Zero, StartDate: "2023-01-02"}, ""},
		{"negative amount", NewStockPosition{Amount: decimal.NewFromInt(-1), StartDate: "2023-01-02"}, "amount"},
		{"missing date", NewStockPosition{Amount: decimal.NewFromInt(1)}, "start_date"},
		{"future date", NewStockPosition{Amount: decimal.NewFromInt(1), StartDate: tomorrow}, "start_date"},
		{"bad date", NewStockPosition{Amount: decimal.NewFromInt(1), StartDate: "yesterday"}, "start_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.form)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error = %v, want ValidationErrors", err)
			}
			if _, ok := verrs[tt.wantField]; !ok {
				t.Errorf("errors = %v, want entry for %q", verrs, tt.wantField)
			}
		})
	}
}

func TestValidateEditCustomAssetEvents(t *testing.T) {
	err := Validate(EditCustomAsset{})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if _, ok := verrs["events"]; !ok {
		t.Errorf("errors = %v, want events entry", verrs)
	}

	err = Validate(EditCustomAsset{Events: []AssetEvent{
		{Date: "2024-01-01", Amount: decimal.NewFromInt(1)},
		{Date: "", Amount: decimal.NewFromInt(-2)},
	}})
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if verrs["events[1].date"] != "is required" {
		t.Errorf("events[1].date = %q, want required message", verrs["events[1].date"])
	}
	if _, ok := verrs["events[1].amount"]; !ok {
		t.Errorf("errors = %v, want events[1].amount entry", verrs)
	}
}

func TestValidateCreateUserPasswordConfirmation(t *testing.T) {
	form := CreateUser{Email: "a@b.io", Password: "secret", Password2: "other", FirstName: "A", LastName: "B"}
	err := Validate(form)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if verrs["password2"] != "does not match" {
		t.Errorf("password2 = %q, want mismatch message", verrs["password2"])
	}

	form.Password2 = "secret"
	if err := Validate(form); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
