package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineSubtotalRoundsToCents(t *testing.T) {
	got := LineSubtotal(decimal.RequireFromString("19.99"), 3)
	if !got.Equal(decimal.RequireFromString("59.97")) {
		t.Fatalf("expected 59.97 got %s", got)
	}
}

func TestRecomputeTotalSumsLines(t *testing.T) {
	sale := Sale{Lines: []SaleLine{
		{Subtotal: decimal.RequireFromString("59.97")},
		{Subtotal: decimal.RequireFromString("0.03")},
	}}
	sale.RecomputeTotal()
	if !sale.Total.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("expected 60.00 got %s", sale.Total)
	}
}

func TestDisplayNameFallback(t *testing.T) {
	if got := (User{Username: "ana"}).DisplayName(); got != "ana" {
		t.Fatalf("expected username fallback, got %q", got)
	}
	if got := (User{FirstName: "Ana", LastName: "Ruiz", Username: "ana"}).DisplayName(); got != "Ana Ruiz" {
		t.Fatalf("unexpected display name %q", got)
	}
}
