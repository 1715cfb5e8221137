package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestTotalPrice(t *testing.T) {
	lines := []BuildLine{
		{BuildPart: BuildPart{Quantity: 1}, Part: Part{Price: price("199.99")}},
		{BuildPart: BuildPart{Quantity: 2, PriceOverride: price("45.50")}, Part: Part{Price: price("60")}},
	}
	got := TotalPrice(lines)
	if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString("290.99")) {
		t.Fatalf("TotalPrice = %v, want 290.99", got)
	}
}

func TestTotalPriceUnknownWhenALineHasNoPrice(t *testing.T) {
	lines := []BuildLine{
		{BuildPart: BuildPart{Quantity: 1}, Part: Part{Price: price("10")}},
		{BuildPart: BuildPart{Quantity: 1}, Part: Part{}},
	}
	if got := TotalPrice(lines); got.Valid {
		t.Fatalf("TotalPrice = %v, want absent", got.Decimal)
	}
}

func TestTotalPriceOfEmptyBuildIsZero(t *testing.T) {
	got := TotalPrice(nil)
	if !got.Valid || !got.Decimal.IsZero() {
		t.Fatalf("TotalPrice(nil) = %v, want 0", got)
	}
}
