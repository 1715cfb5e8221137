package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string // "" means absent
	}{
		{"$1,234.50", "1234.5"},
		{"৳500", "500"},
		{"Tk. 2,500", "2500"},
		{"BDT 99", "99"},
		{"bdt99.90", "99.9"},
		{"£12", "12"},
		{"€ 7.25", "7.25"},
		{"  42  ", "42"},
		{"0", "0"},
		{"-5", "-5"},
		{"", ""},
		{"   ", ""},
		{"call us", ""},
		{"1.2.3", ""},
		{"-", ""},
	}
	for _, tt := range tests {
		got := NormalizePrice(tt.in)
		if tt.want == "" {
			if got.Valid {
				t.Errorf("NormalizePrice(%q) = %s, want absent", tt.in, got.Decimal)
			}
			continue
		}
		if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("NormalizePrice(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePriceZeroIsNotAbsent(t *testing.T) {
	got := NormalizePrice("$0.00")
	if !got.Valid || !got.Decimal.IsZero() {
		t.Fatalf("NormalizePrice($0.00) = %v, want a valid zero", got)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"", 1, true},
		{"3", 3, true},
		{" 2 ", 2, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"two", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseQuantity(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseQuantity(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
