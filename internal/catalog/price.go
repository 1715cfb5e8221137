package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyWords = regexp.MustCompile(`(?i)(bdt|tk)\.?`)
	currencySigns = strings.NewReplacer("৳", "", "$", "", "£", "", "€", "", ",", "")
)

// NormalizePrice parses free-form price text. Empty or unparseable input
// yields an invalid NullDecimal, which is distinct from a zero price.
func NormalizePrice(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	s = currencyWords.ReplaceAllString(s, "")
	s = currencySigns.Replace(s)
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParseQuantity reads a line quantity. Blank means 1. Zero, negative and
// unparseable values report ok=false and the line should be left out.
func ParseQuantity(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
