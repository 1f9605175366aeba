package feedcrawler

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// currencyTokens maps the symbols and shorthands storefronts print next to a
// price onto ISO 4217 codes. Longer tokens come first so "US$" wins over "$".
var currencyTokens = []struct {
	token string
	code  string
}{
	{"US$", "USD"},
	{"DHS.", "AED"},
	{"DHS", "AED"},
	{"AED", "AED"},
	{"USD", "USD"},
	{"EUR", "EUR"},
	{"GBP", "GBP"},
	{"SAR", "SAR"},
	{"JPY", "JPY"},
	{"د.إ", "AED"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

// ParsePrice normalizes a raw storefront price string into Money. It accepts
// currency symbols or codes on either side of the number, thousands
// separators in both the "1,234.50" and "1.234,50" conventions, and
// surrounding text. fallback supplies the currency when the string carries no
// recognizable token.
func ParsePrice(raw, fallback string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Money{}, fmt.Errorf("empty price")
	}

	currency := detectCurrency(s)
	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(fallback))
	}
	if currency == "" {
		return Money{}, fmt.Errorf("no currency in %q", raw)
	}

	amount, err := parseAmount(s)
	if err != nil {
		return Money{}, fmt.Errorf("price %q: %w", raw, err)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

func detectCurrency(s string) string {
	upper := strings.ToUpper(s)
	for _, t := range currencyTokens {
		if strings.Contains(upper, strings.ToUpper(t.token)) {
			return t.code
		}
	}
	return ""
}

// parseAmount pulls the numeric part out of a price string and resolves the
// separator convention. When both "." and "," appear, the later one is the
// decimal mark. A lone "," is decimal only when followed by one or two
// digits; a lone "." repeated is a thousands separator.
func parseAmount(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	n := strings.Trim(b.String(), ".,")
	if n == "" {
		return decimal.Decimal{}, fmt.Errorf("no digits")
	}

	dot := strings.LastIndex(n, ".")
	comma := strings.LastIndex(n, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if dot > comma {
			n = strings.ReplaceAll(n, ",", "")
		} else {
			n = strings.ReplaceAll(n, ".", "")
			n = strings.Replace(n, ",", ".", 1)
		}
	case comma >= 0:
		if strings.Count(n, ",") == 1 && len(n)-comma-1 <= 2 {
			n = strings.Replace(n, ",", ".", 1)
		} else {
			n = strings.ReplaceAll(n, ",", "")
		}
	case strings.Count(n, ".") > 1:
		n = strings.ReplaceAll(n, ".", "")
	}

	amount, err := decimal.NewFromString(n)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %q: %w", n, err)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative amount %s", amount)
	}
	return amount, nil
}

// normalizeAvailability folds free-form stock text into the two feed values.
// Absent or unrecognized text counts as in stock, matching how the
// storefront renders purchasable products.
func normalizeAvailability(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, marker := range []string{"out of stock", "sold out", "unavailable", "out-of-stock"} {
		if strings.Contains(lower, marker) {
			return OutOfStock
		}
	}
	return InStock
}
