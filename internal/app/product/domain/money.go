package domain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyPrecision is the number of decimal places kept when converting from
// Spanner NUMERIC values.
const moneyPrecision = 9

// ParseAmount normalizes a monetary string such as "$1.234,56 USD" into a decimal.
// Everything except digits, '.' and ',' is discarded. When a comma is present it
// is the decimal separator and dots are thousands separators. Without a comma, a
// single dot is a decimal point and repeated dots are thousands separators.
// Unparseable input yields zero; extraction never fails on a bad amount.
func ParseAmount(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}

	switch {
	case strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		// only the last comma separates decimals
		if idx := strings.LastIndex(cleaned, ","); idx >= 0 {
			cleaned = strings.ReplaceAll(cleaned[:idx], ",", "") + "." + cleaned[idx+1:]
		}
	case strings.Count(cleaned, ".") > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	cleaned = strings.TrimRight(cleaned, ".")
	if cleaned == "" {
		return decimal.Zero
	}
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// AmountToNumeric converts a decimal into the big.Rat representation Spanner
// expects for NUMERIC columns.
func AmountToNumeric(amount decimal.Decimal) big.Rat {
	return *amount.Rat()
}

// AmountFromNumeric converts a Spanner NUMERIC value back into a decimal.
func AmountFromNumeric(value big.Rat) decimal.Decimal {
	amount, err := decimal.NewFromString(value.FloatString(moneyPrecision))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// FormatAmount renders an amount with two decimals, as used in discount titles.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
