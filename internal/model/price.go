package model

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRe matches the first numeric amount in a formatted price string,
// tolerating "1 234,56", "1.234,56" and "1,234.56" style separators. The
// grouped alternative requires at least one separator group so plain amounts
// like "1250" fall through whole to the second alternative.
var priceRe = regexp.MustCompile(`\d{1,3}(?:[ \.,]\d{3})+(?:[\.,]\d{1,2})?|\d+(?:[\.,]\d{1,2})?`)

// ParsePrice extracts a decimal amount from a formatted price string
// (currency symbols, thousands separators). It returns nil for unparsable
// or negative input so callers can distinguish "unknown" from "free".
func ParsePrice(raw string) *float64 {
	cleaned := strings.ReplaceAll(raw, " ", " ")
	if strings.Contains(cleaned, "-") {
		return nil
	}

	match := priceRe.FindString(cleaned)
	if match == "" {
		return nil
	}

	match = strings.ReplaceAll(match, " ", "")

	// Decide which of '.' and ',' is the decimal mark: the right-most one,
	// and only when followed by at most two digits.
	lastDot := strings.LastIndex(match, ".")
	lastComma := strings.LastIndex(match, ",")
	sep := lastDot
	if lastComma > lastDot {
		sep = lastComma
	}

	if sep >= 0 && len(match)-sep-1 <= 2 {
		intPart := match[:sep]
		fracPart := match[sep+1:]
		intPart = strings.Map(digitsOnly, intPart)
		match = intPart + "." + fracPart
	} else {
		match = strings.Map(digitsOnly, match)
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

func digitsOnly(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}

// Float64Ptr is a small helper for building optional prices.
func Float64Ptr(v float64) *float64 {
	return &v
}
