package sheets

import (
	"math"
	"strconv"
	"strings"
)

var numberCleaner = strings.NewReplacer(
	",", "", "%", "", " ", "", "\u00a0", "",
	"₹", "", "$", "", "€", "", "£", "",
)

// parseNumber cleans and parses a cell. Accounting negatives like "(500)"
// read as -500. Non-finite values are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = numberCleaner.Replace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// Number parses a spreadsheet number such as "1,234", "₹1,000" or "56%".
// Blank, "-" and unparsable input read as 0, as do NaN and infinities.
// Percent values are not scaled: "56%" is 56.
func Number(s string) float64 {
	v, _ := parseNumber(s)
	return v
}

// NullableNumber is Number for fields where "not applicable" differs from 0.
// Blank, "-" and unparsable input return nil.
func NullableNumber(s string) *float64 {
	v, ok := parseNumber(s)
	if !ok {
		return nil
	}
	return &v
}

// Int is Number truncated toward zero.
func Int(s string) int {
	return int(Number(s))
}
