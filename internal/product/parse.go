package product

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"sjsage522/pricescout/helpers"
)

var leadingNumber = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)`)

// ParsePrice converts scraped price text into a non-negative finite number.
// Currency symbols and thousands separators are dropped first.
func ParsePrice(text string) *float64 {
	cleaned := helpers.DecimalOnly(text)
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || !finite(v) || v < 0 {
		return nil
	}
	return &v
}

// ParseRating reads the leading number of a phrase like "4.7 out of 5 stars".
func ParseRating(text string) *float64 {
	m := leadingNumber.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil || !finite(v) || v < 0 || v > 5 {
		return nil
	}
	return &v
}

// ParseReviewCount keeps the digits of text and parses them as a count.
func ParseReviewCount(text string) *int {
	digits := helpers.DigitsOnly(text)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
