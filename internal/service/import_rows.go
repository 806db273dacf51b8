package service

import (
	"regexp"
	"strconv"
	"strings"

	"backoffice-service/internal/models"
	"backoffice-service/internal/stock"

	"github.com/shopspring/decimal"
)

var (
	// 1,234.56 or 1234.56
	invariantNumber = regexp.MustCompile(`^[+-]?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)
	// tr-TR: 1.234,56 or 1234,56
	turkishNumber = regexp.MustCompile(`^[+-]?(\d{1,3}(\.\d{3})+|\d+)(,\d+)?$`)
	plainNumber   = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
)

// ParsePrice reads a spreadsheet price cell. It tries the invariant format,
// then tr-TR, then the cell with commas replaced by dots. A blank,
// unparsable or negative value yields ok == false: the price is absent.
func ParsePrice(raw string) (price decimal.Decimal, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	for _, try := range []func(string) (string, bool){invariantForm, turkishForm, commaToDotForm} {
		norm, matched := try(s)
		if !matched {
			continue
		}
		d, err := decimal.NewFromString(norm)
		if err != nil {
			continue
		}
		if d.IsNegative() {
			return decimal.Zero, false
		}
		return RoundPrice(d), true
	}
	return decimal.Zero, false
}

func invariantForm(s string) (string, bool) {
	if !invariantNumber.MatchString(s) {
		return "", false
	}
	return strings.ReplaceAll(s, ",", ""), true
}

func turkishForm(s string) (string, bool) {
	if !turkishNumber.MatchString(s) {
		return "", false
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.Replace(s, ",", ".", 1), true
}

func commaToDotForm(s string) (string, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	return s, plainNumber.MatchString(s)
}

// ParseQuantity accepts a positive integer up to stock.MaxLineQuantity, also
// written as an integral decimal such as "5.00".
func ParseQuantity(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n > 0 && n <= stock.MaxLineQuantity
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0, false
	}
	if d.GreaterThan(decimal.NewFromInt(stock.MaxLineQuantity)) {
		return 0, false
	}
	return d.IntPart(), true
}

// RoundPrice rounds to the scale of the money columns, so a price reads back
// exactly as it was used for the line total.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(models.MoneyScale)
}
