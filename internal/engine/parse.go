package engine

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var amountNoise = strings.NewReplacer(
	",", "",
	"¥", "",
	"\\", "",
	"円", "",
	" ", "",
	"税込", "",
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// ParseAmount reads an OCR amount such as "¥15,000", "１５，０００円" or
// "1234.5" into whole yen. Fractions are rounded half away from zero.
func ParseAmount(raw string) (int64, error) {
	s := amountNoise.Replace(norm.NFKC.String(strings.TrimSpace(raw)))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	if d = d.Round(0); d.GreaterThan(maxAmount) {
		return 0, ErrInvalidAmount
	}
	return d.IntPart(), nil
}

var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006年1月2日",
	"2006.1.2",
}

// ParseDate reads an OCR date in any of the supported layouts.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.ReplaceAll(norm.NFKC.String(strings.TrimSpace(raw)), " ", "")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
