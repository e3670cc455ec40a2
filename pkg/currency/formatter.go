package currency

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Format renders an amount with its ISO currency code, e.g. "USD 1,234.50".
// Zero-decimal currencies are rounded to whole units.
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)

	negative := amount < 0
	if negative {
		amount = -amount
	}

	var formatted string
	if zeroDecimal[code] {
		formatted = humanize.FormatFloat("#,###.", math.Round(amount))
	} else {
		formatted = humanize.FormatFloat("#,###.##", amount)
	}

	result := formatted
	if code != "" {
		result = code + " " + formatted
	}
	if negative {
		result = "-" + result
	}
	return result
}

var zeroDecimal = map[string]bool{
	"IDR": true,
	"IQD": true,
	"JPY": true,
	"KRW": true,
	"VND": true,
}
