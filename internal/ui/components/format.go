package components

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCurrency formats a dollar amount with thousands separators and
// two decimals, e.g. $1,234.50.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := humanize.FormatFloat("#,###.##", math.Abs(v))
	if v < 0 && strings.Trim(s, "0.,") != "" {
		return "-$" + s
	}
	return "$" + s
}

// FormatCount formats an integer with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatSignedPercent formats a change with an explicit sign.
func FormatSignedPercent(p float64) string {
	s := FormatPercent(p)
	if p > 0 {
		return "+" + s
	}
	return s
}

// FormatAgo renders a timestamp relative to now, "never" for the zero time.
func FormatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
