package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Provider timestamps are airport-local and usually carry no offset; the
// formats are tried in order.
var timestampFormats = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a segment departure/arrival instant. Wall-clock
// values are preserved as written; no zone conversion is applied.
func ParseTimestamp(s string) (time.Time, error) {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{
		Value:   s,
		Message: ": unable to parse timestamp",
	}
}

// Clock and Date render the display parts of a timestamp.
func Clock(t time.Time) string { return t.Format("15:04") }
func Date(t time.Time) string  { return t.Format("2006-01-02") }

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:\d+(?:\.\d+)?S)?)?$`)

// ParseDuration reads the provider's ISO-8601 duration token (PT2H10M,
// P1DT3H, PT45M). Missing units count as zero; days fold into hours.
func ParseDuration(s string) (hours, minutes int, err error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, 0, fmt.Errorf("invalid duration %q", s)
	}

	days := atoiOrZero(m[1])
	hours = days*24 + atoiOrZero(m[2])
	minutes = atoiOrZero(m[3])
	return hours, minutes, nil
}

// FormatDuration renders hours and minutes as "2h 10m".
func FormatDuration(hours, minutes int) string {
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
