package orders

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"purissima/internal"
)

var brazilianDate = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{2,4})(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?`)

var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseBrazilianDate reads dd/mm/yyyy[ hh:mm[:ss]]; two-digit years become 20yy.
// Impossible calendar dates are rejected rather than rolled over.
func ParseBrazilianDate(value string, loc *time.Location) (time.Time, bool) {
	m := brazilianDate.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, false
	}
	if len(m[3]) == 2 {
		m[3] = "20" + m[3]
	}
	if len(m[3]) == 3 {
		return time.Time{}, false
	}
	num := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	day, month, year := num(m[1]), num(m[2]), num(m[3])
	hour, minute, second := num(m[4]), num(m[5]), num(m[6])
	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, locOrUTC(loc))
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// ParseGenericDate tries the ISO-like layouts the upstream has been seen to emit.
func ParseGenericDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, value, locOrUTC(loc)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimestamp runs the Brazilian strategy first and the generic one second.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	if t, ok := ParseBrazilianDate(value, loc); ok {
		return t, true
	}
	return ParseGenericDate(value, loc)
}

// CreatedAt falls back to the raw bucket when the label never mapped.
func CreatedAt(o internal.Order, loc *time.Location) (time.Time, bool) {
	value := o.Field(internal.FieldCreatedAt)
	if value == "" && o.Raw != nil {
		value = o.Raw["criado_em"]
	}
	if value == "" {
		return time.Time{}, false
	}
	return ParseTimestamp(value, loc)
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
