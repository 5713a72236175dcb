package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// excelEpochOffsetDays is the number of days between the spreadsheet
// serial-date epoch (1899-12-30) and the Unix epoch (1970-01-01).
const excelEpochOffsetDays = 25569

// msThreshold separates epoch-seconds from epoch-milliseconds input: any
// numeric value above this is assumed to be milliseconds.
const msThreshold = 10_000_000_000

// serialDateWindow is the open interval a numeric value must fall in to be
// treated as a spreadsheet serial date rather than a raw epoch value.
const serialDateWindow = 100_000

// usDateTimeLayouts covers "M/D/YYYY H:mm[:ss]", tried in order since
// Go's time.Parse requires an exact layout and the month/day may or may
// not be zero-padded.
var usDateTimeLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

// permissiveLayouts is tried, in order, once the offset-aware and US
// layouts fail to match. Layouts without a zone or offset are interpreted
// in time.Local, so this fallback depends on the host timezone; RFC3339,
// RFC1123 and RFC1123Z use the zone or offset carried in the string.
var permissiveLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123,
	time.RFC1123Z,
}

// Timestamp returns the epoch seconds v represents, or nil when v is
// empty, null, or unparseable. A time.Time passes through; a number in
// (0, 100000) is a spreadsheet serial date, a number above msThreshold is
// epoch milliseconds, any other number is epoch seconds. A string is tried
// as US "M/D/YYYY H:mm[:ss]" in UTC, then as offset-aware RFC 3339, then
// against permissiveLayouts.
func Timestamp(v any) *int64 {
	if isBlank(v) {
		return nil
	}

	if t, ok := v.(time.Time); ok {
		sec := t.Unix()
		return &sec
	}

	if f, ok := numericValue(v); ok {
		return timestampFromNumeric(f)
	}

	s, ok := v.(string)
	if !ok {
		s = stringify(v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if t, ok := parseUSNoOffset(s); ok {
		sec := t.UTC().Unix()
		return &sec
	}

	if looksOffsetAware(s) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			sec := t.Unix()
			return &sec
		}
		if t, err := time.Parse("2006-01-02T15:04:05Z", s); err == nil {
			sec := t.Unix()
			return &sec
		}
	}

	for _, layout := range permissiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			sec := t.Unix()
			return &sec
		}
	}

	return nil
}

func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case time.Time:
		return 0, false
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func timestampFromNumeric(f float64) *int64 {
	if math.IsNaN(f) {
		return nil
	}

	switch {
	case f > 0 && f < serialDateWindow:
		sec := int64(math.Round((f - excelEpochOffsetDays) * 86400))
		return &sec
	case f > msThreshold:
		sec := int64(f) / 1000
		return &sec
	default:
		sec := int64(f)
		return &sec
	}
}

func looksOffsetAware(s string) bool {
	return strings.ContainsAny(s, "+Z") ||
		strings.Contains(s, " UTC") ||
		strings.Contains(s, " GMT")
}

func parseUSNoOffset(s string) (time.Time, bool) {
	if looksOffsetAware(s) {
		return time.Time{}, false
	}
	for _, layout := range usDateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
