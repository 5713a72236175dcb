package normalize

import (
	"strconv"
	"strings"
	"time"
)

// stringify renders a decoded cell value (string, float64, bool,
// time.Time, int64, or nil) as text, the way every normalizer's "coerce to
// string" step expects.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return ""
	}
}

// isBlank reports whether v represents an absent or empty cell: nil, or a
// string containing only whitespace.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
