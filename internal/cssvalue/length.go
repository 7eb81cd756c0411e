package cssvalue

import (
	"strconv"
	"strings"
)

// Length resolves a px or percentage value. Percentages are relative to
// reference. Any other unit (including keywords like "auto") is reported as
// not resolvable.
func Length(value string, reference float64) (float64, bool) {
	value = strings.TrimSpace(value)
	switch {
	case strings.HasSuffix(value, "px"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
		return f, err == nil
	case strings.HasSuffix(value, "%"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		return f / 100 * reference, err == nil
	}
	return 0, false
}

// LengthOr is Length with a fallback for unresolvable values.
func LengthOr(value string, reference, fallback float64) float64 {
	if v, ok := Length(value, reference); ok {
		return v
	}
	return fallback
}

// Number parses a leading float the way parseFloat does, ignoring any unit
// suffix. ok is false when no digits are present.
func Number(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	end := 0
	seenDot, seenDigit := false, false
scan:
	for ; end < len(value); end++ {
		c := value[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot:
			seenDot = true
		case (c == '-' || c == '+') && end == 0:
		default:
			break scan
		}
	}
	if !seenDigit {
		return 0, false
	}
	f, err := strconv.ParseFloat(value[:end], 64)
	return f, err == nil
}
