package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const compactDateLayout = "20060102"

// ParseFloat parses a provider decimal string. Empty input is zero.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q: %w", s, err)
	}
	return f, nil
}

// ParseInt parses a provider integer string. Empty input is zero.
func ParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return n, nil
}

// ParseOptionalFloat reports ok=false for empty or unparsable input.
func ParseOptionalFloat(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	f, err := ParseFloat(s)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseOptionalInt reports ok=false for empty or unparsable input.
func ParseOptionalInt(s string) (int64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	n, err := ParseInt(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatCompactDate turns YYYYMMDD into YYYY-MM-DD. Input of any other
// length is returned unchanged.
func FormatCompactDate(s string) string {
	if len(s) != 8 {
		return s
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

// CompactDate removes the dashes of a YYYY-MM-DD date.
func CompactDate(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

// ToCompactDate formats t as YYYYMMDD in its own location.
func ToCompactDate(t time.Time) string {
	return t.Format(compactDateLayout)
}

// ToDate formats t as YYYY-MM-DD in its own location.
func ToDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
