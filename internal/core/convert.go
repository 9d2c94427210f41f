package core

// convert.go turns loosely formatted cell text into dates and numbers.
//
// Record sets come from many producers (forms, imports, the database), so the
// same field can arrive as "2024-03-15", "2024-03-15T10:00:00Z",
// "15/03/2024, 10:00 AM" or "Mar 15, 2024". Numbers may carry currency
// symbols, thousands separators or accounting parentheses.
//
// Parse failures are reported with ok=false and never as errors: callers fall
// back to a raw or "-" rendering.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dayFirstRegex matches the textual DD/MM/YYYY form, optionally followed by a
// time ("15/03/2024, 10:00 AM").
var dayFirstRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[,\s].*)?$`)

// Slash, dash and dot separated dates are always read day first
// ("05/03/2024" is 5 March), matching how the same text is exported.

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date-time layouts carry a clock component; date layouts do not.
var (
	dateTimeLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04",
		time.RFC1123Z,
		time.RFC1123,
		"Jan 2, 2006, 3:04 PM",
		"Jan 2, 2006 3:04 PM",
		"2/1/2006, 3:04 PM",
		"2/1/2006, 3:04:05 PM",
		"2/1/2006, 15:04",
		"2/1/2006 15:04",
	}
	twoDigitYearLayouts = []string{
		"2/1/06", "2-1-06", "2.1.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2/1/2006", "2-1-2006", "2.1.2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "02 Jan 2006",
		"20060102",
	}
)

// ParseDate parses a date or date-time string. Unix epoch digits are not
// accepted here; use ValueTime for typed values.
func ParseDate(s string) (time.Time, bool) {
	t, _, ok := parseDateDetail(s)
	return t, ok
}

// parseDateDetail also reports whether the input carried a clock component.
func parseDateDetail(s string) (time.Time, bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, true
		}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, false, true
		}
	}

	return time.Time{}, false, false
}

// DayFirstDate extracts "DD-MM-YYYY" from a "DD/MM/YYYY[, time]" string,
// keeping the digits as written.
func DayFirstDate(s string) (string, bool) {
	m := dayFirstRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return "", false
	}
	return pad2(m[1]) + "-" + pad2(m[2]) + "-" + m[3], true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ParseNumber parses a number that may carry currency symbols, thousands
// separators or accounting parentheses ("(1,234.50)" is negative).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, "₦", "") // Naira
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parsePlainNumber accepts only a bare numeric literal ("1234.5", "-3").
func parsePlainNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// valueNumber interprets a typed or textual cell value as a number.
// lenient enables currency symbol and separator stripping.
func valueNumber(v any, lenient bool) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case bool, nil:
		return 0, false
	}
	s := Stringify(v)
	if lenient {
		return ParseNumber(s)
	}
	return parsePlainNumber(s)
}
