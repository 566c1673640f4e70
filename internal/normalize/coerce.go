package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Candidate layouts for timestamp cells. Day-first layouts come before
// month-first so ambiguous dates resolve day/month/year; month-first only
// catches values that cannot be day-first (e.g. "01/13/2024").
var timestampLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 3:04:05 PM",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
}

// Timestamp parses a loosely formatted date cell. Empty or unparseable
// input yields nil, never an error.
func Timestamp(cell string) *time.Time {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Money parses a loosely formatted currency cell by stripping every rune
// that is not a digit, decimal point, or minus sign, then parsing the
// remainder as a decimal. Currency symbols, thousands separators, and
// surrounding whitespace fall out of the strip step: "KSh 1,500.00" → 1500.
// Empty or non-numeric remainders (including dash placeholders) yield nil.
func Money(cell string) *float64 {
	var b strings.Builder
	for _, r := range cell {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Text trims surrounding whitespace only, preserving internal content and
// case.
func Text(cell string) string {
	return strings.TrimSpace(cell)
}
