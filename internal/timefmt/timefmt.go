// Package timefmt implements the elapsed-rescue-time grammar. The formatted
// string is persisted with the request and later re-parsed by the stats
// accumulator, so both directions must agree on the exact two-token grammar:
// "N min", "Nh" and "Nh Mmin".
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatMinutes renders a minute count: minutes below one hour as "N min",
// whole hours as "Nh" and mixed values as "Nh Mmin".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dmin", hours, rest)
}

// ParseMinutes is the inverse of FormatMinutes. It accepts all three forms of
// the grammar; unparseable tokens count as zero, matching the lenient reader
// the stats accumulator always had.
func ParseMinutes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, "min") && !strings.Contains(s, "h") {
		return leadingInt(s)
	}
	if !strings.Contains(s, "h") {
		return 0
	}
	hours := 0
	minutes := 0
	for _, part := range strings.Fields(s) {
		switch {
		case strings.Contains(part, "min"):
			minutes = leadingInt(part)
		case strings.Contains(part, "h"):
			hours = leadingInt(part)
		}
	}
	return hours*60 + minutes
}

// Elapsed formats the rescue duration between acceptance and now, applying
// the one-minute floor.
func Elapsed(acceptedAt, now time.Time) string {
	minutes := int(now.Sub(acceptedAt) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return FormatMinutes(minutes)
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
