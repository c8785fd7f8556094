// Package timeutil converts the wall-clock "HH:MM" strings stored on event
// records into minute-of-day offsets and display strings. No timezone logic
// lives here; the values are zone-less by design.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"

	appLog "coursegrid/internal/log"
)

// ToMinutes converts a 24-hour "HH:MM" string to a minute-of-day offset.
// Malformed input resolves to 0 with a warning instead of an error: legacy
// records with broken times must still render (degenerate) rather than take
// down the whole week view.
func ToMinutes(hhmm string) int {
	m, ok := parseMinutes(hhmm)
	if !ok {
		appLog.Warn("malformed time value, using 00:00", "value", hhmm)
		return 0
	}
	return m
}

// ParseMinutes is the validating form of ToMinutes for callers that need to
// distinguish a genuine midnight from the malformed-input sentinel.
func ParseMinutes(hhmm string) (int, bool) {
	return parseMinutes(hhmm)
}

func parseMinutes(hhmm string) (int, bool) {
	h, m, ok := splitHHMM(hhmm)
	if !ok {
		return 0, false
	}
	return h*60 + m, true
}

// FormatTwelveHour renders an "HH:MM" string for display, e.g. "09:00" ->
// "9:00 AM", "13:30" -> "1:30 PM". It reuses the same parse as ToMinutes and
// echoes malformed input unchanged.
func FormatTwelveHour(hhmm string) string {
	h, m, ok := splitHHMM(hhmm)
	if !ok {
		appLog.Warn("malformed time value, cannot format", "value", hhmm)
		return hhmm
	}

	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
}

// MinutesToHHMM renders a minute-of-day offset back to "HH:MM". Offsets
// outside a single day are clamped.
func MinutesToHHMM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 23*60+59 {
		minutes = 23*60 + 59
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func splitHHMM(hhmm string) (hour, minute int, ok bool) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
