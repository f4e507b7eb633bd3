// Package timeutil converts between wall-clock "HH:mm" strings, minutes since
// midnight and instants. It performs no timezone conversion: callers hand in
// instants already placed in the child's local timezone.
package timeutil

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// MinutesPerDay is the number of minutes in a wall-clock day.
const MinutesPerDay = 24 * 60

// ErrFormat indicates a malformed time-of-day or duration token.
var ErrFormat = errors.New("invalid format")

var (
	clockPattern    = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)
	durationPattern = regexp.MustCompile(`^([0-9]+)([smhd])$`)
)

// ParseTimeToMinutes parses "HH:mm" into minutes since midnight (0..1439).
func ParseTimeToMinutes(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: time %q must be HH:mm", ErrFormat, s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return h*60 + min, nil
}

// MustParseTimeToMinutes is ParseTimeToMinutes for compile-time constants.
func MustParseTimeToMinutes(s string) int {
	m, err := ParseTimeToMinutes(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MinutesToTimeString formats minutes since midnight as "HH:mm".
// Values of 1440 and above are not wrapped and render as next-day overflow
// ("24:15"). Negative values are clamped to midnight.
func MinutesToTimeString(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDurationToken parses tokens like "15m", "7d", "30s" or "2h".
func ParseDurationToken(token string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, fmt.Errorf("%w: duration %q must be <int><s|m|h|d>", ErrFormat, token)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q: %v", ErrFormat, token, err)
	}

	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	return time.Duration(n) * unit, nil
}

// DaysBetween returns the number of whole days elapsed from from to to,
// floored (a negative span floors towards the past).
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// MinutesBetween returns the number of whole minutes elapsed from from to to.
func MinutesBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Minutes()))
}

// MinuteOfDay returns minutes since midnight of t in t's location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// StartOfDay returns local midnight of the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtMinute places a minute-of-day on the calendar day of day. Minutes at or
// beyond 1440 land on the following day(s).
func AtMinute(day time.Time, minutes int) time.Time {
	start := StartOfDay(day)
	days := minutes / MinutesPerDay
	rem := minutes % MinutesPerDay
	if rem < 0 {
		days--
		rem += MinutesPerDay
	}
	return start.AddDate(0, 0, days).Add(time.Duration(rem) * time.Minute)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
