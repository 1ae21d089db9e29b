package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// Clock is a naive wall-clock time of day in minutes since midnight.
type Clock int

// ParseClock reads a 24-hour "HH:mm" (or "H:mm") value.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(m) != 2 || len(h) == 0 || len(h) > 2 {
		return 0, &InvalidTimeError{Value: s}
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, &InvalidTimeError{Value: s}
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, &InvalidTimeError{Value: s}
	}
	return Clock(hour*60 + minute), nil
}

// MustClock is ParseClock for constants; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Add advances the clock, wrapping at midnight. No day rollover is tracked.
func (c Clock) Add(minutes int) Clock {
	v := (int(c) + minutes) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return Clock(v)
}

func (c Clock) String() string {
	v := int(c.Add(0))
	return fmt.Sprintf("%02d:%02d", v/60, v%60)
}
