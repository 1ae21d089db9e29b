package timeline

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDayNotFound  = errors.New("day not found")
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidRange = errors.New("invalid date range")
	ErrInvalidTime  = errors.New("invalid time")

	ErrInvalidIntent = errors.New("invalid intent")
)

// DayNotFoundError is returned when a mutation names a day the timeline lacks.
type DayNotFoundError struct {
	Day int
}

func (e *DayNotFoundError) Error() string {
	return fmt.Sprintf("day %d not found", e.Day)
}

func (e *DayNotFoundError) Unwrap() error { return ErrDayNotFound }

// ItemNotFoundError is returned when a timelineId is absent from the named day.
type ItemNotFoundError struct {
	Day        int
	TimelineID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found in day %d", e.TimelineID, e.Day)
}

func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }

// InvalidRangeError is returned by SetDateRange when start is after end.
type InvalidRangeError struct {
	Start, End time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("start date %s is after end date %s", e.Start.Format(DateLayout), e.End.Format(DateLayout))
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// InvalidTimeError reports a start time that is not HH:mm.
type InvalidTimeError struct {
	Value string
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("invalid time %q, expected HH:mm", e.Value)
}

func (e *InvalidTimeError) Unwrap() error { return ErrInvalidTime }
