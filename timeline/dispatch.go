package timeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"itinera/models"

	"github.com/google/uuid"
)

type IntentKind string

const (
	IntentDrop      IntentKind = "drop"
	IntentReorder   IntentKind = "reorder"
	IntentMove      IntentKind = "move"
	IntentDelete    IntentKind = "delete"
	IntentEditTime  IntentKind = "edit_time"
	IntentAddDay    IntentKind = "add_day"
	IntentDateRange IntentKind = "date_range"
)

// Intent is one editing request coming from the UI.
type Intent struct {
	Kind IntentKind `json:"kind"`
	// Itinerary scopes the notice; it is set by the caller, not the client.
	Itinerary  string          `json:"-"`
	Day        int             `json:"day,omitempty"`
	ToDay      int             `json:"toDay,omitempty"`
	Index      *int            `json:"index,omitempty"`
	TimelineID string          `json:"timelineId,omitempty"`
	Product    *models.Product `json:"product,omitempty"`
	StartTime  string          `json:"startTime,omitempty"`
	Duration   Minutes         `json:"duration,omitempty"`
	StartDate  string          `json:"startDate,omitempty"`
	EndDate    string          `json:"endDate,omitempty"`
}

// Minutes decodes a duration typed into a free text field. Anything that is
// not a whole number decodes as 0 and is later replaced by the default.
type Minutes int

func (m *Minutes) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		var f float64
		if json.Unmarshal([]byte(raw), &f) == nil && f == float64(int(f)) {
			n = int(f)
		} else {
			n = 0
		}
	}
	*m = Minutes(n)
	return nil
}

// SanitizeDuration replaces non-positive durations with the default.
func SanitizeDuration(minutes int) int {
	if minutes <= 0 {
		return DefaultDuration
	}
	return minutes
}

// Notifier receives toast notices. Implementations must not block.
type Notifier interface {
	Notify(models.Notice)
}

type NotifierFunc func(models.Notice)

func (f NotifierFunc) Notify(n models.Notice) { f(n) }

// Dispatcher turns intents into store operations and emits a notice after
// each successful drop, reorder, move or time edit.
type Dispatcher struct {
	Store    Store
	Notifier Notifier
	Now      func() time.Time
}

func NewDispatcher(store Store, notifier Notifier) *Dispatcher {
	return &Dispatcher{Store: store, Notifier: notifier, Now: time.Now}
}

// Dispatch applies in to t. On error t is returned unchanged.
func (d *Dispatcher) Dispatch(t Timeline, in Intent) (Timeline, error) {
	switch in.Kind {
	case IntentDrop:
		if in.Product == nil {
			return t, fmt.Errorf("%w: drop needs a product", ErrInvalidIntent)
		}
		at := -1
		if in.Index != nil {
			at = *in.Index
		}
		next, item, err := d.Store.InsertItem(t, in.Day, *in.Product, at)
		if err != nil {
			return t, err
		}
		d.notify(in, fmt.Sprintf("Added %q to Day %d at %s", item.Title, in.Day, item.StartTime))
		return next, nil

	case IntentReorder, IntentMove:
		to := in.ToDay
		if in.Kind == IntentReorder || to == 0 {
			to = in.Day
		}
		if in.Index == nil {
			return t, fmt.Errorf("%w: %s needs an index", ErrInvalidIntent, in.Kind)
		}
		next, err := d.Store.MoveItem(t, in.TimelineID, in.Day, to, *in.Index)
		if err != nil {
			return t, err
		}
		title := itemTitle(next, in.TimelineID)
		if to == in.Day {
			_, pos, _ := next.Locate(in.TimelineID)
			d.notify(in, fmt.Sprintf("Moved %q to position %d on Day %d", title, pos+1, to))
		} else {
			d.notify(in, fmt.Sprintf("Moved %q from Day %d to Day %d", title, in.Day, to))
		}
		return next, nil

	case IntentDelete:
		return d.Store.DeleteItem(t, in.Day, in.TimelineID)

	case IntentEditTime:
		start, err := ParseClock(in.StartTime)
		if err != nil {
			return t, err
		}
		duration := SanitizeDuration(int(in.Duration))
		next, err := d.Store.UpdateItemTime(t, in.Day, in.TimelineID, start, duration)
		if err != nil {
			return t, err
		}
		d.notify(in, fmt.Sprintf("%q now starts at %s for %d min", itemTitle(next, in.TimelineID), start, duration))
		return next, nil

	case IntentAddDay:
		return d.Store.AddDay(t), nil

	case IntentDateRange:
		start, err := parseDate(in.StartDate)
		if err != nil {
			return t, err
		}
		end, err := parseDate(in.EndDate)
		if err != nil {
			return t, err
		}
		return d.Store.SetDateRange(t, start, end)
	}
	return t, fmt.Errorf("%w: unknown kind %q", ErrInvalidIntent, in.Kind)
}

func (d *Dispatcher) notify(in Intent, summary string) {
	if d.Notifier == nil {
		return
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	d.Notifier.Notify(models.Notice{
		ID:          uuid.NewString(),
		ItineraryID: in.Itinerary,
		Kind:        string(in.Kind),
		Summary:     summary,
		Timestamp:   now().Unix(),
	})
}

func itemTitle(t Timeline, timelineID string) string {
	day, i, ok := t.Locate(timelineID)
	if !ok {
		return timelineID
	}
	d, _ := t.Day(day)
	return d.Items[i].Title
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a %s date", ErrInvalidRange, s, DateLayout)
	}
	return d, nil
}
