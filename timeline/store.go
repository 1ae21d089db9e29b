// Package timeline is the scheduling model of an itinerary: a multi-day
// sequence of timed items, the operations that edit it and the reflow rules
// that keep every day's start times consistent after each edit.
//
// Timelines are values. Every operation takes a Timeline and returns a new
// one; days and items that an operation does not touch are shared with the
// input, touched days are rebuilt. Nothing reachable from the input is
// modified.
package timeline

import (
	"time"

	"itinera/models"

	"github.com/google/uuid"
)

// DateLayout is the format of Day.Date.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Timeline is the ordered collection of days for one itinerary.
type Timeline struct {
	Days []models.Day `json:"days"`
}

// FromDays wraps stored days without copying them.
func FromDays(days []models.Day) Timeline {
	return Timeline{Days: days}
}

// Day returns the day with the given number.
func (t Timeline) Day(n int) (models.Day, bool) {
	i := t.dayIndex(n)
	if i < 0 {
		return models.Day{}, false
	}
	return t.Days[i], true
}

// Locate finds the day number and position of a placed item.
func (t Timeline) Locate(timelineID string) (day, index int, ok bool) {
	for _, d := range t.Days {
		for i, it := range d.Items {
			if it.TimelineID == timelineID {
				return d.DayNumber, i, true
			}
		}
	}
	return 0, 0, false
}

func (t Timeline) dayIndex(n int) int {
	if i := n - 1; i >= 0 && i < len(t.Days) && t.Days[i].DayNumber == n {
		return i
	}
	for i, d := range t.Days {
		if d.DayNumber == n {
			return i
		}
	}
	return -1
}

// with returns a copy of t whose day at index i is replaced.
func (t Timeline) with(i int, d models.Day) Timeline {
	days := make([]models.Day, len(t.Days))
	copy(days, t.Days)
	days[i] = d
	return Timeline{Days: days}
}

// Payload is the slim per-item save contract: id, title and notes only.
func (t Timeline) Payload() []models.SavedDay {
	out := make([]models.SavedDay, 0, len(t.Days))
	for _, d := range t.Days {
		sd := models.SavedDay{DayNumber: d.DayNumber, Items: make([]models.SavedItem, 0, len(d.Items))}
		for _, it := range d.Items {
			sd.Items = append(sd.Items, models.SavedItem{ID: it.ID, Title: it.Title, Notes: it.Notes})
		}
		out = append(out, sd)
	}
	return out
}

// Store applies mutations to timelines. It holds configuration only.
type Store struct {
	Engine Engine
	// NewID mints timeline ids; it must never repeat.
	NewID func() string
}

func NewStore(engine Engine) Store {
	return Store{Engine: engine, NewID: uuid.NewString}
}

// AddDay appends an empty day numbered len+1. When the current last day is
// dated, the new day gets the following date.
func (s Store) AddDay(t Timeline) Timeline {
	n := len(t.Days)
	day := models.Day{DayNumber: n + 1, Items: []models.Item{}}
	if n > 0 {
		if last, err := time.Parse(DateLayout, t.Days[n-1].Date); err == nil {
			day.Date, day.DayOfWeek = labelDate(last.AddDate(0, 0, 1))
		}
	}
	days := make([]models.Day, n, n+1)
	copy(days, t.Days)
	return Timeline{Days: append(days, day)}
}

// SetDateRange regenerates the day list to cover start..end inclusive. Days
// that existed keep their items by position; days past the new end are
// dropped together with their items.
func (s Store) SetDateRange(t Timeline, start, end time.Time) (Timeline, error) {
	start, end = dateOnly(start), dateOnly(end)
	if start.After(end) {
		return t, &InvalidRangeError{Start: start, End: end}
	}
	n := DaysBetween(start, end) + 1
	days := make([]models.Day, n)
	for i := range days {
		d := models.Day{DayNumber: i + 1, Items: []models.Item{}}
		if i < len(t.Days) && t.Days[i].Items != nil {
			d.Items = t.Days[i].Items
		}
		d.Date, d.DayOfWeek = labelDate(start.AddDate(0, 0, i))
		days[i] = d
	}
	return Timeline{Days: days}, nil
}

// NewItem builds the placement of p with a fresh timeline id.
func (s Store) NewItem(p models.Product) models.Item {
	duration := DefaultDuration
	if s.Engine.DefaultDuration > 0 {
		duration = s.Engine.DefaultDuration
	}
	if p.Duration != nil && *p.Duration > 0 {
		duration = *p.Duration
	}
	return models.Item{
		ID:            p.ID,
		TimelineID:    s.NewID(),
		ProductType:   p.ProductType,
		Title:         p.Title,
		Destination:   p.Destination,
		CoverImageURL: p.CoverImageURL,
		NetPrice:      p.NetPrice,
		SupplierName:  p.SupplierName,
		Location:      p.Location,
		Notes:         p.Notes,
		Duration:      duration,
	}
}

// InsertItem places p on the day at index at; a negative index appends.
// The day is reflowed from its existing start.
func (s Store) InsertItem(t Timeline, dayNumber int, p models.Product, at int) (Timeline, models.Item, error) {
	i := t.dayIndex(dayNumber)
	if i < 0 {
		return t, models.Item{}, &DayNotFoundError{Day: dayNumber}
	}
	item := s.NewItem(p)
	day := t.Days[i]
	anchor := s.Engine.Anchor(day.Items)
	items := insertAt(day.Items, item, at)
	day.Items = s.Engine.Reflow(items, &anchor)
	placed := day.Items[clamp(at, len(day.Items)-1)]
	return t.with(i, day), placed, nil
}

// MoveItem removes an item from one day and inserts it into another (or the
// same) day at toIndex, then reflows the affected days. An item landing at
// index 0 takes over the destination's previous first start time.
func (s Store) MoveItem(t Timeline, timelineID string, fromDay, toDay, toIndex int) (Timeline, error) {
	fi := t.dayIndex(fromDay)
	if fi < 0 {
		return t, &DayNotFoundError{Day: fromDay}
	}
	ti := t.dayIndex(toDay)
	if ti < 0 {
		return t, &DayNotFoundError{Day: toDay}
	}
	src := t.Days[fi]
	pos := indexOf(src.Items, timelineID)
	if pos < 0 {
		return t, &ItemNotFoundError{Day: fromDay, TimelineID: timelineID}
	}
	moved := src.Items[pos]
	dst := t.Days[ti]
	priorStart := s.Engine.Anchor(dst.Items)

	remaining := removeAt(src.Items, pos)
	if fi == ti {
		src.Items = s.Engine.Reflow(insertAt(remaining, moved, toIndex), leadAnchor(toIndex, remaining, priorStart))
		return t.with(fi, src), nil
	}

	src.Items = s.Engine.Reflow(remaining, nil)
	dst.Items = s.Engine.Reflow(insertAt(dst.Items, moved, toIndex), leadAnchor(toIndex, dst.Items, priorStart))
	return t.with(fi, src).with(ti, dst), nil
}

// leadAnchor pins the reflow to prior when the inserted item ends up first.
func leadAnchor(toIndex int, target []models.Item, prior Clock) *Clock {
	if clamp(toIndex, len(target)) == 0 {
		return &prior
	}
	return nil
}

// DeleteItem removes an item. Deleting an item that is not there is a no-op.
func (s Store) DeleteItem(t Timeline, dayNumber int, timelineID string) (Timeline, error) {
	i := t.dayIndex(dayNumber)
	if i < 0 {
		return t, &DayNotFoundError{Day: dayNumber}
	}
	day := t.Days[i]
	pos := indexOf(day.Items, timelineID)
	if pos < 0 {
		return t, nil
	}
	day.Items = s.Engine.Reflow(removeAt(day.Items, pos), nil)
	return t.with(i, day), nil
}

// UpdateItemTime sets an item's start and duration explicitly; items before
// it stay put and items after it follow its new end.
func (s Store) UpdateItemTime(t Timeline, dayNumber int, timelineID string, start Clock, duration int) (Timeline, error) {
	i := t.dayIndex(dayNumber)
	if i < 0 {
		return t, &DayNotFoundError{Day: dayNumber}
	}
	day := t.Days[i]
	k := indexOf(day.Items, timelineID)
	if k < 0 {
		return t, &ItemNotFoundError{Day: dayNumber, TimelineID: timelineID}
	}
	items := make([]models.Item, len(day.Items))
	copy(items, day.Items)
	items[k].StartTime = start.String()
	items[k].Duration = duration
	day.Items = s.Engine.ReflowAfter(items, k)
	return t.with(i, day), nil
}

// Normalize repairs a timeline read from storage: days are renumbered 1..N,
// nil item lists become empty, missing or duplicate timeline ids are
// re-minted and days with unscheduled items are reflowed.
func (s Store) Normalize(t Timeline) Timeline {
	seen := make(map[string]bool)
	days := make([]models.Day, len(t.Days))
	for i, d := range t.Days {
		d.DayNumber = i + 1
		items := make([]models.Item, len(d.Items))
		unscheduled := false
		for j, it := range d.Items {
			if it.TimelineID == "" || seen[it.TimelineID] {
				it.TimelineID = s.NewID()
			}
			seen[it.TimelineID] = true
			if _, err := ParseClock(it.StartTime); err != nil || it.Duration <= 0 {
				unscheduled = true
			}
			items[j] = it
		}
		if unscheduled {
			items = s.Engine.Reflow(items, nil)
		}
		d.Items = items
		days[i] = d
	}
	return Timeline{Days: days}
}

// Remint gives every item a fresh timeline id, for copies of a timeline.
func (s Store) Remint(t Timeline) Timeline {
	days := make([]models.Day, len(t.Days))
	for i, d := range t.Days {
		items := make([]models.Item, len(d.Items))
		for j, it := range d.Items {
			it.TimelineID = s.NewID()
			items[j] = it
		}
		d.Items = items
		days[i] = d
	}
	return Timeline{Days: days}
}

func indexOf(items []models.Item, timelineID string) int {
	for i, it := range items {
		if it.TimelineID == timelineID {
			return i
		}
	}
	return -1
}

func clamp(i, max int) int {
	if i < 0 || i > max {
		return max
	}
	return i
}

func insertAt(items []models.Item, it models.Item, at int) []models.Item {
	at = clamp(at, len(items))
	out := make([]models.Item, 0, len(items)+1)
	out = append(out, items[:at]...)
	out = append(out, it)
	return append(out, items[at:]...)
}

func removeAt(items []models.Item, at int) []models.Item {
	out := make([]models.Item, 0, len(items)-1)
	out = append(out, items[:at]...)
	return append(out, items[at+1:]...)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from start to end. It works on
// Unix seconds so spans past the time.Duration range stay exact.
func DaysBetween(start, end time.Time) int {
	return int((dateOnly(end).Unix() - dateOnly(start).Unix()) / secondsPerDay)
}

func labelDate(d time.Time) (date, weekday string) {
	return d.Format(DateLayout), d.Weekday().String()
}
