package timeline

import "itinera/models"

const (
	DefaultDayStart = "09:00"
	DefaultDuration = 60
)

// Engine recomputes start times for a day's items. It never mutates the
// slice it is given.
type Engine struct {
	DayStart        Clock
	DefaultDuration int
}

func NewEngine() Engine {
	return Engine{DayStart: MustClock(DefaultDayStart), DefaultDuration: DefaultDuration}
}

func (e Engine) duration(d int) int {
	if d > 0 {
		return d
	}
	if e.DefaultDuration > 0 {
		return e.DefaultDuration
	}
	return DefaultDuration
}

// Anchor is the start time a full reflow would use for items: the first
// item's own start when it has a valid one, else the day start.
func (e Engine) Anchor(items []models.Item) Clock {
	if len(items) > 0 {
		if c, err := ParseClock(items[0].StartTime); err == nil {
			return c
		}
	}
	return e.DayStart
}

// Reflow is the full-day pass: every item is placed back to back from the
// anchor. A nil anchor means Anchor(items).
func (e Engine) Reflow(items []models.Item, anchor *Clock) []models.Item {
	out := make([]models.Item, len(items))
	if len(items) == 0 {
		return out
	}
	clock := e.Anchor(items)
	if anchor != nil {
		clock = *anchor
	}
	for i, it := range items {
		it.Duration = e.duration(it.Duration)
		it.StartTime = clock.String()
		clock = clock.Add(it.Duration)
		out[i] = it
	}
	return out
}

// ReflowAfter is the anchored pass used after a manual edit of items[k]:
// items up to and including k are kept as they are, the rest follow k's end.
func (e Engine) ReflowAfter(items []models.Item, k int) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	if k < 0 || k >= len(out) {
		return out
	}
	start, err := ParseClock(out[k].StartTime)
	if err != nil {
		start = e.DayStart
	}
	clock := start.Add(e.duration(out[k].Duration))
	for i := k + 1; i < len(out); i++ {
		out[i].StartTime = clock.String()
		clock = clock.Add(e.duration(out[i].Duration))
	}
	return out
}
