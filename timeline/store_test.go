package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"itinera/models"
)

func newTestStore() Store {
	s := NewStore(NewEngine())
	n := 0
	s.NewID = func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
	return s
}

func product(id, title string, pt models.ProductType, minutes int) models.Product {
	p := models.Product{ID: id, Title: title, ProductType: pt}
	if minutes > 0 {
		p.Duration = &minutes
	}
	return p
}

func mustInsert(t *testing.T, s Store, tl Timeline, day int, p models.Product) (Timeline, models.Item) {
	t.Helper()
	next, item, err := s.InsertItem(tl, day, p, -1)
	if err != nil {
		t.Fatalf("insert %s: %v", p.ID, err)
	}
	return next, item
}

// schedule renders a day as "title@HH:mm/duration" entries.
func schedule(t *testing.T, tl Timeline, day int) []string {
	t.Helper()
	d, ok := tl.Day(day)
	if !ok {
		t.Fatalf("day %d missing", day)
	}
	out := []string{}
	for _, it := range d.Items {
		out = append(out, fmt.Sprintf("%s@%s/%d", it.Title, it.StartTime, it.Duration))
	}
	return out
}

func expectSchedule(t *testing.T, tl Timeline, day int, want ...string) {
	t.Helper()
	got := schedule(t, tl, day)
	if len(want) == 0 {
		want = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("day %d: expected %v, got %v", day, want, got)
	}
}

func snapshot(t *testing.T, tl Timeline) string {
	t.Helper()
	b, err := json.Marshal(tl)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func dayNumbers(tl Timeline) []int {
	out := []int{}
	for _, d := range tl.Days {
		out = append(out, d.DayNumber)
	}
	return out
}

// Day 1 = [A(09:00,60), B(10:00,30)], plus C(45) when three is set.
func seedDay(t *testing.T, s Store, three bool) (Timeline, map[string]string) {
	t.Helper()
	tl := s.AddDay(Timeline{})
	ids := map[string]string{}
	var it models.Item
	tl, it = mustInsert(t, s, tl, 1, product("p-a", "A", models.ProductActivity, 60))
	ids["A"] = it.TimelineID
	tl, it = mustInsert(t, s, tl, 1, product("p-b", "B", models.ProductFood, 30))
	ids["B"] = it.TimelineID
	if three {
		tl, it = mustInsert(t, s, tl, 1, product("p-c", "C", models.ProductLandmark, 45))
		ids["C"] = it.TimelineID
	}
	return tl, ids
}

func TestAddDayThenInsertIntoEmptyDay(t *testing.T) {
	s := newTestStore()
	tl := s.AddDay(s.AddDay(Timeline{}))
	if got := dayNumbers(tl); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("expected days [1 2], got %v", got)
	}
	expectSchedule(t, tl, 1)
	expectSchedule(t, tl, 2)

	tl, item := mustInsert(t, s, tl, 2, product("p-a", "A", models.ProductActivity, 0))
	if item.StartTime != "09:00" || item.Duration != 60 {
		t.Fatalf("expected 09:00/60, got %s/%d", item.StartTime, item.Duration)
	}
	expectSchedule(t, tl, 2, "A@09:00/60")
	expectSchedule(t, tl, 1)
}

func TestInsertAppendsAfterLastItem(t *testing.T) {
	s := newTestStore()
	tl, _ := seedDay(t, s, false)
	tl, item := mustInsert(t, s, tl, 1, product("p-c", "C", models.ProductActivity, 0))
	if item.StartTime != "10:30" {
		t.Fatalf("expected C at 10:30, got %s", item.StartTime)
	}
	expectSchedule(t, tl, 1, "A@09:00/60", "B@10:00/30", "C@10:30/60")
}

func TestInsertAtIndexKeepsDayStart(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, false)
	tl, err := s.UpdateItemTime(tl, 1, ids["A"], MustClock("08:00"), 60)
	if err != nil {
		t.Fatal(err)
	}
	tl, item, err := s.InsertItem(tl, 1, product("p-z", "Z", models.ProductFood, 15), 0)
	if err != nil {
		t.Fatal(err)
	}
	if item.Title != "Z" || item.StartTime != "08:00" {
		t.Fatalf("expected Z at 08:00, got %s at %s", item.Title, item.StartTime)
	}
	expectSchedule(t, tl, 1, "Z@08:00/15", "A@08:15/60", "B@09:15/30")
}

func TestInsertUnknownDay(t *testing.T) {
	s := newTestStore()
	tl := s.AddDay(Timeline{})
	got, _, err := s.InsertItem(tl, 3, product("p", "P", models.ProductActivity, 0), -1)
	var dnf *DayNotFoundError
	if !errors.As(err, &dnf) || dnf.Day != 3 {
		t.Fatalf("expected DayNotFoundError for day 3, got %v", err)
	}
	if snapshot(t, got) != snapshot(t, tl) {
		t.Fatalf("timeline changed on failed insert")
	}
}

func TestInsertDoesNotTouchInput(t *testing.T) {
	s := newTestStore()
	tl, _ := seedDay(t, s, false)
	before := snapshot(t, tl)
	if _, _, err := s.InsertItem(tl, 1, product("p-z", "Z", models.ProductActivity, 0), 0); err != nil {
		t.Fatal(err)
	}
	if snapshot(t, tl) != before {
		t.Fatalf("input timeline was modified")
	}
}

func TestTimelineIDsAreUnique(t *testing.T) {
	s := NewStore(NewEngine())
	tl := s.AddDay(s.AddDay(Timeline{}))
	p := product("same", "Same", models.ProductActivity, 30)
	for i := 0; i < 20; i++ {
		tl, _ = mustInsert(t, s, tl, i%2+1, p)
	}
	seen := map[string]bool{}
	for _, d := range tl.Days {
		for _, it := range d.Items {
			if seen[it.TimelineID] {
				t.Fatalf("duplicate timeline id %s", it.TimelineID)
			}
			seen[it.TimelineID] = true
		}
	}
	if len(seen) != 20 {
		t.Fatalf("expected 20 items, got %d", len(seen))
	}
}

func TestReorderToFrontAdoptsDayStart(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, false)
	tl, err := s.MoveItem(tl, ids["B"], 1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, tl, 1, "B@09:00/30", "A@09:30/60")
}

func TestReorderWithinDay(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, true)
	tl, err := s.MoveItem(tl, ids["C"], 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, tl, 1, "A@09:00/60", "C@10:00/45", "B@10:45/30")
}

func TestMoveAcrossDays(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, true)
	tl = s.AddDay(tl)
	tl, x := mustInsert(t, s, tl, 2, product("p-x", "X", models.ProductActivity, 90))
	tl, err := s.UpdateItemTime(tl, 2, x.TimelineID, MustClock("14:00"), 90)
	if err != nil {
		t.Fatal(err)
	}

	tl, err = s.MoveItem(tl, ids["B"], 1, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, tl, 1, "A@09:00/60", "C@10:00/45")
	expectSchedule(t, tl, 2, "X@14:00/90", "B@15:30/30")

	tl, err = s.MoveItem(tl, ids["A"], 1, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, tl, 1, "C@10:00/45")
	expectSchedule(t, tl, 2, "A@14:00/60", "X@15:00/90", "B@16:30/30")
}

func TestMoveIntoEmptyDayStartsAtDefault(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, false)
	tl = s.AddDay(tl)
	tl, err := s.UpdateItemTime(tl, 1, ids["A"], MustClock("07:30"), 60)
	if err != nil {
		t.Fatal(err)
	}
	tl, err = s.MoveItem(tl, ids["A"], 1, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, tl, 2, "A@09:00/60")
	// B was not first before, so day 1 now starts at B's own time.
	expectSchedule(t, tl, 1, "B@08:30/30")
}

func TestMoveErrors(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, false)
	before := snapshot(t, tl)

	_, err := s.MoveItem(tl, "missing", 1, 1, 0)
	var inf *ItemNotFoundError
	if !errors.As(err, &inf) || inf.TimelineID != "missing" {
		t.Fatalf("expected ItemNotFoundError, got %v", err)
	}
	_, err = s.MoveItem(tl, ids["A"], 1, 5, 0)
	if !errors.Is(err, ErrDayNotFound) {
		t.Fatalf("expected ErrDayNotFound, got %v", err)
	}
	_, err = s.MoveItem(tl, ids["A"], 4, 1, 0)
	if !errors.Is(err, ErrDayNotFound) {
		t.Fatalf("expected ErrDayNotFound, got %v", err)
	}
	if snapshot(t, tl) != before {
		t.Fatalf("timeline changed on failed move")
	}
}

func TestDeleteReflowsAndIsIdempotent(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, true)
	once, err := s.DeleteItem(tl, 1, ids["B"])
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, once, 1, "A@09:00/60", "C@10:00/45")

	twice, err := s.DeleteItem(once, 1, ids["B"])
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if snapshot(t, twice) != snapshot(t, once) {
		t.Fatalf("second delete changed the timeline")
	}
}

func TestDeleteUnknownItemIsNoop(t *testing.T) {
	s := newTestStore()
	tl, _ := seedDay(t, s, false)
	got, err := s.DeleteItem(tl, 1, "nonexistent-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot(t, got) != snapshot(t, tl) {
		t.Fatalf("expected unchanged timeline")
	}
	if _, err := s.DeleteItem(tl, 9, "nonexistent-id"); !errors.Is(err, ErrDayNotFound) {
		t.Fatalf("expected ErrDayNotFound for unknown day, got %v", err)
	}
}

func TestUpdateItemTimeShiftsOnlyDownstream(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, true)
	tl, err := s.UpdateItemTime(tl, 1, ids["B"], MustClock("11:00"), 15)
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, tl, 1, "A@09:00/60", "B@11:00/15", "C@11:15/45")
}

func TestUpdateItemTimeLeavesUpstreamAlone(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, true)
	tl, err := s.UpdateItemTime(tl, 1, ids["A"], MustClock("06:00"), 30)
	if err != nil {
		t.Fatal(err)
	}
	// Editing C only moves what follows C: nothing. A and B keep their times.
	tl, err = s.UpdateItemTime(tl, 1, ids["C"], MustClock("18:00"), 45)
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, tl, 1, "A@06:00/30", "B@06:30/30", "C@18:00/45")
}

func TestUpdateItemTimeWrapsPastMidnight(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, false)
	tl, err := s.UpdateItemTime(tl, 1, ids["A"], MustClock("23:30"), 60)
	if err != nil {
		t.Fatal(err)
	}
	expectSchedule(t, tl, 1, "A@23:30/60", "B@00:30/30")
}

func TestUpdateItemTimeNotFound(t *testing.T) {
	s := newTestStore()
	tl, _ := seedDay(t, s, false)
	if _, err := s.UpdateItemTime(tl, 1, "nope", MustClock("10:00"), 30); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := s.UpdateItemTime(tl, 2, "nope", MustClock("10:00"), 30); !errors.Is(err, ErrDayNotFound) {
		t.Fatalf("expected ErrDayNotFound, got %v", err)
	}
}

func TestSetDateRangeOnEmptyTimeline(t *testing.T) {
	s := newTestStore()
	mon := time.Date(2024, time.January, 1, 15, 0, 0, 0, time.UTC)
	wed := time.Date(2024, time.January, 3, 8, 0, 0, 0, time.UTC)
	tl, err := s.SetDateRange(Timeline{}, mon, wed)
	if err != nil {
		t.Fatal(err)
	}
	if got := dayNumbers(tl); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("expected days [1 2 3], got %v", got)
	}
	wantDates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	wantDays := []string{"Monday", "Tuesday", "Wednesday"}
	for i, d := range tl.Days {
		if d.Date != wantDates[i] || d.DayOfWeek != wantDays[i] {
			t.Fatalf("day %d: expected %s %s, got %s %s", d.DayNumber, wantDates[i], wantDays[i], d.Date, d.DayOfWeek)
		}
		if len(d.Items) != 0 {
			t.Fatalf("day %d: expected no items", d.DayNumber)
		}
	}
}

func TestSetDateRangePreservesItemsByPosition(t *testing.T) {
	s := newTestStore()
	tl, _ := seedDay(t, s, false)
	tl = s.AddDay(tl)
	tl, _ = mustInsert(t, s, tl, 2, product("p-x", "X", models.ProductAccommodation, 0))
	before := [][]string{schedule(t, tl, 1), schedule(t, tl, 2)}

	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	grown, err := s.SetDateRange(tl, start, start.AddDate(0, 0, 3))
	if err != nil {
		t.Fatal(err)
	}
	if got := dayNumbers(grown); !reflect.DeepEqual(got, []int{1, 2, 3, 4}) {
		t.Fatalf("expected 4 days, got %v", got)
	}
	for k := 1; k <= 2; k++ {
		if got := schedule(t, grown, k); !reflect.DeepEqual(got, before[k-1]) {
			t.Fatalf("day %d: expected %v, got %v", k, before[k-1], got)
		}
	}
	expectSchedule(t, grown, 4)

	shrunk, err := s.SetDateRange(grown, start, start)
	if err != nil {
		t.Fatal(err)
	}
	if got := dayNumbers(shrunk); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected 1 day, got %v", got)
	}
	if got := schedule(t, shrunk, 1); !reflect.DeepEqual(got, before[0]) {
		t.Fatalf("day 1: expected %v, got %v", before[0], got)
	}
}

func TestSetDateRangeRejectsInvertedRange(t *testing.T) {
	s := newTestStore()
	tl := s.AddDay(Timeline{})
	start := time.Date(2024, time.May, 5, 0, 0, 0, 0, time.UTC)
	got, err := s.SetDateRange(tl, start, start.AddDate(0, 0, -1))
	var ire *InvalidRangeError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InvalidRangeError, got %v", err)
	}
	if snapshot(t, got) != snapshot(t, tl) {
		t.Fatalf("timeline changed on rejected range")
	}
}

func TestSetDateRangeCountsCalendarDays(t *testing.T) {
	s := newTestStore()
	tl, err := s.SetDateRange(Timeline{}, time.Date(2024, time.February, 27, 23, 0, 0, 0, time.UTC), time.Date(2024, time.March, 1, 1, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Days) != 4 || tl.Days[2].Date != "2024-02-29" || tl.Days[3].Date != "2024-03-01" {
		t.Fatalf("unexpected leap-year days %+v", tl.Days)
	}

	// Longer than time.Duration can represent.
	start := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(400, time.January, 1, 0, 0, 0, 0, time.UTC)
	if n := DaysBetween(start, end); n != 145731 {
		t.Fatalf("expected 145731 days between, got %d", n)
	}
	tl, err = s.SetDateRange(Timeline{}, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Days) != 145732 {
		t.Fatalf("expected 145732 days, got %d", len(tl.Days))
	}
	last := tl.Days[len(tl.Days)-1]
	if last.DayNumber != 145732 || last.Date != "0400-01-01" {
		t.Fatalf("unexpected last day %d %s", last.DayNumber, last.Date)
	}
}

func TestAddDayContinuesDates(t *testing.T) {
	s := newTestStore()
	start := time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)
	tl, err := s.SetDateRange(Timeline{}, start, start)
	if err != nil {
		t.Fatal(err)
	}
	tl = s.AddDay(tl)
	d, _ := tl.Day(2)
	if d.Date != "2024-02-29" || d.DayOfWeek != "Thursday" {
		t.Fatalf("expected 2024-02-29 Thursday, got %s %s", d.Date, d.DayOfWeek)
	}
}

func TestDayNumbersStayContiguous(t *testing.T) {
	s := newTestStore()
	tl := Timeline{}
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for _, span := range []int{0, 4, 2, 6} {
		var err error
		tl, err = s.SetDateRange(tl, start, start.AddDate(0, 0, span))
		if err != nil {
			t.Fatal(err)
		}
		tl = s.AddDay(tl)
		for i, d := range tl.Days {
			if d.DayNumber != i+1 {
				t.Fatalf("day at %d numbered %d", i, d.DayNumber)
			}
		}
	}
}

func TestFullReflowInvariantAfterEdits(t *testing.T) {
	s := newTestStore()
	tl, ids := seedDay(t, s, true)
	tl = s.AddDay(tl)
	steps := []func(Timeline) (Timeline, error){
		func(tl Timeline) (Timeline, error) { return s.MoveItem(tl, ids["A"], 1, 1, 2) },
		func(tl Timeline) (Timeline, error) { return s.MoveItem(tl, ids["C"], 1, 2, 0) },
		func(tl Timeline) (Timeline, error) { return s.DeleteItem(tl, 1, ids["B"]) },
		func(tl Timeline) (Timeline, error) { return s.MoveItem(tl, ids["B"], 1, 2, 0) },
	}
	for i, step := range steps {
		next, err := step(tl)
		if err != nil && !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("step %d: %v", i, err)
		}
		tl = next
		for _, d := range tl.Days {
			for j := 1; j < len(d.Items); j++ {
				prev, _ := ParseClock(d.Items[j-1].StartTime)
				if want := prev.Add(d.Items[j-1].Duration).String(); d.Items[j].StartTime != want {
					t.Fatalf("step %d day %d item %d: expected %s, got %s", i, d.DayNumber, j, want, d.Items[j].StartTime)
				}
			}
		}
	}
}

func TestNormalizeRepairsStoredDays(t *testing.T) {
	s := newTestStore()
	stored := Timeline{Days: []models.Day{
		{DayNumber: 4, Items: []models.Item{
			{ID: "a", Title: "A", TimelineID: "dup", StartTime: "10:00", Duration: 30},
			{ID: "b", Title: "B", TimelineID: "dup"},
		}},
		{DayNumber: 9},
	}}
	got := s.Normalize(stored)
	if nums := dayNumbers(got); !reflect.DeepEqual(nums, []int{1, 2}) {
		t.Fatalf("expected [1 2], got %v", nums)
	}
	expectSchedule(t, got, 1, "A@10:00/30", "B@10:30/60")
	d, _ := got.Day(1)
	if d.Items[0].TimelineID == d.Items[1].TimelineID {
		t.Fatalf("duplicate ids survived normalize")
	}
	if d2, _ := got.Day(2); d2.Items == nil {
		t.Fatalf("expected empty item list, got nil")
	}
}

func TestPayloadKeepsOnlyIDTitleNotes(t *testing.T) {
	s := newTestStore()
	tl, _ := seedDay(t, s, false)
	payload := tl.Payload()
	if len(payload) != 1 || len(payload[0].Items) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	b, _ := json.Marshal(payload[0].Items[0])
	if string(b) != `{"id":"p-a","title":"A","notes":""}` {
		t.Fatalf("unexpected item payload %s", b)
	}
}
