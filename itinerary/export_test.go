package itinerary

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"itinera/models"

	ical "github.com/arran4/golang-ical"
)

func exportSession() Session {
	return Session{
		ItineraryID: "it-1",
		Name:        "Night train",
		Days: []models.Day{
			{DayNumber: 1, Date: "2024-03-09", DayOfWeek: "Saturday", Items: []models.Item{
				{TimelineID: "t1", Title: "Fado dinner", ProductType: models.ProductFood, StartTime: "21:00", Duration: 90, Notes: "Book a window table",
					Location: &models.Location{Name: "Alfama", Address: "Rua de São Miguel 1"}},
				{TimelineID: "t2", Title: "Sleeper to Madrid", ProductType: models.ProductTransportation, StartTime: "22:30", Duration: 120, Destination: "Madrid"},
			}},
			{DayNumber: 2, Date: "2024-03-10", DayOfWeek: "Sunday", Items: []models.Item{}},
		},
	}
}

func TestRenderICSUsesFloatingTimes(t *testing.T) {
	out, err := RenderICS(exportSession(), time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"DTSTART:20240309T210000",
		"DTEND:20240309T223000",
		"DTSTART:20240309T223000",
		"DTEND:20240310T003000",
		"UID:t1@it-1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if loc := events[0].GetProperty(ical.ComponentPropertyLocation); loc == nil || loc.Value != "Rua de São Miguel 1" {
		t.Fatalf("unexpected location %+v", loc)
	}
	if loc := events[1].GetProperty(ical.ComponentPropertyLocation); loc == nil || loc.Value != "Madrid" {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestRenderICSNeedsDates(t *testing.T) {
	s := Session{ItineraryID: "it-2", Name: "Someday", Days: []models.Day{{DayNumber: 1, Items: []models.Item{
		{TimelineID: "t1", Title: "Walk", StartTime: "09:00", Duration: 60},
	}}}}
	if _, err := RenderICS(s, time.Now()); !errors.Is(err, ErrUndated) {
		t.Fatalf("expected ErrUndated, got %v", err)
	}
}

func TestRenderPDF(t *testing.T) {
	data, err := RenderPDF(exportSession(), "https://trips.example/itineraries/it-1", time.Now())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) || len(data) < 1000 {
		t.Fatalf("output does not look like a pdf (%d bytes)", len(data))
	}
	if _, err := RenderPDF(Session{Name: "Empty"}, "", time.Now()); err != nil {
		t.Fatalf("empty session: %v", err)
	}
}
