package itinerary

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"itinera/models"
	"itinera/timeline"

	ical "github.com/arran4/golang-ical"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// ErrUndated is returned when a calendar export is asked for a timeline
// without dates.
var ErrUndated = fmt.Errorf("%w: set trip dates before exporting a calendar", timeline.ErrInvalidRange)

const icsLocalFormat = "20060102T150405"

// RenderPDF lays out the working timeline as a printable itinerary with a
// QR code pointing at shareURL.
func RenderPDF(s Session, shareURL string, printed time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(150, 12, tr(s.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(150, 6, fmt.Sprintf("%d day(s), printed %s", len(s.Days), printed.Format("02 Jan 2006 15:04")), "", 1, "L", false, 0, "")

	if shareURL != "" {
		qr, err := qrcode.Encode(shareURL, qrcode.Medium, 128)
		if err != nil {
			return nil, fmt.Errorf("encode qr: %w", err)
		}
		imgOpts := gofpdf.ImageOptions{ImageType: "png"}
		pdf.RegisterImageOptionsReader("share", imgOpts, bytes.NewReader(qr))
		pdf.ImageOptions("share", 165, 12, 30, 30, false, imgOpts, 0, "")
	}
	pdf.Ln(10)

	summaries := timeline.Summarize(timeline.FromDays(s.Days))
	for i, d := range s.Days {
		heading := fmt.Sprintf("Day %d", d.DayNumber)
		if d.Date != "" {
			heading += fmt.Sprintf(" - %s %s", d.DayOfWeek, d.Date)
		}
		pdf.SetFillColor(235, 240, 255)
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 9, tr(heading), "", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 11)
		if len(d.Items) == 0 {
			pdf.SetFont("Arial", "I", 10)
			pdf.CellFormat(0, 7, "Nothing planned yet", "", 1, "L", false, 0, "")
		}
		for _, it := range d.Items {
			end := it.StartTime
			if c, err := timeline.ParseClock(it.StartTime); err == nil {
				end = c.Add(it.Duration).String()
			}
			pdf.CellFormat(28, 7, it.StartTime+"-"+end, "", 0, "L", false, 0, "")
			pdf.CellFormat(32, 7, tr(it.ProductType.Label()), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, tr(itemLine(it)), "", 1, "L", false, 0, "")
			if it.Notes != "" {
				pdf.SetFont("Arial", "I", 9)
				pdf.SetX(75)
				pdf.MultiCell(0, 5, tr(it.Notes), "", "L", false)
				pdf.SetFont("Arial", "", 11)
			}
		}

		sum := summaries[i]
		pdf.SetFont("Arial", "", 9)
		var footer []string
		if sum.Items > 0 {
			footer = append(footer, fmt.Sprintf("%s-%s, %d min", sum.Start, sum.End, sum.TotalMinutes))
		}
		if sum.Stay != "" {
			footer = append(footer, "Stay: "+sum.Stay)
		}
		if sum.NetPrice > 0 {
			footer = append(footer, fmt.Sprintf("Net %.2f", sum.NetPrice))
		}
		if len(footer) > 0 {
			pdf.CellFormat(0, 6, tr(strings.Join(footer, " | ")), "T", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	// Footer
	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 8, "Times are local to each destination.", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func itemLine(it models.Item) string {
	parts := []string{it.Title}
	if it.Destination != "" {
		parts = append(parts, it.Destination)
	}
	if it.Location != nil && it.Location.Name != "" && it.Location.Name != it.Destination {
		parts = append(parts, it.Location.Name)
	}
	return strings.Join(parts, ", ")
}

// RenderICS emits one VEVENT per scheduled item of every dated day. Times
// are floating: no TZID and no UTC suffix.
func RenderICS(s Session, stamp time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//itinera//timeline export//EN")
	cal.SetXWRCalName(s.Name)

	events := 0
	for _, d := range s.Days {
		date, err := time.Parse(timeline.DateLayout, d.Date)
		if err != nil {
			continue
		}
		for _, it := range d.Items {
			clock, err := timeline.ParseClock(it.StartTime)
			if err != nil {
				continue
			}
			start := date.Add(time.Duration(clock) * time.Minute)
			end := start.Add(time.Duration(timeline.SanitizeDuration(it.Duration)) * time.Minute)

			ev := cal.AddEvent(it.TimelineID + "@" + s.ItineraryID)
			ev.SetDtStampTime(stamp)
			ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(icsLocalFormat))
			ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(icsLocalFormat))
			ev.SetSummary(it.Title)
			if loc := location(it); loc != "" {
				ev.SetLocation(loc)
			}
			desc := it.ProductType.Label()
			if it.Notes != "" {
				desc += "\n" + it.Notes
			}
			ev.SetDescription(desc)
			events++
		}
	}
	if events == 0 {
		hasDates := false
		for _, d := range s.Days {
			hasDates = hasDates || d.Date != ""
		}
		if !hasDates && len(s.Days) > 0 {
			return "", ErrUndated
		}
	}
	return cal.Serialize(), nil
}

func location(it models.Item) string {
	if it.Location != nil {
		if it.Location.Address != "" {
			return it.Location.Address
		}
		if it.Location.Name != "" {
			return it.Location.Name
		}
	}
	return it.Destination
}
