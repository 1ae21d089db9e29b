package timeline

import "itinera/models"

// DaySummary is the at-a-glance view of one day.
type DaySummary struct {
	DayNumber    int                        `json:"dayNumber"`
	Date         string                     `json:"date,omitempty"`
	DayOfWeek    string                     `json:"dayOfWeek,omitempty"`
	Start        string                     `json:"start,omitempty"`
	End          string                     `json:"end,omitempty"`
	TotalMinutes int                        `json:"totalMinutes"`
	Items        int                        `json:"items"`
	ByType       map[models.ProductType]int `json:"byType"`
	Stay         string                     `json:"stay,omitempty"`
	Meals        []string                   `json:"meals"`
	NetPrice     float64                    `json:"netPrice"`
}

// Summarize builds one summary per day. The stay is the last accommodation
// booked that day; meals list food items in visit order.
func Summarize(t Timeline) []DaySummary {
	out := make([]DaySummary, 0, len(t.Days))
	for _, d := range t.Days {
		s := DaySummary{
			DayNumber: d.DayNumber,
			Date:      d.Date,
			DayOfWeek: d.DayOfWeek,
			Items:     len(d.Items),
			ByType:    make(map[models.ProductType]int),
			Meals:     []string{},
		}
		for _, it := range d.Items {
			s.ByType[it.ProductType]++
			s.TotalMinutes += it.Duration
			s.NetPrice += it.NetPrice
			switch it.ProductType {
			case models.ProductAccommodation:
				s.Stay = it.Title
			case models.ProductFood:
				s.Meals = append(s.Meals, it.Title)
			case models.ProductActivity, models.ProductTransportation, models.ProductLandmark:
			}
		}
		if n := len(d.Items); n > 0 {
			s.Start = d.Items[0].StartTime
			if c, err := ParseClock(d.Items[n-1].StartTime); err == nil {
				s.End = c.Add(d.Items[n-1].Duration).String()
			}
		}
		out = append(out, s)
	}
	return out
}
