package models

// Notice is the toast payload emitted after a successful timeline edit.
type Notice struct {
	ID          string `json:"id"`
	ItineraryID string `json:"itineraryid"`
	Kind        string `json:"kind"`
	Summary     string `json:"summary"`
	Timestamp   int64  `json:"timestamp"` // unix seconds
}
