package models

import "time"

// Itinerary represents the travel itinerary
type Itinerary struct {
	ItineraryID string     `json:"itineraryid" bson:"itineraryid,omitempty"`
	UserID      string     `json:"user_id" bson:"user_id"`
	Name        string     `json:"name" bson:"name"`
	Description string     `json:"description" bson:"description"`
	StartDate   string     `json:"start_date" bson:"start_date"`
	EndDate     string     `json:"end_date" bson:"end_date"`
	Status      string     `json:"status" bson:"status"` // Draft/Confirmed
	Published   bool       `json:"published" bson:"published"`
	ForkedFrom  *string    `json:"forked_from,omitempty" bson:"forked_from,omitempty"`
	Deleted     bool       `json:"-" bson:"deleted,omitempty"` // Internal use only
	DeletedAt   *time.Time `json:"-" bson:"deleted_at,omitempty"`
	// the day-by-day schedule
	Days      []Day     `json:"days" bson:"days"`
	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	StatusDraft     = "Draft"
	StatusConfirmed = "Confirmed"
)

// Day is one numbered unit of the itinerary. Items are in visit order.
type Day struct {
	DayNumber int    `json:"dayNumber" bson:"day_number"`
	Date      string `json:"date,omitempty" bson:"date,omitempty"`
	DayOfWeek string `json:"dayOfWeek,omitempty" bson:"day_of_week,omitempty"`
	Items     []Item `json:"items" bson:"items"`
}

// Item is a Product placed on the timeline.
type Item struct {
	ID            string      `json:"id" bson:"id"`
	TimelineID    string      `json:"timelineId" bson:"timeline_id"`
	ProductType   ProductType `json:"productType" bson:"product_type"`
	Title         string      `json:"title" bson:"title"`
	Destination   string      `json:"destination,omitempty" bson:"destination,omitempty"`
	CoverImageURL string      `json:"coverImageUrl,omitempty" bson:"cover_image_url,omitempty"`
	NetPrice      float64     `json:"netPrice" bson:"net_price"`
	SupplierName  string      `json:"supplierName,omitempty" bson:"supplier_name,omitempty"`
	Location      *Location   `json:"location,omitempty" bson:"location,omitempty"`
	Notes         string      `json:"notes,omitempty" bson:"notes,omitempty"`
	// StartTime is HH:mm wall clock, empty until the day has been reflowed.
	StartTime string `json:"startTime,omitempty" bson:"start_time,omitempty"`
	Duration  int    `json:"duration" bson:"duration"`
}

// SavedDay and SavedItem are the slim payload handed back on save.
type SavedDay struct {
	DayNumber int         `json:"dayNumber"`
	Items     []SavedItem `json:"items"`
}

type SavedItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Notes string `json:"notes"`
}

// Draft is the working copy of an itinerary's days while it is being edited.
type Draft struct {
	ItineraryID string    `json:"itineraryid"`
	OwnerID     string    `json:"owner_id"`
	BaseVersion int64     `json:"base_version"`
	Revision    int64     `json:"revision"`
	Days        []Day     `json:"days"`
	UpdatedAt   time.Time `json:"updated_at"`
}
