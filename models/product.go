package models

import (
	"encoding/json"
	"fmt"
)

// ProductType is the closed set of bookable resource kinds.
type ProductType string

const (
	ProductActivity       ProductType = "activity"
	ProductAccommodation  ProductType = "accommodation"
	ProductFood           ProductType = "food"
	ProductTransportation ProductType = "transportation"
	ProductLandmark       ProductType = "landmark"
)

// ProductTypes lists every ProductType in display order.
var ProductTypes = []ProductType{
	ProductActivity,
	ProductAccommodation,
	ProductFood,
	ProductTransportation,
	ProductLandmark,
}

func (p ProductType) Valid() bool {
	switch p {
	case ProductActivity, ProductAccommodation, ProductFood, ProductTransportation, ProductLandmark:
		return true
	}
	return false
}

// Label is the human readable category name.
func (p ProductType) Label() string {
	switch p {
	case ProductActivity:
		return "Activity"
	case ProductAccommodation:
		return "Accommodation"
	case ProductFood:
		return "Food & Drink"
	case ProductTransportation:
		return "Transportation"
	case ProductLandmark:
		return "Landmark"
	}
	return "Unknown"
}

// Icon is the icon key the renderer uses for the type.
func (p ProductType) Icon() string {
	switch p {
	case ProductActivity:
		return "ticket"
	case ProductAccommodation:
		return "bed"
	case ProductFood:
		return "utensils"
	case ProductTransportation:
		return "bus"
	case ProductLandmark:
		return "landmark"
	}
	return "circle"
}

func (p *ProductType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pt := ProductType(s)
	if !pt.Valid() {
		return fmt.Errorf("unknown product type %q", s)
	}
	*p = pt
	return nil
}

// Location is an optional geographic anchor of a product.
type Location struct {
	Name    string  `json:"name,omitempty" bson:"name,omitempty"`
	Address string  `json:"address,omitempty" bson:"address,omitempty"`
	Lat     float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty" bson:"lng,omitempty"`
}

// Product is a library resource as supplied at drop time.
type Product struct {
	ID            string      `json:"id" bson:"productid"`
	Title         string      `json:"title" bson:"title"`
	Destination   string      `json:"destination" bson:"destination"`
	CoverImageURL string      `json:"coverImageUrl" bson:"cover_image_url"`
	NetPrice      float64     `json:"netPrice" bson:"net_price"`
	SupplierName  string      `json:"supplierName" bson:"supplier_name"`
	ProductType   ProductType `json:"productType" bson:"product_type"`
	Location      *Location   `json:"location,omitempty" bson:"location,omitempty"`
	Notes         string      `json:"notes,omitempty" bson:"notes,omitempty"`
	Duration      *int        `json:"duration,omitempty" bson:"duration,omitempty"`
}
