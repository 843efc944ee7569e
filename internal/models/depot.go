package models

// Depot is the start and end point of every truck in a service area
type Depot struct {
	ServiceArea string  `json:"service_area" db:"service_area"`
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`
	Address     *string `json:"address,omitempty" db:"address"`
	UpdatedAt   int64   `json:"updated_at" db:"updated_at"` // Unix timestamp
}
