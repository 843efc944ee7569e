package models

import "time"

// Bin statuses
const (
	BinStatusActive  = "active"
	BinStatusRetired = "retired"
)

// Bin types
const (
	BinTypeResidential = "residential"
	BinTypeCommercial  = "commercial"
)

// Bin is a physical collection point as provisioned in the catalog
type Bin struct {
	ID              string   `json:"id" db:"id"`
	ServiceArea     string   `json:"service_area" db:"service_area"`
	SubArea         *string  `json:"sub_area,omitempty" db:"sub_area"`
	Street          string   `json:"street" db:"street"`
	Latitude        *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64 `json:"longitude,omitempty" db:"longitude"`
	CapacityKg      float64  `json:"capacity_kg" db:"capacity_kg"`
	EstRateKgPerDay *float64 `json:"est_rate_kg_per_day,omitempty" db:"est_rate_kg_per_day"`
	LastPickup      *int64   `json:"last_pickup,omitempty" db:"last_pickup"` // Unix timestamp
	BinType         string   `json:"bin_type" db:"bin_type"`
	Status          string   `json:"status" db:"status"`
	CreatedAt       int64    `json:"created_at" db:"created_at"` // Unix timestamp
	UpdatedAt       int64    `json:"updated_at" db:"updated_at"` // Unix timestamp
}

// BinResponse is what we send to the client with ISO timestamps and the current estimate
type BinResponse struct {
	ID              string   `json:"id"`
	ServiceArea     string   `json:"service_area"`
	SubArea         *string  `json:"sub_area,omitempty"`
	Street          string   `json:"street"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	CapacityKg      float64  `json:"capacity_kg"`
	EstRateKgPerDay *float64 `json:"est_rate_kg_per_day,omitempty"`
	LastPickupIso   *string  `json:"lastPickupIso,omitempty"`
	BinType         string   `json:"bin_type"`
	Status          string   `json:"status"`
	EstimatedKg     float64  `json:"estimated_kg"`
	FillRatio       float64  `json:"fill_ratio"`
}

// ToBinResponse converts a Bin to BinResponse. The estimate fields are filled by the caller.
func (b *Bin) ToBinResponse() BinResponse {
	resp := BinResponse{
		ID:              b.ID,
		ServiceArea:     b.ServiceArea,
		SubArea:         b.SubArea,
		Street:          b.Street,
		Latitude:        b.Latitude,
		Longitude:       b.Longitude,
		CapacityKg:      b.CapacityKg,
		EstRateKgPerDay: b.EstRateKgPerDay,
		BinType:         b.BinType,
		Status:          b.Status,
	}

	if b.LastPickup != nil {
		iso := time.Unix(*b.LastPickup, 0).UTC().Format(time.RFC3339)
		resp.LastPickupIso = &iso
	}

	return resp
}
