package collection

import (
	"time"

	"binroute-backend/internal/models"
)

// DefaultAccumulationRateKgPerDay applies to bins provisioned without a rate
const DefaultAccumulationRateKgPerDay = 3.0

// Bin is the routing view of a collection point.
// Optional fields are resolved before a Bin reaches the engine.
type Bin struct {
	ID           string
	Location     Location
	HasLocation  bool
	CapacityKg   float64
	RateKgPerDay float64
	LastPickup   *time.Time
}

// NewBin resolves the optional catalog fields of a stored bin
func NewBin(m models.Bin) Bin {
	b := Bin{
		ID:           m.ID,
		CapacityKg:   m.CapacityKg,
		RateKgPerDay: DefaultAccumulationRateKgPerDay,
	}

	if m.Latitude != nil && m.Longitude != nil {
		b.Location = Location{Latitude: *m.Latitude, Longitude: *m.Longitude}
		b.HasLocation = true
	}

	if m.EstRateKgPerDay != nil {
		b.RateKgPerDay = *m.EstRateKgPerDay
	}

	if m.LastPickup != nil {
		t := time.Unix(*m.LastPickup, 0)
		b.LastPickup = &t
	}

	return b
}
