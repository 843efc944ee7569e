package collection

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for all route distances
const EarthRadiusKm = 6371.0

// Location represents a geographic point
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point is a usable WGS84 coordinate
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		math.IsInf(l.Latitude, 0) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// DistanceKm returns the great-circle distance between two points in kilometers
func DistanceKm(a, b Location) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}
