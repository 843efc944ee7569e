package collection

import (
	"math"
	"time"
)

var depot = Location{Latitude: 0, Longitude: 0}

var testNow = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

// north returns the point km kilometers due north of the depot
func north(km float64) Location {
	return Location{Latitude: km * 180 / (math.Pi * EarthRadiusKm)}
}

// east returns the point km kilometers due east of the depot along the equator
func east(km float64) Location {
	return Location{Longitude: km * 180 / (math.Pi * EarthRadiusKm)}
}

// destination returns the point km kilometers from origin on the given bearing
func destination(origin Location, km, bearingDeg float64) Location {
	d := km / EarthRadiusKm
	theta := bearingDeg * math.Pi / 180
	lat1 := origin.Latitude * math.Pi / 180
	lng1 := origin.Longitude * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(theta))
	lng2 := lng1 + math.Atan2(math.Sin(theta)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	return Location{Latitude: lat2 * 180 / math.Pi, Longitude: lng2 * 180 / math.Pi}
}

func candidate(id string, loc Location, estKg float64) Candidate {
	return Candidate{
		Bin:             Bin{ID: id, Location: loc, HasLocation: true, CapacityKg: 1000},
		EstimatedKg:     estKg,
		FillRatio:       estKg / 1000,
		DepotDistanceKm: DistanceKm(depot, loc),
	}
}

func daysAgo(d float64) *time.Time {
	t := testNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
	return &t
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
