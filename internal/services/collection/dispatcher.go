package collection

import (
	"math"

	"binroute-backend/internal/models"
)

// Distances closer than this are treated as equal when picking the next stop
const distanceTieToleranceKm = 1e-9

// Plan is one truck's stop sequence with its aggregates
type Plan struct {
	Stops      []models.Stop
	LoadKg     int
	DistanceKm float64
}

// EmptyPlan is the representation of "no work today"
func EmptyPlan() Plan {
	return Plan{Stops: []models.Stop{}}
}

// BuildPlans assigns candidates to at most truckCount trucks.
//
// Each truck leaves the depot and repeatedly drives to the nearest remaining
// candidate from its current position. A truck stops accepting bins as soon as
// the next nearest bin would overflow its capacity, or, when maxDistanceKm > 0,
// when visiting it and returning to the depot would exceed the distance budget.
// A truck that accepts nothing ends plan building. When no plan is produced the
// result is a single empty plan.
func BuildPlans(
	candidates []Candidate,
	depot Location,
	truckCapacityKg float64,
	truckCount int,
	maxDistanceKm float64,
) []Plan {
	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)

	plans := make([]Plan, 0, max(truckCount, 1))

	for len(remaining) > 0 && len(plans) < truckCount {
		current := depot
		load := 0
		travelled := 0.0
		stops := []models.Stop{}

		for len(remaining) > 0 {
			bestIdx, bestDistance := nearest(remaining, current)
			next := remaining[bestIdx]
			estKg := int(math.Round(next.EstimatedKg))

			// The truck is full once the nearest bin does not fit
			if float64(load+estKg) > truckCapacityKg {
				break
			}

			if maxDistanceKm > 0 {
				projected := travelled + bestDistance + DistanceKm(next.Bin.Location, depot)
				if projected > maxDistanceKm {
					break
				}
			}

			stops = append(stops, models.Stop{
				BinID:     next.Bin.ID,
				Latitude:  next.Bin.Location.Latitude,
				Longitude: next.Bin.Location.Longitude,
				EstKg:     estKg,
				Visited:   false,
			})
			travelled += bestDistance
			load += estKg
			current = next.Bin.Location
			remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		}

		if len(stops) == 0 {
			break
		}

		travelled += DistanceKm(current, depot)
		plans = append(plans, Plan{
			Stops:      stops,
			LoadKg:     load,
			DistanceKm: roundTo(travelled, 2),
		})
	}

	if len(plans) == 0 {
		return []Plan{EmptyPlan()}
	}

	return plans
}

// nearest returns the index of the candidate closest to from, breaking ties by bin ID
func nearest(candidates []Candidate, from Location) (int, float64) {
	bestIdx := -1
	bestDistance := math.MaxFloat64

	for i, c := range candidates {
		d := DistanceKm(from, c.Bin.Location)
		switch {
		case bestIdx == -1 || d < bestDistance-distanceTieToleranceKm:
			bestIdx, bestDistance = i, d
		case math.Abs(d-bestDistance) <= distanceTieToleranceKm && c.Bin.ID < candidates[bestIdx].Bin.ID:
			bestIdx, bestDistance = i, d
		}
	}

	return bestIdx, bestDistance
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
