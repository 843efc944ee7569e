package collection

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Candidate is a bin that passed threshold filtering for one optimization run
type Candidate struct {
	Bin             Bin
	EstimatedKg     float64
	FillRatio       float64
	DepotDistanceKm float64
}

// SelectCandidates keeps the bins at or above threshold and orders them by
// distance from the depot, nearest first. Equal distances are ordered by bin ID.
// A non-positive truck capacity yields no candidates.
func SelectCandidates(
	bins []Bin,
	depot Location,
	threshold float64,
	truckCapacityKg float64,
	now time.Time,
) []Candidate {
	if truckCapacityKg <= 0 || len(bins) == 0 {
		return []Candidate{}
	}

	candidates := make([]Candidate, 0, len(bins))
	for i := range bins {
		bin := &bins[i]
		if !bin.HasLocation || !bin.Location.Valid() || bin.CapacityKg <= 0 {
			continue
		}

		estimated := EstimateLoadKg(bin, now)
		ratio := estimated / bin.CapacityKg
		if ratio < threshold {
			continue
		}

		candidates = append(candidates, Candidate{
			Bin:             *bin,
			EstimatedKg:     estimated,
			FillRatio:       ratio,
			DepotDistanceKm: DistanceKm(depot, bin.Location),
		})
	}

	// Distances within distanceTieToleranceKm count as equal, as in nearest
	slices.SortFunc(candidates, func(a, b Candidate) int {
		if math.Abs(a.DepotDistanceKm-b.DepotDistanceKm) > distanceTieToleranceKm {
			if a.DepotDistanceKm < b.DepotDistanceKm {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Bin.ID, b.Bin.ID)
	})

	return candidates
}
