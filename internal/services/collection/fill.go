package collection

import (
	"math"
	"time"
)

// EstimateLoadKg estimates the current load of a bin from its accumulation rate
// and the time since its last pickup. The elapsed time never drops below one day,
// so a freshly emptied bin still reports one day of accumulation.
func EstimateLoadKg(bin *Bin, now time.Time) float64 {
	if bin == nil || bin.CapacityKg <= 0 {
		return 0
	}

	var elapsed time.Duration
	if bin.LastPickup != nil {
		elapsed = now.Sub(*bin.LastPickup)
	} else {
		// Never serviced: measure from the epoch, which saturates the cap
		elapsed = now.Sub(time.Unix(0, 0))
	}

	elapsedDays := math.Max(1, elapsed.Hours()/24)
	estimated := bin.RateKgPerDay * elapsedDays

	return math.Min(math.Max(estimated, 0), bin.CapacityKg)
}

// FillRatio returns estimated load / capacity, or 0 when capacity is not positive
func FillRatio(bin *Bin, now time.Time) float64 {
	if bin == nil || bin.CapacityKg <= 0 {
		return 0
	}
	return EstimateLoadKg(bin, now) / bin.CapacityKg
}
