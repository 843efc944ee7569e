package collection

// Constraints bound one optimization run
type Constraints struct {
	TruckCapacityKg  float64
	TruckCount       int
	MaxDurationHours float64
	AvgSpeedKmh      float64
	Flags            ThresholdFlags
}

// Validate rejects constraints the dispatcher cannot plan against
func (c Constraints) Validate() error {
	if c.TruckCapacityKg <= 0 {
		return NewInvalidConstraintError("truck_capacity_kg", "must be greater than zero")
	}
	if c.TruckCount < 1 {
		return NewInvalidConstraintError("truck_count", "must be at least 1")
	}
	if c.MaxDurationHours < 0 {
		return NewInvalidConstraintError("max_duration_hours", "must not be negative")
	}
	if c.AvgSpeedKmh < 0 {
		return NewInvalidConstraintError("avg_speed_kmh", "must not be negative")
	}
	return nil
}

// DistanceBudgetKm converts the time budget into a round-trip distance limit.
// Zero means unlimited.
func (c Constraints) DistanceBudgetKm() float64 {
	if c.MaxDurationHours <= 0 || c.AvgSpeedKmh <= 0 {
		return 0
	}
	return c.MaxDurationHours * c.AvgSpeedKmh
}
