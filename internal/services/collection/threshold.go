package collection

import "math"

const (
	// DefaultThreshold is the minimum fill ratio when no region override is configured
	DefaultThreshold = 0.2

	skipLowFillFloor   = 0.3
	emergencyOnlyFloor = 0.6
	commercialDiscount = 0.05
	commercialFloor    = 0.1
	thresholdCeiling   = 0.9
)

// ThresholdFlags are operator overrides applied on top of the base threshold
type ThresholdFlags struct {
	SkipLowFill          bool `json:"skip_low_fill"`
	EmergencyOnly        bool `json:"emergency_only"`
	PrioritizeCommercial bool `json:"prioritize_commercial"`
}

// ResolveThreshold derives today's minimum fill ratio.
// Flags apply in a fixed order (skip-low-fill, emergency-only, prioritize-commercial)
// and the result never exceeds 0.9, so some bins always remain eligible.
func ResolveThreshold(base float64, flags ThresholdFlags) float64 {
	t := base
	if math.IsNaN(t) {
		t = DefaultThreshold
	}

	if flags.SkipLowFill {
		t = math.Max(t, skipLowFillFloor)
	}
	if flags.EmergencyOnly {
		t = math.Max(t, emergencyOnlyFloor)
	}
	if flags.PrioritizeCommercial {
		t = math.Max(t-commercialDiscount, commercialFloor)
	}

	return math.Min(math.Max(t, 0), thresholdCeiling)
}
