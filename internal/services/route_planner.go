package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"binroute-backend/internal/config"
	"binroute-backend/internal/models"
	"binroute-backend/internal/services/collection"
)

// OptimizeRequest describes one optimisation run. Unset fields fall back to the region defaults.
type OptimizeRequest struct {
	ServiceArea      string                    `json:"service_area"`
	SubArea          *string                   `json:"sub_area,omitempty"`
	Date             *string                   `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	TruckCapacityKg  *float64                  `json:"truck_capacity_kg,omitempty"`
	TruckCount       *int                      `json:"truck_count,omitempty"`
	TruckIDs         []string                  `json:"truck_ids,omitempty"`
	MaxDurationHours *float64                  `json:"max_duration_hours,omitempty"`
	AvgSpeedKmh      *float64                  `json:"avg_speed_kmh,omitempty"`
	BaseThreshold    *float64                  `json:"base_threshold,omitempty"`
	Flags            collection.ThresholdFlags `json:"flags"`
}

// OptimizeResult is what a run computed, whether or not every plan was stored
type OptimizeResult struct {
	ServiceArea      string             `json:"service_area"`
	SubArea          *string            `json:"sub_area,omitempty"`
	PlanDate         string             `json:"plan_date"`
	ThresholdApplied float64            `json:"threshold_applied"`
	BinsConsidered   int                `json:"bins_considered"`
	Candidates       int                `json:"candidates"`
	Unassigned       int                `json:"unassigned"`
	FillEstimatedAt  int64              `json:"fill_estimated_at"` // Unix timestamp
	Plans            []models.RoutePlan `json:"plans"`
	RemovedTrucks    []string           `json:"removed_trucks,omitempty"`
}

// RoutePlanner runs the selection and dispatch engine and persists its plans
type RoutePlanner struct {
	bins        BinSource
	depots      DepotSource
	plans       PlanStore
	notifier    PlanNotifier
	broadcaster EventBroadcaster
	region      config.RegionConfig
	now         func() time.Time
}

func NewRoutePlanner(bins BinSource, depots DepotSource, plans PlanStore, region config.RegionConfig) *RoutePlanner {
	return &RoutePlanner{
		bins:   bins,
		depots: depots,
		plans:  plans,
		region: region,
		now:    time.Now,
	}
}

// WithNotifier enables push notifications for stored plans
func (p *RoutePlanner) WithNotifier(n PlanNotifier) *RoutePlanner {
	p.notifier = n
	return p
}

// WithBroadcaster enables live plan updates for connected dispatchers
func (p *RoutePlanner) WithBroadcaster(b EventBroadcaster) *RoutePlanner {
	p.broadcaster = b
	return p
}

// Optimize selects the bins due for collection, builds one plan per truck and
// upserts each plan. Plans stored earlier for the same area, sub-area and day
// under trucks that got no plan this run are removed. A persistence failure
// stops the run; the result still carries every computed plan so the caller
// can report it.
func (p *RoutePlanner) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	if req.ServiceArea == "" {
		return nil, collection.NewInvalidConstraintError("service_area", "is required")
	}

	constraints := p.constraints(req)
	if err := constraints.Validate(); err != nil {
		return nil, err
	}

	truckIDs, err := resolveTruckIDs(req.TruckIDs, constraints.TruckCount)
	if err != nil {
		return nil, err
	}

	now := p.now()
	day := p.region.PlanDate(now)
	if req.Date != nil {
		if _, err := time.Parse("2006-01-02", *req.Date); err != nil {
			return nil, collection.NewInvalidConstraintError("date", "must be YYYY-MM-DD")
		}
		day = *req.Date
	}
	estimateAt := p.estimateTime(now, day)

	rows, err := p.bins.ListBins(ctx, req.ServiceArea, req.SubArea)
	if err != nil {
		return nil, fmt.Errorf("failed to load bins: %w", err)
	}

	depot, err := p.depot(ctx, req.ServiceArea)
	if err != nil {
		return nil, err
	}

	base := p.region.BaseThreshold
	if req.BaseThreshold != nil {
		base = *req.BaseThreshold
	}
	threshold := collection.ResolveThreshold(base, constraints.Flags)

	bins := make([]collection.Bin, len(rows))
	for i := range rows {
		bins[i] = collection.NewBin(rows[i])
	}

	log.Printf("🚛 Optimizing %s (sub-area: %s) for %s: %d bins, threshold %.2f, %d trucks x %.0f kg",
		req.ServiceArea, subAreaLabel(req.SubArea), day, len(bins), threshold,
		constraints.TruckCount, constraints.TruckCapacityKg)

	candidates := collection.SelectCandidates(bins, depot, threshold, constraints.TruckCapacityKg, estimateAt)
	built := collection.BuildPlans(
		candidates,
		depot,
		constraints.TruckCapacityKg,
		constraints.TruckCount,
		constraints.DistanceBudgetKm(),
	)

	highPriority := p.countHighPriority(bins, estimateAt)
	assigned := 0

	result := &OptimizeResult{
		ServiceArea:      req.ServiceArea,
		SubArea:          req.SubArea,
		PlanDate:         day,
		ThresholdApplied: threshold,
		BinsConsidered:   len(bins),
		Candidates:       len(candidates),
		FillEstimatedAt:  estimateAt.Unix(),
		Plans:            make([]models.RoutePlan, 0, len(built)),
	}

	for i, plan := range built {
		key := models.PlanKey{
			ServiceArea: req.ServiceArea,
			SubArea:     req.SubArea,
			TruckID:     truckIDs[i],
			PlanDate:    day,
		}
		assigned += len(plan.Stops)

		result.Plans = append(result.Plans, models.RoutePlan{
			ID:          key.ID(),
			ServiceArea: key.ServiceArea,
			SubArea:     key.SubAreaValue(),
			TruckID:     key.TruckID,
			PlanDate:    key.PlanDate,
			Stops:       plan.Stops,
			LoadKg:      plan.LoadKg,
			DistanceKm:  plan.DistanceKm,
			Summary: models.PlanSummary{
				BinsConsidered:   len(bins),
				HighPriorityBins: highPriority,
				CapacityUsedPct:  capacityUsedPct(plan.LoadKg, constraints.TruckCapacityKg),
				TruckCount:       constraints.TruckCount,
				ThresholdApplied: threshold,
			},
		})
	}
	result.Unassigned = len(candidates) - assigned

	for i := range result.Plans {
		if err := p.plans.UpsertPlan(ctx, &result.Plans[i]); err != nil {
			log.Printf("❌ Failed to store plan for %s on %s: %v", result.Plans[i].TruckID, day, err)
			return result, fmt.Errorf("failed to store plan for truck %s: %w", result.Plans[i].TruckID, err)
		}
	}

	keep := make([]string, len(result.Plans))
	for i := range result.Plans {
		keep[i] = result.Plans[i].TruckID
	}
	removed, err := p.plans.PrunePlans(ctx, req.ServiceArea, req.SubArea, day, keep)
	if err != nil {
		log.Printf("❌ Failed to remove stale plans for %s on %s: %v", req.ServiceArea, day, err)
		return result, fmt.Errorf("failed to remove stale plans: %w", err)
	}
	if len(removed) > 0 {
		log.Printf("🧹 Removed stale plans of %v for %s on %s", removed, req.ServiceArea, day)
		result.RemovedTrucks = removed
	}

	log.Printf("✅ Stored %d plans for %s on %s (%d of %d candidates assigned)",
		len(result.Plans), req.ServiceArea, day, assigned, len(candidates))

	p.publish(ctx, result)

	return result, nil
}

// TodayPlan returns the truck's plan for a day in a service area, or nil when none exists
func (p *RoutePlanner) TodayPlan(ctx context.Context, serviceArea, truckID string, day *string) (*models.RoutePlan, error) {
	d, err := p.resolveDay(day)
	if err != nil {
		return nil, err
	}
	return p.plans.GetPlan(ctx, serviceArea, truckID, d)
}

// ListPlans returns every stored plan of a service area for a day
func (p *RoutePlanner) ListPlans(ctx context.Context, serviceArea string, day *string) ([]models.RoutePlan, error) {
	d, err := p.resolveDay(day)
	if err != nil {
		return nil, err
	}
	return p.plans.ListPlans(ctx, serviceArea, d)
}

// Snapshot annotates the bins of an area with their current estimated load
func (p *RoutePlanner) Snapshot(ctx context.Context, serviceArea string, subArea *string) ([]models.BinResponse, error) {
	rows, err := p.bins.ListBins(ctx, serviceArea, subArea)
	if err != nil {
		return nil, fmt.Errorf("failed to load bins: %w", err)
	}

	now := p.now()
	out := make([]models.BinResponse, len(rows))
	for i := range rows {
		bin := collection.NewBin(rows[i])
		out[i] = rows[i].ToBinResponse()
		out[i].EstimatedKg = math.Round(collection.EstimateLoadKg(&bin, now)*10) / 10
		out[i].FillRatio = math.Round(collection.FillRatio(&bin, now)*1000) / 1000
	}
	return out, nil
}

func (p *RoutePlanner) resolveDay(day *string) (string, error) {
	if day == nil || *day == "" {
		return p.region.PlanDate(p.now()), nil
	}
	if _, err := time.Parse("2006-01-02", *day); err != nil {
		return "", collection.NewInvalidConstraintError("date", "must be YYYY-MM-DD")
	}
	return *day, nil
}

func (p *RoutePlanner) constraints(req OptimizeRequest) collection.Constraints {
	c := collection.Constraints{
		TruckCapacityKg:  p.region.TruckCapacityKg,
		TruckCount:       p.region.TruckCount,
		MaxDurationHours: p.region.MaxDurationHours,
		AvgSpeedKmh:      p.region.AvgSpeedKmh,
		Flags:            req.Flags,
	}

	if req.TruckCapacityKg != nil {
		c.TruckCapacityKg = *req.TruckCapacityKg
	}
	switch {
	case req.TruckCount != nil:
		c.TruckCount = *req.TruckCount
	case len(req.TruckIDs) > 0:
		c.TruckCount = len(req.TruckIDs)
	}
	if req.MaxDurationHours != nil {
		c.MaxDurationHours = *req.MaxDurationHours
	}
	if req.AvgSpeedKmh != nil {
		c.AvgSpeedKmh = *req.AvgSpeedKmh
	}

	return c
}

func (p *RoutePlanner) depot(ctx context.Context, serviceArea string) (collection.Location, error) {
	fallback := collection.Location{Latitude: p.region.DepotLatitude, Longitude: p.region.DepotLongitude}

	if p.depots == nil {
		return fallback, nil
	}

	depot, err := p.depots.GetDepot(ctx, serviceArea)
	if err != nil {
		return collection.Location{}, fmt.Errorf("failed to load depot: %w", err)
	}
	if depot == nil {
		log.Printf("⚠️  No depot configured for %s, using region default (%.5f, %.5f)",
			serviceArea, fallback.Latitude, fallback.Longitude)
		return fallback, nil
	}

	loc := collection.Location{Latitude: depot.Latitude, Longitude: depot.Longitude}
	if !loc.Valid() {
		return collection.Location{}, collection.NewInvalidConstraintError("depot", "has invalid coordinates")
	}
	return loc, nil
}

func (p *RoutePlanner) countHighPriority(bins []collection.Bin, now time.Time) int {
	n := 0
	for i := range bins {
		if bins[i].CapacityKg > 0 && collection.FillRatio(&bins[i], now) >= p.region.HighPriorityRatio {
			n++
		}
	}
	return n
}

// estimateTime is the instant fill is projected to: now for today or a past
// day, the start of the plan day in the region's zone for a future one
func (p *RoutePlanner) estimateTime(now time.Time, day string) time.Time {
	loc := p.region.Location
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil || !start.After(now) {
		return now
	}
	return start
}

// publish is best effort: a failed push never fails the run
func (p *RoutePlanner) publish(ctx context.Context, result *OptimizeResult) {
	if p.broadcaster != nil {
		for _, truckID := range result.RemovedTrucks {
			msg := map[string]interface{}{
				"type": "route_plan_removed",
				"data": map[string]interface{}{
					"service_area": result.ServiceArea,
					"sub_area":     models.PlanKey{SubArea: result.SubArea}.SubAreaValue(),
					"truck_id":     truckID,
					"plan_date":    result.PlanDate,
				},
			}
			p.broadcaster.BroadcastToRole(models.RoleAdmin, msg)
			p.broadcaster.BroadcastToTruck(truckID, msg)
		}
	}

	for i := range result.Plans {
		plan := &result.Plans[i]

		if p.broadcaster != nil {
			msg := map[string]interface{}{
				"type": "route_plan_updated",
				"data": plan,
			}
			p.broadcaster.BroadcastToRole(models.RoleAdmin, msg)
			p.broadcaster.BroadcastToTruck(plan.TruckID, msg)
		}

		if p.notifier != nil {
			if err := p.notifier.NotifyPlan(ctx, plan); err != nil {
				log.Printf("⚠️  Failed to notify truck %s: %v", plan.TruckID, err)
			}
		}
	}
}

// resolveTruckIDs names the trucks: explicit IDs first, then TRUCK-01, TRUCK-02...
func resolveTruckIDs(explicit []string, count int) ([]string, error) {
	if len(explicit) > count {
		return nil, collection.NewInvalidConstraintError("truck_ids", "more truck IDs than trucks")
	}

	ids := make([]string, 0, count)
	seen := make(map[string]bool, count)

	for _, id := range explicit {
		if id == "" {
			return nil, collection.NewInvalidConstraintError("truck_ids", "must not contain empty IDs")
		}
		if seen[id] {
			return nil, collection.NewInvalidConstraintError("truck_ids", "duplicate truck ID "+id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	for n := 1; len(ids) < count; n++ {
		id := fmt.Sprintf("TRUCK-%02d", n)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return ids, nil
}

func capacityUsedPct(loadKg int, capacityKg float64) float64 {
	if capacityKg <= 0 {
		return 0
	}
	return math.Round(float64(loadKg)/capacityKg*1000) / 10
}

func subAreaLabel(subArea *string) string {
	if subArea == nil {
		return "all"
	}
	return *subArea
}
