package services

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"binroute-backend/internal/models"
	"binroute-backend/internal/services/collection"
)

func newTestPlanner(bins []models.Bin) (*RoutePlanner, *fakePlans) {
	plans := newFakePlans()
	p := NewRoutePlanner(&fakeBins{bins: bins}, &fakeDepots{}, plans, testRegion())
	p.now = func() time.Time { return testNow }
	return p, plans
}

func threeBins() []models.Bin {
	yesterday := testNow.Add(-24 * time.Hour)
	return []models.Bin{
		northBin("bin-3", 3, 200, 100, yesterday),
		northBin("bin-1", 1, 200, 100, yesterday),
		northBin("bin-2", 2, 200, 100, yesterday),
	}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func TestOptimizeStoresOnePlanPerTruck(t *testing.T) {
	planner, plans := newTestPlanner(threeBins())
	broadcaster := newFakeBroadcaster()
	notifier := &fakeNotifier{}
	planner.WithBroadcaster(broadcaster).WithNotifier(notifier)

	result, err := planner.Optimize(context.Background(), OptimizeRequest{
		ServiceArea:     "central",
		TruckCapacityKg: floatPtr(250),
		TruckCount:      intPtr(2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PlanDate != "2026-03-02" {
		t.Fatalf("plan date = %s, want 2026-03-02", result.PlanDate)
	}
	if len(result.Plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(result.Plans))
	}
	if result.Candidates != 3 || result.Unassigned != 0 {
		t.Fatalf("candidates = %d unassigned = %d, want 3 and 0", result.Candidates, result.Unassigned)
	}

	first, second := result.Plans[0], result.Plans[1]
	if first.TruckID != "TRUCK-01" || second.TruckID != "TRUCK-02" {
		t.Fatalf("truck IDs = %s, %s", first.TruckID, second.TruckID)
	}
	if first.LoadKg != 200 || len(first.Stops) != 2 {
		t.Fatalf("first plan = %d kg / %d stops, want 200 kg / 2 stops", first.LoadKg, len(first.Stops))
	}
	if second.LoadKg != 100 || second.Stops[0].BinID != "bin-3" {
		t.Fatalf("second plan = %+v", second)
	}
	if first.Summary.CapacityUsedPct != 80 || second.Summary.CapacityUsedPct != 40 {
		t.Fatalf("capacity used = %v, %v", first.Summary.CapacityUsedPct, second.Summary.CapacityUsedPct)
	}
	if first.Summary.BinsConsidered != 3 || first.Summary.TruckCount != 2 {
		t.Fatalf("summary = %+v", first.Summary)
	}
	if first.Summary.ThresholdApplied != 0.2 {
		t.Fatalf("threshold = %v, want 0.2", first.Summary.ThresholdApplied)
	}

	if plans.upserts != 2 {
		t.Fatalf("upserts = %d, want 2", plans.upserts)
	}
	stored := plans.get("central", "TRUCK-01", "2026-03-02")
	if stored == nil || stored.ID != first.ID {
		t.Fatalf("stored plan = %+v", stored)
	}

	if len(broadcaster.byRole["admin"]) != 2 || len(broadcaster.byTruck["TRUCK-02"]) != 1 {
		t.Fatalf("broadcasts = %d admin, %d to TRUCK-02", len(broadcaster.byRole["admin"]), len(broadcaster.byTruck["TRUCK-02"]))
	}
	if !reflect.DeepEqual(notifier.notified, []string{"TRUCK-01", "TRUCK-02"}) {
		t.Fatalf("notified = %v", notifier.notified)
	}
}

func TestOptimizeRerunOverwritesSameKey(t *testing.T) {
	planner, plans := newTestPlanner(threeBins())
	req := OptimizeRequest{ServiceArea: "central", TruckIDs: []string{"T-7"}}

	first, err := planner.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := planner.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plans.plans) != 1 {
		t.Fatalf("stored %d plans, want 1", len(plans.plans))
	}
	if first.Plans[0].ID != second.Plans[0].ID {
		t.Fatalf("plan ID changed between runs: %s vs %s", first.Plans[0].ID, second.Plans[0].ID)
	}
	if first.Plans[0].TruckID != "T-7" {
		t.Fatalf("truck = %s, want T-7", first.Plans[0].TruckID)
	}
}

func TestOptimizeNoCandidatesStoresEmptyPlan(t *testing.T) {
	planner, plans := newTestPlanner(threeBins())

	result, err := planner.Optimize(context.Background(), OptimizeRequest{
		ServiceArea:   "central",
		BaseThreshold: floatPtr(0.95),
		TruckCount:    intPtr(3),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(result.Plans))
	}
	plan := result.Plans[0]
	if plan.TruckID != "TRUCK-01" || len(plan.Stops) != 0 || plan.LoadKg != 0 || plan.DistanceKm != 0 {
		t.Fatalf("plan = %+v, want the empty plan", plan)
	}
	if plan.Summary.ThresholdApplied != 0.9 {
		t.Fatalf("threshold = %v, want 0.9", plan.Summary.ThresholdApplied)
	}
	if plans.upserts != 1 {
		t.Fatalf("upserts = %d, want 1", plans.upserts)
	}
}

func TestOptimizeRejectsInvalidConstraints(t *testing.T) {
	tests := []struct {
		name string
		req  OptimizeRequest
	}{
		{"missing service area", OptimizeRequest{}},
		{"zero capacity", OptimizeRequest{ServiceArea: "central", TruckCapacityKg: floatPtr(0)}},
		{"no trucks", OptimizeRequest{ServiceArea: "central", TruckCount: intPtr(0)}},
		{"negative duration", OptimizeRequest{ServiceArea: "central", MaxDurationHours: floatPtr(-1)}},
		{"duplicate truck IDs", OptimizeRequest{ServiceArea: "central", TruckIDs: []string{"A", "A"}}},
		{"empty truck ID", OptimizeRequest{ServiceArea: "central", TruckIDs: []string{""}}},
		{"too many truck IDs", OptimizeRequest{ServiceArea: "central", TruckCount: intPtr(1), TruckIDs: []string{"A", "B"}}},
		{"bad date", OptimizeRequest{ServiceArea: "central", Date: strPtr("03/02/2026")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner, plans := newTestPlanner(threeBins())
			_, err := planner.Optimize(context.Background(), tt.req)
			if !errors.Is(err, collection.ErrInvalidConstraint) {
				t.Fatalf("error = %v, want ErrInvalidConstraint", err)
			}
			if plans.upserts != 0 {
				t.Fatalf("invalid request stored %d plans", plans.upserts)
			}
		})
	}
}

func TestOptimizeUsesStoredDepot(t *testing.T) {
	// Depot 10 km north of the bins puts bin-3 first
	lat := 10 * 180 / (math.Pi * 6371.0)
	planner, _ := newTestPlanner(threeBins())
	planner.depots = &fakeDepots{depot: &models.Depot{ServiceArea: "central", Latitude: lat}}

	result, err := planner.Optimize(context.Background(), OptimizeRequest{ServiceArea: "central"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Plans[0].Stops[0].BinID; got != "bin-3" {
		t.Fatalf("first stop = %s, want bin-3", got)
	}
}

func TestOptimizeDepotLookupFailure(t *testing.T) {
	planner, _ := newTestPlanner(threeBins())
	planner.depots = &fakeDepots{err: errors.New("connection refused")}

	if _, err := planner.Optimize(context.Background(), OptimizeRequest{ServiceArea: "central"}); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestOptimizeStoreFailureReturnsComputedPlans(t *testing.T) {
	planner, plans := newTestPlanner(threeBins())
	plans.upsertErr = errors.New("connection reset")
	notifier := &fakeNotifier{}
	planner.WithNotifier(notifier)

	result, err := planner.Optimize(context.Background(), OptimizeRequest{ServiceArea: "central"})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, plans.upsertErr) {
		t.Fatalf("error %v does not wrap the store error", err)
	}
	if result == nil || len(result.Plans) != 1 || len(result.Plans[0].Stops) != 3 {
		t.Fatalf("result = %+v, want the computed plan", result)
	}
	if len(notifier.notified) != 0 {
		t.Fatalf("notified %v after a failed run", notifier.notified)
	}
}

func TestOptimizeNotifierFailureIsIgnored(t *testing.T) {
	planner, _ := newTestPlanner(threeBins())
	planner.WithNotifier(&fakeNotifier{err: errors.New("fcm down")})

	if _, err := planner.Optimize(context.Background(), OptimizeRequest{ServiceArea: "central"}); err != nil {
		t.Fatalf("notifier failure leaked: %v", err)
	}
}

func TestOptimizeCountsHighPriorityBins(t *testing.T) {
	yesterday := testNow.Add(-24 * time.Hour)
	bins := []models.Bin{
		northBin("full", 1, 100, 90, yesterday),
		northBin("half", 2, 100, 50, yesterday),
		northBin("brim", 3, 100, 80, yesterday),
	}
	planner, _ := newTestPlanner(bins)

	result, err := planner.Optimize(context.Background(), OptimizeRequest{ServiceArea: "central"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Plans[0].Summary.HighPriorityBins; got != 2 {
		t.Fatalf("high priority = %d, want 2", got)
	}
}

func TestResolveTruckIDs(t *testing.T) {
	got, err := resolveTruckIDs([]string{"X", "TRUCK-01"}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"X", "TRUCK-01", "TRUCK-02", "TRUCK-03"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
}

func TestSnapshotAnnotatesEstimates(t *testing.T) {
	planner, _ := newTestPlanner(threeBins())

	bins, err := planner.Snapshot(context.Background(), "central", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bins) != 3 {
		t.Fatalf("got %d bins, want 3", len(bins))
	}
	for _, b := range bins {
		if b.EstimatedKg != 100 || b.FillRatio != 0.5 {
			t.Fatalf("bin %s estimate = %v / %v, want 100 / 0.5", b.ID, b.EstimatedKg, b.FillRatio)
		}
	}
}

func TestTodayPlanDefaultsToToday(t *testing.T) {
	planner, _ := newTestPlanner(threeBins())
	if _, err := planner.Optimize(context.Background(), OptimizeRequest{ServiceArea: "central"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plan, err := planner.TodayPlan(context.Background(), "central", "TRUCK-01", nil)
	if err != nil || plan == nil {
		t.Fatalf("plan = %v, err = %v", plan, err)
	}

	other, err := planner.TodayPlan(context.Background(), "central", "TRUCK-01", strPtr("2026-03-03"))
	if err != nil || other != nil {
		t.Fatalf("plan for another day = %v, err = %v", other, err)
	}
}

func TestOptimizeRegenerationRemovesStalePlans(t *testing.T) {
	planner, plans := newTestPlanner(threeBins())
	broadcaster := newFakeBroadcaster()
	planner.WithBroadcaster(broadcaster)
	ctx := context.Background()

	first, err := planner.Optimize(ctx, OptimizeRequest{
		ServiceArea:     "central",
		TruckCapacityKg: floatPtr(150),
		TruckCount:      intPtr(3),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Plans) != 3 {
		t.Fatalf("first run built %d plans, want 3", len(first.Plans))
	}

	second, err := planner.Optimize(ctx, OptimizeRequest{
		ServiceArea:     "central",
		TruckCapacityKg: floatPtr(1000),
		TruckCount:      intPtr(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(second.RemovedTrucks, []string{"TRUCK-02", "TRUCK-03"}) {
		t.Fatalf("removed = %v, want [TRUCK-02 TRUCK-03]", second.RemovedTrucks)
	}

	stored, err := planner.ListPlans(ctx, "central", strPtr("2026-03-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d plans after regeneration, want 1", len(stored))
	}

	onPlans := make(map[string][]string)
	for _, plan := range stored {
		for _, stop := range plan.Stops {
			onPlans[stop.BinID] = append(onPlans[stop.BinID], plan.TruckID)
		}
	}
	for _, id := range []string{"bin-1", "bin-2", "bin-3"} {
		if len(onPlans[id]) != 1 {
			t.Fatalf("bin %s on plans %v, want exactly one", id, onPlans[id])
		}
	}

	if plan, _ := planner.TodayPlan(ctx, "central", "TRUCK-02", nil); plan != nil {
		t.Fatalf("TRUCK-02 still has a plan: %+v", plan)
	}

	msgs := broadcaster.byTruck["TRUCK-02"]
	last, _ := msgs[len(msgs)-1].(map[string]interface{})
	if last["type"] != "route_plan_removed" {
		t.Fatalf("last TRUCK-02 message = %v, want route_plan_removed", last)
	}
	if plans.get("central", "TRUCK-01", "2026-03-02") == nil {
		t.Fatalf("TRUCK-01 plan missing")
	}
}

func TestOptimizePruneIsScopedToSubArea(t *testing.T) {
	planner, _ := newTestPlanner(threeBins())
	ctx := context.Background()

	if _, err := planner.Optimize(ctx, OptimizeRequest{
		ServiceArea:     "central",
		TruckCapacityKg: floatPtr(150),
		TruckCount:      intPtr(3),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No bin is in sub-area north, so this run stores one empty plan there
	result, err := planner.Optimize(ctx, OptimizeRequest{ServiceArea: "central", SubArea: strPtr("north")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.RemovedTrucks) != 0 {
		t.Fatalf("removed %v from another sub-area", result.RemovedTrucks)
	}

	stored, err := planner.ListPlans(ctx, "central", strPtr("2026-03-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("stored %d plans, want 4", len(stored))
	}
}

func TestOptimizePruneFailureReturnsComputedPlans(t *testing.T) {
	planner, plans := newTestPlanner(threeBins())
	plans.pruneErr = errors.New("connection reset")

	result, err := planner.Optimize(context.Background(), OptimizeRequest{ServiceArea: "central"})
	if !errors.Is(err, plans.pruneErr) {
		t.Fatalf("error = %v, want the prune error", err)
	}
	if result == nil || len(result.Plans) != 1 {
		t.Fatalf("result = %+v, want the computed plan", result)
	}
}

func TestOptimizeFutureDayEstimatesAtStartOfDay(t *testing.T) {
	// Each bin holds 100 of 200 kg at testNow and gains 100 kg a day
	planner, _ := newTestPlanner(threeBins())
	ctx := context.Background()

	today, err := planner.Optimize(ctx, OptimizeRequest{ServiceArea: "central", BaseThreshold: floatPtr(0.6)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if today.Candidates != 0 || today.FillEstimatedAt != testNow.Unix() {
		t.Fatalf("today: candidates = %d, estimated at %d", today.Candidates, today.FillEstimatedAt)
	}

	future, err := planner.Optimize(ctx, OptimizeRequest{
		ServiceArea:   "central",
		BaseThreshold: floatPtr(0.6),
		Date:          strPtr("2026-03-04"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if future.FillEstimatedAt != start.Unix() {
		t.Fatalf("estimated at %d, want %d", future.FillEstimatedAt, start.Unix())
	}
	if future.Candidates != 3 || len(future.Plans[0].Stops) != 3 {
		t.Fatalf("future run: candidates = %d, stops = %d, want 3 and 3", future.Candidates, len(future.Plans[0].Stops))
	}

	past, err := planner.Optimize(ctx, OptimizeRequest{
		ServiceArea:   "central",
		BaseThreshold: floatPtr(0.6),
		Date:          strPtr("2026-02-20"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if past.FillEstimatedAt != testNow.Unix() || past.Candidates != 0 {
		t.Fatalf("past run: candidates = %d, estimated at %d", past.Candidates, past.FillEstimatedAt)
	}
}
