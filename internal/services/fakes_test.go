package services

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"binroute-backend/internal/config"
	"binroute-backend/internal/models"
)

var testNow = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

func testRegion() config.RegionConfig {
	return config.RegionConfig{
		DefaultServiceArea: "central",
		TruckCapacityKg:    1000,
		TruckCount:         1,
		BaseThreshold:      0.2,
		AvgSpeedKmh:        25,
		HighPriorityRatio:  0.8,
		TimeZone:           "UTC",
		Location:           time.UTC,
	}
}

// northBin places a bin km kilometers north of (0, 0)
func northBin(id string, km, capacity, rate float64, pickedUp time.Time) models.Bin {
	lat := km * 180 / (math.Pi * 6371.0)
	lng := 0.0
	pickup := pickedUp.Unix()
	return models.Bin{
		ID:              id,
		ServiceArea:     "central",
		Latitude:        &lat,
		Longitude:       &lng,
		CapacityKg:      capacity,
		EstRateKgPerDay: &rate,
		LastPickup:      &pickup,
		BinType:         models.BinTypeResidential,
		Status:          models.BinStatusActive,
	}
}

type fakeBins struct {
	bins []models.Bin
	err  error
}

func (f *fakeBins) ListBins(ctx context.Context, serviceArea string, subArea *string) ([]models.Bin, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Bin
	for _, b := range f.bins {
		if b.ServiceArea != serviceArea {
			continue
		}
		if subArea != nil && (b.SubArea == nil || *b.SubArea != *subArea) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type fakeDepots struct {
	depot *models.Depot
	err   error
}

func (f *fakeDepots) GetDepot(ctx context.Context, serviceArea string) (*models.Depot, error) {
	return f.depot, f.err
}

type fakePlans struct {
	mu        sync.Mutex
	plans     map[string]models.RoutePlan
	upserts   int
	upsertErr error
	markErr   error
	pruneErr  error
}

func newFakePlans() *fakePlans {
	return &fakePlans{plans: make(map[string]models.RoutePlan)}
}

func (f *fakePlans) UpsertPlan(ctx context.Context, plan *models.RoutePlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	stored := *plan
	stored.Stops = append(models.Stops(nil), plan.Stops...)
	f.plans[plan.Key().ID()] = stored
	return nil
}

func (f *fakePlans) GetPlan(ctx context.Context, serviceArea, truckID, day string) (*models.RoutePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.plans {
		if p.ServiceArea == serviceArea && p.TruckID == truckID && p.PlanDate == day {
			plan := p
			return &plan, nil
		}
	}
	return nil, nil
}

func (f *fakePlans) ListPlans(ctx context.Context, serviceArea, day string) ([]models.RoutePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.RoutePlan{}
	for _, p := range f.plans {
		if p.ServiceArea == serviceArea && p.PlanDate == day {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlans) PrunePlans(ctx context.Context, serviceArea string, subArea *string, day string, keep []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pruneErr != nil {
		return nil, f.pruneErr
	}
	sub := models.PlanKey{SubArea: subArea}.SubAreaValue()
	var removed []string
	for k, p := range f.plans {
		if p.ServiceArea != serviceArea || p.SubArea != sub || p.PlanDate != day || slices.Contains(keep, p.TruckID) {
			continue
		}
		delete(f.plans, k)
		removed = append(removed, p.TruckID)
	}
	slices.Sort(removed)
	return removed, nil
}

func (f *fakePlans) MarkStopVisited(ctx context.Context, truckID, day, binID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	for k, p := range f.plans {
		if p.TruckID != truckID || p.PlanDate != day {
			continue
		}
		if p.MarkVisited(binID) {
			f.plans[k] = p
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePlans) get(serviceArea, truckID, day string) *models.RoutePlan {
	p, _ := f.GetPlan(context.Background(), serviceArea, truckID, day)
	return p
}

type fakeEvents struct {
	mu     sync.Mutex
	events map[string]models.CollectionEvent
	err    error
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[string]models.CollectionEvent)}
}

func (f *fakeEvents) AppendCollectionEvent(ctx context.Context, event *models.CollectionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.events[event.ID]; !ok {
		f.events[event.ID] = *event
	}
	return nil
}

type fakePickups struct {
	mu   sync.Mutex
	last map[string]int64
	err  error
}

func newFakePickups() *fakePickups {
	return &fakePickups{last: make(map[string]int64)}
}

func (f *fakePickups) UpdateLastPickup(ctx context.Context, binID string, ts int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if ts > f.last[binID] {
		f.last[binID] = ts
	}
	return nil
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	byRole  map[string][]interface{}
	byTruck map[string][]interface{}
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		byRole:  make(map[string][]interface{}),
		byTruck: make(map[string][]interface{}),
	}
}

func (f *fakeBroadcaster) BroadcastToRole(role string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byRole[role] = append(f.byRole[role], data)
}

func (f *fakeBroadcaster) BroadcastToTruck(truckID string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byTruck[truckID] = append(f.byTruck[truckID], data)
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
	err      error
}

func (f *fakeNotifier) NotifyPlan(ctx context.Context, plan *models.RoutePlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, plan.TruckID)
	return f.err
}
