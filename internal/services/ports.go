package services

import (
	"context"

	"binroute-backend/internal/models"
)

// BinSource supplies the catalog of bins in a service area
type BinSource interface {
	ListBins(ctx context.Context, serviceArea string, subArea *string) ([]models.Bin, error)
}

// DepotSource returns nil, nil when the service area has no configured depot
type DepotSource interface {
	GetDepot(ctx context.Context, serviceArea string) (*models.Depot, error)
}

// PlanStore persists daily plans keyed by (service area, sub-area, truck, day)
type PlanStore interface {
	UpsertPlan(ctx context.Context, plan *models.RoutePlan) error
	GetPlan(ctx context.Context, serviceArea, truckID, day string) (*models.RoutePlan, error)
	ListPlans(ctx context.Context, serviceArea, day string) ([]models.RoutePlan, error)
	// PrunePlans removes the day's plans in the area and sub-area for trucks not in keep
	PrunePlans(ctx context.Context, serviceArea string, subArea *string, day string, keep []string) ([]string, error)
	MarkStopVisited(ctx context.Context, truckID, day, binID string) (bool, error)
}

type EventStore interface {
	AppendCollectionEvent(ctx context.Context, event *models.CollectionEvent) error
}

type PickupRecorder interface {
	UpdateLastPickup(ctx context.Context, binID string, ts int64) error
}

// PlanNotifier pushes a plan to the truck's devices
type PlanNotifier interface {
	NotifyPlan(ctx context.Context, plan *models.RoutePlan) error
}

// EventBroadcaster fans live updates out to connected clients
type EventBroadcaster interface {
	BroadcastToRole(role string, data interface{})
	BroadcastToTruck(truckID string, data interface{})
}
