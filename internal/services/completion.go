package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"binroute-backend/internal/config"
	"binroute-backend/internal/models"
	"binroute-backend/internal/services/collection"
)

// Completion sub-writes
const (
	WriteCollectionEvent = "collection_event"
	WriteStopVisited     = "stop_visited"
	WriteLastPickup      = "last_pickup"
)

// CompletionInput is one field report that a bin was emptied
type CompletionInput struct {
	BinID     string
	TruckID   string
	Timestamp time.Time
	Notes     *string
}

type CompletionResult struct {
	EventID       string `json:"event_id"`
	PlanDate      string `json:"plan_date"`
	EventRecorded bool   `json:"event_recorded"`
	StopVisited   bool   `json:"stop_visited"` // false when the bin is on no plan of the truck
	PickupUpdated bool   `json:"pickup_updated"`
}

// PartialCompletionError lists the sub-writes that failed. The others were applied.
type PartialCompletionError struct {
	Failures map[string]error
}

func (e *PartialCompletionError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %v", name, e.Failures[name])
	}
	return "completion partially failed: " + strings.Join(parts, "; ")
}

func (e *PartialCompletionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		errs = append(errs, err)
	}
	return errs
}

// AllFailed reports whether none of the three writes was applied
func (e *PartialCompletionError) AllFailed() bool {
	return len(e.Failures) == 3
}

// CompletionRecorder closes the loop between the field and the plans
type CompletionRecorder struct {
	events      EventStore
	plans       PlanStore
	pickups     PickupRecorder
	broadcaster EventBroadcaster
	region      config.RegionConfig
}

func NewCompletionRecorder(events EventStore, plans PlanStore, pickups PickupRecorder, region config.RegionConfig) *CompletionRecorder {
	return &CompletionRecorder{
		events:  events,
		plans:   plans,
		pickups: pickups,
		region:  region,
	}
}

// WithBroadcaster enables live stop_completed updates for connected dispatchers
func (c *CompletionRecorder) WithBroadcaster(b EventBroadcaster) *CompletionRecorder {
	c.broadcaster = b
	return c
}

// RecordCompletion applies the collection event, the visited flag and the
// last-pickup update independently. Every write is idempotent, so the driver
// app can resend a report until it sees a full success.
func (c *CompletionRecorder) RecordCompletion(ctx context.Context, in CompletionInput) (*CompletionResult, error) {
	if in.BinID == "" {
		return nil, collection.NewInvalidConstraintError("bin_id", "is required")
	}
	if in.TruckID == "" {
		return nil, collection.NewInvalidConstraintError("truck_id", "is required")
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}

	day := c.region.PlanDate(in.Timestamp)
	result := &CompletionResult{
		EventID:  models.CollectionEventID(in.BinID, in.TruckID, day),
		PlanDate: day,
	}
	failures := make(map[string]error)

	event := &models.CollectionEvent{
		ID:          result.EventID,
		BinID:       in.BinID,
		TruckID:     in.TruckID,
		PlanDate:    day,
		Notes:       in.Notes,
		CollectedAt: in.Timestamp.Unix(),
	}
	if err := c.events.AppendCollectionEvent(ctx, event); err != nil {
		failures[WriteCollectionEvent] = err
	} else {
		result.EventRecorded = true
	}

	found, err := c.plans.MarkStopVisited(ctx, in.TruckID, day, in.BinID)
	if err != nil {
		failures[WriteStopVisited] = err
	} else {
		result.StopVisited = found
		if !found {
			log.Printf("⚠️  Bin %s is not on any plan of %s for %s", in.BinID, in.TruckID, day)
		}
	}

	if err := c.pickups.UpdateLastPickup(ctx, in.BinID, in.Timestamp.Unix()); err != nil {
		failures[WriteLastPickup] = err
	} else {
		result.PickupUpdated = true
	}

	if len(failures) < 3 && c.broadcaster != nil {
		c.broadcaster.BroadcastToRole(models.RoleAdmin, map[string]interface{}{
			"type": "stop_completed",
			"data": map[string]interface{}{
				"bin_id":       in.BinID,
				"truck_id":     in.TruckID,
				"plan_date":    day,
				"collected_at": in.Timestamp.Unix(),
			},
		})
	}

	if len(failures) > 0 {
		perr := &PartialCompletionError{Failures: failures}
		log.Printf("❌ %v", perr)
		return result, perr
	}

	log.Printf("✅ Bin %s collected by %s on %s", in.BinID, in.TruckID, day)
	return result, nil
}
