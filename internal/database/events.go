package database

import (
	"context"
	"time"

	"binroute-backend/internal/models"
)

// AppendCollectionEvent stores a pickup record. Replaying the same event is a no-op.
func (s *Store) AppendCollectionEvent(ctx context.Context, event *models.CollectionEvent) error {
	if event.ID == "" {
		event.ID = models.CollectionEventID(event.BinID, event.TruckID, event.PlanDate)
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO collection_events (id, bin_id, truck_id, plan_date, notes, collected_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		_, err := s.db.ExecContext(ctx, query,
			event.ID, event.BinID, event.TruckID, event.PlanDate, event.Notes, event.CollectedAt, event.CreatedAt)
		return err
	})
	return wrap("append collection event", err)
}

// ListCollectionEvents returns the pickups reported for a bin, newest first
func (s *Store) ListCollectionEvents(ctx context.Context, binID string) ([]models.CollectionEvent, error) {
	var events []models.CollectionEvent
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		events = nil
		return s.db.SelectContext(ctx, &events,
			`SELECT * FROM collection_events WHERE bin_id = $1 ORDER BY collected_at DESC`, binID)
	})
	if err != nil {
		return nil, wrap("list collection events", err)
	}
	if events == nil {
		events = []models.CollectionEvent{}
	}
	return events, nil
}
