package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"binroute-backend/internal/models"

	"github.com/lib/pq"
)

// ErrNotFound is returned when an update targets a row that does not exist
var ErrNotFound = errors.New("not found")

// UpsertPlan writes one plan row per (service_area, sub_area, truck_id, plan_date).
// Regenerating a plan overwrites its stops, aggregates and summary.
func (s *Store) UpsertPlan(ctx context.Context, plan *models.RoutePlan) error {
	if plan.ID == "" {
		plan.ID = plan.Key().ID()
	}
	if plan.Stops == nil {
		plan.Stops = models.Stops{}
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO route_plans (
			id, service_area, sub_area, truck_id, plan_date,
			stops, load_kg, distance_km, summary, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (service_area, sub_area, truck_id, plan_date) DO UPDATE SET
			stops = EXCLUDED.stops,
			load_kg = EXCLUDED.load_kg,
			distance_km = EXCLUDED.distance_km,
			summary = EXCLUDED.summary,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		return s.db.QueryRowxContext(ctx, query,
			plan.ID, plan.ServiceArea, plan.SubArea, plan.TruckID, plan.PlanDate,
			plan.Stops, plan.LoadKg, plan.DistanceKm, plan.Summary, now,
		).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	})
	if err != nil {
		return wrap(fmt.Sprintf("upsert plan %s/%s/%s", plan.ServiceArea, plan.TruckID, plan.PlanDate), err)
	}

	return nil
}

// GetPlan returns a truck's plan for a day in a service area, or nil when there is none.
// When the truck has plans in several sub-areas the most recently written one wins.
func (s *Store) GetPlan(ctx context.Context, serviceArea, truckID, day string) (*models.RoutePlan, error) {
	query := `SELECT * FROM route_plans
	          WHERE service_area = $1 AND truck_id = $2 AND plan_date = $3
	          ORDER BY updated_at DESC
	          LIMIT 1`

	var plan models.RoutePlan
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		return s.db.GetContext(ctx, &plan, query, serviceArea, truckID, day)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get plan", err)
	}

	return &plan, nil
}

// ListPlans returns every plan of a service area for a day ordered by sub-area and truck
func (s *Store) ListPlans(ctx context.Context, serviceArea, day string) ([]models.RoutePlan, error) {
	query := `SELECT * FROM route_plans
	          WHERE service_area = $1 AND plan_date = $2
	          ORDER BY sub_area ASC, truck_id ASC`

	var plans []models.RoutePlan
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		plans = nil
		return s.db.SelectContext(ctx, &plans, query, serviceArea, day)
	})
	if err != nil {
		return nil, wrap("list plans", err)
	}

	if plans == nil {
		plans = []models.RoutePlan{}
	}
	return plans, nil
}

// PrunePlans deletes the day's plans of an area and sub-area whose truck is not
// in keep, and returns the trucks whose plans were removed.
func (s *Store) PrunePlans(ctx context.Context, serviceArea string, subArea *string, day string, keep []string) ([]string, error) {
	key := models.PlanKey{ServiceArea: serviceArea, SubArea: subArea, PlanDate: day}
	query := `DELETE FROM route_plans
	          WHERE service_area = $1 AND sub_area = $2 AND plan_date = $3
	            AND NOT (truck_id = ANY($4))
	          RETURNING truck_id`

	var removed []string
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		removed = nil
		return s.db.SelectContext(ctx, &removed, query, serviceArea, key.SubAreaValue(), day, pq.Array(keep))
	})
	if err != nil {
		return nil, wrap("prune plans", err)
	}

	return removed, nil
}

// MarkStopVisited flags the bin's stop as visited on the truck's plan for the day.
// It reports false when no plan of that truck and day contains the bin.
func (s *Store) MarkStopVisited(ctx context.Context, truckID, day, binID string) (bool, error) {
	containment, err := json.Marshal([]map[string]string{{"bin_id": binID}})
	if err != nil {
		return false, fmt.Errorf("mark stop visited: %w", err)
	}

	var found bool
	err = withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		found = false

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var plan models.RoutePlan
		err = tx.GetContext(ctx, &plan, `
			SELECT * FROM route_plans
			WHERE truck_id = $1 AND plan_date = $2 AND stops @> $3::jsonb
			ORDER BY updated_at DESC
			LIMIT 1
			FOR UPDATE
		`, truckID, day, string(containment))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		plan.MarkVisited(binID)
		if _, err := tx.ExecContext(ctx,
			`UPDATE route_plans SET stops = $1, updated_at = $2 WHERE id = $3`,
			plan.Stops, time.Now().Unix(), plan.ID,
		); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, wrap("mark stop visited", err)
	}

	return found, nil
}
