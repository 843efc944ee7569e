package database

import (
	"context"
	"fmt"
	"time"

	"binroute-backend/internal/models"
)

// ListBins returns the active bins of a service area, optionally narrowed to one sub-area
func (s *Store) ListBins(ctx context.Context, serviceArea string, subArea *string) ([]models.Bin, error) {
	query := `SELECT * FROM bins
	          WHERE service_area = $1 AND status = 'active'`
	args := []interface{}{serviceArea}

	if subArea != nil {
		query += " AND sub_area = $2"
		args = append(args, *subArea)
	}
	query += " ORDER BY id ASC"

	var bins []models.Bin
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		bins = nil
		return s.db.SelectContext(ctx, &bins, query, args...)
	})
	if err != nil {
		return nil, wrap("list bins", err)
	}

	return bins, nil
}

// UpdateLastPickup records a pickup time. last_pickup never moves backwards, so a
// late retry of an older report cannot undo a newer one.
func (s *Store) UpdateLastPickup(ctx context.Context, binID string, ts int64) error {
	query := `UPDATE bins
	          SET last_pickup = GREATEST(COALESCE(last_pickup, 0), $1),
	              updated_at = $2
	          WHERE id = $3`

	var affected int64
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		res, err := s.db.ExecContext(ctx, query, ts, time.Now().Unix(), binID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return wrap("update last pickup", err)
	}

	if affected == 0 {
		return fmt.Errorf("update last pickup: bin %s: %w", binID, ErrNotFound)
	}

	return nil
}

// UpsertBin inserts or replaces a catalog entry, keeping the recorded last pickup
func (s *Store) UpsertBin(ctx context.Context, bin *models.Bin) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO bins (
			id, service_area, sub_area, street, latitude, longitude,
			capacity_kg, est_rate_kg_per_day, last_pickup, bin_type, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (id) DO UPDATE SET
			service_area = EXCLUDED.service_area,
			sub_area = EXCLUDED.sub_area,
			street = EXCLUDED.street,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			capacity_kg = EXCLUDED.capacity_kg,
			est_rate_kg_per_day = EXCLUDED.est_rate_kg_per_day,
			last_pickup = GREATEST(bins.last_pickup, EXCLUDED.last_pickup),
			bin_type = EXCLUDED.bin_type,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	binType := bin.BinType
	if binType == "" {
		binType = models.BinTypeResidential
	}
	status := bin.Status
	if status == "" {
		status = models.BinStatusActive
	}

	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		_, err := s.db.ExecContext(ctx, query,
			bin.ID, bin.ServiceArea, bin.SubArea, bin.Street, bin.Latitude, bin.Longitude,
			bin.CapacityKg, bin.EstRateKgPerDay, bin.LastPickup, binType, status,
			now,
		)
		return err
	})
	return wrap("upsert bin", err)
}
