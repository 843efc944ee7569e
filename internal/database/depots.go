package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"binroute-backend/internal/models"
)

// GetDepot returns the depot of a service area, or nil when none is configured
func (s *Store) GetDepot(ctx context.Context, serviceArea string) (*models.Depot, error) {
	var depot models.Depot
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		return s.db.GetContext(ctx, &depot, `SELECT * FROM depots WHERE service_area = $1`, serviceArea)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get depot", err)
	}
	return &depot, nil
}

// UpsertDepot sets the depot location of a service area
func (s *Store) UpsertDepot(ctx context.Context, depot *models.Depot) error {
	query := `
		INSERT INTO depots (service_area, latitude, longitude, address, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (service_area) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at
	`
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		_, err := s.db.ExecContext(ctx, query,
			depot.ServiceArea, depot.Latitude, depot.Longitude, depot.Address, time.Now().Unix())
		return err
	})
	return wrap("upsert depot", err)
}
