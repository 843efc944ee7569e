package database

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔌 DATABASE CONNECTION ATTEMPT")
	log.Printf("   📍 Database URL length: %d characters", len(dbURL))
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Printf("❌ DATABASE CONNECTION FAILED AT sqlx.Connect(): %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Printf("❌ DATABASE CONNECTION FAILED AT Ping(): %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	log.Println("✅ DATABASE CONNECTION SUCCESSFUL")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('driver', 'admin')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create depots table (one depot per service area)
		`CREATE TABLE IF NOT EXISTS depots (
			service_area TEXT PRIMARY KEY,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			address TEXT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create bins table
		`CREATE TABLE IF NOT EXISTS bins (
			id TEXT PRIMARY KEY,
			service_area TEXT NOT NULL,
			sub_area TEXT,
			street TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			capacity_kg DOUBLE PRECISION NOT NULL,
			est_rate_kg_per_day DOUBLE PRECISION,
			last_pickup BIGINT,
			bin_type TEXT NOT NULL DEFAULT 'residential' CHECK(bin_type IN ('residential', 'commercial')),
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'retired')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bins_service_area ON bins(service_area, sub_area)`,

		// Create route_plans table (one row per area, sub-area, truck and day)
		`CREATE TABLE IF NOT EXISTS route_plans (
			id TEXT PRIMARY KEY,
			service_area TEXT NOT NULL,
			sub_area TEXT NOT NULL DEFAULT '',
			truck_id TEXT NOT NULL,
			plan_date TEXT NOT NULL,
			stops JSONB NOT NULL DEFAULT '[]'::jsonb,
			load_kg INT NOT NULL DEFAULT 0,
			distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
			summary JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			UNIQUE(service_area, sub_area, truck_id, plan_date),
			CHECK (load_kg >= 0)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_route_plans_truck_day ON route_plans(truck_id, plan_date)`,

		// Create collection_events table (append-only audit of field pickups)
		`CREATE TABLE IF NOT EXISTS collection_events (
			id TEXT PRIMARY KEY,
			bin_id TEXT NOT NULL,
			truck_id TEXT NOT NULL,
			plan_date TEXT NOT NULL,
			notes TEXT,
			collected_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (bin_id) REFERENCES bins(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_collection_events_bin_id ON collection_events(bin_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}

// Store implements the routing and completion ports on top of Postgres
type Store struct {
	db           *sqlx.DB
	maxAttempts  int
	retryBackoff time.Duration
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:           db,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
}
