package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds everything the server reads from the environment
type Config struct {
	Port                      string
	DatabaseURL               string
	JWTSecret                 string
	FirebaseCredentialsFile   string
	FirebaseCredentialsBase64 string
	SeedBinsPath              string
	Region                    RegionConfig
}

// RegionConfig carries the per-deployment routing defaults.
// They are resolved once at startup and passed down explicitly.
type RegionConfig struct {
	DefaultServiceArea string
	DepotLatitude      float64
	DepotLongitude     float64
	TruckCapacityKg    float64
	TruckCount         int
	BaseThreshold      float64
	AvgSpeedKmh        float64
	MaxDurationHours   float64
	HighPriorityRatio  float64
	TimeZone           string
	Location           *time.Location
}

// Load reads configuration from the environment. godotenv should already have run.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                      getEnv("PORT", "8080"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		JWTSecret:                 os.Getenv("APP_JWT_SECRET"),
		FirebaseCredentialsFile:   getEnv("FIREBASE_CREDENTIALS_FILE", "./firebase-service-account.json"),
		FirebaseCredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
		SeedBinsPath:              os.Getenv("SEED_BINS_PATH"),
	}

	region, err := LoadRegion()
	if err != nil {
		return nil, err
	}
	cfg.Region = region

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("APP_JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// LoadRegion reads the routing defaults
func LoadRegion() (RegionConfig, error) {
	var err error
	r := RegionConfig{
		DefaultServiceArea: getEnv("REGION_DEFAULT_SERVICE_AREA", "central"),
		TimeZone:           getEnv("REGION_TIME_ZONE", "UTC"),
	}

	if r.DepotLatitude, err = getFloat("REGION_DEPOT_LAT", 0); err != nil {
		return r, err
	}
	if r.DepotLongitude, err = getFloat("REGION_DEPOT_LNG", 0); err != nil {
		return r, err
	}
	if r.TruckCapacityKg, err = getFloat("REGION_TRUCK_CAPACITY_KG", 1000); err != nil {
		return r, err
	}
	if r.TruckCount, err = getInt("REGION_TRUCK_COUNT", 1); err != nil {
		return r, err
	}
	if r.BaseThreshold, err = getFloat("REGION_BASE_THRESHOLD", 0.2); err != nil {
		return r, err
	}
	if r.AvgSpeedKmh, err = getFloat("REGION_AVG_SPEED_KMH", 25); err != nil {
		return r, err
	}
	if r.MaxDurationHours, err = getFloat("REGION_MAX_DURATION_HOURS", 0); err != nil {
		return r, err
	}
	if r.HighPriorityRatio, err = getFloat("REGION_HIGH_PRIORITY_RATIO", 0.8); err != nil {
		return r, err
	}

	r.Location, err = time.LoadLocation(r.TimeZone)
	if err != nil {
		return r, fmt.Errorf("invalid REGION_TIME_ZONE %q: %w", r.TimeZone, err)
	}

	log.Printf("🗺️  Region defaults: area=%s depot=(%.5f, %.5f) capacity=%.0fkg trucks=%d tz=%s",
		r.DefaultServiceArea, r.DepotLatitude, r.DepotLongitude, r.TruckCapacityKg, r.TruckCount, r.TimeZone)

	return r, nil
}

// PlanDate formats t as the calendar day in the region's time zone
func (r RegionConfig) PlanDate(t time.Time) string {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return i, nil
}
