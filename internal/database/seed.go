package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"binroute-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// SeedFile is the JSON layout accepted by LoadSeedFile
type SeedFile struct {
	Depots []models.Depot `json:"depots"`
	Bins   []models.Bin   `json:"bins"`
}

type demoBin struct {
	id       string
	subArea  string
	street   string
	lat, lng float64
	binType  string
	daysAgo  int
}

// Demo service area around downtown San Jose
var demoBins = []demoBin{
	{"SJ-001", "downtown", "325 S 1st St", 37.3329, -121.8866, "commercial", 4},
	{"SJ-002", "downtown", "200 E Santa Clara St", 37.3361, -121.8869, "residential", 6},
	{"SJ-003", "downtown", "151 W Mission St", 37.3343, -121.8936, "residential", 2},
	{"SJ-004", "downtown", "408 Almaden Blvd", 37.3313, -121.8917, "residential", 8},
	{"SJ-005", "downtown", "180 Park Ave", 37.3351, -121.8894, "residential", 1},
	{"SJ-006", "downtown", "72 N Almaden Ave", 37.3352, -121.8931, "commercial", 7},
	{"SJ-007", "downtown", "345 E Santa Clara St", 37.3357, -121.8826, "residential", 5},
	{"SJ-008", "downtown", "99 S Market St", 37.3339, -121.8905, "residential", 3},
	{"SJ-009", "downtown", "201 S 2nd St", 37.3326, -121.8863, "residential", 9},
	{"SJ-010", "downtown", "150 S 1st St", 37.3344, -121.8877, "residential", 1},
	{"SJ-011", "downtown", "88 W San Carlos St", 37.3307, -121.8901, "commercial", 8},
	{"SJ-012", "downtown", "250 S 3rd St", 37.3311, -121.8842, "residential", 4},
	{"SJ-013", "downtown", "123 N 4th St", 37.3389, -121.8822, "residential", 6},
	{"SJ-014", "downtown", "456 W San Fernando St", 37.3323, -121.8955, "residential", 2},
	{"SJ-015", "north", "789 E Julian St", 37.3442, -121.8793, "residential", 7},
	{"SJ-016", "north", "321 N 1st St", 37.3423, -121.8878, "commercial", 3},
	{"SJ-017", "north", "654 E St John St", 37.3473, -121.8786, "residential", 9},
	{"SJ-018", "downtown", "147 S 4th St", 37.3341, -121.8828, "residential", 1},
	{"SJ-019", "downtown", "258 W St James St", 37.3385, -121.8972, "residential", 8},
	{"SJ-020", "downtown", "369 E San Salvador St", 37.3289, -121.8816, "residential", 5},
	{"SJ-021", "downtown", "741 S 5th St", 37.3267, -121.8807, "commercial", 4},
	{"SJ-022", "north", "852 N 6th St", 37.3512, -121.8789, "residential", 7},
	{"SJ-023", "north", "963 E Empire St", 37.3531, -121.8771, "residential", 3},
	{"SJ-024", "downtown", "159 S 7th St", 37.3336, -121.8774, "residential", 6},
}

const (
	demoServiceArea = "central"
	demoCapacityKg  = 240.0
)

// SeedBins fills an empty catalog with the demo service area and its depot
func SeedBins(ctx context.Context, store *Store) error {
	var count int
	if err := store.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM bins"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Bins already seeded, skipping...")
		return nil
	}

	log.Printf("🌱 Seeding %d bins...", len(demoBins))

	address := "1608 Las Plumas Ave, San Jose"
	if err := store.UpsertDepot(ctx, &models.Depot{
		ServiceArea: demoServiceArea,
		Latitude:    37.3559,
		Longitude:   -121.8537,
		Address:     &address,
	}); err != nil {
		return err
	}

	now := time.Now()
	for i, d := range demoBins {
		lat, lng := d.lat, d.lng
		subArea := d.subArea
		lastPickup := now.AddDate(0, 0, -d.daysAgo).Unix()
		rate := 8.0 + float64(i%4)*4

		bin := models.Bin{
			ID:              d.id,
			ServiceArea:     demoServiceArea,
			SubArea:         &subArea,
			Street:          d.street,
			Latitude:        &lat,
			Longitude:       &lng,
			CapacityKg:      demoCapacityKg,
			EstRateKgPerDay: &rate,
			LastPickup:      &lastPickup,
			BinType:         d.binType,
			Status:          models.BinStatusActive,
		}
		if err := store.UpsertBin(ctx, &bin); err != nil {
			return err
		}
	}

	log.Printf("✓ Successfully seeded %d bins", len(demoBins))
	return nil
}

// LoadSeedFile upserts the depots and bins listed in a JSON seed file
func LoadSeedFile(ctx context.Context, store *Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range seed.Depots {
		if err := store.UpsertDepot(ctx, &seed.Depots[i]); err != nil {
			return err
		}
	}
	for i := range seed.Bins {
		if seed.Bins[i].ID == "" || seed.Bins[i].ServiceArea == "" {
			return fmt.Errorf("seed bin %d: id and service_area are required", i)
		}
		if err := store.UpsertBin(ctx, &seed.Bins[i]); err != nil {
			return err
		}
	}

	log.Printf("✓ Loaded %d depots and %d bins from %s", len(seed.Depots), len(seed.Bins), path)
	return nil
}

func SeedUsers(db *sqlx.DB) error {
	// Check if users already exist
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding test users...")

	// Hash passwords
	driverPassword, err := bcrypt.GenerateFromPassword([]byte("driver123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	dispatcherPassword, err := bcrypt.GenerateFromPassword([]byte("dispatch123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []map[string]interface{}{
		{
			"id":       uuid.New().String(),
			"email":    "driver@binroute.dev",
			"password": string(driverPassword),
			"name":     "Truck 01 Driver",
			"role":     models.RoleDriver,
		},
		{
			"id":       uuid.New().String(),
			"email":    "dispatch@binroute.dev",
			"password": string(dispatcherPassword),
			"name":     "Dispatcher",
			"role":     models.RoleAdmin,
		},
	}

	for _, user := range users {
		query := `
			INSERT INTO users (id, email, password, name, role)
			VALUES (:id, :email, :password, :name, :role)
		`
		if _, err := db.NamedExec(query, user); err != nil {
			return err
		}
		log.Printf("  ✓ Created user: %s (%s)", user["email"], user["role"])
	}

	log.Println("✓ Successfully seeded test users")
	log.Println("  📧 Driver:     driver@binroute.dev / driver123")
	log.Println("  📧 Dispatcher: dispatch@binroute.dev / dispatch123")
	return nil
}
