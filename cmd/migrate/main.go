package main

import (
	"context"
	"flag"
	"log"
	"os"

	"binroute-backend/internal/database"
	"binroute-backend/internal/models"

	"github.com/joho/godotenv"
)

func main() {
	seedPath := flag.String("seed", "", "JSON file with depots and bins to load (defaults to SEED_BINS_PATH)")
	adminEmail := flag.String("admin-email", "", "create an admin account with this email")
	adminPassword := flag.String("admin-password", "", "password for -admin-email")
	adminName := flag.String("admin-name", "Dispatcher", "display name for -admin-email")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	ctx := context.Background()
	store := database.NewStore(db)

	path := *seedPath
	if path == "" {
		path = os.Getenv("SEED_BINS_PATH")
	}
	if path != "" {
		if err := database.LoadSeedFile(ctx, store, path); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	if *adminEmail != "" {
		if *adminPassword == "" {
			log.Fatal("-admin-password is required with -admin-email")
		}
		created, err := store.CreateUser(ctx, *adminEmail, *adminPassword, *adminName, models.RoleAdmin)
		if err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
		if created {
			log.Printf("✅ Created admin: %s", *adminEmail)
		} else {
			log.Printf("ℹ️  User %s already exists, skipping", *adminEmail)
		}
	}

	log.Println("Migration completed successfully!")
}
