package main

import (
	"context"
	"log"
	"net/http"

	"binroute-backend/internal/config"
	"binroute-backend/internal/database"
	"binroute-backend/internal/handlers"
	"binroute-backend/internal/middleware"
	"binroute-backend/internal/models"
	"binroute-backend/internal/services"
	"binroute-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 BINROUTE BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Invalid configuration")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database connection failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer db.Close()
	log.Println("✅ Database connection established")

	if err := database.Migrate(db); err != nil {
		log.Printf("❌ FATAL ERROR: Database migrations failed: %v", err)
		log.Fatal(err)
	}
	log.Println("✅ Database migrations completed")

	ctx := context.Background()
	store := database.NewStore(db)

	log.Println("🌱 Seeding database with initial data...")
	if err := database.SeedUsers(db); err != nil {
		log.Printf("❌ FATAL ERROR: User seeding failed: %v", err)
		log.Fatal(err)
	}
	if err := database.SeedBins(ctx, store); err != nil {
		log.Printf("❌ FATAL ERROR: Bins seeding failed: %v", err)
		log.Fatal(err)
	}
	if cfg.SeedBinsPath != "" {
		if err := database.LoadSeedFile(ctx, store, cfg.SeedBinsPath); err != nil {
			log.Printf("❌ FATAL ERROR: Seed file failed: %v", err)
			log.Fatal(err)
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	planner := services.NewRoutePlanner(store, store, store, cfg.Region).WithBroadcaster(wsHub)
	recorder := services.NewCompletionRecorder(store, store, store, cfg.Region).WithBroadcaster(wsHub)

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials
	if fcmService := initFCM(ctx, cfg); fcmService != nil {
		planner.WithNotifier(fcmService)
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("OK"))
	})

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub, cfg.JWTSecret))

	r.Route("/api", func(r chi.Router) {
		// Authentication routes (no auth required)
		r.Post("/auth/login", handlers.Login(store, cfg.JWTSecret))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Get("/auth/status", handlers.GetAuthStatus())

			// Read-only plan and bin views for drivers and dispatchers
			r.Get("/bins", handlers.GetBins(planner, cfg.Region))
			r.Get("/bins/{id}/collections", handlers.GetBinCollections(store))
			r.Get("/routes", handlers.ListRoutes(planner, cfg.Region))
			r.Get("/routes/today", handlers.GetTodayRoute(planner, cfg.Region))

			// Field completion
			r.With(middleware.RequireRole(models.RoleDriver, models.RoleAdmin)).
				Post("/driver/complete-bin", handlers.CompleteBin(recorder))
		})

		// Manager endpoints (require authentication + admin role)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Post("/manager/routes/optimize", handlers.OptimizeRoutes(planner))
			r.Post("/manager/bins", handlers.UpsertBin(store))
			r.Put("/manager/bins/{id}", handlers.UpsertBin(store))
			r.Put("/manager/depots/{serviceArea}", handlers.UpsertDepot(store))
		})
	})

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
	log.Println("═══════════════════════════════════════════════════════════════════")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Printf("❌ FATAL ERROR: Server failed to start on port %s: %v", cfg.Port, err)
		log.Fatal(err)
	}
}

func initFCM(ctx context.Context, cfg *config.Config) *services.FCMService {
	if cfg.FirebaseCredentialsBase64 != "" {
		fcmService, err := services.NewFCMServiceFromBase64(ctx, cfg.FirebaseCredentialsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			return nil
		}
		log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		return fcmService
	}

	fcmService, err := services.NewFCMService(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
		return nil
	}
	log.Println("✅ Firebase Cloud Messaging initialized from file")
	return fcmService
}
