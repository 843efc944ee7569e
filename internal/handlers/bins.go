package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"binroute-backend/internal/config"
	"binroute-backend/internal/models"
	"binroute-backend/internal/services"
	"binroute-backend/internal/services/collection"
	"binroute-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// BinCatalog is the write side of the bin and depot catalog
type BinCatalog interface {
	UpsertBin(ctx context.Context, bin *models.Bin) error
	UpsertDepot(ctx context.Context, depot *models.Depot) error
	ListCollectionEvents(ctx context.Context, binID string) ([]models.CollectionEvent, error)
}

// GetBins lists the bins of a service area with their current estimated fill
func GetBins(planner *services.RoutePlanner, region config.RegionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bins, err := planner.Snapshot(r.Context(), serviceAreaParam(r, region), optionalParam(r, "sub_area"))
		if err != nil {
			respondServiceError(w, err)
			return
		}

		utils.RespondJSON(w, http.StatusOK, bins)
	}
}

// UpsertBin creates or replaces a bin in the catalog
func UpsertBin(catalog BinCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var bin models.Bin
		if err := json.NewDecoder(r.Body).Decode(&bin); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if id := chi.URLParam(r, "id"); id != "" {
			bin.ID = id
		}
		if bin.ID == "" || bin.ServiceArea == "" {
			utils.RespondError(w, http.StatusBadRequest, "id and service_area are required")
			return
		}
		if bin.CapacityKg <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "capacity_kg must be greater than zero")
			return
		}
		if (bin.Latitude == nil) != (bin.Longitude == nil) {
			utils.RespondError(w, http.StatusBadRequest, "latitude and longitude must be set together")
			return
		}
		if bin.Latitude != nil {
			loc := collection.Location{Latitude: *bin.Latitude, Longitude: *bin.Longitude}
			if !loc.Valid() {
				utils.RespondError(w, http.StatusBadRequest, "invalid coordinates")
				return
			}
		}

		if err := catalog.UpsertBin(r.Context(), &bin); err != nil {
			respondServiceError(w, err)
			return
		}

		log.Printf("✅ Bin %s saved in %s", bin.ID, bin.ServiceArea)
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    bin,
		})
	}
}

// UpsertDepot sets the depot location of a service area
func UpsertDepot(catalog BinCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var depot models.Depot
		if err := json.NewDecoder(r.Body).Decode(&depot); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		depot.ServiceArea = chi.URLParam(r, "serviceArea")

		loc := collection.Location{Latitude: depot.Latitude, Longitude: depot.Longitude}
		if depot.ServiceArea == "" || !loc.Valid() {
			utils.RespondError(w, http.StatusBadRequest, "a service area and valid coordinates are required")
			return
		}

		if err := catalog.UpsertDepot(r.Context(), &depot); err != nil {
			respondServiceError(w, err)
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    depot,
		})
	}
}

// GetBinCollections returns the pickup history of a bin
func GetBinCollections(catalog BinCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := catalog.ListCollectionEvents(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, events)
	}
}
