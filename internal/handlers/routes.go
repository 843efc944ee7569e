package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"binroute-backend/internal/config"
	"binroute-backend/internal/middleware"
	"binroute-backend/internal/services"
	"binroute-backend/pkg/utils"
)

// OptimizeRoutes runs an optimisation for a service area and returns the stored plans
func OptimizeRoutes(planner *services.RoutePlanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.OptimizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if user, ok := middleware.GetUserFromContext(r); ok {
			log.Printf("🚛 Optimisation requested by %s for %s", user.Email, req.ServiceArea)
		}

		result, err := planner.Optimize(r.Context(), req)
		if err != nil && result != nil {
			// Plans were computed but not all stored
			log.Printf("❌ Optimisation for %s not fully stored: %v", req.ServiceArea, err)
			utils.RespondJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"error":   "Failed to store route plans",
				"result":  result,
			})
			return
		}
		if err != nil {
			respondServiceError(w, err)
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    result,
		})
	}
}

// GetTodayRoute returns one truck's plan for a day (defaults to today in the region)
func GetTodayRoute(planner *services.RoutePlanner, region config.RegionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		truckID := q.Get("truck_id")
		if truckID == "" {
			utils.RespondError(w, http.StatusBadRequest, "truck_id is required")
			return
		}

		plan, err := planner.TodayPlan(r.Context(), serviceAreaParam(r, region), truckID, optionalParam(r, "date"))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if plan == nil {
			utils.RespondError(w, http.StatusNotFound, "No plan for this truck and day")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    plan,
		})
	}
}

// ListRoutes returns every plan of a service area for a day
func ListRoutes(planner *services.RoutePlanner, region config.RegionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := planner.ListPlans(r.Context(), serviceAreaParam(r, region), optionalParam(r, "date"))
		if err != nil {
			respondServiceError(w, err)
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    plans,
		})
	}
}

func serviceAreaParam(r *http.Request, region config.RegionConfig) string {
	if area := r.URL.Query().Get("service_area"); area != "" {
		return area
	}
	return region.DefaultServiceArea
}

func optionalParam(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}
