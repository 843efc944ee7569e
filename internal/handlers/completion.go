package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"binroute-backend/internal/models"
	"binroute-backend/internal/services"
	"binroute-backend/pkg/utils"
)

// CompleteBin records that a truck emptied a bin. A partial failure answers 207
// with the per-write status so the driver app knows to resend.
func CompleteBin(recorder *services.CompletionRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CompleteBinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		in := services.CompletionInput{
			BinID:     req.BinID,
			TruckID:   req.TruckID,
			Notes:     req.Notes,
			Timestamp: time.Now(),
		}
		if req.CollectedAt != nil {
			in.Timestamp = time.Unix(*req.CollectedAt, 0)
		}

		result, err := recorder.RecordCompletion(r.Context(), in)
		if partial, ok := isPartialCompletion(err); ok {
			status := http.StatusMultiStatus
			if partial.AllFailed() {
				status = http.StatusInternalServerError
			}

			failed := make(map[string]string, len(partial.Failures))
			for name, ferr := range partial.Failures {
				failed[name] = ferr.Error()
			}

			utils.RespondJSON(w, status, map[string]interface{}{
				"success": false,
				"data":    result,
				"failed":  failed,
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
