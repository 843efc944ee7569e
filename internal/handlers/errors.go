package handlers

import (
	"errors"
	"log"
	"net/http"

	"binroute-backend/internal/services"
	"binroute-backend/internal/services/collection"
	"binroute-backend/pkg/utils"
)

// respondServiceError maps service failures onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var constraintErr *collection.InvalidConstraintError
	switch {
	case errors.As(err, &constraintErr):
		utils.RespondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
			"field":   constraintErr.Field,
		})
	case errors.Is(err, collection.ErrInvalidConstraint):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("❌ Request failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func isPartialCompletion(err error) (*services.PartialCompletionError, bool) {
	var partial *services.PartialCompletionError
	if errors.As(err, &partial) {
		return partial, true
	}
	return nil, false
}
