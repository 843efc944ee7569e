package models

import (
	"fmt"

	"github.com/google/uuid"
)

var collectionEventNamespace = uuid.MustParse("0b8e5c4a-91d2-4f60-a7c3-5e2f8d1b6a90")

// CollectionEvent is the immutable audit record of a field-reported pickup
type CollectionEvent struct {
	ID          string  `json:"id" db:"id"`
	BinID       string  `json:"bin_id" db:"bin_id"`
	TruckID     string  `json:"truck_id" db:"truck_id"`
	PlanDate    string  `json:"plan_date" db:"plan_date"`
	Notes       *string `json:"notes,omitempty" db:"notes"`
	CollectedAt int64   `json:"collected_at" db:"collected_at"` // Unix timestamp
	CreatedAt   int64   `json:"created_at" db:"created_at"`     // Unix timestamp
}

// CollectionEventID is keyed on (bin, truck, day) so a retried report maps to the same record
func CollectionEventID(binID, truckID, planDate string) string {
	name := fmt.Sprintf("%s|%s|%s", binID, truckID, planDate)
	return uuid.NewSHA1(collectionEventNamespace, []byte(name)).String()
}

// CompleteBinRequest is the request body for POST /api/driver/complete-bin
type CompleteBinRequest struct {
	BinID       string  `json:"bin_id"`
	TruckID     string  `json:"truck_id"`
	Notes       *string `json:"notes,omitempty"`
	CollectedAt *int64  `json:"collected_at,omitempty"` // Unix timestamp, defaults to now
}
