package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// planNamespace scopes the deterministic plan IDs derived from a PlanKey
var planNamespace = uuid.MustParse("6f1c2d7e-4b8a-4c55-9d39-0e7a1b2c3d4e")

// Stop is one bin visit within a plan
type Stop struct {
	BinID     string  `json:"bin_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	EstKg     int     `json:"est_kg"`
	Visited   bool    `json:"visited"`
}

// Stops is stored as a JSONB array on the route_plans row
type Stops []Stop

func (s Stops) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *Stops) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// PlanSummary describes the run that produced a plan
type PlanSummary struct {
	BinsConsidered   int     `json:"bins_considered"`
	HighPriorityBins int     `json:"high_priority_bins"`
	CapacityUsedPct  float64 `json:"capacity_used_pct"`
	TruckCount       int     `json:"truck_count"`
	ThresholdApplied float64 `json:"threshold_applied"`
}

func (p PlanSummary) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PlanSummary) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// PlanKey identifies one truck's plan for one day in one service area
type PlanKey struct {
	ServiceArea string
	SubArea     *string
	TruckID     string
	PlanDate    string // YYYY-MM-DD in the region's time zone
}

// SubAreaValue returns the stored form of the sub-area (empty when unset)
func (k PlanKey) SubAreaValue() string {
	if k.SubArea == nil {
		return ""
	}
	return *k.SubArea
}

// ID derives a stable plan identifier, so regenerating a plan keeps its ID
func (k PlanKey) ID() string {
	name := fmt.Sprintf("%s|%s|%s|%s", k.ServiceArea, k.SubAreaValue(), k.TruckID, k.PlanDate)
	return uuid.NewSHA1(planNamespace, []byte(name)).String()
}

// RoutePlan is one truck's assignment for one calendar day (route_plans table)
type RoutePlan struct {
	ID          string      `json:"id" db:"id"`
	ServiceArea string      `json:"service_area" db:"service_area"`
	SubArea     string      `json:"sub_area,omitempty" db:"sub_area"`
	TruckID     string      `json:"truck_id" db:"truck_id"`
	PlanDate    string      `json:"plan_date" db:"plan_date"`
	Stops       Stops       `json:"stops" db:"stops"`
	LoadKg      int         `json:"load_kg" db:"load_kg"`
	DistanceKm  float64     `json:"distance_km" db:"distance_km"`
	Summary     PlanSummary `json:"summary" db:"summary"`
	CreatedAt   int64       `json:"created_at" db:"created_at"` // Unix timestamp
	UpdatedAt   int64       `json:"updated_at" db:"updated_at"` // Unix timestamp
}

// Key returns the identifying key of the plan
func (p *RoutePlan) Key() PlanKey {
	key := PlanKey{
		ServiceArea: p.ServiceArea,
		TruckID:     p.TruckID,
		PlanDate:    p.PlanDate,
	}
	if p.SubArea != "" {
		sub := p.SubArea
		key.SubArea = &sub
	}
	return key
}

// MarkVisited flags the stop for binID as visited.
// It reports whether the bin is on this plan; visiting twice is a no-op.
func (p *RoutePlan) MarkVisited(binID string) bool {
	for i := range p.Stops {
		if p.Stops[i].BinID == binID {
			p.Stops[i].Visited = true
			return true
		}
	}
	return false
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	case nil:
		return nil
	default:
		return errors.New("unsupported JSON column type")
	}
}
