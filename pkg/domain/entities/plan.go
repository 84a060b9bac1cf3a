package entities

import (
	"fmt"
	"time"
)

// Status is the outcome of a planning solve
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	default:
		return "Not Solved"
	}
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Optimal":
		*s = StatusOptimal
	case "Infeasible":
		*s = StatusInfeasible
	case "Unbounded":
		*s = StatusUnbounded
	case "Not Solved":
		*s = StatusNotSolved
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// PlanMeta is shared bookkeeping for every plan
type PlanMeta struct {
	RunID     string        `json:"run_id"`
	Scenario  string        `json:"scenario,omitempty"`
	Status    Status        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Nodes     int           `json:"nodes"`
	SolveTime time.Duration `json:"solve_time_ns"`
}

// IsOptimal reports whether the plan carries solved values
func (m PlanMeta) IsOptimal() bool {
	return m.Status == StatusOptimal
}

// InventoryPlan is the result of the inventory-balance model. The value tables
// are empty unless Status is StatusOptimal.
type InventoryPlan struct {
	PlanMeta
	TotalCost float64     `json:"total_cost"`
	Products  []ProductID `json:"products"`
	Periods   []PeriodID  `json:"periods"`
	Inventory PeriodTable `json:"inventory"`
	Shortage  PeriodTable `json:"shortage"`
	Excess    PeriodTable `json:"excess"`
}

// ProductionPlan is the result of the multi-period production-planning model
type ProductionPlan struct {
	PlanMeta
	TotalCost  float64     `json:"total_cost"`
	Products   []ProductID `json:"products"`
	Periods    []PeriodID  `json:"periods"`
	Production PeriodTable `json:"production"`
	Inventory  PeriodTable `json:"inventory"`
}

// BlendPlan is the result of the production-mix model
type BlendPlan struct {
	PlanMeta
	Profit     float64               `json:"profit"`
	Materials  []MaterialID          `json:"raw_materials"`
	Products   []ProductID           `json:"products"`
	Allocation AllocationTable       `json:"allocation"`
	Output     map[ProductID]float64 `json:"output"`
}
