package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/services"
)

// PlanResult contains the complete output of one planning run. Exactly one of
// Inventory, Production and Blend is set, matching Kind.
type PlanResult struct {
	Scenario   string                   `json:"scenario"`
	Kind       entities.ModelKind       `json:"model"`
	Inventory  *entities.InventoryPlan  `json:"inventory,omitempty"`
	Production *entities.ProductionPlan `json:"production,omitempty"`
	Blend      *entities.BlendPlan      `json:"blend,omitempty"`

	Costs       *CostBreakdown     `json:"costs,omitempty"`
	Utilization []ResourceUsage    `json:"utilization,omitempty"`
	BlendReport *BlendReport       `json:"blend_report,omitempty"`
	Keys        services.KeyReport `json:"keys"`
}

// Meta returns the run bookkeeping of whichever plan is set
func (r *PlanResult) Meta() entities.PlanMeta {
	switch {
	case r.Inventory != nil:
		return r.Inventory.PlanMeta
	case r.Production != nil:
		return r.Production.PlanMeta
	case r.Blend != nil:
		return r.Blend.PlanMeta
	default:
		return entities.PlanMeta{}
	}
}

// Objective returns the total cost or profit of the plan
func (r *PlanResult) Objective() float64 {
	switch {
	case r.Inventory != nil:
		return r.Inventory.TotalCost
	case r.Production != nil:
		return r.Production.TotalCost
	case r.Blend != nil:
		return r.Blend.Profit
	default:
		return 0
	}
}

// CostComponent is one named line of a cost breakdown
type CostComponent struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// CostBreakdown splits a plan's objective into its cost terms
type CostBreakdown struct {
	Components []CostComponent `json:"components"`
	Total      decimal.Decimal `json:"total"`
}

// ResourceUsage is machine and labor consumption in one period. Utilization is
// a percentage and is 0 when the capacity is 0 or unlimited.
type ResourceUsage struct {
	Period             entities.PeriodID `json:"period"`
	MachineUsed        float64           `json:"machine_used"`
	MachineAvailable   float64           `json:"machine_available"`
	MachineUnlimited   bool              `json:"machine_unlimited,omitempty"`
	MachineUtilization float64           `json:"machine_utilization"`
	LaborUsed          float64           `json:"labor_used"`
	LaborAvailable     float64           `json:"labor_available"`
	LaborUnlimited     bool              `json:"labor_unlimited,omitempty"`
	LaborUtilization   float64           `json:"labor_utilization"`
}

// MaterialUsage is how much of a raw material the blend consumed
type MaterialUsage struct {
	Material    entities.MaterialID `json:"material"`
	Used        float64             `json:"used"`
	Available   float64             `json:"available"`
	Unlimited   bool                `json:"unlimited,omitempty"`
	Utilization float64             `json:"utilization"`
}

// MaterialShare is one material's part of a product's blend
type MaterialShare struct {
	Material entities.MaterialID `json:"material"`
	Quantity float64             `json:"quantity"`
	Percent  float64             `json:"percent"`
}

// Composition describes the blend behind one product
type Composition struct {
	Product          entities.ProductID `json:"product"`
	Output           float64            `json:"output"`
	Produced         bool               `json:"produced"`
	Shares           []MaterialShare    `json:"shares,omitempty"`
	AchievedOctane   float64            `json:"achieved_octane,omitempty"`
	RequiredOctane   float64            `json:"required_octane"`
	MeetsRequirement bool               `json:"meets_requirement"`
}

// BlendReport is the derived view of a production-mix plan
type BlendReport struct {
	Materials    []MaterialUsage `json:"materials"`
	Compositions []Composition   `json:"compositions"`
	Revenue      decimal.Decimal `json:"revenue"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	Profit       decimal.Decimal `json:"profit"`
}

// BatchEntry is the outcome of one scenario in a batch
type BatchEntry struct {
	Scenario string        `json:"scenario"`
	Result   *PlanResult   `json:"result,omitempty"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// BatchSummary aggregates a batch run, entries in input order
type BatchSummary struct {
	Entries []BatchEntry  `json:"entries"`
	Optimal int           `json:"optimal"`
	Failed  int           `json:"failed"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// GetSummary returns a formatted one-line summary of the batch
func (s *BatchSummary) GetSummary() string {
	return fmt.Sprintf("Batch Summary: %d scenarios, %d optimal, %d not optimal, %d failed (%s)",
		len(s.Entries), s.Optimal, len(s.Entries)-s.Optimal-s.Failed, s.Failed, s.Elapsed.Round(time.Millisecond))
}
