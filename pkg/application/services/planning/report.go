package planning

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/balance/pkg/application/dto"
	"github.com/vsinha/balance/pkg/domain/entities"
)

// ProducedThreshold is the output below which a blend product counts as not produced
const ProducedThreshold = 0.001

func money(rate, quantity float64) decimal.Decimal {
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromFloat(quantity)).Round(2)
}

func breakdown(components ...dto.CostComponent) *dto.CostBreakdown {
	total := decimal.Zero
	for _, c := range components {
		total = total.Add(c.Amount)
	}
	return &dto.CostBreakdown{Components: components, Total: total}
}

// InventoryCosts splits an inventory plan's cost into shortage and excess terms.
// Missing table entries count as zero, so a non-optimal plan yields all zeros.
func InventoryCosts(s *entities.InventoryScenario, plan *entities.InventoryPlan) *dto.CostBreakdown {
	return breakdown(
		dto.CostComponent{Name: "Shortage", Amount: money(s.ShortageCost, plan.Shortage.Sum())},
		dto.CostComponent{Name: "Excess", Amount: money(s.ExcessCost, plan.Excess.Sum())},
	)
}

// ProductionCosts splits a production plan's cost into production and holding terms
func ProductionCosts(s *entities.ProductionScenario, plan *entities.ProductionPlan) *dto.CostBreakdown {
	production, holding := decimal.Zero, decimal.Zero
	for _, p := range s.Products {
		for _, t := range s.Periods {
			production = production.Add(money(s.ProductionCost[p], plan.Production.Get(p, t)))
			holding = holding.Add(money(s.HoldingCost(p), plan.Inventory.Get(p, t)))
		}
	}
	return breakdown(
		dto.CostComponent{Name: "Production", Amount: production},
		dto.CostComponent{Name: "Holding", Amount: holding},
	)
}

// ProductionUtilization reports machine and labor hours used per period
func ProductionUtilization(s *entities.ProductionScenario, plan *entities.ProductionPlan) []dto.ResourceUsage {
	usage := make([]dto.ResourceUsage, 0, len(s.Periods))
	for _, t := range s.Periods {
		var machine, labor float64
		for _, p := range s.Products {
			qty := plan.Production.Get(p, t)
			machine += s.MachineHours[p] * qty
			labor += s.LaborHours[p] * qty
		}
		u := dto.ResourceUsage{
			Period:             t,
			MachineUsed:        machine,
			MachineUtilization: percent(machine, s.MachineCapacity[t]),
			LaborUsed:          labor,
			LaborUtilization:   percent(labor, s.LaborCapacity[t]),
		}
		u.MachineAvailable, u.MachineUnlimited = capacity(s.MachineCapacity[t])
		u.LaborAvailable, u.LaborUnlimited = capacity(s.LaborCapacity[t])
		usage = append(usage, u)
	}
	return usage
}

// BlendSummary reports material usage, per-product composition, and profit
func BlendSummary(s *entities.BlendScenario, plan *entities.BlendPlan) *dto.BlendReport {
	report := &dto.BlendReport{
		Materials:    make([]dto.MaterialUsage, 0, len(s.RawMaterials)),
		Compositions: make([]dto.Composition, 0, len(s.Products)),
		Revenue:      decimal.Zero,
		MaterialCost: decimal.Zero,
	}

	for _, m := range s.RawMaterials {
		var used float64
		for _, p := range s.Products {
			used += plan.Allocation.Get(m, p)
		}
		u := dto.MaterialUsage{
			Material:    m,
			Used:        used,
			Utilization: percent(used, s.MaxAvailable[m]),
		}
		u.Available, u.Unlimited = capacity(s.MaxAvailable[m])
		report.Materials = append(report.Materials, u)
		report.MaterialCost = report.MaterialCost.Add(money(s.MaterialCost[m], used))
	}

	for _, p := range s.Products {
		output := plan.Output[p]
		report.Revenue = report.Revenue.Add(money(s.SellingPrice[p], output))
		c := dto.Composition{
			Product:        p,
			Output:         output,
			RequiredOctane: s.OctaneRequirement[p],
		}
		if output >= ProducedThreshold {
			c.Produced = true
			var octane float64
			for _, m := range s.RawMaterials {
				qty := plan.Allocation.Get(m, p)
				octane += s.OctaneNumber[m] * qty
				if qty > 0 {
					c.Shares = append(c.Shares, dto.MaterialShare{
						Material: m,
						Quantity: qty,
						Percent:  qty / output * 100,
					})
				}
			}
			c.AchievedOctane = octane / output
			c.MeetsRequirement = c.AchievedOctane >= c.RequiredOctane-1e-6
		}
		report.Compositions = append(report.Compositions, c)
	}

	report.Profit = report.Revenue.Sub(report.MaterialCost)
	return report
}

func percent(used, available float64) float64 {
	if available == 0 || math.IsInf(available, 1) {
		return 0
	}
	return used / available * 100
}

// capacity converts an unlimited capacity into (0, true) so reports stay JSON-safe
func capacity(v float64) (float64, bool) {
	if math.IsInf(v, 1) {
		return 0, true
	}
	return v, false
}
