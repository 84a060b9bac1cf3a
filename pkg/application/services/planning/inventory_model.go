package planning

import (
	"math"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/solver"
)

// inventoryVars maps the columns of the inventory-balance model back to their keys
type inventoryVars struct {
	inventory map[entities.ProductPeriod]solver.Var
	shortage  map[entities.ProductPeriod]solver.Var
	excess    map[entities.ProductPeriod]solver.Var
}

// buildInventoryModel formulates the inventory-balance LP:
//
//	min  Σ shortage_cost·shortage[p,t] + excess_cost·excess[p,t]
//	s.t. inventory[p,t] = prev + supply[p,t] − demand[p,t] + shortage[p,t]
//	     excess[p,t]   ≥ inventory[p,t] − safety_stock[p]
//	     shortage[p,t] ≥ demand[p,t] − (prev + supply[p,t])
//
// where prev is the initial inventory in the first period and
// inventory[p,t−1] afterwards. The scenario must already be validated.
func buildInventoryModel(s *entities.InventoryScenario) (*solver.Model, inventoryVars) {
	m := solver.NewModel("inventory_balance", solver.Minimize)
	size := len(s.Products) * len(s.Periods)
	vars := inventoryVars{
		inventory: make(map[entities.ProductPeriod]solver.Var, size),
		shortage:  make(map[entities.ProductPeriod]solver.Var, size),
		excess:    make(map[entities.ProductPeriod]solver.Var, size),
	}

	objective := solver.NewExpr()
	for _, p := range s.Products {
		for _, t := range s.Periods {
			k := entities.ProductPeriod{Product: p, Period: t}
			vars.inventory[k] = m.AddVar(keyName("inventory", p, t), 0, math.Inf(1), solver.Continuous)
			vars.shortage[k] = m.AddVar(keyName("shortage", p, t), 0, math.Inf(1), solver.Continuous)
			vars.excess[k] = m.AddVar(keyName("excess", p, t), 0, math.Inf(1), solver.Continuous)
			objective.Add(s.ShortageCost, vars.shortage[k]).Add(s.ExcessCost, vars.excess[k])
		}
	}
	m.SetObjective(objective)

	for _, p := range s.Products {
		for i, t := range s.Periods {
			k := entities.ProductPeriod{Product: p, Period: t}
			demand := s.EffectiveDemand.Get(p, t)
			supply := s.YieldedSupply.Get(p, t)

			// inventory − prev − shortage = supply − demand
			balance := solver.NewExpr().Add(1, vars.inventory[k]).Add(-1, vars.shortage[k])
			// shortage + prev ≥ demand − supply
			floor := solver.NewExpr().Add(1, vars.shortage[k])
			if i == 0 {
				initial := s.InitialInventory[p]
				balance.AddConstant(-initial)
				floor.AddConstant(initial)
			} else {
				prev := vars.inventory[entities.ProductPeriod{Product: p, Period: s.Periods[i-1]}]
				balance.Add(-1, prev)
				floor.Add(1, prev)
			}
			m.AddConstraint(keyName("balance", p, t), balance, solver.Equal, supply-demand)
			m.AddConstraint(keyName("shortage", p, t), floor, solver.GreaterEqual, demand-supply)

			excess := solver.NewExpr().Add(1, vars.excess[k]).Add(-1, vars.inventory[k])
			m.AddConstraint(keyName("excess", p, t), excess, solver.GreaterEqual, -s.SafetyStockTarget[p])
		}
	}
	return m, vars
}

// keyName names a column or row after its two-part key
func keyName[A, B ~string](prefix string, a A, b B) string {
	return prefix + "_" + string(a) + "_" + string(b)
}
