package planning

import (
	"math"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/solver"
)

type productionVars struct {
	production map[entities.ProductPeriod]solver.Var
	inventory  map[entities.ProductPeriod]solver.Var
}

// buildProductionModel formulates the multi-period production MILP. Production
// and inventory are integer. There is no shortage term, so unmet demand makes
// the model infeasible. Capacity rows are omitted for unlimited capacities.
func buildProductionModel(s *entities.ProductionScenario) (*solver.Model, productionVars) {
	m := solver.NewModel("production_planning", solver.Minimize)
	size := len(s.Products) * len(s.Periods)
	vars := productionVars{
		production: make(map[entities.ProductPeriod]solver.Var, size),
		inventory:  make(map[entities.ProductPeriod]solver.Var, size),
	}

	objective := solver.NewExpr()
	for _, p := range s.Products {
		holding := s.HoldingCost(p)
		for _, t := range s.Periods {
			k := entities.ProductPeriod{Product: p, Period: t}
			vars.production[k] = m.AddVar(keyName("production", p, t), 0, math.Inf(1), solver.Integer)
			vars.inventory[k] = m.AddVar(keyName("inventory", p, t), 0, math.Inf(1), solver.Integer)
			objective.Add(s.ProductionCost[p], vars.production[k]).Add(holding, vars.inventory[k])
		}
	}
	m.SetObjective(objective)

	for _, p := range s.Products {
		for i, t := range s.Periods {
			k := entities.ProductPeriod{Product: p, Period: t}
			// inventory − prev − production = −demand
			balance := solver.NewExpr().Add(1, vars.inventory[k]).Add(-1, vars.production[k])
			if i == 0 {
				balance.AddConstant(-s.InitialInventory[p])
			} else {
				balance.Add(-1, vars.inventory[entities.ProductPeriod{Product: p, Period: s.Periods[i-1]}])
			}
			m.AddConstraint(keyName("balance", p, t), balance, solver.Equal, -s.Demand.Get(p, t))
		}
	}

	for _, t := range s.Periods {
		addCapacityRow(m, "machine", t, s.MachineCapacity[t], s.Products, s.MachineHours, vars.production)
		addCapacityRow(m, "labor", t, s.LaborCapacity[t], s.Products, s.LaborHours, vars.production)
	}

	last := s.Periods[len(s.Periods)-1]
	for _, p := range s.Products {
		terminal := solver.NewExpr().Add(1, vars.inventory[entities.ProductPeriod{Product: p, Period: last}])
		m.AddConstraint("safety_stock_"+string(p), terminal, solver.GreaterEqual, s.SafetyStock[p])
	}
	return m, vars
}

func addCapacityRow(
	m *solver.Model,
	resource string,
	period entities.PeriodID,
	capacity float64,
	products []entities.ProductID,
	hours map[entities.ProductID]float64,
	production map[entities.ProductPeriod]solver.Var,
) {
	if math.IsInf(capacity, 1) {
		return
	}
	usage := solver.NewExpr()
	for _, p := range products {
		usage.Add(hours[p], production[entities.ProductPeriod{Product: p, Period: period}])
	}
	m.AddConstraint(resource+"_"+string(period), usage, solver.LessEqual, capacity)
}
