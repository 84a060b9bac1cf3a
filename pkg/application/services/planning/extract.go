package planning

import (
	"math"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/solver"
)

// zeroTolerance is the magnitude below which solver values are reported as 0
const zeroTolerance = 1e-9

func toStatus(s solver.Status) entities.Status {
	switch s {
	case solver.StatusOptimal:
		return entities.StatusOptimal
	case solver.StatusInfeasible:
		return entities.StatusInfeasible
	case solver.StatusUnbounded:
		return entities.StatusUnbounded
	default:
		return entities.StatusNotSolved
	}
}

func clean(v float64) float64 {
	if math.Abs(v) < zeroTolerance {
		return 0
	}
	return v
}

func integral(v float64) float64 {
	return clean(math.Round(v))
}

// extractPeriodTable reads one column family into a table. The table is empty
// unless the solution carries values.
func extractPeriodTable(sol *solver.Solution, vars map[entities.ProductPeriod]solver.Var, round bool) entities.PeriodTable {
	table := make(entities.PeriodTable, len(vars))
	if !sol.HasValues() {
		return table
	}
	for k, v := range vars {
		value := sol.ValueOrZero(v)
		if round {
			table[k] = integral(value)
		} else {
			table[k] = clean(value)
		}
	}
	return table
}

func extractAllocation(sol *solver.Solution, vars map[entities.MaterialProduct]solver.Var) entities.AllocationTable {
	table := make(entities.AllocationTable, len(vars))
	if !sol.HasValues() {
		return table
	}
	for k, v := range vars {
		table[k] = clean(sol.ValueOrZero(v))
	}
	return table
}

func extractOutput(sol *solver.Solution, vars map[entities.ProductID]solver.Var) map[entities.ProductID]float64 {
	out := make(map[entities.ProductID]float64, len(vars))
	if !sol.HasValues() {
		return out
	}
	for p, v := range vars {
		out[p] = clean(sol.ValueOrZero(v))
	}
	return out
}

// objectiveValue is the solved objective, or 0 when there is none
func objectiveValue(sol *solver.Solution) float64 {
	if !sol.HasValues() {
		return 0
	}
	return clean(sol.Objective)
}
