package planning

import (
	"math"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/solver"
)

type blendVars struct {
	allocation map[entities.MaterialProduct]solver.Var
	output     map[entities.ProductID]solver.Var
}

// buildBlendModel formulates the production-mix LP. Output of each product is
// capped by its demand, its mass is exactly the raw material allocated to it,
// and its blended octane must reach the requirement.
func buildBlendModel(s *entities.BlendScenario) (*solver.Model, blendVars) {
	m := solver.NewModel("product_mix", solver.Maximize)
	vars := blendVars{
		allocation: make(map[entities.MaterialProduct]solver.Var, len(s.RawMaterials)*len(s.Products)),
		output:     make(map[entities.ProductID]solver.Var, len(s.Products)),
	}

	objective := solver.NewExpr()
	for _, mat := range s.RawMaterials {
		for _, p := range s.Products {
			k := entities.MaterialProduct{Material: mat, Product: p}
			vars.allocation[k] = m.AddVar(keyName("allocation", mat, p), 0, math.Inf(1), solver.Continuous)
			objective.Add(-s.MaterialCost[mat], vars.allocation[k])
		}
	}
	for _, p := range s.Products {
		vars.output[p] = m.AddVar("output_"+string(p), 0, s.Demand[p], solver.Continuous)
		objective.Add(s.SellingPrice[p], vars.output[p])
	}
	m.SetObjective(objective)

	for _, mat := range s.RawMaterials {
		available := s.MaxAvailable[mat]
		if math.IsInf(available, 1) {
			continue
		}
		used := solver.NewExpr()
		for _, p := range s.Products {
			used.Add(1, vars.allocation[entities.MaterialProduct{Material: mat, Product: p}])
		}
		m.AddConstraint("available_"+string(mat), used, solver.LessEqual, available)
	}

	for _, p := range s.Products {
		mass := solver.NewExpr().Add(-1, vars.output[p])
		quality := solver.NewExpr().Add(-s.OctaneRequirement[p], vars.output[p])
		for _, mat := range s.RawMaterials {
			alloc := vars.allocation[entities.MaterialProduct{Material: mat, Product: p}]
			mass.Add(1, alloc)
			quality.Add(s.OctaneNumber[mat], alloc)
		}
		m.AddConstraint("mass_"+string(p), mass, solver.Equal, 0)
		m.AddConstraint("octane_"+string(p), quality, solver.GreaterEqual, 0)
	}
	return m, vars
}
