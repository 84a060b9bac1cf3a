package testing

import (
	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/infrastructure/repositories/memory"
)

// BuildInventoryDemo builds the two-product, three-month inventory-balance demo
func BuildInventoryDemo() *entities.InventoryScenario {
	products := []entities.ProductID{"Product_A", "Product_B"}
	periods := []entities.PeriodID{"Jan", "Feb", "Mar"}
	return &entities.InventoryScenario{
		Products:         products,
		Periods:          periods,
		InitialInventory: map[entities.ProductID]float64{"Product_A": 100, "Product_B": 150},
		EffectiveDemand: table(products, periods, [][]float64{
			{250, 300, 400},
			{200, 180, 220},
		}),
		YieldedSupply: table(products, periods, [][]float64{
			{280, 350, 300},
			{180, 200, 250},
		}),
		SafetyStockTarget: map[entities.ProductID]float64{"Product_A": 80, "Product_B": 60},
		ShortageCost:      5.0,
		ExcessCost:        1.5,
	}
}

// BuildSingleProductInventory builds a one-product, one-period scenario with
// demand 100, no initial inventory, no safety stock, and the given supply.
func BuildSingleProductInventory(supply float64) *entities.InventoryScenario {
	products := []entities.ProductID{"X"}
	periods := []entities.PeriodID{"T1"}
	return &entities.InventoryScenario{
		Products:          products,
		Periods:           periods,
		InitialInventory:  map[entities.ProductID]float64{"X": 0},
		EffectiveDemand:   table(products, periods, [][]float64{{100}}),
		YieldedSupply:     table(products, periods, [][]float64{{supply}}),
		SafetyStockTarget: map[entities.ProductID]float64{"X": 0},
		ShortageCost:      5,
		ExcessCost:        1,
	}
}

// BuildProductionDemo builds the two-product, three-month production-planning demo
func BuildProductionDemo() *entities.ProductionScenario {
	products := []entities.ProductID{"A", "B"}
	periods := []entities.PeriodID{"January", "February", "March"}
	return &entities.ProductionScenario{
		Products:         products,
		Periods:          periods,
		InitialInventory: map[entities.ProductID]float64{"A": 100, "B": 120},
		Demand: table(products, periods, [][]float64{
			{700, 900, 1000},
			{800, 600, 900},
		}),
		SafetyStock:     map[entities.ProductID]float64{"A": 130, "B": 110},
		ProductionCost:  map[entities.ProductID]float64{"A": 20, "B": 25},
		HoldingCostRate: 0.02,
		MachineCapacity: map[entities.PeriodID]float64{"January": 3000, "February": 2800, "March": 3600},
		LaborCapacity:   map[entities.PeriodID]float64{"January": 2500, "February": 2300, "March": 2400},
		MachineHours:    map[entities.ProductID]float64{"A": 1.5, "B": 1.6},
		LaborHours:      map[entities.ProductID]float64{"A": 1.1, "B": 1.2},
	}
}

// BuildCapacityBoundProduction builds a three-product, twelve-month plan whose
// machine capacity alternates between a surplus month and a deficit month, so
// every deficit month is covered by fractional-hour production a month early.
func BuildCapacityBoundProduction() *entities.ProductionScenario {
	products := []entities.ProductID{"A", "B", "C"}
	periods := []entities.PeriodID{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

	demand := make([][]float64, len(products))
	for i, d := range []float64{650, 550, 750} {
		demand[i] = make([]float64, len(periods))
		for j := range periods {
			demand[i][j] = d
		}
	}
	machine := make(map[entities.PeriodID]float64, len(periods))
	labor := make(map[entities.PeriodID]float64, len(periods))
	for j, t := range periods {
		machine[t] = 3300.5
		if j%2 == 1 {
			machine[t] = 2800.5
		}
		labor[t] = 100000
	}

	return &entities.ProductionScenario{
		Products:         products,
		Periods:          periods,
		InitialInventory: map[entities.ProductID]float64{"A": 20, "B": 20, "C": 20},
		Demand:           table(products, periods, demand),
		SafetyStock:      map[entities.ProductID]float64{"A": 10, "B": 10, "C": 10},
		ProductionCost:   map[entities.ProductID]float64{"A": 20, "B": 25, "C": 15},
		HoldingCostRate:  0.02,
		MachineCapacity:  machine,
		LaborCapacity:    labor,
		MachineHours:     map[entities.ProductID]float64{"A": 1.53, "B": 2.07, "C": 1.21},
		LaborHours:       map[entities.ProductID]float64{"A": 1, "B": 1, "C": 1},
	}
}

// BuildBlendDemo builds the three-material, three-grade production-mix demo
func BuildBlendDemo() *entities.BlendScenario {
	return &entities.BlendScenario{
		RawMaterials:      []entities.MaterialID{"A", "B", "C"},
		Products:          []entities.ProductID{"Super", "Unleaded", "Super_Unleaded"},
		OctaneNumber:      map[entities.MaterialID]float64{"A": 120, "B": 90, "C": 130},
		MaterialCost:      map[entities.MaterialID]float64{"A": 38, "B": 42, "C": 105},
		MaxAvailable:      map[entities.MaterialID]float64{"A": 1000, "B": 1200, "C": 700},
		OctaneRequirement: map[entities.ProductID]float64{"Super": 94, "Unleaded": 92, "Super_Unleaded": 96},
		SellingPrice:      map[entities.ProductID]float64{"Super": 85, "Unleaded": 80, "Super_Unleaded": 88},
		Demand:            map[entities.ProductID]float64{"Super": 800, "Unleaded": 1100, "Super_Unleaded": 500},
	}
}

// BuildDemoScenarios wraps the three demos as named planning scenarios
func BuildDemoScenarios() []*entities.PlanningScenario {
	return []*entities.PlanningScenario{
		{Name: "inventory_demo", Kind: entities.InventoryBalance, Inventory: BuildInventoryDemo()},
		{Name: "multi_period_demo", Kind: entities.ProductionPlanning, Production: BuildProductionDemo()},
		{Name: "product_mix_demo", Kind: entities.ProductMix, Blend: BuildBlendDemo()},
	}
}

// BuildDemoRepository returns a scenario repository seeded with the demos
func BuildDemoRepository() *memory.ScenarioRepository {
	repo := memory.NewScenarioRepository()
	if err := repo.LoadScenarios(BuildDemoScenarios()); err != nil {
		panic(err)
	}
	return repo
}

func table(products []entities.ProductID, periods []entities.PeriodID, rows [][]float64) entities.PeriodTable {
	t := make(entities.PeriodTable, len(products)*len(periods))
	for i, p := range products {
		for j, period := range periods {
			t.Set(p, period, rows[i][j])
		}
	}
	return t
}
