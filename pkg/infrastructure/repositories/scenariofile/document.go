package scenariofile

import (
	"fmt"

	"github.com/vsinha/balance/pkg/domain/entities"
)

// Document is the YAML layout of a scenario file. Exactly one model section
// is expected, matching Model.
type Document struct {
	Name       string         `yaml:"name"`
	Model      string         `yaml:"model"`
	Inventory  *InventoryDoc  `yaml:"inventory,omitempty"`
	Production *ProductionDoc `yaml:"production,omitempty"`
	Blend      *BlendDoc      `yaml:"blend,omitempty"`
}

// NestedTable is a {product: {period: value}} mapping
type NestedTable map[string]map[string]float64

// InventoryDoc is the inventory section. Demand and supply may come inline or
// from CSV files named relative to the document.
type InventoryDoc struct {
	Products            []string           `yaml:"products"`
	Periods             []string           `yaml:"periods"`
	InitialInventory    map[string]float64 `yaml:"initial_inventory"`
	EffectiveDemand     NestedTable        `yaml:"effective_demand"`
	EffectiveDemandFile string             `yaml:"effective_demand_file"`
	YieldedSupply       NestedTable        `yaml:"yielded_supply"`
	YieldedSupplyFile   string             `yaml:"yielded_supply_file"`
	SafetyStockTarget   map[string]float64 `yaml:"safety_stock_target"`
	ShortageCost        float64            `yaml:"shortage_cost"`
	ExcessCost          float64            `yaml:"excess_cost"`
}

// ProductionDoc is the multi-period production section
type ProductionDoc struct {
	Products         []string           `yaml:"products"`
	Periods          []string           `yaml:"periods"`
	InitialInventory map[string]float64 `yaml:"initial_inventory"`
	Demand           NestedTable        `yaml:"demand"`
	DemandFile       string             `yaml:"demand_file"`
	SafetyStock      map[string]float64 `yaml:"safety_stock"`
	ProductionCost   map[string]float64 `yaml:"production_cost"`
	HoldingCostRate  float64            `yaml:"holding_cost_rate"`
	MachineCapacity  map[string]float64 `yaml:"machine_capacity"`
	LaborCapacity    map[string]float64 `yaml:"labor_capacity"`
	MachineHours     map[string]float64 `yaml:"machine_hours"`
	LaborHours       map[string]float64 `yaml:"labor_hours"`
}

// BlendDoc is the production-mix section
type BlendDoc struct {
	RawMaterials      []string           `yaml:"raw_materials"`
	Products          []string           `yaml:"products"`
	OctaneNumber      map[string]float64 `yaml:"octane_number"`
	MaterialCost      map[string]float64 `yaml:"material_cost"`
	MaxAvailable      map[string]float64 `yaml:"max_available"`
	OctaneRequirement map[string]float64 `yaml:"octane_requirement"`
	SellingPrice      map[string]float64 `yaml:"selling_price"`
	Demand            map[string]float64 `yaml:"demand"`
}

func (t NestedTable) toPeriodTable() entities.PeriodTable {
	table := make(entities.PeriodTable)
	for product, row := range t {
		for period, v := range row {
			table.Set(entities.ProductID(product), entities.PeriodID(period), v)
		}
	}
	return table
}

func toProducts(ids []string) []entities.ProductID {
	out := make([]entities.ProductID, len(ids))
	for i, id := range ids {
		out[i] = entities.ProductID(id)
	}
	return out
}

func toPeriods(ids []string) []entities.PeriodID {
	out := make([]entities.PeriodID, len(ids))
	for i, id := range ids {
		out[i] = entities.PeriodID(id)
	}
	return out
}

func toMaterials(ids []string) []entities.MaterialID {
	out := make([]entities.MaterialID, len(ids))
	for i, id := range ids {
		out[i] = entities.MaterialID(id)
	}
	return out
}

func byProduct(m map[string]float64) map[entities.ProductID]float64 {
	out := make(map[entities.ProductID]float64, len(m))
	for k, v := range m {
		out[entities.ProductID(k)] = v
	}
	return out
}

func byPeriod(m map[string]float64) map[entities.PeriodID]float64 {
	out := make(map[entities.PeriodID]float64, len(m))
	for k, v := range m {
		out[entities.PeriodID(k)] = v
	}
	return out
}

func byMaterial(m map[string]float64) map[entities.MaterialID]float64 {
	out := make(map[entities.MaterialID]float64, len(m))
	for k, v := range m {
		out[entities.MaterialID(k)] = v
	}
	return out
}

// mergeTable combines inline values with values loaded from a file. An entry
// present in both is rejected.
func mergeTable(field string, inline, loaded entities.PeriodTable) (entities.PeriodTable, error) {
	out := make(entities.PeriodTable, len(inline)+len(loaded))
	for k, v := range inline {
		out[k] = v
	}
	for k, v := range loaded {
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("%s given both inline and in file for %s", field, k)
		}
		out[k] = v
	}
	return out, nil
}
