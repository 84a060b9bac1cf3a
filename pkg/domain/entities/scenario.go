package entities

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidScenario wraps every scenario validation failure
var ErrInvalidScenario = errors.New("invalid scenario")

var validate = validator.New(validator.WithRequiredStructEnabled())

// InventoryScenario is the input of the inventory-balance model
type InventoryScenario struct {
	Products          []ProductID           `validate:"required,min=1,unique,dive,required"`
	Periods           []PeriodID            `validate:"required,min=1,unique,dive,required"`
	InitialInventory  map[ProductID]float64 `validate:"required"`
	EffectiveDemand   PeriodTable           `validate:"required"`
	YieldedSupply     PeriodTable           `validate:"required"`
	SafetyStockTarget map[ProductID]float64 `validate:"required"`
	ShortageCost      float64
	ExcessCost        float64
}

// Validate checks identifiers, table completeness, and numeric ranges
func (s *InventoryScenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	checks := []error{
		checkProductValues("initial inventory", s.InitialInventory, s.Products, false),
		checkProductValues("safety stock target", s.SafetyStockTarget, s.Products, false),
		checkPeriodTable("effective demand", s.EffectiveDemand, s.Products, s.Periods),
		checkPeriodTable("yielded supply", s.YieldedSupply, s.Products, s.Periods),
		checkFinite("shortage cost", s.ShortageCost),
		checkFinite("excess cost", s.ExcessCost),
	}
	return firstInvalid(checks)
}

// ProductionScenario is the input of the multi-period production-planning model
type ProductionScenario struct {
	Products         []ProductID           `validate:"required,min=1,unique,dive,required"`
	Periods          []PeriodID            `validate:"required,min=1,unique,dive,required"`
	InitialInventory map[ProductID]float64 `validate:"required"`
	Demand           PeriodTable           `validate:"required"`
	SafetyStock      map[ProductID]float64 `validate:"required"`
	ProductionCost   map[ProductID]float64 `validate:"required"`
	HoldingCostRate  float64
	MachineCapacity  map[PeriodID]float64  `validate:"required"`
	LaborCapacity    map[PeriodID]float64  `validate:"required"`
	MachineHours     map[ProductID]float64 `validate:"required"`
	LaborHours       map[ProductID]float64 `validate:"required"`
}

// HoldingCost returns the per-unit, per-period holding cost of a product
func (s *ProductionScenario) HoldingCost(product ProductID) float64 {
	return s.ProductionCost[product] * s.HoldingCostRate
}

// Validate checks identifiers, table completeness, and numeric ranges
func (s *ProductionScenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	checks := []error{
		checkProductValues("initial inventory", s.InitialInventory, s.Products, false),
		checkProductValues("safety stock", s.SafetyStock, s.Products, false),
		checkProductValues("machine hours", s.MachineHours, s.Products, false),
		checkProductValues("labor hours", s.LaborHours, s.Products, false),
		checkSigned("production cost", s.ProductionCost, s.Products),
		checkPeriodTable("demand", s.Demand, s.Products, s.Periods),
		checkPeriodValues("machine capacity", s.MachineCapacity, s.Periods),
		checkPeriodValues("labor capacity", s.LaborCapacity, s.Periods),
		checkFinite("holding cost rate", s.HoldingCostRate),
	}
	return firstInvalid(checks)
}

// BlendScenario is the input of the production-mix model. Demand is an upper
// bound on output per product, not a per-period series.
type BlendScenario struct {
	RawMaterials      []MaterialID           `validate:"required,min=1,unique,dive,required"`
	Products          []ProductID            `validate:"required,min=1,unique,dive,required"`
	OctaneNumber      map[MaterialID]float64 `validate:"required"`
	MaterialCost      map[MaterialID]float64 `validate:"required"`
	MaxAvailable      map[MaterialID]float64 `validate:"required"`
	OctaneRequirement map[ProductID]float64  `validate:"required"`
	SellingPrice      map[ProductID]float64  `validate:"required"`
	Demand            map[ProductID]float64  `validate:"required"`
}

// Validate checks identifiers, table completeness, and numeric ranges
func (s *BlendScenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	checks := []error{
		checkMaterialValues("octane number", s.OctaneNumber, s.RawMaterials, false, false),
		checkMaterialValues("material cost", s.MaterialCost, s.RawMaterials, true, false),
		checkMaterialValues("max available", s.MaxAvailable, s.RawMaterials, false, true),
		checkProductValues("octane requirement", s.OctaneRequirement, s.Products, false),
		checkSigned("selling price", s.SellingPrice, s.Products),
		checkProductValues("demand", s.Demand, s.Products, true),
	}
	return firstInvalid(checks)
}

// PlanningScenario is a named scenario for exactly one of the models
type PlanningScenario struct {
	Name       string
	Kind       ModelKind
	Inventory  *InventoryScenario
	Production *ProductionScenario
	Blend      *BlendScenario
}

// Validate checks that the section matching Kind is present and valid
func (s *PlanningScenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: scenario name cannot be empty", ErrInvalidScenario)
	}
	switch s.Kind {
	case InventoryBalance:
		if s.Inventory == nil {
			return fmt.Errorf("%w: scenario %s has no inventory section", ErrInvalidScenario, s.Name)
		}
		return s.Inventory.Validate()
	case ProductionPlanning:
		if s.Production == nil {
			return fmt.Errorf("%w: scenario %s has no production section", ErrInvalidScenario, s.Name)
		}
		return s.Production.Validate()
	case ProductMix:
		if s.Blend == nil {
			return fmt.Errorf("%w: scenario %s has no blend section", ErrInvalidScenario, s.Name)
		}
		return s.Blend.Validate()
	default:
		return fmt.Errorf("%w: scenario %s has unknown model %d", ErrInvalidScenario, s.Name, s.Kind)
	}
}

func firstInvalid(checks []error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid("%s must be finite, got %g", field, v)
	}
	return nil
}

func checkQuantity(field string, v float64, allowInf bool) error {
	if math.IsNaN(v) || math.IsInf(v, -1) || (!allowInf && math.IsInf(v, 1)) {
		return invalid("%s must be finite, got %g", field, v)
	}
	if v < 0 {
		return invalid("%s cannot be negative, got %g", field, v)
	}
	return nil
}

func checkProductValues(field string, values map[ProductID]float64, products []ProductID, allowInf bool) error {
	known := make(map[ProductID]bool, len(products))
	for _, p := range products {
		known[p] = true
		v, ok := values[p]
		if !ok {
			return invalid("%s missing for product %s", field, p)
		}
		if err := checkQuantity(fmt.Sprintf("%s for product %s", field, p), v, allowInf); err != nil {
			return err
		}
	}
	for p := range values {
		if !known[p] {
			return invalid("%s references unknown product %s", field, p)
		}
	}
	return nil
}

func checkSigned(field string, values map[ProductID]float64, products []ProductID) error {
	known := make(map[ProductID]bool, len(products))
	for _, p := range products {
		known[p] = true
		v, ok := values[p]
		if !ok {
			return invalid("%s missing for product %s", field, p)
		}
		if err := checkFinite(fmt.Sprintf("%s for product %s", field, p), v); err != nil {
			return err
		}
	}
	for p := range values {
		if !known[p] {
			return invalid("%s references unknown product %s", field, p)
		}
	}
	return nil
}

func checkMaterialValues(field string, values map[MaterialID]float64, materials []MaterialID, signed, allowInf bool) error {
	known := make(map[MaterialID]bool, len(materials))
	for _, m := range materials {
		known[m] = true
		v, ok := values[m]
		if !ok {
			return invalid("%s missing for material %s", field, m)
		}
		name := fmt.Sprintf("%s for material %s", field, m)
		if signed {
			if err := checkFinite(name, v); err != nil {
				return err
			}
			continue
		}
		if err := checkQuantity(name, v, allowInf); err != nil {
			return err
		}
	}
	for m := range values {
		if !known[m] {
			return invalid("%s references unknown material %s", field, m)
		}
	}
	return nil
}

func checkPeriodValues(field string, values map[PeriodID]float64, periods []PeriodID) error {
	known := make(map[PeriodID]bool, len(periods))
	for _, t := range periods {
		known[t] = true
		v, ok := values[t]
		if !ok {
			return invalid("%s missing for period %s", field, t)
		}
		if err := checkQuantity(fmt.Sprintf("%s for period %s", field, t), v, true); err != nil {
			return err
		}
	}
	for t := range values {
		if !known[t] {
			return invalid("%s references unknown period %s", field, t)
		}
	}
	return nil
}

func checkPeriodTable(field string, table PeriodTable, products []ProductID, periods []PeriodID) error {
	knownProducts := make(map[ProductID]bool, len(products))
	for _, p := range products {
		knownProducts[p] = true
	}
	knownPeriods := make(map[PeriodID]bool, len(periods))
	for _, t := range periods {
		knownPeriods[t] = true
	}

	for _, p := range products {
		for _, t := range periods {
			v, ok := table[ProductPeriod{Product: p, Period: t}]
			if !ok {
				return invalid("%s missing for %s in %s", field, p, t)
			}
			if err := checkQuantity(fmt.Sprintf("%s for %s in %s", field, p, t), v, false); err != nil {
				return err
			}
		}
	}
	for k := range table {
		if !knownProducts[k.Product] {
			return invalid("%s references unknown product %s", field, k.Product)
		}
		if !knownPeriods[k.Period] {
			return invalid("%s references unknown period %s", field, k.Period)
		}
	}
	return nil
}
