package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProductID names a good being produced, stocked, or blended
type ProductID string

// PeriodID names a discrete planning interval. Period order is the order in
// which periods are supplied; it is never sorted.
type PeriodID string

// MaterialID names a raw material feeding a blend
type MaterialID string

// ProductPeriod is the composite key for per-product, per-period quantities
type ProductPeriod struct {
	Product ProductID
	Period  PeriodID
}

// String returns the string representation of ProductPeriod
func (k ProductPeriod) String() string {
	return fmt.Sprintf("(%s, %s)", k.Product, k.Period)
}

// MaterialProduct is the composite key for raw material allocations
type MaterialProduct struct {
	Material MaterialID
	Product  ProductID
}

// String returns the string representation of MaterialProduct
func (k MaterialProduct) String() string {
	return fmt.Sprintf("(%s, %s)", k.Material, k.Product)
}

// PeriodTable maps (product, period) pairs to quantities. Missing entries read as zero.
type PeriodTable map[ProductPeriod]float64

// Get returns the value for a product and period, or zero
func (t PeriodTable) Get(product ProductID, period PeriodID) float64 {
	return t[ProductPeriod{Product: product, Period: period}]
}

// Set stores the value for a product and period
func (t PeriodTable) Set(product ProductID, period PeriodID, value float64) {
	t[ProductPeriod{Product: product, Period: period}] = value
}

// Sum totals every entry
func (t PeriodTable) Sum() float64 {
	total := 0.0
	for _, v := range t {
		total += v
	}
	return total
}

// MarshalJSON encodes the table as {"product": {"period": value}}
func (t PeriodTable) MarshalJSON() ([]byte, error) {
	nested := make(map[ProductID]map[PeriodID]float64)
	for k, v := range t {
		if nested[k.Product] == nil {
			nested[k.Product] = make(map[PeriodID]float64)
		}
		nested[k.Product][k.Period] = v
	}
	return json.Marshal(nested)
}

// AllocationTable maps (material, product) pairs to allocated quantities
type AllocationTable map[MaterialProduct]float64

// Get returns the allocation of a material to a product, or zero
func (t AllocationTable) Get(material MaterialID, product ProductID) float64 {
	return t[MaterialProduct{Material: material, Product: product}]
}

// MarshalJSON encodes the table as {"material": {"product": value}}
func (t AllocationTable) MarshalJSON() ([]byte, error) {
	nested := make(map[MaterialID]map[ProductID]float64)
	for k, v := range t {
		if nested[k.Material] == nil {
			nested[k.Material] = make(map[ProductID]float64)
		}
		nested[k.Material][k.Product] = v
	}
	return json.Marshal(nested)
}

// ModelKind identifies one of the planning models
type ModelKind int

const (
	InventoryBalance ModelKind = iota
	ProductionPlanning
	ProductMix
)

// String method for ModelKind enum
func (k ModelKind) String() string {
	switch k {
	case InventoryBalance:
		return "inventory"
	case ProductionPlanning:
		return "production"
	case ProductMix:
		return "blend"
	default:
		return "unknown"
	}
}

// MarshalText encodes the model kind by name
func (k ModelKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseModelKind parses the names produced by ModelKind.String
func ParseModelKind(s string) (ModelKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inventory":
		return InventoryBalance, nil
	case "production":
		return ProductionPlanning, nil
	case "blend", "mix":
		return ProductMix, nil
	default:
		return 0, fmt.Errorf("unknown model %q (expected inventory, production or blend)", s)
	}
}
