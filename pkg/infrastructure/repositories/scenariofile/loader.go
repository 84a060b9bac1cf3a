package scenariofile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/services"
	"github.com/vsinha/balance/pkg/infrastructure/repositories/csv"
)

// DefaultFileName is the scenario file looked up when a directory is given
const DefaultFileName = "scenario.yaml"

// Loader reads scenario documents and any CSV tables they reference
type Loader struct {
	fs     afero.Fs
	tables *csv.Loader
}

// NewLoader creates a scenario loader reading from fs
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs, tables: csv.NewLoader(fs)}
}

// Resolve maps a scenario path to its document. A directory resolves to the
// scenario.yaml inside it.
func (l *Loader) Resolve(path string) (string, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return "", fmt.Errorf("scenario not found at %s: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}
	file := filepath.Join(path, DefaultFileName)
	if _, err := l.fs.Stat(file); err != nil {
		return "", fmt.Errorf("scenario directory %s has no %s: %w", path, DefaultFileName, err)
	}
	return file, nil
}

// Load reads and converts a scenario. The returned report lists flattened
// table keys that were skipped or split heuristically.
func (l *Loader) Load(path string) (*entities.PlanningScenario, services.KeyReport, error) {
	file, err := l.Resolve(path)
	if err != nil {
		return nil, services.KeyReport{}, err
	}
	data, err := afero.ReadFile(l.fs, file)
	if err != nil {
		return nil, services.KeyReport{}, fmt.Errorf("failed to read scenario %s: %w", file, err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, services.KeyReport{}, fmt.Errorf("failed to parse scenario %s: %w", file, err)
	}
	if doc.Name == "" {
		doc.Name = scenarioName(file)
	}

	scenario, report, err := l.convert(&doc, filepath.Dir(file))
	if err != nil {
		return nil, report, fmt.Errorf("scenario %s: %w", file, err)
	}
	return scenario, report, nil
}

// LoadAll loads several scenarios, merging their key reports
func (l *Loader) LoadAll(paths []string) ([]*entities.PlanningScenario, services.KeyReport, error) {
	var (
		scenarios []*entities.PlanningScenario
		report    services.KeyReport
	)
	for _, path := range paths {
		s, r, err := l.Load(path)
		if err != nil {
			return nil, report, err
		}
		report.Merge(r)
		scenarios = append(scenarios, s)
	}
	return scenarios, report, nil
}

func scenarioName(file string) string {
	base := filepath.Base(file)
	if base == DefaultFileName {
		return filepath.Base(filepath.Dir(file))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (l *Loader) convert(doc *Document, dir string) (*entities.PlanningScenario, services.KeyReport, error) {
	kind, err := entities.ParseModelKind(doc.Model)
	if err != nil {
		return nil, services.KeyReport{}, err
	}
	scenario := &entities.PlanningScenario{Name: doc.Name, Kind: kind}

	switch kind {
	case entities.InventoryBalance:
		if doc.Inventory == nil {
			return nil, services.KeyReport{}, fmt.Errorf("model %s requires an inventory section", kind)
		}
		inv, report, err := l.inventory(doc.Inventory, dir)
		scenario.Inventory = inv
		return scenario, report, err
	case entities.ProductionPlanning:
		if doc.Production == nil {
			return nil, services.KeyReport{}, fmt.Errorf("model %s requires a production section", kind)
		}
		prod, report, err := l.production(doc.Production, dir)
		scenario.Production = prod
		return scenario, report, err
	default:
		if doc.Blend == nil {
			return nil, services.KeyReport{}, fmt.Errorf("model %s requires a blend section", kind)
		}
		scenario.Blend = blend(doc.Blend)
		return scenario, services.KeyReport{}, nil
	}
}

func (l *Loader) inventory(doc *InventoryDoc, dir string) (*entities.InventoryScenario, services.KeyReport, error) {
	s := &entities.InventoryScenario{
		Products:          toProducts(doc.Products),
		Periods:           toPeriods(doc.Periods),
		InitialInventory:  byProduct(doc.InitialInventory),
		SafetyStockTarget: byProduct(doc.SafetyStockTarget),
		ShortageCost:      doc.ShortageCost,
		ExcessCost:        doc.ExcessCost,
	}

	var report services.KeyReport
	var err error
	s.EffectiveDemand, err = l.table("effective demand", doc.EffectiveDemand, doc.EffectiveDemandFile, dir, s.Products, s.Periods, &report)
	if err != nil {
		return nil, report, err
	}
	s.YieldedSupply, err = l.table("yielded supply", doc.YieldedSupply, doc.YieldedSupplyFile, dir, s.Products, s.Periods, &report)
	if err != nil {
		return nil, report, err
	}
	return s, report, nil
}

func (l *Loader) production(doc *ProductionDoc, dir string) (*entities.ProductionScenario, services.KeyReport, error) {
	s := &entities.ProductionScenario{
		Products:         toProducts(doc.Products),
		Periods:          toPeriods(doc.Periods),
		InitialInventory: byProduct(doc.InitialInventory),
		SafetyStock:      byProduct(doc.SafetyStock),
		ProductionCost:   byProduct(doc.ProductionCost),
		HoldingCostRate:  doc.HoldingCostRate,
		MachineCapacity:  byPeriod(doc.MachineCapacity),
		LaborCapacity:    byPeriod(doc.LaborCapacity),
		MachineHours:     byProduct(doc.MachineHours),
		LaborHours:       byProduct(doc.LaborHours),
	}

	var report services.KeyReport
	var err error
	s.Demand, err = l.table("demand", doc.Demand, doc.DemandFile, dir, s.Products, s.Periods, &report)
	if err != nil {
		return nil, report, err
	}
	return s, report, nil
}

func blend(doc *BlendDoc) *entities.BlendScenario {
	return &entities.BlendScenario{
		RawMaterials:      toMaterials(doc.RawMaterials),
		Products:          toProducts(doc.Products),
		OctaneNumber:      byMaterial(doc.OctaneNumber),
		MaterialCost:      byMaterial(doc.MaterialCost),
		MaxAvailable:      byMaterial(doc.MaxAvailable),
		OctaneRequirement: byProduct(doc.OctaneRequirement),
		SellingPrice:      byProduct(doc.SellingPrice),
		Demand:            byProduct(doc.Demand),
	}
}

func (l *Loader) table(field string, inline NestedTable, file, dir string, products []entities.ProductID, periods []entities.PeriodID, report *services.KeyReport) (entities.PeriodTable, error) {
	table := inline.toPeriodTable()
	if file == "" {
		return table, nil
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	loaded, r, err := l.tables.LoadTable(file, products, periods)
	if err != nil {
		return nil, err
	}
	report.Merge(r)
	return mergeTable(field, table, loaded)
}
