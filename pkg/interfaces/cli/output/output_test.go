package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/balance/pkg/application/dto"
	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/services"
	"github.com/vsinha/balance/pkg/infrastructure/events"
)

func inventoryResult(status entities.Status) *dto.PlanResult {
	plan := &entities.InventoryPlan{
		PlanMeta:  entities.PlanMeta{RunID: "run-1", Scenario: "single", Status: status},
		Products:  []entities.ProductID{"X"},
		Periods:   []entities.PeriodID{"T1"},
		Inventory: entities.PeriodTable{},
		Shortage:  entities.PeriodTable{},
		Excess:    entities.PeriodTable{},
	}
	if status == entities.StatusOptimal {
		plan.TotalCost = 200
		plan.Shortage.Set("X", "T1", 40)
		plan.Inventory.Set("X", "T1", 0)
		plan.Excess.Set("X", "T1", 0)
	}
	return &dto.PlanResult{
		Scenario:  "single",
		Kind:      entities.InventoryBalance,
		Inventory: plan,
		Costs: &dto.CostBreakdown{
			Components: []dto.CostComponent{
				{Name: "Shortage", Amount: decimal.NewFromInt(200)},
				{Name: "Excess", Amount: decimal.Zero},
			},
			Total: decimal.NewFromInt(200),
		},
	}
}

func TestGenerate_Text(t *testing.T) {
	var out bytes.Buffer
	fs := afero.NewMemMapFs()

	err := Generate(inventoryResult(entities.StatusOptimal), Config{Format: "text", OutputDir: "out", Fs: fs, Out: &out})
	require.NoError(t, err)

	report := out.String()
	assert.Contains(t, report, "Inventory Optimization Results")
	assert.Contains(t, report, "Status: Optimal")
	assert.Contains(t, report, "Total Cost: $200.00")
	assert.Contains(t, report, "T1       0.0          40.0         0.0")
	assert.Contains(t, report, "Total shortage cost: $200.00")
	assert.Contains(t, report, "Total excess cost: $0.00")

	saved, err := afero.ReadFile(fs, filepath.Join("out", "single_report.txt"))
	require.NoError(t, err)
	assert.Equal(t, report, string(saved))
}

func TestGenerate_TextNotOptimal(t *testing.T) {
	var out bytes.Buffer
	result := inventoryResult(entities.StatusInfeasible)
	result.Keys = services.KeyReport{Skipped: []string{"BAD"}}

	require.NoError(t, Generate(result, Config{Format: "text", Out: &out}))
	assert.Contains(t, out.String(), "Status: Infeasible")
	assert.Contains(t, out.String(), noSolution)
	assert.Contains(t, out.String(), "1 key(s) without an underscore were skipped: BAD")
	assert.NotContains(t, out.String(), "Cost Breakdown")
}

func TestWritePlanReport_BlendWithIdleProduct(t *testing.T) {
	result := &dto.PlanResult{
		Scenario: "mix",
		Kind:     entities.ProductMix,
		Blend: &entities.BlendPlan{
			PlanMeta: entities.PlanMeta{Scenario: "mix", Status: entities.StatusOptimal},
			Profit:   2000,
		},
		BlendReport: &dto.BlendReport{
			Materials: []dto.MaterialUsage{
				{Material: "L", Used: 50, Unlimited: true},
				{Material: "H", Used: 50, Unlimited: true},
			},
			Compositions: []dto.Composition{
				{
					Product:  "Regular",
					Output:   100,
					Produced: true,
					Shares: []dto.MaterialShare{
						{Material: "L", Quantity: 50, Percent: 50},
						{Material: "H", Quantity: 50, Percent: 50},
					},
					AchievedOctane:   90,
					RequiredOctane:   90,
					MeetsRequirement: true,
				},
				{Product: "Premium", RequiredOctane: 100},
			},
			Revenue:      decimal.NewFromInt(4000),
			MaterialCost: decimal.NewFromInt(2000),
			Profit:       decimal.NewFromInt(2000),
		},
	}

	var out bytes.Buffer
	WritePlanReport(&out, result)
	report := out.String()

	assert.Contains(t, report, "Premium: 0.00\n")
	assert.Contains(t, report, "\nPremium Mix:\n  Not produced\n")
	assert.Contains(t, report, "  L: 50.0% (50.00)\n")
	assert.Contains(t, report, "Regular: Requirement = 90, Achieved = 90.00\n")
	assert.NotContains(t, report, "Premium: Requirement")
	assert.Contains(t, report, "Profit: 2000.00\n")
}

func TestGenerate_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Generate(inventoryResult(entities.StatusOptimal), Config{Format: "json", Out: &out}))

	var decoded struct {
		Scenario  string `json:"scenario"`
		Model     string `json:"model"`
		Inventory struct {
			Status   string                        `json:"status"`
			Shortage map[string]map[string]float64 `json:"shortage"`
		} `json:"inventory"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "inventory", decoded.Model)
	assert.Equal(t, "Optimal", decoded.Inventory.Status)
	assert.Equal(t, 40.0, decoded.Inventory.Shortage["X"]["T1"])
}

func TestGenerate_CSV(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := Generate(inventoryResult(entities.StatusOptimal), Config{Format: "csv", OutputDir: "out", Fs: fs, Out: &bytes.Buffer{}})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, filepath.Join("out", "single_inventory.csv"))
	require.NoError(t, err)
	assert.Equal(t, "product,period,inventory,shortage,excess\nX,T1,0,40,0\n", string(data))

	err = Generate(inventoryResult(entities.StatusOptimal), Config{Format: "csv", Fs: fs})
	assert.Error(t, err)
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	err := Generate(inventoryResult(entities.StatusOptimal), Config{Format: "xml", Out: &bytes.Buffer{}})
	assert.EqualError(t, err, "unsupported output format: xml")
}

func TestGenerateBatch(t *testing.T) {
	summary := &dto.BatchSummary{
		Entries: []dto.BatchEntry{
			{Scenario: "single", Result: inventoryResult(entities.StatusOptimal)},
			{Scenario: "broken", Err: errors.New("invalid scenario"), Error: "invalid scenario"},
		},
		Optimal: 1,
		Failed:  1,
	}

	var out bytes.Buffer
	require.NoError(t, GenerateBatch(summary, Config{Format: "text", Out: &out}))
	assert.Contains(t, out.String(), "error: invalid scenario")
	assert.Contains(t, out.String(), "2 scenarios, 1 optimal, 0 not optimal, 1 failed")

	fs := afero.NewMemMapFs()
	require.NoError(t, GenerateBatch(summary, Config{Format: "csv", OutputDir: "out", Fs: fs, Out: &out}))
	data, err := afero.ReadFile(fs, filepath.Join("out", "batch_summary.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "single,inventory,Optimal,200,0,\n")
	assert.Contains(t, string(data), "broken,,,,,invalid scenario\n")
}

func TestWriteEvents(t *testing.T) {
	var out bytes.Buffer
	journal := []events.Event{
		events.NewEvent(events.PlanSolveStartedEvent, "run-1", events.PlanSolveStarted{Scenario: "single", Columns: 3, Rows: 3}),
	}
	require.NoError(t, WriteEvents(&out, journal))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, events.PlanSolveStartedEvent, decoded["type"])
	assert.Equal(t, "run-1", decoded["stream"])
}
