package scenariofile

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/balance/pkg/domain/entities"
)

const inventoryDoc = `
name: small
model: inventory
inventory:
  products: [X]
  periods: [T1, T2]
  initial_inventory: {X: 0}
  effective_demand:
    X: {T1: 100}
  effective_demand_file: demand.csv
  yielded_supply:
    X: {T1: 60, T2: 60}
  safety_stock_target: {X: 0}
  shortage_cost: 5
  excess_cost: 1
`

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestLoader_LoadInventoryWithCSVTable(t *testing.T) {
	fs := memFs(t, map[string]string{
		"plans/small.yaml": inventoryDoc,
		"plans/demand.csv": "key,quantity\nX_T2,40\nnodelimiter,1\n",
	})

	scenario, report, err := NewLoader(fs).Load("plans/small.yaml")
	require.NoError(t, err)

	assert.Equal(t, "small", scenario.Name)
	assert.Equal(t, entities.InventoryBalance, scenario.Kind)
	require.NotNil(t, scenario.Inventory)
	assert.Equal(t, []entities.PeriodID{"T1", "T2"}, scenario.Inventory.Periods)
	assert.Equal(t, 100.0, scenario.Inventory.EffectiveDemand.Get("X", "T1"))
	assert.Equal(t, 40.0, scenario.Inventory.EffectiveDemand.Get("X", "T2"))
	assert.Equal(t, []string{"nodelimiter"}, report.Skipped)
	assert.NoError(t, scenario.Validate())
}

func TestLoader_LoadDirectoryUsesScenarioFile(t *testing.T) {
	fs := memFs(t, map[string]string{
		"mix/scenario.yaml": `
model: blend
blend:
  raw_materials: [M]
  products: [P]
  octane_number: {M: 95}
  material_cost: {M: 10}
  max_available: {M: .inf}
  octane_requirement: {P: 95}
  selling_price: {P: 50}
  demand: {P: 100}
`,
	})

	scenario, _, err := NewLoader(fs).Load("mix")
	require.NoError(t, err)

	assert.Equal(t, "mix", scenario.Name)
	assert.Equal(t, entities.ProductMix, scenario.Kind)
	assert.True(t, math.IsInf(scenario.Blend.MaxAvailable["M"], 1))
	assert.NoError(t, scenario.Validate())
}

func TestLoader_LoadErrors(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		path        string
		expectError string
	}{
		{
			name:        "missing_path",
			files:       map[string]string{},
			path:        "nowhere.yaml",
			expectError: "scenario not found at nowhere.yaml",
		},
		{
			name:        "directory_without_scenario",
			files:       map[string]string{"dir/other.yaml": "model: blend"},
			path:        "dir",
			expectError: "has no scenario.yaml",
		},
		{
			name:        "unknown_field",
			files:       map[string]string{"a.yaml": "model: inventory\nhorizon: 3\n"},
			path:        "a.yaml",
			expectError: "failed to parse scenario",
		},
		{
			name:        "unknown_model",
			files:       map[string]string{"a.yaml": "model: scheduling\n"},
			path:        "a.yaml",
			expectError: `unknown model "scheduling"`,
		},
		{
			name:        "section_mismatch",
			files:       map[string]string{"a.yaml": "model: production\nblend:\n  products: [P]\n"},
			path:        "a.yaml",
			expectError: "requires a production section",
		},
		{
			name: "inline_and_file_overlap",
			files: map[string]string{
				"small.yaml": inventoryDoc,
				"demand.csv": "product,period,quantity\nX,T1,5\n",
			},
			path:        "small.yaml",
			expectError: "effective demand given both inline and in file for (X, T1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewLoader(memFs(t, tt.files)).Load(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestLoader_LoadShippedExamples(t *testing.T) {
	root := filepath.Join("..", "..", "..", "..", "examples", "scenarios")
	loader := NewLoader(afero.NewOsFs())

	scenarios, report, err := loader.LoadAll([]string{
		filepath.Join(root, "inventory_demo.yaml"),
		filepath.Join(root, "multi_period_demo.yaml"),
		filepath.Join(root, "product_mix_demo.yaml"),
		filepath.Join(root, "inventory_csv"),
	})
	require.NoError(t, err)
	require.Len(t, scenarios, 4)
	assert.Zero(t, report.SkippedCount())

	for _, s := range scenarios {
		assert.NoError(t, s.Validate(), s.Name)
	}
	assert.Equal(t, "inventory_csv", scenarios[3].Name)
	assert.Equal(t,
		scenarios[0].Inventory.YieldedSupply,
		scenarios[3].Inventory.YieldedSupply)
}
