package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"github.com/vsinha/balance/pkg/application/dto"
	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/infrastructure/events"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Fs receives files written under OutputDir. Defaults to the OS filesystem.
	Fs afero.Fs
	// Out receives reports that are not written to files. Defaults to stdout.
	Out io.Writer
}

func (c Config) withDefaults() Config {
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	return c
}

// Generate renders a plan result in the configured format
func Generate(result *dto.PlanResult, config Config) error {
	config = config.withDefaults()
	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config, result.Scenario+"_plan.json")
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateBatch renders a batch summary. CSV writes one summary file.
func GenerateBatch(summary *dto.BatchSummary, config Config) error {
	config = config.withDefaults()
	switch config.Format {
	case "text":
		WriteBatchSummary(config.Out, summary)
		return nil
	case "json":
		return generateJSONOutput(summary, config, "batch_summary.json")
	case "csv":
		rows := [][]string{{"scenario", "model", "status", "objective", "nodes", "error"}}
		for _, e := range summary.Entries {
			if e.Err != nil {
				rows = append(rows, []string{e.Scenario, "", "", "", "", e.Error})
				continue
			}
			meta := e.Result.Meta()
			rows = append(rows, []string{
				e.Scenario,
				e.Result.Kind.String(),
				meta.Status.String(),
				formatFloat(e.Result.Objective()),
				strconv.Itoa(meta.Nodes),
				"",
			})
		}
		return writeCSVFiles(config, map[string][][]string{"batch_summary.csv": rows})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// WriteEvents prints a run journal as JSON lines
func WriteEvents(w io.Writer, journal []events.Event) error {
	enc := json.NewEncoder(w)
	for _, e := range journal {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to encode event %s: %w", e.Type(), err)
		}
	}
	return nil
}

// generateTextOutput prints the report and, with an output dir, saves a copy
func generateTextOutput(result *dto.PlanResult, config Config) error {
	WritePlanReport(config.Out, result)

	if config.OutputDir == "" {
		return nil
	}
	if err := config.Fs.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, result.Scenario+"_report.txt")
	f, err := config.Fs.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	WritePlanReport(f, result)

	if config.Verbose {
		fmt.Fprintf(config.Out, "Results saved to: %s\n", filename)
	}
	return nil
}

func generateJSONOutput(value any, config Config, filename string) error {
	jsonData, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.Out, string(jsonData))
		return nil
	}

	if err := config.Fs.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	if err := afero.WriteFile(config.Fs, path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "JSON results saved to: %s\n", path)
	}
	return nil
}

// generateCSVOutput writes one <scenario>_<table>.csv file per result table
func generateCSVOutput(result *dto.PlanResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	files := make(map[string][][]string)
	prefix := result.Scenario + "_"
	switch {
	case result.Inventory != nil:
		files[prefix+"inventory.csv"] = inventoryRows(result.Inventory)
	case result.Production != nil:
		files[prefix+"production.csv"] = productionRows(result.Production)
		files[prefix+"utilization.csv"] = utilizationRows(result.Utilization)
	case result.Blend != nil:
		files[prefix+"allocation.csv"] = allocationRows(result.Blend)
		files[prefix+"output.csv"] = outputRows(result.Blend)
	}
	return writeCSVFiles(config, files)
}

func writeCSVFiles(config Config, files map[string][][]string) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := config.Fs.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for name, rows := range files {
		path := filepath.Join(config.OutputDir, name)
		if err := writeCSV(config.Fs, path, rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.Out, "CSV results saved to: %s\n", path)
		}
	}
	return nil
}

func writeCSV(fs afero.Fs, path string, rows [][]string) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func inventoryRows(plan *entities.InventoryPlan) [][]string {
	rows := [][]string{{"product", "period", "inventory", "shortage", "excess"}}
	for _, p := range plan.Products {
		for _, t := range plan.Periods {
			rows = append(rows, []string{
				string(p), string(t),
				formatFloat(plan.Inventory.Get(p, t)),
				formatFloat(plan.Shortage.Get(p, t)),
				formatFloat(plan.Excess.Get(p, t)),
			})
		}
	}
	return rows
}

func productionRows(plan *entities.ProductionPlan) [][]string {
	rows := [][]string{{"product", "period", "production", "inventory"}}
	for _, p := range plan.Products {
		for _, t := range plan.Periods {
			rows = append(rows, []string{
				string(p), string(t),
				formatFloat(plan.Production.Get(p, t)),
				formatFloat(plan.Inventory.Get(p, t)),
			})
		}
	}
	return rows
}

func utilizationRows(usage []dto.ResourceUsage) [][]string {
	rows := [][]string{{"period", "machine_used", "machine_available", "machine_utilization", "labor_used", "labor_available", "labor_utilization"}}
	for _, u := range usage {
		rows = append(rows, []string{
			string(u.Period),
			formatFloat(u.MachineUsed), formatCapacity(u.MachineAvailable, u.MachineUnlimited), formatFloat(u.MachineUtilization),
			formatFloat(u.LaborUsed), formatCapacity(u.LaborAvailable, u.LaborUnlimited), formatFloat(u.LaborUtilization),
		})
	}
	return rows
}

func allocationRows(plan *entities.BlendPlan) [][]string {
	rows := [][]string{{"material", "product", "quantity"}}
	for _, m := range plan.Materials {
		for _, p := range plan.Products {
			rows = append(rows, []string{string(m), string(p), formatFloat(plan.Allocation.Get(m, p))})
		}
	}
	return rows
}

func outputRows(plan *entities.BlendPlan) [][]string {
	rows := [][]string{{"product", "output"}}
	for _, p := range plan.Products {
		rows = append(rows, []string{string(p), formatFloat(plan.Output[p])})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCapacity(v float64, unlimited bool) string {
	if unlimited {
		return "unlimited"
	}
	return formatFloat(v)
}
