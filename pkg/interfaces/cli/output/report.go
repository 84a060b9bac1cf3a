package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vsinha/balance/pkg/application/dto"
	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/services"
)

const noSolution = "No optimal solution found."

// WritePlanReport writes the human-readable report for any plan result
func WritePlanReport(w io.Writer, result *dto.PlanResult) {
	fmt.Fprintf(w, "Scenario: %s (%s model)\n\n", result.Scenario, result.Kind)
	switch {
	case result.Inventory != nil:
		WriteInventoryReport(w, result.Inventory, result.Costs, result.Keys)
	case result.Production != nil:
		writeProductionReport(w, result)
	case result.Blend != nil:
		writeBlendReport(w, result)
	}
}

// WriteInventoryReport writes the inventory optimization report: per-product
// inventory, shortage and excess tables followed by the cost breakdown.
func WriteInventoryReport(w io.Writer, plan *entities.InventoryPlan, costs *dto.CostBreakdown, keys services.KeyReport) {
	fmt.Fprintln(w, "Inventory Optimization Results")
	fmt.Fprintln(w, strings.Repeat("=", 30))
	fmt.Fprintf(w, "Status: %s\n", plan.Status)
	fmt.Fprintf(w, "Total Cost: $%.2f\n", plan.TotalCost)

	if !plan.IsOptimal() {
		writeNoSolution(w, plan.PlanMeta)
		WriteKeyNotes(w, keys)
		return
	}

	fmt.Fprintln(w)
	for _, p := range plan.Products {
		fmt.Fprintf(w, "\n%s:\n", p)
		fmt.Fprintf(w, "%-8s %-12s %-12s %-12s\n", "Period", "Inventory", "Shortage", "Excess")
		fmt.Fprintln(w, strings.Repeat("-", 45))
		for _, t := range plan.Periods {
			fmt.Fprintf(w, "%-8s %-12.1f %-12.1f %-12.1f\n",
				t,
				plan.Inventory.Get(p, t),
				plan.Shortage.Get(p, t),
				plan.Excess.Get(p, t))
		}
	}

	if costs != nil {
		fmt.Fprintln(w, "\nCost Breakdown")
		fmt.Fprintln(w, strings.Repeat("=", 20))
		writeCostLines(w, costs)
	}
	WriteKeyNotes(w, keys)
}

func writeProductionReport(w io.Writer, result *dto.PlanResult) {
	plan := result.Production
	fmt.Fprintln(w, "Production Planning Results")
	fmt.Fprintln(w, strings.Repeat("=", 27))
	fmt.Fprintf(w, "Status: %s\n", plan.Status)
	if !plan.IsOptimal() {
		writeNoSolution(w, plan.PlanMeta)
		return
	}
	fmt.Fprintf(w, "Total Cost: $%.2f\n", plan.TotalCost)
	fmt.Fprintf(w, "Branch and bound nodes: %d\n", plan.Nodes)

	fmt.Fprintln(w, "\nProduction Plan:")
	writePeriodGrid(w, plan.Products, plan.Periods, plan.Production)
	fmt.Fprintln(w, "\nEnding Inventory:")
	writePeriodGrid(w, plan.Products, plan.Periods, plan.Inventory)

	if len(result.Utilization) > 0 {
		fmt.Fprintln(w, "\nResource Utilization:")
		fmt.Fprintf(w, "%-10s %-30s %-30s\n", "Period", "Machine Hours (Used/Available)", "Labor Hours (Used/Available)")
		fmt.Fprintln(w, strings.Repeat("-", 70))
		for _, u := range result.Utilization {
			machine := usageCell(u.MachineUsed, u.MachineAvailable, u.MachineUnlimited, u.MachineUtilization)
			labor := usageCell(u.LaborUsed, u.LaborAvailable, u.LaborUnlimited, u.LaborUtilization)
			fmt.Fprintf(w, "%-10s %-30s %-30s\n", u.Period, machine, labor)
		}
	}

	if result.Costs != nil {
		fmt.Fprintln(w, "\nCost Breakdown")
		fmt.Fprintln(w, strings.Repeat("=", 20))
		writeCostLines(w, result.Costs)
	}
}

func writeBlendReport(w io.Writer, result *dto.PlanResult) {
	plan := result.Blend
	fmt.Fprintln(w, "Production Mix Results")
	fmt.Fprintln(w, strings.Repeat("=", 22))
	fmt.Fprintf(w, "Status: %s\n", plan.Status)
	if !plan.IsOptimal() {
		writeNoSolution(w, plan.PlanMeta)
		return
	}
	fmt.Fprintf(w, "Total Profit: %.2f\n", plan.Profit)

	report := result.BlendReport
	if report == nil {
		return
	}

	fmt.Fprintln(w, "\nProduction Quantities:")
	for _, c := range report.Compositions {
		fmt.Fprintf(w, "%s: %.2f\n", c.Product, c.Output)
	}

	fmt.Fprintln(w, "\nRaw Material Usage:")
	for _, m := range report.Materials {
		if m.Unlimited {
			fmt.Fprintf(w, "%s: %.2f (unlimited availability)\n", m.Material, m.Used)
			continue
		}
		fmt.Fprintf(w, "%s: %.2f (%.1f%% of available %g)\n", m.Material, m.Used, m.Utilization, m.Available)
	}

	fmt.Fprintln(w, "\nProduct Composition:")
	for _, c := range report.Compositions {
		fmt.Fprintf(w, "\n%s Mix:\n", c.Product)
		if !c.Produced {
			fmt.Fprintln(w, "  Not produced")
			continue
		}
		for _, share := range c.Shares {
			fmt.Fprintf(w, "  %s: %.1f%% (%.2f)\n", share.Material, share.Percent, share.Quantity)
		}
	}

	fmt.Fprintln(w, "\nOctane Verification:")
	for _, c := range report.Compositions {
		if !c.Produced {
			continue
		}
		fmt.Fprintf(w, "%s: Requirement = %g, Achieved = %.2f\n", c.Product, c.RequiredOctane, c.AchievedOctane)
	}

	fmt.Fprintf(w, "\nRevenue: %s\n", report.Revenue.StringFixed(2))
	fmt.Fprintf(w, "Material cost: %s\n", report.MaterialCost.StringFixed(2))
	fmt.Fprintf(w, "Profit: %s\n", report.Profit.StringFixed(2))
}

// WriteBatchSummary writes one line per scenario followed by the totals
func WriteBatchSummary(w io.Writer, summary *dto.BatchSummary) {
	fmt.Fprintf(w, "%-24s %-12s %-12s %-14s %-8s %-10s\n", "Scenario", "Model", "Status", "Objective", "Nodes", "Time")
	fmt.Fprintln(w, strings.Repeat("-", 84))
	for _, e := range summary.Entries {
		if e.Err != nil {
			fmt.Fprintf(w, "%-24s %-12s %s\n", e.Scenario, "-", "error: "+e.Error)
			continue
		}
		meta := e.Result.Meta()
		fmt.Fprintf(w, "%-24s %-12s %-12s %-14.2f %-8d %-10s\n",
			e.Scenario,
			e.Result.Kind,
			meta.Status,
			e.Result.Objective(),
			meta.Nodes,
			e.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, summary.GetSummary())
}

func writePeriodGrid(w io.Writer, products []entities.ProductID, periods []entities.PeriodID, values entities.PeriodTable) {
	fmt.Fprintf(w, "%-10s", "Period")
	for _, p := range products {
		fmt.Fprintf(w, " %-10s", p)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 11*(len(products)+1)))
	for _, t := range periods {
		fmt.Fprintf(w, "%-10s", t)
		for _, p := range products {
			fmt.Fprintf(w, " %-10.0f", values.Get(p, t))
		}
		fmt.Fprintln(w)
	}
}

func usageCell(used, available float64, unlimited bool, utilization float64) string {
	if unlimited {
		return fmt.Sprintf("%.1f/unlimited", used)
	}
	return fmt.Sprintf("%.1f/%g (%.1f%%)", used, available, utilization)
}

func writeCostLines(w io.Writer, costs *dto.CostBreakdown) {
	for _, c := range costs.Components {
		fmt.Fprintf(w, "Total %s cost: $%s\n", strings.ToLower(c.Name), c.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "Total cost: $%s\n", costs.Total.StringFixed(2))
}

func writeNoSolution(w io.Writer, meta entities.PlanMeta) {
	fmt.Fprintf(w, "\n%s\n", noSolution)
	if meta.Reason != "" {
		fmt.Fprintf(w, "Reason: %s\n", meta.Reason)
	}
}

// WriteKeyNotes reports flattened keys that were dropped or split heuristically
func WriteKeyNotes(w io.Writer, keys services.KeyReport) {
	if keys.Empty() {
		return
	}
	fmt.Fprintln(w)
	if n := keys.SkippedCount(); n > 0 {
		fmt.Fprintf(w, "Note: %d key(s) without an underscore were skipped: %s\n", n, strings.Join(keys.Skipped, ", "))
	}
	if len(keys.Unmatched) > 0 {
		fmt.Fprintf(w, "Note: %d key(s) named a product or period outside the lists and were skipped: %s\n",
			len(keys.Unmatched), strings.Join(keys.Unmatched, ", "))
	}
	if len(keys.Heuristic) > 0 {
		fmt.Fprintf(w, "Note: %d key(s) did not match the product and period lists and were split heuristically: %s\n",
			len(keys.Heuristic), strings.Join(keys.Heuristic, ", "))
	}
	if len(keys.Ambiguous) > 0 {
		fmt.Fprintf(w, "Note: %d key(s) had more than one valid split; the leftmost was used: %s\n",
			len(keys.Ambiguous), strings.Join(keys.Ambiguous, ", "))
	}
}
