package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/services"
	"github.com/vsinha/balance/pkg/interfaces/cli/output"
)

func newKeysCommand() *cobra.Command {
	var products, periods []string

	cmd := &cobra.Command{
		Use:   "keys KEY[=VALUE]...",
		Short: "Show how flattened <product>_<period> keys are split",
		Long: `Keys resolves flattened keys the way scenario tables and the MCP tool do.
Known products and periods are matched first; anything else is split with the
underscore heuristic. Heuristic splits naming an unlisted product or period are
reported as unmatched and dropped, and keys without an underscore are skipped.`,
		Example: `  balance keys --products Product_A --periods Jan Product_A_Jan=250 Widget_Q1_2024=10`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			flat := make(map[string]float64, len(args))
			keys := make([]string, 0, len(args))
			for _, arg := range args {
				key, raw, hasValue := strings.Cut(arg, "=")
				value := 0.0
				if hasValue {
					v, err := strconv.ParseFloat(raw, 64)
					if err != nil {
						return fmt.Errorf("invalid value for key %s: %w", key, err)
					}
					value = v
				}
				flat[key] = value
				keys = append(keys, key)
			}

			productIDs := make([]entities.ProductID, len(products))
			for i, p := range products {
				productIDs[i] = entities.ProductID(p)
			}
			periodIDs := make([]entities.PeriodID, len(periods))
			for i, t := range periods {
				periodIDs[i] = entities.PeriodID(t)
			}

			idx := services.NewKeyIndex(productIDs, periodIDs)
			fmt.Fprintf(w, "%-28s %-20s %-14s %-10s %s\n", "Key", "Product", "Period", "Value", "Resolution")
			fmt.Fprintln(w, strings.Repeat("-", 84))
			for _, key := range keys {
				pair, resolution := idx.ParseFlatKey(key)
				if resolution == services.KeySkipped {
					fmt.Fprintf(w, "%-28s %-20s %-14s %-10g %s\n", key, "-", "-", flat[key], resolution)
					continue
				}
				label := resolution.String()
				if resolution == services.KeyHeuristic && !idx.Admits(pair) {
					label = "unmatched"
				}
				fmt.Fprintf(w, "%-28s %-20s %-14s %-10g %s\n", key, pair.Product, pair.Period, flat[key], label)
			}

			table, report := services.UnflattenKeys(flat, productIDs, periodIDs)
			fmt.Fprintf(w, "\n%d pair(s) resolved\n", len(table))
			output.WriteKeyNotes(w, report)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&products, "products", nil, "known product identifiers")
	cmd.Flags().StringSliceVar(&periods, "periods", nil, "known period identifiers")
	return cmd
}
