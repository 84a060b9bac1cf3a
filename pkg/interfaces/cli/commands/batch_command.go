package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/balance/pkg/application/services/orchestration"
	"github.com/vsinha/balance/pkg/domain/services"
	"github.com/vsinha/balance/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/balance/pkg/interfaces/cli/output"
)

func newBatchCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <scenario>...",
		Short: "Solve several scenarios concurrently",
		Long: `Batch loads every scenario, solves them with bounded concurrency and prints
one summary row per scenario. A failing scenario does not stop the others;
the command exits non-zero when any scenario failed.`,
		Example: `  balance batch examples/scenarios/*.yaml --concurrency 2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loader := rt.loader()
			repo := memory.NewScenarioRepository()
			keys := make(map[string]services.KeyReport, len(args))
			names := make([]string, 0, len(args))

			for _, path := range args {
				scenario, report, err := loader.Load(path)
				if err != nil {
					return fmt.Errorf("error loading scenario: %w", err)
				}
				if err := repo.SaveScenario(scenario); err != nil {
					return err
				}
				rt.service.RecordKeyReport(scenario.Name, report)
				keys[scenario.Name] = report
				names = append(names, scenario.Name)
			}

			orchestrator := orchestration.NewPlanningOrchestrator(rt.service, repo, rt.cfg.Batch.Concurrency, rt.logger)
			summary, runErr := orchestrator.RunBatch(ctx, names)
			if summary == nil {
				return runErr
			}
			for i := range summary.Entries {
				if r := summary.Entries[i].Result; r != nil {
					r.Keys = keys[summary.Entries[i].Scenario]
				}
			}

			if err := output.GenerateBatch(summary, rt.outputConfig(cmd.OutOrStdout())); err != nil {
				return fmt.Errorf("failed to generate output: %w", err)
			}
			if runErr != nil {
				return runErr
			}
			if summary.Failed > 0 {
				rt.logger.Warn("batch finished with failures",
					zap.Int("failed", summary.Failed),
					zap.Int("scenarios", len(summary.Entries)))
				return fmt.Errorf("%d of %d scenarios failed", summary.Failed, len(summary.Entries))
			}
			return nil
		},
	}
	cmd.Flags().Int("concurrency", 4, "maximum scenarios solved at once")
	mustBind(rt.v, "batch.concurrency", cmd.Flags().Lookup("concurrency"))
	return cmd
}
