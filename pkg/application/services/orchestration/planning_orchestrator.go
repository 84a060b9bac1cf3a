package orchestration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/balance/pkg/application/dto"
	"github.com/vsinha/balance/pkg/application/services/planning"
	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/repositories"
)

// PlanningOrchestrator runs stored scenarios through the planning service
type PlanningOrchestrator struct {
	planningService *planning.PlanningService
	scenarioRepo    repositories.ScenarioRepository
	concurrency     int
	logger          *zap.Logger
}

// NewPlanningOrchestrator creates a new planning orchestrator. A concurrency
// below 1 runs scenarios one at a time.
func NewPlanningOrchestrator(
	planningService *planning.PlanningService,
	scenarioRepo repositories.ScenarioRepository,
	concurrency int,
	logger *zap.Logger,
) *PlanningOrchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningOrchestrator{
		planningService: planningService,
		scenarioRepo:    scenarioRepo,
		concurrency:     concurrency,
		logger:          logger,
	}
}

// RunScenario solves a single stored scenario
func (po *PlanningOrchestrator) RunScenario(ctx context.Context, name string) (*dto.PlanResult, error) {
	scenario, err := po.scenarioRepo.GetScenario(name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scenario: %w", err)
	}
	return po.planningService.Plan(ctx, scenario)
}

// RunBatch solves the named scenarios, or every stored scenario when names is
// empty. Entries keep the input order. A failing scenario is recorded in its
// entry and does not stop the others; the returned error is only set when a
// name cannot be resolved or ctx is cancelled.
func (po *PlanningOrchestrator) RunBatch(ctx context.Context, names []string) (*dto.BatchSummary, error) {
	scenarios, err := po.resolve(names)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &dto.BatchSummary{Entries: make([]dto.BatchEntry, len(scenarios))}

	var g errgroup.Group
	g.SetLimit(po.concurrency)
	for i, scenario := range scenarios {
		g.Go(func() error {
			entryStart := time.Now()
			result, err := po.planningService.Plan(ctx, scenario)
			entry := dto.BatchEntry{
				Scenario: scenario.Name,
				Result:   result,
				Err:      err,
				Elapsed:  time.Since(entryStart),
			}
			if err != nil {
				entry.Error = err.Error()
				po.logger.Warn("scenario failed", zap.String("scenario", scenario.Name), zap.Error(err))
			}
			summary.Entries[i] = entry
			return nil
		})
	}
	_ = g.Wait()

	for _, entry := range summary.Entries {
		switch {
		case entry.Err != nil:
			summary.Failed++
		case entry.Result.Meta().Status == entities.StatusOptimal:
			summary.Optimal++
		}
	}
	summary.Elapsed = time.Since(start)

	po.logger.Info("batch complete",
		zap.Int("scenarios", len(summary.Entries)),
		zap.Int("optimal", summary.Optimal),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (po *PlanningOrchestrator) resolve(names []string) ([]*entities.PlanningScenario, error) {
	if len(names) == 0 {
		scenarios, err := po.scenarioRepo.GetAllScenarios()
		if err != nil {
			return nil, fmt.Errorf("failed to list scenarios: %w", err)
		}
		if len(scenarios) == 0 {
			return nil, fmt.Errorf("no scenarios provided for planning")
		}
		return scenarios, nil
	}

	scenarios := make([]*entities.PlanningScenario, 0, len(names))
	for _, name := range names {
		scenario, err := po.scenarioRepo.GetScenario(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve scenario: %w", err)
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}
