package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/balance/pkg/application/dto"
	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/services"
	"github.com/vsinha/balance/pkg/infrastructure/events"
	"github.com/vsinha/balance/pkg/solver"
)

// PlanningService formulates the planning models, solves them through a
// solver backend, and maps the solutions back onto scenario identifiers.
// It holds no per-run state and is safe for concurrent use when its backend is.
type PlanningService struct {
	backend    solver.Backend
	logger     *zap.Logger
	eventStore events.EventStore
}

// Option configures a PlanningService
type Option func(*PlanningService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *PlanningService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventStore journals every solve to the given store
func WithEventStore(store events.EventStore) Option {
	return func(s *PlanningService) {
		s.eventStore = store
	}
}

// NewPlanningService creates a planning service on top of a solver backend
func NewPlanningService(backend solver.Backend, opts ...Option) *PlanningService {
	s := &PlanningService{
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlanInventory solves the inventory-balance model for a scenario
func (s *PlanningService) PlanInventory(ctx context.Context, scenario *entities.InventoryScenario) (*entities.InventoryPlan, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return s.solveInventory(ctx, "", scenario)
}

// PlanProduction solves the multi-period production-planning model for a scenario
func (s *PlanningService) PlanProduction(ctx context.Context, scenario *entities.ProductionScenario) (*entities.ProductionPlan, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return s.solveProduction(ctx, "", scenario)
}

// PlanBlend solves the production-mix model for a scenario
func (s *PlanningService) PlanBlend(ctx context.Context, scenario *entities.BlendScenario) (*entities.BlendPlan, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return s.solveBlend(ctx, "", scenario)
}

// Plan solves a named scenario with the model its Kind selects and attaches the
// derived reports. Non-optimal outcomes are carried in the plan status; the
// error is reserved for invalid scenarios, malformed models, and cancellation.
func (s *PlanningService) Plan(ctx context.Context, scenario *entities.PlanningScenario) (*dto.PlanResult, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	result := &dto.PlanResult{Scenario: scenario.Name, Kind: scenario.Kind}
	switch scenario.Kind {
	case entities.InventoryBalance:
		plan, err := s.solveInventory(ctx, scenario.Name, scenario.Inventory)
		if err != nil {
			return nil, err
		}
		result.Inventory = plan
		result.Costs = InventoryCosts(scenario.Inventory, plan)
	case entities.ProductionPlanning:
		plan, err := s.solveProduction(ctx, scenario.Name, scenario.Production)
		if err != nil {
			return nil, err
		}
		result.Production = plan
		result.Costs = ProductionCosts(scenario.Production, plan)
		result.Utilization = ProductionUtilization(scenario.Production, plan)
	case entities.ProductMix:
		plan, err := s.solveBlend(ctx, scenario.Name, scenario.Blend)
		if err != nil {
			return nil, err
		}
		result.Blend = plan
		result.BlendReport = BlendSummary(scenario.Blend, plan)
	}
	return result, nil
}

// RecordKeyReport logs and journals flattened keys that were dropped, split
// heuristically or split ambiguously while building a scenario.
func (s *PlanningService) RecordKeyReport(scenario string, report services.KeyReport) {
	if report.Empty() {
		return
	}
	s.logger.Warn("flattened keys not matched to known identifiers",
		zap.String("scenario", scenario),
		zap.Strings("skipped", report.Skipped),
		zap.Strings("unmatched", report.Unmatched),
		zap.Strings("heuristic", report.Heuristic),
		zap.Strings("ambiguous", report.Ambiguous))
	s.publish(uuid.NewString(), events.ScenarioKeysSkippedEvent, events.ScenarioKeysSkipped{
		Scenario:  scenario,
		Skipped:   report.Skipped,
		Unmatched: report.Unmatched,
		Heuristic: report.Heuristic,
		Ambiguous: report.Ambiguous,
	})
}

func (s *PlanningService) solveInventory(ctx context.Context, name string, scenario *entities.InventoryScenario) (*entities.InventoryPlan, error) {
	model, vars := buildInventoryModel(scenario)
	sol, meta, err := s.solve(ctx, name, entities.InventoryBalance, model)
	if err != nil {
		return nil, err
	}
	return &entities.InventoryPlan{
		PlanMeta:  meta,
		TotalCost: objectiveValue(sol),
		Products:  scenario.Products,
		Periods:   scenario.Periods,
		Inventory: extractPeriodTable(sol, vars.inventory, false),
		Shortage:  extractPeriodTable(sol, vars.shortage, false),
		Excess:    extractPeriodTable(sol, vars.excess, false),
	}, nil
}

func (s *PlanningService) solveProduction(ctx context.Context, name string, scenario *entities.ProductionScenario) (*entities.ProductionPlan, error) {
	model, vars := buildProductionModel(scenario)
	sol, meta, err := s.solve(ctx, name, entities.ProductionPlanning, model)
	if err != nil {
		return nil, err
	}
	return &entities.ProductionPlan{
		PlanMeta:   meta,
		TotalCost:  objectiveValue(sol),
		Products:   scenario.Products,
		Periods:    scenario.Periods,
		Production: extractPeriodTable(sol, vars.production, true),
		Inventory:  extractPeriodTable(sol, vars.inventory, true),
	}, nil
}

func (s *PlanningService) solveBlend(ctx context.Context, name string, scenario *entities.BlendScenario) (*entities.BlendPlan, error) {
	model, vars := buildBlendModel(scenario)
	sol, meta, err := s.solve(ctx, name, entities.ProductMix, model)
	if err != nil {
		return nil, err
	}
	return &entities.BlendPlan{
		PlanMeta:   meta,
		Profit:     objectiveValue(sol),
		Materials:  scenario.RawMaterials,
		Products:   scenario.Products,
		Allocation: extractAllocation(sol, vars.allocation),
		Output:     extractOutput(sol, vars.output),
	}, nil
}

func (s *PlanningService) solve(
	ctx context.Context,
	name string,
	kind entities.ModelKind,
	model *solver.Model,
) (*solver.Solution, entities.PlanMeta, error) {
	meta := entities.PlanMeta{RunID: uuid.NewString(), Scenario: name}
	logger := s.logger.With(
		zap.String("run_id", meta.RunID),
		zap.String("scenario", name),
		zap.Stringer("model", kind))

	logger.Debug("solving model",
		zap.Int("columns", model.NumVars()),
		zap.Int("rows", len(model.Rows())))
	s.publish(meta.RunID, events.PlanSolveStartedEvent, events.PlanSolveStarted{
		Scenario: name,
		Model:    kind,
		Columns:  model.NumVars(),
		Rows:     len(model.Rows()),
	})

	start := time.Now()
	sol, err := s.backend.Solve(ctx, model)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("solve failed", zap.Error(err))
		s.publish(meta.RunID, events.PlanSolveFailedEvent, events.PlanSolveFailed{
			Scenario: name,
			Model:    kind,
			Error:    err.Error(),
		})
		return nil, meta, fmt.Errorf("failed to solve %s model: %w", kind, err)
	}

	meta.Status = toStatus(sol.Status)
	meta.Reason = sol.Reason
	meta.Nodes = sol.Nodes
	meta.SolveTime = elapsed

	logger.Info("model solved",
		zap.Stringer("status", meta.Status),
		zap.Float64("objective", objectiveValue(sol)),
		zap.Int("nodes", sol.Nodes),
		zap.Duration("elapsed", elapsed))
	s.publish(meta.RunID, events.PlanSolveCompletedEvent, events.PlanSolveCompleted{
		Scenario:  name,
		Model:     kind,
		Status:    meta.Status,
		Objective: objectiveValue(sol),
		Nodes:     sol.Nodes,
		Duration:  elapsed,
	})
	return sol, meta, nil
}

func (s *PlanningService) publish(runID, eventType string, data interface{}) {
	if s.eventStore == nil {
		return
	}
	if err := s.eventStore.AppendEvent(runID, events.NewEvent(eventType, runID, data)); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event", eventType), zap.Error(err))
	}
}
