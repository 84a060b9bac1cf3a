package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/repositories"
)

// ScenarioRepository provides in-memory scenario storage, preserving insertion order
type ScenarioRepository struct {
	mu        sync.RWMutex
	scenarios []*entities.PlanningScenario
	byName    map[string]int
}

// NewScenarioRepository creates a new in-memory scenario repository
func NewScenarioRepository() *ScenarioRepository {
	return &ScenarioRepository{
		byName: make(map[string]int),
	}
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*ScenarioRepository)(nil)

// LoadScenarios saves every scenario, stopping at the first failure
func (r *ScenarioRepository) LoadScenarios(scenarios []*entities.PlanningScenario) error {
	for _, s := range scenarios {
		if err := r.SaveScenario(s); err != nil {
			return err
		}
	}
	return nil
}

// SaveScenario stores a scenario, replacing any earlier scenario with the same name
func (r *ScenarioRepository) SaveScenario(scenario *entities.PlanningScenario) error {
	if scenario == nil {
		return fmt.Errorf("scenario cannot be nil")
	}
	if scenario.Name == "" {
		return fmt.Errorf("scenario name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.byName[scenario.Name]; exists {
		r.scenarios[i] = scenario
		return nil
	}
	r.byName[scenario.Name] = len(r.scenarios)
	r.scenarios = append(r.scenarios, scenario)
	return nil
}

// GetScenario returns a scenario by name
func (r *ScenarioRepository) GetScenario(name string) (*entities.PlanningScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.byName[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrScenarioNotFound, name)
	}
	return r.scenarios[i], nil
}

// GetAllScenarios returns every scenario in insertion order
func (r *ScenarioRepository) GetAllScenarios() ([]*entities.PlanningScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.PlanningScenario, len(r.scenarios))
	copy(out, r.scenarios)
	return out, nil
}
