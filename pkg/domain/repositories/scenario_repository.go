package repositories

import (
	"errors"

	"github.com/vsinha/balance/pkg/domain/entities"
)

// ErrScenarioNotFound is returned when a named scenario is not stored
var ErrScenarioNotFound = errors.New("scenario not found")

// ScenarioRepository provides access to loaded planning scenarios
type ScenarioRepository interface {
	GetScenario(name string) (*entities.PlanningScenario, error)
	GetAllScenarios() ([]*entities.PlanningScenario, error)
	SaveScenario(scenario *entities.PlanningScenario) error
	LoadScenarios(scenarios []*entities.PlanningScenario) error
}
