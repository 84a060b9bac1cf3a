package events

import (
	"time"

	"github.com/vsinha/balance/pkg/domain/entities"
)

const (
	PlanSolveStartedEvent   = "plan.solve.started"
	PlanSolveCompletedEvent = "plan.solve.completed"
	PlanSolveFailedEvent    = "plan.solve.failed"

	ScenarioKeysSkippedEvent = "scenario.keys.skipped"
)

type PlanSolveStarted struct {
	Scenario string             `json:"scenario"`
	Model    entities.ModelKind `json:"model"`
	Columns  int                `json:"columns"`
	Rows     int                `json:"rows"`
}

type PlanSolveCompleted struct {
	Scenario  string             `json:"scenario"`
	Model     entities.ModelKind `json:"model"`
	Status    entities.Status    `json:"status"`
	Objective float64            `json:"objective"`
	Nodes     int                `json:"nodes"`
	Duration  time.Duration      `json:"duration_ns"`
}

type PlanSolveFailed struct {
	Scenario string             `json:"scenario"`
	Model    entities.ModelKind `json:"model"`
	Error    string             `json:"error"`
}

type ScenarioKeysSkipped struct {
	Scenario  string   `json:"scenario"`
	Skipped   []string `json:"skipped"`
	Unmatched []string `json:"unmatched,omitempty"`
	Heuristic []string `json:"heuristic,omitempty"`
	Ambiguous []string `json:"ambiguous,omitempty"`
}
