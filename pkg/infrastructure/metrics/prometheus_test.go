package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/infrastructure/events"
)

func TestPrometheusExporter_RecordsEventsFromStore(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())
	store := events.NewInMemoryEventStore(zaptest.NewLogger(t))
	require.NoError(t, store.Subscribe(HandledEvents(), exporter))

	completed := events.PlanSolveCompleted{
		Scenario: "demo",
		Model:    entities.ProductionPlanning,
		Status:   entities.StatusInfeasible,
		Nodes:    3,
		Duration: 20 * time.Millisecond,
	}
	require.NoError(t, store.AppendEvent("run-1", events.NewEvent(events.PlanSolveCompletedEvent, "run-1", completed)))
	require.NoError(t, store.AppendEvent("run-2", events.NewEvent(events.PlanSolveFailedEvent, "run-2", events.PlanSolveFailed{Model: entities.ProductMix})))
	require.NoError(t, store.AppendEvent("run-3", events.NewEvent(events.ScenarioKeysSkippedEvent, "run-3", events.ScenarioKeysSkipped{
		Skipped:   []string{"bad", "worse"},
		Heuristic: []string{"A_B_C"},
		Unmatched: []string{"Product_C_Jan"},
		Ambiguous: []string{"A_B_C_D", "X_Y_Z"},
	})))

	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.solves.WithLabelValues("production", "Infeasible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.solveFailed.WithLabelValues("blend")))
	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.skippedKeys))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.heuristicKey))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.unmatchedKey))
	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.ambiguousKey))
	assert.Equal(t, 1, testutil.CollectAndCount(exporter.solveLatency))
}

func TestPrometheusExporter_RejectsUnknownPayload(t *testing.T) {
	exporter := NewPrometheusExporter(Config{})
	err := exporter.Handle(events.NewEvent(events.PlanSolveCompletedEvent, "run", "not a payload"))
	assert.Error(t, err)
	assert.False(t, exporter.CanHandle(events.PlanSolveStartedEvent))
}

func TestPrometheusExporter_Handler(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())
	exporter.RecordSolve(events.PlanSolveCompleted{Model: entities.InventoryBalance, Status: entities.StatusOptimal, Nodes: 1})

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `balance_planning_solves_total{model="inventory",status="Optimal"} 1`), body)
}
