package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vsinha/balance/pkg/domain/entities"
)

type recordingHandler struct {
	types  map[string]bool
	seen   []Event
	failOn string
}

func (h *recordingHandler) Handle(event Event) error {
	h.seen = append(h.seen, event)
	if event.Type() == h.failOn {
		return errors.New("handler rejected event")
	}
	return nil
}

func (h *recordingHandler) CanHandle(eventType string) bool {
	return h.types[eventType]
}

func TestInMemoryEventStore_AppendAssignsStreamVersions(t *testing.T) {
	store := NewInMemoryEventStore(zaptest.NewLogger(t))

	require.NoError(t, store.AppendEvent("run-1", NewEvent(PlanSolveStartedEvent, "run-1", PlanSolveStarted{Scenario: "demo"})))
	require.NoError(t, store.AppendEvent("run-2", NewEvent(PlanSolveStartedEvent, "run-2", PlanSolveStarted{Scenario: "other"})))
	require.NoError(t, store.AppendEvent("run-1", NewEvent(PlanSolveCompletedEvent, "run-1", PlanSolveCompleted{
		Scenario: "demo",
		Model:    entities.InventoryBalance,
		Status:   entities.StatusOptimal,
	})))

	run1, err := store.ReadEvents("run-1", 0)
	require.NoError(t, err)
	require.Len(t, run1, 2)
	assert.Equal(t, 1, run1[0].Version())
	assert.Equal(t, 2, run1[1].Version())
	assert.Equal(t, PlanSolveCompletedEvent, run1[1].Type())

	fromSecond, err := store.ReadEvents("run-1", 2)
	require.NoError(t, err)
	assert.Len(t, fromSecond, 1)

	missing, err := store.ReadEvents("run-9", 1)
	require.NoError(t, err)
	assert.Empty(t, missing)

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "run-2", all[0].StreamID())
}

func TestInMemoryEventStore_NotifiesSubscribersSynchronously(t *testing.T) {
	store := NewInMemoryEventStore(zaptest.NewLogger(t))
	handler := &recordingHandler{
		types:  map[string]bool{PlanSolveCompletedEvent: true},
		failOn: PlanSolveCompletedEvent,
	}
	require.NoError(t, store.Subscribe([]string{PlanSolveCompletedEvent, PlanSolveFailedEvent}, handler))

	require.NoError(t, store.AppendEvent("run-1", NewEvent(PlanSolveStartedEvent, "run-1", nil)))
	require.NoError(t, store.AppendEvent("run-1", NewEvent(PlanSolveFailedEvent, "run-1", PlanSolveFailed{Error: "boom"})))
	// handler errors are logged, never returned to the appender
	require.NoError(t, store.AppendEvent("run-1", NewEvent(PlanSolveCompletedEvent, "run-1", nil)))

	require.Len(t, handler.seen, 1)
	assert.Equal(t, 3, handler.seen[0].Version())
}
