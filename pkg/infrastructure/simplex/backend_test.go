package simplex

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vsinha/balance/pkg/solver"
)

const tol = 1e-6

func newTestBackend(t *testing.T) *Backend {
	return NewBackend(DefaultOptions(), WithLogger(zaptest.NewLogger(t)))
}

func TestBackend_ContinuousMaximize(t *testing.T) {
	// maximize 3x + 2y s.t. x + y <= 4, x + 3y <= 6, x <= 3
	m := solver.NewModel("lp", solver.Maximize)
	x := m.AddVar("x", 0, 3, solver.Continuous)
	y := m.AddVar("y", 0, math.Inf(1), solver.Continuous)
	m.SetObjective(solver.NewExpr().Add(3, x).Add(2, y))
	m.AddConstraint("c1", solver.NewExpr().Add(1, x).Add(1, y), solver.LessEqual, 4)
	m.AddConstraint("c2", solver.NewExpr().Add(1, x).Add(3, y), solver.LessEqual, 6)

	sol, err := newTestBackend(t).Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, sol.Status)
	assert.InDelta(t, 11, sol.Objective, tol)
	assert.InDelta(t, 3, sol.ValueOrZero(x), tol)
	assert.InDelta(t, 1, sol.ValueOrZero(y), tol)
}

func TestBackend_EqualityAndGreaterEqual(t *testing.T) {
	// minimize 2a + 3b s.t. a + b = 10, a >= 4 (as a row), b >= 1
	m := solver.NewModel("mix", solver.Minimize)
	a := m.AddVar("a", 0, math.Inf(1), solver.Continuous)
	b := m.AddVar("b", 1, math.Inf(1), solver.Continuous)
	m.SetObjective(solver.NewExpr().Add(2, a).Add(3, b))
	m.AddConstraint("total", solver.NewExpr().Add(1, a).Add(1, b), solver.Equal, 10)
	m.AddConstraint("floor", solver.NewExpr().Add(1, a), solver.GreaterEqual, 4)

	sol, err := newTestBackend(t).Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, sol.Status)
	assert.InDelta(t, 9, sol.ValueOrZero(a), tol)
	assert.InDelta(t, 1, sol.ValueOrZero(b), tol)
	assert.InDelta(t, 21, sol.Objective, tol)
}

func TestBackend_NegativeLowerBoundAndConstant(t *testing.T) {
	m := solver.NewModel("shifted", solver.Minimize)
	x := m.AddVar("x", -5, 5, solver.Continuous)
	m.SetObjective(solver.NewExpr().Add(1, x).AddConstant(10))
	m.AddConstraint("x_floor", solver.NewExpr().Add(1, x).AddConstant(2), solver.GreaterEqual, 0)

	sol, err := newTestBackend(t).Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, sol.Status)
	assert.InDelta(t, -2, sol.ValueOrZero(x), tol)
	assert.InDelta(t, 8, sol.Objective, tol)
}

func TestBackend_Statuses(t *testing.T) {
	tests := []struct {
		name  string
		build func() *solver.Model
		want  solver.Status
	}{
		{
			name: "contradictory_rows_are_infeasible",
			build: func() *solver.Model {
				m := solver.NewModel("infeasible", solver.Minimize)
				x := m.AddVar("x", 0, math.Inf(1), solver.Continuous)
				y := m.AddVar("y", 0, math.Inf(1), solver.Continuous)
				m.SetObjective(solver.NewExpr().Add(1, x))
				m.AddConstraint("low", solver.NewExpr().Add(1, x).Add(1, y), solver.LessEqual, 1)
				m.AddConstraint("high", solver.NewExpr().Add(1, x).Add(1, y), solver.GreaterEqual, 3)
				return m
			},
			want: solver.StatusInfeasible,
		},
		{
			name: "unconstrained_column_with_improving_cost_is_unbounded",
			build: func() *solver.Model {
				m := solver.NewModel("loose", solver.Minimize)
				x := m.AddVar("x", 0, math.Inf(1), solver.Continuous)
				y := m.AddVar("y", 0, math.Inf(1), solver.Continuous)
				m.SetObjective(solver.NewExpr().Add(-1, x).Add(1, y))
				m.AddConstraint("y_cap", solver.NewExpr().Add(1, y), solver.LessEqual, 4)
				return m
			},
			want: solver.StatusUnbounded,
		},
		{
			name: "ray_through_rows_is_unbounded",
			build: func() *solver.Model {
				m := solver.NewModel("ray", solver.Maximize)
				x := m.AddVar("x", 0, math.Inf(1), solver.Continuous)
				y := m.AddVar("y", 0, math.Inf(1), solver.Continuous)
				m.SetObjective(solver.NewExpr().Add(1, x).Add(1, y))
				m.AddConstraint("gap", solver.NewExpr().Add(1, x).Add(-1, y), solver.LessEqual, 1)
				return m
			},
			want: solver.StatusUnbounded,
		},
		{
			name: "empty_row_that_cannot_hold_is_infeasible",
			build: func() *solver.Model {
				m := solver.NewModel("empty_row", solver.Minimize)
				m.AddVar("x", 0, 1, solver.Continuous)
				m.AddConstraint("impossible", solver.NewExpr(), solver.GreaterEqual, 2)
				return m
			},
			want: solver.StatusInfeasible,
		},
		{
			name: "no_rows_sits_at_lower_bounds",
			build: func() *solver.Model {
				m := solver.NewModel("bounds_only", solver.Minimize)
				x := m.AddVar("x", 2, math.Inf(1), solver.Continuous)
				m.SetObjective(solver.NewExpr().Add(1, x))
				return m
			},
			want: solver.StatusOptimal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol, err := newTestBackend(t).Solve(context.Background(), tt.build())
			require.NoError(t, err)
			assert.Equal(t, tt.want, sol.Status, sol.Reason)
			if tt.want != solver.StatusOptimal {
				assert.False(t, sol.HasValues())
				_, ok := sol.Value(0)
				assert.False(t, ok)
			}
		})
	}
}

func TestBackend_IntegerKnapsack(t *testing.T) {
	// maximize 5a + 4b s.t. 6a + 4b <= 24, a + 2b <= 6; relaxation optimum is (3, 1.5)
	m := solver.NewModel("knapsack", solver.Maximize)
	a := m.AddVar("a", 0, math.Inf(1), solver.Integer)
	b := m.AddVar("b", 0, math.Inf(1), solver.Integer)
	m.SetObjective(solver.NewExpr().Add(5, a).Add(4, b))
	m.AddConstraint("weight", solver.NewExpr().Add(6, a).Add(4, b), solver.LessEqual, 24)
	m.AddConstraint("volume", solver.NewExpr().Add(1, a).Add(2, b), solver.LessEqual, 6)

	sol, err := newTestBackend(t).Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, sol.Status)
	assert.InDelta(t, 20, sol.Objective, tol)
	assert.Greater(t, sol.Nodes, 1)

	av, bv := sol.ValueOrZero(a), sol.ValueOrZero(b)
	assert.Equal(t, math.Round(av), av)
	assert.Equal(t, math.Round(bv), bv)
	assert.LessOrEqual(t, 6*av+4*bv, 24+tol)
	assert.LessOrEqual(t, av+2*bv, 6+tol)
}

func TestBackend_IntegerInfeasible(t *testing.T) {
	// 2x = 3 has no integer solution
	m := solver.NewModel("odd", solver.Minimize)
	x := m.AddVar("x", 0, 10, solver.Integer)
	m.SetObjective(solver.NewExpr().Add(1, x))
	m.AddConstraint("half", solver.NewExpr().Add(2, x), solver.Equal, 3)

	sol, err := newTestBackend(t).Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusInfeasible, sol.Status)
}

func TestBackend_NodeLimit(t *testing.T) {
	m := solver.NewModel("odd", solver.Minimize)
	x := m.AddVar("x", 0, 10, solver.Integer)
	m.SetObjective(solver.NewExpr().Add(1, x))
	m.AddConstraint("half", solver.NewExpr().Add(2, x), solver.Equal, 3)

	backend := NewBackend(Options{MaxNodes: 1})
	sol, err := backend.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusNotSolved, sol.Status)
	assert.Equal(t, ErrNodeLimit.Error(), sol.Reason)
}

func TestBackend_Errors(t *testing.T) {
	t.Run("free_column", func(t *testing.T) {
		m := solver.NewModel("free", solver.Minimize)
		m.AddVar("x", math.Inf(-1), math.Inf(1), solver.Continuous)
		_, err := newTestBackend(t).Solve(context.Background(), m)
		require.ErrorIs(t, err, solver.ErrUnsupportedBound)
	})

	t.Run("cancelled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestBackend(t).Solve(ctx, solver.NewModel("any", solver.Minimize))
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nan_coefficient", func(t *testing.T) {
		m := solver.NewModel("nan", solver.Minimize)
		x := m.AddVar("x", 0, 1, solver.Continuous)
		m.AddConstraint("bad", solver.NewExpr().Add(math.NaN(), x), solver.LessEqual, 1)
		_, err := newTestBackend(t).Solve(context.Background(), m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "coefficient of x must be finite")
	})
}

func TestBackend_Deterministic(t *testing.T) {
	build := func() *solver.Model {
		m := solver.NewModel("repeat", solver.Minimize)
		x := m.AddVar("x", 0, math.Inf(1), solver.Integer)
		y := m.AddVar("y", 0, math.Inf(1), solver.Integer)
		m.SetObjective(solver.NewExpr().Add(3, x).Add(5, y))
		m.AddConstraint("cover", solver.NewExpr().Add(2, x).Add(3, y), solver.GreaterEqual, 7.5)
		return m
	}

	backend := newTestBackend(t)
	first, err := backend.Solve(context.Background(), build())
	require.NoError(t, err)
	second, err := backend.Solve(context.Background(), build())
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.InDelta(t, first.Objective, second.Objective, tol)
	assert.Equal(t, first.Values, second.Values)
}

func TestBackend_TimeLimit(t *testing.T) {
	m := solver.NewModel("odd", solver.Minimize)
	x := m.AddVar("x", 0, 10, solver.Integer)
	m.SetObjective(solver.NewExpr().Add(1, x))
	m.AddConstraint("half", solver.NewExpr().Add(2, x), solver.Equal, 3)

	backend := NewBackend(Options{TimeLimit: time.Nanosecond})
	sol, err := backend.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusNotSolved, sol.Status)
	assert.Equal(t, ErrTimeLimit.Error(), sol.Reason)
	assert.False(t, sol.HasValues())
}

func TestBackend_RoundedFeasible(t *testing.T) {
	m := solver.NewModel("rounding", solver.Minimize)
	x := m.AddVar("x", 0, math.Inf(1), solver.Integer)
	y := m.AddVar("y", 0, 2, solver.Integer)
	z := m.AddVar("z", 0, math.Inf(1), solver.Continuous)
	m.AddConstraint("cap", solver.NewExpr().Add(1, x).Add(1, y), solver.LessEqual, 3.2)
	m.AddConstraint("link", solver.NewExpr().Add(1, z).Add(-1, x), solver.GreaterEqual, 0)

	backend := newTestBackend(t)
	tests := []struct {
		name   string
		values []float64
		want   []float64
		ok     bool
	}{
		{name: "rounds_to_feasible_point", values: []float64{1.2, 1.9, 1.5}, want: []float64{1, 2, 1.5}, ok: true},
		{name: "row_violated", values: []float64{1.6, 1.9, 2}, ok: false},
		{name: "bound_violated", values: []float64{0, 2.6, 0}, ok: false},
		{name: "continuous_kept", values: []float64{0.6, 0, 0.7}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := backend.roundedFeasible(m, tt.values)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIntegralObjective(t *testing.T) {
	m := solver.NewModel("objective", solver.Minimize)
	a := m.AddVar("a", 0, math.Inf(1), solver.Integer)
	b := m.AddVar("b", 0, math.Inf(1), solver.Integer)
	c := m.AddVar("c", 0, math.Inf(1), solver.Continuous)

	m.SetObjective(solver.NewExpr().Add(3, a).Add(5, b))
	assert.True(t, integralObjective(m))

	m.SetObjective(solver.NewExpr().Add(3, a).Add(0.5, b))
	assert.False(t, integralObjective(m))

	m.SetObjective(solver.NewExpr().Add(3, a).Add(1, c))
	assert.False(t, integralObjective(m))
}
