package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/balance/pkg/solver"
)

// ErrNodeLimit is reported as the reason of a NotSolved solution when branch
// and bound exhausts its node budget before proving optimality.
var ErrNodeLimit = errors.New("branch and bound node limit reached")

// ErrTimeLimit is reported as the reason of a NotSolved solution when branch
// and bound runs past its time limit before proving optimality.
var ErrTimeLimit = errors.New("branch and bound time limit reached")

// Options tunes the backend
type Options struct {
	// Tolerance is passed to the simplex method as its reduced-cost tolerance.
	Tolerance float64
	// IntegralityTolerance is how far from an integer a value may be and still count as integral.
	IntegralityTolerance float64
	// FeasibilityTolerance bounds constant rows that no longer reference any column.
	FeasibilityTolerance float64
	MaxNodes             int
	// TimeLimit bounds the wall time of one branch and bound run.
	TimeLimit time.Duration
	// RelativeGap and AbsoluteGap let branch and bound stop once no open node
	// can beat the incumbent by more than max(AbsoluteGap, RelativeGap*|incumbent|).
	RelativeGap float64
	AbsoluteGap float64
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Tolerance:            1e-10,
		IntegralityTolerance: 1e-6,
		FeasibilityTolerance: 1e-9,
		MaxNodes:             10000,
		TimeLimit:            time.Minute,
		RelativeGap:          1e-4,
		AbsoluteGap:          1e-6,
	}
}

// Backend solves solver models with gonum's dense simplex method, adding a
// branch and bound for integer columns. A Backend holds no
// per-solve state and is safe for concurrent use.
type Backend struct {
	opts   Options
	logger *zap.Logger
}

// Option configures a Backend
type Option func(*Backend)

// WithLogger sets the logger used for solve diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// NewBackend creates a gonum-backed solver. Zero-valued option fields fall back to defaults.
func NewBackend(opts Options, options ...Option) *Backend {
	defaults := DefaultOptions()
	if opts.Tolerance <= 0 {
		opts.Tolerance = defaults.Tolerance
	}
	if opts.IntegralityTolerance <= 0 {
		opts.IntegralityTolerance = defaults.IntegralityTolerance
	}
	if opts.FeasibilityTolerance <= 0 {
		opts.FeasibilityTolerance = defaults.FeasibilityTolerance
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = defaults.MaxNodes
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = defaults.TimeLimit
	}
	if opts.RelativeGap < 0 {
		opts.RelativeGap = defaults.RelativeGap
	}
	if opts.AbsoluteGap <= 0 {
		opts.AbsoluteGap = defaults.AbsoluteGap
	}

	b := &Backend{opts: opts, logger: zap.NewNop()}
	for _, o := range options {
		o(b)
	}
	return b
}

// Verify interface compliance
var _ solver.Backend = (*Backend)(nil)

// Options returns the effective options
func (b *Backend) Options() Options {
	return b.opts
}

// Solve solves the model. Continuous models are solved with a single simplex
// run; models with integer columns go through branch and bound.
func (b *Backend) Solve(ctx context.Context, model *solver.Model) (*solver.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model %q: %w", model.Name, err)
	}

	cols := model.Columns()
	lower := make([]float64, len(cols))
	upper := make([]float64, len(cols))
	for j, col := range cols {
		if math.IsInf(col.Lower, 0) {
			return nil, fmt.Errorf("column %s: lower bound %g: %w", col.Name, col.Lower, solver.ErrUnsupportedBound)
		}
		lower[j], upper[j] = col.Lower, col.Upper
		if col.Kind == solver.Integer {
			lower[j] = math.Ceil(lower[j] - b.opts.IntegralityTolerance)
			if !math.IsInf(upper[j], 1) {
				upper[j] = math.Floor(upper[j] + b.opts.IntegralityTolerance)
			}
		}
	}

	if !model.HasIntegers() {
		rel := b.relax(model, lower, upper)
		sol := rel.solution()
		sol.Nodes = 1
		b.logger.Debug("lp solved",
			zap.String("model", model.Name),
			zap.Stringer("status", sol.Status),
			zap.Int("columns", len(cols)),
			zap.Int("rows", len(model.Rows())))
		return sol, nil
	}
	return b.branchAndBound(ctx, model, lower, upper)
}

// relaxation is the outcome of one continuous solve under a set of bounds
type relaxation struct {
	status    solver.Status
	objective float64
	values    []float64
	reason    string
}

func (r relaxation) solution() *solver.Solution {
	sol := &solver.Solution{Status: r.status, Reason: r.reason}
	if r.status == solver.StatusOptimal {
		sol.Objective = r.objective
		sol.Values = r.values
	}
	return sol
}

// stdRow is a model row restated over shifted columns, before slack assignment
type stdRow struct {
	coefs []float64
	slack float64
	rhs   float64
}

// relax lowers the model to gonum's standard form (min cᵀy, Ay = b, y >= 0)
// with x = lower + y, solves it and maps the result back onto the columns.
func (b *Backend) relax(model *solver.Model, lower, upper []float64) relaxation {
	cols := model.Columns()
	n := len(cols)
	for j := range cols {
		if lower[j] > upper[j] {
			return relaxation{status: solver.StatusInfeasible, reason: fmt.Sprintf("column %s has empty bounds", cols[j].Name)}
		}
	}

	sign := 1.0
	if model.Direction == solver.Maximize {
		sign = -1
	}
	cost := make([]float64, n)
	for _, t := range model.Objective.Terms {
		cost[t.Var] += sign * t.Coef
	}

	used := make([]bool, n)
	rows := make([]stdRow, 0, len(model.Rows())+n)
	for _, r := range model.Rows() {
		row := stdRow{coefs: make([]float64, n), rhs: r.RHS}
		empty := true
		for _, t := range r.Terms {
			row.coefs[t.Var] += t.Coef
			row.rhs -= t.Coef * lower[t.Var]
			empty = false
		}
		if empty {
			if !b.constantRowHolds(r.Sense, row.rhs) {
				return relaxation{status: solver.StatusInfeasible, reason: fmt.Sprintf("row %s cannot be satisfied", r.Name)}
			}
			continue
		}
		for _, t := range r.Terms {
			used[t.Var] = true
		}
		switch r.Sense {
		case solver.LessEqual:
			row.slack = 1
		case solver.GreaterEqual:
			row.slack = -1
		}
		rows = append(rows, row)
	}
	for j := range cols {
		if math.IsInf(upper[j], 1) {
			continue
		}
		row := stdRow{coefs: make([]float64, n), slack: 1, rhs: upper[j] - lower[j]}
		row.coefs[j] = 1
		used[j] = true
		rows = append(rows, row)
	}

	// Columns outside every row sit at their lower bound unless they improve
	// the objective without limit.
	active := make([]int, 0, n)
	for j := range cols {
		if used[j] {
			active = append(active, j)
			continue
		}
		if cost[j] < 0 {
			return relaxation{status: solver.StatusUnbounded, reason: fmt.Sprintf("column %s is unconstrained", cols[j].Name)}
		}
	}

	values := make([]float64, n)
	copy(values, lower)
	if len(rows) == 0 {
		return relaxation{status: solver.StatusOptimal, objective: model.Objective.Eval(values), values: values}
	}

	slacks := 0
	for _, row := range rows {
		if row.slack != 0 {
			slacks++
		}
	}
	m, width := len(rows), len(active)+slacks
	if m > width {
		return relaxation{status: solver.StatusNotSolved, reason: fmt.Sprintf("%d equality rows over %d columns", m, width)}
	}

	A := mat.NewDense(m, width, nil)
	rhs := make([]float64, m)
	c := make([]float64, width)
	for k, j := range active {
		c[k] = cost[j]
	}
	slackCol := len(active)
	for i, row := range rows {
		s := 1.0
		if row.rhs < 0 {
			s = -1
		}
		for k, j := range active {
			if row.coefs[j] != 0 {
				A.Set(i, k, s*row.coefs[j])
			}
		}
		if row.slack != 0 {
			A.Set(i, slackCol, s*row.slack)
			slackCol++
		}
		rhs[i] = s * row.rhs
	}

	y, err := b.simplex(c, A, rhs)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return relaxation{status: solver.StatusInfeasible, reason: err.Error()}
	case errors.Is(err, lp.ErrUnbounded):
		return relaxation{status: solver.StatusUnbounded, reason: err.Error()}
	case err != nil:
		return relaxation{status: solver.StatusNotSolved, reason: err.Error()}
	}

	for k, j := range active {
		values[j] += y[k]
	}
	return relaxation{status: solver.StatusOptimal, objective: model.Objective.Eval(values), values: values}
}

func (b *Backend) constantRowHolds(sense solver.Sense, rhs float64) bool {
	tol := b.opts.FeasibilityTolerance
	switch sense {
	case solver.LessEqual:
		return rhs >= -tol
	case solver.GreaterEqual:
		return rhs <= tol
	default:
		return math.Abs(rhs) <= tol
	}
}

// simplex runs gonum's solver, converting its shape panics into errors
func (b *Backend) simplex(c []float64, A *mat.Dense, rhs []float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("simplex: %v", r)
		}
	}()
	_, x, err = lp.Simplex(c, A, rhs, b.opts.Tolerance, nil)
	return x, err
}
