package simplex

import (
	"container/heap"
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/balance/pkg/solver"
)

// bbNode is an open subproblem. bound is the relaxed objective of its parent,
// stated for minimization, and is a lower bound on anything found below it.
type bbNode struct {
	lower []float64
	upper []float64
	bound float64
	depth int
}

// nodeQueue orders open nodes by bound, deeper nodes first on ties
type nodeQueue []*bbNode

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	return q[i].depth > q[j].depth
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*bbNode)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// search holds the state of one branch and bound run
type search struct {
	b         *Backend
	model     *solver.Model
	sign      float64
	integral  bool
	open      nodeQueue
	incumbent []float64
	best      float64
	nodes     int
}

// branchAndBound dives depth first, following the branch closer to the
// relaxed value, until it holds an incumbent. From then on it expands the
// open node with the lowest bound. Nodes whose bound cannot improve on the
// incumbent by more than the configured gap are discarded without a solve.
func (b *Backend) branchAndBound(ctx context.Context, model *solver.Model, lower, upper []float64) (*solver.Solution, error) {
	s := &search{
		b:        b,
		model:    model,
		sign:     1,
		integral: integralObjective(model),
		best:     math.Inf(1),
	}
	if model.Direction == solver.Maximize {
		s.sign = -1
	}
	s.open = nodeQueue{{lower: lower, upper: upper, bound: math.Inf(-1)}}

	deadline := time.Now().Add(b.opts.TimeLimit)
	var failure string

	for len(s.open) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.nodes >= b.opts.MaxNodes {
			return s.stop(ErrNodeLimit), nil
		}
		if time.Now().After(deadline) {
			return s.stop(ErrTimeLimit), nil
		}

		node := s.pop()
		if s.dominated(node.bound) {
			continue
		}

		rel := b.relax(model, node.lower, node.upper)
		s.nodes++

		if s.nodes == 1 && rel.status != solver.StatusOptimal {
			sol := rel.solution()
			sol.Nodes = s.nodes
			return sol, nil
		}
		if rel.status == solver.StatusNotSolved {
			failure = rel.reason
			continue
		}
		if rel.status != solver.StatusOptimal {
			continue
		}

		bound := s.sign * rel.objective
		if s.dominated(bound) {
			continue
		}

		j := b.mostFractional(model, rel.values)
		if j < 0 {
			s.offer(rel.values)
			continue
		}
		if rounded, ok := b.roundedFeasible(model, rel.values); ok {
			s.offer(rounded)
			if s.dominated(bound) {
				continue
			}
		}

		v := rel.values[j]
		down := &bbNode{lower: node.lower, upper: withBound(node.upper, j, math.Floor(v)), bound: bound, depth: node.depth + 1}
		up := &bbNode{lower: withBound(node.lower, j, math.Ceil(v)), upper: node.upper, bound: bound, depth: node.depth + 1}
		if v-math.Floor(v) < 0.5 {
			s.push(up)
			s.push(down)
		} else {
			s.push(down)
			s.push(up)
		}
	}

	if s.incumbent == nil {
		if failure != "" {
			return &solver.Solution{Status: solver.StatusNotSolved, Nodes: s.nodes, Reason: failure}, nil
		}
		return &solver.Solution{Status: solver.StatusInfeasible, Nodes: s.nodes, Reason: "no integer point satisfies the constraints"}, nil
	}

	values := s.incumbent
	for j, col := range model.Columns() {
		if col.Kind == solver.Integer {
			values[j] = math.Round(values[j])
		}
	}
	b.logger.Debug("milp solved",
		zap.String("model", model.Name),
		zap.Int("nodes", s.nodes))
	return &solver.Solution{
		Status:    solver.StatusOptimal,
		Objective: model.Objective.Eval(values),
		Values:    values,
		Nodes:     s.nodes,
	}, nil
}

// push adds a node: onto the dive stack while there is no incumbent, into the
// bound-ordered heap afterwards.
func (s *search) push(n *bbNode) {
	if s.incumbent == nil {
		s.open = append(s.open, n)
		return
	}
	if s.dominated(n.bound) {
		return
	}
	heap.Push(&s.open, n)
}

func (s *search) pop() *bbNode {
	if s.incumbent == nil {
		n := s.open[len(s.open)-1]
		s.open = s.open[:len(s.open)-1]
		return n
	}
	return heap.Pop(&s.open).(*bbNode)
}

// offer records values as the incumbent when they improve on it. The first
// incumbent turns the dive stack into a heap.
func (s *search) offer(values []float64) {
	obj := s.sign * s.model.Objective.Eval(values)
	if obj >= s.best {
		return
	}
	first := s.incumbent == nil
	s.incumbent, s.best = values, obj
	if first {
		heap.Init(&s.open)
	}
}

// dominated reports whether a subtree with the given bound can still improve
// the incumbent by more than the allowed gap.
func (s *search) dominated(bound float64) bool {
	if s.incumbent == nil {
		return false
	}
	allowance := math.Max(s.b.opts.AbsoluteGap, s.b.opts.RelativeGap*math.Abs(s.best))
	if s.integral {
		// Integer solutions of an integral objective differ by at least one
		allowance = math.Max(allowance, 1-1e-6)
	}
	return bound >= s.best-allowance
}

func (s *search) stop(reason error) *solver.Solution {
	s.b.logger.Warn("branch and bound stopped",
		zap.String("model", s.model.Name),
		zap.String("reason", reason.Error()),
		zap.Int("nodes", s.nodes),
		zap.Int("open", len(s.open)),
		zap.Bool("has_incumbent", s.incumbent != nil))
	return &solver.Solution{Status: solver.StatusNotSolved, Nodes: s.nodes, Reason: reason.Error()}
}

// mostFractional returns the integer column farthest from integrality, or -1
// when every integer column is integral within tolerance.
func (b *Backend) mostFractional(model *solver.Model, values []float64) int {
	best, bestDist := -1, b.opts.IntegralityTolerance
	for j, col := range model.Columns() {
		if col.Kind != solver.Integer {
			continue
		}
		f := values[j] - math.Floor(values[j])
		dist := math.Min(f, 1-f)
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

// roundedFeasible rounds every integer column of a relaxed point to the
// nearest integer and returns the result when it satisfies the column bounds
// and every row.
func (b *Backend) roundedFeasible(model *solver.Model, values []float64) ([]float64, bool) {
	cols := model.Columns()
	rounded := make([]float64, len(values))
	for j, col := range cols {
		v := values[j]
		if col.Kind == solver.Integer {
			v = math.Round(v)
			if v < col.Lower-b.opts.FeasibilityTolerance || v > col.Upper+b.opts.FeasibilityTolerance {
				return nil, false
			}
		}
		rounded[j] = v
	}
	for _, r := range model.Rows() {
		lhs := 0.0
		for _, t := range r.Terms {
			lhs += t.Coef * rounded[t.Var]
		}
		tol := b.opts.FeasibilityTolerance * math.Max(1, math.Abs(r.RHS))
		switch r.Sense {
		case solver.LessEqual:
			if lhs > r.RHS+tol {
				return nil, false
			}
		case solver.GreaterEqual:
			if lhs < r.RHS-tol {
				return nil, false
			}
		default:
			if math.Abs(lhs-r.RHS) > tol {
				return nil, false
			}
		}
	}
	return rounded, true
}

// integralObjective reports whether every feasible integer point has an
// integral objective value.
func integralObjective(model *solver.Model) bool {
	if model.Objective.Constant != math.Trunc(model.Objective.Constant) {
		return false
	}
	cols := model.Columns()
	for _, t := range model.Objective.Terms {
		if t.Coef == 0 {
			continue
		}
		if cols[t.Var].Kind != solver.Integer || t.Coef != math.Trunc(t.Coef) {
			return false
		}
	}
	return true
}

func withBound(bounds []float64, j int, v float64) []float64 {
	out := make([]float64, len(bounds))
	copy(out, bounds)
	out[j] = v
	return out
}
