package solver

import "context"

// Status is the outcome of a solve
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	default:
		return "Not Solved"
	}
}

// Solution is the result of solving a Model. Values is indexed by Var and is
// only populated when Status is StatusOptimal.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	// Nodes is the number of relaxations solved.
	Nodes int
	// Reason describes why a solve ended without an optimal solution.
	Reason string
}

// HasValues reports whether variable values are available
func (s *Solution) HasValues() bool {
	return s != nil && s.Status == StatusOptimal && s.Values != nil
}

// Value returns the resolved value of v, or (0, false) when the model was not
// solved to optimality or v is out of range.
func (s *Solution) Value(v Var) (float64, bool) {
	if !s.HasValues() || int(v) < 0 || int(v) >= len(s.Values) {
		return 0, false
	}
	return s.Values[v], true
}

// ValueOrZero returns the value of v, defaulting to zero
func (s *Solution) ValueOrZero(v Var) float64 {
	value, _ := s.Value(v)
	return value
}

// Backend solves models. Non-optimal outcomes are reported through
// Solution.Status; the error return is reserved for models the backend cannot
// accept and for context cancellation.
type Backend interface {
	Solve(ctx context.Context, model *Model) (*Solution, error)
}
