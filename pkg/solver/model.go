package solver

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedBound is returned by backends for columns they cannot represent,
// such as a column without a finite lower bound.
var ErrUnsupportedBound = errors.New("unsupported variable bound")

// VarKind distinguishes continuous from integer columns
type VarKind int

const (
	Continuous VarKind = iota
	Integer
)

// String returns the string representation of VarKind
func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "Continuous"
	case Integer:
		return "Integer"
	default:
		return "Unknown"
	}
}

// Sense is the relation of a constraint row to its right-hand side
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

// String returns the string representation of Sense
func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Direction is the optimization direction of the objective
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Var is a handle to a column of a Model
type Var int

// Column describes a decision variable
type Column struct {
	Name  string
	Lower float64
	Upper float64
	Kind  VarKind
}

// Row describes a linear constraint: Expr (Sense) RHS
type Row struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a linear or mixed-integer program built one column and row at a time.
// A Model is not safe for concurrent mutation; build one per solve.
type Model struct {
	Name      string
	Direction Direction
	Objective Expr

	cols []Column
	rows []Row
}

// NewModel creates an empty model
func NewModel(name string, direction Direction) *Model {
	return &Model{Name: name, Direction: direction}
}

// AddVar adds a column and returns its handle. Use math.Inf(1) for no upper bound.
func (m *Model) AddVar(name string, lower, upper float64, kind VarKind) Var {
	m.cols = append(m.cols, Column{Name: name, Lower: lower, Upper: upper, Kind: kind})
	return Var(len(m.cols) - 1)
}

// AddConstraint registers expr (sense) rhs. Any constant carried by expr is moved
// to the right-hand side, and repeated terms on the same column are merged.
func (m *Model) AddConstraint(name string, expr *Expr, sense Sense, rhs float64) {
	m.rows = append(m.rows, Row{
		Name:  name,
		Terms: expr.merged(),
		Sense: sense,
		RHS:   rhs - expr.Constant,
	})
}

// SetObjective replaces the objective expression
func (m *Model) SetObjective(expr *Expr) {
	m.Objective = *expr
}

// Columns returns the registered columns in insertion order
func (m *Model) Columns() []Column {
	return m.cols
}

// Rows returns the registered constraint rows in insertion order
func (m *Model) Rows() []Row {
	return m.rows
}

// NumVars returns the number of columns
func (m *Model) NumVars() int {
	return len(m.cols)
}

// HasIntegers reports whether any column is integer-valued
func (m *Model) HasIntegers() bool {
	for _, c := range m.cols {
		if c.Kind == Integer {
			return true
		}
	}
	return false
}

// Validate checks that every term references a known column and that all
// coefficients and bounds are usable numbers.
func (m *Model) Validate() error {
	for i, c := range m.cols {
		if math.IsNaN(c.Lower) || math.IsNaN(c.Upper) {
			return fmt.Errorf("column %d (%s): NaN bound", i, c.Name)
		}
		if c.Lower > c.Upper {
			return fmt.Errorf("column %d (%s): lower bound %g exceeds upper bound %g", i, c.Name, c.Lower, c.Upper)
		}
	}
	if err := m.checkTerms("objective", m.Objective.Terms); err != nil {
		return err
	}
	for _, r := range m.rows {
		if math.IsNaN(r.RHS) || math.IsInf(r.RHS, 0) {
			return fmt.Errorf("row %s: right-hand side must be finite, got %g", r.Name, r.RHS)
		}
		if err := m.checkTerms("row "+r.Name, r.Terms); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) checkTerms(where string, terms []Term) error {
	for _, t := range terms {
		if int(t.Var) < 0 || int(t.Var) >= len(m.cols) {
			return fmt.Errorf("%s: unknown variable %d", where, t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("%s: coefficient of %s must be finite, got %g", where, m.cols[t.Var].Name, t.Coef)
		}
	}
	return nil
}
