package solver

// Term is a coefficient applied to a column
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression Σ coef·var + Constant
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr returns an empty expression
func NewExpr() *Expr {
	return &Expr{}
}

// Add appends coef·v and returns the expression for chaining
func (e *Expr) Add(coef float64, v Var) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddConstant adds c to the constant part
func (e *Expr) AddConstant(c float64) *Expr {
	e.Constant += c
	return e
}

// Eval evaluates the expression against a dense value vector
func (e Expr) Eval(values []float64) float64 {
	total := e.Constant
	for _, t := range e.Terms {
		total += t.Coef * values[t.Var]
	}
	return total
}

// merged collapses repeated columns and drops zero coefficients, keeping first-seen order
func (e Expr) merged() []Term {
	index := make(map[Var]int, len(e.Terms))
	out := make([]Term, 0, len(e.Terms))
	for _, t := range e.Terms {
		if i, ok := index[t.Var]; ok {
			out[i].Coef += t.Coef
			continue
		}
		index[t.Var] = len(out)
		out = append(out, t)
	}
	kept := out[:0]
	for _, t := range out {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	return kept
}
