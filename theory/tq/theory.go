// Package tq implements the theory of linear arithmetic over the rationals:
// conjunctions of `coeffs · x >= rhs` / `coeffs · x < rhs` literals, decided
// by reduction to an LP feasibility (and, for strict rows, slack-
// maximization) query against an lp.Oracle.
package tq

import (
	"fmt"

	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/cnf"
	"github.com/crillab/gophersat-smt/lp"
	"github.com/crillab/gophersat-smt/sat"
	"github.com/crillab/gophersat-smt/theory"
)

// row is one asserted arithmetic literal already folded into the theory's
// internal `coeffs · x <= rhs` standard form. strict marks rows that came
// from a `<` atom and so need the slack column's margin to be > 0.
type row struct {
	coeffs []int
	rhs    int
	strict bool
}

// Theory implements theory.Theory for conjunctions of Geq/Less literals.
//
// SupportNegativeVars controls whether each variable x_i is split into a
// non-negative pair x_i+ - x_i- before the LP call, for callers whose
// variables aren't already known non-negative. On by default (New sets
// it); switched off, coefficients are handed to the oracle as-is, trusting
// the caller's domain already satisfies the oracle's x >= 0 contract.
type Theory struct {
	atoms  map[int]atom.Formula
	Oracle lp.Oracle

	SupportNegativeVars bool

	rows    []row
	trail   []sat.IntLit
	numVars int
}

// New builds an empty TQ theory backed by a gonum simplex oracle.
func New() *Theory {
	return &Theory{
		atoms:               make(map[int]atom.Formula),
		Oracle:              lp.GonumOracle{},
		SupportNegativeVars: true,
	}
}

// Preprocess rejects atoms this theory cannot represent: anything that
// isn't a Boolean connective over Geq/Less leaves. The atom grammar has
// only `>=` and `<` over vector terms (a linear equality can only be
// stated as a Geq and its dualised Less asserted separately), so there is
// no equality-expansion case here.
func (th *Theory) Preprocess(f atom.Formula) error {
	switch n := f.(type) {
	case atom.Geq:
		return th.checkDim(n.Coeffs)
	case atom.Less:
		return th.checkDim(n.Coeffs)
	case atom.Var, atom.Func, atom.Equal, atom.NEqual:
		return &theory.IncompatibleAtomError{Atom: f, Reason: "not a linear-arithmetic atom"}
	case atom.And:
		return firstErr(th.Preprocess(n.Left), th.Preprocess(n.Right))
	case atom.Or:
		return firstErr(th.Preprocess(n.Left), th.Preprocess(n.Right))
	case atom.Not:
		return th.Preprocess(n.Item)
	case atom.Imply:
		return firstErr(th.Preprocess(n.Left), th.Preprocess(n.Right))
	case atom.Equiv:
		return firstErr(th.Preprocess(n.Left), th.Preprocess(n.Right))
	default:
		return nil
	}
}

func (th *Theory) checkDim(v atom.Vector) error {
	if th.numVars == 0 {
		th.numVars = len(v)
		return nil
	}
	if len(v) != th.numVars {
		return &theory.IncompatibleAtomError{Atom: atom.Geq{Coeffs: v}, Reason: "coefficient vector dimension mismatch"}
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (th *Theory) RegisterAbstractionMap(m *cnf.AtomMap) {
	th.atoms = m.ToAtom
}

// ProcessAssignment appends one row per asserted Geq/Less literal. A Geq
// atom v·x >= rhs becomes the standard-form row -v·x <= -rhs; its negation
// (Less, same coeffs/rhs) becomes v·x <= rhs flagged strict.
func (th *Theory) ProcessAssignment(lit sat.IntLit) {
	a := th.atoms[lit.Var()]
	geq, ok := a.(atom.Geq)
	if !ok {
		return
	}
	var r row
	if lit.Sign() {
		r = row{coeffs: geq.Coeffs.Negated(), rhs: -geq.RHS, strict: false}
	} else {
		r = row{coeffs: geq.Coeffs, rhs: geq.RHS, strict: true}
	}
	th.rows = append(th.rows, r)
	th.trail = append(th.trail, lit)
}

// buildMatrix materializes the asserted rows into LP standard form,
// applying negative-variable splitting and appending the single shared
// slack column used to test strict rows' margins.
func (th *Theory) buildMatrix() (A [][]float64, b []float64, hasStrict bool) {
	for _, r := range th.rows {
		if r.strict {
			hasStrict = true
		}
	}
	varCols := th.numVars
	if th.SupportNegativeVars {
		varCols *= 2
	}
	totalCols := varCols
	if hasStrict {
		totalCols++
	}
	for _, r := range th.rows {
		line := make([]float64, totalCols)
		for j, c := range r.coeffs {
			if th.SupportNegativeVars {
				line[2*j] = float64(c)
				line[2*j+1] = float64(-c)
			} else {
				line[j] = float64(c)
			}
		}
		if hasStrict && r.strict {
			line[totalCols-1] = 1
		}
		A = append(A, line)
		b = append(b, float64(r.rhs))
	}
	return A, b, hasStrict
}

// AnalyzeSatisfiability decides feasibility of the current row set. With
// no strict rows this is a plain feasibility query (any objective works);
// with strict rows present it maximizes the shared slack column, since a
// strict system is satisfiable iff that maximum is strictly positive.
func (th *Theory) AnalyzeSatisfiability() (bool, []sat.IntLit) {
	if len(th.rows) == 0 {
		return true, nil
	}
	A, b, hasStrict := th.buildMatrix()
	c := make([]float64, len(A[0]))
	if hasStrict {
		c[len(c)-1] = -1 // minimize -slack == maximize slack
	}
	res, err := th.Oracle.Solve(A, b, c)
	if err != nil {
		panic(fmt.Sprintf("tq: lp oracle error: %v", err))
	}

	var sat_ bool
	switch res.Status {
	case lp.Unbounded:
		sat_ = true
	case lp.Optimal:
		sat_ = !hasStrict || res.Value < 0
	case lp.Infeasible:
		sat_ = false
	}
	if sat_ {
		return true, nil
	}

	learned := make([]sat.IntLit, len(th.trail))
	for i, lit := range th.trail {
		learned[i] = -lit
	}
	return false, learned
}

// PopTPropagation never fires: this theory is conflict-driven only. The LP
// reduction answers feasibility of the full asserted set; it derives no
// cheaper per-literal bound propagation from the tableau.
func (th *Theory) PopTPropagation() (sat.IntLit, bool) { return 0, false }

// ConflictRecovery clears the row set and replays survivors, the
// coordinator-maintained chronological trail prefix surviving a backjump.
func (th *Theory) ConflictRecovery(survivors []sat.IntLit) {
	th.rows = nil
	th.trail = nil
	for _, lit := range survivors {
		th.ProcessAssignment(lit)
	}
}

func (th *Theory) Reset() {
	th.rows = nil
	th.trail = nil
}

// ToPreTheoryAssignment passes Geq/Less atoms through unchanged: this
// theory rewrites literals into LP rows internally but never introduces
// new atoms into the AtomMap the way Tseitin dummies do, so there is
// nothing to fold back here beyond the identity.
func (th *Theory) ToPreTheoryAssignment(assignment map[sat.IntLit]bool) []theory.AtomAssignment {
	out := make([]theory.AtomAssignment, 0, len(assignment))
	for lit, val := range assignment {
		a, ok := th.atoms[lit.Var()]
		if !ok {
			continue
		}
		out = append(out, theory.AtomAssignment{Atom: a, Value: val})
	}
	return out
}
