package tq

import (
	"testing"

	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/cnf"
	"github.com/crillab/gophersat-smt/sat"
)

// setup builds a TQ theory for f, registers its abstraction map, and returns
// both the theory and the int<->atom bijection so tests can assert literals
// directly.
func setup(t *testing.T, f atom.Formula, supportNeg bool) (*Theory, *cnf.AtomMap) {
	t.Helper()
	th := New()
	th.SupportNegativeVars = supportNeg
	if err := th.Preprocess(f); err != nil {
		t.Fatalf("Preprocess(%s) = %v, want nil", f, err)
	}
	_, m := cnf.Abstract(f)
	th.RegisterAbstractionMap(m)
	return th, m
}

// litFor finds the signed IntLit abstracting want, searching both polarities
// since AtomMap only stores each variable's canonical positive atom (Geq,
// never Less, which canonicalizes to its dual Geq with isPositive=false).
func litFor(m *cnf.AtomMap, want atom.Formula) sat.IntLit {
	for i, a := range m.ToAtom {
		if atom.SameFormula(a, want) {
			return sat.IntLit(i)
		}
		if atom.SameFormula(a, want.Negate()) {
			return sat.IntLit(-i)
		}
	}
	return 0
}

// ([1,1] >= 1) & ([1,1] < -1) is UNSAT regardless of the negative-variables
// mode: x+y >= 1 and x+y < -1 can never both hold.
func TestTQStrictConflictBothModes(t *testing.T) {
	for _, supportNeg := range []bool{true, false} {
		t.Run(map[bool]string{true: "with negative vars", false: "without negative vars"}[supportNeg], func(t *testing.T) {
			geq := atom.NewGeq(atom.Vector{1, 1}, 1)
			less := atom.NewLess(atom.Vector{1, 1}, -1)
			f := atom.AndN(geq, less)
			th, m := setup(t, f, supportNeg)

			th.ProcessAssignment(litFor(m, geq))
			th.ProcessAssignment(litFor(m, less))

			ok, clause := th.AnalyzeSatisfiability()
			if ok {
				t.Error("expected UNSAT: x+y>=1 and x+y<-1 are jointly infeasible")
			}
			if len(clause) != 2 {
				t.Errorf("learned conflict clause = %v, want one negated literal per asserted row", clause)
			}
		})
	}
}

// ([-1,-1] >= -3) & ([-2,1] >= 5) is SAT when negative variables are
// supported (e.g. x=-4, y=-3 reaches -2*-4+1*-3=5 and -1*-4-1*-3=7>=-3)
// and UNSAT when the oracle must treat x,y as >= 0 (reaching -2x+y>=5
// within -x-y>=-3 needs x<0, impossible without splitting).
func TestTQNegativeVarsModeDependent(t *testing.T) {
	a := atom.NewGeq(atom.Vector{-1, -1}, -3)
	b := atom.NewGeq(atom.Vector{-2, 1}, 5)
	f := atom.AndN(a, b)

	t.Run("SAT with negative vars supported", func(t *testing.T) {
		th, m := setup(t, f, true)
		th.ProcessAssignment(litFor(m, a))
		th.ProcessAssignment(litFor(m, b))
		if ok, _ := th.AnalyzeSatisfiability(); !ok {
			t.Error("expected SAT with SupportNegativeVars=true")
		}
	})

	t.Run("UNSAT without negative vars support", func(t *testing.T) {
		th, m := setup(t, f, false)
		th.ProcessAssignment(litFor(m, a))
		th.ProcessAssignment(litFor(m, b))
		if ok, _ := th.AnalyzeSatisfiability(); ok {
			t.Error("expected UNSAT with SupportNegativeVars=false: x,y>=0 can't satisfy -2x+y>=5 and -x-y>=-3 together")
		}
	})
}

func TestAnalyzeSatisfiabilityTrivialWhenNoRows(t *testing.T) {
	th := New()
	ok, clause := th.AnalyzeSatisfiability()
	if !ok || clause != nil {
		t.Errorf("AnalyzeSatisfiability() on an empty row set = (%v, %v), want (true, nil)", ok, clause)
	}
}

func TestProcessAssignmentIgnoresNonArithmeticLiteral(t *testing.T) {
	p := atom.NewVar("p")
	f := atom.AndN(p, atom.NewGeq(atom.Vector{1}, 0))
	// Preprocess rejects p (see TestPreprocessRejectsNonArithmeticAtom), so
	// the abstraction map is registered directly instead of through setup.
	th := New()
	_, m := cnf.Abstract(f)
	th.RegisterAbstractionMap(m)
	before := len(th.rows)
	th.ProcessAssignment(litFor(m, p))
	if len(th.rows) != before {
		t.Error("ProcessAssignment should ignore a literal whose atom isn't a Geq")
	}
}

func TestProcessAssignmentRowSigns(t *testing.T) {
	geq := atom.NewGeq(atom.Vector{1, 2}, 3)
	f := geq
	th, m := setup(t, f, false)

	th.ProcessAssignment(litFor(m, geq))
	if len(th.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(th.rows))
	}
	r := th.rows[0]
	if r.strict {
		t.Error("asserting Geq true should produce a non-strict row")
	}
	want := atom.Vector{-1, -2}
	for i, c := range want {
		if r.coeffs[i] != c {
			t.Errorf("negated coeffs = %v, want %v", r.coeffs, want)
		}
	}
	if r.rhs != -3 {
		t.Errorf("negated rhs = %d, want -3", r.rhs)
	}
}

func TestProcessAssignmentRowSignsNegatedAtom(t *testing.T) {
	geq := atom.NewGeq(atom.Vector{1, 2}, 3)
	f := geq
	th, m := setup(t, f, false)

	th.ProcessAssignment(litFor(m, geq.Negate())) // assert Less(coeffs, rhs) true
	r := th.rows[0]
	if !r.strict {
		t.Error("asserting the Less dual true should produce a strict row")
	}
	if r.rhs != 3 {
		t.Errorf("rhs = %d, want 3 (unnegated)", r.rhs)
	}
}

func TestBuildMatrixSplitsNegativeVars(t *testing.T) {
	th := New()
	th.SupportNegativeVars = true
	th.numVars = 2
	th.rows = []row{{coeffs: []int{1, -2}, rhs: 5, strict: false}}

	A, b, hasStrict := th.buildMatrix()
	if hasStrict {
		t.Error("no strict rows were added")
	}
	if len(A) != 1 || len(A[0]) != 4 {
		t.Fatalf("A = %v, want one row of 4 columns (2 vars split in two)", A)
	}
	want := []float64{1, -1, -2, 2}
	for i, v := range want {
		if A[0][i] != v {
			t.Errorf("A[0] = %v, want %v", A[0], want)
		}
	}
	if b[0] != 5 {
		t.Errorf("b = %v, want [5]", b)
	}
}

func TestBuildMatrixAddsSharedSlackColumnForStrictRows(t *testing.T) {
	th := New()
	th.SupportNegativeVars = false
	th.numVars = 1
	th.rows = []row{
		{coeffs: []int{1}, rhs: 1, strict: false},
		{coeffs: []int{2}, rhs: 3, strict: true},
	}
	A, _, hasStrict := th.buildMatrix()
	if !hasStrict {
		t.Fatal("expected hasStrict=true")
	}
	if len(A[0]) != 2 || len(A[1]) != 2 {
		t.Fatalf("A = %v, want 2 columns per row (1 var + shared slack)", A)
	}
	if A[0][1] != 0 {
		t.Errorf("non-strict row's slack column = %v, want 0", A[0][1])
	}
	if A[1][1] != 1 {
		t.Errorf("strict row's slack column = %v, want 1", A[1][1])
	}
}

func TestConflictRecoveryReplaysSurvivors(t *testing.T) {
	geq1 := atom.NewGeq(atom.Vector{1}, 0)
	geq2 := atom.NewGeq(atom.Vector{1}, 1)
	f := atom.AndN(geq1, geq2)
	th, m := setup(t, f, false)

	l1 := litFor(m, geq1)
	l2 := litFor(m, geq2)
	th.ProcessAssignment(l1)
	th.ProcessAssignment(l2)
	if len(th.rows) != 2 {
		t.Fatalf("expected 2 rows before recovery, got %d", len(th.rows))
	}

	th.ConflictRecovery([]sat.IntLit{l1})
	if len(th.rows) != 1 {
		t.Errorf("ConflictRecovery(prefix of length 1) left %d rows, want 1", len(th.rows))
	}
	if len(th.trail) != 1 || th.trail[0] != l1 {
		t.Errorf("trail after recovery = %v, want [%v]", th.trail, l1)
	}
}

func TestConflictRecoveryToEmptyPrefixResets(t *testing.T) {
	geq := atom.NewGeq(atom.Vector{1}, 0)
	th, m := setup(t, geq, false)
	th.ProcessAssignment(litFor(m, geq))
	th.ConflictRecovery(nil)
	if len(th.rows) != 0 || len(th.trail) != 0 {
		t.Error("ConflictRecovery(nil) should fully reset the theory")
	}
}

func TestPreprocessRejectsDimensionMismatch(t *testing.T) {
	f := atom.AndN(atom.NewGeq(atom.Vector{1, 2}, 0), atom.NewGeq(atom.Vector{1}, 0))
	th := New()
	if err := th.Preprocess(f); err == nil {
		t.Error("expected Preprocess to reject mismatched coefficient-vector dimensions")
	}
}

func TestPreprocessRejectsNonArithmeticAtom(t *testing.T) {
	th := New()
	if err := th.Preprocess(atom.NewVar("p")); err == nil {
		t.Error("expected Preprocess to reject a bare propositional variable")
	}
}

func TestToPreTheoryAssignmentPassesAtomsThrough(t *testing.T) {
	geq := atom.NewGeq(atom.Vector{1}, 0)
	th, m := setup(t, geq, false)
	lit := litFor(m, geq)

	out := th.ToPreTheoryAssignment(map[sat.IntLit]bool{lit: true})
	if len(out) != 1 {
		t.Fatalf("got %d assignments, want 1", len(out))
	}
	if !atom.SameFormula(out[0].Atom, geq) || !out[0].Value {
		t.Errorf("ToPreTheoryAssignment = %+v, want {%s, true}", out[0], geq)
	}
}

func TestPopTPropagationNeverFires(t *testing.T) {
	th := New()
	if _, ok := th.PopTPropagation(); ok {
		t.Error("TQ theory does not implement propagation and should never report one")
	}
}
