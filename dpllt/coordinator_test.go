package dpllt

import (
	"bytes"
	"testing"

	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/parser"
	"github.com/crillab/gophersat-smt/theory"
	"github.com/crillab/gophersat-smt/theory/tq"
	"github.com/crillab/gophersat-smt/theory/uf"
)

// valueOf looks up name's assigned truth value among assignment, reporting
// whether it was found at all (Tseitin/dummy bookkeeping atoms, and atoms
// the solver never had to decide, don't appear).
func valueOf(assignment []theory.AtomAssignment, name string) (bool, bool) {
	for _, aa := range assignment {
		if v, ok := aa.Atom.(atom.Var); ok && v.Name == name {
			return aa.Value, true
		}
	}
	return false, false
}

// evalFormula is an independent, direct-evaluation oracle over the
// propositional connectives, used to check a solved model actually
// satisfies the source formula rather than trusting the solver's own CNF
// pipeline to round-trip correctly.
func evalFormula(f atom.Formula, val map[string]bool) bool {
	switch n := f.(type) {
	case atom.Var:
		return val[n.Name]
	case atom.Not:
		return !evalFormula(n.Item, val)
	case atom.And:
		return evalFormula(n.Left, val) && evalFormula(n.Right, val)
	case atom.Or:
		return evalFormula(n.Left, val) || evalFormula(n.Right, val)
	case atom.Imply:
		return !evalFormula(n.Left, val) || evalFormula(n.Right, val)
	case atom.Equiv:
		return evalFormula(n.Left, val) == evalFormula(n.Right, val)
	default:
		panic("evalFormula: unsupported node for this test")
	}
}

func assignmentToValuation(assignment []theory.AtomAssignment) map[string]bool {
	val := map[string]bool{}
	for _, aa := range assignment {
		if v, ok := aa.Atom.(atom.Var); ok {
			val[v.Name] = aa.Value
		}
	}
	return val
}

// (p & q) | !(q | r) is SAT, e.g. at p=q=true with r unconstrained. The
// model the solver actually picks depends on Decide's tie-break, so this
// only asserts the returned model is genuinely satisfying rather than
// hand-tracing the exact decision sequence.
func TestSolvePurelyPropositionalSAT(t *testing.T) {
	p, q, r := atom.NewVar("p"), atom.NewVar("q"), atom.NewVar("r")
	f := atom.Or{
		Left:  atom.And{Left: p, Right: q},
		Right: atom.Not{Item: atom.Or{Left: q, Right: r}},
	}
	c, err := InitCase(f, theory.NewProp())
	if err != nil {
		t.Fatalf("InitCase: %v", err)
	}
	ok, assignment := c.Solve(&bytes.Buffer{})
	if !ok {
		t.Fatal("expected SAT")
	}
	if !evalFormula(f, assignmentToValuation(assignment)) {
		t.Errorf("returned model %v does not satisfy %s", assignment, f)
	}
}

// !((!(p & q)) -> !r) is a formula whose top connective isn't directly
// CNF-shaped, exercising the Tseitin dummy-variable machinery. By truth
// table it reduces to (!p | !q) & r, so any returned model must set r true
// and at least one of p, q false; the soundness check below covers that.
func TestSolveTseitinDependentSAT(t *testing.T) {
	p, q, r := atom.NewVar("p"), atom.NewVar("q"), atom.NewVar("r")
	f := atom.Not{Item: atom.Imply{
		Left:  atom.Not{Item: atom.And{Left: p, Right: q}},
		Right: atom.Not{Item: r},
	}}
	c, err := InitCase(f, theory.NewProp())
	if err != nil {
		t.Fatalf("InitCase: %v", err)
	}
	ok, assignment := c.Solve(&bytes.Buffer{})
	if !ok {
		t.Fatal("expected SAT")
	}
	if !evalFormula(f, assignmentToValuation(assignment)) {
		t.Errorf("returned model %v does not satisfy %s", assignment, f)
	}
	if rVal, found := valueOf(assignment, "r"); !found || !rVal {
		t.Errorf("every model of this formula sets r true, got %v", assignment)
	}
}

func TestSolvePurelyPropositionalUnsat(t *testing.T) {
	p := atom.NewVar("p")
	f := atom.And{Left: p, Right: atom.Not{Item: p}}
	c, err := InitCase(f, theory.NewProp())
	if err != nil {
		t.Fatalf("InitCase: %v", err)
	}
	ok, assignment := c.Solve(&bytes.Buffer{})
	if ok {
		t.Error("expected UNSAT for p & !p")
	}
	if assignment != nil {
		t.Errorf("UNSAT result should carry no assignment, got %v", assignment)
	}
}

// A conjunction of clauses mixing equalities and disequalities over
// a, b, s, t, r with one UF-forced propagation chain. Expected SAT.
func TestSolveUFSatWithPropagation(t *testing.T) {
	a, b, s, tt, r := atom.NewVar("a"), atom.NewVar("b"), atom.NewVar("s"), atom.NewVar("t"), atom.NewVar("r")
	fa, fs := atom.NewFunc("f", a), atom.NewFunc("f", s)

	f := atom.AndN(
		atom.NewEqual(a, b),
		atom.OrN(atom.NewNEqual(a, b), atom.NewNEqual(s, tt), atom.NewEqual(b, atom.NewVar("c"))),
		atom.OrN(atom.NewEqual(s, tt), atom.NewNEqual(tt, r), atom.NewEqual(fs, fa)),
		atom.OrN(atom.NewNEqual(b, atom.NewVar("c")), atom.NewNEqual(tt, r), atom.NewEqual(fs, fa)),
		atom.OrN(atom.NewNEqual(fs, fa), atom.NewNEqual(fa, atom.NewFunc("f", atom.NewVar("c")))),
	)
	c, err := InitCase(f, uf.New())
	if err != nil {
		t.Fatalf("InitCase: %v", err)
	}
	ok, _ := c.Solve(&bytes.Buffer{})
	if !ok {
		t.Error("expected SAT")
	}
}

func TestSolveUFUnsatByCongruence(t *testing.T) {
	a, c0, d := atom.NewVar("a"), atom.NewVar("c"), atom.NewVar("d")
	ga := atom.NewFunc("g", a)
	fga, fc := atom.NewFunc("f", ga), atom.NewFunc("f", c0)

	f := atom.AndN(
		atom.NewEqual(ga, c0),
		atom.OrN(atom.NewNEqual(fga, fc), atom.NewEqual(ga, d)),
		atom.NewNEqual(c0, d),
	)
	c, err := InitCase(f, uf.New())
	if err != nil {
		t.Fatalf("InitCase: %v", err)
	}
	ok, _ := c.Solve(&bytes.Buffer{})
	if ok {
		t.Error("expected UNSAT")
	}
}

// f^3(a)=a and f^5(a)=a force f^2(a)=a (gcd reasoning via repeated
// congruence), hence f(a)=a, contradicting f(a)!=a.
func TestSolveUFIteratedFunctionUnsat(t *testing.T) {
	a := atom.NewVar("a")
	fa := atom.NewFunc("f", a)
	fffa := atom.NewFunc("f", atom.NewFunc("f", fa))
	fffffa := atom.NewFunc("f", atom.NewFunc("f", fffa))

	f := atom.AndN(
		atom.NewEqual(fffa, a),
		atom.NewEqual(fffffa, a),
		atom.NewNEqual(fa, a),
	)
	c, err := InitCase(f, uf.New())
	if err != nil {
		t.Fatalf("InitCase: %v", err)
	}
	ok, _ := c.Solve(&bytes.Buffer{})
	if ok {
		t.Error("expected UNSAT")
	}
}

func TestSolveTQStrictConflictUnsatBothModes(t *testing.T) {
	for _, supportNeg := range []bool{true, false} {
		name := "without negative vars"
		if supportNeg {
			name = "with negative vars"
		}
		t.Run(name, func(t *testing.T) {
			f := atom.AndN(
				atom.NewGeq(atom.Vector{1, 1}, 1),
				atom.NewLess(atom.Vector{1, 1}, -1),
			)
			th := tq.New()
			th.SupportNegativeVars = supportNeg
			c, err := InitCase(f, th)
			if err != nil {
				t.Fatalf("InitCase: %v", err)
			}
			if ok, _ := c.Solve(&bytes.Buffer{}); ok {
				t.Error("expected UNSAT: x+y>=1 and x+y<-1 are jointly infeasible")
			}
		})
	}
}

func TestSolveTQNegativeVarsModeDependent(t *testing.T) {
	build := func() atom.Formula {
		return atom.AndN(
			atom.NewGeq(atom.Vector{-1, -1}, -3),
			atom.NewGeq(atom.Vector{-2, 1}, 5),
		)
	}

	t.Run("SAT with negative vars supported", func(t *testing.T) {
		th := tq.New()
		th.SupportNegativeVars = true
		c, err := InitCase(build(), th)
		if err != nil {
			t.Fatalf("InitCase: %v", err)
		}
		ok, assignment := c.Solve(&bytes.Buffer{})
		if !ok {
			t.Fatal("expected SAT")
		}
		for _, aa := range assignment {
			if !aa.Value {
				t.Errorf("both conjuncts were asserted positively, yet %s came back false", aa.Atom)
			}
		}
	})

	t.Run("UNSAT without negative vars support", func(t *testing.T) {
		th := tq.New()
		th.SupportNegativeVars = false
		c, err := InitCase(build(), th)
		if err != nil {
			t.Fatalf("InitCase: %v", err)
		}
		if ok, _ := c.Solve(&bytes.Buffer{}); ok {
			t.Error("expected UNSAT with non-negative variables")
		}
	})
}

// Full text-to-verdict round trip: surface grammar in, UNSAT verdict out.
func TestSolveFromSurfaceGrammar(t *testing.T) {
	f, err := parser.Parse("(g(a) = c) & (((f(g(a)) != f(c)) | (g(a) = d)) & (c != d))")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := InitCase(f, uf.New())
	if err != nil {
		t.Fatalf("InitCase: %v", err)
	}
	if ok, _ := c.Solve(&bytes.Buffer{}); ok {
		t.Error("expected UNSAT")
	}
}

func TestInitCaseReturnsErrorOnPreprocessFailure(t *testing.T) {
	a, b, c := atom.NewVar("a"), atom.NewVar("b"), atom.NewVar("c")
	bad := atom.NewEqual(atom.NewEqual(a, b), c)
	if _, err := InitCase(bad, uf.New()); err == nil {
		t.Error("expected InitCase to surface a Preprocess error")
	}
}

func TestNewTheoryDispatchesOnKind(t *testing.T) {
	if _, ok := NewTheory(theory.EqualityUF).(*uf.Theory); !ok {
		t.Error("NewTheory(EqualityUF) did not return a *uf.Theory")
	}
	if _, ok := NewTheory(theory.LinearArithmeticTQ).(*tq.Theory); !ok {
		t.Error("NewTheory(LinearArithmeticTQ) did not return a *tq.Theory")
	}
	if _, ok := NewTheory(theory.Propositional).(*theory.Prop); !ok {
		t.Error("NewTheory(Propositional) did not return a *theory.Prop")
	}
}
