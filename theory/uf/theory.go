package uf

import (
	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/cnf"
	"github.com/crillab/gophersat-smt/sat"
	"github.com/crillab/gophersat-smt/theory"
)

// trueSentinel is the synthetic term bare Boolean literals are normalised
// against: asserting `v` becomes `v = $True`, asserting `!v` becomes
// `v != $True`, so the congruence graph only ever sees (dis)equalities.
var trueSentinel = atom.NewVar("$True")

type neqPair struct{ left, right atom.Formula }

// Theory implements theory.Theory for the equality-with-uninterpreted-
// functions fragment: conjunctions of `t = s` / `t != s` literals.
type Theory struct {
	atoms map[int]atom.Formula

	graph      *congruenceGraph
	activeNeqs []neqPair

	trail     []sat.IntLit
	processed map[int]bool

	propQueue []sat.IntLit
	queued    map[sat.IntLit]bool

	snapshots []*snapshot
}

// New builds an empty UF theory.
func New() *Theory {
	return &Theory{
		atoms:     make(map[int]atom.Formula),
		graph:     newCongruenceGraph(),
		processed: make(map[int]bool),
		queued:    make(map[sat.IntLit]bool),
	}
}

// Preprocess rejects atoms this theory cannot represent: Equal/NEqual
// operands that are themselves equalities, and Func arguments that are
// Equal/NEqual.
func (th *Theory) Preprocess(f atom.Formula) error {
	switch n := f.(type) {
	case atom.Equal:
		return firstErr(checkUFTerm(n.Left), checkUFTerm(n.Right))
	case atom.NEqual:
		return firstErr(checkUFTerm(n.Left), checkUFTerm(n.Right))
	case atom.Func:
		return checkUFTerm(n)
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

func checkUFTerm(f atom.Formula) error {
	switch n := f.(type) {
	case atom.Equal, atom.NEqual:
		return &theory.IncompatibleAtomError{Atom: f, Reason: "equality/disequality operand must be a term, not itself an (in)equality"}
	case atom.Func:
		for _, arg := range n.Args {
			if err := checkUFTerm(arg); err != nil {
				return err
			}
		}
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
	th.graph.register(trueSentinel)
}

// interpretLiteral reads lit's underlying atom and returns the (left,
// right, isEquality) triple it asserts, normalising bare Var/Func literals
// against the $True sentinel.
func (th *Theory) interpretLiteral(lit sat.IntLit) (atom.Formula, atom.Formula, bool) {
	a := th.atoms[lit.Var()]
	switch n := a.(type) {
	case atom.Equal:
		return n.Left, n.Right, lit.Sign()
	default:
		return a, trueSentinel, lit.Sign()
	}
}

func (th *Theory) ProcessAssignment(lit sat.IntLit) {
	th.snapshots = append(th.snapshots, th.snapshot())

	left, right, isEq := th.interpretLiteral(lit)
	th.graph.register(left)
	th.graph.register(right)
	if isEq {
		th.graph.applyEquality(left, right)
	} else {
		th.activeNeqs = append(th.activeNeqs, neqPair{left, right})
	}

	th.trail = append(th.trail, lit)
	th.processed[lit.Var()] = true
	th.updatePropagationQueue()
}

func (th *Theory) conflictingPair() (neqPair, bool) {
	for _, p := range th.activeNeqs {
		if th.graph.sameClass(p.left, p.right) {
			return p, true
		}
	}
	return neqPair{}, false
}

func (th *Theory) AnalyzeSatisfiability() (bool, []sat.IntLit) {
	pair, found := th.conflictingPair()
	if !found {
		return true, nil
	}
	core := th.conflictCore(pair)
	learned := make([]sat.IntLit, len(core))
	for i, lit := range core {
		learned[i] = -lit
	}
	return false, learned
}

// conflictCore computes a minimal-ish conflict core by iterated removal:
// for each literal in the trail, try dropping it and replaying the rest;
// keep it dropped if the target pair still conflicts without it.
func (th *Theory) conflictCore(pair neqPair) []sat.IntLit {
	suspects := append([]sat.IntLit(nil), th.trail...)
	for _, lit := range th.trail {
		candidate := removeOne(suspects, lit)
		if th.replayConflicts(candidate, pair) {
			suspects = candidate
		}
	}
	return suspects
}

func removeOne(lits []sat.IntLit, target sat.IntLit) []sat.IntLit {
	out := make([]sat.IntLit, 0, len(lits))
	removed := false
	for _, l := range lits {
		if !removed && l == target {
			removed = true
			continue
		}
		out = append(out, l)
	}
	return out
}

func (th *Theory) replayConflicts(lits []sat.IntLit, pair neqPair) bool {
	g := newCongruenceGraph()
	g.register(trueSentinel)
	var neqs []neqPair
	for _, lit := range lits {
		left, right, isEq := th.interpretLiteral(lit)
		g.register(left)
		g.register(right)
		if isEq {
			g.applyEquality(left, right)
		} else {
			neqs = append(neqs, neqPair{left, right})
		}
	}
	for _, n := range neqs {
		if samePair(n, pair) && g.sameClass(n.left, n.right) {
			return true
		}
	}
	return false
}

func samePair(a, b neqPair) bool {
	return (atom.SameFormula(a.left, b.left) && atom.SameFormula(a.right, b.right)) ||
		(atom.SameFormula(a.left, b.right) && atom.SameFormula(a.right, b.left))
}

// updatePropagationQueue scans every still-unassigned equality atom: if its
// two sides already share a class, the equality can be propagated true; if
// its sides are exactly the two classes of an active disequality, the
// equality can be propagated false.
func (th *Theory) updatePropagationQueue() {
	for v, a := range th.atoms {
		if th.processed[v] {
			continue
		}
		eq, ok := a.(atom.Equal)
		if !ok {
			continue
		}
		if !th.graph.known(eq.Left) || !th.graph.known(eq.Right) {
			continue
		}
		lit := sat.IntLit(v)
		if th.graph.sameClass(eq.Left, eq.Right) {
			th.enqueue(lit)
		} else if th.disequalityConnects(eq.Left, eq.Right) {
			th.enqueue(-lit)
		}
	}
}

func (th *Theory) disequalityConnects(t, s atom.Formula) bool {
	ct, cs := th.graph.find(t.Key()), th.graph.find(s.Key())
	for _, p := range th.activeNeqs {
		cp, cq := th.graph.find(p.left.Key()), th.graph.find(p.right.Key())
		if (cp == ct && cq == cs) || (cp == cs && cq == ct) {
			return true
		}
	}
	return false
}

func (th *Theory) enqueue(lit sat.IntLit) {
	if th.queued[lit] || th.queued[-lit] {
		return
	}
	th.queued[lit] = true
	th.propQueue = append(th.propQueue, lit)
}

// PopTPropagation dequeues the next implied literal. A queued literal's
// variable can get assigned by Boolean propagation before the coordinator
// drains the queue; such entries are stale and skipped, not handed back.
func (th *Theory) PopTPropagation() (sat.IntLit, bool) {
	for len(th.propQueue) > 0 {
		lit := th.propQueue[0]
		th.propQueue = th.propQueue[1:]
		delete(th.queued, lit)
		if th.processed[lit.Var()] {
			continue
		}
		return lit, true
	}
	return 0, false
}

func (th *Theory) Reset() {
	th.graph = newCongruenceGraph()
	th.graph.register(trueSentinel)
	th.activeNeqs = nil
	th.trail = nil
	th.processed = make(map[int]bool)
	th.propQueue = nil
	th.queued = make(map[sat.IntLit]bool)
	th.snapshots = nil
}

// ToPreTheoryAssignment passes Equal/Func/Var atoms through unchanged; UF
// introduces no rewritten atoms of its own (nor does TQ), so final
// reconstruction is the identity on this theory's
// atoms aside from dropping the $True bookkeeping, which never appears in
// the AtomMap (it's purely internal to the congruence graph).
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
