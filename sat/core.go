package sat

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/crillab/gophersat-smt/internal/ordered"
)

// Stats tracks CDCL search progress. This engine never restarts, so only
// decision/propagation/conflict/learned counters are kept.
type Stats struct {
	NbDecisions    int
	NbPropagations int
	NbConflicts    int
	NbLearned      int
}

// SATCore is the CDCL engine: clause database, watch index, assignment,
// implication graph and BCP work queues. Clause index 0 is reserved (never
// assigned to a real clause) so AddClause can return it to mean "nothing
// was added".
type SATCore struct {
	Clauses      []*Clause
	unsatClauses *ordered.Set[int]
	watchIndex   map[IntLit]*ordered.Set[int]
	litClauses   map[IntLit]*ordered.Set[int]
	assignment   Assignment
	graph        *ImplicationGraph
	level        int

	bcpLits    []IntLit
	bcpClauses []int

	Verbose bool
	Stats   Stats
}

func intKey(i int) string { return strconv.Itoa(i) }

// NewSATCore builds an empty SATCore ready for AddClause calls.
func NewSATCore() *SATCore {
	return &SATCore{
		Clauses:      []*Clause{nil}, // index 0 reserved
		unsatClauses: ordered.NewSet(intKey),
		watchIndex:   make(map[IntLit]*ordered.Set[int]),
		litClauses:   make(map[IntLit]*ordered.Set[int]),
		assignment:   make(Assignment),
		graph:        newImplicationGraph(),
	}
}

// Level returns the current decision level.
func (s *SATCore) Level() int { return s.level }

// Assigned reports whether lit currently holds in the assignment.
func (s *SATCore) Assigned(lit IntLit) bool { return s.assignment.Holds(lit) }

func (s *SATCore) watchSet(lit IntLit) *ordered.Set[int] {
	set, ok := s.watchIndex[lit]
	if !ok {
		set = ordered.NewSet[int](intKey)
		s.watchIndex[lit] = set
	}
	return set
}

func (s *SATCore) litClauseSet(lit IntLit) *ordered.Set[int] {
	set, ok := s.litClauses[lit]
	if !ok {
		set = ordered.NewSet[int](intKey)
		s.litClauses[lit] = set
	}
	return set
}

// AddClause appends cl as a new clause, rejecting a literal/negation pair
// (trivial clause), evaluates it against the current assignment, installs
// initial watches, and returns its clause index. An empty cl is never
// produced by the CNF pre-processor and is therefore not specially handled.
// A trivial clause is silently discarded and 0 (the reserved index) is
// returned so the caller can tell no clause was actually added.
func (s *SATCore) AddClause(lits []IntLit, learned bool) int {
	deduped, trivial := dedupeLiterals(lits)
	if trivial {
		return 0
	}
	idx := len(s.Clauses)
	c := &Clause{Literals: deduped, Index: idx, Learned: learned}
	s.Clauses = append(s.Clauses, c)

	for _, lit := range c.Literals {
		s.litClauseSet(lit).Add(idx)
	}

	status := evaluate(c, s.assignment)
	if status != Sat {
		s.unsatClauses.Add(idx)
	}
	for i, lit := range suggestWatchLiterals(c, s.assignment) {
		c.Watch[i] = lit
		s.watchSet(lit).Add(idx)
	}
	if learned {
		s.Stats.NbLearned++
	}
	return idx
}

// AssignLiteral records lit as true at the current decision level with the
// given antecedent (NoAntecedent for a decision), removing every clause it
// satisfies from unsatClauses and enqueuing lit for BCP.
func (s *SATCore) AssignLiteral(lit IntLit, antecedent int) {
	if s.assignment.Holds(lit.Negation()) {
		panic(fmt.Sprintf("sat: assignLiteral: %d conflicts with existing assignment of %d", lit, lit.Negation()))
	}
	s.assignment[lit] = struct{}{}
	if set, ok := s.litClauses[lit]; ok {
		for _, idx := range set.Items() {
			s.unsatClauses.RemoveKey(intKey(idx))
		}
	}
	s.bcpLits = append(s.bcpLits, lit)
	s.graph.add(lit, s.level, antecedent)
	if antecedent == NoAntecedent {
		s.Stats.NbDecisions++
	} else {
		s.Stats.NbPropagations++
	}
}

// UnassignLiteral removes lit from the assignment and re-evaluates every
// clause containing it, re-adding the ones that fall back to Undecided.
func (s *SATCore) UnassignLiteral(lit IntLit) {
	delete(s.assignment, lit)
	if set, ok := s.litClauses[lit]; ok {
		for _, idx := range set.Items() {
			if evaluate(s.Clauses[idx], s.assignment) == Undecided {
				s.unsatClauses.Add(idx)
			}
		}
	}
}

// DeduceStatus is Deduce's three-valued result.
type DeduceStatus int

const (
	DeduceUndecided DeduceStatus = iota
	DeduceSat
	DeduceConflict
)

// Deduce asks clause clauseIdx for up to two unassigned literals: zero
// means Conflict (the synthetic conflict node is recorded), one means a
// unit deduction (DeduceSat with that literal), two installs them as new
// watches (DeduceUndecided). An already-satisfied clause returns
// (DeduceSat, 0) with no literal to propagate.
func (s *SATCore) Deduce(clauseIdx int) (DeduceStatus, IntLit) {
	c := s.Clauses[clauseIdx]
	if evaluate(c, s.assignment) == Sat {
		return DeduceSat, 0
	}
	unassigned := suggestWatchLiterals(c, s.assignment)
	switch len(unassigned) {
	case 0:
		s.graph.recordConflict(clauseIdx, s.level)
		s.Stats.NbConflicts++
		return DeduceConflict, 0
	case 1:
		return DeduceSat, unassigned[0]
	default:
		for _, old := range c.Watch {
			if old != 0 {
				s.watchSet(old).RemoveKey(intKey(clauseIdx))
			}
		}
		c.Watch[0], c.Watch[1] = unassigned[0], unassigned[1]
		s.watchSet(unassigned[0]).Add(clauseIdx)
		s.watchSet(unassigned[1]).Add(clauseIdx)
		return DeduceUndecided, 0
	}
}

// BCPStatus is BCPStep's result.
type BCPStatus int

const (
	BCPEmpty BCPStatus = iota
	BCPUnit
	BCPConflict
)

// BCPStep drains the clause queue, feeding the literal queue into it on
// exhaustion, until it finds a unit deduction, a conflict, or both queues
// run dry.
func (s *SATCore) BCPStep() (BCPStatus, IntLit, int) {
	for {
		if len(s.bcpClauses) == 0 {
			if len(s.bcpLits) == 0 {
				return BCPEmpty, 0, NoAntecedent
			}
			lit := s.bcpLits[0]
			s.bcpLits = s.bcpLits[1:]
			if set, ok := s.watchIndex[lit.Negation()]; ok {
				s.bcpClauses = append(s.bcpClauses, set.Items()...)
			}
			continue
		}
		idx := s.bcpClauses[0]
		s.bcpClauses = s.bcpClauses[1:]
		status, lit := s.Deduce(idx)
		switch status {
		case DeduceConflict:
			return BCPConflict, 0, idx
		case DeduceSat:
			if lit != 0 {
				return BCPUnit, lit, idx
			}
		case DeduceUndecided:
		}
	}
}

// Decide picks the next decision literal by DLIS: the unassigned literal
// appearing in the most currently-unsatisfied clauses. Ties break by
// lowest variable index, positive polarity first, for determinism. Decide
// panics if every variable is already assigned; the caller is required to
// have checked unsatClauses is non-empty first.
func (s *SATCore) Decide() IntLit {
	counts := make(map[IntLit]int)
	for _, idx := range s.unsatClauses.Items() {
		for _, lit := range s.Clauses[idx].Literals {
			if s.assignment.Decided(lit) {
				continue
			}
			counts[lit]++
		}
	}
	vars := make([]int, 0, len(counts))
	seen := make(map[int]bool)
	for lit := range counts {
		v := lit.Var()
		if !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	sort.Ints(vars)

	best, bestCount := IntLit(0), -1
	for _, v := range vars {
		for _, lit := range [2]IntLit{IntLit(v), -IntLit(v)} {
			if c, ok := counts[lit]; ok && c > bestCount {
				bestCount, best = c, lit
			}
		}
	}
	if best == 0 {
		panic("sat: decide: no unassigned literal remains in any unsatisfied clause")
	}
	return best
}

// ResolveConflict implements first-UIP resolution. start, if non-nil, is a
// theory-supplied conflict clause; otherwise the antecedent of the
// recorded conflict node is used. It panics if called at decision level 0 (the
// caller must detect overall UNSAT before invoking it) or if resolution
// reaches a same-level literal with no antecedent.
func (s *SATCore) ResolveConflict(start []IntLit) ([]IntLit, int) {
	if s.level == 0 {
		panic("sat: resolveConflict: called at decision level 0")
	}
	var current []IntLit
	if start != nil {
		current = append([]IntLit(nil), start...)
	} else {
		node, ok := s.graph.lastConflict()
		if !ok {
			panic("sat: resolveConflict: no conflict recorded and no start clause given")
		}
		current = append([]IntLit(nil), s.Clauses[node.Antecedent].Literals...)
	}

	for s.countAtLevel(current, s.level) > 1 {
		lit := s.lastAssignedAtLevel(current, s.level)
		node, ok := s.graph.nodeFor(lit)
		if !ok || node.Antecedent == NoAntecedent {
			panic("sat: resolveConflict: same-level literal has no antecedent")
		}
		current = resolve(current, s.Clauses[node.Antecedent].Literals, lit)
	}

	return current, s.secondHighestLevel(current, s.level)
}

func (s *SATCore) countAtLevel(lits []IntLit, level int) int {
	n := 0
	for _, lit := range lits {
		if s.graph.levelOf(lit) == level {
			n++
		}
	}
	return n
}

// lastAssignedAtLevel returns the literal in lits assigned at level that
// appears latest in that level's insertion-ordered assignment list. lits is
// always fully falsified under the current assignment (the resolution
// invariant), so each entry's variable is what's actually assigned, not its
// sign, so matching must go by variable, not by exact literal.
func (s *SATCore) lastAssignedAtLevel(lits []IntLit, level int) IntLit {
	inClause := make(map[int]bool, len(lits))
	for _, l := range lits {
		inClause[l.Var()] = true
	}
	order := s.graph.levelOrder[level]
	for i := len(order) - 1; i >= 0; i-- {
		if inClause[order[i].Var()] {
			return order[i]
		}
	}
	panic("sat: resolveConflict: no clause literal found at the target level")
}

func (s *SATCore) secondHighestLevel(lits []IntLit, currentLevel int) int {
	best := 0
	for _, lit := range lits {
		lvl := s.graph.levelOf(lit)
		if lvl != currentLevel && lvl > best {
			best = lvl
		}
	}
	return best
}

// resolve returns (a ∪ b) \ {pivot, -pivot}, deduplicated, preserving a's
// literal order followed by b's.
func resolve(a, b []IntLit, pivot IntLit) []IntLit {
	seen := make(map[IntLit]bool, len(a)+len(b))
	out := make([]IntLit, 0, len(a)+len(b))
	add := func(lits []IntLit) {
		for _, l := range lits {
			if l == pivot || l == pivot.Negation() {
				continue
			}
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	add(a)
	add(b)
	return out
}

// Backjump unassigns every literal above targetLevel (most recently
// assigned first) and prunes the implication graph accordingly, returning
// the surviving assignment as a sorted literal slice.
func (s *SATCore) Backjump(targetLevel int) []IntLit {
	for s.level > targetLevel {
		lits := s.graph.levelOrder[s.level]
		for i := len(lits) - 1; i >= 0; i-- {
			s.UnassignLiteral(lits[i])
		}
		s.level--
	}
	s.graph.pruneAbove(targetLevel)

	out := make([]IntLit, 0, len(s.assignment))
	for lit := range s.assignment {
		out = append(out, lit)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IncrementLevel bumps the decision level, used by the coordinator right
// before assigning a new decision literal.
func (s *SATCore) IncrementLevel() { s.level++ }

// AllSatisfied reports whether every clause currently evaluates to Sat.
func (s *SATCore) AllSatisfied() bool { return s.unsatClauses.Len() == 0 }

// Model returns the current full assignment as a literal slice, sorted by
// variable.
func (s *SATCore) Model() []IntLit {
	out := make([]IntLit, 0, len(s.assignment))
	for lit := range s.assignment {
		out = append(out, lit)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var() < out[j].Var() })
	return out
}

// WriteStats prints a one-line fixed-width snapshot of Stats to w, gated
// by the caller checking Verbose.
func (s *SATCore) WriteStats(w io.Writer) {
	fmt.Fprintf(w, "decisions: %-8d propagations: %-8d conflicts: %-8d learned: %-8d\n",
		s.Stats.NbDecisions, s.Stats.NbPropagations, s.Stats.NbConflicts, s.Stats.NbLearned)
}
