package sat

// Status is the three-valued outcome of evaluating a clause (or a Deduce
// call) against the current assignment.
type Status int

const (
	Undecided Status = iota
	Sat
	Conflict
)

// Clause is a set of IntLits with a stable index and up to two watched
// literals. Invariant: no literal and its negation are both present
// (trivial clauses are rejected at AddClause); Watch is a subset of
// Literals.
type Clause struct {
	Literals []IntLit
	Index    int
	Watch    [2]IntLit // zero value (0) means "no watch assigned"
	Learned  bool
}

// dedupeLiterals removes duplicate literals and reports whether the clause
// is trivially satisfied (contains both ℓ and -ℓ).
func dedupeLiterals(lits []IntLit) (out []IntLit, trivial bool) {
	seen := make(map[IntLit]bool, len(lits))
	for _, l := range lits {
		if seen[l.Negation()] {
			return nil, true
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, false
}

// evaluate classifies c against assignment: Sat if some literal holds,
// Conflict if every literal's negation holds, Undecided otherwise.
func evaluate(c *Clause, assignment Assignment) Status {
	allFalsified := true
	for _, lit := range c.Literals {
		if assignment.Holds(lit) {
			return Sat
		}
		if !assignment.Holds(lit.Negation()) {
			allFalsified = false
		}
	}
	if allFalsified {
		return Conflict
	}
	return Undecided
}

// suggestWatchLiterals returns up to two currently-unassigned literals of
// c, in clause order, for use as new watches after backjumping or learning.
func suggestWatchLiterals(c *Clause, assignment Assignment) []IntLit {
	var out []IntLit
	for _, lit := range c.Literals {
		if assignment.Decided(lit) {
			continue
		}
		out = append(out, lit)
		if len(out) == 2 {
			break
		}
	}
	return out
}
