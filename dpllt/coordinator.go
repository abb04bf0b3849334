// Package dpllt implements the DPLL(T) main loop: a lazy combination of the
// CDCL Boolean core in package sat with a pluggable package theory decision
// procedure, plus final-assignment reconstruction back to the original atom
// tree.
package dpllt

import (
	"io"

	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/cnf"
	"github.com/crillab/gophersat-smt/sat"
	"github.com/crillab/gophersat-smt/theory"
	"github.com/crillab/gophersat-smt/theory/tq"
	"github.com/crillab/gophersat-smt/theory/uf"
)

// Coordinator drives one SMT decision session: a SATCore, a Theory, and the
// chronological assignment trail the theory's ConflictRecovery needs (the
// SAT core's own Backjump return is sorted by literal value for model
// display, not assignment order, so the coordinator keeps its own).
type Coordinator struct {
	core    *sat.SATCore
	th      theory.Theory
	atomMap *cnf.AtomMap

	trail []sat.IntLit

	// unsat latches true when the initial clause set is already
	// contradictory under unit propagation alone, i.e. registerClause
	// hit a conflict before Solve's main loop ever ran. Decision level 0
	// at that point means there is no backjump target to resolve
	// against, so it's a permanent verdict, not a transient conflict for
	// handleConflict to recover from.
	unsat bool

	Verbose bool
}

// NewTheory builds the Theory implementation for kind.
func NewTheory(kind theory.Kind) theory.Theory {
	switch kind {
	case theory.EqualityUF:
		return uf.New()
	case theory.LinearArithmeticTQ:
		return tq.New()
	default:
		return theory.NewProp()
	}
}

// InitCase builds a fresh Coordinator for f: runs the theory's Preprocess,
// CNF-abstracts f, registers the abstraction map with the theory, and
// loads the resulting clauses into a fresh SATCore.
func InitCase(f atom.Formula, th theory.Theory) (*Coordinator, error) {
	if err := th.Preprocess(f); err != nil {
		return nil, err
	}
	intClauses, atomMap := cnf.Abstract(f)

	c := &Coordinator{
		core:    sat.NewSATCore(),
		th:      th,
		atomMap: atomMap,
	}
	th.RegisterAbstractionMap(atomMap)

	for _, lits := range intClauses {
		if !c.registerClause(lits) {
			c.unsat = true
			break
		}
	}
	return c, nil
}

// Stats returns the underlying SAT core's search counters, for callers that
// want to report search effort without reaching into package sat directly.
func (c *Coordinator) Stats() sat.Stats { return c.core.Stats }

func (c *Coordinator) toIntLits(lits []int) []sat.IntLit {
	out := make([]sat.IntLit, len(lits))
	for i, l := range lits {
		out[i] = sat.IntLit(l)
	}
	return out
}

// registerClause adds one initial clause and immediately deduces from it,
// so trivial unit clauses propagate at decision level 0. It returns false
// if the deduction is already a conflict: the whole problem is UNSAT.
func (c *Coordinator) registerClause(lits []int) bool {
	idx := c.core.AddClause(c.toIntLits(lits), false)
	if idx == 0 {
		return true // trivial clause, nothing to deduce from
	}
	return c.deduceFrom(idx)
}

// deduceFrom runs Deduce on clauseIdx and, on a unit result, assigns the
// propagated literal. It returns false on conflict.
func (c *Coordinator) deduceFrom(clauseIdx int) bool {
	status, lit := c.core.Deduce(clauseIdx)
	if status == sat.DeduceConflict {
		return false
	}
	if status == sat.DeduceSat && lit != 0 {
		c.assignLiteral(lit, clauseIdx)
	}
	return true
}

// assignLiteral fans out to both the SAT core and the theory, and appends
// to the coordinator's own chronological trail.
func (c *Coordinator) assignLiteral(lit sat.IntLit, antecedent int) {
	c.core.AssignLiteral(lit, antecedent)
	c.th.ProcessAssignment(lit)
	c.trail = append(c.trail, lit)
}

// Solve runs the DPLL(T) main loop to completion, returning the satisfying
// atom assignment on SAT.
func (c *Coordinator) Solve(w io.Writer) (bool, []theory.AtomAssignment) {
	if c.unsat {
		if c.Verbose {
			c.core.WriteStats(w)
		}
		return false, nil
	}

	if ok, conflictClause := c.th.AnalyzeSatisfiability(); !ok {
		if !c.handleConflict(conflictClause) {
			return false, nil
		}
	}

	for !c.core.AllSatisfied() {
		status, lit, antecedent := c.core.BCPStep()
		switch status {
		case sat.BCPConflict:
			if !c.handleConflict(nil) {
				if c.Verbose {
					c.core.WriteStats(w)
				}
				return false, nil
			}
			continue
		case sat.BCPUnit:
			c.assignLiteral(lit, antecedent)
			continue
		case sat.BCPEmpty:
		}

		if ok, conflictClause := c.th.AnalyzeSatisfiability(); !ok {
			if !c.handleConflict(conflictClause) {
				if c.Verbose {
					c.core.WriteStats(w)
				}
				return false, nil
			}
			continue
		}

		if tlit, ok := c.th.PopTPropagation(); ok {
			c.assignLiteral(tlit, sat.NoAntecedent)
			continue
		}

		if !c.core.AllSatisfied() {
			c.core.IncrementLevel()
			c.assignLiteral(c.core.Decide(), sat.NoAntecedent)
		}
	}

	if c.Verbose {
		c.core.WriteStats(w)
	}
	return true, c.finalAssignment()
}

// handleConflict resolves the current conflict to a learned clause and
// backjump level, backjumps both the SAT core and the theory, installs the
// learned clause, and immediately deduces a unit from it. Returns false
// when the conflict is unresolvable (decision level 0: the problem is
// UNSAT).
func (c *Coordinator) handleConflict(startClause []sat.IntLit) bool {
	if c.core.Level() == 0 {
		return false
	}
	learned, target := c.core.ResolveConflict(startClause)

	c.core.Backjump(target)
	newLen := c.trailLenAtOrBelow(target)
	c.trail = c.trail[:newLen]
	c.th.ConflictRecovery(c.trail)

	idx := c.core.AddClause(learned, true)
	if idx == 0 {
		return true // learned clause was trivial; nothing further to deduce
	}
	return c.deduceFrom(idx)
}

// trailLenAtOrBelow reports how many of the coordinator's own trail
// entries survive a backjump to target: the SAT core's Backjump discards
// every literal assigned above target, and since both trails grow in
// lockstep one entry per assignment, the survivor count is exactly the
// SAT core's post-backjump assignment size.
func (c *Coordinator) trailLenAtOrBelow(target int) int {
	count := 0
	for _, lit := range c.trail {
		if c.core.Assigned(lit) {
			count++
		}
	}
	return count
}
