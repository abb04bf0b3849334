// Package theory defines the polymorphic theory-solver contract the
// DPLL(T) coordinator drives, plus the no-op Prop implementation used for
// purely propositional formulas. theory/uf and theory/tq provide the two
// non-trivial theories.
package theory

import (
	"fmt"

	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/cnf"
	"github.com/crillab/gophersat-smt/sat"
)

// IncompatibleAtomError is the classified pre-processing error for an atom
// a theory cannot represent, e.g. a Func argument that is itself an Equal,
// or a Geq/Less whose coefficient vector's dimension differs from the
// other arithmetic atoms'.
type IncompatibleAtomError struct {
	Atom   atom.Formula
	Reason string
}

func (e *IncompatibleAtomError) Error() string {
	return fmt.Sprintf("theory: incompatible atom %s: %s", e.Atom, e.Reason)
}

// Theory is an incremental decision procedure consulted by the DPLL(T)
// coordinator between rounds of Boolean constraint propagation.
type Theory interface {
	// Preprocess validates the pre-abstraction atom tree, returning a
	// classified error for atoms this theory cannot represent. It never
	// rewrites f.
	Preprocess(f atom.Formula) error

	// RegisterAbstractionMap gives the theory the int<->atom bijection
	// produced by CNF abstraction, so ProcessAssignment can interpret raw
	// IntLits as theory atoms.
	RegisterAbstractionMap(m *cnf.AtomMap)

	// ProcessAssignment folds a newly-assigned literal into the theory's
	// state (e.g. UF's apply_equality, TQ's row append).
	ProcessAssignment(lit sat.IntLit)

	// AnalyzeSatisfiability reports whether the theory's current state is
	// consistent. On UNSAT it also returns the learned conflict clause, as
	// negated IntLits ready to feed SATCore.ResolveConflict's start clause.
	AnalyzeSatisfiability() (ok bool, conflictClause []sat.IntLit)

	// PopTPropagation returns one theory-implied literal not yet assigned
	// by the SAT core, if any.
	PopTPropagation() (lit sat.IntLit, ok bool)

	// ConflictRecovery restores the theory's state to match survivors,
	// the assignment surviving a backjump.
	ConflictRecovery(survivors []sat.IntLit)

	// Reset discards all theory state, for starting a fresh session.
	Reset()

	// ToPreTheoryAssignment maps a final SAT assignment back to atoms,
	// producing one entry per assigned literal whose variable has an atom
	// in the registered abstraction map. Prop, UF and TQ rewrite no atoms,
	// so for them this is a lookup.
	ToPreTheoryAssignment(assignment map[sat.IntLit]bool) []AtomAssignment
}

// AtomAssignment pairs an atom with its final truth value. atom.Formula is
// not comparable (Func/Geq embed slices) so the final result is carried as
// a slice of pairs rather than a map keyed by Formula.
type AtomAssignment struct {
	Atom  atom.Formula
	Value bool
}

// Kind names which Theory variant a Coordinator should drive.
type Kind int

const (
	Propositional Kind = iota
	EqualityUF
	LinearArithmeticTQ
)
