// Package cnf turns an atom.Formula into the flat int-literal clause list a
// SAT core consumes, tracking the atom each int abstracts so theory layers
// can recover the original Var/Func/Equal/Geq terms from a satisfying model.
package cnf

import (
	"fmt"

	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/internal/ordered"
)

// AtomMap is the bijection between positive ints and the canonical atoms
// they abstract, plus the dummy bookkeeping needed to fold a model back to
// pre-abstraction terms.
type AtomMap struct {
	// ToAtom maps each positive int to the literal atom it stands for
	// (Var, Func, Equal or Geq: the canonical "positive" shape of the
	// atoms that share that int/its negation).
	ToAtom map[int]atom.Formula
	// DummyMap maps a negation-lifting dummy's Key() to the Not(...) atom
	// it was substituted for, so reconstruction can put the negation back.
	DummyMap map[string]atom.Formula
}

// Abstract runs the full CNF pre-processing pipeline: Tseitin transform,
// (in)equality negation-parity canonicalization, negation-lifting out of
// Func arguments, literal-to-int abstraction, and tautology removal.
func Abstract(f atom.Formula) ([][]int, *AtomMap) {
	conjuncts := tseitinTransform(f)
	conjuncts = removeNegationsInEqs(conjuncts)
	conjuncts, dummyMap := removeNegationsInFuncArgs(conjuncts)

	clauseTrees := reformatClauses(conjuncts)

	lits := ordered.NewSet[atom.Formula](func(a atom.Formula) string { return a.Key() })
	for _, clause := range clauseTrees {
		for _, lit := range clause {
			lits.Add(lit)
		}
	}

	posMap, posAtoms := buildLiteralMapping(lits)

	intClauses := make([][]int, 0, len(clauseTrees))
	for _, clause := range clauseTrees {
		ints, tautology := clauseToInts(clause, posMap)
		if !tautology {
			intClauses = append(intClauses, ints)
		}
	}

	return intClauses, &AtomMap{ToAtom: posAtoms, DummyMap: dummyMap}
}

// reformatClauses flattens the CNF-distributed conjunct list into one slice
// of literal-atoms per clause: a literal conjunct is its own one-literal
// clause, an Or-tree's nested literals form one clause, and an And-tree
// recurses into its conjuncts as independent clauses.
func reformatClauses(items []atom.Formula) [][]atom.Formula {
	var out [][]atom.Formula
	var rec func(f atom.Formula)
	rec = func(f atom.Formula) {
		if f.IsLiteral() {
			out = append(out, []atom.Formula{f})
			return
		}
		switch n := f.(type) {
		case atom.Or:
			seen := ordered.NewSet[atom.Formula](func(a atom.Formula) string { return a.Key() })
			collectLiterals(n, seen)
			out = append(out, append([]atom.Formula(nil), seen.Items()...))
		case atom.And:
			rec(n.Left)
			rec(n.Right)
		default:
			panic(fmt.Sprintf("cnf: reformatClauses: unexpected non-CNF formula type %T", f))
		}
	}
	for _, it := range items {
		rec(it)
	}
	return out
}

func collectLiterals(f atom.Formula, into *ordered.Set[atom.Formula]) {
	if f.IsLiteral() {
		into.Add(f)
		return
	}
	switch n := f.(type) {
	case atom.Or:
		collectLiterals(n.Left, into)
		collectLiterals(n.Right, into)
	case atom.And:
		collectLiterals(n.Left, into)
		collectLiterals(n.Right, into)
	default:
		panic(fmt.Sprintf("cnf: collectLiterals: unexpected non-CNF formula type %T", f))
	}
}

// canonicalPositive returns the positive-polarity atom that lit's int
// mapping (or its negation's) is keyed on, along with whether lit itself is
// the positive form.
func canonicalPositive(lit atom.Formula) (positive atom.Formula, isPositive bool) {
	switch n := lit.(type) {
	case atom.Var, atom.Func, atom.Equal, atom.Geq:
		return n, true
	case atom.NEqual:
		return atom.Equal{Left: n.Left, Right: n.Right}, false
	case atom.Less:
		return atom.Geq{Coeffs: n.Coeffs, RHS: n.RHS}, false
	case atom.Not:
		switch inner := n.Item.(type) {
		case atom.Var, atom.Func:
			return inner, false
		default:
			panic(fmt.Sprintf("cnf: canonicalPositive: unexpected negated literal %T", n.Item))
		}
	default:
		panic(fmt.Sprintf("cnf: canonicalPositive: unexpected literal type %T", lit))
	}
}

func buildLiteralMapping(lits *ordered.Set[atom.Formula]) (map[string]int, map[int]atom.Formula) {
	posMap := make(map[string]int)
	posAtoms := make(map[int]atom.Formula)
	next := 1
	for _, lit := range lits.Items() {
		positive, _ := canonicalPositive(lit)
		k := positive.Key()
		if _, ok := posMap[k]; ok {
			continue
		}
		posMap[k] = next
		posAtoms[next] = positive
		next++
	}
	return posMap, posAtoms
}

func literalToInt(lit atom.Formula, posMap map[string]int) int {
	positive, isPositive := canonicalPositive(lit)
	id, ok := posMap[positive.Key()]
	if !ok {
		panic(fmt.Sprintf("cnf: literalToInt: %s not in literal mapping", positive))
	}
	if isPositive {
		return id
	}
	return -id
}

// clauseToInts converts one clause's literal-atom set to a deduplicated
// int slice, reporting tautology if both a literal and its negation appear.
func clauseToInts(clause []atom.Formula, posMap map[string]int) ([]int, bool) {
	seen := make(map[int]bool, len(clause))
	ints := make([]int, 0, len(clause))
	for _, lit := range clause {
		v := literalToInt(lit, posMap)
		if seen[-v] {
			return nil, true
		}
		if !seen[v] {
			seen[v] = true
			ints = append(ints, v)
		}
	}
	return ints, false
}
