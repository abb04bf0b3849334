package cnf

import (
	"fmt"

	"github.com/crillab/gophersat-smt/atom"
)

// toEqualityWithNoNegationArgs strips a leading Not off either side of an
// Equal/NEqual, flipping the relation's polarity once per side removed
// (`!a = b` is `a != b`; `!a = !b` is `a = b`).
func toEqualityWithNoNegationArgs(eq atom.Formula) atom.Formula {
	var left, right atom.Formula
	isEqual := true
	switch n := eq.(type) {
	case atom.Equal:
		left, right = n.Left, n.Right
	case atom.NEqual:
		left, right = n.Left, n.Right
		isEqual = false
	default:
		panic(fmt.Sprintf("cnf: toEqualityWithNoNegationArgs: %T is not an (in)equality", eq))
	}
	if nt, ok := left.(atom.Not); ok {
		left = nt.Item
		isEqual = !isEqual
	}
	if nt, ok := right.(atom.Not); ok {
		right = nt.Item
		isEqual = !isEqual
	}
	if isEqual {
		return atom.Equal{Left: left, Right: right}
	}
	return atom.NEqual{Left: left, Right: right}
}

// removeNegationsInEqs canonicalizes every Equal/NEqual leaf in each
// conjunct so neither operand is wrapped in Not.
func removeNegationsInEqs(items []atom.Formula) []atom.Formula {
	out := make([]atom.Formula, len(items))
	for i, it := range items {
		out[i] = removeNegationsInEqsHelper(it)
	}
	return out
}

func removeNegationsInEqsHelper(f atom.Formula) atom.Formula {
	switch n := f.(type) {
	case atom.Equal:
		return toEqualityWithNoNegationArgs(n)
	case atom.NEqual:
		return toEqualityWithNoNegationArgs(n)
	case atom.And:
		return atom.And{Left: removeNegationsInEqsHelper(n.Left), Right: removeNegationsInEqsHelper(n.Right)}
	case atom.Or:
		return atom.Or{Left: removeNegationsInEqsHelper(n.Left), Right: removeNegationsInEqsHelper(n.Right)}
	default:
		// Var, Func, Geq, Less, Not(Var)/Not(Func), boolConst: no eq/neq inside.
		return f
	}
}

// funcArgState accumulates the side effects of lifting negations out of
// Func arguments: the dummy tracker, the new disequality conjuncts it must
// add (one per distinct lifted argument), and the dummy->original-negation
// map needed to fold the final assignment back.
type funcArgState struct {
	tr        *dummyTracker
	extraNeqs []atom.Formula
	dummyMap  map[string]atom.Formula
}

// removeNegationsInFuncArgs replaces any `f(..., !x, ...)` argument with a
// fresh dummy `d` and appends `x != d` as a new top-level conjunct, so every
// Func argument ends up being a plain (non-negated) term.
func removeNegationsInFuncArgs(items []atom.Formula) ([]atom.Formula, map[string]atom.Formula) {
	st := &funcArgState{tr: newDummyTracker("#N"), dummyMap: make(map[string]atom.Formula)}
	out := make([]atom.Formula, len(items))
	for i, it := range items {
		out[i] = removeNegationsInFuncArgsHelper(it, st)
	}
	out = append(out, st.extraNeqs...)
	return out, st.dummyMap
}

func removeNegationsInFuncArgsHelper(f atom.Formula, st *funcArgState) atom.Formula {
	switch n := f.(type) {
	case atom.And:
		return atom.And{Left: removeNegationsInFuncArgsHelper(n.Left, st), Right: removeNegationsInFuncArgsHelper(n.Right, st)}
	case atom.Or:
		return atom.Or{Left: removeNegationsInFuncArgsHelper(n.Left, st), Right: removeNegationsInFuncArgsHelper(n.Right, st)}
	case atom.Not:
		return atom.Not{Item: removeNegationsInFuncArgsHelper(n.Item, st)}
	case atom.Func:
		newArgs := make([]atom.Formula, len(n.Args))
		for i, arg := range n.Args {
			switch a := arg.(type) {
			case atom.Not:
				key := a.Key()
				dv, existed := st.tr.seen[key]
				if !existed {
					dv = st.tr.dummyFor(a)
					st.dummyMap[dv.Key()] = a
					st.extraNeqs = append(st.extraNeqs, atom.NEqual{Left: a.Item, Right: dv})
				}
				newArgs[i] = dv
			case atom.Func:
				newArgs[i] = removeNegationsInFuncArgsHelper(a, st)
			default:
				newArgs[i] = arg
			}
		}
		return atom.Func{Name: n.Name, Args: newArgs}
	case atom.Equal:
		return atom.Equal{
			Left:  removeNegationsInFuncArgsHelper(n.Left, st),
			Right: removeNegationsInFuncArgsHelper(n.Right, st),
		}
	case atom.NEqual:
		return atom.NEqual{
			Left:  removeNegationsInFuncArgsHelper(n.Left, st),
			Right: removeNegationsInFuncArgsHelper(n.Right, st),
		}
	default:
		return f
	}
}
