package dpllt

import (
	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/sat"
	"github.com/crillab/gophersat-smt/theory"
)

// finalAssignment folds the SATCore's integer model back through the
// theory's own rewrites, then drops and substitutes the Tseitin and
// negation-lifting dummies so only surface atoms remain.
func (c *Coordinator) finalAssignment() []theory.AtomAssignment {
	raw := make(map[sat.IntLit]bool, len(c.core.Model()))
	for _, lit := range c.core.Model() {
		raw[lit] = lit.Sign()
	}

	pre := c.th.ToPreTheoryAssignment(raw)

	out := make([]theory.AtomAssignment, 0, len(pre))
	for _, aa := range pre {
		folded, keep := foldDummy(aa.Atom, c.atomMap.DummyMap)
		if !keep {
			continue
		}
		out = append(out, theory.AtomAssignment{Atom: folded, Value: aa.Value})
	}
	return out
}

// foldDummy undoes the two kinds of dummy introduced by CNF abstraction:
//
//   - a bare Tseitin `#G...` Var is internal bookkeeping with no surface
//     meaning of its own: drop it.
//   - a `#N...` dummy only ever appears either (a) as a Func argument,
//     substitutable back to the Not(...) it stood for via dummyMap, or
//     (b) as one side of the synthetic `orig != dummy` conjunct added
//     alongside it, which carries no information beyond its own
//     construction and is dropped outright.
//
// Negation-parity folding of Equal/NEqual operands needs no separate
// table: an equality atom never carries a directly Not-wrapped Var/Func
// operand at the top level (only inside Func arguments, substituted here).
func foldDummy(f atom.Formula, dummyMap map[string]atom.Formula) (atom.Formula, bool) {
	switch n := f.(type) {
	case atom.Var:
		if n.IsDummy() {
			return nil, false
		}
		return n, true
	case atom.Func:
		newArgs := make([]atom.Formula, len(n.Args))
		for i, arg := range n.Args {
			newArgs[i] = substituteDummy(arg, dummyMap)
		}
		return atom.Func{Name: n.Name, Args: newArgs}, true
	case atom.Equal:
		if isSyntheticDummyPair(n.Left, n.Right) {
			return nil, false
		}
		return atom.Equal{
			Left:  substituteDummy(n.Left, dummyMap),
			Right: substituteDummy(n.Right, dummyMap),
		}, true
	case atom.NEqual:
		if isSyntheticDummyPair(n.Left, n.Right) {
			return nil, false
		}
		return atom.NEqual{
			Left:  substituteDummy(n.Left, dummyMap),
			Right: substituteDummy(n.Right, dummyMap),
		}, true
	default:
		return f, true
	}
}

func isSyntheticDummyPair(left, right atom.Formula) bool {
	return isDummyVar(left) || isDummyVar(right)
}

func isDummyVar(f atom.Formula) bool {
	v, ok := f.(atom.Var)
	return ok && v.IsDummy()
}

// substituteDummy replaces a Func argument that is itself a dummy variable
// with the original Not(...) term it stands for, recursing into nested
// Func arguments.
func substituteDummy(arg atom.Formula, dummyMap map[string]atom.Formula) atom.Formula {
	if v, ok := arg.(atom.Var); ok && v.IsDummy() {
		if orig, ok := dummyMap[v.Key()]; ok {
			return orig
		}
		return arg
	}
	if fn, ok := arg.(atom.Func); ok {
		newArgs := make([]atom.Formula, len(fn.Args))
		for i, a := range fn.Args {
			newArgs[i] = substituteDummy(a, dummyMap)
		}
		return atom.Func{Name: fn.Name, Args: newArgs}
	}
	return arg
}
