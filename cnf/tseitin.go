package cnf

import (
	"fmt"

	"github.com/crillab/gophersat-smt/atom"
)

// dummyTracker hands out fresh dummy variables under a fixed prefix,
// deduplicating by the formula each dummy stands in for.
type dummyTracker struct {
	prefix string
	next   int
	seen   map[string]atom.Var
}

func newDummyTracker(prefix string) *dummyTracker {
	return &dummyTracker{prefix: prefix, seen: make(map[string]atom.Var)}
}

func (d *dummyTracker) dummyFor(f atom.Formula) atom.Var {
	k := f.Key()
	if v, ok := d.seen[k]; ok {
		return v
	}
	v := atom.NewVar(fmt.Sprintf("%s%d", d.prefix, d.next))
	d.next++
	d.seen[k] = v
	return v
}

// tseitinTransform rewrites f into a list of CNF-distributed conjuncts: the
// root assertion (a literal, the whole-formula dummy or f itself when f is
// already a literal) plus one CNF-distributed equivalence per introduced
// dummy, each equivalence stating dummy <-> connective(operand reps).
func tseitinTransform(f atom.Formula) []atom.Formula {
	equivs := tseitinEquivs(f)
	out := make([]atom.Formula, len(equivs))
	for i, e := range equivs {
		out[i] = toCNF(e)
	}
	return out
}

func tseitinEquivs(f atom.Formula) []atom.Formula {
	if f.IsLiteral() {
		return []atom.Formula{f}
	}
	tr := newDummyTracker("#G")
	out := []atom.Formula{tr.dummyFor(f)}
	tseitinHelper(f, tr, &out)
	return out
}

// binaryRep returns the representative used for each operand inside a
// Tseitin equivalence: the operand itself when it's already a literal, or
// its own dummy variable otherwise (to be expanded by a later equivalence).
func binaryRep(left, right atom.Formula, tr *dummyTracker) (leftRep, rightRep atom.Formula, litL, litR bool) {
	litL, litR = left.IsLiteral(), right.IsLiteral()
	leftRep, rightRep = left, right
	if !litL {
		leftRep = tr.dummyFor(left)
	}
	if !litR {
		rightRep = tr.dummyFor(right)
	}
	return
}

func tseitinHelper(f atom.Formula, tr *dummyTracker, out *[]atom.Formula) {
	switch n := f.(type) {
	case atom.And:
		lr, rr, litL, litR := binaryRep(n.Left, n.Right, tr)
		*out = append(*out, atom.Equiv{Left: tr.dummyFor(f), Right: atom.And{Left: lr, Right: rr}})
		if !litL {
			tseitinHelper(n.Left, tr, out)
		}
		if !litR {
			tseitinHelper(n.Right, tr, out)
		}
	case atom.Or:
		lr, rr, litL, litR := binaryRep(n.Left, n.Right, tr)
		*out = append(*out, atom.Equiv{Left: tr.dummyFor(f), Right: atom.Or{Left: lr, Right: rr}})
		if !litL {
			tseitinHelper(n.Left, tr, out)
		}
		if !litR {
			tseitinHelper(n.Right, tr, out)
		}
	case atom.Imply:
		lr, rr, litL, litR := binaryRep(n.Left, n.Right, tr)
		*out = append(*out, atom.Equiv{Left: tr.dummyFor(f), Right: atom.Imply{Left: lr, Right: rr}})
		if !litL {
			tseitinHelper(n.Left, tr, out)
		}
		if !litR {
			tseitinHelper(n.Right, tr, out)
		}
	case atom.Equiv:
		lr, rr, litL, litR := binaryRep(n.Left, n.Right, tr)
		*out = append(*out, atom.Equiv{Left: tr.dummyFor(f), Right: atom.Equiv{Left: lr, Right: rr}})
		if !litL {
			tseitinHelper(n.Left, tr, out)
		}
		if !litR {
			tseitinHelper(n.Right, tr, out)
		}
	case atom.Not:
		if n.Item.IsLiteral() {
			*out = append(*out, atom.Equiv{Left: tr.dummyFor(f), Right: atom.Not{Item: n.Item}})
			return
		}
		dv := tr.dummyFor(n.Item)
		*out = append(*out, atom.Equiv{Left: tr.dummyFor(f), Right: atom.Not{Item: dv}})
		tseitinHelper(n.Item, tr, out)
	default:
		panic(fmt.Sprintf("cnf: tseitin: unexpected non-literal formula type %T", f))
	}
}
