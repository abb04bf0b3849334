package cnf

import "github.com/crillab/gophersat-smt/atom"

// toCNF reduces Imply/Equiv, pushes negations to NNF, then distributes Or
// over And until every And/Or node's children are literals or further
// And/Or nodes whose leaves are literals (a conjunction of clauses).
func toCNF(f atom.Formula) atom.Formula {
	return nnfToCNF(atom.NNF(f))
}

// distributeOr rewrites `a | b` one level when a or b is itself an And,
// applying the standard distributive law. Formulas with neither side an
// And pass through unchanged.
func distributeOr(o atom.Or) atom.Formula {
	left, leftIsAnd := o.Left.(atom.And)
	right, rightIsAnd := o.Right.(atom.And)
	switch {
	case leftIsAnd && rightIsAnd:
		return atom.And{
			Left: atom.Or{Left: left.Left, Right: right.Left},
			Right: atom.And{
				Left: atom.Or{Left: left.Left, Right: right.Right},
				Right: atom.And{
					Left:  atom.Or{Left: left.Right, Right: right.Left},
					Right: atom.Or{Left: left.Right, Right: right.Right},
				},
			},
		}
	case leftIsAnd:
		return atom.And{
			Left:  atom.Or{Left: left.Left, Right: o.Right},
			Right: atom.Or{Left: left.Right, Right: o.Right},
		}
	case rightIsAnd:
		return atom.And{
			Left:  atom.Or{Left: o.Left, Right: right.Left},
			Right: atom.Or{Left: o.Left, Right: right.Right},
		}
	default:
		return o
	}
}

// nnfToCNF distributes Or over And recursively until fully in CNF. f must
// already be in NNF (negations applied only to literals).
func nnfToCNF(f atom.Formula) atom.Formula {
	if o, ok := f.(atom.Or); ok {
		f = distributeOr(o)
	}
	switch n := f.(type) {
	case atom.And:
		return atom.And{Left: nnfToCNF(n.Left), Right: nnfToCNF(n.Right)}
	case atom.Or:
		left, right := nnfToCNF(n.Left), nnfToCNF(n.Right)
		_, leftIsAnd := left.(atom.And)
		_, rightIsAnd := right.(atom.And)
		if leftIsAnd || rightIsAnd {
			return nnfToCNF(atom.Or{Left: left, Right: right})
		}
		return atom.Or{Left: left, Right: right}
	default:
		return f
	}
}
