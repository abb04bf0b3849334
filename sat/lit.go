// Package sat implements the CDCL Boolean core: watched-literal clauses,
// unit propagation, implication-graph conflict analysis with first-UIP
// clause learning, non-chronological backjumping, and a DLIS decision
// heuristic. It knows nothing about theories or atoms; it operates purely
// over signed integer literals handed to it by the cnf package.
package sat

import "fmt"

// IntLit is a signed-integer encoding of a Boolean literal: -x is the
// negation of x. Valid literals are nonzero; variables form the
// contiguous range [1..N].
type IntLit int

// Var returns the variable underlying lit (its absolute value).
func (lit IntLit) Var() int {
	if lit < 0 {
		return int(-lit)
	}
	return int(lit)
}

// Negation returns the opposite-signed literal for the same variable.
func (lit IntLit) Negation() IntLit { return -lit }

// Sign reports whether lit is a positive occurrence of its variable.
func (lit IntLit) Sign() bool { return lit > 0 }

func (lit IntLit) String() string { return fmt.Sprintf("%d", int(lit)) }

// Assignment is the current partial truth assignment over IntLits. It
// never holds both ℓ and -ℓ for any variable.
type Assignment map[IntLit]struct{}

// Holds reports whether lit is assigned true.
func (a Assignment) Holds(lit IntLit) bool {
	_, ok := a[lit]
	return ok
}

// Decided reports whether either polarity of lit's variable is assigned.
func (a Assignment) Decided(lit IntLit) bool {
	_, p := a[lit]
	_, n := a[lit.Negation()]
	return p || n
}
