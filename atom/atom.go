// Package atom implements the tagged-sum formula tree consumed by the CNF
// pre-processor: Boolean connectives plus the three theories' atoms (pure
// propositional variables, uninterpreted-function equality/disequality, and
// linear inequalities over rational vectors).
package atom

import (
	"fmt"
	"strconv"
	"strings"
)

// Formula is any node of the atom tree, literal or compound.
type Formula interface {
	// IsLiteral reports whether f is a leaf atom (Var, Func, Equal, NEqual,
	// Geq, Less, or a Boolean constant) or a single Not of one, rather than
	// a Boolean connective over subformulas.
	IsLiteral() bool
	// Negate returns the logical negation of f. For connectives this is a
	// structural rewrite (De Morgan); for two-sided literals it flips to the
	// dual relation (Equal<->NEqual, Geq<->Less); Var and Func have no
	// folded negation and are wrapped in Not.
	Negate() Formula
	// Key returns a canonical string uniquely identifying f's structure.
	// It is the map-key/equality surrogate for types that embed slices
	// (Func.Args, Geq/Less.Coeffs) and therefore aren't comparable with ==.
	Key() string
	String() string
}

// SameFormula reports whether a and b denote the same formula structurally.
func SameFormula(a, b Formula) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// Var is a propositional variable, also used as an equality-theory term leaf.
type Var struct {
	Name string
}

// NewVar builds a named Boolean/UF-term variable.
func NewVar(name string) Var { return Var{Name: name} }

func (v Var) IsLiteral() bool  { return true }
func (v Var) Negate() Formula  { return Not{Item: v} }
func (v Var) Key() string      { return "v:" + v.Name }
func (v Var) String() string   { return v.Name }

// IsDummy reports whether v was synthesized by Tseitin encoding (prefix #G)
// or by negation-lifting out of function arguments (prefix #N).
func (v Var) IsDummy() bool { return strings.HasPrefix(v.Name, "#") }

// Func is an application of an uninterpreted function symbol to literal
// arguments (themselves Var, Func, or Not thereof, never Equal/NEqual).
type Func struct {
	Name string
	Args []Formula
}

// NewFunc builds a function application term.
func NewFunc(name string, args ...Formula) Func {
	return Func{Name: name, Args: args}
}

func (f Func) IsLiteral() bool { return true }
func (f Func) Negate() Formula { return Not{Item: f} }

func (f Func) Key() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.Key()
	}
	return "f:" + f.Name + "(" + strings.Join(parts, ",") + ")"
}

func (f Func) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(parts, ", "))
}

// Equal is an equality literal between two UF terms.
type Equal struct {
	Left, Right Formula
}

// NewEqual builds an equality atom.
func NewEqual(left, right Formula) Equal { return Equal{Left: left, Right: right} }

func (e Equal) IsLiteral() bool { return true }
func (e Equal) Negate() Formula { return NEqual{Left: e.Left, Right: e.Right} }
func (e Equal) Key() string     { return "eq:" + e.Left.Key() + "=" + e.Right.Key() }
func (e Equal) String() string  { return e.Left.String() + " = " + e.Right.String() }

// NEqual is a disequality literal between two UF terms.
type NEqual struct {
	Left, Right Formula
}

// NewNEqual builds a disequality atom.
func NewNEqual(left, right Formula) NEqual { return NEqual{Left: left, Right: right} }

func (n NEqual) IsLiteral() bool { return true }
func (n NEqual) Negate() Formula { return Equal{Left: n.Left, Right: n.Right} }
func (n NEqual) Key() string     { return "neq:" + n.Left.Key() + "!=" + n.Right.Key() }
func (n NEqual) String() string  { return n.Left.String() + " != " + n.Right.String() }

// Vector is an integer coefficient vector, the left-hand side of a TQ atom.
type Vector []int

func (vec Vector) key() string {
	parts := make([]string, len(vec))
	for i, c := range vec {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (vec Vector) String() string { return vec.key() }

// Negated returns the element-wise negation of vec.
func (vec Vector) Negated() Vector {
	out := make(Vector, len(vec))
	for i, c := range vec {
		out[i] = -c
	}
	return out
}

// Geq is the linear-arithmetic atom `coeffs · x >= rhs`.
type Geq struct {
	Coeffs Vector
	RHS    int
}

// NewGeq builds a `>=` atom.
func NewGeq(coeffs Vector, rhs int) Geq { return Geq{Coeffs: coeffs, RHS: rhs} }

func (g Geq) IsLiteral() bool { return true }
func (g Geq) Negate() Formula { return Less{Coeffs: g.Coeffs, RHS: g.RHS} }
func (g Geq) Key() string     { return "geq:" + g.Coeffs.key() + ">=" + strconv.Itoa(g.RHS) }
func (g Geq) String() string  { return fmt.Sprintf("%s >= %d", g.Coeffs, g.RHS) }

// Less is the linear-arithmetic atom `coeffs · x < rhs`.
type Less struct {
	Coeffs Vector
	RHS    int
}

// NewLess builds a `<` atom.
func NewLess(coeffs Vector, rhs int) Less { return Less{Coeffs: coeffs, RHS: rhs} }

func (l Less) IsLiteral() bool { return true }
func (l Less) Negate() Formula { return Geq{Coeffs: l.Coeffs, RHS: l.RHS} }
func (l Less) Key() string     { return "less:" + l.Coeffs.key() + "<" + strconv.Itoa(l.RHS) }
func (l Less) String() string  { return fmt.Sprintf("%s < %d", l.Coeffs, l.RHS) }
