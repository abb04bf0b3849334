package theory

import (
	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/cnf"
	"github.com/crillab/gophersat-smt/sat"
)

// Prop is the no-op theory for purely propositional formulas: every atom
// is a plain Boolean variable, so there is nothing for a theory to check.
type Prop struct {
	atoms map[int]atom.Formula
}

// NewProp builds an empty Prop theory.
func NewProp() *Prop { return &Prop{} }

func (p *Prop) Preprocess(f atom.Formula) error { return nil }

func (p *Prop) RegisterAbstractionMap(m *cnf.AtomMap) { p.atoms = m.ToAtom }

func (p *Prop) ProcessAssignment(lit sat.IntLit) {}

func (p *Prop) AnalyzeSatisfiability() (bool, []sat.IntLit) { return true, nil }

func (p *Prop) PopTPropagation() (sat.IntLit, bool) { return 0, false }

func (p *Prop) ConflictRecovery(survivors []sat.IntLit) {}

func (p *Prop) Reset() {}

func (p *Prop) ToPreTheoryAssignment(assignment map[sat.IntLit]bool) []AtomAssignment {
	out := make([]AtomAssignment, 0, len(assignment))
	for lit, val := range assignment {
		a, ok := p.atoms[lit.Var()]
		if !ok {
			continue
		}
		out = append(out, AtomAssignment{Atom: a, Value: val})
	}
	return out
}
