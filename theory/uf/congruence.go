// Package uf implements the theory of equality with uninterpreted
// functions: congruence closure over a union-find term graph plus the
// conflict-core extraction and snapshot/restore machinery the DPLL(T)
// coordinator needs for backjumping.
package uf

import "github.com/crillab/gophersat-smt/atom"

// congruenceGraph tracks every sub-term encountered so far, its union-find
// representative, and the syntactic "parents" back-reference set (every
// term whose arguments include it) needed for upward congruence closure.
type congruenceGraph struct {
	terms   map[string]atom.Formula
	rep     map[string]string
	parents map[string]map[string]struct{}
}

func newCongruenceGraph() *congruenceGraph {
	return &congruenceGraph{
		terms:   make(map[string]atom.Formula),
		rep:     make(map[string]string),
		parents: make(map[string]map[string]struct{}),
	}
}

// clone deep-copies the graph so it can be stashed in a snapshot and later
// restored without aliasing the live graph's maps.
func (g *congruenceGraph) clone() *congruenceGraph {
	out := newCongruenceGraph()
	for k, v := range g.terms {
		out.terms[k] = v
	}
	for k, v := range g.rep {
		out.rep[k] = v
	}
	for k, set := range g.parents {
		cp := make(map[string]struct{}, len(set))
		for p := range set {
			cp[p] = struct{}{}
		}
		out.parents[k] = cp
	}
	return out
}

// register adds t and every sub-term of t to the graph, as a singleton
// union-find class, if not already present. A newly added Func term whose
// arguments already agree class-wise with an existing application of the
// same symbol is merged into that term's class.
func (g *congruenceGraph) register(t atom.Formula) {
	k := t.Key()
	if _, ok := g.terms[k]; ok {
		return
	}
	g.terms[k] = t
	g.rep[k] = k
	g.parents[k] = make(map[string]struct{})
	if f, ok := t.(atom.Func); ok {
		for _, arg := range f.Args {
			g.register(arg)
			// arg's class representative, not arg's own key, owns the live
			// parents set: applyEquality deletes a merged-away key's entry,
			// so indexing by arg.Key() directly can hit a stale/missing map.
			root := g.find(arg.Key())
			if g.parents[root] == nil {
				g.parents[root] = make(map[string]struct{})
			}
			g.parents[root][k] = struct{}{}
		}
		if len(f.Args) > 0 {
			for pk := range g.parents[g.find(f.Args[0].Key())] {
				q, qok := g.terms[pk].(atom.Func)
				if qok && pk != k && q.Name == f.Name && len(q.Args) == len(f.Args) && argsAgree(g, f, q) {
					g.applyEquality(f, q)
					break
				}
			}
		}
	}
}

func (g *congruenceGraph) known(t atom.Formula) bool {
	_, ok := g.terms[t.Key()]
	return ok
}

// find follows rep pointers to the class representative of t's key. A key
// that was never registered is its own representative.
func (g *congruenceGraph) find(key string) string {
	for {
		next, ok := g.rep[key]
		if !ok || next == key {
			return key
		}
		key = next
	}
}

func (g *congruenceGraph) sameClass(t, s atom.Formula) bool {
	return g.find(t.Key()) == g.find(s.Key())
}

// applyEquality merges t and s's classes and recursively applies upward
// congruence: any two registered Func applications of the same symbol
// whose arguments now all agree class-wise, but aren't already themselves
// in the same class, get merged too.
func (g *congruenceGraph) applyEquality(t, s atom.Formula) {
	g.register(t)
	g.register(s)
	a, b := g.find(t.Key()), g.find(s.Key())
	if a == b {
		return
	}

	beforeA := keysOf(g.parents[a])
	beforeB := keysOf(g.parents[b])

	merged := make(map[string]struct{}, len(beforeA)+len(beforeB))
	for _, k := range beforeA {
		merged[k] = struct{}{}
	}
	for _, k := range beforeB {
		merged[k] = struct{}{}
	}
	g.parents[b] = merged
	delete(g.parents, a)
	g.rep[a] = b

	for _, pk := range beforeA {
		for _, qk := range beforeB {
			p, pok := g.terms[pk].(atom.Func)
			q, qok := g.terms[qk].(atom.Func)
			if !pok || !qok {
				continue
			}
			if p.Name != q.Name || len(p.Args) != len(q.Args) {
				continue
			}
			if p.Key() == q.Key() {
				continue
			}
			if argsAgree(g, p, q) {
				g.applyEquality(p, q)
			}
		}
	}
}

func argsAgree(g *congruenceGraph, p, q atom.Func) bool {
	for i := range p.Args {
		if g.find(p.Args[i].Key()) != g.find(q.Args[i].Key()) {
			return false
		}
	}
	return true
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
