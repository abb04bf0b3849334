package parser

import (
	"fmt"

	"github.com/crillab/gophersat-smt/atom"
)

// Parse parses src as a formula in the surface grammar, returning a
// classified SyntaxError on any malformed input.
func Parse(src string) (atom.Formula, error) {
	p := &parser{lx: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	f, err := p.parseIff()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, &SyntaxError{Pos: p.cur.pos, Message: fmt.Sprintf("unexpected trailing token %q", p.cur.text)}
	}
	return f, nil
}

type parser struct {
	lx  *lexer
	cur token
}

func (p *parser) advance() error {
	tok, err := p.lx.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if p.cur.kind != k {
		return token{}, &SyntaxError{Pos: p.cur.pos, Message: fmt.Sprintf("expected %s, got %q", what, p.cur.text)}
	}
	tok := p.cur
	return tok, p.advance()
}

// parseIff: lowest precedence, left-associative over '<->'.
func (p *parser) parseIff() (atom.Formula, error) {
	left, err := p.parseImplication()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokIff {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseImplication()
		if err != nil {
			return nil, err
		}
		left = atom.Equiv{Left: left, Right: right}
	}
	return left, nil
}

// parseImplication: '->' and '<-', left-associative; '<-' swaps operands.
func (p *parser) parseImplication() (atom.Formula, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokArrow || p.cur.kind == tokLArrow {
		reversed := p.cur.kind == tokLArrow
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if reversed {
			left = atom.Imply{Left: right, Right: left}
		} else {
			left = atom.Imply{Left: left, Right: right}
		}
	}
	return left, nil
}

func (p *parser) parseOr() (atom.Formula, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = atom.Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (atom.Formula, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = atom.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (atom.Formula, error) {
	if p.cur.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return atom.Not{Item: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (atom.Formula, error) {
	if p.cur.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		f, err := p.parseIff()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return f, nil
	}
	return p.parseRelational()
}

// termKind classifies what parseTerm produced, since the grammar's
// relational operators each constrain their operands' kind differently.
type termKind int

const (
	termFormula termKind = iota // Var or Func, a UF term
	termVector
	termInt
)

type term struct {
	kind   termKind
	f      atom.Formula
	vector atom.Vector
	i      int
	pos    int
}

// parseRelational parses one term, then an optional trailing relational
// operator and second term, building the corresponding atom. A term with
// no following operator must itself be a formula (Var/Func), used as a
// bare propositional atom.
func (p *parser) parseRelational() (atom.Formula, error) {
	t1, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	switch p.cur.kind {
	case tokEq, tokNEq:
		op := p.cur.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		t2, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if t1.kind != termFormula || t2.kind != termFormula {
			return nil, &SyntaxError{Pos: t1.pos, Message: "'=' / '!=' require literal operands of the same kind"}
		}
		if op == tokEq {
			return atom.Equal{Left: t1.f, Right: t2.f}, nil
		}
		return atom.NEqual{Left: t1.f, Right: t2.f}, nil

	case tokGEq, tokLt:
		op := p.cur.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		t2, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if t1.kind != termVector {
			return nil, &SyntaxError{Pos: t1.pos, Message: "'>=' / '<' require a vector on the left"}
		}
		if t2.kind != termInt {
			return nil, &SyntaxError{Pos: t2.pos, Message: "'>=' / '<' require an integer on the right"}
		}
		if op == tokGEq {
			return atom.Geq{Coeffs: t1.vector, RHS: t2.i}, nil
		}
		return atom.Less{Coeffs: t1.vector, RHS: t2.i}, nil

	default:
		if t1.kind != termFormula {
			return nil, &SyntaxError{Pos: t1.pos, Message: "a vector or integer literal cannot stand alone as a formula"}
		}
		return t1.f, nil
	}
}

func (p *parser) parseTerm() (term, error) {
	pos := p.cur.pos
	switch p.cur.kind {
	case tokLBracket:
		v, err := p.parseVector()
		return term{kind: termVector, vector: v, pos: pos}, err
	case tokInt:
		n, err := parseSignedInt(p.cur.text, p.cur.pos)
		if err != nil {
			return term{}, err
		}
		if err := p.advance(); err != nil {
			return term{}, err
		}
		return term{kind: termInt, i: n, pos: pos}, nil
	case tokIdent:
		f, err := p.parseFuncArg()
		return term{kind: termFormula, f: f, pos: pos}, err
	default:
		return term{}, &SyntaxError{Pos: pos, Message: fmt.Sprintf("expected a term, got %q", p.cur.text)}
	}
}

func (p *parser) parseVector() (atom.Vector, error) {
	if _, err := p.expect(tokLBracket, "'['"); err != nil {
		return nil, err
	}
	var out atom.Vector
	for {
		if p.cur.kind != tokInt {
			return nil, &SyntaxError{Pos: p.cur.pos, Message: fmt.Sprintf("vector entries must be integers, got %q", p.cur.text)}
		}
		n, err := parseSignedInt(p.cur.text, p.cur.pos)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &SyntaxError{Pos: p.cur.pos, Message: "vector literal must have at least one entry"}
	}
	return out, nil
}

// parseFuncArg parses an identifier, possibly applied as a function, or a
// '!'-negated one. These are the only shapes valid as a Func argument or a
// bare UF term: an argument is never an Equal/NEqual.
func (p *parser) parseFuncArg() (atom.Formula, error) {
	if p.cur.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseFuncArg()
		if err != nil {
			return nil, err
		}
		return atom.Not{Item: inner}, nil
	}
	name, err := p.expect(tokIdent, "an identifier")
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokLParen {
		return atom.Var{Name: name.text}, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var args []atom.Formula
	if p.cur.kind != tokRParen {
		for {
			arg, err := p.parseFuncArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.kind != tokComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, &SyntaxError{Pos: name.pos, Message: fmt.Sprintf("function %q applied to zero arguments", name.text)}
	}
	return atom.Func{Name: name.text, Args: args}, nil
}

func parseSignedInt(text string, pos int) (int, error) {
	n := 0
	neg := false
	i := 0
	if len(text) > 0 && text[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(text) {
		return 0, &SyntaxError{Pos: pos, Message: "malformed integer literal"}
	}
	for ; i < len(text); i++ {
		c := text[i]
		if c < '0' || c > '9' {
			return 0, &SyntaxError{Pos: pos, Message: "malformed integer literal " + text}
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
