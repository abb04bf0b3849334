// Command smtsolve is a thin CLI wrapper around the dpllt coordinator:
// exit 0 on SAT, 1 on UNSAT, 2 on a parse or preprocessing error.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/crillab/gophersat-smt/atom"
	"github.com/crillab/gophersat-smt/dpllt"
	"github.com/crillab/gophersat-smt/parser"
	"github.com/crillab/gophersat-smt/theory"
	"github.com/crillab/gophersat-smt/theory/tq"
	"github.com/kr/pretty"
)

func parseFormula(src string) (atom.Formula, error) {
	return parser.Parse(src)
}

func main() {
	log.SetFlags(0)
	verbose := flag.Bool("v", false, "verbose mode")
	kindFlag := flag.String("theory", "prop", "theory to decide against: prop, uf, or tq")
	negVars := flag.Bool("negvars", false, "TQ only: split each variable into a non-negative pair")
	debug := flag.Bool("debug", false, "dump the parsed formula and search stats with go-prettyprint")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `smtsolve: a lazy DPLL(T) SMT solver.

Usage:

  smtsolve [-v] [-theory prop|uf|tq] [-negvars] [-debug] [input.smt]

smtsolve reads a single formula in the surface grammar described in the
project's external-interfaces notes. If no input file is given, it reads
from standard input.
`)
	}
	flag.Parse()

	var r io.Reader = os.Stdin
	if flag.NArg() >= 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Println("Error opening input file:", err)
			os.Exit(2)
		}
		defer f.Close()
		r = f
	}

	src, err := io.ReadAll(r)
	if err != nil {
		log.Println("Error reading input:", err)
		os.Exit(2)
	}

	f, err := parseFormula(string(src))
	if err != nil {
		log.Println("Error parsing formula:", err)
		os.Exit(2)
	}
	if *debug {
		fmt.Fprintln(os.Stderr, "parsed formula:")
		pretty.Println(f)
	}

	kind, err := parseKind(*kindFlag)
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}

	th := dpllt.NewTheory(kind)
	if tqTh, ok := th.(*tq.Theory); ok {
		tqTh.SupportNegativeVars = *negVars
	}

	coord, err := dpllt.InitCase(f, th)
	if err != nil {
		log.Println("Error preprocessing formula:", err)
		os.Exit(2)
	}
	coord.Verbose = *verbose

	ok, model := coord.Solve(os.Stderr)
	if *debug {
		fmt.Fprintln(os.Stderr, "search stats:")
		pretty.Println(coord.Stats())
	}
	if !ok {
		fmt.Println("UNSAT")
		os.Exit(1)
	}

	fmt.Println("SAT")
	sort.Slice(model, func(i, j int) bool { return model[i].Atom.String() < model[j].Atom.String() })
	if *debug {
		fmt.Fprintln(os.Stderr, "model:")
		pretty.Println(model)
	}
	for _, aa := range model {
		fmt.Printf("%s = %v\n", aa.Atom, aa.Value)
	}
	os.Exit(0)
}

func parseKind(s string) (theory.Kind, error) {
	switch s {
	case "prop":
		return theory.Propositional, nil
	case "uf":
		return theory.EqualityUF, nil
	case "tq":
		return theory.LinearArithmeticTQ, nil
	default:
		return 0, fmt.Errorf("smtsolve: unknown -theory %q (want prop, uf, or tq)", s)
	}
}
