// Package lp defines the linear-programming oracle contract the TQ theory
// consults and a gonum-backed implementation of it. The TQ layer only
// needs the three-valued verdict, so any LP algorithm serves.
package lp

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// Status is an LP solve's three-valued outcome.
type Status int

const (
	Infeasible Status = iota
	Optimal
	Unbounded
)

// Result is an LP oracle's answer: the objective value and optimal point
// when Status is Optimal, otherwise zero-valued.
type Result struct {
	Status Status
	Value  float64
	X      []float64
}

// Oracle decides `min c^T x subject to A x <= b, x >= 0`, returning one of
// {optimal-with-value, unbounded, infeasible}.
type Oracle interface {
	Solve(A [][]float64, b, c []float64) (Result, error)
}

// GonumOracle solves via gonum's standard-form simplex, converting the
// caller's `A x <= b` inequality system to gonum's equality-standard form
// by appending one slack column per row.
type GonumOracle struct{}

func (GonumOracle) Solve(A [][]float64, b, c []float64) (Result, error) {
	if len(A) == 0 {
		return Result{Status: Optimal}, nil
	}
	rows := len(A)
	cols := len(A[0])
	eqCols := cols + rows

	data := make([]float64, rows*eqCols)
	for i, row := range A {
		for j, v := range row {
			data[i*eqCols+j] = v
		}
		data[i*eqCols+cols+i] = 1 // slack column for row i
	}
	eqC := make([]float64, eqCols)
	copy(eqC, c)

	aEq := mat.NewDense(rows, eqCols, data)
	optF, optX, err := gonumlp.Simplex(eqC, aEq, b, 0, nil)
	if err != nil {
		switch {
		case errors.Is(err, gonumlp.ErrInfeasible):
			return Result{Status: Infeasible}, nil
		case errors.Is(err, gonumlp.ErrUnbounded):
			return Result{Status: Unbounded}, nil
		default:
			return Result{}, err
		}
	}
	return Result{Status: Optimal, Value: optF, X: optX[:cols]}, nil
}
