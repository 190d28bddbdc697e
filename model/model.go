// Package model provides the read-only view over an externally fitted
// generalized linear (mixed) model that the interval engines consume, plus
// the design-matrix encoding of target rows against the original fit.
package model

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"predband/family"
	"predband/table"
)

// ErrEncoding is returned when target rows cannot be encoded against the
// original model's design matrix, typically because a factor level was never
// seen by the fit.
var ErrEncoding = errors.New("cannot encode target rows against the fitted design")

// Term is one retained column of the fitted design matrix. A fit whose
// design was rank-reduced simply lists fewer terms; encoding restricts to
// the retained set.
type Term struct {
	// Column names the source data column. Empty for the intercept.
	Column string

	// Level, when non-empty, makes the term a treatment-coded indicator
	// for Column taking this level.
	Level string
}

// RanefSpec describes a fitted random-intercept structure for mixed models:
// one grouping column and the estimated variance of the group intercepts.
type RanefSpec struct {
	Group    string
	Variance float64
}

// FittedGLM is the adapter over an externally fitted model. It holds only
// estimates the fitting library already produced; nothing here refits or
// mutates the model.
type FittedGLM struct {
	// Coefs is the coefficient point estimate, ordered as Terms.
	Coefs []float64

	// Cov is the estimated covariance matrix of Coefs.
	Cov *mat.SymDense

	// DFResidual is the residual degrees of freedom of the fit.
	DFResidual int

	Family *family.Family
	Link   *family.Link

	// Dispersion is the estimated dispersion phi on the variance scale
	// (the Gaussian residual variance, the Gamma dispersion); 1 for
	// fixed-dispersion families.
	Dispersion float64

	// Theta is the negative binomial size parameter, when applicable.
	Theta float64

	// Terms are the retained design columns, in coefficient order.
	Terms []Term

	// Levels records, per factor column, the levels present in the
	// original fit. Encoding target rows checks against this set, which
	// stands in for re-encoding jointly with the training data.
	Levels map[string][]string

	// Converged reports whether the fitting library declared convergence.
	// A false value is surfaced as a warning; computation still proceeds.
	Converged bool

	// Ranef is non-nil for mixed models with a fitted random intercept.
	Ranef *RanefSpec
}

// NumParams returns the number of retained coefficients.
func (m *FittedGLM) NumParams() int {
	return len(m.Coefs)
}

// LinearPredictor computes X * beta-hat for an encoded design matrix.
func (m *FittedGLM) LinearPredictor(x *mat.Dense) []float64 {
	n, _ := x.Dims()
	beta := mat.NewVecDense(len(m.Coefs), m.Coefs)
	eta := mat.NewVecDense(n, nil)
	eta.MulVec(x, beta)
	out := make([]float64, n)
	copy(out, eta.RawVector().Data)
	return out
}

// StdErr computes sqrt(x' Cov x) per design row: the standard error of the
// linear predictor at each target row.
func (m *FittedGLM) StdErr(x *mat.Dense) []float64 {
	n, p := x.Dims()
	out := make([]float64, n)
	row := mat.NewVecDense(p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			row.SetVec(j, x.At(i, j))
		}
		q := mat.Inner(row, m.Cov, row)
		if q < 0 {
			// Near-singular covariance can push the quadratic form a
			// hair below zero.
			q = 0
		}
		out[i] = sqrt(q)
	}
	return out
}

// PredictLink returns point predictions on the linear-predictor scale.
func (m *FittedGLM) PredictLink(frame *table.Frame) ([]float64, error) {
	x, err := m.DesignMatrix(frame)
	if err != nil {
		return nil, err
	}
	return m.LinearPredictor(x), nil
}

// PredictResponse returns point predictions on the response scale.
func (m *FittedGLM) PredictResponse(frame *table.Frame) ([]float64, error) {
	eta, err := m.PredictLink(frame)
	if err != nil {
		return nil, err
	}
	for i, e := range eta {
		eta[i] = m.Link.Inverse(e)
	}
	return eta, nil
}
