package simulation

import (
	"fmt"
	"math"
	"slices"
)

// Comparison is the operator of a probability request.
type Comparison string

const (
	Less      Comparison = "<"
	Greater   Comparison = ">"
	LessEq    Comparison = "<="
	GreaterEq Comparison = ">="
	Equal     Comparison = "=="
)

// ParseComparison validates a probability-request operator.
func ParseComparison(s string) (Comparison, error) {
	switch Comparison(s) {
	case Less, Greater, LessEq, GreaterEq, Equal:
		return Comparison(s), nil
	default:
		return "", fmt.Errorf("unknown comparison operator %q", s)
	}
}

// Type1Quantile returns the type-1 (inverse-CDF, no interpolation) empirical
// quantile: the smallest order statistic carrying probability mass at or
// above p. The result is always an observed value, so quantiles of discrete
// draws stay inside the discrete support.
func Type1Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	slices.Sort(sorted)

	k := int(math.Ceil(p * float64(len(sorted))))
	if k < 1 {
		k = 1
	}
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[k-1]
}

// Bands reduces each column to its (alpha/2, 1-alpha/2) type-1 quantiles.
func (mx *Matrix) Bands(alpha float64) (lower, upper []float64) {
	n := mx.NumRows()
	lower = make([]float64, n)
	upper = make([]float64, n)
	for i := 0; i < n; i++ {
		col := mx.Column(i)
		lower[i] = Type1Quantile(col, alpha/2)
		upper[i] = Type1Quantile(col, 1-alpha/2)
	}
	return lower, upper
}

// Quantiles reduces each column to its type-1 quantile at p.
func (mx *Matrix) Quantiles(p float64) []float64 {
	n := mx.NumRows()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = Type1Quantile(mx.Column(i), p)
	}
	return out
}

// Probabilities reduces each column to the fraction of draws satisfying the
// comparison against the threshold q.
func (mx *Matrix) Probabilities(q float64, cmp Comparison) ([]float64, error) {
	var pred func(v float64) bool
	switch cmp {
	case Less:
		pred = func(v float64) bool { return v < q }
	case Greater:
		pred = func(v float64) bool { return v > q }
	case LessEq:
		pred = func(v float64) bool { return v <= q }
	case GreaterEq:
		pred = func(v float64) bool { return v >= q }
	case Equal:
		pred = func(v float64) bool { return v == q }
	default:
		return nil, fmt.Errorf("unknown comparison operator %q", string(cmp))
	}

	n := mx.NumRows()
	m := mx.NumDraws()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		hits := 0
		for _, row := range mx.draws {
			if pred(row[i]) {
				hits++
			}
		}
		out[i] = float64(hits) / float64(m)
	}
	return out, nil
}
