package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"predband/table"
)

func sqrt(x float64) float64 { return math.Sqrt(x) }

// DesignMatrix encodes the target rows of a frame into the fitted design.
// Factor levels are checked against the levels recorded at fit time, so a
// level present in the training data but absent from the target rows still
// encodes correctly, while an unseen level fails with ErrEncoding.
func (m *FittedGLM) DesignMatrix(frame *table.Frame) (*mat.Dense, error) {
	n := frame.Len()
	p := len(m.Terms)
	x := mat.NewDense(n, p, nil)

	for j, term := range m.Terms {
		switch {
		case term.Column == "":
			for i := 0; i < n; i++ {
				x.Set(i, j, 1)
			}

		case term.Level != "":
			col, ok := frame.Label(term.Column)
			if !ok {
				return nil, fmt.Errorf("%w: factor column %q not in target frame", ErrEncoding, term.Column)
			}
			known := m.Levels[term.Column]
			for i := 0; i < n; i++ {
				if !containsLevel(known, col[i]) {
					return nil, fmt.Errorf("%w: level %q of factor %q not present in the original fit",
						ErrEncoding, col[i], term.Column)
				}
				if col[i] == term.Level {
					x.Set(i, j, 1)
				}
			}

		default:
			col, ok := frame.Numeric(term.Column)
			if !ok {
				return nil, fmt.Errorf("%w: numeric column %q not in target frame", ErrEncoding, term.Column)
			}
			for i := 0; i < n; i++ {
				x.Set(i, j, col[i])
			}
		}
	}
	return x, nil
}

func containsLevel(levels []string, v string) bool {
	for _, l := range levels {
		if l == v {
			return true
		}
	}
	return false
}
