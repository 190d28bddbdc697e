// Package simulation implements the parametric-bootstrap prediction engine:
// coefficient draws from the estimated sampling distribution, response draws
// through the family and link, and quantile-based reduction of the resulting
// matrix. One run per call; nothing is cached across calls.
package simulation

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"predband/model"
	"predband/table"
)

// Matrix is the simulated-value matrix of one run: one row per draw, one
// column per target row. Column order equals target-row order and is never
// reordered.
type Matrix struct {
	draws [][]float64
}

// NumDraws returns the number of simulation draws M.
func (mx *Matrix) NumDraws() int {
	return len(mx.draws)
}

// NumRows returns the number of target rows N.
func (mx *Matrix) NumRows() int {
	if len(mx.draws) == 0 {
		return 0
	}
	return len(mx.draws[0])
}

// Column copies out the M simulated values for one target row.
func (mx *Matrix) Column(i int) []float64 {
	out := make([]float64, len(mx.draws))
	for m, row := range mx.draws {
		out[m] = row[i]
	}
	return out
}

// Simulator runs the draw loop for one fitted model and one encoded set of
// target rows.
type Simulator struct {
	model  *model.FittedGLM
	x      *mat.Dense
	groups []string
	src    rand.Source
}

// NewSimulator encodes the target rows once and prepares the draw loop. For
// mixed models the frame must carry the grouping column named by the fitted
// random-effect structure.
func NewSimulator(m *model.FittedGLM, frame *table.Frame, src rand.Source) (*Simulator, error) {
	x, err := m.DesignMatrix(frame)
	if err != nil {
		return nil, err
	}
	s := &Simulator{model: m, x: x, src: src}
	if m.Ranef != nil {
		groups, ok := frame.Label(m.Ranef.Group)
		if !ok {
			return nil, fmt.Errorf("%w: grouping column %q not in target frame",
				model.ErrEncoding, m.Ranef.Group)
		}
		s.groups = groups
	}
	return s, nil
}

// Means simulates M draws of the conditional mean per target row: one
// coefficient draw, optionally one random-intercept draw per group, pushed
// through the inverse link. No response noise is added; this is the
// simulation path for mixed-model confidence intervals.
func (s *Simulator) Means(draws int, includeRanef bool) (*Matrix, error) {
	return s.run(draws, includeRanef, false)
}

// Responses simulates M response draws per target row, adding the family's
// residual variation on top of each simulated mean. Families without
// bootstrap parameters are rejected.
func (s *Simulator) Responses(draws int, includeRanef bool) (*Matrix, error) {
	if err := s.model.Family.CheckSimulable(); err != nil {
		return nil, err
	}
	return s.run(draws, includeRanef, true)
}

func (s *Simulator) run(draws int, includeRanef, sampleResponse bool) (*Matrix, error) {
	if draws < 1 {
		return nil, fmt.Errorf("simulation: draw count must be positive, got %d", draws)
	}

	m := s.model
	sampler, err := NewSampler(m.Coefs, m.Cov, s.src)
	if err != nil {
		return nil, err
	}

	n, p := s.x.Dims()
	beta := make([]float64, p)
	betaVec := mat.NewVecDense(p, beta)
	etaVec := mat.NewVecDense(n, nil)

	var ranefSD float64
	useRanef := includeRanef && m.Ranef != nil
	if useRanef {
		ranefSD = math.Sqrt(m.Ranef.Variance)
	}
	ranefNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: s.src}

	out := make([][]float64, draws)
	for d := 0; d < draws; d++ {
		sampler.Draw(beta)
		etaVec.MulVec(s.x, betaVec)

		// One fresh intercept per distinct group per draw; groups the
		// original fit never saw get an unconditional draw too.
		var offsets map[string]float64
		if useRanef {
			offsets = make(map[string]float64)
			for _, g := range s.groups {
				if _, ok := offsets[g]; !ok {
					offsets[g] = ranefSD * ranefNorm.Rand()
				}
			}
		}

		row := make([]float64, n)
		for i := 0; i < n; i++ {
			eta := etaVec.AtVec(i)
			if useRanef {
				eta += offsets[s.groups[i]]
			}
			mu := m.Link.Inverse(eta)
			if sampleResponse {
				row[i] = m.Family.Sample(mu, m.Dispersion, m.Theta, s.src)
			} else {
				row[i] = mu
			}
		}
		out[d] = row
	}
	return &Matrix{draws: out}, nil
}
