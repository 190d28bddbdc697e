package simulation

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws coefficient vectors from the multivariate-normal
// approximation to the sampling distribution of the estimates: mean at the
// point estimate, covariance at the estimated covariance matrix. This is the
// mechanism that propagates parameter uncertainty into the simulated
// responses; residual uncertainty enters later, in the response draws.
type Sampler struct {
	mean  []float64
	sqrtm *mat.Dense
	norm  distuv.Normal

	zv *mat.VecDense
	dv *mat.VecDense
}

// NewSampler factorizes the covariance once per call. A singular or
// rank-deficient covariance is not an error: eigenvalues at or below zero
// are clamped, which collapses variation onto the retained span.
func NewSampler(mean []float64, cov mat.Symmetric, src rand.Source) (*Sampler, error) {
	p := len(mean)
	if r, _ := cov.Dims(); r != p {
		return nil, fmt.Errorf("simulation: mean has %d entries, covariance is %dx%d", p, r, r)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, fmt.Errorf("simulation: eigendecomposition of the covariance failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// sqrtm = V diag(sqrt(lambda)); roundoff can produce tiny negative
	// eigenvalues on near-singular fits.
	sqrtm := mat.NewDense(p, p, nil)
	for j := 0; j < p; j++ {
		s := 0.0
		if vals[j] > 0 {
			s = math.Sqrt(vals[j])
		}
		for i := 0; i < p; i++ {
			sqrtm.Set(i, j, vecs.At(i, j)*s)
		}
	}

	m := make([]float64, p)
	copy(m, mean)
	return &Sampler{
		mean:  m,
		sqrtm: sqrtm,
		norm:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		zv:    mat.NewVecDense(p, nil),
		dv:    mat.NewVecDense(p, nil),
	}, nil
}

// Draw fills dst with one sampled coefficient vector and returns it. When
// dst is nil a fresh slice is allocated.
func (s *Sampler) Draw(dst []float64) []float64 {
	p := len(s.mean)
	if dst == nil {
		dst = make([]float64, p)
	}
	for i := 0; i < p; i++ {
		s.zv.SetVec(i, s.norm.Rand())
	}
	s.dv.MulVec(s.sqrtm, s.zv)
	for i := 0; i < p; i++ {
		dst[i] = s.mean[i] + s.dv.AtVec(i)
	}
	return dst
}
