package simulation

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"predband/family"
	"predband/model"
	"predband/table"
)

func poissonModel() *model.FittedGLM {
	return &model.FittedGLM{
		Coefs: []float64{1.5, 0.5},
		Cov: mat.NewSymDense(2, []float64{
			0.01, 0.001,
			0.001, 0.005,
		}),
		DFResidual: 98,
		Family:     family.New(family.Poisson),
		Link:       family.NewLink(family.LogLink),
		Dispersion: 1,
		Terms:      []model.Term{{}, {Column: "x"}},
		Converged:  true,
	}
}

func xFrame(xs ...float64) *table.Frame {
	f := table.NewFrame(len(xs))
	_ = f.AddNumeric("x", xs)
	return f
}

func TestSimulator_PoissonSupport(t *testing.T) {
	m := poissonModel()
	sim, err := NewSimulator(m, xFrame(-1, 0, 1), rand.NewSource(5))
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	mx, err := sim.Responses(500, false)
	if err != nil {
		t.Fatalf("Responses failed: %v", err)
	}

	for i := 0; i < mx.NumRows(); i++ {
		for _, v := range mx.Column(i) {
			if v < 0 || v != math.Trunc(v) {
				t.Fatalf("Simulated Poisson response %v outside support", v)
			}
		}
	}

	// Reduced endpoints inherit the support because the reducer never
	// interpolates.
	lower, upper := mx.Bands(0.1)
	for i := range lower {
		if lower[i] < 0 || lower[i] != math.Trunc(lower[i]) {
			t.Errorf("Lower endpoint %v outside support", lower[i])
		}
		if upper[i] < lower[i] {
			t.Errorf("Band [%v, %v] out of order", lower[i], upper[i])
		}
		if upper[i] != math.Trunc(upper[i]) {
			t.Errorf("Upper endpoint %v outside support", upper[i])
		}
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	m := poissonModel()

	run := func(seed uint64) [][]float64 {
		sim, err := NewSimulator(m, xFrame(0, 1), rand.NewSource(seed))
		if err != nil {
			t.Fatalf("NewSimulator failed: %v", err)
		}
		mx, err := sim.Responses(200, false)
		if err != nil {
			t.Fatalf("Responses failed: %v", err)
		}
		cols := make([][]float64, mx.NumRows())
		for i := range cols {
			cols[i] = mx.Column(i)
		}
		return cols
	}

	a := run(77)
	b := run(77)
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("Identically seeded runs diverged at column %d draw %d", i, j)
			}
		}
	}
}

func TestSimulator_RejectsBernoulli(t *testing.T) {
	m := poissonModel()
	m.Family = family.New(family.Binomial)
	m.Link = family.NewLink(family.LogitLink)

	sim, err := NewSimulator(m, xFrame(0), rand.NewSource(1))
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	if _, err := sim.Responses(100, false); !errors.Is(err, family.ErrUnsupported) {
		t.Fatalf("Expected ErrUnsupported for Bernoulli responses, got %v", err)
	}
}

func TestSimulator_MeansStayOnMeanScale(t *testing.T) {
	m := poissonModel()
	sim, err := NewSimulator(m, xFrame(0), rand.NewSource(3))
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	mx, err := sim.Means(2000, false)
	if err != nil {
		t.Fatalf("Means failed: %v", err)
	}

	// With a small coefficient covariance the simulated means hug
	// exp(1.5); response noise would blow the spread up and discretize.
	want := math.Exp(1.5)
	col := mx.Column(0)
	var sum float64
	for _, v := range col {
		if v == math.Trunc(v) && v != want {
			// Means under a log link are almost surely non-integer.
			continue
		}
		sum += v
	}
	mean := sum / float64(len(col))
	if math.Abs(mean-want) > 0.1 {
		t.Errorf("Mean of simulated means %v too far from %v", mean, want)
	}
}

func TestSimulator_MixedModelRanef(t *testing.T) {
	m := poissonModel()
	m.Ranef = &model.RanefSpec{Group: "site", Variance: 0.25}

	f := table.NewFrame(2)
	_ = f.AddNumeric("x", []float64{0, 0})
	_ = f.AddLabel("site", []string{"s1", "s1"})

	sim, err := NewSimulator(m, f, rand.NewSource(11))
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	mx, err := sim.Means(100, true)
	if err != nil {
		t.Fatalf("Means failed: %v", err)
	}

	// Both rows share the same group, so each draw must apply the same
	// intercept to both columns.
	for d := 0; d < mx.NumDraws(); d++ {
		if mx.draws[d][0] != mx.draws[d][1] {
			t.Fatalf("Rows in the same group diverged within draw %d", d)
		}
	}

	// Missing grouping column is an encoding failure.
	if _, err := NewSimulator(m, xFrame(0), rand.NewSource(1)); !errors.Is(err, model.ErrEncoding) {
		t.Errorf("Expected ErrEncoding without the grouping column, got %v", err)
	}
}

func TestSimulator_RanefWidensSpread(t *testing.T) {
	m := poissonModel()
	m.Ranef = &model.RanefSpec{Group: "site", Variance: 1.0}

	f := table.NewFrame(1)
	_ = f.AddNumeric("x", []float64{0})
	_ = f.AddLabel("site", []string{"new-site"})

	spread := func(includeRanef bool) float64 {
		sim, err := NewSimulator(m, f, rand.NewSource(21))
		if err != nil {
			t.Fatalf("NewSimulator failed: %v", err)
		}
		mx, err := sim.Means(2000, includeRanef)
		if err != nil {
			t.Fatalf("Means failed: %v", err)
		}
		lo, hi := mx.Bands(0.05)
		return hi[0] - lo[0]
	}

	without := spread(false)
	with := spread(true)
	if with <= without {
		t.Errorf("Random-effect draws must widen the band: with=%v without=%v", with, without)
	}
}
