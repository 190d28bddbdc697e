package interval

import (
	"math"
	"testing"

	"predband/family"
)

func TestCriticalValue_NormalVsStudent(t *testing.T) {
	z := CriticalValue(family.New(family.Poisson), 10, 0.05)
	if math.Abs(z-1.959964) > 1e-4 {
		t.Errorf("Poisson critical value = %v, want standard-normal 1.96", z)
	}

	tt := CriticalValue(family.New(family.Gaussian), 10, 0.05)
	if math.Abs(tt-2.228139) > 1e-4 {
		t.Errorf("Gaussian critical value with 10 df = %v, want t 2.228", tt)
	}

	// Degenerate degrees of freedom fall back to the normal quantile.
	fallback := CriticalValue(family.New(family.Gaussian), 0, 0.05)
	if math.Abs(fallback-1.959964) > 1e-4 {
		t.Errorf("Zero-df critical value = %v, want 1.96", fallback)
	}
}

func TestCriticalValue_EstimatedDispersionUsesStudentT(t *testing.T) {
	// Negative-binomial and quasipoisson fits estimate a dispersion-like
	// parameter, so their Wald intervals take the t quantile, not z.
	for _, tag := range []family.Tag{family.NegBinom, family.QuasiPoisson} {
		fam := family.New(tag)
		c := CriticalValue(fam, 10, 0.05)
		if math.Abs(c-2.228139) > 1e-4 {
			t.Errorf("%s critical value with 10 df = %v, want Student-t 2.228", fam.Name, c)
		}
	}
}

func TestCriticalValue_MonotoneInLevel(t *testing.T) {
	fam := family.New(family.Gaussian)
	prev := 0.0
	for _, alpha := range []float64{0.10, 0.05, 0.01} {
		c := CriticalValue(fam, 25, alpha)
		if c <= prev {
			t.Errorf("Critical value %v at alpha=%v not larger than %v", c, alpha, prev)
		}
		prev = c
	}
}

func TestWaldBands_OrderAroundPoint(t *testing.T) {
	eta := []float64{-1, 0, 2}
	se := []float64{0.5, 1, 0.1}
	lower, upper := WaldBands(eta, se, 1.96)
	for i := range eta {
		if !(lower[i] <= eta[i] && eta[i] <= upper[i]) {
			t.Errorf("Row %d: want %v <= %v <= %v", i, lower[i], eta[i], upper[i])
		}
	}
}

func TestToResponse_IncreasingLink(t *testing.T) {
	link := family.NewLink(family.LogLink)
	lower := []float64{0, 1}
	upper := []float64{1, 2}
	ToResponse(link, lower, upper)
	for i := range lower {
		if lower[i] > upper[i] {
			t.Errorf("Row %d out of order after log-link transform: [%v, %v]", i, lower[i], upper[i])
		}
	}
	if math.Abs(lower[0]-1) > 1e-12 || math.Abs(upper[0]-math.E) > 1e-12 {
		t.Errorf("Transformed bounds [%v, %v], want [1, e]", lower[0], upper[0])
	}
}

func TestToResponse_DecreasingLinkSwaps(t *testing.T) {
	// Inversion of a positive-domain decreasing function flips ordering;
	// the swap must restore lower <= upper.
	link := family.NewLink(family.InverseLink)
	lower := []float64{0.5}
	upper := []float64{2.0}
	ToResponse(link, lower, upper)

	if lower[0] > upper[0] {
		t.Fatalf("Decreasing link left bounds out of order: [%v, %v]", lower[0], upper[0])
	}
	if lower[0] != 0.5 || upper[0] != 2.0 {
		t.Errorf("Expected swapped bounds [0.5, 2], got [%v, %v]", lower[0], upper[0])
	}
}

func TestGaussianClosedFormPI(t *testing.T) {
	gaussian := family.New(family.Gaussian)
	for _, tag := range []family.LinkTag{family.IdentityLink, family.LogLink, family.InverseLink} {
		if !GaussianClosedFormPI(gaussian, family.NewLink(tag)) {
			t.Errorf("Expected closed form for gaussian with link %v", tag)
		}
	}
	if GaussianClosedFormPI(gaussian, family.NewLink(family.LogitLink)) {
		t.Error("Logit link has no closed-form Gaussian PI")
	}
	if GaussianClosedFormPI(family.New(family.Poisson), family.NewLink(family.LogLink)) {
		t.Error("Non-Gaussian families have no closed-form PI")
	}
}

func TestGaussianPIBands_WiderThanCI(t *testing.T) {
	eta := []float64{1, 2}
	se := []float64{0.2, 0.3}
	const (
		phi = 0.5
		c   = 2.0
	)
	ciLo, ciHi := WaldBands(eta, se, c)
	piLo, piHi := GaussianPIBands(eta, se, phi, c)
	for i := range eta {
		if piHi[i]-piLo[i] <= ciHi[i]-ciLo[i] {
			t.Errorf("Row %d: prediction interval no wider than confidence interval", i)
		}
	}
}
