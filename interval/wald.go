// Package interval computes closed-form Wald intervals for model/link
// combinations that admit one, without simulation: confidence intervals on
// the linear-predictor or response scale, and the exact Gaussian prediction
// interval.
package interval

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"predband/family"
)

// CriticalValue returns the two-sided critical value at confidence 1-alpha:
// the standard-normal quantile for families whose asymptotic theory fixes
// the dispersion, Student-t with the residual degrees of freedom otherwise.
func CriticalValue(fam *family.Family, dfResidual int, alpha float64) float64 {
	q := 1 - alpha/2
	if fam.NormalCritical || dfResidual <= 0 {
		return distuv.Normal{Mu: 0, Sigma: 1}.Quantile(q)
	}
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dfResidual)}.Quantile(q)
}

// WaldBands builds eta +/- c*se per target row, on the linear-predictor
// scale.
func WaldBands(eta, se []float64, c float64) (lower, upper []float64) {
	lower = make([]float64, len(eta))
	upper = make([]float64, len(eta))
	for i := range eta {
		lower[i] = eta[i] - c*se[i]
		upper[i] = eta[i] + c*se[i]
	}
	return lower, upper
}

// ToResponse maps link-scale bounds through the inverse link, swapping the
// endpoints for decreasing links so lower <= upper holds on the response
// scale too.
func ToResponse(link *family.Link, lower, upper []float64) {
	for i := range lower {
		lo := link.Inverse(lower[i])
		hi := link.Inverse(upper[i])
		if link.Decreasing {
			lo, hi = hi, lo
		}
		lower[i] = lo
		upper[i] = hi
	}
}

// GaussianClosedFormPI reports whether the Gaussian prediction interval has
// a closed form under this link. Identity, log, and inverse links qualify:
// estimation and residual uncertainty are both exactly Gaussian on the
// linear-predictor scale, and the link is monotone on the fitted range.
func GaussianClosedFormPI(fam *family.Family, link *family.Link) bool {
	if fam.Tag != family.Gaussian {
		return false
	}
	switch link.Tag {
	case family.IdentityLink, family.LogLink, family.InverseLink:
		return true
	default:
		return false
	}
}

// GaussianPIBands builds the exact Gaussian prediction interval on the
// linear-predictor scale: eta +/- t*sqrt(phi + se^2), phi being the residual
// variance. The caller transforms and swaps via ToResponse.
func GaussianPIBands(eta, se []float64, phi, t float64) (lower, upper []float64) {
	lower = make([]float64, len(eta))
	upper = make([]float64, len(eta))
	for i := range eta {
		w := t * math.Sqrt(phi+se[i]*se[i])
		lower[i] = eta[i] - w
		upper[i] = eta[i] + w
	}
	return lower, upper
}
