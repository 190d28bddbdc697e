// Package predband augments tables of model predictions with confidence
// intervals, prediction intervals, response probabilities, and response
// quantiles. Models are fitted elsewhere; this package consumes the fitted
// estimates through the model.FittedGLM adapter and appends result columns
// to the caller's frame, preserving row order.
//
// Confidence intervals use a closed-form Wald construction where one exists
// and fall back to parametric-bootstrap simulation for mixed models;
// prediction intervals, probabilities and quantiles run the simulation
// engine except for the exactly-Gaussian case. A case-resampling bootstrap
// is available as a cross-check for plain GLM confidence intervals.
package predband

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"predband/boot"
	"predband/interval"
	"predband/model"
	"predband/simulation"
	"predband/table"
)

// AddCI appends a point-prediction column and confidence-interval bound
// columns for the mean response at each target row.
func AddCI(frame *table.Frame, m *model.FittedGLM, opts ...Option) (*table.Frame, []Warning, error) {
	o := buildOptions(opts)
	if err := checkAlpha(o.alpha); err != nil {
		return nil, nil, err
	}
	if err := checkDraws(o.draws); err != nil {
		return nil, nil, err
	}
	warnings := convergenceWarnings(m)

	x, err := m.DesignMatrix(frame)
	if err != nil {
		return nil, nil, err
	}
	eta := m.LinearPredictor(x)
	pred := responseScale(m, eta)

	var lower, upper []float64
	switch {
	case m.Ranef != nil:
		if o.method == MethodBoot {
			return nil, nil, fmt.Errorf("%w: bootstrap intervals are not supported for mixed models", ErrUsage)
		}
		lower, upper, err = simulatedMeanBands(frame, m, o)
		if err != nil {
			return nil, nil, err
		}
		if o.linkScale {
			toLinkScale(m, lower, upper)
		}

	case o.method == MethodBoot:
		if o.refitter == nil {
			return nil, nil, fmt.Errorf("%w: bootstrap method requires a refitter", ErrUsage)
		}
		draws := o.draws
		if draws == 0 {
			draws = defaultBootReps
		}
		res, bootErr := boot.CaseResampling(o.refitter, frame, pred, boot.Config{
			Reps:    draws,
			Alpha:   o.alpha,
			Workers: o.workers,
			Src:     o.src,
		})
		if bootErr != nil {
			return nil, nil, bootErr
		}
		lower, upper = res.Lower, res.Upper
		if res.Failed > 0 {
			warnings = warn(warnings, WarnConvergence,
				fmt.Sprintf("%d bootstrap refits failed and were dropped", res.Failed))
		}
		if o.linkScale {
			toLinkScale(m, lower, upper)
		}

	default:
		c := interval.CriticalValue(m.Family, m.DFResidual, o.alpha)
		se := m.StdErr(x)
		lower, upper = interval.WaldBands(eta, se, c)
		if !o.linkScale {
			interval.ToResponse(m.Link, lower, upper)
		}
	}

	out := frame.Clone()
	point := pred
	if o.linkScale {
		point = eta
	}
	lowerName, upperName := o.boundNames()
	warnings = bind(out, o.predName, point, warnings)
	warnings = bind(out, lowerName, lower, warnings)
	warnings = bind(out, upperName, upper, warnings)
	return out, warnings, nil
}

// AddPI appends a point-prediction column and prediction-interval bound
// columns for a new response at each target row. Prediction intervals are
// always on the response scale.
func AddPI(frame *table.Frame, m *model.FittedGLM, opts ...Option) (*table.Frame, []Warning, error) {
	o := buildOptions(opts)
	if err := checkAlpha(o.alpha); err != nil {
		return nil, nil, err
	}
	if err := checkDraws(o.draws); err != nil {
		return nil, nil, err
	}
	if err := m.Family.CheckSimulable(); err != nil {
		return nil, nil, err
	}
	warnings := convergenceWarnings(m)

	x, err := m.DesignMatrix(frame)
	if err != nil {
		return nil, nil, err
	}
	eta := m.LinearPredictor(x)
	pred := responseScale(m, eta)

	var lower, upper []float64
	if m.Ranef == nil && interval.GaussianClosedFormPI(m.Family, m.Link) {
		t := interval.CriticalValue(m.Family, m.DFResidual, o.alpha)
		se := m.StdErr(x)
		lower, upper = interval.GaussianPIBands(eta, se, m.Dispersion, t)
		interval.ToResponse(m.Link, lower, upper)
	} else {
		mx, simErr := simulateResponses(frame, m, o)
		if simErr != nil {
			return nil, nil, simErr
		}
		lower, upper = mx.Bands(o.alpha)
	}

	out := frame.Clone()
	lowerName, upperName := o.boundNames()
	warnings = bind(out, o.predName, pred, warnings)
	warnings = bind(out, lowerName, lower, warnings)
	warnings = bind(out, upperName, upper, warnings)
	return out, warnings, nil
}

// AddQuantile appends the response quantile at probability p for each
// target row, estimated from the simulated predictive distribution.
func AddQuantile(frame *table.Frame, m *model.FittedGLM, p float64, opts ...Option) (*table.Frame, []Warning, error) {
	o := buildOptions(opts)
	if p <= 0 || p >= 1 {
		return nil, nil, fmt.Errorf("%w: quantile level must lie in (0,1), got %v", ErrUsage, p)
	}
	if err := checkDraws(o.draws); err != nil {
		return nil, nil, err
	}
	if err := m.Family.CheckSimulable(); err != nil {
		return nil, nil, err
	}
	warnings := convergenceWarnings(m)

	pred, err := m.PredictResponse(frame)
	if err != nil {
		return nil, nil, err
	}
	mx, err := simulateResponses(frame, m, o)
	if err != nil {
		return nil, nil, err
	}
	qs := mx.Quantiles(p)

	out := frame.Clone()
	warnings = bind(out, o.predName, pred, warnings)
	warnings = bind(out, o.quantileName(p), qs, warnings)
	return out, warnings, nil
}

// AddProbs appends, per target row, the probability that a new response
// satisfies the comparison against the threshold q.
func AddProbs(frame *table.Frame, m *model.FittedGLM, q float64, cmp string, opts ...Option) (*table.Frame, []Warning, error) {
	o := buildOptions(opts)
	op, err := simulation.ParseComparison(cmp)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := checkDraws(o.draws); err != nil {
		return nil, nil, err
	}
	if err := m.Family.CheckSimulable(); err != nil {
		return nil, nil, err
	}
	warnings := convergenceWarnings(m)

	pred, err := m.PredictResponse(frame)
	if err != nil {
		return nil, nil, err
	}
	mx, err := simulateResponses(frame, m, o)
	if err != nil {
		return nil, nil, err
	}
	probs, err := mx.Probabilities(q, op)
	if err != nil {
		return nil, nil, err
	}

	out := frame.Clone()
	warnings = bind(out, o.predName, pred, warnings)
	warnings = bind(out, o.probName(q, op), probs, warnings)
	return out, warnings, nil
}

func checkAlpha(alpha float64) error {
	if alpha <= 0 || alpha >= 1 {
		return fmt.Errorf("%w: significance level must lie in (0,1), got %v", ErrUsage, alpha)
	}
	return nil
}

func checkDraws(draws int) error {
	if draws < 0 {
		return fmt.Errorf("%w: draw count must be positive, got %d", ErrUsage, draws)
	}
	return nil
}

func convergenceWarnings(m *model.FittedGLM) []Warning {
	if m.Converged {
		return nil
	}
	return warn(nil, WarnConvergence, "the supplied model did not converge; results may be unreliable")
}

func warn(warnings []Warning, kind WarningKind, msg string) []Warning {
	log.Warn().Msg(msg)
	return append(warnings, Warning{Kind: kind, Message: msg})
}

func bind(out *table.Frame, name string, values []float64, warnings []Warning) []Warning {
	overwritten, err := out.Bind(name, values)
	if err != nil {
		// Lengths are derived from the same frame; a mismatch here is
		// a bug, not a usage error.
		panic(err)
	}
	if overwritten {
		warnings = warn(warnings, WarnOverwrite,
			fmt.Sprintf("column %q already existed and was overwritten", name))
	}
	return warnings
}

func responseScale(m *model.FittedGLM, eta []float64) []float64 {
	out := make([]float64, len(eta))
	for i, e := range eta {
		out[i] = m.Link.Inverse(e)
	}
	return out
}

// toLinkScale maps response-scale bounds back through the link, swapping
// for decreasing links to keep lower <= upper.
func toLinkScale(m *model.FittedGLM, lower, upper []float64) {
	for i := range lower {
		lo := m.Link.Eval(lower[i])
		hi := m.Link.Eval(upper[i])
		if m.Link.Decreasing {
			lo, hi = hi, lo
		}
		lower[i] = lo
		upper[i] = hi
	}
}

func simulatedMeanBands(frame *table.Frame, m *model.FittedGLM, o *options) ([]float64, []float64, error) {
	sim, err := simulation.NewSimulator(m, frame, o.src)
	if err != nil {
		return nil, nil, err
	}
	draws := o.draws
	if draws == 0 {
		draws = defaultMixedDraws
	}
	mx, err := sim.Means(draws, o.includeRanef)
	if err != nil {
		return nil, nil, err
	}
	lower, upper := mx.Bands(o.alpha)
	return lower, upper, nil
}

func simulateResponses(frame *table.Frame, m *model.FittedGLM, o *options) (*simulation.Matrix, error) {
	sim, err := simulation.NewSimulator(m, frame, o.src)
	if err != nil {
		return nil, err
	}
	draws := o.draws
	if draws == 0 {
		if m.Ranef != nil {
			draws = defaultMixedDraws
		} else {
			draws = defaultSimDraws
		}
	}
	return sim.Responses(draws, o.includeRanef)
}
