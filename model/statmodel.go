package model

import (
	"fmt"
	"sort"

	"github.com/kshedden/statmodel/glm"
	"github.com/kshedden/statmodel/statmodel"
	"gonum.org/v1/gonum/mat"

	"predband/family"
	"predband/table"
)

// StatmodelSpec describes a GLM fit performed through the
// github.com/kshedden/statmodel backend. Covariates may name numeric or
// factor (label) columns; factor columns are expanded to treatment-coded
// indicators with the first level, in sorted order, as the baseline.
type StatmodelSpec struct {
	Response   string
	Covariates []string
	Family     family.Tag
	Link       family.LinkTag

	// Theta is the negative binomial size parameter; required when
	// Family is NegBinom.
	Theta float64
}

// glmDataset satisfies the statmodel Dataset contract over in-memory
// columns.
type glmDataset struct {
	data     [][]statmodel.Dtype
	varnames []string
	yname    string
	xnames   []string
}

func (d *glmDataset) Data() [][]statmodel.Dtype { return d.data }
func (d *glmDataset) Names() []string           { return d.varnames }
func (d *glmDataset) Yname() string             { return d.yname }
func (d *glmDataset) Xnames() []string          { return d.xnames }

// FitStatmodel fits a GLM on the frame with the statmodel backend and wraps
// the result in the read-only adapter the interval engines consume.
func FitStatmodel(frame *table.Frame, spec StatmodelSpec) (fitted *FittedGLM, err error) {
	// statmodel reports misuse by panicking; convert to an error at this
	// boundary so callers get the usual contract.
	defer func() {
		if r := recover(); r != nil {
			fitted = nil
			err = fmt.Errorf("statmodel fit failed: %v", r)
		}
	}()

	fam := family.New(spec.Family)
	link := family.NewLink(spec.Link)

	cfg, err := statmodelConfig(spec)
	if err != nil {
		return nil, err
	}

	ds, terms, levels, err := buildDataset(frame, spec)
	if err != nil {
		return nil, err
	}

	md, err := glm.NewGLM(ds, ds.yname, ds.xnames, cfg)
	if err != nil {
		return nil, err
	}
	rslt := md.Fit()

	p := len(rslt.Params())
	coefs := make([]float64, p)
	copy(coefs, rslt.Params())

	vc := rslt.VCov()
	cov := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			cov.SetSym(i, j, vc[i*p+j])
		}
	}

	disp := dispersionFor(spec.Family, rslt.Scale())

	return &FittedGLM{
		Coefs:      coefs,
		Cov:        cov,
		DFResidual: frame.Len() - p,
		Family:     fam,
		Link:       link,
		Dispersion: disp,
		Theta:      spec.Theta,
		Terms:      terms,
		Levels:     levels,
		Converged:  true,
	}, nil
}

func statmodelConfig(spec StatmodelSpec) (*glm.Config, error) {
	var linkTag glm.LinkType
	switch spec.Link {
	case family.IdentityLink:
		linkTag = glm.IdentityLink
	case family.LogLink:
		linkTag = glm.LogLink
	case family.LogitLink:
		linkTag = glm.LogitLink
	default:
		return nil, fmt.Errorf("statmodel backend does not support link %q", family.NewLink(spec.Link).Name)
	}
	link := glm.NewLink(linkTag)

	cfg := glm.DefaultConfig()
	cfg.Link = link

	switch spec.Family {
	case family.Gaussian:
		cfg.Family = glm.NewFamily(glm.GaussianFamily)
	case family.Binomial:
		cfg.Family = glm.NewFamily(glm.BinomialFamily)
	case family.Poisson:
		cfg.Family = glm.NewFamily(glm.PoissonFamily)
	case family.QuasiPoisson:
		cfg.Family = glm.NewFamily(glm.QuasiPoissonFamily)
	case family.Gamma:
		cfg.Family = glm.NewFamily(glm.GammaFamily)
	case family.NegBinom:
		if spec.Theta <= 0 {
			return nil, fmt.Errorf("negative binomial fit requires a positive theta, got %v", spec.Theta)
		}
		cfg.Family = glm.NewNegBinomFamily(1/spec.Theta, link)
	default:
		return nil, fmt.Errorf("statmodel backend does not support family %q", family.New(spec.Family).Name)
	}
	return cfg, nil
}

// buildDataset lays the frame out column-major for statmodel, expanding
// factor covariates to indicators, and returns the term list and the
// fit-time factor levels for later target-row encoding.
func buildDataset(frame *table.Frame, spec StatmodelSpec) (*glmDataset, []Term, map[string][]string, error) {
	n := frame.Len()

	y, ok := frame.Numeric(spec.Response)
	if !ok {
		return nil, nil, nil, fmt.Errorf("response column %q not found", spec.Response)
	}

	icept := make([]statmodel.Dtype, n)
	for i := range icept {
		icept[i] = 1
	}

	data := [][]statmodel.Dtype{toDtype(y), icept}
	varnames := []string{spec.Response, "icept"}
	xnames := []string{"icept"}
	terms := []Term{{}}
	levels := make(map[string][]string)

	for _, name := range spec.Covariates {
		if col, ok := frame.Numeric(name); ok {
			data = append(data, toDtype(col))
			varnames = append(varnames, name)
			xnames = append(xnames, name)
			terms = append(terms, Term{Column: name})
			continue
		}
		col, ok := frame.Label(name)
		if !ok {
			return nil, nil, nil, fmt.Errorf("covariate column %q not found", name)
		}
		lv := distinctLevels(col)
		if len(lv) < 2 {
			return nil, nil, nil, fmt.Errorf("factor %q has fewer than two levels", name)
		}
		levels[name] = lv
		for _, level := range lv[1:] {
			ind := make([]statmodel.Dtype, n)
			for i, v := range col {
				if v == level {
					ind[i] = 1
				}
			}
			dummy := name + "=" + level
			data = append(data, ind)
			varnames = append(varnames, dummy)
			xnames = append(xnames, dummy)
			terms = append(terms, Term{Column: name, Level: level})
		}
	}

	ds := &glmDataset{
		data:     data,
		varnames: varnames,
		yname:    spec.Response,
		xnames:   xnames,
	}
	return ds, terms, levels, nil
}

func toDtype(col []float64) []statmodel.Dtype {
	out := make([]statmodel.Dtype, len(col))
	for i, v := range col {
		out[i] = statmodel.Dtype(v)
	}
	return out
}

func distinctLevels(col []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range col {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// dispersionFor converts the statmodel scale estimate into the dispersion
// convention the samplers use. Fixed-dispersion families report 1.
func dispersionFor(tag family.Tag, scale float64) float64 {
	switch tag {
	case family.Binomial, family.Poisson, family.NegBinom:
		return 1
	default:
		return scale
	}
}

// StatmodelRefitter refits the same specification on row resamples; the
// case-resampling bootstrap consumes it.
type StatmodelRefitter struct {
	frame *table.Frame
	spec  StatmodelSpec
}

// NewStatmodelRefitter wraps training data and a fit specification for
// repeated refits.
func NewStatmodelRefitter(frame *table.Frame, spec StatmodelSpec) *StatmodelRefitter {
	return &StatmodelRefitter{frame: frame, spec: spec}
}

// NumObs returns the training sample size.
func (r *StatmodelRefitter) NumObs() int {
	return r.frame.Len()
}

// Refit fits on the rows at idx (repeats allowed) and returns response-scale
// predictions at the target rows.
func (r *StatmodelRefitter) Refit(idx []int, target *table.Frame) ([]float64, error) {
	sub, err := r.frame.Subset(idx)
	if err != nil {
		return nil, err
	}
	fitted, err := FitStatmodel(sub, r.spec)
	if err != nil {
		return nil, err
	}
	return fitted.PredictResponse(target)
}
