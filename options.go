package predband

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"predband/boot"
	"predband/simulation"
)

// Method selects how a confidence interval is constructed.
type Method int

const (
	// MethodParametric is the default Wald path.
	MethodParametric Method = iota

	// MethodBoot selects the case-resampling bootstrap; it requires a
	// Refitter supplied via WithRefitter.
	MethodBoot
)

// Default draw counts per code path; callers override with WithDraws.
const (
	defaultBootReps   = 2000
	defaultSimDraws   = 10000
	defaultMixedDraws = 200
)

type options struct {
	alpha        float64
	predName     string
	lowerName    string
	upperName    string
	valueName    string
	method       Method
	linkScale    bool
	includeRanef bool
	draws        int
	workers      int
	src          rand.Source
	refitter     boot.Refitter
}

// Option adjusts one request parameter.
type Option func(*options)

func buildOptions(opts []Option) *options {
	o := &options{
		alpha:    0.05,
		predName: "pred",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.src == nil {
		o.src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return o
}

// WithAlpha sets the significance level; the interval covers 1-alpha.
// The default is 0.05.
func WithAlpha(alpha float64) Option {
	return func(o *options) { o.alpha = alpha }
}

// WithPredName overrides the point-prediction column name.
func WithPredName(name string) Option {
	return func(o *options) { o.predName = name }
}

// WithNames overrides the lower and upper bound column names. The defaults
// embed the computed tail probabilities, e.g. lcb0.025 and ucb0.975.
func WithNames(lower, upper string) Option {
	return func(o *options) {
		o.lowerName = lower
		o.upperName = upper
	}
}

// WithValueName overrides the single result column name of AddQuantile and
// AddProbs.
func WithValueName(name string) Option {
	return func(o *options) { o.valueName = name }
}

// WithMethod selects the interval-construction method for AddCI.
func WithMethod(m Method) Option {
	return func(o *options) { o.method = m }
}

// WithLinkScale keeps AddCI results on the linear-predictor scale instead of
// the response scale.
func WithLinkScale() Option {
	return func(o *options) { o.linkScale = true }
}

// WithRanef includes random-effect draws for mixed models, widening the
// bands to cover group-to-group variation.
func WithRanef() Option {
	return func(o *options) { o.includeRanef = true }
}

// WithDraws overrides the simulation draw or bootstrap replicate count.
func WithDraws(n int) Option {
	return func(o *options) { o.draws = n }
}

// WithWorkers bounds concurrent bootstrap refits.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRandomSource pins the random source for reproducible output. Two
// calls with identical inputs and the same seed produce identical results.
func WithRandomSource(src rand.Source) Option {
	return func(o *options) { o.src = src }
}

// WithRefitter supplies the refit-on-resample backend MethodBoot needs.
func WithRefitter(r boot.Refitter) Option {
	return func(o *options) { o.refitter = r }
}

func (o *options) boundNames() (string, string) {
	lower, upper := o.lowerName, o.upperName
	if lower == "" {
		lower = fmt.Sprintf("lcb%g", o.alpha/2)
	}
	if upper == "" {
		upper = fmt.Sprintf("ucb%g", 1-o.alpha/2)
	}
	return lower, upper
}

func (o *options) quantileName(p float64) string {
	if o.valueName != "" {
		return o.valueName
	}
	return fmt.Sprintf("quantile%g", p)
}

func (o *options) probName(q float64, cmp simulation.Comparison) string {
	if o.valueName != "" {
		return o.valueName
	}
	tag := map[simulation.Comparison]string{
		simulation.Less:      "lt",
		simulation.Greater:   "gt",
		simulation.LessEq:    "le",
		simulation.GreaterEq: "ge",
		simulation.Equal:     "eq",
	}[cmp]
	return fmt.Sprintf("prob_%s_%g", tag, q)
}
