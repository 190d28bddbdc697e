// Package boot implements the case-resampling bootstrap confidence-interval
// path: refit the model on resampled-with-replacement copies of the training
// data and reduce the refit predictions to bias-corrected-and-accelerated
// intervals. It is the non-parametric alternative to the Wald path, offered
// for validation rather than as the default.
package boot

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"predband/table"
)

// Refitter refits the original model specification on a row subset and
// predicts at target rows on the response scale. Implementations live with
// the fitting backend (model.StatmodelRefitter).
type Refitter interface {
	NumObs() int
	Refit(idx []int, target *table.Frame) ([]float64, error)
}

// Config controls one bootstrap run.
type Config struct {
	// Reps is the number of resample refits.
	Reps int

	// Alpha is the significance level; the interval covers 1-Alpha.
	Alpha float64

	// Workers bounds the number of concurrent refits; 0 or 1 runs
	// serially.
	Workers int

	// Src seeds the resampling. Each replicate receives its own child
	// seed drawn up front from this stream, so concurrent execution
	// cannot reorder random-number consumption and results stay
	// reproducible for a fixed seed regardless of Workers.
	Src rand.Source
}

// Result holds the per-target-row bootstrap intervals.
type Result struct {
	Lower []float64
	Upper []float64

	// Failed counts replicates whose refit returned an error; their
	// predictions are dropped from the interval. Replicates that merely
	// converge poorly are included as produced by the refitting library.
	Failed int
}

// CaseResampling runs the bootstrap and reduces to BCa intervals.
func CaseResampling(r Refitter, target *table.Frame, point []float64, cfg Config) (*Result, error) {
	if cfg.Reps < 2 {
		return nil, fmt.Errorf("boot: replicate count must be at least 2, got %d", cfg.Reps)
	}
	n := r.NumObs()
	if n < 2 {
		return nil, fmt.Errorf("boot: need at least 2 training observations, got %d", n)
	}
	nt := target.Len()
	if len(point) != nt {
		return nil, fmt.Errorf("boot: %d point predictions for %d target rows", len(point), nt)
	}

	// Child seeds are fixed before any work starts.
	seeder := rand.New(cfg.Src)
	seeds := make([]uint64, cfg.Reps)
	for i := range seeds {
		seeds[i] = seeder.Uint64()
	}

	preds := make([][]float64, cfg.Reps)
	var g errgroup.Group
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for rep := 0; rep < cfg.Reps; rep++ {
		rep := rep
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seeds[rep]))
			idx := make([]int, n)
			for i := range idx {
				idx[i] = rng.Intn(n)
			}
			p, err := r.Refit(idx, target)
			if err != nil {
				// Dropped and counted below; the run only fails
				// as a whole when too many replicates do.
				return nil
			}
			preds[rep] = p
			return nil
		})
	}
	_ = g.Wait()

	kept := preds[:0]
	failed := 0
	for _, p := range preds {
		if p == nil {
			failed++
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) < cfg.Reps*3/4 {
		return nil, fmt.Errorf("boot: %d of %d replicate refits failed", failed, cfg.Reps)
	}

	// Jackknife predictions drive the acceleration estimate.
	jack := make([][]float64, n)
	for i := 0; i < n; i++ {
		idx := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				idx = append(idx, j)
			}
		}
		p, err := r.Refit(idx, target)
		if err != nil {
			return nil, fmt.Errorf("boot: jackknife refit without observation %d failed: %w", i, err)
		}
		jack[i] = p
	}

	res := &Result{
		Lower:  make([]float64, nt),
		Upper:  make([]float64, nt),
		Failed: failed,
	}
	col := make([]float64, len(kept))
	jcol := make([]float64, n)
	for t := 0; t < nt; t++ {
		for m, p := range kept {
			col[m] = p[t]
		}
		for i, p := range jack {
			jcol[i] = p[t]
		}
		lo, hi := bcaInterval(col, jcol, point[t], cfg.Alpha)
		res.Lower[t] = lo
		res.Upper[t] = hi
	}
	return res, nil
}

// bcaInterval forms the BCa interval for one target row from the bootstrap
// replicates, the jackknife leave-one-out predictions, and the full-data
// point prediction.
func bcaInterval(boots, jack []float64, point, alpha float64) (float64, float64) {
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	m := float64(len(boots))

	// Bias correction from the share of replicates below the point
	// prediction.
	below := 0
	for _, v := range boots {
		if v < point {
			below++
		}
	}
	frac := (float64(below) + 0.5) / (m + 1)
	z0 := norm.Quantile(frac)

	// Acceleration from the jackknife skewness.
	var mean float64
	for _, v := range jack {
		mean += v
	}
	mean /= float64(len(jack))
	var num, den float64
	for _, v := range jack {
		d := mean - v
		num += d * d * d
		den += d * d
	}
	a := 0.0
	if den > 0 {
		a = num / (6 * math.Pow(den, 1.5))
	}

	adj := func(z float64) float64 {
		w := z0 + z
		return norm.CDF(z0 + w/(1-a*w))
	}
	zlo := norm.Quantile(alpha / 2)
	zhi := norm.Quantile(1 - alpha/2)

	lo := empiricalQuantile(boots, adj(zlo))
	hi := empiricalQuantile(boots, adj(zhi))
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// empiricalQuantile is the type-1 order statistic at p; the bootstrap
// distribution is reduced the same way the simulation reducer works.
func empiricalQuantile(values []float64, p float64) float64 {
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
