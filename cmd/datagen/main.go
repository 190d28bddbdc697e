// Command datagen writes a synthetic regression dataset as CSV, useful for
// exercising the predband CLI end to end without real data. The response is
// drawn from the requested family around a known linear predictor, so the
// fitted coefficients and band coverage can be checked against the truth.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

func main() {
	familyName := flag.String("family", "poisson", "Response family: gaussian, poisson, gamma")
	count := flag.Int("count", 200, "Number of rows to generate")
	groups := flag.Int("groups", 0, "Number of factor levels for a group column (0 = no factor)")
	seed := flag.Uint64("seed", 0, "Random seed (0 = time-seeded)")
	outPath := flag.String("out", "", "Output CSV path (default stdout)")
	flag.Parse()

	s := *seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(s)
	rng := rand.New(src)

	sample, err := sampler(*familyName, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if *outPath != "" {
		fh, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer fh.Close()
		out = fh
	}

	w := csv.NewWriter(out)
	header := []string{"x", "y"}
	if *groups > 0 {
		header = append(header, "group")
	}
	if err := w.Write(header); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// True model: eta = 0.5 + 0.8*x, plus a fixed per-group offset when a
	// factor is requested.
	for i := 0; i < *count; i++ {
		x := rng.Float64()*4 - 2
		eta := 0.5 + 0.8*x
		rec := []string{strconv.FormatFloat(x, 'g', -1, 64)}
		if *groups > 0 {
			g := rng.Intn(*groups)
			eta += 0.2 * float64(g)
			rec = append(rec, "", fmt.Sprintf("g%d", g))
		} else {
			rec = append(rec, "")
		}
		rec[1] = strconv.FormatFloat(sample(eta), 'g', -1, 64)
		if err := w.Write(rec); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func sampler(familyName string, src rand.Source) (func(eta float64) float64, error) {
	switch familyName {
	case "gaussian":
		norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
		return func(eta float64) float64 {
			return eta + norm.Rand()
		}, nil
	case "poisson":
		return func(eta float64) float64 {
			return distuv.Poisson{Lambda: math.Exp(eta), Src: src}.Rand()
		}, nil
	case "gamma":
		return func(eta float64) float64 {
			// Dispersion 0.5: shape 2, rate 2/mu.
			mu := math.Exp(eta)
			return distuv.Gamma{Alpha: 2, Beta: 2 / mu, Src: src}.Rand()
		}, nil
	default:
		return nil, fmt.Errorf("unknown family %q", familyName)
	}
}
